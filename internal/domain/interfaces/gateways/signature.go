// Package gateways defines contracts for external verification services.
package gateways

// SignatureVerifier checks detached OpenPGP signatures against a keyring
type SignatureVerifier interface {
	// VerifyDetachedSignature verifies sigPath as a signature over filePath
	VerifyDetachedSignature(filePath, sigPath string) error

	// KeyringSize returns the number of keys available for verification
	KeyringSize() int
}
