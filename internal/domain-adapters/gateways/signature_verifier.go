package gateways

import (
	"fmt"

	"github.com/ochairo/forge/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external GPG adapter to implement the domain
// SignatureVerifier interface
type gpgVerifier struct {
	verifier *gpg.Verifier
}

// NewGPGVerifier creates a signature verifier loaded with the keys in keyringPath
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier(keyringPath string) (*gpgVerifier, error) {
	v, err := gpg.NewVerifierFromKeyring(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyring %s: %w", keyringPath, err)
	}
	return &gpgVerifier{verifier: v}, nil
}

// VerifyDetachedSignature verifies a detached signature stored next to a file
func (g *gpgVerifier) VerifyDetachedSignature(filePath, sigPath string) error {
	if err := g.verifier.VerifyDetachedSignature(filePath, sigPath); err != nil {
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}
	return nil
}

// KeyringSize returns the number of keys loaded
func (g *gpgVerifier) KeyringSize() int {
	return g.verifier.KeyringSize()
}
