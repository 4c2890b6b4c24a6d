// Package gpg provides OpenPGP detached signature verification for patch files.
package gpg

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Detached signatures are tiny; anything larger is rejected unread.
const maxSignatureSize = 64 * 1024

const armorSignaturePrefix = "-----BEGIN PGP SIGNATURE---"

// Verifier checks detached signatures using ProtonMail's go-crypto
// This is in external-adapters to isolate the external dependency
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
	}
}

// NewVerifierFromKeyring creates a verifier loaded with the keys in keyPath
func NewVerifierFromKeyring(keyPath string) (*Verifier, error) {
	v := NewVerifier()
	if err := v.ImportKeyFromFile(keyPath); err != nil {
		return nil, err
	}
	return v, nil
}

// ImportKeyFromFile imports public keys from an armored or binary keyring file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is the configured keyring
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found in file")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// VerifyDetachedSignature verifies sigPath as a detached signature over filePath.
// Both armored and binary signatures are accepted.
func (v *Verifier) VerifyDetachedSignature(filePath, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no keys imported, call ImportKeyFromFile first")
	}

	sigData, err := readSignature(sigPath)
	if err != nil {
		return err
	}

	//nolint:gosec // G304: filePath is a patch resolved from the manifest
	dataFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer dataFile.Close()

	if bytes.HasPrefix(bytes.TrimSpace(sigData), []byte(armorSignaturePrefix)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, dataFile, bytes.NewReader(sigData), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, dataFile, bytes.NewReader(sigData), nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}

// KeyringSize returns the number of keys in the keyring
func (v *Verifier) KeyringSize() int {
	return len(v.keyring)
}

func readSignature(sigPath string) ([]byte, error) {
	//nolint:gosec // G304: sigPath sits next to a manifest patch
	f, err := os.Open(sigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSignatureSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read signature: %w", err)
	}
	if len(data) > maxSignatureSize {
		return nil, fmt.Errorf("signature file %s exceeds %d bytes", sigPath, maxSignatureSize)
	}
	if len(data) < 10 {
		return nil, fmt.Errorf("signature file too small to be a valid OpenPGP signature")
	}
	return data, nil
}
