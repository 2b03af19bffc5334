// Package signature checks detached OpenPGP signatures over downloaded artifacts.
package signature

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/glorpus-work/formula/pkg/errors"
)

// Verifier holds the keyring signatures are checked against.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier reads an armored or binary keyring.
func NewVerifier(r io.Reader) (*Verifier, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read keyring: %w", err)
	}
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse keyring: %w", err)
		}
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return &Verifier{keyring: keyring}, nil
}

// LoadVerifier reads the keyring file at path.
func LoadVerifier(path string) (*Verifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()
	return NewVerifier(f)
}

// Verify checks sig (armored or binary) over content. Any failure wraps ErrIntegrity.
func (v *Verifier) Verify(content, sig []byte) error {
	_, err := openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(content), bytes.NewReader(sig), nil)
	if err != nil {
		_, err = openpgp.CheckDetachedSignature(v.keyring, bytes.NewReader(content), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return fmt.Errorf("%w: signature verification: %w", errors.ErrIntegrity, err)
	}
	return nil
}
