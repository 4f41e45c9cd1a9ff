package state

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
)

// EncryptedBackend seals every value with age before handing it to the
// wrapped backend. Values that fail to decrypt are reported as
// ErrCorruptSnapshot.
type EncryptedBackend struct {
	inner      Backend
	identity   age.Identity
	recipients []age.Recipient
}

// NewEncryptedBackend wraps inner. Values are encrypted to identity's
// recipient plus any extra recipients.
func NewEncryptedBackend(inner Backend, identity *age.X25519Identity, extra ...age.Recipient) (*EncryptedBackend, error) {
	if inner == nil {
		return nil, fmt.Errorf("state: encrypted backend requires an inner backend")
	}
	if identity == nil {
		return nil, fmt.Errorf("state: encrypted backend requires an identity")
	}
	recipients := append([]age.Recipient{identity.Recipient()}, extra...)
	return &EncryptedBackend{inner: inner, identity: identity, recipients: recipients}, nil
}

// GenerateIdentity creates a fresh X25519 identity.
func GenerateIdentity() (*age.X25519Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("state: generate identity: %w", err)
	}
	return identity, nil
}

// ParseIdentity reads the first X25519 identity from an age identity file
// body. Other identity types in the file are skipped.
func ParseIdentity(r io.Reader) (*age.X25519Identity, error) {
	identities, err := age.ParseIdentities(r)
	if err != nil {
		return nil, fmt.Errorf("state: parse identity: %w", err)
	}
	for _, identity := range identities {
		if x25519, ok := identity.(*age.X25519Identity); ok {
			return x25519, nil
		}
	}
	return nil, fmt.Errorf("state: no X25519 identity found")
}

// LoadIdentityFile parses the identity stored at path.
func LoadIdentityFile(path string) (*age.X25519Identity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("state: open identity: %w", err)
	}
	defer file.Close()
	return ParseIdentity(file)
}

func (b *EncryptedBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	sealed, found, err := b.inner.Get(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}
	reader, err := age.Decrypt(bytes.NewReader(sealed), b.identity)
	if err != nil {
		return nil, true, fmt.Errorf("%w: decrypt %q: %v", ErrCorruptSnapshot, key, err)
	}
	plain, err := io.ReadAll(reader)
	if err != nil {
		return nil, true, fmt.Errorf("%w: read %q: %v", ErrCorruptSnapshot, key, err)
	}
	return plain, true, nil
}

func (b *EncryptedBackend) Set(ctx context.Context, key string, value []byte) error {
	var sealed bytes.Buffer
	writer, err := age.Encrypt(&sealed, b.recipients...)
	if err != nil {
		return fmt.Errorf("state: encrypt %q: %w", key, err)
	}
	if _, err := writer.Write(value); err != nil {
		return fmt.Errorf("state: encrypt %q: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("state: encrypt %q: %w", key, err)
	}
	return b.inner.Set(ctx, key, sealed.Bytes())
}

func (b *EncryptedBackend) Delete(ctx context.Context, key string) error {
	return b.inner.Delete(ctx, key)
}
