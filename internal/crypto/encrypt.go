// Package crypto encrypts sensitive resident fields (support needs, case
// notes) at rest with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// hkdfInfo separates the field key from anything else derived from the
	// same secret.
	hkdfInfo = "haven/v1/resident-fields"

	// Format: enc:v1:<base64(nonce+ciphertext+tag)>
	ciphertextPrefix = "enc:v1:"
)

// ErrEmptySecret is returned when no encryption secret is configured.
var ErrEmptySecret = errors.New("crypto: secret must not be empty")

// DeriveKey derives a 32-byte AES-256 key from secret using HKDF-SHA256.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	key := make([]byte, 32)
	if _, err := r.Read(key); err != nil {
		return nil, fmt.Errorf("crypto: hkdf key derivation failed: %w", err)
	}
	return key, nil
}

// FieldCipher seals and opens individual column values.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher derives a key from secret and prepares the AEAD.
func NewFieldCipher(secret string) (*FieldCipher, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCMWithRandomNonce(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: NewGCMWithRandomNonce: %w", err)
	}
	return &FieldCipher{aead: aead}, nil
}

// Encrypt returns "enc:v1:<base64>". Empty input stays empty.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	sealed := c.aead.Seal(nil, nil, []byte(plaintext), nil)
	return ciphertextPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values without the "enc:" prefix were written
// before encryption was enabled and are returned unchanged.
func (c *FieldCipher) Decrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	if !strings.HasPrefix(value, "enc:") {
		slog.Warn("crypto: unencrypted field value, will be encrypted on next write")
		return value, nil
	}

	if !strings.HasPrefix(value, ciphertextPrefix) {
		return "", fmt.Errorf("crypto: unsupported encryption version in prefix %q", value[:min(len(value), 10)])
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, ciphertextPrefix))
	if err != nil {
		return "", fmt.Errorf("crypto: base64 decode: %w", err)
	}

	plaintext, err := c.aead.Open(nil, nil, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("crypto: decryption failed (wrong key or corrupted data): %w", err)
	}
	return string(plaintext), nil
}

// MustDecrypt is for read paths that prefer a placeholder over failing the
// whole response.
func (c *FieldCipher) MustDecrypt(value string) string {
	plain, err := c.Decrypt(value)
	if err != nil {
		slog.Error("crypto: failed to decrypt field", "error", err)
		return "[unreadable]"
	}
	return plain
}
