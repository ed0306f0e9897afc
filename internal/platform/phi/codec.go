// Package phi provides AES-256-GCM field-level protection for Protected
// Health Information before it crosses the persistence boundary. Values are
// JSON-encoded, sealed with a random nonce, and stored as base64 tokens.
package phi

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrDecodeFailure is returned when a token cannot be reversed: wrong or
// rotated key, truncated ciphertext, or a corrupted payload. Read paths are
// expected to degrade to an empty value rather than abort on this error.
var ErrDecodeFailure = errors.New("phi: decode failure")

// Codec encrypts and decrypts structured PHI values with a process-wide key.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec creates a Codec from a 32-byte AES-256 key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("phi codec: key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("phi codec: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("phi codec: create GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Protect JSON-encodes v and encrypts it, returning a base64 token with the
// nonce prepended. Tokens differ across calls for the same input; Reveal with
// the same key always recovers the original value.
func (c *Codec) Protect(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("phi protect: marshal: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("phi protect: generate nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, so the result is nonce + ciphertext.
	sealed := c.aead.Seal(nonce, nonce, data, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Reveal decodes and decrypts a token produced by Protect, unmarshaling the
// plaintext into out. Any failure to reverse the token yields ErrDecodeFailure.
func (c *Codec) Reveal(token string, out any) error {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("%w: base64 decode: %v", ErrDecodeFailure, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return fmt.Errorf("%w: ciphertext too short", ErrDecodeFailure)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", ErrDecodeFailure, err)
	}
	return nil
}

// Rotate re-encrypts a token produced under old with the receiver's key.
// Used by maintenance paths when the process-wide key changes.
func (c *Codec) Rotate(old *Codec, token string) (string, error) {
	var v json.RawMessage
	if err := old.Reveal(token, &v); err != nil {
		return "", err
	}
	return c.Protect(v)
}
