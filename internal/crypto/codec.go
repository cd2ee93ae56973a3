// Package crypto seals chat message text at rest with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

var (
	ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")
	ErrMalformed  = errors.New("malformed ciphertext or iv")
	ErrDecrypt    = errors.New("message could not be decrypted")
)

// Codec encrypts and decrypts message text. It is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
	rand io.Reader
}

// NewCodec builds a codec around a 32 byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Codec{aead: gcm, rand: rand.Reader}, nil
}

// Encrypt seals plainText under a fresh random IV. Both values are hex encoded.
func (c *Codec) Encrypt(plainText string) (cipherText string, iv string, err error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", "", fmt.Errorf("generate iv: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plainText), nil)
	return hex.EncodeToString(sealed), hex.EncodeToString(nonce), nil
}

// Decrypt reverses Encrypt. A wrong key, IV or tampered ciphertext yields ErrDecrypt.
func (c *Codec) Decrypt(cipherText, iv string) (string, error) {
	nonce, err := hex.DecodeString(iv)
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", ErrMalformed
	}
	sealed, err := hex.DecodeString(cipherText)
	if err != nil || len(sealed) < c.aead.Overhead() {
		return "", ErrMalformed
	}
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
