// Package crypto encrypts secret material at rest, currently the
// sensitive values of HTTP action headers and parameters.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"os"
)

var (
	ErrMasterKeyNotSet   = errors.New("master key not set in environment")
	ErrInvalidMasterKey  = errors.New("invalid master key: must be base64 of 32 bytes")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext: too short")
)

// Cipher seals and opens secrets with AES-256-GCM under the process
// master key.
type Cipher struct {
	key []byte
}

// NewCipher reads MASTER_KEY (base64, 32 bytes) from the environment.
func NewCipher() (*Cipher, error) {
	encoded := os.Getenv("MASTER_KEY")
	if encoded == "" {
		return nil, ErrMasterKeyNotSet
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidMasterKey
	}
	return &Cipher{key: key}, nil
}

// NewCipherWithKey wraps an explicit 32-byte key. Used by tests.
func NewCipherWithKey(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, ErrInvalidMasterKey
	}
	return &Cipher{key: key}, nil
}

// EncryptSecret returns base64(nonce + ciphertext + tag).
func (c *Cipher) EncryptSecret(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptSecret reverses EncryptSecret.
func (c *Cipher) DecryptSecret(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	if len(sealed) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// GenerateKey returns a random 32-byte key, base64-encoded, suitable for
// the MASTER_KEY variable.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
