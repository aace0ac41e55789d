// Package secret encrypts connection passwords at rest with AES-256-GCM. The
// key comes from the environment or, failing that, from the OS keyring, where
// it is generated on first use.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	KeyringService = "mysqlsync"
	KeyringUser    = "profile-key"
	KeySize        = 32
)

var ErrInvalidKey = errors.New("secret key must be 32 bytes, hex encoded")

// Cipher encrypts and decrypts short secrets. Ciphertexts are encoded as
// hex(nonce):hex(sealed).
type Cipher struct {
	gcm cipher.AEAD
}

func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{gcm: gcm}, nil
}

// Encrypt seals plaintext under a fresh random nonce. An empty plaintext stays empty.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. A value that is not in the
// encrypted format is returned unchanged, so legacy plaintext keeps working.
func (c *Cipher) Decrypt(value string) (string, error) {
	nonce, sealed, ok := c.split(value)
	if !ok {
		return value, nil
	}
	plaintext, err := c.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt secret: %w", err)
	}
	return string(plaintext), nil
}

// IsEncrypted reports whether value looks like the output of Encrypt.
func (c *Cipher) IsEncrypted(value string) bool {
	_, _, ok := c.split(value)
	return ok
}

func (c *Cipher) split(value string) ([]byte, []byte, bool) {
	noncePart, sealedPart, found := strings.Cut(value, ":")
	if !found {
		return nil, nil, false
	}
	nonce, err := hex.DecodeString(noncePart)
	if err != nil || len(nonce) != c.gcm.NonceSize() {
		return nil, nil, false
	}
	sealed, err := hex.DecodeString(sealedPart)
	if err != nil || len(sealed) < c.gcm.Overhead() {
		return nil, nil, false
	}
	return nonce, sealed, true
}

// LoadKey decodes envKey when set. Otherwise it reads the key from the OS
// keyring, generating and storing a new one when none exists.
func LoadKey(envKey string) ([]byte, error) {
	if envKey != "" {
		return decodeKey(envKey)
	}

	stored, err := keyring.Get(KeyringService, KeyringUser)
	switch {
	case err == nil:
		return decodeKey(stored)
	case !errors.Is(err, keyring.ErrNotFound):
		return nil, fmt.Errorf("read key from keyring: %w", err)
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	if err := keyring.Set(KeyringService, KeyringUser, hex.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("store key in keyring: %w", err)
	}
	return key, nil
}

// NewCipherFromEnv is LoadKey followed by NewCipher.
func NewCipherFromEnv(envKey string) (*Cipher, error) {
	key, err := LoadKey(envKey)
	if err != nil {
		return nil, err
	}
	return NewCipher(key)
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}
