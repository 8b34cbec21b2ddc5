// Package cryptox implements the key derivation and authenticated encryption
// primitives behind folder lock payloads and stored recovery codes.
//
// Payloads are encoded as three hex segments joined by ':' — IV, GCM
// authentication tag, ciphertext. The encoding is part of the stored data
// format and must stay stable for existing locks to remain decryptable.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived key length, selecting AES-256.
	KeySize = 32

	// SaltSize is the length of per-lock salts.
	SaltSize = 32

	// Iterations is the PBKDF2 iteration count.
	Iterations = 100_000

	ivSize  = 16
	tagSize = 16
)

// ErrDecryptFailed covers every decryption failure: malformed encoding, bad
// hex, authentication tag mismatch, wrong secret. Callers must not be able
// to tell these apart.
var ErrDecryptFailed = errors.New("decrypt failed")

// DeriveKey stretches a user-supplied secret and a stored salt into an
// AES-256 key via PBKDF2-HMAC-SHA256. Deterministic: the same secret and
// salt always yield the same key.
func DeriveKey(secret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(secret), salt, Iterations, KeySize, sha256.New)
}

// Cipher performs authenticated encryption bound to a fixed associated-data
// tag. The tag is a domain-separation constant, not a secret; payloads
// sealed under one tag will not open under another.
type Cipher struct {
	aad []byte
}

// NewCipher constructs a Cipher with the given associated-data tag.
func NewCipher(aad string) *Cipher {
	return &Cipher{aad: []byte(aad)}
}

// Encrypt derives a key from secret+salt and seals plaintext under it.
// A fresh random 16-byte IV is generated on every call.
func (c *Cipher) Encrypt(plaintext, secret string, salt []byte) (string, error) {
	key := DeriveKey(secret, salt)
	return c.EncryptWithKey(plaintext, key)
}

// Decrypt reverses Encrypt. Returns ErrDecryptFailed on any failure.
func (c *Cipher) Decrypt(encoded, secret string, salt []byte) (string, error) {
	key := DeriveKey(secret, salt)
	return c.DecryptWithKey(encoded, key)
}

// EncryptWithKey seals plaintext under an already-derived (or static server)
// key and returns the iv:authTag:ciphertext hex encoding.
func (c *Cipher) EncryptWithKey(plaintext string, key []byte) (string, error) {
	aesgcm, err := c.newGCM(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	// Seal appends the tag to the ciphertext; split it back out so the
	// segments can be encoded separately.
	sealed := aesgcm.Seal(nil, iv, []byte(plaintext), c.aad)
	ct := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct), nil
}

// DecryptWithKey opens an iv:authTag:ciphertext payload under the given key.
// Returns ErrDecryptFailed on any failure.
func (c *Cipher) DecryptWithKey(encoded string, key []byte) (string, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return "", ErrDecryptFailed
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivSize {
		return "", ErrDecryptFailed
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", ErrDecryptFailed
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrDecryptFailed
	}

	aesgcm, err := c.newGCM(key)
	if err != nil {
		return "", err
	}

	plaintext, err := aesgcm.Open(nil, iv, append(ct, tag...), c.aad)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

func (c *Cipher) newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivSize)
}
