package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/folderlock/internal/common"
)

const testAAD = "folderlock-v1"

func TestDeriveKey_DeterministicAndSized(t *testing.T) {
	salt := []byte("0123456789abcdef0123456789abcdef")

	k1 := DeriveKey("1234", salt)
	k2 := DeriveKey("1234", salt)

	require.Len(t, k1, KeySize)
	assert.Equal(t, k1, k2, "same secret+salt must derive the same key")
}

func TestDeriveKey_DifferentSaltDifferentKey(t *testing.T) {
	k1 := DeriveKey("1234", []byte("saltsaltsaltsalt"))
	k2 := DeriveKey("1234", []byte("pepperpepperpepp"))
	assert.NotEqual(t, k1, k2)
}

func TestEncrypt_RoundTrip(t *testing.T) {
	c := NewCipher(testAAD)
	salt := common.GenerateRandByteArray(SaltSize)

	tests := []struct {
		name      string
		plaintext string
		secret    string
	}{
		{"digits", "1234", "1234"},
		{"password", "correct horse battery staple", "correct horse battery staple"},
		{"empty plaintext", "", "secret"},
		{"unicode", "pässwörd≠", "pässwörd≠"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := c.Encrypt(tc.plaintext, tc.secret, salt)
			require.NoError(t, err)

			dec, err := c.Decrypt(enc, tc.secret, salt)
			require.NoError(t, err)
			assert.Equal(t, tc.plaintext, dec)
		})
	}
}

func TestEncrypt_EncodingShape(t *testing.T) {
	c := NewCipher(testAAD)
	salt := common.GenerateRandByteArray(SaltSize)

	enc, err := c.Encrypt("1234", "1234", salt)
	require.NoError(t, err)

	parts := strings.Split(enc, ":")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], ivSize*2, "IV segment is 16 hex-encoded bytes")
	assert.Len(t, parts[1], tagSize*2, "tag segment is 16 hex-encoded bytes")
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	c := NewCipher(testAAD)
	salt := common.GenerateRandByteArray(SaltSize)

	e1, err := c.Encrypt("1234", "1234", salt)
	require.NoError(t, err)
	e2, err := c.Encrypt("1234", "1234", salt)
	require.NoError(t, err)

	assert.NotEqual(t, strings.Split(e1, ":")[0], strings.Split(e2, ":")[0])
}

func TestDecrypt_WrongSecretFails(t *testing.T) {
	c := NewCipher(testAAD)
	salt := common.GenerateRandByteArray(SaltSize)

	enc, err := c.Encrypt("1234", "1234", salt)
	require.NoError(t, err)

	_, err = c.Decrypt(enc, "9999", salt)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDecrypt_WrongSaltFails(t *testing.T) {
	c := NewCipher(testAAD)

	enc, err := c.Encrypt("1234", "1234", common.GenerateRandByteArray(SaltSize))
	require.NoError(t, err)

	_, err = c.Decrypt(enc, "1234", common.GenerateRandByteArray(SaltSize))
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDecrypt_WrongAADFails(t *testing.T) {
	salt := common.GenerateRandByteArray(SaltSize)

	enc, err := NewCipher(testAAD).Encrypt("1234", "1234", salt)
	require.NoError(t, err)

	_, err = NewCipher("other-domain").Decrypt(enc, "1234", salt)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDecrypt_TamperedTagFails(t *testing.T) {
	c := NewCipher(testAAD)
	salt := common.GenerateRandByteArray(SaltSize)

	enc, err := c.Encrypt("1234", "1234", salt)
	require.NoError(t, err)

	parts := strings.Split(enc, ":")
	tag := []byte(parts[1])
	// flip one hex character in the auth tag segment
	if tag[0] == 'a' {
		tag[0] = 'b'
	} else {
		tag[0] = 'a'
	}
	tampered := parts[0] + ":" + string(tag) + ":" + parts[2]

	_, err = c.Decrypt(tampered, "1234", salt)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDecrypt_MalformedEncoding(t *testing.T) {
	c := NewCipher(testAAD)
	key := common.GenerateRandByteArray(KeySize)

	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"two segments", "aabb:ccdd"},
		{"four segments", "aa:bb:cc:dd"},
		{"not hex", "zz:yy:xx"},
		{"short iv", "aabb:" + strings.Repeat("00", tagSize) + ":aabb"},
		{"short tag", strings.Repeat("00", ivSize) + ":aabb:aabb"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.DecryptWithKey(tc.payload, key)
			assert.ErrorIs(t, err, ErrDecryptFailed, "all malformed payloads collapse to the generic error")
		})
	}
}

func TestEncryptWithKey_StaticKeyRoundTrip(t *testing.T) {
	c := NewCipher(testAAD)
	key := common.GenerateRandByteArray(KeySize)

	enc, err := c.EncryptWithKey("482913", key)
	require.NoError(t, err)

	dec, err := c.DecryptWithKey(enc, key)
	require.NoError(t, err)
	assert.Equal(t, "482913", dec)

	_, err = c.DecryptWithKey(enc, common.GenerateRandByteArray(KeySize))
	assert.ErrorIs(t, err, ErrDecryptFailed)
}
