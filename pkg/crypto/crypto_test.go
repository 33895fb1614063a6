package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ciphertext, err := Encrypt("canvas-access-token-value", testKey)
	require.NoError(t, err)
	require.NotEqual(t, "canvas-access-token-value", ciphertext)

	plaintext, err := Decrypt(ciphertext, testKey)
	require.NoError(t, err)
	require.Equal(t, "canvas-access-token-value", plaintext)
}

func TestEncryptUniqueNonce(t *testing.T) {
	a, err := Encrypt("same-secret", testKey)
	require.NoError(t, err)
	b, err := Encrypt("same-secret", testKey)
	require.NoError(t, err)

	// Random nonce per encryption: identical plaintexts must not produce
	// identical ciphertexts.
	require.NotEqual(t, a, b)
}

func TestDecryptWrongKey(t *testing.T) {
	ciphertext, err := Encrypt("secret", testKey)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, "ffffffffffffffffffffffffffffffff")
	require.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	_, err := Decrypt("not-base64!!!", testKey)
	require.Error(t, err)

	_, err = Decrypt("YWJj", testKey) // valid base64, too short for a nonce
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestEncryptBadKeyLength(t *testing.T) {
	_, err := Encrypt("secret", "short")
	require.Error(t, err)
}
