package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ciphertext, err := Encrypt("imap-secret-password", "server-key")
	require.NoError(t, err)
	assert.NotEqual(t, "imap-secret-password", ciphertext)

	plaintext, err := Decrypt(ciphertext, "server-key")
	require.NoError(t, err)
	assert.Equal(t, "imap-secret-password", plaintext)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	ciphertext, err := Encrypt("imap-secret-password", "server-key")
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, "other-key")
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := Decrypt("not base64!!", "server-key")
	assert.Error(t, err)

	_, err = Decrypt("aGVsbG8=", "server-key") // valid base64, too short
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
