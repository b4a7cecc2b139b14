package cipher

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jczteam/jcz/internal/container"
	"github.com/jczteam/jcz/internal/jczerrors"
)

func generateTestKey(t *testing.T, bits int) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, bits)
	require.NoError(t, err)
	return key
}

func TestRsaCipherEncryptDecryptRoundTrip(t *testing.T) {
	key := generateTestKey(t, 2048)
	c := NewRsaCipher()
	plaintext := []byte("hybrid encrypted payload")

	encoded, err := c.Encrypt(&key.PublicKey, plaintext)
	require.NoError(t, err)

	kind, meta, ciphertext, err := container.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, container.KindRsa, kind)
	rm := meta.(*container.RsaMetadata)

	decrypted, err := c.Decrypt(key, rm, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestRsaCipherRejectsUndersizedKey(t *testing.T) {
	key := generateTestKey(t, 1024)
	c := NewRsaCipher()

	_, err := c.Encrypt(&key.PublicKey, []byte("data"))
	require.Error(t, err)
	assert.Equal(t, jczerrors.KeyMaterial, jczerrors.ClassificationOf(err))
}

func TestRsaCipherWrongKeyFailsToUnwrapAsCryptographicError(t *testing.T) {
	key1 := generateTestKey(t, 2048)
	key2 := generateTestKey(t, 2048)
	c := NewRsaCipher()

	encoded, err := c.Encrypt(&key1.PublicKey, []byte("secret"))
	require.NoError(t, err)

	_, meta, ciphertext, err := container.Decode(encoded)
	require.NoError(t, err)
	rm := meta.(*container.RsaMetadata)

	_, err = c.Decrypt(key2, rm, ciphertext)
	require.Error(t, err)
	assert.Equal(t, jczerrors.Cryptographic, jczerrors.ClassificationOf(err))
}
