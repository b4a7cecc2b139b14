package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jczteam/jcz/internal/container"
	"github.com/jczteam/jcz/internal/jczerrors"
)

func TestPasswordCipherEncryptDecryptRoundTrip(t *testing.T) {
	c := NewPasswordCipher()
	c.MemoryCostKB = 8 * 1024 // cheap params so the test runs fast
	c.TimeCost = 1
	c.Parallelism = 1

	password := []byte("correct horse battery staple")
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	encoded, err := c.Encrypt(password, plaintext)
	require.NoError(t, err)

	kind, meta, ciphertext, err := container.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, container.KindPassword, kind)
	pm := meta.(*container.PasswordMetadata)

	decrypted, err := c.Decrypt(password, pm, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestPasswordCipherWrongPasswordFailsAuthentication(t *testing.T) {
	c := NewPasswordCipher()
	c.MemoryCostKB = 8 * 1024
	c.TimeCost = 1
	c.Parallelism = 1

	encoded, err := c.Encrypt([]byte("right password"), []byte("secret data"))
	require.NoError(t, err)

	_, meta, ciphertext, err := container.Decode(encoded)
	require.NoError(t, err)
	pm := meta.(*container.PasswordMetadata)

	_, err = c.Decrypt([]byte("wrong password"), pm, ciphertext)
	require.Error(t, err)
	assert.Same(t, jczerrors.ErrAuthenticationFailed, err)
}

func TestPasswordCipherDecryptUsesRecordedParameters(t *testing.T) {
	encryptor := &PasswordCipher{MemoryCostKB: 8 * 1024, TimeCost: 1, Parallelism: 1}
	password := []byte("some password")

	encoded, err := encryptor.Encrypt(password, []byte("payload"))
	require.NoError(t, err)

	_, meta, ciphertext, err := container.Decode(encoded)
	require.NoError(t, err)
	pm := meta.(*container.PasswordMetadata)
	assert.EqualValues(t, 8*1024, pm.MemoryCostKB)
	assert.EqualValues(t, 1, pm.TimeCost)
	assert.EqualValues(t, 1, pm.Parallelism)

	// A cipher configured with today's (different) defaults must still
	// decrypt an old container using the parameters stored in its metadata.
	decryptor := NewPasswordCipher()
	decrypted, err := decryptor.Decrypt(password, pm, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), decrypted)
}

func TestPasswordCipherEncryptRejectsEmptyPassword(t *testing.T) {
	c := NewPasswordCipher()
	_, err := c.Encrypt([]byte(""), []byte("payload"))
	require.Error(t, err)
	assert.Equal(t, jczerrors.Argument, jczerrors.ClassificationOf(err))
}

func TestPasswordCipherDecryptRejectsEmptyPassword(t *testing.T) {
	c := NewPasswordCipher()
	_, err := c.Decrypt(nil, &container.PasswordMetadata{}, []byte("ciphertext"))
	require.Error(t, err)
	assert.Equal(t, jczerrors.Argument, jczerrors.ClassificationOf(err))
}

func TestPasswordCipherTamperedCiphertextFailsAuthentication(t *testing.T) {
	c := &PasswordCipher{MemoryCostKB: 8 * 1024, TimeCost: 1, Parallelism: 1}
	password := []byte("a password")

	encoded, err := c.Encrypt(password, []byte("payload data"))
	require.NoError(t, err)

	_, meta, ciphertext, err := container.Decode(encoded)
	require.NoError(t, err)
	pm := meta.(*container.PasswordMetadata)

	tampered := append([]byte(nil), ciphertext...)
	tampered[0] ^= 0xFF

	_, err = c.Decrypt(password, pm, tampered)
	require.Error(t, err)
	assert.Same(t, jczerrors.ErrAuthenticationFailed, err)
}
