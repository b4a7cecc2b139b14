package container

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passwordMeta() *PasswordMetadata {
	m := &PasswordMetadata{MemoryCostKB: 65536, TimeCost: 3, Parallelism: 4}
	for i := range m.Salt {
		m.Salt[i] = byte(i)
	}
	for i := range m.Nonce {
		m.Nonce[i] = byte(i + 100)
	}
	return m
}

func TestEncodeDecodePasswordRoundTrip(t *testing.T) {
	meta := passwordMeta()
	ciphertext := []byte("pretend-ciphertext-and-tag")

	data, err := Encode(meta, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, Magic[:], data[0:4])
	assert.Equal(t, Version, data[4])
	assert.Equal(t, byte(KindPassword), data[5])

	kind, decodedMeta, decodedCiphertext, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, KindPassword, kind)
	assert.Equal(t, ciphertext, decodedCiphertext)

	pm, ok := decodedMeta.(*PasswordMetadata)
	require.True(t, ok)
	assert.Equal(t, meta.Salt, pm.Salt)
	assert.Equal(t, meta.Nonce, pm.Nonce)
	assert.Equal(t, meta.MemoryCostKB, pm.MemoryCostKB)
	assert.Equal(t, meta.TimeCost, pm.TimeCost)
	assert.Equal(t, meta.Parallelism, pm.Parallelism)
}

func TestEncodeDecodeRsaRoundTrip(t *testing.T) {
	meta := &RsaMetadata{WrappedKey: []byte("a-wrapped-256-bit-key-placeholder")}
	for i := range meta.Nonce {
		meta.Nonce[i] = byte(i)
	}
	ciphertext := []byte("rsa-ciphertext")

	data, err := Encode(meta, ciphertext)
	require.NoError(t, err)

	kind, decodedMeta, decodedCiphertext, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, KindRsa, kind)
	assert.Equal(t, ciphertext, decodedCiphertext)

	rm, ok := decodedMeta.(*RsaMetadata)
	require.True(t, ok)
	assert.Equal(t, meta.WrappedKey, rm.WrappedKey)
	assert.Equal(t, meta.Nonce, rm.Nonce)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	data, err := Encode(passwordMeta(), []byte("x"))
	require.NoError(t, err)
	data[0] = 'X'

	_, _, _, err = Decode(data)
	require.Error(t, err)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	data, err := Encode(passwordMeta(), []byte("x"))
	require.NoError(t, err)
	data[4] = 99

	_, _, _, err = Decode(data)
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedMetadata(t *testing.T) {
	data, err := Encode(passwordMeta(), []byte("x"))
	require.NoError(t, err)
	truncated := data[:headerSize+20]

	_, _, _, err = Decode(truncated)
	require.Error(t, err)
}

func TestDecodeRejectsTooSmallInput(t *testing.T) {
	_, _, _, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestIsContainerBytes(t *testing.T) {
	data, err := Encode(passwordMeta(), []byte("x"))
	require.NoError(t, err)

	assert.True(t, IsContainerBytes(data))
	assert.False(t, IsContainerBytes([]byte("PK\x03\x04")))
	assert.False(t, IsContainerBytes([]byte{1, 2}))
}

func TestIsContainerDetectsFileContentNotExtension(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/renamed.dat"
	data, err := Encode(passwordMeta(), []byte("x"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, data, 0o600))
	assert.True(t, IsContainer(path))
}
