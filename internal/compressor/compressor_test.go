package compressor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatExtension(t *testing.T) {
	assert.Equal(t, "gz", Gzip.Extension())
	assert.Equal(t, "bz2", Bzip2.Extension())
	assert.Equal(t, "xz", Xz.Extension())
	assert.Equal(t, "zip", Zip.Extension())
	assert.Equal(t, "tar", Tar.Extension())
}

func TestDetectFormatByExtension(t *testing.T) {
	cases := []struct {
		path string
		want Format
		ok   bool
	}{
		{"archive.tar.gz", Gzip, true},
		{"archive.GZ", Gzip, true},
		{"data.bz2", Bzip2, true},
		{"data.xz", Xz, true},
		{"data.zip", Zip, true},
		{"data.tar", Tar, true},
		{"plain.txt", "", false},
		{"noext", "", false},
	}
	for _, tc := range cases {
		got, ok := DetectFormat(tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.path)
		}
	}
}

func TestNewReturnsEachKnownFormat(t *testing.T) {
	for _, f := range []Format{Gzip, Bzip2, Xz, Zip, Tar} {
		c, err := New(f)
		require.NoError(t, err, string(f))
		assert.Equal(t, f, c.Format())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(Format("rar"))
	require.Error(t, err)
}

func TestLevelFlag(t *testing.T) {
	assert.Equal(t, "-6", levelFlag(6))
	assert.Equal(t, "-1", levelFlag(1))
}

func TestTrimKnownExtension(t *testing.T) {
	assert.Equal(t, "data", trimKnownExtension("data.gz", "gz"))
	assert.Equal(t, "data.txt", trimKnownExtension("data.txt", "gz"))
}

func TestTarCompressorHasNoLevels(t *testing.T) {
	c, err := New(Tar)
	require.NoError(t, err)
	assert.False(t, c.SupportsLevels())
}

func TestGzipCompressorDefaultLevel(t *testing.T) {
	c, err := New(Gzip)
	require.NoError(t, err)
	assert.Equal(t, 6, c.DefaultLevel())
	assert.True(t, c.SupportsLevels())
}

func TestBzip2CompressorDefaultLevel(t *testing.T) {
	c, err := New(Bzip2)
	require.NoError(t, err)
	assert.Equal(t, 9, c.DefaultLevel())
}
