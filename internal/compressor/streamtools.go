package compressor

import (
	"os"
	"path/filepath"
)

// streamCompressor covers the three single-stream tools (gzip, bzip2,
// xz) that all take the same -<level> -c invocation and write the
// compressed bytes to an explicit output path rather than letting the
// tool derive one itself, so jcz controls the destination directly.
type streamCompressor struct {
	format       Format
	bin          string
	defaultLevel int
}

func (c *streamCompressor) Format() Format       { return c.format }
func (c *streamCompressor) SupportsLevels() bool { return true }
func (c *streamCompressor) DefaultLevel() int    { return c.defaultLevel }

func (c *streamCompressor) Compress(input, output string, level int) error {
	if level <= 0 {
		level = c.defaultLevel
	}
	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()
	return runToFile(input, out, c.bin, levelFlag(level), "-c")
}

func (c *streamCompressor) Decompress(input, outputDir string) (string, error) {
	base := filepath.Base(input)
	outName := trimKnownExtension(base, c.format.Extension())
	outPath := filepath.Join(outputDir, outName)

	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if err := runToFile(input, out, c.bin, "-d", "-c"); err != nil {
		return "", err
	}
	return outPath, nil
}

func trimKnownExtension(name, ext string) string {
	suffix := "." + ext
	if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
		return name[:len(name)-len(suffix)]
	}
	return name
}

type gzipCompressor struct{ streamCompressor }
type bzip2Compressor struct{ streamCompressor }
type xzCompressor struct{ streamCompressor }

func newGzipCompressor() *gzipCompressor {
	return &gzipCompressor{streamCompressor{format: Gzip, bin: "gzip", defaultLevel: 6}}
}

func newBzip2Compressor() *bzip2Compressor {
	return &bzip2Compressor{streamCompressor{format: Bzip2, bin: "bzip2", defaultLevel: 9}}
}

func newXzCompressor() *xzCompressor {
	return &xzCompressor{streamCompressor{format: Xz, bin: "xz", defaultLevel: 6}}
}
