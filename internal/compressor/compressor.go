// Package compressor wraps external compression tools (gzip, bzip2,
// xz, zip, tar) behind one interface. jcz never implements a codec
// in-process; it shells out the same way the teacher shells out to
// nothing but the original_source prototype shells out to system
// tools for every format, and that choice is preserved here rather
// than reached for a native Go codec package.
package compressor

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jczteam/jcz/internal/jczerrors"
)

// Format identifies a supported compression/archive format.
type Format string

const (
	Gzip  Format = "gzip"
	Bzip2 Format = "bzip2"
	Xz    Format = "xz"
	Zip   Format = "zip"
	Tar   Format = "tar"
)

// Extension returns the filename suffix a compressed file of this
// format carries.
func (f Format) Extension() string {
	switch f {
	case Gzip:
		return "gz"
	case Bzip2:
		return "bz2"
	case Xz:
		return "xz"
	case Zip:
		return "zip"
	case Tar:
		return "tar"
	default:
		return string(f)
	}
}

// DetectFormat maps a file's extension to a Format, mirroring the
// original prototype's extension-based format table. Unlike
// container detection (spec P9), compression-format selection is
// legitimately extension-based: there's no equivalent to "magic
// bytes" requirement in spec §4.4 for compressed payloads, since the
// Pipeline Composer already knows which format it asked for.
func DetectFormat(path string) (Format, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "gz", "gzip":
		return Gzip, true
	case "bz2", "bzip2":
		return Bzip2, true
	case "xz":
		return Xz, true
	case "zip":
		return Zip, true
	case "tar":
		return Tar, true
	default:
		return "", false
	}
}

// Compressor compresses and decompresses a single input path via an
// external tool. Compress writes to the output path it is given;
// Decompress returns the path it produced.
type Compressor interface {
	Format() Format
	Compress(input, output string, level int) error
	Decompress(input, outputDir string) (string, error)
	SupportsLevels() bool
	DefaultLevel() int
}

// New returns the Compressor for format.
func New(format Format) (Compressor, error) {
	switch format {
	case Gzip:
		return newGzipCompressor(), nil
	case Bzip2:
		return newBzip2Compressor(), nil
	case Xz:
		return newXzCompressor(), nil
	case Zip:
		return &zipCompressor{}, nil
	case Tar:
		return &tarCompressor{}, nil
	default:
		return nil, jczerrors.NewArgument("unsupported compression format: %s", format)
	}
}

// run executes an external tool and translates a failure into a
// classified jczerrors.Error carrying the tool's stderr, never its
// stdout (which may echo file contents for some tools).
func run(path, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return jczerrors.NewTool(path, strings.TrimSpace(stderr.String()), err)
	}
	return nil
}

func levelFlag(level int) string {
	return "-" + strconv.Itoa(level)
}

// runToFile pipes inputPath's contents into name as stdin and streams
// its stdout into out, the pattern gzip/bzip2/xz all share for
// stream-in stream-out operation.
func runToFile(inputPath string, out io.Writer, name string, args ...string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	cmd := exec.Command(name, args...)
	cmd.Stdin = in
	cmd.Stdout = out
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return jczerrors.NewTool(inputPath, strings.TrimSpace(stderr.String()), err)
	}
	return nil
}
