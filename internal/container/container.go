// Package container implements the on-disk byte layout of a jcz
// encrypted container: bit-exact encode/decode and magic-byte
// detection. It is oblivious to compression and to the cipher that
// produced the ciphertext it carries.
package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/jczteam/jcz/internal/jczerrors"
)

// Magic is the 4-byte literal prefix of every jcz container.
var Magic = [4]byte{'J', 'C', 'Z', 'E'}

// Version is the only container format version this release understands.
const Version = byte(1)

// Kind identifies which cipher produced the container's ciphertext.
type Kind byte

const (
	KindPassword Kind = 0x01
	KindRsa      Kind = 0x02
)

func (k Kind) String() string {
	switch k {
	case KindPassword:
		return "password"
	case KindRsa:
		return "rsa"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(k))
	}
}

const (
	passwordSaltSize  = 32
	passwordNonceSize = 12
	// salt || nonce || memory_cost(u32) || time_cost(u32) || parallelism(u32)
	passwordMetadataSize = passwordSaltSize + passwordNonceSize + 4 + 4 + 4

	rsaNonceSize = 12
)

// PasswordMetadata is the metadata block for a password-encrypted container.
type PasswordMetadata struct {
	Salt         [passwordSaltSize]byte
	Nonce        [passwordNonceSize]byte
	MemoryCostKB uint32
	TimeCost     uint32
	Parallelism  uint32
}

// RsaMetadata is the metadata block for an RSA-hybrid-encrypted container.
type RsaMetadata struct {
	WrappedKey []byte
	Nonce      [rsaNonceSize]byte
}

// Metadata is either a *PasswordMetadata or a *RsaMetadata, selected by Kind.
type Metadata interface {
	kind() Kind
}

func (*PasswordMetadata) kind() Kind { return KindPassword }
func (*RsaMetadata) kind() Kind      { return KindRsa }

const headerSize = 4 + 1 + 1 + 4 // magic + version + kind + metadata_length

// Encode serializes a container to its on-disk byte layout:
// magic || version || kind || u32(len(metadata)) || metadata || ciphertext.
func Encode(meta Metadata, ciphertext []byte) ([]byte, error) {
	metaBytes, err := encodeMetadata(meta)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerSize+len(metaBytes)+len(ciphertext))
	out = append(out, Magic[:]...)
	out = append(out, Version)
	out = append(out, byte(meta.kind()))

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(metaBytes)))
	out = append(out, lenBuf[:]...)
	out = append(out, metaBytes...)
	out = append(out, ciphertext...)
	return out, nil
}

func encodeMetadata(meta Metadata) ([]byte, error) {
	switch m := meta.(type) {
	case *PasswordMetadata:
		buf := make([]byte, passwordMetadataSize)
		copy(buf[0:32], m.Salt[:])
		copy(buf[32:44], m.Nonce[:])
		binary.BigEndian.PutUint32(buf[44:48], m.MemoryCostKB)
		binary.BigEndian.PutUint32(buf[48:52], m.TimeCost)
		binary.BigEndian.PutUint32(buf[52:56], m.Parallelism)
		return buf, nil
	case *RsaMetadata:
		buf := make([]byte, 4+len(m.WrappedKey)+rsaNonceSize)
		binary.BigEndian.PutUint32(buf[0:4], uint32(len(m.WrappedKey)))
		copy(buf[4:4+len(m.WrappedKey)], m.WrappedKey)
		copy(buf[4+len(m.WrappedKey):], m.Nonce[:])
		return buf, nil
	default:
		return nil, jczerrors.NewContainer("", "unknown metadata kind")
	}
}

// Decode parses a container from bytes, validating magic, version, kind,
// and every length field against the actual remaining payload.
func Decode(data []byte) (Kind, Metadata, []byte, error) {
	if len(data) < headerSize {
		return 0, nil, nil, jczerrors.NewContainer("", "container too small")
	}
	if [4]byte(data[0:4]) != Magic {
		return 0, nil, nil, jczerrors.NewContainer("", "invalid container: bad magic bytes")
	}
	version := data[4]
	if version != Version {
		return 0, nil, nil, jczerrors.NewContainer("", "unsupported container version %d", version)
	}
	kind := Kind(data[5])
	if kind != KindPassword && kind != KindRsa {
		return 0, nil, nil, jczerrors.NewContainer("", "invalid container: unknown encryption kind 0x%02x", byte(kind))
	}
	metaLen := binary.BigEndian.Uint32(data[6:10])
	if uint64(len(data)) < uint64(headerSize)+uint64(metaLen) {
		return 0, nil, nil, jczerrors.NewContainer("", "invalid container: truncated metadata")
	}
	metaBytes := data[headerSize : headerSize+int(metaLen)]
	ciphertext := data[headerSize+int(metaLen):]

	meta, err := decodeMetadata(kind, metaBytes)
	if err != nil {
		return 0, nil, nil, err
	}
	return kind, meta, ciphertext, nil
}

func decodeMetadata(kind Kind, data []byte) (Metadata, error) {
	switch kind {
	case KindPassword:
		if len(data) != passwordMetadataSize {
			return nil, jczerrors.NewContainer("", "invalid password metadata size: %d", len(data))
		}
		m := &PasswordMetadata{}
		copy(m.Salt[:], data[0:32])
		copy(m.Nonce[:], data[32:44])
		m.MemoryCostKB = binary.BigEndian.Uint32(data[44:48])
		m.TimeCost = binary.BigEndian.Uint32(data[48:52])
		m.Parallelism = binary.BigEndian.Uint32(data[52:56])
		return m, nil
	case KindRsa:
		if len(data) < 4 {
			return nil, jczerrors.NewContainer("", "invalid rsa metadata: missing wrapped key length")
		}
		keyLen := binary.BigEndian.Uint32(data[0:4])
		want := 4 + int(keyLen) + rsaNonceSize
		if len(data) != want {
			return nil, jczerrors.NewContainer("", "invalid rsa metadata size: expected %d, got %d", want, len(data))
		}
		m := &RsaMetadata{WrappedKey: append([]byte(nil), data[4:4+keyLen]...)}
		copy(m.Nonce[:], data[4+keyLen:])
		return m, nil
	default:
		return nil, jczerrors.NewContainer("", "unknown encryption kind 0x%02x", byte(kind))
	}
}

// IsContainer reports whether path begins with the jcz magic bytes.
// Detection is content-based, not extension-based (spec §4.1, §9):
// renamed files still decrypt correctly.
func IsContainer(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var buf [4]byte
	n, err := io.ReadFull(f, buf[:])
	if n != 4 || err != nil {
		return false
	}
	return buf == Magic
}

// IsContainerBytes is the in-memory equivalent of IsContainer, used
// when the caller already has the first bytes of a file.
func IsContainerBytes(firstBytes []byte) bool {
	if len(firstBytes) < 4 {
		return false
	}
	return [4]byte(firstBytes[:4]) == Magic
}
