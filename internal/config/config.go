// Package config defines the plain data types that describe a batch
// operation: what to compress with, whether and how to encrypt, where
// results land, and what came back out of each task. These are the
// spec's CompressionSpec, EncryptionSpec, and BatchResult entities
// (spec §3), plus the supplemented Collection-mode types.
package config

import (
	"crypto/rsa"
	"time"
)

// TimestampOption selects how (or whether) a generated output
// filename embeds a timestamp.
type TimestampOption int

const (
	TimestampNone TimestampOption = iota
	TimestampDate
	TimestampDateTime
	TimestampNanoseconds
)

// Format renders t according to when.
func (t TimestampOption) Format(when time.Time) string {
	switch t {
	case TimestampDate:
		return when.Format("20060102")
	case TimestampDateTime:
		return when.Format("20060102_150405")
	case TimestampNanoseconds:
		return fmtNanos(when)
	default:
		return ""
	}
}

func fmtNanos(when time.Time) string {
	return when.Format("20060102150405") + padNanos(when.Nanosecond())
}

func padNanos(n int) string {
	s := make([]byte, 9)
	for i := 8; i >= 0; i-- {
		s[i] = byte('0' + n%10)
		n /= 10
	}
	return string(s)
}

// EncryptionMethod selects between password and RSA encryption for a
// batch (spec §4.2/§4.3); only one of the two fields is meaningful:
// Password when true, otherwise PublicKeyPath.
type EncryptionMethod struct {
	Password      bool
	PublicKeyPath string
}

// DecryptionMethod is the reverse-side counterpart, carrying a
// private key path instead when Password is false.
type DecryptionMethod struct {
	Password       bool
	PrivateKeyPath string
}

// CompressionSpec describes one compress-then-optionally-encrypt
// operation (spec §3 CompressionSpec / §4.4).
type CompressionSpec struct {
	Level      int
	Timestamp  TimestampOption
	MoveTo     string
	Force      bool
	Encryption *EncryptionMethod
}

// EncryptionSpec describes an encrypt-only operation, where the input
// is already the desired plaintext payload and no compression step
// runs first (spec §4.4 "encrypt without compress" path).
type EncryptionSpec struct {
	Timestamp  TimestampOption
	MoveTo     string
	Force      bool
	Encryption EncryptionMethod
}

// DecompressionSpec mirrors CompressionSpec for the reverse pipeline.
type DecompressionSpec struct {
	MoveTo          string
	Force           bool
	Decryption      *DecryptionMethod
	RemoveEncrypted bool
}

// CollectionMode selects whether a collected archive wraps its
// members in a parent directory entry (spec §4.4 supplement, grounded
// on original_source's -a/-A flags).
type CollectionMode int

const (
	CollectionWithParent CollectionMode = iota
	CollectionFlat
)

// CollectionSpec describes a multi-file "collect into one archive"
// operation layered on top of a CompressionSpec.
type CollectionSpec struct {
	Base        CompressionSpec
	PackageName string
	Mode        CollectionMode
}

// InputFile is a single validated, symlink-resolved batch member
// (spec §3 InputFile).
type InputFile struct {
	OriginalPath string
	RealPath     string
	Basename     string
	WasSymlink   bool
}

// BatchResult is the outcome of one task within a batch: exactly one
// of OutputPath or Err is set (spec §3 BatchResult, §5 "collecting
// results without short-circuiting on individual failures").
type BatchResult struct {
	InputPath  string
	OutputPath string
	Err        error
}

// Succeeded reports whether the task completed without error.
func (r BatchResult) Succeeded() bool {
	return r.Err == nil
}

// KeyMaterial holds the loaded cryptographic key for a batch,
// resolved once up front so every worker-pool task shares it without
// re-reading or re-parsing PEM files.
type KeyMaterial struct {
	PublicKey  *rsa.PublicKey
	PrivateKey *rsa.PrivateKey
}
