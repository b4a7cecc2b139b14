// Package jczerrors defines the error taxonomy of the compression and
// encryption core. Every error surfaced to a batch result or to the
// CLI carries a Classification so callers can report consistently
// without leaking sensitive detail (passwords, key bytes) regardless
// of verbosity.
package jczerrors

import "fmt"

// Classification is one of the error categories named in spec §7.
type Classification string

const (
	Input          Classification = "input"
	Argument       Classification = "argument"
	KeyMaterial    Classification = "key_material"
	Authentication Classification = "authentication"
	Cryptographic  Classification = "cryptographic"
	Container      Classification = "container"
	Tool           Classification = "tool"
	IO             Classification = "io"
)

// Error is a classified error. The message MUST NOT contain password
// text or key bytes; every constructor in this package upholds that.
type Error struct {
	Class   Classification
	Message string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ClassificationOf returns the category of a jcz error, or "" if err is
// not (or does not wrap) a *jczerrors.Error.
func ClassificationOf(err error) Classification {
	var je *Error
	for err != nil {
		if v, ok := err.(*Error); ok {
			je = v
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if je == nil {
		return ""
	}
	return je.Class
}

func new_(class Classification, path string, format string, args ...any) *Error {
	return &Error{Class: class, Path: path, Message: fmt.Sprintf(format, args...)}
}

func wrap(class Classification, path string, err error, format string, args ...any) *Error {
	return &Error{Class: class, Path: path, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewInput reports a missing, unreadable, or otherwise invalid input path.
func NewInput(path string, format string, args ...any) *Error {
	return new_(Input, path, format, args...)
}

// NewArgument reports a bad CLI argument or mutually exclusive flag combination.
func NewArgument(format string, args ...any) *Error {
	return new_(Argument, "", format, args...)
}

// NewKeyMaterial reports a missing/malformed PEM key or undersized modulus.
func NewKeyMaterial(path string, format string, args ...any) *Error {
	return new_(KeyMaterial, path, format, args...)
}

// ErrAuthenticationFailed is returned verbatim (never wrapped with extra
// detail) whenever an AEAD tag fails to verify, whatever the cause —
// wrong password, corrupted ciphertext, or tampered metadata. Spec §7:
// "always reported with the same wording regardless of cause."
var ErrAuthenticationFailed = &Error{
	Class:   Authentication,
	Message: "authentication failed: wrong password or corrupted file",
}

// NewCryptographic reports an RSA-OAEP or key-derivation failure that is
// not an authentication failure.
func NewCryptographic(format string, args ...any) *Error {
	return new_(Cryptographic, "", format, args...)
}

// NewContainer reports a structurally invalid container.
func NewContainer(path string, format string, args ...any) *Error {
	return new_(Container, path, format, args...)
}

// NewTool reports a non-zero exit from an external compressor/archiver.
func NewTool(path string, stderr string, err error) *Error {
	return wrap(Tool, path, err, "external tool failed: %s", stderr)
}

// NewIO wraps a filesystem error (disk full, permission denied, workspace
// creation failure).
func NewIO(path string, err error) *Error {
	return wrap(IO, path, err, "%v", err)
}
