// Package secure provides zeroizing buffers and a self-checking CSPRNG
// reader shared by every cryptographic consumer in jcz.
package secure

import (
	"crypto/rand"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
)

const (
	entropyCheckSize = 4096
	minEntropyBits   = 7.5
)

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Rand is the process-wide CSPRNG. Every cryptographic consumer draws
// its own bytes from it (spec §5: "the RNG is a process-global CSPRNG").
var Rand = &CSPRNGReader{}

// CSPRNGReader wraps crypto/rand.Read with a one-time sanity check on
// the first block of output. It never weakens the underlying source;
// it only refuses to proceed if the OS RNG looks obviously broken.
// The check needs a first read of at least entropyCheckSize/2 bytes;
// a shorter first read is accepted unchecked, and no later read is
// checked.
type CSPRNGReader struct {
	entropyChecked atomic.Bool
}

func (r *CSPRNGReader) Read(p []byte) (n int, err error) {
	n, err = rand.Read(p)
	if n > 0 && !r.entropyChecked.Load() {
		if checkErr := r.checkEntropy(p[:minInt(n, entropyCheckSize)]); checkErr != nil {
			return 0, fmt.Errorf("entropy check failed: %w", checkErr)
		}
		r.entropyChecked.Store(true)
	}
	return n, err
}

func (r *CSPRNGReader) checkEntropy(sample []byte) error {
	if len(sample) < entropyCheckSize/2 {
		return nil
	}
	freq := make(map[byte]int)
	for _, b := range sample {
		freq[b]++
	}
	entropy := 0.0
	for _, count := range freq {
		p := float64(count) / float64(len(sample))
		entropy -= p * math.Log2(p)
	}
	if entropy < minEntropyBits {
		return fmt.Errorf("insufficient entropy: %f < %f", entropy, minEntropyBits)
	}
	return nil
}

func sink(b []byte) {
	runtime.KeepAlive(b)
}

// Buffer is a fixed-size byte buffer that zeroizes its contents exactly
// once, on every exit path, and is safe to zero concurrently with
// itself (but not with a concurrent Bytes() caller still using the
// slice — callers own that ordering, same as the teacher's
// SecureBuffer).
type Buffer struct {
	data   []byte
	mu     sync.Mutex
	zeroed atomic.Bool
}

// NewBuffer allocates a zero-filled buffer of the given size.
func NewBuffer(size int) *Buffer {
	if size < 0 {
		size = 0
	}
	return &Buffer{data: make([]byte, size)}
}

// FromBytes copies src into a new secure buffer. The caller remains
// responsible for zeroizing src itself.
func FromBytes(src []byte) *Buffer {
	b := NewBuffer(len(src))
	copy(b.data, src)
	return b
}

// Bytes returns the underlying slice. Callers must not retain it past
// a call to Zero/Close.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Zero overwrites the buffer with zeroes. Idempotent.
func (b *Buffer) Zero() {
	if b.zeroed.Load() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.zeroed.Load() {
		return
	}
	for i := range b.data {
		b.data[i] = 0
	}
	b.zeroed.Store(true)
	sink(b.data)
}

// Close zeroizes the buffer. It implements io.Closer so callers can
// `defer buf.Close()` right after allocation.
func (b *Buffer) Close() error {
	b.Zero()
	return nil
}

// Zero overwrites a plain byte slice in place. Used for short-lived
// values (e.g. a password read from the TTY) that don't warrant a
// full Buffer wrapper.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	sink(b)
}
