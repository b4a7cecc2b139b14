// Package cipher implements the Password Cipher and RSA Hybrid Cipher
// components: authenticated encryption of a single plaintext blob
// under a key derived from a password (Argon2id) or wrapped for an
// RSA public key. Both ciphers produce AES-256-GCM ciphertext; the
// container package attaches the metadata each needs to reverse the
// key setup.
package cipher

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/argon2"

	"github.com/jczteam/jcz/internal/container"
	"github.com/jczteam/jcz/internal/jczerrors"
	"github.com/jczteam/jcz/internal/secure"
)

const (
	keySize     = 32 // AES-256
	gcmNonceLen = 12

	// Argon2id defaults, grounded on the teacher's chachacrypt defaults
	// but retuned to Argon2id's published recommended minimums (spec
	// §4.2: "memory/time/parallelism are recorded per-container so a
	// future default change does not break old containers").
	DefaultMemoryCostKB = 64 * 1024
	DefaultTimeCost     = 3
	DefaultParallelism  = 4
)

// PasswordCipher implements the Password Cipher component (spec §4.2).
type PasswordCipher struct {
	MemoryCostKB uint32
	TimeCost     uint32
	Parallelism  uint8
}

// NewPasswordCipher returns a PasswordCipher configured with the
// current defaults.
func NewPasswordCipher() *PasswordCipher {
	return &PasswordCipher{
		MemoryCostKB: DefaultMemoryCostKB,
		TimeCost:     DefaultTimeCost,
		Parallelism:  DefaultParallelism,
	}
}

func (p *PasswordCipher) deriveKey(password, salt []byte) (*secure.Buffer, error) {
	derived := argon2.IDKey(password, salt, p.TimeCost, p.MemoryCostKB, p.Parallelism, keySize)
	key := secure.FromBytes(derived)
	secure.Zero(derived)
	return key, nil
}

// Encrypt derives a key from password with a freshly generated salt,
// seals plaintext under a freshly generated nonce, and returns the
// encoded container bytes. password is zeroed by the caller, not here
// (the caller owns its lifetime across possibly many Encrypt calls in
// a batch).
func (p *PasswordCipher) Encrypt(password, plaintext []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, jczerrors.NewArgument("password must not be empty")
	}

	salt := make([]byte, 32)
	if _, err := secure.Rand.Read(salt); err != nil {
		return nil, jczerrors.NewCryptographic("failed to generate salt: %v", err)
	}

	key, err := p.deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, jczerrors.NewCryptographic("failed to initialize cipher: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, jczerrors.NewCryptographic("failed to initialize AEAD: %v", err)
	}

	nonce := make([]byte, gcmNonceLen)
	if _, err := secure.Rand.Read(nonce); err != nil {
		return nil, jczerrors.NewCryptographic("failed to generate nonce: %v", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	meta := &container.PasswordMetadata{
		MemoryCostKB: p.MemoryCostKB,
		TimeCost:     p.TimeCost,
		Parallelism:  uint32(p.Parallelism),
	}
	copy(meta.Salt[:], salt)
	copy(meta.Nonce[:], nonce)

	return container.Encode(meta, ciphertext)
}

// Decrypt recovers the plaintext from an already-decoded password
// container. It returns jczerrors.ErrAuthenticationFailed, verbatim
// and un-wrapped, whenever the AEAD tag fails to verify — spec §7
// forbids distinguishing "wrong password" from "corrupted file".
func (p *PasswordCipher) Decrypt(password []byte, meta *container.PasswordMetadata, ciphertext []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, jczerrors.NewArgument("password must not be empty")
	}

	derive := &PasswordCipher{
		MemoryCostKB: meta.MemoryCostKB,
		TimeCost:     meta.TimeCost,
		Parallelism:  uint8(meta.Parallelism),
	}
	key, err := derive.deriveKey(password, meta.Salt[:])
	if err != nil {
		return nil, err
	}
	defer key.Close()

	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, jczerrors.NewCryptographic("failed to initialize cipher: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, jczerrors.NewCryptographic("failed to initialize AEAD: %v", err)
	}

	plaintext, err := gcm.Open(nil, meta.Nonce[:], ciphertext, nil)
	if err != nil {
		return nil, jczerrors.ErrAuthenticationFailed
	}
	return plaintext, nil
}
