package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"os"

	"github.com/jczteam/jcz/internal/container"
	"github.com/jczteam/jcz/internal/jczerrors"
	"github.com/jczteam/jcz/internal/secure"
)

// minRsaModulusBits is the smallest public modulus jcz will wrap a
// key under. Spec §4.3: "keys smaller than 2048 bits are rejected
// outright, before any cryptographic operation is attempted."
const minRsaModulusBits = 2048

// RsaCipher implements the RSA Hybrid Cipher component (spec §4.3):
// a random AES-256 key encrypts the payload, and that key is itself
// wrapped with RSA-OAEP-SHA256 under the recipient's public key.
type RsaCipher struct{}

// NewRsaCipher returns an RsaCipher. It carries no configuration; all
// parameters (padding scheme, hash) are fixed by spec §4.3.
func NewRsaCipher() *RsaCipher { return &RsaCipher{} }

// Encrypt wraps a fresh AES-256 key under publicKey and seals
// plaintext with it, returning the encoded container. The flag
// conventionally named --encrypt-key supplies publicKey (spec §9:
// encryption always happens against a public key, regardless of how
// the flag reads).
func (c *RsaCipher) Encrypt(publicKey *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	if err := validatePublicKey(publicKey); err != nil {
		return nil, err
	}

	symKey := secure.NewBuffer(keySize)
	defer symKey.Close()
	if _, err := secure.Rand.Read(symKey.Bytes()); err != nil {
		return nil, jczerrors.NewCryptographic("failed to generate symmetric key: %v", err)
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, publicKey, symKey.Bytes(), nil)
	if err != nil {
		return nil, jczerrors.NewCryptographic("failed to wrap symmetric key: %v", err)
	}

	block, err := aes.NewCipher(symKey.Bytes())
	if err != nil {
		return nil, jczerrors.NewCryptographic("failed to initialize cipher: %v", err)
	}
	gcm, err := gocipher.NewGCM(block)
	if err != nil {
		return nil, jczerrors.NewCryptographic("failed to initialize AEAD: %v", err)
	}

	nonce := make([]byte, gcmNonceLen)
	if _, err := secure.Rand.Read(nonce); err != nil {
		return nil, jczerrors.NewCryptographic("failed to generate nonce: %v", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	meta := &container.RsaMetadata{WrappedKey: wrapped}
	copy(meta.Nonce[:], nonce)

	return container.Encode(meta, ciphertext)
}

// Decrypt unwraps the symmetric key under privateKey and opens the
// ciphertext. A failure to unwrap the key (wrong private key,
// corrupted wrapped key) is a Cryptographic error, distinct from an
// AEAD tag mismatch, which always surfaces as
// jczerrors.ErrAuthenticationFailed.
func (c *RsaCipher) Decrypt(privateKey *rsa.PrivateKey, meta *container.RsaMetadata, ciphertext []byte) ([]byte, error) {
	symKeyBytes, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, privateKey, meta.WrappedKey, nil)
	if err != nil {
		return nil, jczerrors.NewCryptographic("failed to unwrap symmetric key: %v", err)
	}
	symKey := secure.FromBytes(symKeyBytes)
	secure.Zero(symKeyBytes)
	defer symKey.Close()

	if len(symKey.Bytes()) != keySize {
		return nil, jczerrors.NewCryptographic("unwrapped key has unexpected length %d", len(symKey.Bytes()))
	}

	block, err := aes.NewCipher(symKey.Bytes())
	if err != nil {
		return nil, jczerrors.NewCryptographic("failed to initialize cipher: %v", err)
	}
	gcm, err := gocipher.NewGCM(block)
	if err != nil {
		return nil, jczerrors.NewCryptographic("failed to initialize AEAD: %v", err)
	}

	plaintext, err := gcm.Open(nil, meta.Nonce[:], ciphertext, nil)
	if err != nil {
		return nil, jczerrors.ErrAuthenticationFailed
	}
	return plaintext, nil
}

func validatePublicKey(pub *rsa.PublicKey) error {
	if pub.N.BitLen() < minRsaModulusBits {
		return jczerrors.NewKeyMaterial("", "RSA key too small: %d bits, minimum is %d", pub.N.BitLen(), minRsaModulusBits)
	}
	return nil
}

// LoadPublicKey reads a PEM-encoded PKIX ("BEGIN PUBLIC KEY") or
// PKCS1 ("BEGIN RSA PUBLIC KEY") public key from path (the
// --encrypt-key flag target) and enforces the minimum modulus size.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, jczerrors.NewKeyMaterial(path, "failed to read public key: %v", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, jczerrors.NewKeyMaterial(path, "not a valid PEM file")
	}

	var rsaPub *rsa.PublicKey
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		rsaPub = key
	} else {
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, jczerrors.NewKeyMaterial(path, "failed to parse public key: %v", err)
		}
		ok := false
		rsaPub, ok = pub.(*rsa.PublicKey)
		if !ok {
			return nil, jczerrors.NewKeyMaterial(path, "key is not an RSA public key")
		}
	}
	if err := validatePublicKey(rsaPub); err != nil {
		return nil, err
	}
	return rsaPub, nil
}

// LoadPrivateKey reads a PEM-encoded PKCS#1 or PKCS#8 private key from
// path (the --decrypt-key flag target) and enforces the minimum
// modulus size.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, jczerrors.NewKeyMaterial(path, "failed to read private key: %v", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, jczerrors.NewKeyMaterial(path, "not a valid PEM file")
	}

	var rsaKey *rsa.PrivateKey
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		rsaKey = key
	} else {
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, jczerrors.NewKeyMaterial(path, "failed to parse private key: %v", err)
		}
		ok := false
		rsaKey, ok = key.(*rsa.PrivateKey)
		if !ok {
			return nil, jczerrors.NewKeyMaterial(path, "key is not an RSA private key")
		}
	}
	if err := validatePublicKey(&rsaKey.PublicKey); err != nil {
		return nil, err
	}
	return rsaKey, nil
}
