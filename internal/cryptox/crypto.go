// Package cryptox implements the symmetric encryption-at-rest scheme for
// biometric templates plus the hash/verify primitives consumed by the
// password-auth collaborator.
//
// Keys are derived with PBKDF2-HMAC-SHA256 from the key context (the user
// identifier) and a fresh random 16-byte salt per encryption call, then used
// with AES-256 in CBC mode and PKCS#7 padding. The wire format is
// base64(salt[16] ∥ IV[16] ∥ ciphertext).
//
// Known limitation: the key context is the user identifier, not a user
// secret, so anyone who can read the persistence store and knows (or
// enumerates) user ids can derive the key. The scheme defends against casual
// disk inspection, not against an adversary with full store access. Changing
// that is a product decision, not an implementation detail.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dmitrijs2005/facelock/internal/common"
)

const (
	// SaltSize is the per-encryption random salt length in bytes.
	SaltSize = 16
	// KeySize selects AES-256.
	KeySize = 32
	// DefaultIterations is the PBKDF2 iteration count. Tunable upward, never
	// below this floor.
	DefaultIterations = 100_000
)

// DeriveKey derives a 256-bit key from the key context and salt using
// PBKDF2-HMAC-SHA256. Iteration counts below DefaultIterations are raised to
// the floor so a misconfigured caller cannot weaken key stretching.
func DeriveKey(context string, salt []byte, iterations int) []byte {
	if iterations < DefaultIterations {
		iterations = DefaultIterations
	}
	return pbkdf2.Key([]byte(context), salt, iterations, KeySize, sha256.New)
}

// Encrypt encrypts plaintext under a key derived from the given context and
// returns the base64-encoded blob salt ∥ IV ∥ ciphertext. Salt and IV are
// freshly random on every call, so encrypting the same plaintext twice yields
// different blobs that both decrypt to the same value.
func Encrypt(plaintext []byte, context string, iterations int) (string, error) {
	salt := common.GenerateRandByteArray(SaltSize)
	iv := common.GenerateRandByteArray(aes.BlockSize)

	key := DeriveKey(context, salt, iterations)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}

	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	blob := make([]byte, 0, SaltSize+aes.BlockSize+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, iv...)
	blob = append(blob, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt: it decodes the blob, slices off salt and IV,
// re-derives the key from (context, salt), decrypts, and strips the PKCS#7
// padding. Malformed blobs, truncated ciphertexts, and misaligned lengths all
// fail with an error matching common.ErrDecryption.
func Decrypt(encoded string, context string, iterations int) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: bad encoding: %v", common.ErrDecryption, err)
	}

	if len(blob) < SaltSize+aes.BlockSize {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", common.ErrDecryption, len(blob))
	}
	salt := blob[:SaltSize]
	iv := blob[SaltSize : SaltSize+aes.BlockSize]
	ciphertext := blob[SaltSize+aes.BlockSize:]

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d not a multiple of block size", common.ErrDecryption, len(ciphertext))
	}

	key := DeriveKey(context, salt, iterations)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return unpadPKCS7(plaintext), nil
}

// padPKCS7 appends n bytes of value n so the result length is a multiple of
// blockSize. n is always in [1, blockSize].
func padPKCS7(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpadPKCS7 strips the padding. An out-of-range pad length indicates a
// corrupt block; in that case the data is returned unpadded rather than
// panicking. Tolerating it here is a robustness measure, not a security one:
// with key derivation from a non-secret context a padding oracle has nothing
// to protect.
func unpadPKCS7(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	n := int(data[len(data)-1])
	if n < 1 || n > aes.BlockSize || n > len(data) {
		return data
	}
	return data[:len(data)-n]
}

// HashSecret returns the hex-encoded SHA-256 digest of a secret. Used by the
// password fallback; the password UI itself lives outside this core.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifySecret compares a candidate secret against a stored hash in constant
// time.
func VerifySecret(secret, storedHash string) bool {
	candidate := HashSecret(secret)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) == 1
}
