package transform

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// deriveKey stretches a caller-supplied key string into the 32 bytes the
// AEAD requires. Same key string, same derived key.
func deriveKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}

// encryptString seals plaintext with XChaCha20-Poly1305 under a random
// nonce and returns base64url(nonce || ciphertext). Output differs between
// calls even for identical input; only the key makes it recoverable.
func encryptString(plaintext, key string) (string, error) {
	aead, err := chacha20poly1305.NewX(deriveKey(key))
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// decryptString reverses encryptString. A wrong key or tampered token
// fails authentication and returns ErrInvalidToken.
func decryptString(encoded, key string) (string, error) {
	aead, err := chacha20poly1305.NewX(deriveKey(key))
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}

	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidToken
	}
	if len(sealed) < aead.NonceSize() {
		return "", ErrInvalidToken
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(plaintext), nil
}

// digest returns the SHA-256 digest of a value, the base of every
// irreversible token shape.
func digest(value string) [sha256.Size]byte {
	return sha256.Sum256([]byte(value))
}
