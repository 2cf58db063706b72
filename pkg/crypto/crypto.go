package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of the supplied password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares the hashed password with the plaintext candidate.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// NewChecksum returns a streaming BLAKE3 hasher for stored payloads.
func NewChecksum() hash.Hash {
	return blake3.New()
}

// Checksum returns the hex encoded BLAKE3-256 digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
