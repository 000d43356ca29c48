// Package crypto implements passcode hashing and student PIN generation.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
)

// PINLength is the number of digits in a student PIN.
const PINLength = 8

// HashPasscode returns the hex SHA-256 of the trimmed passcode, the form the join procedure compares.
func HashPasscode(passcode string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(passcode)))
	return hex.EncodeToString(sum[:])
}

// NewPIN returns a uniformly random PINLength-digit string; leading zeros are allowed.
func NewPIN() (string, error) {
	var sb strings.Builder
	sb.Grow(PINLength)
	ten := big.NewInt(10)
	for i := 0; i < PINLength; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}
