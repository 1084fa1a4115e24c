package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GeneratedPasswordLength is the length of auto-provisioned student passwords
const GeneratedPasswordLength = 8

// GeneratePassword returns a random alphanumeric password of n characters
// using crypto/rand. The caller owns the plaintext; only a hash is ever
// persisted.
func GeneratePassword(n int) (string, error) {
	if n <= 0 {
		n = GeneratedPasswordLength
	}

	buf := make([]byte, n)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = passwordAlphabet[idx.Int64()]
	}

	return string(buf), nil
}
