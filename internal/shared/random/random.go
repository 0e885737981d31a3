package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CharsetUpperAlphaNum is used for human-readable references.
const CharsetUpperAlphaNum = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O, 1/I

// String generates a random string from the given charset.
func String(length int, charset string) (string, error) {
	if length <= 0 {
		return "", nil
	}
	if charset == "" {
		charset = CharsetUpperAlphaNum
	}

	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("generate random index: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

// OrderNumber returns a reference of the form ORD-20260102-7KQ2ZD.
func OrderNumber(now time.Time) (string, error) {
	suffix, err := String(6, CharsetUpperAlphaNum)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix), nil
}
