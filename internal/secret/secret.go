package secret

import (
	"crypto/rand"
	"fmt"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// PasswordLength is used when the installer generates a password because
// the operator left the prompt blank.
const PasswordLength = 16

// Generate returns a random alphanumeric string of n characters.
func Generate(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid secret length: %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphanumeric[int(b)%len(alphanumeric)]
	}
	return string(buf), nil
}
