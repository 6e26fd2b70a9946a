package session

import (
	"crypto/rand"
	"fmt"
)

// Alphabet excludes I, O, 0 and 1 so codes can be read aloud and typed.
// Its size divides 256, so masking a random byte is unbiased.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeGenerator draws a fresh candidate session code.
type CodeGenerator func(length int) (string, error)

// RandomCode draws length characters uniformly from Alphabet.
func RandomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf), nil
}
