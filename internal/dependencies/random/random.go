package random

import (
	"crypto/rand"
	"fmt"
	"io"
)

// TokenAlphabet is the character set of generated tokens
const TokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TokenLength is the length of a player identity token
const TokenLength = 32

// byteLimit is the largest multiple of len(TokenAlphabet) that fits in a byte.
// Bytes at or above it are redrawn so every character is equally likely.
const byteLimit = 256 - 256%len(TokenAlphabet)

// Random generates opaque tokens and can be mocked for testing
type Random interface {
	// Token returns n characters drawn from TokenAlphabet
	Token(n int) (string, error)
}

// CryptoRandom implements Random on top of a cryptographic byte source
type CryptoRandom struct {
	source io.Reader
}

// New creates a CryptoRandom reading from crypto/rand
func New() *CryptoRandom {
	return &CryptoRandom{source: rand.Reader}
}

// NewFromReader creates a CryptoRandom reading from source
func NewFromReader(source io.Reader) *CryptoRandom {
	return &CryptoRandom{source: source}
}

func (r *CryptoRandom) Token(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(r.source, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= byteLimit {
				continue
			}
			out = append(out, TokenAlphabet[int(b)%len(TokenAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
