package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/scopa-go/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	mu sync.Mutex

	// Tokens is a queue of results to return from Token
	Tokens []string
	// Err, when set, is returned by every Token call
	Err error

	generated int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Token returns the next queued token. With nothing queued it returns
// "mock-1", "mock-2", ... so identities stay distinct.
func (r *MockRandom) Token(n int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	if len(r.Tokens) == 0 {
		r.generated++
		return fmt.Sprintf("mock-%d", r.generated), nil
	}
	result := r.Tokens[0]
	r.Tokens = r.Tokens[1:]
	return result, nil
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Tokens = append(r.Tokens, values...)
}
