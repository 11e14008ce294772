package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/dinkup/internal/dependencies/idgen"
)

// MockIDs is a deterministic Generator for testing.
// NewID returns prefix plus a zero-padded counter, so IDs sort in creation order.
type MockIDs struct {
	mu      sync.Mutex
	counter int

	// CodeResults is a queue of results to return from Code
	CodeResults []string
	codeIndex   int
}

// Ensure MockIDs implements Generator
var _ idgen.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// NewID returns the next sequential ID
func (g *MockIDs) NewID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s%06d", prefix, g.counter)
}

// Code returns the next queued code, or a counter-derived code if none remain
func (g *MockIDs) Code(length int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.codeIndex < len(g.CodeResults) {
		result := g.CodeResults[g.codeIndex]
		g.codeIndex++
		return result
	}
	g.counter++
	return fmt.Sprintf("C%0*d", length-1, g.counter)
}

// QueueCode adds values to the Code result queue
func (g *MockIDs) QueueCode(values ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CodeResults = append(g.CodeResults, values...)
}
