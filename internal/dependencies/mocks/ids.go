package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/humanbench/internal/dependencies/ids"
)

// MockIDs hands out predictable sequential identifiers
type MockIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a MockIDs producing prefix-1, prefix-2, ...
func NewMockIDs(prefix string) *MockIDs {
	return &MockIDs{prefix: prefix}
}

// NewID returns the next identifier in sequence
func (m *MockIDs) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("%s-%d", m.prefix, m.next)
}
