package mocks

import (
	"github.com/mcoot/humanbench/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// IntResults is a queue of results to return from IntRange
	IntResults []int
	intIndex   int

	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// IntRange returns the next queued result, or min if none remaining
func (r *MockRandom) IntRange(min, max int) int {
	if r.intIndex >= len(r.IntResults) {
		return min
	}
	result := r.IntResults[r.intIndex]
	r.intIndex++
	return result
}

// String returns the next queued result. With the queue drained it
// returns a run of the alphabet's first character
func (r *MockRandom) String(length int, alphabet string) string {
	if r.stringIndex >= len(r.StringResults) {
		if alphabet == "" {
			return ""
		}
		b := make([]byte, length)
		for i := range b {
			b[i] = alphabet[0]
		}
		return string(b)
	}
	result := r.StringResults[r.stringIndex]
	r.stringIndex++
	return result
}

// QueueInt adds values to the IntRange result queue
func (r *MockRandom) QueueInt(values ...int) {
	r.IntResults = append(r.IntResults, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.StringResults = append(r.StringResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.IntResults = nil
	r.intIndex = 0
	r.StringResults = nil
	r.stringIndex = 0
}
