package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringUsesOnlyAlphabet(t *testing.T) {
	r := New()
	const alphabet = "ABC123"
	for i := 0; i < 50; i++ {
		s := r.String(6, alphabet)
		assert.Len(t, s, 6)
		for _, ch := range s {
			assert.True(t, strings.ContainsRune(alphabet, ch), "unexpected %q", ch)
		}
	}
}

func TestIntRangeBounds(t *testing.T) {
	r := New()
	for i := 0; i < 200; i++ {
		n := r.IntRange(1000, 99999)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 99999)
	}
	assert.Equal(t, 7, r.IntRange(7, 7))
	assert.Equal(t, 7, r.IntRange(7, 3))
}

func TestStringEmptyInputs(t *testing.T) {
	r := New()
	assert.Empty(t, r.String(0, "ABC"))
	assert.Empty(t, r.String(5, ""))
}
