package model

import "strings"

// Category identifies which mini-game produced a score
type Category string

const (
	CategoryReactionTime   Category = "REACTION_TIME"
	CategoryAimTrainer     Category = "AIM_TRAINER"
	CategorySequenceMemory Category = "SEQUENCE_MEMORY"
	CategoryNumberMemory   Category = "NUMBER_MEMORY"
	CategoryChimpTest      Category = "CHIMP_TEST"
)

// Direction is the sort order in which a category's scores rank
type Direction int

const (
	// Ascending ranks lower values first (latency style)
	Ascending Direction = iota + 1
	// Descending ranks higher values first (count style)
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "unknown"
	}
}

// Better reports whether value a ranks ahead of value b
func (d Direction) Better(a, b float64) bool {
	if d == Ascending {
		return a < b
	}
	return a > b
}

var categoryDirections = map[Category]Direction{
	CategoryReactionTime:   Ascending,
	CategoryAimTrainer:     Ascending,
	CategorySequenceMemory: Descending,
	CategoryNumberMemory:   Descending,
	CategoryChimpTest:      Descending,
}

// Categories returns all known categories in a stable order
func Categories() []Category {
	return []Category{
		CategoryReactionTime,
		CategoryAimTrainer,
		CategorySequenceMemory,
		CategoryNumberMemory,
		CategoryChimpTest,
	}
}

// ParseCategory validates a wire category tag. Matching is case-insensitive
// and tolerates dashes in place of underscores
func ParseCategory(s string) (Category, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	if norm == "" {
		return "", NewValidationError("category", "is required")
	}
	c := Category(norm)
	if _, ok := categoryDirections[c]; !ok {
		return "", NewValidationError("category", "unknown category "+s)
	}
	return c, nil
}

// Direction returns the ranking direction for the category.
// Unknown categories rank descending; callers are expected to ParseCategory first
func (c Category) Direction() Direction {
	if d, ok := categoryDirections[c]; ok {
		return d
	}
	return Descending
}

// Valid reports whether the category is in the fixed table
func (c Category) Valid() bool {
	_, ok := categoryDirections[c]
	return ok
}
