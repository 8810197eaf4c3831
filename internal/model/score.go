package model

import (
	"math"
	"time"
)

// ScoreID uniquely identifies a stored attempt
type ScoreID string

// Score is a single immutable benchmark attempt
type Score struct {
	ID        ScoreID        `json:"id"`
	UserID    UserID         `json:"user_id"`
	Category  Category       `json:"category"`
	Value     float64        `json:"value"`
	RoomID    *string        `json:"room_id,omitempty"`
	RawStats  map[string]any `json:"raw_stats"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate checks the stored-score invariants
func (s *Score) Validate() error {
	if !s.Category.Valid() {
		return NewValidationError("category", "unknown category "+string(s.Category))
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return NewValidationError("value", "must be a finite number")
	}
	if s.Value < 0 {
		return NewValidationError("value", "must be non-negative")
	}
	return nil
}

// LeaderboardEntry is a ranked score joined with its submitter's public profile
type LeaderboardEntry struct {
	ScoreID   ScoreID
	UserID    UserID
	Value     float64
	Username  string
	Guest     bool
	CreatedAt time.Time
}

// LeaderboardQuery selects the scores a leaderboard is built from
type LeaderboardQuery struct {
	Category Category
	// RoomID scopes to a room; nil means global
	RoomID *string
	Limit  int
}

// RanksBefore reports whether entry a is ordered before entry b for the
// given direction: by value, then earlier submission, then id
func RanksBefore(dir Direction, a, b LeaderboardEntry) bool {
	if a.Value != b.Value {
		return dir.Better(a.Value, b.Value)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ScoreID < b.ScoreID
}

// ScoreFilter selects scores for a history listing. Zero fields match every score.
type ScoreFilter struct {
	Category Category
	RoomID   string
	UserID   UserID
	Limit    int
}

// Matches reports whether the score passes every set field of the filter
func (f ScoreFilter) Matches(s *Score) bool {
	if f.Category != "" && s.Category != f.Category {
		return false
	}
	if f.RoomID != "" && (s.RoomID == nil || *s.RoomID != f.RoomID) {
		return false
	}
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	return true
}

// ScoreWithUser is a stored score joined with its submitter's public profile
type ScoreWithUser struct {
	Score
	Username string
	Guest    bool
}

// NewerFirst orders score history: latest submission first, then id descending
func NewerFirst(a, b *Score) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
