package ranking

import (
	"context"

	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/storage"
)

// DefaultLimit is used when no limit is configured
const DefaultLimit = 50

// Config holds configuration for the ranking service
type Config struct {
	// Limit is both the default and the maximum number of entries returned
	Limit int
}

// Leaderboard is a ranked list of scores for one category
type Leaderboard struct {
	Category  model.Category
	Direction model.Direction
	// Room is set for room-scoped leaderboards
	Room    *model.Room
	Entries []model.LeaderboardEntry
}

// Service answers leaderboard queries
type Service struct {
	storage storage.Storage
	limit   int
}

// New creates a new ranking Service
func New(storage storage.Storage, cfg Config) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Service{storage: storage, limit: cfg.Limit}
}

// Global returns the best scores across all users for a category
func (s *Service) Global(ctx context.Context, category string, limit int) (*Leaderboard, error) {
	c, err := model.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	entries, err := s.storage.TopScores(ctx, model.LeaderboardQuery{
		Category: c,
		Limit:    s.clamp(limit),
	})
	if err != nil {
		return nil, err
	}

	return &Leaderboard{Category: c, Direction: c.Direction(), Entries: entries}, nil
}

// Room returns the best scores submitted with the room's id for a category
func (s *Service) Room(ctx context.Context, code model.RoomCode, category string, limit int) (*Leaderboard, error) {
	c, err := model.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	room, err := s.storage.GetRoomByCode(ctx, code.Normalize())
	if err != nil {
		return nil, err
	}

	entries, err := s.storage.TopScores(ctx, model.LeaderboardQuery{
		Category: c,
		RoomID:   &room.ID,
		Limit:    s.clamp(limit),
	})
	if err != nil {
		return nil, err
	}

	return &Leaderboard{Category: c, Direction: c.Direction(), Room: room, Entries: entries}, nil
}

// clamp applies the default for an unset limit and caps larger requests
func (s *Service) clamp(limit int) int {
	if limit <= 0 || limit > s.limit {
		return s.limit
	}
	return limit
}
