package scoring

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/humanbench/internal/dependencies/clock"
	"github.com/mcoot/humanbench/internal/dependencies/ids"
	"github.com/mcoot/humanbench/internal/metrics"
	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/storage"
)

// SubmitInput is a client-reported benchmark result
type SubmitInput struct {
	Category string
	// Value is nil when the client omitted it
	Value    *float64
	RoomID   *string
	RawStats map[string]any
}

// HistoryLimit is the default and maximum size of a score listing
const HistoryLimit = 50

// ListInput filters a score listing. Empty fields match every score.
type ListInput struct {
	Category string
	RoomID   string
	UserID   string
	Limit    int
}

// Service records benchmark attempts
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a new scoring Service
func New(storage storage.Storage, clock clock.Clock, ids ids.Generator, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		metrics: m,
		logger:  logger,
	}
}

// Submit validates and stores one attempt for the caller. Every call stores a
// new record; nothing is deduplicated or replaced.
func (s *Service) Submit(ctx context.Context, identity model.Identity, in SubmitInput) (*model.Score, error) {
	if identity.IsZero() {
		return nil, model.ErrUnauthorized
	}

	category, err := model.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	if in.Value == nil {
		return nil, model.NewValidationError("value", "is required")
	}

	var roomID *string
	if in.RoomID != nil {
		trimmed := strings.TrimSpace(*in.RoomID)
		if trimmed == "" {
			return nil, model.NewValidationError("roomId", "must not be blank")
		}
		roomID = &trimmed
	}

	rawStats := in.RawStats
	if rawStats == nil {
		rawStats = map[string]any{}
	}

	score := &model.Score{
		ID:        model.ScoreID(s.ids.NewID()),
		UserID:    identity.UserID,
		Category:  category,
		Value:     *in.Value,
		RoomID:    roomID,
		RawStats:  rawStats,
		CreatedAt: s.clock.Now(),
	}
	if err := score.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.InsertScore(ctx, score); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidToken
		}
		return nil, err
	}

	s.metrics.ScoresSubmitted.WithLabelValues(string(category)).Inc()
	s.logger.Info("score stored",
		slog.String("score_id", string(score.ID)),
		slog.String("user_id", string(score.UserID)),
		slog.String("category", string(category)),
		slog.Float64("value", score.Value),
	)

	return score, nil
}

// List returns stored attempts matching the filter, newest first
func (s *Service) List(ctx context.Context, in ListInput) ([]model.ScoreWithUser, error) {
	filter := model.ScoreFilter{
		RoomID: strings.TrimSpace(in.RoomID),
		UserID: model.UserID(strings.TrimSpace(in.UserID)),
		Limit:  in.Limit,
	}
	if strings.TrimSpace(in.Category) != "" {
		category, err := model.ParseCategory(in.Category)
		if err != nil {
			return nil, err
		}
		filter.Category = category
	}
	if filter.Limit <= 0 || filter.Limit > HistoryLimit {
		filter.Limit = HistoryLimit
	}

	return s.storage.ListScores(ctx, filter)
}
