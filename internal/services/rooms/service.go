package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/humanbench/internal/dependencies/clock"
	"github.com/mcoot/humanbench/internal/dependencies/ids"
	"github.com/mcoot/humanbench/internal/dependencies/random"
	"github.com/mcoot/humanbench/internal/metrics"
	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/storage"
)

const (
	// CodeLength is the length of generated room codes
	CodeLength = 6
	// CodeAlphabet is the characters used in room codes
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// MaxCodeAttempts bounds how many codes are tried before giving up
	MaxCodeAttempts = 10
	// MaxNameLength is the longest accepted room name, in characters
	MaxNameLength = 64
)

// Service manages rooms and their membership
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	ids     ids.Generator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a new rooms Service
func New(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	ids ids.Generator,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		ids:     ids,
		metrics: m,
		logger:  logger,
	}
}

// CreateRoom creates a room with a fresh code and makes the caller its admin
func (s *Service) CreateRoom(ctx context.Context, identity model.Identity, name string) (*model.Room, error) {
	if identity.IsZero() {
		return nil, model.ErrUnauthorized
	}

	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, model.NewValidationError("name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}

	admin, err := s.resolveUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code := model.RoomCode(s.random.String(CodeLength, CodeAlphabet))
		now := s.clock.Now()

		room := &model.Room{
			ID:        s.ids.NewID(),
			Code:      code,
			Name:      name,
			AdminID:   admin.ID,
			CreatedAt: now,
		}
		if room.Name == "" {
			room.Name = "Room " + string(code)
		}

		member := model.RoomMember{
			RoomID:   room.ID,
			UserID:   admin.ID,
			IsAdmin:  true,
			JoinedAt: now,
		}

		err := s.storage.CreateRoom(ctx, room, member)
		if errors.Is(err, model.ErrRoomCodeTaken) {
			s.metrics.CodeCollisions.Inc()
			s.logger.Warn("room code collision",
				slog.String("code", string(code)),
				slog.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		member.Username = admin.Username
		member.Guest = admin.Guest
		room.Members = []model.RoomMember{member}

		s.metrics.RoomsCreated.Inc()
		s.logger.Info("room created",
			slog.String("room_id", room.ID),
			slog.String("code", string(room.Code)),
			slog.String("admin_id", string(admin.ID)),
		)
		return room, nil
	}

	s.logger.Error("room code space exhausted", slog.Int("attempts", MaxCodeAttempts))
	return nil, model.ErrCodeSpaceExhausted
}

// JoinRoom adds the caller to the room. Joining a room the caller already
// belongs to succeeds and reports joined=false.
func (s *Service) JoinRoom(ctx context.Context, identity model.Identity, code model.RoomCode) (*model.Room, bool, error) {
	if identity.IsZero() {
		return nil, false, model.ErrUnauthorized
	}

	user, err := s.resolveUser(ctx, identity)
	if err != nil {
		return nil, false, err
	}

	room, err := s.storage.GetRoomByCode(ctx, code.Normalize())
	if err != nil {
		return nil, false, err
	}

	joined, err := s.storage.AddRoomMember(ctx, model.RoomMember{
		RoomID:   room.ID,
		UserID:   user.ID,
		IsAdmin:  false,
		JoinedAt: s.clock.Now(),
	})
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, false, model.ErrInvalidToken
	}
	if err != nil {
		return nil, false, err
	}

	if joined {
		s.metrics.RoomJoins.WithLabelValues("joined").Inc()
		s.logger.Info("room joined",
			slog.String("room_id", room.ID),
			slog.String("user_id", string(identity.UserID)),
		)
	} else {
		s.metrics.RoomJoins.WithLabelValues("already_member").Inc()
	}

	// Reload so the member list includes the caller
	room, err = s.storage.GetRoomByCode(ctx, room.Code)
	if err != nil {
		return nil, false, err
	}
	return room, joined, nil
}

// resolveUser loads the caller. A verified token whose user no longer exists
// is treated as invalid.
func (s *Service) resolveUser(ctx context.Context, identity model.Identity) (*model.User, error) {
	user, err := s.storage.GetUser(ctx, identity.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetRoom retrieves a room and its members by code
func (s *Service) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return s.storage.GetRoomByCode(ctx, code.Normalize())
}
