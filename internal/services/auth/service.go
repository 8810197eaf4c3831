package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/humanbench/internal/dependencies/clock"
	"github.com/mcoot/humanbench/internal/dependencies/ids"
	"github.com/mcoot/humanbench/internal/dependencies/random"
	"github.com/mcoot/humanbench/internal/metrics"
	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/storage"
	"github.com/mcoot/humanbench/internal/validation"
)

// Guest usernames are "Guest-" followed by a number in this range
const (
	guestNumberMin = 1000
	guestNumberMax = 99999
)

// Session is an issued token together with the user it identifies
type Session struct {
	Token     string
	User      model.User
	ExpiresAt time.Time
}

// Config holds configuration for the auth service
type Config struct {
	// Secret signs session tokens
	Secret string
	// TokenTTL is how long an issued token stays valid
	TokenTTL time.Duration
	// BcryptCost is the password hashing cost
	BcryptCost int
}

// DefaultConfig returns default auth configuration. Secret must still be set.
func DefaultConfig() Config {
	return Config{
		TokenTTL:   7 * 24 * time.Hour,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// RegisterInput is the payload for creating a credentialed account
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Username string `json:"username" validate:"required,min=3,max=32"`
}

// LoginInput is the payload for authenticating with credentials
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service handles user creation, credential checks and session tokens
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	ids     ids.Generator
	metrics *metrics.Metrics
	logger  *slog.Logger

	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

// New creates a new auth Service
func New(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	ids ids.Generator,
	m *metrics.Metrics,
	cfg Config,
	logger *slog.Logger,
) *Service {
	defaults := DefaultConfig()
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaults.TokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	return &Service{
		storage:    storage,
		clock:      clock,
		random:     random,
		ids:        ids,
		metrics:    m,
		logger:     logger,
		secret:     []byte(cfg.Secret),
		tokenTTL:   cfg.TokenTTL,
		bcryptCost: cfg.BcryptCost,
	}
}

// CreateGuest creates an anonymous user with a generated name and issues a session
func (s *Service) CreateGuest(ctx context.Context) (*Session, error) {
	user := &model.User{
		ID:        model.UserID(s.ids.NewID()),
		Username:  fmt.Sprintf("Guest-%d", s.random.IntRange(guestNumberMin, guestNumberMax)),
		Guest:     true,
		CreatedAt: s.clock.Now(),
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.metrics.UsersCreated.WithLabelValues("guest").Inc()
	s.logger.Info("guest created",
		slog.String("user_id", string(user.ID)),
		slog.String("username", user.Username),
	)

	return s.newSession(user)
}

// Register creates a credentialed account and issues a session
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	// Check if email exists
	_, err := s.storage.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return nil, model.ErrEmailTaken
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashStr := string(hash)

	user := &model.User{
		ID:           model.UserID(s.ids.NewID()),
		Email:        &in.Email,
		PasswordHash: &hashStr,
		Username:     in.Username,
		Guest:        false,
		CreatedAt:    s.clock.Now(),
	}

	// A concurrent registration can still win the race; storage reports it as ErrEmailTaken
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.metrics.UsersCreated.WithLabelValues("registered").Inc()
	s.logger.Info("user registered",
		slog.String("user_id", string(user.ID)),
		slog.String("username", user.Username),
	)

	return s.newSession(user)
}

// Login authenticates a registered user and issues a session
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.storage.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Guest || user.PasswordHash == nil {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return s.newSession(user)
}

// Me returns the user behind a verified identity
func (s *Service) Me(ctx context.Context, identity model.Identity) (*model.User, error) {
	if identity.IsZero() {
		return nil, model.ErrUnauthorized
	}
	user, err := s.storage.GetUser(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// token outlived its user
			return nil, model.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) newSession(user *model.User) (*Session, error) {
	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, User: *user, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
