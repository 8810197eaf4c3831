package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/humanbench/internal/dependencies/mocks"
	"github.com/mcoot/humanbench/internal/metrics"
	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/storage/memory"
	"github.com/mcoot/humanbench/internal/testutil"
)

const testSecret = "test-secret"

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.metrics = metrics.New()
	cfg := Config{Secret: testSecret, BcryptCost: bcrypt.MinCost}
	s.service = New(s.storage, s.clock, s.random, mocks.NewMockIDs("user"), s.metrics, cfg, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) register(email, password, username string) *Session {
	session, err := s.service.Register(s.ctx, RegisterInput{Email: email, Password: password, Username: username})
	s.Require().NoError(err)
	return session
}

// CreateGuest tests

func (s *ServiceSuite) TestCreateGuestSucceeds() {
	s.random.QueueInt(4821)

	session, err := s.service.CreateGuest(s.ctx)
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("Guest-4821", session.User.Username)
	s.True(session.User.Guest)
	s.Nil(session.User.Email)
	s.Equal(model.UserID("user-1"), session.User.ID)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.UsersCreated.WithLabelValues("guest")))
}

func (s *ServiceSuite) TestCreateGuestPersistsUser() {
	session, _ := s.service.CreateGuest(s.ctx)

	user, err := s.storage.GetUser(s.ctx, session.User.ID)
	s.Require().NoError(err)
	s.True(user.Guest)
	s.NoError(user.Validate())
}

func (s *ServiceSuite) TestCreateGuestTokenVerifies() {
	session, _ := s.service.CreateGuest(s.ctx)

	identity, err := s.service.Verify(session.Token)
	s.Require().NoError(err)
	s.Equal(session.User.ID, identity.UserID)
	s.True(identity.Guest)
}

func (s *ServiceSuite) TestCreateGuestSessionLastsSevenDays() {
	session, _ := s.service.CreateGuest(s.ctx)
	s.Equal(time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC), session.ExpiresAt)
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	session := s.register("alice@example.com", "password123", "alice")

	s.NotEmpty(session.Token)
	s.Equal("alice", session.User.Username)
	s.False(session.User.Guest)
	s.Require().NotNil(session.User.Email)
	s.Equal("alice@example.com", *session.User.Email)
	s.NoError(session.User.Validate())
}

func (s *ServiceSuite) TestRegisterHashesPassword() {
	session := s.register("alice@example.com", "password123", "alice")

	user, err := s.storage.GetUser(s.ctx, session.User.ID)
	s.Require().NoError(err)
	s.Require().NotNil(user.PasswordHash)
	s.NotEqual("password123", *user.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte("password123")))
}

func (s *ServiceSuite) TestRegisterNormalizesEmail() {
	session := s.register("  Alice@Example.COM ", "password123", "alice")
	s.Equal("alice@example.com", *session.User.Email)

	_, err := s.service.Login(s.ctx, LoginInput{Email: "ALICE@example.com", Password: "password123"})
	s.NoError(err)
}

func (s *ServiceSuite) TestRegisterFailsIfEmailExists() {
	s.register("alice@example.com", "password123", "alice")

	_, err := s.service.Register(s.ctx, RegisterInput{Email: "alice@example.com", Password: "different", Username: "alice2"})
	s.ErrorIs(err, model.ErrEmailTaken)
	s.ErrorIs(err, model.ErrConflict)
	s.Equal(1, s.storage.UserCount())
}

func (s *ServiceSuite) TestRegisterValidation() {
	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"malformed email", RegisterInput{Email: "not-an-email", Password: "password123", Username: "alice"}, "email"},
		{"short password", RegisterInput{Email: "a@example.com", Password: "12345", Username: "alice"}, "password"},
		{"short username", RegisterInput{Email: "a@example.com", Password: "password123", Username: "al"}, "username"},
		{"blank username", RegisterInput{Email: "a@example.com", Password: "password123", Username: "   "}, "username"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Register(s.ctx, tt.input)
			s.Require().ErrorIs(err, model.ErrValidation)

			var verr *model.ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Equal(tt.field, verr.Field)
		})
	}
	s.Equal(0, s.storage.UserCount())
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	registered := s.register("alice@example.com", "password123", "alice")

	session, err := s.service.Login(s.ctx, LoginInput{Email: "alice@example.com", Password: "password123"})
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal(registered.User.ID, session.User.ID)
	s.Equal("alice", session.User.Username)
}

func (s *ServiceSuite) TestLoginFailsWithWrongPassword() {
	s.register("alice@example.com", "password123", "alice")

	_, err := s.service.Login(s.ctx, LoginInput{Email: "alice@example.com", Password: "wrongpassword"})
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsWithUnknownEmail() {
	_, err := s.service.Login(s.ctx, LoginInput{Email: "nobody@example.com", Password: "password123"})
	s.ErrorIs(err, model.ErrInvalidCredentials)
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ServiceSuite) TestLoginRequiresFields() {
	_, err := s.service.Login(s.ctx, LoginInput{Email: "alice@example.com"})
	s.ErrorIs(err, model.ErrValidation)
}

func (s *ServiceSuite) TestLoginRejectsMalformedEmail() {
	_, err := s.service.Login(s.ctx, LoginInput{Email: "alice", Password: "password123"})
	s.ErrorIs(err, model.ErrValidation)
	s.NotErrorIs(err, model.ErrInvalidCredentials)
}

// Verify tests

func (s *ServiceSuite) TestVerifyFailsWithGarbage() {
	_, err := s.service.Verify("invalid_token")
	s.ErrorIs(err, model.ErrInvalidToken)

	_, err = s.service.Verify("")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyFailsWhenExpired() {
	session := s.register("alice@example.com", "password123", "alice")

	s.clock.Advance(7*24*time.Hour - time.Minute)
	_, err := s.service.Verify(session.Token)
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Minute)
	_, err = s.service.Verify(session.Token)
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyFailsWithOtherSecret() {
	other := New(s.storage, s.clock, s.random, mocks.NewMockIDs("other"), s.metrics, Config{Secret: "other-secret"}, testutil.NopLogger())
	session, err := other.CreateGuest(s.ctx)
	s.Require().NoError(err)

	_, err = s.service.Verify(session.Token)
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyFailsWithTamperedPayload() {
	session := s.register("alice@example.com", "password123", "alice")

	parts := strings.Split(session.Token, ".")
	s.Require().Len(parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err := s.service.Verify(tampered)
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyRejectsUnsignedToken() {
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(s.clock.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, model.ErrInvalidToken)
}

// Me tests

func (s *ServiceSuite) TestMeReturnsUser() {
	session := s.register("alice@example.com", "password123", "alice")

	user, err := s.service.Me(s.ctx, model.Identity{UserID: session.User.ID})
	s.Require().NoError(err)
	s.Equal("alice", user.Username)
}

func (s *ServiceSuite) TestMeFailsForUnknownUser() {
	_, err := s.service.Me(s.ctx, model.Identity{UserID: "ghost"})
	s.ErrorIs(err, model.ErrUnauthorized)

	_, err = s.service.Me(s.ctx, model.Identity{})
	s.ErrorIs(err, model.ErrUnauthorized)
}
