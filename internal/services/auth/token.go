package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/humanbench/internal/model"
)

// Claims is the signed session payload
type Claims struct {
	UserID string `json:"userId"`
	Guest  bool   `json:"guest"`
	jwt.RegisteredClaims
}

// issueToken signs a session token for the user valid for the configured TTL
func (s *Service) issueToken(user *model.User) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.tokenTTL)

	claims := Claims{
		UserID: string(user.ID),
		Guest:  user.Guest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks a session token's signature and expiry against the service
// clock. Every failure is reported as model.ErrInvalidToken.
func (s *Service) Verify(token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, model.ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !parsed.Valid {
		return model.Identity{}, model.ErrInvalidToken
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return model.Identity{}, model.ErrInvalidToken
	}

	return model.Identity{UserID: model.UserID(claims.UserID), Guest: claims.Guest}, nil
}
