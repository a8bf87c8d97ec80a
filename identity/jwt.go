package identity

import (
	"context"

	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// JWTProvider is the development stand-in for the hosted identity service.
// It validates HS256 tokens carrying the user id in `sub` and the handle in
// a `handle` claim. It has no user directory: handle lookups miss and
// account deletion is a logged no-op.
type JWTProvider struct {
	secret []byte
	logger zerolog.Logger
}

func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{
		secret: []byte(secret),
		logger: log.With().Str("component", "jwtProvider").Logger(),
	}
}

func (p *JWTProvider) ValidateSession(ctx context.Context, sessionToken string) (*Session, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(sessionToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errs.NewInvalidTokenError()
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, errs.NewInvalidTokenError()
	}

	session := &Session{UserID: subject}
	if handle, ok := claims["handle"].(string); ok {
		session.Handle = handle
	}
	return session, nil
}

func (p *JWTProvider) GetUserByHandle(ctx context.Context, handle string) (*User, error) {
	// No directory behind the dev provider.
	return nil, nil
}

func (p *JWTProvider) DeleteUser(ctx context.Context, userID string) error {
	p.logger.Warn().Str("userID", userID).Msg("Dev identity provider cannot delete accounts; skipping")
	return nil
}
