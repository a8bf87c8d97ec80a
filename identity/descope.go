package identity

import (
	"context"
	"errors"

	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/descope/go-sdk/descope"
	"github.com/descope/go-sdk/descope/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DescopeProvider implements Provider against the Descope service. Session
// validation uses the auth API; lookup and deletion use the management API
// and therefore need a management key.
type DescopeProvider struct {
	client *client.DescopeClient
	logger zerolog.Logger
}

func NewDescopeProvider(projectID, managementKey string) (*DescopeProvider, error) {
	descopeClient, err := client.NewWithConfig(&client.Config{
		ProjectID:     projectID,
		ManagementKey: managementKey,
	})
	if err != nil {
		return nil, err
	}

	return &DescopeProvider{
		client: descopeClient,
		logger: log.With().Str("component", "descopeProvider").Logger(),
	}, nil
}

func (p *DescopeProvider) ValidateSession(ctx context.Context, sessionToken string) (*Session, error) {
	ok, token, err := p.client.Auth.ValidateSessionWithToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, descope.ErrInvalidToken) {
			return nil, errs.NewInvalidTokenError()
		}
		return nil, errs.NewIdentityError("validate session", err)
	}
	if !ok || token == nil {
		return nil, errs.NewInvalidTokenError()
	}

	session := &Session{UserID: token.ID}
	if handle, ok := token.CustomClaim("handle").(string); ok {
		session.Handle = handle
	}
	return session, nil
}

func (p *DescopeProvider) GetUserByHandle(ctx context.Context, handle string) (*User, error) {
	res, err := p.client.Management.User().Load(ctx, handle)
	if err != nil {
		if descope.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, errs.NewIdentityError("load user", err)
	}
	if res == nil {
		return nil, nil
	}

	user := &User{
		ID:     res.UserID,
		Handle: handle,
		Name:   res.Name,
		Email:  res.Email,
	}
	if len(res.LoginIDs) > 0 {
		user.Handle = res.LoginIDs[0]
	}
	return user, nil
}

func (p *DescopeProvider) DeleteUser(ctx context.Context, userID string) error {
	if err := p.client.Management.User().Delete(ctx, userID); err != nil {
		p.logger.Error().Err(err).Str("userID", userID).Msg("Failed to delete identity-provider account")
		return errs.NewIdentityError("delete user", err)
	}
	return nil
}
