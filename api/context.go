package api

import (
	"context"

	"github.com/Kratospidey/gbs-sub000/identity"
)

type keyType string

const sessionKey keyType = "session"

// ctxWithSession adds the authenticated session to the context
func ctxWithSession(ctx context.Context, sess *identity.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// ctxGetSession retrieves the authenticated session, or nil when the
// request carried no valid token. Mutating handlers must treat nil as 401;
// they never accept a client-supplied identity instead.
func ctxGetSession(ctx context.Context) *identity.Session {
	if sess, ok := ctx.Value(sessionKey).(*identity.Session); ok {
		return sess
	}
	return nil
}
