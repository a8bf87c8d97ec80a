package api

import (
	"net/http"

	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type accountHandler struct {
	responder Responder
	logger    zerolog.Logger
	accounts  *services.AccountService
}

func newAccountHandler(accounts *services.AccountService) accountHandler {
	logger := log.With().Str("handlerName", "accountHandler").Logger()

	return accountHandler{
		responder: NewResponder(logger),
		logger:    logger,
		accounts:  accounts,
	}
}

// deleteAccount runs the full account-deletion cascade for the session
// user. The acting identity is the session's alone; no client-supplied id
// is accepted.
func (h accountHandler) deleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := ctxGetSession(r.Context())
		if sess == nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		if err := h.accounts.DeleteAccount(r.Context(), sess); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "account deleted",
		})
	}
}
