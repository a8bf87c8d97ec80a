package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxAvatarSize bounds avatar uploads.
const maxAvatarSize = 5 * 1024 * 1024

type profileHandler struct {
	responder Responder
	logger    zerolog.Logger
	profiles  *services.ProfileService
}

func newProfileHandler(profiles *services.ProfileService) profileHandler {
	logger := log.With().Str("handlerName", "profileHandler").Logger()

	return profileHandler{
		responder: NewResponder(logger),
		logger:    logger,
		profiles:  profiles,
	}
}

// getProfile serves the public profile page payload: merged user record
// plus published posts. 404 when no author matches the username.
func (h profileHandler) getProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		if username == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing username"))
			return
		}

		view, err := h.profiles.View(r.Context(), username)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, view)
	}
}

// updateProfile upserts the session user's profile row and loosely syncs
// the Author document.
func (h profileHandler) updateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := ctxGetSession(r.Context())
		if sess == nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		var input services.ProfileInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode profile request body")
			h.responder.WriteError(w, errs.NewInvalidJSONError(err))
			return
		}

		profile, err := h.profiles.UpdateProfile(r.Context(), sess, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, profile)
	}
}

// uploadAvatar stores an avatar image and returns its public URL.
func (h profileHandler) uploadAvatar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := ctxGetSession(r.Context())
		if sess == nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		data, err := io.ReadAll(io.LimitReader(r.Body, maxAvatarSize+1))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("failed to read request body"))
			return
		}
		if len(data) == 0 {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("body"))
			return
		}
		if len(data) > maxAvatarSize {
			h.responder.WriteError(w, errs.NewBadRequestError("avatar exceeds maximum size"))
			return
		}

		url, err := h.profiles.UploadAvatar(r.Context(), sess, data, contentType)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]string{"avatarUrl": url})
	}
}
