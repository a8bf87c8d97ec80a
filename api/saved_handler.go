package api

import (
	"net/http"

	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type savedHandler struct {
	responder Responder
	logger    zerolog.Logger
	saved     *services.SavedPostService
	profiles  *services.ProfileService
}

func newSavedHandler(saved *services.SavedPostService, profiles *services.ProfileService) savedHandler {
	logger := log.With().Str("handlerName", "savedHandler").Logger()

	return savedHandler{
		responder: NewResponder(logger),
		logger:    logger,
		saved:     saved,
		profiles:  profiles,
	}
}

func (h savedHandler) sessionAndPostID(w http.ResponseWriter, r *http.Request) (string, primitive.ObjectID, bool) {
	sess := ctxGetSession(r.Context())
	if sess == nil {
		h.responder.WriteError(w, errs.Unauthorized)
		return "", primitive.NilObjectID, false
	}

	postID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "postID"))
	if err != nil {
		h.responder.WriteError(w, errs.NewInvalidFieldError("postID", "not a valid id"))
		return "", primitive.NilObjectID, false
	}
	return sess.UserID, postID, true
}

// toggleSave flips the saved state of a post for the session user.
func (h savedHandler) toggleSave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, postID, ok := h.sessionAndPostID(w, r)
		if !ok {
			return
		}

		saved, err := h.saved.ToggleSave(r.Context(), userID, postID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]bool{"saved": saved})
	}
}

// isSaved reports whether the session user has the post bookmarked.
func (h savedHandler) isSaved() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, postID, ok := h.sessionAndPostID(w, r)
		if !ok {
			return
		}

		saved, err := h.saved.IsSaved(r.Context(), userID, postID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]bool{"saved": saved})
	}
}

// listSaved returns the session user's bookmarked posts, enriched with
// author profile fields.
func (h savedHandler) listSaved() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := ctxGetSession(r.Context())
		if sess == nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		posts, err := h.saved.SavedPosts(r.Context(), sess.UserID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		enriched, err := h.profiles.EnrichPosts(r.Context(), posts)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, PostCollection{Posts: enriched, Total: len(enriched)})
	}
}
