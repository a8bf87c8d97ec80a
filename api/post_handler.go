package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Kratospidey/gbs-sub000/cache"
	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/models"
	"github.com/Kratospidey/gbs-sub000/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type postHandler struct {
	responder Responder
	logger    zerolog.Logger
	posts     *services.PostService
	accounts  *services.AccountService
	profiles  *services.ProfileService
	feedCache *cache.FeedCache
}

func newPostHandler(posts *services.PostService, accounts *services.AccountService, profiles *services.ProfileService, feedCache *cache.FeedCache) postHandler {
	logger := log.With().Str("handlerName", "postHandler").Logger()

	return postHandler{
		responder: NewResponder(logger),
		logger:    logger,
		posts:     posts,
		accounts:  accounts,
		profiles:  profiles,
		feedCache: feedCache,
	}
}

// PostCollection is the feed payload: posts enriched with their authors'
// profile fields.
type PostCollection struct {
	Posts []services.EnrichedPost `json:"posts"`
	Total int                     `json:"total"`
}

// PostDetail is a single post with its body rendered to HTML.
type PostDetail struct {
	Post     *models.Post         `json:"post"`
	BodyHTML string               `json:"bodyHtml"`
	Author   *services.UserRecord `json:"author,omitempty"`
}

// listPosts serves the public feed. Only published posts are visible
// without a session; status=draft/pending/archived listings are the
// dashboard's and are scoped to the caller's own posts.
func (h postHandler) listPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := models.PostStatus(r.URL.Query().Get("status"))
		tag := strings.TrimSpace(r.URL.Query().Get("tag"))
		sortAsc := r.URL.Query().Get("sortOrder") == "asc"

		filter := models.PostFilter{Status: status, Tag: tag, SortAsc: sortAsc}

		if status != "" && status != models.StatusPublished {
			sess := ctxGetSession(r.Context())
			if sess == nil {
				h.responder.WriteError(w, errs.NewMissingTokenError())
				return
			}
			author, err := h.accounts.AuthorForSession(r.Context(), sess)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			if author == nil {
				h.responder.WriteJSON(w, PostCollection{Posts: []services.EnrichedPost{}})
				return
			}
			filter.AuthorID = author.ID
		}

		cacheable := filter.AuthorID == primitive.NilObjectID
		cacheKey := fmt.Sprintf("tag=%s&sortAsc=%t", tag, sortAsc)
		if cacheable {
			if payload := h.feedCache.Get(r.Context(), cacheKey); payload != nil {
				h.responder.WriteRawJSON(w, payload)
				return
			}
		}

		posts, err := h.posts.List(r.Context(), filter)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		enriched, err := h.profiles.EnrichPosts(r.Context(), posts)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		response := PostCollection{Posts: enriched, Total: len(enriched)}
		if cacheable {
			if payload, err := json.Marshal(response); err == nil {
				h.feedCache.Set(r.Context(), cacheKey, payload)
			}
		}
		h.responder.WriteJSON(w, response)
	}
}

// getPost serves one post by slug with rendered body.
func (h postHandler) getPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postSlug := chi.URLParam(r, "slug")
		if postSlug == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing slug"))
			return
		}

		post, bodyHTML, err := h.posts.GetBySlug(r.Context(), postSlug)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		enriched, err := h.profiles.EnrichPosts(r.Context(), []*models.Post{post})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		detail := PostDetail{Post: post, BodyHTML: bodyHTML}
		if len(enriched) == 1 {
			detail.Author = enriched[0].Author
		}
		h.responder.WriteJSON(w, detail)
	}
}

// createPost creates a new post for the session user, provisioning the
// Author document on first write.
func (h postHandler) createPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := ctxGetSession(r.Context())
		if sess == nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		var input services.PostInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode post request body")
			h.responder.WriteError(w, errs.NewInvalidJSONError(err))
			return
		}

		author, err := h.accounts.EnsureAuthor(r.Context(), sess.UserID, sess.Handle)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.posts.Create(r.Context(), author, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.feedCache.Invalidate(r.Context())
		h.responder.WriteJSONStatus(w, http.StatusCreated, post)
	}
}

// updatePost edits an owned post.
func (h postHandler) updatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		author, postID, ok := h.ownedRequest(w, r)
		if !ok {
			return
		}

		var input services.PostInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode post request body")
			h.responder.WriteError(w, errs.NewInvalidJSONError(err))
			return
		}

		post, err := h.posts.Update(r.Context(), author, postID, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.feedCache.Invalidate(r.Context())
		h.responder.WriteJSON(w, post)
	}
}

func (h postHandler) archivePost() http.HandlerFunc {
	return h.statusTransition(h.posts.Archive)
}

func (h postHandler) unarchivePost() http.HandlerFunc {
	return h.statusTransition(h.posts.Unarchive)
}

// statusTransition runs the archive/unarchive workflow actions; invalid
// source states surface as 409.
func (h postHandler) statusTransition(transition func(ctx context.Context, author *models.Author, postID primitive.ObjectID) (*models.Post, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		author, postID, ok := h.ownedRequest(w, r)
		if !ok {
			return
		}

		post, err := transition(r.Context(), author, postID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.feedCache.Invalidate(r.Context())
		h.responder.WriteJSON(w, post)
	}
}

// deletePost removes an owned post, cascading into saved-post references
// and the image blob.
func (h postHandler) deletePost() http.HandlerFunc {
	type deleteRequest struct {
		PostID   string `json:"postId"`
		ImageURL string `json:"imageUrl"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess := ctxGetSession(r.Context())
		if sess == nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		var req deleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewInvalidJSONError(err))
			return
		}

		postID, err := primitive.ObjectIDFromHex(req.PostID)
		if err != nil {
			h.responder.WriteError(w, errs.NewInvalidFieldError("postId", "not a valid id"))
			return
		}

		author, err := h.accounts.AuthorForSession(r.Context(), sess)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if author == nil {
			h.responder.WriteError(w, errs.NewOwnershipError("post"))
			return
		}

		if err := h.posts.Delete(r.Context(), author, postID, req.ImageURL); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.feedCache.Invalidate(r.Context())
		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "post deleted successfully",
		})
	}
}

// ownedRequest resolves the session author and the postID path parameter
// for mutation endpoints. Absence of an author record means the caller
// owns nothing; the ambiguous ownership error applies.
func (h postHandler) ownedRequest(w http.ResponseWriter, r *http.Request) (*models.Author, primitive.ObjectID, bool) {
	sess := ctxGetSession(r.Context())
	if sess == nil {
		h.responder.WriteError(w, errs.Unauthorized)
		return nil, primitive.NilObjectID, false
	}

	postIDStr := chi.URLParam(r, "postID")
	postID, err := primitive.ObjectIDFromHex(postIDStr)
	if err != nil {
		h.responder.WriteError(w, errs.NewInvalidFieldError("postID", "not a valid id"))
		return nil, primitive.NilObjectID, false
	}

	author, err := h.accounts.AuthorForSession(r.Context(), sess)
	if err != nil {
		h.responder.WriteError(w, err)
		return nil, primitive.NilObjectID, false
	}
	if author == nil {
		h.responder.WriteError(w, errs.NewOwnershipError("post"))
		return nil, primitive.NilObjectID, false
	}

	return author, postID, true
}
