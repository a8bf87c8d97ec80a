package services

import (
	"context"
	"time"

	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toggleAttempts bounds the optimistic-concurrency retry loop.
const toggleAttempts = 3

// SavedPostService maintains the per-user bookmark document: at most one
// document per user, no duplicate post references in its item list.
type SavedPostService struct {
	logger zerolog.Logger
	saved  SavedPostStore
	posts  PostStore
}

func NewSavedPostService(saved SavedPostStore, posts PostStore) *SavedPostService {
	return &SavedPostService{
		logger: log.With().Str("serviceName", "savedPostService").Logger(),
		saved:  saved,
		posts:  posts,
	}
}

// ToggleSave flips whether the user has postID bookmarked and reports the
// new state. The read-modify-write is guarded by the document revision:
// a concurrent toggle on the same document invalidates the commit and the
// whole cycle retries, up to toggleAttempts times.
func (s *SavedPostService) ToggleSave(ctx context.Context, userID string, postID primitive.ObjectID) (bool, error) {
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		doc, err := s.saved.FindByUser(ctx, userID)
		if err != nil {
			return false, errs.NewStoreError("find", "savedPost", err)
		}

		if doc == nil {
			doc = &models.SavedPost{
				UserID: userID,
				Items:  []models.SavedItem{newSavedItem(postID)},
			}
			if err := s.saved.Create(ctx, doc); err != nil {
				// A concurrent first save can beat us to the unique
				// userId slot; retry as a plain toggle.
				s.logger.Debug().Err(err).Str("userID", userID).Msg("Saved-post create lost race, retrying")
				continue
			}
			return true, nil
		}

		items, saved := toggleItem(doc.Items, postID)
		ok, err := s.saved.CompareAndSwapItems(ctx, doc.ID, items, doc.Revision)
		if err != nil {
			return false, errs.NewStoreError("update", "savedPost", err)
		}
		if ok {
			return saved, nil
		}
		s.logger.Debug().Str("userID", userID).Int("attempt", attempt+1).Msg("Saved-post revision conflict, retrying")
	}

	return false, errs.NewRevisionConflictError("savedPost", toggleAttempts)
}

// IsSaved reports whether the user's bookmark document references postID.
// Pure read.
func (s *SavedPostService) IsSaved(ctx context.Context, userID string, postID primitive.ObjectID) (bool, error) {
	doc, err := s.saved.FindByUser(ctx, userID)
	if err != nil {
		return false, errs.NewStoreError("find", "savedPost", err)
	}
	if doc == nil {
		return false, nil
	}
	return doc.Contains(postID), nil
}

// SavedPosts returns the user's bookmarked posts, newest save first.
// References to since-deleted posts are skipped.
func (s *SavedPostService) SavedPosts(ctx context.Context, userID string) ([]*models.Post, error) {
	doc, err := s.saved.FindByUser(ctx, userID)
	if err != nil {
		return nil, errs.NewStoreError("find", "savedPost", err)
	}
	if doc == nil {
		return nil, nil
	}

	posts := make([]*models.Post, 0, len(doc.Items))
	for i := len(doc.Items) - 1; i >= 0; i-- {
		post, err := s.posts.FindByID(ctx, doc.Items[i].PostID)
		if err != nil {
			return nil, errs.NewStoreError("find", "post", err)
		}
		if post != nil {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func newSavedItem(postID primitive.ObjectID) models.SavedItem {
	return models.SavedItem{
		Key:     uuid.NewString(),
		PostID:  postID,
		SavedAt: time.Now(),
	}
}

// toggleItem removes the single entry referencing postID if present, else
// appends a fresh one. The returned bool is the resulting saved state.
func toggleItem(items []models.SavedItem, postID primitive.ObjectID) ([]models.SavedItem, bool) {
	for i, item := range items {
		if item.PostID == postID {
			return append(items[:i:i], items[i+1:]...), false
		}
	}
	return append(items, newSavedItem(postID)), true
}
