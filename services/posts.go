package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kratospidey/gbs-sub000/blob"
	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/models"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostService enforces the draft/pending/published/archived workflow and
// the ownership predicate on every mutation.
type PostService struct {
	logger zerolog.Logger
	posts  PostStore
	saved  SavedPostStore
	blobs  blob.Store
	tx     TxRunner
}

func NewPostService(posts PostStore, saved SavedPostStore, blobs blob.Store, tx TxRunner) *PostService {
	return &PostService{
		logger: log.With().Str("serviceName", "postService").Logger(),
		posts:  posts,
		saved:  saved,
		blobs:  blobs,
		tx:     tx,
	}
}

// PostInput carries the client-supplied post fields. Status expresses
// intent only; the workflow decides what actually gets stored.
type PostInput struct {
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	MainImageURL string            `json:"mainImageUrl"`
	Tags         []string          `json:"tags"`
	Status       models.PostStatus `json:"status"`
}

// Create stores a new post for the author. Whatever status the client
// asked for, a new post starts in pending: publishing always routes
// through review.
func (s *PostService) Create(ctx context.Context, author *models.Author, input PostInput) (*models.Post, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errs.NewMissingRequiredFieldError("title")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, errs.NewMissingRequiredFieldError("body")
	}

	postSlug, err := s.uniqueSlug(ctx, input.Title, primitive.NilObjectID)
	if err != nil {
		return nil, errs.NewStoreError("derive slug", "post", err)
	}

	post := &models.Post{
		Title:        strings.TrimSpace(input.Title),
		Slug:         postSlug,
		Body:         input.Body,
		AuthorID:     author.ID,
		MainImageURL: input.MainImageURL,
		PublishedAt:  time.Now(),
		Tags:         NormalizeTags(input.Tags),
		Status:       models.StatusPending,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, errs.NewStoreError("create", "post", err)
	}

	s.logger.Info().Str("slug", post.Slug).Str("author", author.Name).Msg("Post created")
	return post, nil
}

// Update edits an owned post. A draft save keeps the post in draft; any
// other intent, including a straight "published" request, lands in pending
// for review. The slug never changes after creation; it is the post's
// stable URL identity.
func (s *PostService) Update(ctx context.Context, author *models.Author, postID primitive.ObjectID, input PostInput) (*models.Post, error) {
	post, err := s.owned(ctx, author, postID)
	if err != nil {
		return nil, err
	}

	status := models.StatusPending
	if input.Status == models.StatusDraft && post.Status == models.StatusDraft {
		status = models.StatusDraft
	}

	fields := bson.M{
		"body":         input.Body,
		"mainImageUrl": input.MainImageURL,
		"tags":         NormalizeTags(input.Tags),
		"status":       status,
	}
	if strings.TrimSpace(input.Title) != "" {
		fields["title"] = strings.TrimSpace(input.Title)
	}

	if err := s.posts.UpdateFields(ctx, post.ID, fields); err != nil {
		return nil, errs.NewStoreError("update", "post", err)
	}

	updated, err := s.posts.FindByID(ctx, post.ID)
	if err != nil {
		return nil, errs.NewStoreError("find updated", "post", err)
	}
	return updated, nil
}

// Archive moves a published post out of public view. Only published posts
// can be archived; a pending or draft post has never been visible and the
// transition is rejected.
func (s *PostService) Archive(ctx context.Context, author *models.Author, postID primitive.ObjectID) (*models.Post, error) {
	return s.setArchived(ctx, author, postID, models.StatusPublished, models.StatusArchived)
}

// Unarchive returns an archived post to published without another review
// pass.
func (s *PostService) Unarchive(ctx context.Context, author *models.Author, postID primitive.ObjectID) (*models.Post, error) {
	return s.setArchived(ctx, author, postID, models.StatusArchived, models.StatusPublished)
}

func (s *PostService) setArchived(ctx context.Context, author *models.Author, postID primitive.ObjectID, from, to models.PostStatus) (*models.Post, error) {
	post, err := s.owned(ctx, author, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != from {
		return nil, errs.NewConflictError(fmt.Sprintf("post is %s, not %s", post.Status, from))
	}

	if err := s.posts.UpdateFields(ctx, post.ID, bson.M{"status": to}); err != nil {
		return nil, errs.NewStoreError("update", "post", err)
	}
	post.Status = to
	return post, nil
}

// Delete removes an owned post, fixing up every SavedPost reference to it
// in the same content-store transaction, then removes the main image blob
// best-effort.
func (s *PostService) Delete(ctx context.Context, author *models.Author, postID primitive.ObjectID, imageURL string) error {
	post, err := s.owned(ctx, author, postID)
	if err != nil {
		return err
	}

	err = runSavedRefCascade(ctx, s.tx, s.saved, []primitive.ObjectID{post.ID}, func(txCtx context.Context) error {
		return s.posts.Delete(txCtx, post.ID)
	})
	if err != nil {
		var apiErr *errs.ApiErr
		if errors.As(err, &apiErr) {
			return err
		}
		return errs.NewTransactionFailedError("post deletion", err)
	}

	if imageURL != "" && s.blobs != nil {
		if err := s.blobs.Remove(ctx, imageURL); err != nil {
			s.logger.Warn().Err(err).Str("url", imageURL).Msg("Failed to delete post image blob")
		}
	}

	s.logger.Info().Str("slug", post.Slug).Msg("Post deleted")
	return nil
}

// List returns posts filtered by status and optional tag, ordered by
// publish timestamp. Callers without a session only ever see published.
func (s *PostService) List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	if filter.Status == "" {
		filter.Status = models.StatusPublished
	}
	if !models.ValidStatus(filter.Status) {
		return nil, errs.NewInvalidFieldError("status", string(filter.Status))
	}

	posts, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, errs.NewStoreError("list", "posts", err)
	}
	return posts, nil
}

// GetBySlug returns a post with its body rendered to HTML.
func (s *PostService) GetBySlug(ctx context.Context, postSlug string) (*models.Post, string, error) {
	post, err := s.posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, "", errs.NewStoreError("find", "post", err)
	}
	if post == nil {
		return nil, "", errs.NewNotFound("post")
	}

	rendered, err := RenderMarkdown(post.Body)
	if err != nil {
		s.logger.Warn().Err(err).Str("slug", postSlug).Msg("Markdown rendering failed, returning raw body")
		rendered = post.Body
	}
	return post, rendered, nil
}

// PostsByAuthor lists an author's posts for the profile page, newest
// first.
func (s *PostService) PostsByAuthor(ctx context.Context, authorID primitive.ObjectID, status models.PostStatus) ([]*models.Post, error) {
	return s.List(ctx, models.PostFilter{Status: status, AuthorID: authorID})
}

// owned applies the ownership predicate: fetch by post id AND author
// reference. The ambiguous error deliberately conflates "missing" and
// "not yours".
func (s *PostService) owned(ctx context.Context, author *models.Author, postID primitive.ObjectID) (*models.Post, error) {
	post, err := s.posts.FindOwned(ctx, postID, author.ID)
	if err != nil {
		return nil, errs.NewStoreError("find", "post", err)
	}
	if post == nil {
		return nil, errs.NewOwnershipError("post")
	}
	return post, nil
}

// uniqueSlug derives a slug from the title and suffixes a counter until it
// is free.
func (s *PostService) uniqueSlug(ctx context.Context, title string, excludeID primitive.ObjectID) (string, error) {
	baseSlug := slug.Make(title)
	if baseSlug == "" {
		baseSlug = "untitled"
	}

	finalSlug := baseSlug
	for counter := 1; ; counter++ {
		exists, err := s.posts.SlugExists(ctx, finalSlug, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return finalSlug, nil
		}
		finalSlug = fmt.Sprintf("%s-%d", baseSlug, counter)
	}
}

// NormalizeTags lowercases, trims and deduplicates a tag list, preserving
// first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}
	return normalized
}
