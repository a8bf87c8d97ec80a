package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kratospidey/gbs-sub000/blob"
	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/identity"
	"github.com/Kratospidey/gbs-sub000/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// ProfileService owns the relational Profile rows and keeps the duplicated
// Author subset loosely in sync with them. Sync is best-effort in both
// directions; the stores offer no cross-store consistency and none is
// promised.
type ProfileService struct {
	logger   zerolog.Logger
	profiles ProfileStore
	authors  AuthorStore
	posts    PostStore
	provider identity.Provider
	blobs    blob.Store
}

func NewProfileService(profiles ProfileStore, authors AuthorStore, posts PostStore, provider identity.Provider, blobs blob.Store) *ProfileService {
	return &ProfileService{
		logger:   log.With().Str("serviceName", "profileService").Logger(),
		profiles: profiles,
		authors:  authors,
		posts:    posts,
		provider: provider,
		blobs:    blobs,
	}
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Bio       string             `json:"bio"`
	Links     models.SocialLinks `json:"links"`
}

// UpdateProfile upserts the caller's profile row, then patches the
// matching Author document with the duplicated subset. The author patch is
// loose sync: its failure is logged and swallowed.
func (s *ProfileService) UpdateProfile(ctx context.Context, sess *identity.Session, input ProfileInput) (*models.Profile, error) {
	linksJSON, err := json.Marshal(input.Links)
	if err != nil {
		return nil, errs.NewInvalidFieldError("links", err.Error())
	}

	existing, err := s.profiles.FindByUserID(ctx, sess.UserID)
	if err != nil {
		return nil, errs.NewStoreError("find", "profile", err)
	}

	profile := &models.Profile{
		UserID:    sess.UserID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Bio:       input.Bio,
		Links:     linksJSON,
	}
	if existing != nil {
		profile.AvatarURL = existing.AvatarURL
		profile.CreatedAt = existing.CreatedAt
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, errs.NewStoreError("upsert", "profile", err)
	}

	s.syncAuthor(ctx, sess.UserID, bson.M{
		"firstName": input.FirstName,
		"lastName":  input.LastName,
		"bio":       input.Bio,
		"github":    input.Links.Github,
		"linkedin":  input.Links.Linkedin,
		"website":   input.Links.Website,
	})

	return profile, nil
}

// UploadAvatar stores the image blob and points both the profile row and
// the Author document at the returned URL.
func (s *ProfileService) UploadAvatar(ctx context.Context, sess *identity.Session, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("avatars/%s/%s", sess.UserID, uuid.NewString())
	url, err := s.blobs.Upload(ctx, key, contentType, data)
	if err != nil {
		return "", errs.NewStoreError("upload", "avatar", err)
	}

	profile, err := s.profiles.FindByUserID(ctx, sess.UserID)
	if err != nil {
		return "", errs.NewStoreError("find", "profile", err)
	}
	if profile == nil {
		profile = &models.Profile{UserID: sess.UserID}
	}
	profile.AvatarURL = url
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return "", errs.NewStoreError("upsert", "profile", err)
	}

	s.syncAuthor(ctx, sess.UserID, bson.M{"avatarUrl": url})
	return url, nil
}

// syncAuthor applies the duplicated field subset to the user's Author
// document, if one exists.
func (s *ProfileService) syncAuthor(ctx context.Context, userID string, fields bson.M) {
	author, err := s.authors.FindByUserID(ctx, userID)
	if err != nil || author == nil {
		if err != nil {
			s.logger.Warn().Err(err).Str("userID", userID).Msg("Author sync lookup failed")
		}
		return
	}
	if err := s.authors.UpdateFields(ctx, author.ID, fields); err != nil {
		s.logger.Warn().Err(err).Str("userID", userID).Msg("Author sync patch failed")
	}
}

// ProfileView is the merged user+posts payload behind the public profile
// page.
type ProfileView struct {
	User  *UserRecord    `json:"user"`
	Posts []*models.Post `json:"posts"`
}

// UserRecord merges the Author document with its relational profile row.
type UserRecord struct {
	UserID    string             `json:"userId,omitempty"`
	Name      string             `json:"name"`
	Slug      string             `json:"slug"`
	FirstName string             `json:"firstName,omitempty"`
	LastName  string             `json:"lastName,omitempty"`
	Bio       string             `json:"bio,omitempty"`
	AvatarURL string             `json:"avatarUrl,omitempty"`
	Links     models.SocialLinks `json:"links"`
	Email     string             `json:"email,omitempty"`
	JoinedAt  time.Time          `json:"joinedAt"`
}

// View assembles the profile page for a username: the Author resolved by
// slug (handle) with a display-name fallback, its published posts, and the
// profile row, the latter two fetched concurrently.
func (s *ProfileService) View(ctx context.Context, username string) (*ProfileView, error) {
	author, err := s.authors.FindBySlug(ctx, username)
	if err != nil {
		return nil, errs.NewStoreError("find", "author", err)
	}
	if author == nil {
		author, err = s.authors.FindByName(ctx, username)
		if err != nil {
			return nil, errs.NewStoreError("find", "author", err)
		}
	}
	if author == nil {
		return nil, errs.NewNotFound("author")
	}

	var (
		posts   []*models.Post
		profile *models.Profile
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.posts.List(gCtx, models.PostFilter{Status: models.StatusPublished, AuthorID: author.ID})
		return err
	})
	g.Go(func() error {
		if author.UserID == "" {
			return nil
		}
		var err error
		profile, err = s.profiles.FindByUserID(gCtx, author.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errs.NewStoreError("load", "profile view", err)
	}

	return &ProfileView{
		User:  mergeUserRecord(author, profile),
		Posts: posts,
	}, nil
}

// LookupUser resolves a handle through the identity provider and enriches
// the hit with content-store and profile data.
func (s *ProfileService) LookupUser(ctx context.Context, handle string) (*UserRecord, error) {
	idUser, err := s.provider.GetUserByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if idUser == nil {
		return nil, errs.NewNotFound("user")
	}

	author, err := s.authors.FindByUserID(ctx, idUser.ID)
	if err != nil {
		return nil, errs.NewStoreError("find", "author", err)
	}

	var profile *models.Profile
	if author != nil {
		profile, err = s.profiles.FindByUserID(ctx, idUser.ID)
		if err != nil {
			return nil, errs.NewStoreError("find", "profile", err)
		}
	}

	record := mergeUserRecord(author, profile)
	if record.Name == "" {
		record.Name = idUser.Name
	}
	record.UserID = idUser.ID
	if record.Email == "" {
		record.Email = idUser.Email
	}
	return record, nil
}

// EnrichPosts joins posts with their authors' profile fields for the feed.
type EnrichedPost struct {
	*models.Post
	Author *UserRecord `json:"author,omitempty"`
}

func (s *ProfileService) EnrichPosts(ctx context.Context, posts []*models.Post) ([]EnrichedPost, error) {
	ids := make([]primitive.ObjectID, 0, len(posts))
	seen := make(map[primitive.ObjectID]bool, len(posts))
	for _, post := range posts {
		if !seen[post.AuthorID] {
			seen[post.AuthorID] = true
			ids = append(ids, post.AuthorID)
		}
	}

	authors, err := s.authors.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errs.NewStoreError("find", "authors", err)
	}

	userIDs := make([]string, 0, len(authors))
	for _, author := range authors {
		if author.UserID != "" {
			userIDs = append(userIDs, author.UserID)
		}
	}
	profiles, err := s.profiles.FindByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, errs.NewStoreError("find", "profiles", err)
	}

	enriched := make([]EnrichedPost, 0, len(posts))
	for _, post := range posts {
		var record *UserRecord
		if author := authors[post.AuthorID]; author != nil {
			record = mergeUserRecord(author, profiles[author.UserID])
		}
		enriched = append(enriched, EnrichedPost{Post: post, Author: record})
	}
	return enriched, nil
}

// mergeUserRecord overlays the profile row onto the Author document.
// Profile fields win for the duplicated subset since profile edits land
// there first.
func mergeUserRecord(author *models.Author, profile *models.Profile) *UserRecord {
	record := &UserRecord{}
	if author != nil {
		record.UserID = author.UserID
		record.Name = author.Name
		record.Slug = author.Slug
		record.FirstName = author.FirstName
		record.LastName = author.LastName
		record.Bio = author.Bio
		record.AvatarURL = author.AvatarURL
		record.Email = author.Email
		record.JoinedAt = author.CreatedAt
		record.Links = models.SocialLinks{
			Github:   author.Github,
			Linkedin: author.Linkedin,
			Website:  author.Website,
		}
	}
	if profile != nil {
		if profile.FirstName != "" {
			record.FirstName = profile.FirstName
		}
		if profile.LastName != "" {
			record.LastName = profile.LastName
		}
		if profile.Bio != "" {
			record.Bio = profile.Bio
		}
		if profile.AvatarURL != "" {
			record.AvatarURL = profile.AvatarURL
		}
		var links models.SocialLinks
		if len(profile.Links) > 0 && json.Unmarshal(profile.Links, &links) == nil {
			if links.Github != "" {
				record.Links.Github = links.Github
			}
			if links.Linkedin != "" {
				record.Links.Linkedin = links.Linkedin
			}
			if links.Website != "" {
				record.Links.Website = links.Website
			}
		}
	}
	return record
}
