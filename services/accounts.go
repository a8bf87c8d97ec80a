package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Kratospidey/gbs-sub000/errs"
	"github.com/Kratospidey/gbs-sub000/identity"
	"github.com/Kratospidey/gbs-sub000/models"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const placeholderName = "Anonymous"

// AccountService keeps the three stores consistent across account
// creation and destruction: lazy author provisioning on first authenticated
// write, and the multi-store deletion cascade.
type AccountService struct {
	logger   zerolog.Logger
	authors  AuthorStore
	posts    PostStore
	saved    SavedPostStore
	profiles ProfileStore
	provider identity.Provider
	tx       TxRunner
}

func NewAccountService(authors AuthorStore, posts PostStore, saved SavedPostStore, profiles ProfileStore, provider identity.Provider, tx TxRunner) *AccountService {
	return &AccountService{
		logger:   log.With().Str("serviceName", "accountService").Logger(),
		authors:  authors,
		posts:    posts,
		saved:    saved,
		profiles: profiles,
		provider: provider,
		tx:       tx,
	}
}

// AuthorForSession resolves the caller's Author document by session
// identity. Returns nil when the user has never authored anything.
func (s *AccountService) AuthorForSession(ctx context.Context, sess *identity.Session) (*models.Author, error) {
	author, err := s.authors.FindByUserID(ctx, sess.UserID)
	if err != nil {
		return nil, errs.NewStoreError("resolve author", "author", err)
	}
	return author, nil
}

// authorResolution is the tagged outcome of one resolver strategy.
type authorResolution struct {
	author *models.Author
	rebind bool // matched by a fallback key, identity id must be patched on
}

type authorResolver struct {
	name    string
	resolve func(ctx context.Context, userID, hint string) (*authorResolution, error)
}

// resolvers is the ordered lookup chain: primary key first, then the
// legacy-name migration fallback.
func (s *AccountService) resolvers() []authorResolver {
	return []authorResolver{
		{
			name: "byUserID",
			resolve: func(ctx context.Context, userID, hint string) (*authorResolution, error) {
				author, err := s.authors.FindByUserID(ctx, userID)
				if err != nil || author == nil {
					return nil, err
				}
				return &authorResolution{author: author}, nil
			},
		},
		{
			name: "byLegacyName",
			resolve: func(ctx context.Context, userID, hint string) (*authorResolution, error) {
				if hint == "" {
					return nil, nil
				}
				author, err := s.authors.FindByName(ctx, hint)
				if err != nil || author == nil {
					return nil, err
				}
				return &authorResolution{author: author, rebind: true}, nil
			},
		},
	}
}

// EnsureAuthor provisions the Author document for an identity-provider
// user if it does not exist yet. The resolver chain is tried in order; a
// legacy-name match is rebound to the user id with its name preserved, and
// only when no strategy matches is a fresh Author created from the hint.
// The whole operation performs at most one content-store write, so calling
// it repeatedly with the same user id is a no-op after the first call.
func (s *AccountService) EnsureAuthor(ctx context.Context, userID, candidateUsername string) (*models.Author, error) {
	hint := strings.TrimSpace(candidateUsername)

	for _, resolver := range s.resolvers() {
		res, err := resolver.resolve(ctx, userID, hint)
		if err != nil {
			return nil, errs.NewStoreError("resolve author", "author", err)
		}
		if res == nil {
			continue
		}
		if !res.rebind {
			return res.author, nil
		}

		s.logger.Info().
			Str("resolver", resolver.name).
			Str("userID", userID).
			Str("name", res.author.Name).
			Msg("Rebinding legacy author to identity id")
		if err := s.authors.SetUserID(ctx, res.author.ID, userID); err != nil {
			return nil, errs.NewStoreError("rebind author", "author", err)
		}
		res.author.UserID = userID
		return res.author, nil
	}

	name := hint
	if name == "" {
		name = placeholderName
	}
	author := &models.Author{
		UserID:    userID,
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: time.Now(),
	}
	if err := s.authors.Create(ctx, author); err != nil {
		return nil, errs.NewStoreError("create author", "author", err)
	}
	s.logger.Info().Str("userID", userID).Str("name", name).Msg("Provisioned author")
	return author, nil
}

// DeleteAccount runs the account-deletion cascade for the session user.
// The cascade is a saga of strictly ordered steps; none has a compensation,
// so a failure partway leaves earlier steps committed and is logged for
// operator follow-up. The content-store mutations (saved-ref fixups, post
// deletes, author delete) commit as one transaction, and the
// identity-provider account is deleted only after that commit, so the worst
// partial outcome is deleted content with an identity account left behind,
// never the reverse.
func (s *AccountService) DeleteAccount(ctx context.Context, sess *identity.Session) error {
	userID := sess.UserID
	logger := s.logger.With().Str("userID", userID).Logger()

	// Step 1: profile row. An error here aborts the whole operation
	// before the content store is touched.
	if err := s.profiles.Delete(ctx, userID); err != nil {
		logger.Error().Err(err).Str("step", "deleteProfile").Msg("Account deletion aborted")
		return errs.NewStoreError("delete", "profile", err)
	}

	// Step 2: resolve the author. No author means no content to cascade.
	author, err := s.authors.FindByUserID(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Str("step", "resolveAuthor").Msg("Account deletion aborted")
		return errs.NewStoreError("resolve author", "author", err)
	}

	if author != nil {
		// Step 3: collect the author's posts.
		postIDs, err := s.posts.IDsByAuthor(ctx, author.ID)
		if err != nil {
			logger.Error().Err(err).Str("step", "collectPosts").Msg("Account deletion aborted")
			return errs.NewStoreError("collect posts", "post", err)
		}

		// Steps 4 and 5: plan saved-post reference fixups and commit the
		// whole content cascade atomically, re-planning when a concurrent
		// toggle invalidates a planned patch.
		err = runSavedRefCascade(ctx, s.tx, s.saved, postIDs, func(txCtx context.Context) error {
			for _, postID := range postIDs {
				if err := s.posts.Delete(txCtx, postID); err != nil {
					return err
				}
			}
			return s.authors.Delete(txCtx, author.ID)
		})
		if err != nil {
			logger.Error().Err(err).Str("step", "contentTransaction").Msg("Account deletion failed after profile delete; no compensation, content left intact")
			var apiErr *errs.ApiErr
			if errors.As(err, &apiErr) {
				return err
			}
			return errs.NewTransactionFailedError("account deletion cascade", err)
		}

		logger.Info().Int("posts", len(postIDs)).Msg("Content cascade committed")
	}

	// Step 6: identity-provider account, only after the content commit.
	if err := s.provider.DeleteUser(ctx, userID); err != nil {
		logger.Error().Err(err).Str("step", "deleteIdentity").Msg("Content deleted but identity account remains; manual cleanup required")
		return err
	}

	logger.Info().Msg("Account deleted")
	return nil
}
