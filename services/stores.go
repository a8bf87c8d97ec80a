package services

import (
	"context"

	"github.com/Kratospidey/gbs-sub000/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The services consume the stores through these interfaces. The content
// and database packages satisfy them; tests substitute in-memory fakes.

// AuthorStore is the Author slice of the content store.
type AuthorStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.Author, error)
	FindByName(ctx context.Context, name string) (*models.Author, error)
	FindBySlug(ctx context.Context, slug string) (*models.Author, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Author, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Author, error)
	Create(ctx context.Context, author *models.Author) error
	SetUserID(ctx context.Context, authorID primitive.ObjectID, userID string) error
	UpdateFields(ctx context.Context, authorID primitive.ObjectID, fields bson.M) error
	Delete(ctx context.Context, authorID primitive.ObjectID) error
}

// PostStore is the Post slice of the content store.
type PostStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindOwned(ctx context.Context, postID, authorID primitive.ObjectID) (*models.Post, error)
	SlugExists(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error)
	List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
	IDsByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error)
	Create(ctx context.Context, post *models.Post) error
	UpdateFields(ctx context.Context, postID primitive.ObjectID, fields bson.M) error
	Delete(ctx context.Context, postID primitive.ObjectID) error
}

// SavedPostStore is the SavedPost slice of the content store.
type SavedPostStore interface {
	FindByUser(ctx context.Context, userID string) (*models.SavedPost, error)
	FindReferencing(ctx context.Context, postIDs []primitive.ObjectID) ([]*models.SavedPost, error)
	Create(ctx context.Context, saved *models.SavedPost) error
	CompareAndSwapItems(ctx context.Context, docID primitive.ObjectID, items []models.SavedItem, expectedRevision int64) (bool, error)
	Delete(ctx context.Context, docID primitive.ObjectID) error
}

// TxRunner commits a set of content-store mutations atomically. Repository
// calls made with the context passed to fn join the transaction.
type TxRunner interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProfileStore is the relational profile store.
type ProfileStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, userID string) error
}
