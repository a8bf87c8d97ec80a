// Package content is the typed façade over the document-oriented content
// store holding Author, Post and SavedPost documents. It supports
// fetch-by-query, create, partial update, delete and multi-document
// transactions; everything else about the store stays opaque to callers.
package content

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	authorsCollection    = "authors"
	postsCollection      = "posts"
	savedPostsCollection = "savedPosts"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database

	authorRepo    *AuthorRepo
	postRepo      *PostRepo
	savedPostRepo *SavedPostRepo
}

// Connect dials the content store and pings it within the given timeout.
func Connect(ctx context.Context, uri, dbName string, timeout time.Duration) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	db := client.Database(dbName)
	return &Store{
		client:        client,
		db:            db,
		authorRepo:    NewAuthorRepo(db.Collection(authorsCollection)),
		postRepo:      NewPostRepo(db.Collection(postsCollection)),
		savedPostRepo: NewSavedPostRepo(db.Collection(savedPostsCollection)),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) AuthorRepo() *AuthorRepo {
	return s.authorRepo
}

func (s *Store) PostRepo() *PostRepo {
	return s.postRepo
}

func (s *Store) SavedPostRepo() *SavedPostRepo {
	return s.savedPostRepo
}

// RunTransaction executes fn inside one content-store transaction. Every
// repository call made with the context passed to fn joins the transaction;
// the whole set of mutations commits or aborts together.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := fn(sessCtx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// EnsureIndexes creates the indexes the document invariants rely on: one
// Author and one SavedPost per identity-provider user id, unique post
// slugs.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	sparseUnique := options.Index().SetUnique(true).SetSparse(true)

	_, err := s.db.Collection(authorsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: sparseUnique,
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(postsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(savedPostsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
