package content

import (
	"context"
	"errors"

	"github.com/Kratospidey/gbs-sub000/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SavedPostRepo struct {
	col *mongo.Collection
}

func NewSavedPostRepo(col *mongo.Collection) *SavedPostRepo {
	return &SavedPostRepo{col}
}

// FindByUser returns the user's SavedPost document, or nil when the user
// has never saved a post. At most one document exists per user.
func (r *SavedPostRepo) FindByUser(ctx context.Context, userID string) (*models.SavedPost, error) {
	var saved models.SavedPost
	err := r.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&saved)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// FindReferencing returns every SavedPost document whose item list contains
// any of the given post ids.
func (r *SavedPostRepo) FindReferencing(ctx context.Context, postIDs []primitive.ObjectID) ([]*models.SavedPost, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	cursor, err := r.col.Find(ctx, bson.M{"items.postId": bson.M{"$in": postIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*models.SavedPost
	for cursor.Next(ctx) {
		var saved models.SavedPost
		if err := cursor.Decode(&saved); err != nil {
			return nil, err
		}
		docs = append(docs, &saved)
	}
	return docs, cursor.Err()
}

func (r *SavedPostRepo) Create(ctx context.Context, saved *models.SavedPost) error {
	res, err := r.col.InsertOne(ctx, saved)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		saved.ID = id
	}
	return nil
}

// CompareAndSwapItems replaces the item list iff the document still carries
// expectedRevision, bumping the revision on success. Returns false when
// another writer got there first.
func (r *SavedPostRepo) CompareAndSwapItems(ctx context.Context, docID primitive.ObjectID, items []models.SavedItem, expectedRevision int64) (bool, error) {
	if items == nil {
		items = []models.SavedItem{}
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": docID, "revision": expectedRevision},
		bson.M{"$set": bson.M{"items": items}, "$inc": bson.M{"revision": 1}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *SavedPostRepo) Delete(ctx context.Context, docID primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": docID})
	return err
}
