package content

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Kratospidey/gbs-sub000/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostRepo struct {
	col *mongo.Collection
}

func NewPostRepo(col *mongo.Collection) *PostRepo {
	return &PostRepo{col}
}

func (r *PostRepo) findOne(ctx context.Context, filter bson.M) (*models.Post, error) {
	var post models.Post
	err := r.col.FindOne(ctx, filter).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *PostRepo) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

// FindOwned fetches a post filtered by both id and author reference. A nil
// result covers "does not exist" and "exists but not yours" alike; callers
// must not distinguish the two.
func (r *PostRepo) FindOwned(ctx context.Context, postID, authorID primitive.ObjectID) (*models.Post, error) {
	return r.findOne(ctx, bson.M{"_id": postID, "authorId": authorID})
}

// SlugExists reports whether any post other than excludeID already uses
// slug. Pass primitive.NilObjectID to check against all posts.
func (r *PostRepo) SlugExists(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"slug": slug}
	if excludeID != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	count, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns posts matching the filter ordered by publish timestamp,
// descending unless SortAsc is set. Tag matching is a case-insensitive
// exact match against the tag list; legacy documents may hold
// inconsistently-cased tags.
func (r *PostRepo) List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Tag != "" {
		query["tags"] = bson.M{"$regex": "^" + regexp.QuoteMeta(filter.Tag) + "$", "$options": "i"}
	}
	if filter.AuthorID != primitive.NilObjectID {
		query["authorId"] = filter.AuthorID
	}

	order := -1
	if filter.SortAsc {
		order = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: order}})

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []*models.Post
	for cursor.Next(ctx) {
		var post models.Post
		if err := cursor.Decode(&post); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, cursor.Err()
}

// IDsByAuthor returns the ids of every post authored by authorID,
// regardless of status.
func (r *PostRepo) IDsByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.col.Find(ctx, bson.M{"authorId": authorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (r *PostRepo) Create(ctx context.Context, post *models.Post) error {
	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	res, err := r.col.InsertOne(ctx, post)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		post.ID = id
	}
	return nil
}

// UpdateFields applies a partial update and bumps updatedAt.
func (r *PostRepo) UpdateFields(ctx context.Context, postID primitive.ObjectID, fields bson.M) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updatedAt"] = time.Now()
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$set": fields})
	return err
}

func (r *PostRepo) Delete(ctx context.Context, postID primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": postID})
	return err
}
