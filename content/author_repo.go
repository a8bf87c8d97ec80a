package content

import (
	"context"
	"errors"
	"time"

	"github.com/Kratospidey/gbs-sub000/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AuthorRepo struct {
	col *mongo.Collection
}

func NewAuthorRepo(col *mongo.Collection) *AuthorRepo {
	return &AuthorRepo{col}
}

func (r *AuthorRepo) findOne(ctx context.Context, filter bson.M) (*models.Author, error) {
	var author models.Author
	err := r.col.FindOne(ctx, filter).Decode(&author)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// FindByUserID resolves an author by its identity-provider user id, the
// primary correlation key. Returns nil when no author matches.
func (r *AuthorRepo) FindByUserID(ctx context.Context, userID string) (*models.Author, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

// FindByName is the legacy-name migration fallback: documents created
// before id-keyed lookup are matched by display name.
func (r *AuthorRepo) FindByName(ctx context.Context, name string) (*models.Author, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

// FindBySlug resolves an author by URL handle.
func (r *AuthorRepo) FindBySlug(ctx context.Context, slug string) (*models.Author, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *AuthorRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Author, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByIDs returns the matching authors keyed by document id.
func (r *AuthorRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Author, error) {
	byID := make(map[primitive.ObjectID]*models.Author, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var author models.Author
		if err := cursor.Decode(&author); err != nil {
			return nil, err
		}
		byID[author.ID] = &author
	}
	return byID, cursor.Err()
}

func (r *AuthorRepo) Create(ctx context.Context, author *models.Author) error {
	if author.CreatedAt.IsZero() {
		author.CreatedAt = time.Now()
	}
	res, err := r.col.InsertOne(ctx, author)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		author.ID = id
	}
	return nil
}

// SetUserID rebinds a legacy author document to an identity-provider user
// id. Name and every other field stay untouched.
func (r *AuthorRepo) SetUserID(ctx context.Context, authorID primitive.ObjectID, userID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": authorID}, bson.M{"$set": bson.M{"userId": userID}})
	return err
}

// UpdateFields applies a partial update to an author document.
func (r *AuthorRepo) UpdateFields(ctx context.Context, authorID primitive.ObjectID, fields bson.M) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": authorID}, bson.M{"$set": fields})
	return err
}

func (r *AuthorRepo) Delete(ctx context.Context, authorID primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": authorID})
	return err
}
