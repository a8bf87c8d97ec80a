package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SavedItem is one bookmarked post inside a SavedPost document. Key is a
// fresh uuid per item; PostID is a weak reference and does not block post
// deletion.
type SavedItem struct {
	Key     string             `json:"key" bson:"key"`
	PostID  primitive.ObjectID `json:"postId" bson:"postId"`
	SavedAt time.Time          `json:"savedAt" bson:"savedAt"`
}

// SavedPost holds a user's bookmarks. At most one document exists per
// identity-provider user id, and Items never contains two entries for the
// same post. Revision is the optimistic-concurrency token bumped on every
// committed item-list change.
type SavedPost struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID   string             `json:"userId" bson:"userId"`
	Items    []SavedItem        `json:"items" bson:"items"`
	Revision int64              `json:"revision" bson:"revision"`
}

// Contains reports whether the item list references postID.
func (s *SavedPost) Contains(postID primitive.ObjectID) bool {
	for _, item := range s.Items {
		if item.PostID == postID {
			return true
		}
	}
	return false
}
