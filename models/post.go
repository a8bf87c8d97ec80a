package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostStatus is the post lifecycle state.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPending   PostStatus = "pending"
	StatusPublished PostStatus = "published"
	StatusArchived  PostStatus = "archived"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s PostStatus) bool {
	switch s {
	case StatusDraft, StatusPending, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// PostFilter narrows a post listing. Zero values mean "no constraint".
type PostFilter struct {
	Status   PostStatus
	Tag      string
	AuthorID primitive.ObjectID
	SortAsc  bool
}

// Post is a content-store document. Slug is unique and derived from the
// title; AuthorID references the Author document. Only the referenced
// author may mutate or delete a post, enforced by query predicate at
// mutation time.
type Post struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title        string             `json:"title" bson:"title"`
	Slug         string             `json:"slug" bson:"slug"`
	Body         string             `json:"body" bson:"body"`
	AuthorID     primitive.ObjectID `json:"authorId" bson:"authorId"`
	MainImageURL string             `json:"mainImageUrl,omitempty" bson:"mainImageUrl,omitempty"`
	PublishedAt  time.Time          `json:"publishedAt" bson:"publishedAt"`
	Tags         []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	Status       PostStatus         `json:"status" bson:"status"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}
