package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Author is the content-store document representing a post's writer. It is
// correlated with the identity provider through UserID; legacy documents
// created before id-keyed lookup may carry an empty UserID and are matched
// by Name instead.
type Author struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Name      string             `json:"name" bson:"name"`
	Slug      string             `json:"slug" bson:"slug"`
	FirstName string             `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName  string             `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Bio       string             `json:"bio,omitempty" bson:"bio,omitempty"`
	AvatarURL string             `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
	Github    string             `json:"github,omitempty" bson:"github,omitempty"`
	Linkedin  string             `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
	Website   string             `json:"website,omitempty" bson:"website,omitempty"`
	Email     string             `json:"email,omitempty" bson:"email,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
