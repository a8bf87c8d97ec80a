package models

import (
	"time"

	"gorm.io/datatypes"
)

// SocialLinks is the JSON payload stored in the profiles.links column.
type SocialLinks struct {
	Github   string `json:"github,omitempty"`
	Linkedin string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Profile is the relational-store row holding extended user fields. It is
// keyed by the identity-provider user id and duplicates a subset of Author
// fields; the two are kept loosely in sync with no strong consistency
// guarantee.
type Profile struct {
	UserID    string         `json:"userId" db:"user_id" gorm:"column:user_id;primaryKey;type:text;not null"`
	FirstName string         `json:"firstName" db:"first_name" gorm:"column:first_name;type:text"`
	LastName  string         `json:"lastName" db:"last_name" gorm:"column:last_name;type:text"`
	Bio       string         `json:"bio" db:"bio" gorm:"column:bio;type:text"`
	AvatarURL string         `json:"avatarUrl" db:"avatar_url" gorm:"column:avatar_url;type:text"`
	Links     datatypes.JSON `json:"links" db:"links" gorm:"column:links;type:jsonb"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at" gorm:"column:created_at;type:timestamp;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `json:"updatedAt" db:"updated_at" gorm:"column:updated_at;type:timestamp;not null;default:CURRENT_TIMESTAMP"`
}

// TableName keeps the table name stable regardless of gorm pluralization.
func (Profile) TableName() string {
	return "profiles"
}
