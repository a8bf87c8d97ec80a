package database

import (
	"context"
	"errors"
	"time"

	"github.com/Kratospidey/gbs-sub000/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) *ProfileRepo {
	return &ProfileRepo{db}
}

// FindByUserID returns the profile row for an identity-provider user id,
// or nil when no row exists.
func (r *ProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByUserIDs returns the profile rows for a set of user ids, keyed by
// user id. Missing rows are simply absent from the map.
func (r *ProfileRepo) FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*models.Profile, error) {
	byID := make(map[string]*models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return byID, nil
	}

	var profiles []*models.Profile
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		byID[p.UserID] = p
	}
	return byID, nil
}

// Upsert inserts the profile row or updates it in place when a row with the
// same user id already exists.
func (r *ProfileRepo) Upsert(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = profile.UpdatedAt
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"first_name", "last_name", "bio", "avatar_url", "links", "updated_at",
		}),
	}).Create(profile).Error
}

// Delete removes the profile row for a user. Deleting a missing row is not
// an error.
func (r *ProfileRepo) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Profile{}).Error
}
