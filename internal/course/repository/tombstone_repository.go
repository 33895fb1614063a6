package repository

import (
	"time"

	"studydash-backend/internal/course/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormTombstoneRepository implements TombstoneRepository using GORM
type gormTombstoneRepository struct {
	db *gorm.DB
}

func NewTombstoneRepository(db *gorm.DB) TombstoneRepository {
	return &gormTombstoneRepository{db: db}
}

func (r *gormTombstoneRepository) Create(tombstone *domain.Tombstone) error {
	if tombstone.ID == "" {
		tombstone.ID = uuid.New().String()
	}
	tombstone.CreatedAt = time.Now()
	// The key is unique; re-deleting a recreated item must not fail
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(tombstone).Error
}

func (r *gormTombstoneRepository) RemoteIDs(userID, provider string, category domain.TombstoneCategory) (map[string]bool, error) {
	var remoteIDs []string
	err := r.db.Model(&domain.Tombstone{}).
		Where("user_id = ? AND provider = ? AND category = ?", userID, provider, category).
		Pluck("remote_id", &remoteIDs).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(remoteIDs))
	for _, id := range remoteIDs {
		set[id] = true
	}
	return set, nil
}
