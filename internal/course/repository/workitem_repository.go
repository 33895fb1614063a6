package repository

import (
	"errors"
	"time"

	"studydash-backend/internal/course/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormWorkItemRepository implements WorkItemRepository using GORM
type gormWorkItemRepository struct {
	db *gorm.DB
}

func NewWorkItemRepository(db *gorm.DB) WorkItemRepository {
	return &gormWorkItemRepository{db: db}
}

func (r *gormWorkItemRepository) Create(item *domain.WorkItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	return r.db.Create(item).Error
}

func (r *gormWorkItemRepository) FindByID(id string) (*domain.WorkItem, error) {
	var item domain.WorkItem
	err := r.db.Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *gormWorkItemRepository) FindByUserID(userID string, status *domain.WorkItemStatus) ([]*domain.WorkItem, error) {
	query := r.db.Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var items []*domain.WorkItem
	// Due date ascending with undated items last
	err := query.Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, created_at DESC").Find(&items).Error
	return items, err
}

func (r *gormWorkItemRepository) Update(item *domain.WorkItem) error {
	item.UpdatedAt = time.Now()
	return r.db.Save(item).Error
}

func (r *gormWorkItemRepository) Delete(id string) error {
	return r.db.Delete(&domain.WorkItem{}, "id = ?", id).Error
}

func (r *gormWorkItemRepository) FindByProviderLink(userID, provider, remoteID string) (*domain.WorkItem, error) {
	var item domain.WorkItem
	err := r.db.Where("user_id = ? AND provider = ? AND remote_id = ?", userID, provider, remoteID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *gormWorkItemRepository) FindDueBetween(from, to time.Time) ([]*domain.WorkItem, error) {
	var items []*domain.WorkItem
	err := r.db.Where("due_date >= ? AND due_date < ? AND status != ?",
		from, to, domain.WorkItemStatusCompleted).Find(&items).Error
	return items, err
}
