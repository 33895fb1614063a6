package repository

import (
	"errors"
	"time"

	"studydash-backend/internal/course/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormEventRepository implements EventRepository using GORM
type gormEventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &gormEventRepository{db: db}
}

func (r *gormEventRepository) Create(event *domain.CalendarEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	return r.db.Create(event).Error
}

func (r *gormEventRepository) FindByID(id string) (*domain.CalendarEvent, error) {
	var event domain.CalendarEvent
	err := r.db.Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *gormEventRepository) FindByUserID(userID string, from, to *time.Time) ([]*domain.CalendarEvent, error) {
	query := r.db.Where("user_id = ?", userID)
	if from != nil {
		query = query.Where("starts_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("starts_at < ?", *to)
	}

	var events []*domain.CalendarEvent
	err := query.Order("starts_at ASC").Find(&events).Error
	return events, err
}

func (r *gormEventRepository) Update(event *domain.CalendarEvent) error {
	event.UpdatedAt = time.Now()
	return r.db.Save(event).Error
}

func (r *gormEventRepository) Delete(id string) error {
	return r.db.Delete(&domain.CalendarEvent{}, "id = ?", id).Error
}

func (r *gormEventRepository) FindByProviderLink(userID, provider, remoteID string) (*domain.CalendarEvent, error) {
	var event domain.CalendarEvent
	err := r.db.Where("user_id = ? AND provider = ? AND remote_id = ?", userID, provider, remoteID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}
