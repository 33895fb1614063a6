package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for notification data access
type Repository interface {
	Create(n *Notification) error
	FindByUserID(userID string, unreadOnly bool) ([]*Notification, error)
	HasUnreadByType(userID, ntype, provider string) (bool, error)
	ExistsByRemote(userID, provider, remoteID, category string) (bool, error)
	MarkRead(userID, id string) error
}

// gormRepository implements Repository using GORM
type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now()
	n.UpdatedAt = time.Now()
	return r.db.Create(n).Error
}

func (r *gormRepository) FindByUserID(userID string, unreadOnly bool) ([]*Notification, error) {
	query := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []*Notification
	err := query.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (r *gormRepository) HasUnreadByType(userID, ntype, provider string) (bool, error) {
	var n Notification
	query := r.db.Where("user_id = ? AND type = ? AND is_read = ?", userID, ntype, false)
	if provider != "" {
		query = query.Where("provider = ?", provider)
	}
	err := query.First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *gormRepository) ExistsByRemote(userID, provider, remoteID, category string) (bool, error) {
	var n Notification
	err := r.db.Where("user_id = ? AND provider = ? AND remote_id = ? AND category = ?",
		userID, provider, remoteID, category).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *gormRepository) MarkRead(userID, id string) error {
	return r.db.Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "updated_at": time.Now()}).Error
}
