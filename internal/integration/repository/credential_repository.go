package repository

import (
	"errors"
	"time"

	"studydash-backend/internal/integration/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CredentialRepository persists provider connection records. Secret
// columns are ciphertext by the time they reach this layer.
type CredentialRepository interface {
	Create(cred *domain.Credential) error
	FindByID(id string) (*domain.Credential, error)
	FindByUserAndProvider(userID, provider string) (*domain.Credential, error)
	ListByUser(userID string) ([]*domain.Credential, error)
	Update(cred *domain.Credential) error
	UpdateToken(id, accessToken, refreshToken string, expiry time.Time) error
	UpdateLastSynced(id string, at time.Time) error
	Delete(id string) error
}

// gormCredentialRepository implements CredentialRepository using GORM
type gormCredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &gormCredentialRepository{db: db}
}

func (r *gormCredentialRepository) Create(cred *domain.Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}
	cred.CreatedAt = time.Now()
	cred.UpdatedAt = time.Now()
	return r.db.Create(cred).Error
}

func (r *gormCredentialRepository) FindByID(id string) (*domain.Credential, error) {
	var cred domain.Credential
	err := r.db.Where("id = ?", id).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (r *gormCredentialRepository) FindByUserAndProvider(userID, provider string) (*domain.Credential, error) {
	var cred domain.Credential
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (r *gormCredentialRepository) ListByUser(userID string) ([]*domain.Credential, error) {
	var creds []*domain.Credential
	err := r.db.Where("user_id = ?", userID).Order("provider ASC").Find(&creds).Error
	return creds, err
}

func (r *gormCredentialRepository) Update(cred *domain.Credential) error {
	cred.UpdatedAt = time.Now()
	return r.db.Save(cred).Error
}

func (r *gormCredentialRepository) UpdateToken(id, accessToken, refreshToken string, expiry time.Time) error {
	return r.db.Model(&domain.Credential{}).Where("id = ?", id).Updates(map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_expiry":  expiry,
		"updated_at":    time.Now(),
	}).Error
}

func (r *gormCredentialRepository) UpdateLastSynced(id string, at time.Time) error {
	return r.db.Model(&domain.Credential{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_synced_at": at,
		"updated_at":     time.Now(),
	}).Error
}

func (r *gormCredentialRepository) Delete(id string) error {
	return r.db.Delete(&domain.Credential{}, "id = ?", id).Error
}
