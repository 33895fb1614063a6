package repository

import (
	"errors"
	"time"

	"studydash-backend/internal/course/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormCourseRepository implements CourseRepository using GORM
type gormCourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &gormCourseRepository{db: db}
}

func (r *gormCourseRepository) Create(course *domain.Course) error {
	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	course.CreatedAt = time.Now()
	course.UpdatedAt = time.Now()
	return r.db.Create(course).Error
}

func (r *gormCourseRepository) FindByID(id string) (*domain.Course, error) {
	var course domain.Course
	err := r.db.Where("id = ?", id).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (r *gormCourseRepository) FindByUserID(userID string) ([]*domain.Course, error) {
	var courses []*domain.Course
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&courses).Error
	return courses, err
}

func (r *gormCourseRepository) Update(course *domain.Course) error {
	course.UpdatedAt = time.Now()
	return r.db.Save(course).Error
}

func (r *gormCourseRepository) Delete(id string) error {
	return r.db.Delete(&domain.Course{}, "id = ?", id).Error
}

func (r *gormCourseRepository) FindByProviderLink(userID, provider, remoteID string) (*domain.Course, error) {
	var course domain.Course
	err := r.db.Where("user_id = ? AND provider = ? AND remote_id = ?", userID, provider, remoteID).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (r *gormCourseRepository) FindLinkedByProvider(userID, provider string) ([]*domain.Course, error) {
	var courses []*domain.Course
	err := r.db.Where("user_id = ? AND provider = ? AND remote_id <> ''", userID, provider).Find(&courses).Error
	return courses, err
}
