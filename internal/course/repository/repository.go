package repository

import (
	"time"

	"studydash-backend/internal/course/domain"
)

// CourseRepository defines the interface for course data access
type CourseRepository interface {
	Create(course *domain.Course) error
	FindByID(id string) (*domain.Course, error)
	FindByUserID(userID string) ([]*domain.Course, error)
	Update(course *domain.Course) error
	Delete(id string) error

	// FindByProviderLink resolves the idempotence key (user, provider,
	// remote id). Returns nil when no linked course exists.
	FindByProviderLink(userID, provider, remoteID string) (*domain.Course, error)

	// FindLinkedByProvider lists every course of the user linked to the
	// given provider, used to rebuild the id map when the courses
	// category is skipped.
	FindLinkedByProvider(userID, provider string) ([]*domain.Course, error)
}

// WorkItemRepository defines the interface for work item data access
type WorkItemRepository interface {
	Create(item *domain.WorkItem) error
	FindByID(id string) (*domain.WorkItem, error)
	FindByUserID(userID string, status *domain.WorkItemStatus) ([]*domain.WorkItem, error)
	Update(item *domain.WorkItem) error
	Delete(id string) error

	FindByProviderLink(userID, provider, remoteID string) (*domain.WorkItem, error)

	// FindDueBetween lists not-completed items with a due date inside
	// [from, to), for the reminder scheduler.
	FindDueBetween(from, to time.Time) ([]*domain.WorkItem, error)
}

// EventRepository defines the interface for calendar event data access
type EventRepository interface {
	Create(event *domain.CalendarEvent) error
	FindByID(id string) (*domain.CalendarEvent, error)
	FindByUserID(userID string, from, to *time.Time) ([]*domain.CalendarEvent, error)
	Update(event *domain.CalendarEvent) error
	Delete(id string) error

	FindByProviderLink(userID, provider, remoteID string) (*domain.CalendarEvent, error)
}

// TombstoneRepository defines the interface for deletion tombstones
type TombstoneRepository interface {
	// Create records a tombstone; recording the same key twice is a no-op
	Create(tombstone *domain.Tombstone) error

	// RemoteIDs returns the set of tombstoned remote ids for one
	// user/provider/category
	RemoteIDs(userID, provider string, category domain.TombstoneCategory) (map[string]bool, error)
}
