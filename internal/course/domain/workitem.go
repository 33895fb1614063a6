package domain

import "time"

// WorkItemType classifies a work item
type WorkItemType string

const (
	WorkItemAssignment WorkItemType = "assignment"
	WorkItemReading    WorkItemType = "reading"
	WorkItemProject    WorkItemType = "project"
)

// WorkItemStatus represents the current state of a work item
type WorkItemStatus string

const (
	WorkItemStatusPending    WorkItemStatus = "pending"
	WorkItemStatusInProgress WorkItemStatus = "in_progress"
	WorkItemStatusCompleted  WorkItemStatus = "completed"
)

// WorkItem is an assignment, reading or project. Title and type are
// user-owned after creation; due date, points and grade fields are
// overwritten by sync when the item is provider-linked.
//
// Notes are stored as two separate columns. UserNotes belongs to the
// human and is never touched by sync; ProviderNotes is replaced on every
// run. The combined marker-delimited blob is rendered only at the API
// boundary.
type WorkItem struct {
	ID       string         `json:"id" gorm:"primaryKey"`
	UserID   string         `json:"user_id" gorm:"index;not null"`
	CourseID string         `json:"course_id" gorm:"index"`
	Title    string         `json:"title" gorm:"not null"`
	Type     WorkItemType   `json:"type" gorm:"default:assignment"`
	Status   WorkItemStatus `json:"status" gorm:"default:pending"`

	DueDate        *time.Time `json:"due_date,omitempty"`
	PointsPossible *float64   `json:"points_possible,omitempty"`
	Score          *float64   `json:"score,omitempty"`
	GradedAt       *time.Time `json:"graded_at,omitempty"`

	UserNotes     string   `json:"-"`
	ProviderNotes string   `json:"-"`
	Links         LinkList `json:"links" gorm:"type:jsonb"`

	// Provider linkage; empty for purely user-created items
	Provider string `json:"provider,omitempty" gorm:"index:idx_work_item_link"`
	RemoteID string `json:"remote_id,omitempty" gorm:"index:idx_work_item_link"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *WorkItem) Linked() bool {
	return w.Provider != "" && w.RemoteID != ""
}
