package domain

import "time"

// Course is a user-owned course. When Provider and RemoteID are set the
// course is linked to an LMS course and sync keeps its link list current;
// name, code and term stay user-owned after creation.
type Course struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	UserID    string     `json:"user_id" gorm:"index;not null"`
	Name      string     `json:"name" gorm:"not null"`
	Code      string     `json:"code,omitempty"`
	Term      string     `json:"term,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Links     LinkList   `json:"links" gorm:"type:jsonb"`

	// Provider linkage; empty for purely user-created courses
	Provider string `json:"provider,omitempty" gorm:"index:idx_course_link"`
	RemoteID string `json:"remote_id,omitempty" gorm:"index:idx_course_link"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) Linked() bool {
	return c.Provider != "" && c.RemoteID != ""
}
