package domain

import "time"

// CalendarEvent is a dated entry on the user's calendar. Start, end and
// location are provider-owned for linked events; the title stays with
// the user once the event exists.
type CalendarEvent struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	UserID      string     `json:"user_id" gorm:"index;not null"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Location    string     `json:"location,omitempty"`

	// Provider linkage; empty for purely user-created events
	Provider string `json:"provider,omitempty" gorm:"index:idx_event_link"`
	RemoteID string `json:"remote_id,omitempty" gorm:"index:idx_event_link"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *CalendarEvent) Linked() bool {
	return e.Provider != "" && e.RemoteID != ""
}
