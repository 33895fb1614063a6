package domain

import "time"

// Credential is the per-user, per-provider connection record. Every
// secret column holds ciphertext; only the vault reads or writes them.
// The row is created when the user connects a provider and deleted on
// disconnect. Local entities and tombstones survive disconnects.
type Credential struct {
	ID       string `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"uniqueIndex:idx_credential_key;not null"`
	Provider string `json:"provider" gorm:"uniqueIndex:idx_credential_key;not null"`
	BaseURL  string `json:"base_url" gorm:"not null"`

	// Encrypted at rest
	ClientID     string `json:"-"`
	ClientSecret string `json:"-"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`

	// Zero value means the expiry is unknown and the token must be
	// refreshed before use
	TokenExpiry time.Time `json:"token_expiry"`

	SyncEnabled       bool `json:"sync_enabled" gorm:"default:true"`
	SyncCourses       bool `json:"sync_courses" gorm:"default:true"`
	SyncAssignments   bool `json:"sync_assignments" gorm:"default:true"`
	SyncGrades        bool `json:"sync_grades" gorm:"default:true"`
	SyncEvents        bool `json:"sync_events" gorm:"default:true"`
	SyncAnnouncements bool `json:"sync_announcements" gorm:"default:true"`

	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CategoryToggles overrides the saved per-category preferences for a
// single run. Nil fields fall back to the credential's saved toggles.
type CategoryToggles struct {
	Courses       *bool `json:"courses,omitempty"`
	Assignments   *bool `json:"assignments,omitempty"`
	Grades        *bool `json:"grades,omitempty"`
	Events        *bool `json:"events,omitempty"`
	Announcements *bool `json:"announcements,omitempty"`
}

// Effective resolves the toggles for a run
func (t *CategoryToggles) Effective(cred *Credential) (courses, assignments, grades, events, announcements bool) {
	courses = cred.SyncCourses
	assignments = cred.SyncAssignments
	grades = cred.SyncGrades
	events = cred.SyncEvents
	announcements = cred.SyncAnnouncements

	if t == nil {
		return
	}
	if t.Courses != nil {
		courses = *t.Courses
	}
	if t.Assignments != nil {
		assignments = *t.Assignments
	}
	if t.Grades != nil {
		grades = *t.Grades
	}
	if t.Events != nil {
		events = *t.Events
	}
	if t.Announcements != nil {
		announcements = *t.Announcements
	}
	return
}
