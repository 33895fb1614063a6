package domain

import "time"

// CategoryResult aggregates one category of a run. Item failures append
// to Errors without aborting the category.
type CategoryResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}

// SyncResult is the per-run outcome returned to the caller. It is never
// persisted; callers render "N synced, M failed" from it rather than a
// binary success flag.
type SyncResult struct {
	Provider   string    `json:"provider"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// AuthFailed marks a run stopped by a credential failure; the
	// caller maps it to an unauthorized response
	AuthFailed bool `json:"auth_failed,omitempty"`

	Courses       CategoryResult `json:"courses"`
	Assignments   CategoryResult `json:"assignments"`
	Grades        CategoryResult `json:"grades"`
	Events        CategoryResult `json:"events"`
	Announcements CategoryResult `json:"announcements"`
}

// TotalCreated sums created counts across categories
func (r *SyncResult) TotalCreated() int {
	return r.Courses.Created + r.Assignments.Created + r.Grades.Created + r.Events.Created + r.Announcements.Created
}

// TotalErrors sums error counts across categories
func (r *SyncResult) TotalErrors() int {
	return len(r.Courses.Errors) + len(r.Assignments.Errors) + len(r.Grades.Errors) + len(r.Events.Errors) + len(r.Announcements.Errors)
}
