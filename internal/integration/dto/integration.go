package dto

import "studydash-backend/internal/integration/domain"

// ConnectRequest carries the credential material for a new provider
// connection. Moodle connections send only the base URL and a web
// service token in AccessToken; OAuth providers send client credentials
// plus at least one token.
type ConnectRequest struct {
	BaseURL      string `json:"base_url" binding:"required"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UpdateSettingsRequest patches the sync toggles of a connection. Nil
// fields are left unchanged.
type UpdateSettingsRequest struct {
	SyncEnabled       *bool `json:"sync_enabled,omitempty"`
	SyncCourses       *bool `json:"sync_courses,omitempty"`
	SyncAssignments   *bool `json:"sync_assignments,omitempty"`
	SyncGrades        *bool `json:"sync_grades,omitempty"`
	SyncEvents        *bool `json:"sync_events,omitempty"`
	SyncAnnouncements *bool `json:"sync_announcements,omitempty"`
}

// SyncRequest optionally narrows a manual run to some categories
type SyncRequest struct {
	Categories *domain.CategoryToggles `json:"categories,omitempty"`
}
