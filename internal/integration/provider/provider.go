// Package provider implements one client per LMS, all exposing the same
// fetch interface over each provider's REST dialect. Clients classify
// HTTP 401 as an auth failure and everything else non-2xx as a provider
// failure; they never retry. Retry policy belongs to the orchestrator.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studydash-backend/internal/integration/domain"

	"golang.org/x/oauth2"
)

// Known provider names
const (
	Canvas      = "canvas"
	Blackboard  = "blackboard"
	Brightspace = "brightspace"
	Moodle      = "moodle"
)

// GrantInput carries the decrypted credential material a token grant
// needs. Only the vault builds one.
type GrantInput struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// GrantResult is a freshly obtained token
type GrantResult struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Adapter is the uniform fetch interface over one LMS
type Adapter interface {
	Name() string
	DisplayName() string

	// Refresh runs the provider's token grant (client-credentials or
	// refresh-token, provider-specific) and returns a fresh token
	Refresh(ctx context.Context, in GrantInput) (*GrantResult, error)

	ListCourses(ctx context.Context, token string) ([]domain.RemoteCourse, error)
	ListAssignments(ctx context.Context, token, courseID string) ([]domain.RemoteAssignment, error)

	// HasGradeFeed reports whether grades arrive through a separate
	// call instead of inline with the assignments
	HasGradeFeed() bool
	ListGrades(ctx context.Context, token, courseID string) ([]domain.RemoteGrade, error)

	ListEvents(ctx context.Context, token string, from, to time.Time) ([]domain.RemoteEvent, error)
	ListAnnouncements(ctx context.Context, token string, courseIDs []string, since time.Time) ([]domain.RemoteAnnouncement, error)
}

// New builds the adapter for a provider name against a base URL
func New(name, baseURL string) (Adapter, error) {
	switch name {
	case Canvas:
		return newCanvas(baseURL)
	case Blackboard:
		return newBlackboard(baseURL)
	case Brightspace:
		return newBrightspace(baseURL)
	case Moodle:
		return newMoodle(baseURL)
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// Known reports whether name is a supported provider
func Known(name string) bool {
	switch name {
	case Canvas, Blackboard, Brightspace, Moodle:
		return true
	}
	return false
}

// DisplayName returns the human-readable provider name
func DisplayName(name string) string {
	switch name {
	case Canvas:
		return "Canvas"
	case Blackboard:
		return "Blackboard"
	case Brightspace:
		return "Brightspace"
	case Moodle:
		return "Moodle"
	}
	return name
}

// classifyOAuthError maps oauth2 token-endpoint failures: 400/401 from
// the endpoint means the grant itself is bad (invalid_grant, revoked
// client) and requires user action.
func classifyOAuthError(name string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		if status == 400 || status == 401 {
			return &domain.AuthError{Provider: name, Err: err}
		}
		return &domain.ProviderError{Provider: name, StatusCode: status, Err: err}
	}
	return &domain.ProviderError{Provider: name, Err: err}
}
