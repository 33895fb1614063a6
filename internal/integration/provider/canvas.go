package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studydash-backend/internal/integration/domain"

	"golang.org/x/oauth2"
)

// canvasAdapter speaks the Canvas REST dialect: bearer tokens, Link
// header pagination, refresh-token grant against the instance itself.
type canvasAdapter struct {
	client *Client
}

func newCanvas(baseURL string) (*canvasAdapter, error) {
	client, err := NewClient(Canvas, baseURL)
	if err != nil {
		return nil, err
	}
	return &canvasAdapter{client: client}, nil
}

func (a *canvasAdapter) Name() string        { return Canvas }
func (a *canvasAdapter) DisplayName() string { return "Canvas" }
func (a *canvasAdapter) HasGradeFeed() bool  { return true }

func (a *canvasAdapter) Refresh(ctx context.Context, in GrantInput) (*GrantResult, error) {
	conf := &oauth2.Config{
		ClientID:     in.ClientID,
		ClientSecret: in.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: a.client.BaseURL + "/login/oauth2/token"},
	}

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: in.RefreshToken}).Token()
	if err != nil {
		return nil, classifyOAuthError(Canvas, err)
	}

	result := &GrantResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	// Canvas only rotates the refresh token occasionally; keep the old
	// one when the response omits it
	if result.RefreshToken == "" {
		result.RefreshToken = in.RefreshToken
	}
	return result, nil
}

// canvasPages follows the Link header rel="next" chain until exhausted
func canvasPages[T any](ctx context.Context, c *Client, token, path string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", "100")

	var all []T
	next := ""
	for {
		var page []T
		var header http.Header
		var err error
		if next == "" {
			header, err = c.GetJSON(ctx, path, query, bearerHeader(token), &page)
		} else {
			header, err = c.GetJSONAbsolute(ctx, next, bearerHeader(token), &page)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		next = nextLinkURL(header.Get("Link"))
		if next == "" {
			return all, nil
		}
	}
}

// nextLinkURL extracts the rel="next" target from an RFC 5988 Link header
func nextLinkURL(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if !strings.Contains(section[1], `rel="next"`) {
			continue
		}
		target := strings.TrimSpace(section[0])
		return strings.Trim(target, "<>")
	}
	return ""
}

type canvasCourse struct {
	ID         json.Number `json:"id"`
	Name       string      `json:"name"`
	CourseCode string      `json:"course_code"`
	StartAt    *time.Time  `json:"start_at"`
	EndAt      *time.Time  `json:"end_at"`
}

func (a *canvasAdapter) ListCourses(ctx context.Context, token string) ([]domain.RemoteCourse, error) {
	query := url.Values{}
	query.Set("enrollment_state", "active")

	raw, err := canvasPages[canvasCourse](ctx, a.client, token, "/api/v1/courses", query)
	if err != nil {
		return nil, err
	}

	courses := make([]domain.RemoteCourse, 0, len(raw))
	for _, c := range raw {
		courses = append(courses, domain.RemoteCourse{
			ID:       c.ID.String(),
			Name:     c.Name,
			Code:     c.CourseCode,
			URL:      fmt.Sprintf("%s/courses/%s", a.client.BaseURL, c.ID),
			StartsAt: c.StartAt,
			EndsAt:   c.EndAt,
		})
	}
	return courses, nil
}

type canvasAssignment struct {
	ID             json.Number `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	DueAt          *time.Time  `json:"due_at"`
	PointsPossible *float64    `json:"points_possible"`
	HTMLURL        string      `json:"html_url"`
	Submission     *struct {
		SubmittedAt *time.Time `json:"submitted_at"`
		Score       *float64   `json:"score"`
		GradedAt    *time.Time `json:"graded_at"`
	} `json:"submission"`
}

func (a *canvasAdapter) ListAssignments(ctx context.Context, token, courseID string) ([]domain.RemoteAssignment, error) {
	query := url.Values{}
	query.Set("include[]", "submission")

	raw, err := canvasPages[canvasAssignment](ctx, a.client, token, "/api/v1/courses/"+courseID+"/assignments", query)
	if err != nil {
		return nil, err
	}

	assignments := make([]domain.RemoteAssignment, 0, len(raw))
	for _, item := range raw {
		assignment := domain.RemoteAssignment{
			ID:              item.ID.String(),
			Name:            item.Name,
			DescriptionHTML: item.Description,
			URL:             item.HTMLURL,
			DueAt:           item.DueAt,
			PointsPossible:  item.PointsPossible,
		}
		if item.Submission != nil {
			assignment.Submitted = item.Submission.SubmittedAt != nil
			assignment.Score = item.Submission.Score
			assignment.GradedAt = item.Submission.GradedAt
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

type canvasSubmission struct {
	ID           json.Number `json:"id"`
	AssignmentID json.Number `json:"assignment_id"`
	Score        *float64    `json:"score"`
	GradedAt     *time.Time  `json:"graded_at"`
	Attempt      int         `json:"attempt"`
}

func (a *canvasAdapter) ListGrades(ctx context.Context, token, courseID string) ([]domain.RemoteGrade, error) {
	query := url.Values{}
	query.Set("student_ids[]", "self")

	raw, err := canvasPages[canvasSubmission](ctx, a.client, token, "/api/v1/courses/"+courseID+"/students/submissions", query)
	if err != nil {
		return nil, err
	}

	grades := make([]domain.RemoteGrade, 0, len(raw))
	for _, s := range raw {
		grades = append(grades, domain.RemoteGrade{
			AssignmentID: s.AssignmentID.String(),
			Score:        s.Score,
			GradedAt:     s.GradedAt,
			SubmissionID: s.ID.String(),
			Attempt:      s.Attempt,
		})
	}
	return grades, nil
}

type canvasEvent struct {
	ID           json.Number `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	StartAt      *time.Time  `json:"start_at"`
	EndAt        *time.Time  `json:"end_at"`
	LocationName string      `json:"location_name"`
}

func (a *canvasAdapter) ListEvents(ctx context.Context, token string, from, to time.Time) ([]domain.RemoteEvent, error) {
	query := url.Values{}
	query.Set("type", "event")
	query.Set("start_date", from.Format("2006-01-02"))
	query.Set("end_date", to.Format("2006-01-02"))
	query.Set("all_events", "false")

	raw, err := canvasPages[canvasEvent](ctx, a.client, token, "/api/v1/calendar_events", query)
	if err != nil {
		return nil, err
	}

	events := make([]domain.RemoteEvent, 0, len(raw))
	for _, e := range raw {
		if e.StartAt == nil {
			continue
		}
		events = append(events, domain.RemoteEvent{
			ID:              e.ID.String(),
			Title:           e.Title,
			DescriptionHTML: e.Description,
			StartsAt:        *e.StartAt,
			EndsAt:          e.EndAt,
			Location:        e.LocationName,
		})
	}
	return events, nil
}

type canvasAnnouncement struct {
	ID       json.Number `json:"id"`
	Title    string      `json:"title"`
	Message  string      `json:"message"`
	PostedAt *time.Time  `json:"posted_at"`
	Author   struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

func (a *canvasAdapter) ListAnnouncements(ctx context.Context, token string, courseIDs []string, since time.Time) ([]domain.RemoteAnnouncement, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}

	query := url.Values{}
	for _, id := range courseIDs {
		query.Add("context_codes[]", "course_"+id)
	}
	query.Set("start_date", since.Format("2006-01-02"))

	raw, err := canvasPages[canvasAnnouncement](ctx, a.client, token, "/api/v1/announcements", query)
	if err != nil {
		return nil, err
	}

	announcements := make([]domain.RemoteAnnouncement, 0, len(raw))
	for _, item := range raw {
		posted := time.Time{}
		if item.PostedAt != nil {
			posted = *item.PostedAt
		}
		announcements = append(announcements, domain.RemoteAnnouncement{
			ID:       item.ID.String(),
			Title:    item.Title,
			BodyHTML: item.Message,
			Author:   item.Author.DisplayName,
			PostedAt: posted,
		})
	}
	return announcements, nil
}
