package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"studydash-backend/internal/integration/domain"

	"golang.org/x/oauth2"
)

// Brightspace hands out tokens from a central auth host, not from the
// institution's own instance.
const brightspaceTokenURL = "https://auth.brightspace.com/core/connect/token"

const (
	brightspaceLPVersion = "1.31"
	brightspaceLEVersion = "1.67"
)

// brightspaceAdapter speaks the D2L Brightspace dialect: bookmark-based
// pagination and versioned /d2l/api/{product}/{version} paths.
type brightspaceAdapter struct {
	client *Client
}

func newBrightspace(baseURL string) (*brightspaceAdapter, error) {
	client, err := NewClient(Brightspace, baseURL)
	if err != nil {
		return nil, err
	}
	return &brightspaceAdapter{client: client}, nil
}

func (a *brightspaceAdapter) Name() string        { return Brightspace }
func (a *brightspaceAdapter) DisplayName() string { return "Brightspace" }
func (a *brightspaceAdapter) HasGradeFeed() bool  { return true }

func (a *brightspaceAdapter) Refresh(ctx context.Context, in GrantInput) (*GrantResult, error) {
	conf := &oauth2.Config{
		ClientID:     in.ClientID,
		ClientSecret: in.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: brightspaceTokenURL},
	}

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: in.RefreshToken}).Token()
	if err != nil {
		return nil, classifyOAuthError(Brightspace, err)
	}

	// Brightspace rotates the refresh token on every grant
	result := &GrantResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	if result.RefreshToken == "" {
		result.RefreshToken = in.RefreshToken
	}
	return result, nil
}

type brightspacePage[T any] struct {
	PagingInfo struct {
		Bookmark     string `json:"Bookmark"`
		HasMoreItems bool   `json:"HasMoreItems"`
	} `json:"PagingInfo"`
	Items []T `json:"Items"`
}

// brightspacePages follows the bookmark chain until HasMoreItems is false
func brightspacePages[T any](ctx context.Context, c *Client, token, path string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}

	var all []T
	for {
		var page brightspacePage[T]
		if _, err := c.GetJSON(ctx, path, query, bearerHeader(token), &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)

		if !page.PagingInfo.HasMoreItems || page.PagingInfo.Bookmark == "" {
			return all, nil
		}
		query.Set("bookmark", page.PagingInfo.Bookmark)
	}
}

type brightspaceEnrollment struct {
	OrgUnit struct {
		ID   json.Number `json:"Id"`
		Name string      `json:"Name"`
		Code string      `json:"Code"`
		Type struct {
			ID json.Number `json:"Id"`
		} `json:"Type"`
	} `json:"OrgUnit"`
}

// Org unit type 3 is a course offering; other enrollments (departments,
// semesters, the org itself) are not courses.
const brightspaceCourseOfferingType = "3"

func (a *brightspaceAdapter) ListCourses(ctx context.Context, token string) ([]domain.RemoteCourse, error) {
	path := fmt.Sprintf("/d2l/api/lp/%s/enrollments/myenrollments/", brightspaceLPVersion)

	raw, err := brightspacePages[brightspaceEnrollment](ctx, a.client, token, path, nil)
	if err != nil {
		return nil, err
	}

	courses := make([]domain.RemoteCourse, 0, len(raw))
	for _, e := range raw {
		if e.OrgUnit.Type.ID.String() != brightspaceCourseOfferingType {
			continue
		}
		id := e.OrgUnit.ID.String()
		courses = append(courses, domain.RemoteCourse{
			ID:   id,
			Name: e.OrgUnit.Name,
			Code: e.OrgUnit.Code,
			URL:  a.client.BaseURL + "/d2l/home/" + id,
		})
	}
	return courses, nil
}

type brightspaceDropboxFolder struct {
	ID                 json.Number `json:"Id"`
	Name               string      `json:"Name"`
	CustomInstructions struct {
		HTML string `json:"Html"`
	} `json:"CustomInstructions"`
	DueDate    *time.Time `json:"DueDate"`
	Assessment *struct {
		ScoreDenominator *float64 `json:"ScoreDenominator"`
	} `json:"Assessment"`
}

func (a *brightspaceAdapter) ListAssignments(ctx context.Context, token, courseID string) ([]domain.RemoteAssignment, error) {
	path := fmt.Sprintf("/d2l/api/le/%s/%s/dropbox/folders/", brightspaceLEVersion, courseID)

	var raw []brightspaceDropboxFolder
	if _, err := a.client.GetJSON(ctx, path, nil, bearerHeader(token), &raw); err != nil {
		return nil, err
	}

	assignments := make([]domain.RemoteAssignment, 0, len(raw))
	for _, folder := range raw {
		id := folder.ID.String()
		assignment := domain.RemoteAssignment{
			ID:              id,
			Name:            folder.Name,
			DescriptionHTML: folder.CustomInstructions.HTML,
			URL:             fmt.Sprintf("%s/d2l/lms/dropbox/user/folder_submit_files.d2l?ou=%s&db=%s", a.client.BaseURL, courseID, id),
			DueAt:           folder.DueDate,
		}
		if folder.Assessment != nil {
			assignment.PointsPossible = folder.Assessment.ScoreDenominator
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

type brightspaceGradeValue struct {
	GradeObjectIdentifier string   `json:"GradeObjectIdentifier"`
	PointsNumerator       *float64 `json:"PointsNumerator"`
}

func (a *brightspaceAdapter) ListGrades(ctx context.Context, token, courseID string) ([]domain.RemoteGrade, error) {
	path := fmt.Sprintf("/d2l/api/le/%s/%s/grades/values/myGradeValues/", brightspaceLEVersion, courseID)

	var raw []brightspaceGradeValue
	if _, err := a.client.GetJSON(ctx, path, nil, bearerHeader(token), &raw); err != nil {
		return nil, err
	}

	grades := make([]domain.RemoteGrade, 0, len(raw))
	for _, g := range raw {
		grades = append(grades, domain.RemoteGrade{
			AssignmentID: g.GradeObjectIdentifier,
			Score:        g.PointsNumerator,
		})
	}
	return grades, nil
}

type brightspaceEvent struct {
	CalendarEventID json.Number `json:"CalendarEventId"`
	Title           string      `json:"Title"`
	Description     string      `json:"Description"`
	StartDateTime   *time.Time  `json:"StartDateTime"`
	EndDateTime     *time.Time  `json:"EndDateTime"`
	LocationName    string      `json:"LocationName"`
}

func (a *brightspaceAdapter) ListEvents(ctx context.Context, token string, from, to time.Time) ([]domain.RemoteEvent, error) {
	path := fmt.Sprintf("/d2l/api/le/%s/calendar/events/myEvents/", brightspaceLEVersion)
	query := url.Values{}
	query.Set("startDateTime", from.UTC().Format(time.RFC3339))
	query.Set("endDateTime", to.UTC().Format(time.RFC3339))

	raw, err := brightspacePages[brightspaceEvent](ctx, a.client, token, path, query)
	if err != nil {
		return nil, err
	}

	events := make([]domain.RemoteEvent, 0, len(raw))
	for _, e := range raw {
		if e.StartDateTime == nil {
			continue
		}
		events = append(events, domain.RemoteEvent{
			ID:              e.CalendarEventID.String(),
			Title:           e.Title,
			DescriptionHTML: e.Description,
			StartsAt:        *e.StartDateTime,
			EndsAt:          e.EndDateTime,
			Location:        e.LocationName,
		})
	}
	return events, nil
}

type brightspaceNewsItem struct {
	ID    json.Number `json:"Id"`
	Title string      `json:"Title"`
	Body  struct {
		HTML string `json:"Html"`
		Text string `json:"Text"`
	} `json:"Body"`
	StartDate *time.Time `json:"StartDate"`
}

func (a *brightspaceAdapter) ListAnnouncements(ctx context.Context, token string, courseIDs []string, since time.Time) ([]domain.RemoteAnnouncement, error) {
	var announcements []domain.RemoteAnnouncement
	for _, courseID := range courseIDs {
		path := fmt.Sprintf("/d2l/api/le/%s/%s/news/", brightspaceLEVersion, courseID)

		var raw []brightspaceNewsItem
		if _, err := a.client.GetJSON(ctx, path, nil, bearerHeader(token), &raw); err != nil {
			return nil, err
		}

		for _, item := range raw {
			posted := time.Time{}
			if item.StartDate != nil {
				posted = *item.StartDate
			}
			if !posted.IsZero() && posted.Before(since) {
				continue
			}
			body := item.Body.HTML
			if body == "" {
				body = item.Body.Text
			}
			announcements = append(announcements, domain.RemoteAnnouncement{
				ID:       item.ID.String(),
				CourseID: courseID,
				Title:    item.Title,
				BodyHTML: body,
				PostedAt: posted,
			})
		}
	}
	return announcements, nil
}
