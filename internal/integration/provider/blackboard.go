package provider

import (
	"context"
	"net/url"
	"time"

	"studydash-backend/internal/integration/domain"

	"golang.org/x/oauth2/clientcredentials"
)

// blackboardAdapter speaks the Blackboard Learn REST dialect: a
// client-credentials token grant and {results, paging.nextPage}
// response envelopes.
type blackboardAdapter struct {
	client *Client
}

func newBlackboard(baseURL string) (*blackboardAdapter, error) {
	client, err := NewClient(Blackboard, baseURL)
	if err != nil {
		return nil, err
	}
	return &blackboardAdapter{client: client}, nil
}

func (a *blackboardAdapter) Name() string        { return Blackboard }
func (a *blackboardAdapter) DisplayName() string { return "Blackboard" }
func (a *blackboardAdapter) HasGradeFeed() bool  { return true }

func (a *blackboardAdapter) Refresh(ctx context.Context, in GrantInput) (*GrantResult, error) {
	conf := &clientcredentials.Config{
		ClientID:     in.ClientID,
		ClientSecret: in.ClientSecret,
		TokenURL:     a.client.BaseURL + "/learn/api/public/v1/oauth2/token",
	}

	token, err := conf.Token(ctx)
	if err != nil {
		return nil, classifyOAuthError(Blackboard, err)
	}

	// Client-credentials grants carry no refresh token; keep whatever
	// the credential already holds
	return &GrantResult{
		AccessToken:  token.AccessToken,
		RefreshToken: in.RefreshToken,
		Expiry:       token.Expiry,
	}, nil
}

type blackboardEnvelope[T any] struct {
	Results []T `json:"results"`
	Paging  struct {
		NextPage string `json:"nextPage"`
	} `json:"paging"`
}

// blackboardPages follows paging.nextPage until the envelope omits it
func blackboardPages[T any](ctx context.Context, c *Client, token, path string, query url.Values) ([]T, error) {
	var all []T
	next := ""
	for {
		var envelope blackboardEnvelope[T]
		var err error
		if next == "" {
			_, err = c.GetJSON(ctx, path, query, bearerHeader(token), &envelope)
		} else {
			_, err = c.GetJSONAbsolute(ctx, c.Resolve(next), bearerHeader(token), &envelope)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, envelope.Results...)

		next = envelope.Paging.NextPage
		if next == "" {
			return all, nil
		}
	}
}

type blackboardMembership struct {
	CourseID string `json:"courseId"`
	Course   struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		CourseID string `json:"courseId"`
		Term     struct {
			StartDate *time.Time `json:"startDate"`
			EndDate   *time.Time `json:"endDate"`
		} `json:"term"`
	} `json:"course"`
}

func (a *blackboardAdapter) ListCourses(ctx context.Context, token string) ([]domain.RemoteCourse, error) {
	query := url.Values{}
	query.Set("expand", "course")

	raw, err := blackboardPages[blackboardMembership](ctx, a.client, token, "/learn/api/public/v1/users/me/courses", query)
	if err != nil {
		return nil, err
	}

	courses := make([]domain.RemoteCourse, 0, len(raw))
	for _, m := range raw {
		id := m.Course.ID
		if id == "" {
			id = m.CourseID
		}
		courses = append(courses, domain.RemoteCourse{
			ID:       id,
			Name:     m.Course.Name,
			Code:     m.Course.CourseID,
			URL:      a.client.BaseURL + "/ultra/courses/" + id + "/outline",
			StartsAt: m.Course.Term.StartDate,
			EndsAt:   m.Course.Term.EndDate,
		})
	}
	return courses, nil
}

type blackboardColumn struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
	Score struct {
		Possible *float64 `json:"possible"`
	} `json:"score"`
	Grading struct {
		Due *time.Time `json:"due"`
	} `json:"grading"`
}

func (a *blackboardAdapter) ListAssignments(ctx context.Context, token, courseID string) ([]domain.RemoteAssignment, error) {
	raw, err := blackboardPages[blackboardColumn](ctx, a.client, token, "/learn/api/public/v2/courses/"+courseID+"/gradebook/columns", nil)
	if err != nil {
		return nil, err
	}

	assignments := make([]domain.RemoteAssignment, 0, len(raw))
	for _, col := range raw {
		assignments = append(assignments, domain.RemoteAssignment{
			ID:              col.ID,
			Name:            col.Name,
			DescriptionHTML: col.Description.Text,
			URL:             a.client.BaseURL + "/ultra/courses/" + courseID + "/outline",
			DueAt:           col.Grading.Due,
			PointsPossible:  col.Score.Possible,
		})
	}
	return assignments, nil
}

type blackboardGrade struct {
	ColumnID string     `json:"columnId"`
	Status   string     `json:"status"`
	Score    *float64   `json:"score"`
	Graded   *time.Time `json:"gradedDate"`
}

func (a *blackboardAdapter) ListGrades(ctx context.Context, token, courseID string) ([]domain.RemoteGrade, error) {
	raw, err := blackboardPages[blackboardGrade](ctx, a.client, token, "/learn/api/public/v2/courses/"+courseID+"/gradebook/users/me", nil)
	if err != nil {
		return nil, err
	}

	grades := make([]domain.RemoteGrade, 0, len(raw))
	for _, g := range raw {
		attempt := 0
		if g.Status == "Graded" || g.Status == "NeedsGrading" {
			attempt = 1
		}
		grades = append(grades, domain.RemoteGrade{
			AssignmentID: g.ColumnID,
			Score:        g.Score,
			GradedAt:     g.Graded,
			Attempt:      attempt,
		})
	}
	return grades, nil
}

type blackboardCalendarItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
}

func (a *blackboardAdapter) ListEvents(ctx context.Context, token string, from, to time.Time) ([]domain.RemoteEvent, error) {
	query := url.Values{}
	query.Set("since", from.Format(time.RFC3339))
	query.Set("until", to.Format(time.RFC3339))

	raw, err := blackboardPages[blackboardCalendarItem](ctx, a.client, token, "/learn/api/public/v1/calendars/items", query)
	if err != nil {
		return nil, err
	}

	events := make([]domain.RemoteEvent, 0, len(raw))
	for _, item := range raw {
		if item.Start == nil {
			continue
		}
		events = append(events, domain.RemoteEvent{
			ID:              item.ID,
			Title:           item.Title,
			DescriptionHTML: item.Description,
			StartsAt:        *item.Start,
			EndsAt:          item.End,
			Location:        item.Location,
		})
	}
	return events, nil
}

type blackboardAnnouncement struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Body    string     `json:"body"`
	Created *time.Time `json:"created"`
	Creator string     `json:"creator"`
}

func (a *blackboardAdapter) ListAnnouncements(ctx context.Context, token string, courseIDs []string, since time.Time) ([]domain.RemoteAnnouncement, error) {
	var announcements []domain.RemoteAnnouncement
	for _, courseID := range courseIDs {
		raw, err := blackboardPages[blackboardAnnouncement](ctx, a.client, token, "/learn/api/public/v1/courses/"+courseID+"/announcements", nil)
		if err != nil {
			return nil, err
		}
		for _, item := range raw {
			posted := time.Time{}
			if item.Created != nil {
				posted = *item.Created
			}
			if !posted.IsZero() && posted.Before(since) {
				continue
			}
			announcements = append(announcements, domain.RemoteAnnouncement{
				ID:       item.ID,
				CourseID: courseID,
				Title:    item.Title,
				BodyHTML: item.Body,
				Author:   item.Creator,
				PostedAt: posted,
			})
		}
	}
	return announcements, nil
}
