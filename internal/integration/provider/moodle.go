package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"studydash-backend/internal/integration/domain"
)

// moodleAdapter speaks the Moodle web service dialect: a permanent
// wstoken passed as a query parameter, one endpoint for every function,
// and errors reported as HTTP 200 bodies with an "exception" field.
type moodleAdapter struct {
	client *Client
}

func newMoodle(baseURL string) (*moodleAdapter, error) {
	client, err := NewClient(Moodle, baseURL)
	if err != nil {
		return nil, err
	}
	return &moodleAdapter{client: client}, nil
}

func (a *moodleAdapter) Name() string        { return Moodle }
func (a *moodleAdapter) DisplayName() string { return "Moodle" }
func (a *moodleAdapter) HasGradeFeed() bool  { return true }

// moodleFault is the error envelope Moodle returns with status 200
type moodleFault struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

// call invokes one web service function and decodes the result,
// translating an exception envelope into the shared error taxonomy
func (a *moodleAdapter) call(ctx context.Context, token, function string, args url.Values, out interface{}) error {
	query := url.Values{}
	for key, values := range args {
		query[key] = values
	}
	query.Set("wstoken", token)
	query.Set("wsfunction", function)
	query.Set("moodlewsrestformat", "json")

	var raw json.RawMessage
	if _, err := a.client.GetJSON(ctx, "/webservice/rest/server.php", query, nil, &raw); err != nil {
		return err
	}

	// Array responses cannot be faults; only probe object bodies
	if len(raw) > 0 && raw[0] == '{' {
		var fault moodleFault
		if err := json.Unmarshal(raw, &fault); err == nil && fault.Exception != "" {
			return a.faultError(fault)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.ProviderError{Provider: Moodle, Message: "malformed response for " + function, Err: err}
	}
	return nil
}

func (a *moodleAdapter) faultError(fault moodleFault) error {
	message := fault.Message
	if message == "" {
		message = fault.ErrorCode
	}
	switch fault.ErrorCode {
	case "invalidtoken", "accessexception":
		return &domain.AuthError{Provider: Moodle, Err: errors.New(message)}
	}
	return &domain.ProviderError{Provider: Moodle, StatusCode: 200, Message: message}
}

type moodleSiteInfo struct {
	UserID   int64  `json:"userid"`
	SiteName string `json:"sitename"`
	FullName string `json:"fullname"`
}

func (a *moodleAdapter) siteInfo(ctx context.Context, token string) (*moodleSiteInfo, error) {
	var info moodleSiteInfo
	if err := a.call(ctx, token, "core_webservice_get_site_info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Refresh cannot mint a new token, since Moodle web service tokens do
// not expire. It validates the stored token against the site instead
// and extends the bookkeeping expiry.
func (a *moodleAdapter) Refresh(ctx context.Context, in GrantInput) (*GrantResult, error) {
	if _, err := a.siteInfo(ctx, in.AccessToken); err != nil {
		return nil, err
	}
	return &GrantResult{
		AccessToken:  in.AccessToken,
		RefreshToken: in.RefreshToken,
		Expiry:       time.Now().AddDate(1, 0, 0),
	}, nil
}

type moodleCourse struct {
	ID        json.Number `json:"id"`
	FullName  string      `json:"fullname"`
	ShortName string      `json:"shortname"`
	StartDate int64       `json:"startdate"`
	EndDate   int64       `json:"enddate"`
}

func (a *moodleAdapter) ListCourses(ctx context.Context, token string) ([]domain.RemoteCourse, error) {
	info, err := a.siteInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	args := url.Values{}
	args.Set("userid", itoa(info.UserID))

	var raw []moodleCourse
	if err := a.call(ctx, token, "core_enrol_get_users_courses", args, &raw); err != nil {
		return nil, err
	}

	courses := make([]domain.RemoteCourse, 0, len(raw))
	for _, c := range raw {
		courses = append(courses, domain.RemoteCourse{
			ID:       c.ID.String(),
			Name:     c.FullName,
			Code:     c.ShortName,
			URL:      a.client.BaseURL + "/course/view.php?id=" + c.ID.String(),
			StartsAt: unixTime(c.StartDate),
			EndsAt:   unixTime(c.EndDate),
		})
	}
	return courses, nil
}

type moodleAssignmentList struct {
	Courses []struct {
		ID          json.Number `json:"id"`
		Assignments []struct {
			ID      json.Number `json:"id"`
			CMID    json.Number `json:"cmid"`
			Name    string      `json:"name"`
			DueDate int64       `json:"duedate"`
			Grade   *float64    `json:"grade"`
			Intro   string      `json:"intro"`
		} `json:"assignments"`
	} `json:"courses"`
}

func (a *moodleAdapter) ListAssignments(ctx context.Context, token, courseID string) ([]domain.RemoteAssignment, error) {
	args := url.Values{}
	args.Set("courseids[0]", courseID)

	var raw moodleAssignmentList
	if err := a.call(ctx, token, "mod_assign_get_assignments", args, &raw); err != nil {
		return nil, err
	}

	var assignments []domain.RemoteAssignment
	for _, course := range raw.Courses {
		for _, item := range course.Assignments {
			assignment := domain.RemoteAssignment{
				ID:              item.ID.String(),
				Name:            item.Name,
				DescriptionHTML: item.Intro,
				URL:             a.client.BaseURL + "/mod/assign/view.php?id=" + item.CMID.String(),
				DueAt:           unixTime(item.DueDate),
			}
			// Moodle reports negative grade ids for scale-based grading;
			// only positive values are point maxima
			if item.Grade != nil && *item.Grade > 0 {
				assignment.PointsPossible = item.Grade
			}
			assignments = append(assignments, assignment)
		}
	}
	return assignments, nil
}

type moodleGradeReport struct {
	UserGrades []struct {
		GradeItems []struct {
			ItemModule      string      `json:"itemmodule"`
			ItemInstance    json.Number `json:"iteminstance"`
			GradeRaw        *float64    `json:"graderaw"`
			GradeDateGraded int64       `json:"gradedategraded"`
		} `json:"gradeitems"`
	} `json:"usergrades"`
}

func (a *moodleAdapter) ListGrades(ctx context.Context, token, courseID string) ([]domain.RemoteGrade, error) {
	info, err := a.siteInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	args := url.Values{}
	args.Set("courseid", courseID)
	args.Set("userid", itoa(info.UserID))

	var raw moodleGradeReport
	if err := a.call(ctx, token, "gradereport_user_get_grade_items", args, &raw); err != nil {
		return nil, err
	}

	var grades []domain.RemoteGrade
	for _, user := range raw.UserGrades {
		for _, item := range user.GradeItems {
			if item.ItemModule != "assign" {
				continue
			}
			grade := domain.RemoteGrade{
				AssignmentID: item.ItemInstance.String(),
				Score:        item.GradeRaw,
			}
			if graded := unixTime(item.GradeDateGraded); graded != nil {
				grade.GradedAt = graded
			}
			grades = append(grades, grade)
		}
	}
	return grades, nil
}

type moodleEventList struct {
	Events []struct {
		ID           json.Number `json:"id"`
		Name         string      `json:"name"`
		Description  string      `json:"description"`
		TimeStart    int64       `json:"timestart"`
		TimeDuration int64       `json:"timeduration"`
		Location     string      `json:"location"`
	} `json:"events"`
}

func (a *moodleAdapter) ListEvents(ctx context.Context, token string, from, to time.Time) ([]domain.RemoteEvent, error) {
	args := url.Values{}
	args.Set("options[timestart]", itoa(from.Unix()))
	args.Set("options[timeend]", itoa(to.Unix()))

	var raw moodleEventList
	if err := a.call(ctx, token, "core_calendar_get_calendar_events", args, &raw); err != nil {
		return nil, err
	}

	events := make([]domain.RemoteEvent, 0, len(raw.Events))
	for _, e := range raw.Events {
		start := unixTime(e.TimeStart)
		if start == nil {
			continue
		}
		event := domain.RemoteEvent{
			ID:              e.ID.String(),
			Title:           e.Name,
			DescriptionHTML: e.Description,
			StartsAt:        *start,
			Location:        e.Location,
		}
		if e.TimeDuration > 0 {
			end := start.Add(time.Duration(e.TimeDuration) * time.Second)
			event.EndsAt = &end
		}
		events = append(events, event)
	}
	return events, nil
}

type moodleForumList []struct {
	ID       json.Number `json:"id"`
	CourseID json.Number `json:"course"`
	Type     string      `json:"type"`
}

type moodleDiscussionList struct {
	Discussions []struct {
		ID           json.Number `json:"id"`
		Name         string      `json:"name"`
		Message      string      `json:"message"`
		Created      int64       `json:"created"`
		UserFullName string      `json:"userfullname"`
	} `json:"discussions"`
}

// ListAnnouncements is a two-step fetch: find each course's news forum,
// then read its discussions.
func (a *moodleAdapter) ListAnnouncements(ctx context.Context, token string, courseIDs []string, since time.Time) ([]domain.RemoteAnnouncement, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}

	args := url.Values{}
	for i, id := range courseIDs {
		args.Set("courseids["+itoa(int64(i))+"]", id)
	}

	var forums moodleForumList
	if err := a.call(ctx, token, "mod_forum_get_forums_by_courses", args, &forums); err != nil {
		return nil, err
	}

	var announcements []domain.RemoteAnnouncement
	for _, forum := range forums {
		if forum.Type != "news" {
			continue
		}

		discArgs := url.Values{}
		discArgs.Set("forumid", forum.ID.String())

		var list moodleDiscussionList
		if err := a.call(ctx, token, "mod_forum_get_forum_discussions", discArgs, &list); err != nil {
			return nil, err
		}

		for _, d := range list.Discussions {
			posted := time.Time{}
			if at := unixTime(d.Created); at != nil {
				posted = *at
			}
			if !posted.IsZero() && posted.Before(since) {
				continue
			}
			announcements = append(announcements, domain.RemoteAnnouncement{
				ID:       d.ID.String(),
				CourseID: forum.CourseID.String(),
				Title:    d.Name,
				BodyHTML: d.Message,
				Author:   d.UserFullName,
				PostedAt: posted,
			})
		}
	}
	return announcements, nil
}

// unixTime converts a Moodle unix timestamp, where zero means unset
func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
