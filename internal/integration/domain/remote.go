package domain

import "time"

// Remote records are provider-shaped, read-only and never persisted
// verbatim. They exist only in memory during a sync run.

type RemoteCourse struct {
	ID       string
	Name     string
	Code     string
	URL      string // deep link into the provider UI
	StartsAt *time.Time
	EndsAt   *time.Time
}

type RemoteAssignment struct {
	ID              string
	Name            string
	DescriptionHTML string
	URL             string
	DueAt           *time.Time
	PointsPossible  *float64

	// Inline submission state, for providers that report it with the
	// assignment itself
	Submitted bool
	Score     *float64
	GradedAt  *time.Time
}

// Complete reports whether the provider considers the item done:
// submitted, graded, or carrying a score.
func (a *RemoteAssignment) Complete() bool {
	return a.Submitted || a.Score != nil || a.GradedAt != nil
}

type RemoteGrade struct {
	AssignmentID string
	Score        *float64
	GradedAt     *time.Time
	SubmissionID string
	Attempt      int
}

// Complete reports whether the grade entry marks the assignment done
func (g *RemoteGrade) Complete() bool {
	return g.Score != nil || g.SubmissionID != "" || g.Attempt > 0
}

type RemoteEvent struct {
	ID              string
	Title           string
	DescriptionHTML string
	StartsAt        time.Time
	EndsAt          *time.Time
	Location        string
}

type RemoteAnnouncement struct {
	ID       string
	CourseID string // empty when the provider reports announcements globally
	Title    string
	BodyHTML string
	Author   string
	PostedAt time.Time
}
