package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	coursedomain "studydash-backend/internal/course/domain"
	"studydash-backend/internal/integration/domain"
	"studydash-backend/internal/integration/dto"
	"studydash-backend/internal/integration/provider"
	"studydash-backend/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories backing orchestrator tests.

type fakeCourseRepo struct {
	mu      sync.Mutex
	nextID  int
	courses map[string]*coursedomain.Course
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: make(map[string]*coursedomain.Course)}
}

func (r *fakeCourseRepo) Create(c *coursedomain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		r.nextID++
		c.ID = "course-" + strconv.Itoa(r.nextID)
	}
	copied := *c
	r.courses[c.ID] = &copied
	return nil
}

func (r *fakeCourseRepo) FindByID(id string) (*coursedomain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCourseRepo) FindByUserID(userID string) ([]*coursedomain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*coursedomain.Course
	for _, c := range r.courses {
		if c.UserID == userID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) Update(c *coursedomain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.courses[c.ID] = &copied
	return nil
}

func (r *fakeCourseRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.courses, id)
	return nil
}

func (r *fakeCourseRepo) FindByProviderLink(userID, prov, remoteID string) (*coursedomain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.courses {
		if c.UserID == userID && c.Provider == prov && c.RemoteID == remoteID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeCourseRepo) FindLinkedByProvider(userID, prov string) ([]*coursedomain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*coursedomain.Course
	for _, c := range r.courses {
		if c.UserID == userID && c.Provider == prov && c.RemoteID != "" {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeWorkItemRepo struct {
	mu     sync.Mutex
	nextID int
	items  map[string]*coursedomain.WorkItem
}

func newFakeWorkItemRepo() *fakeWorkItemRepo {
	return &fakeWorkItemRepo{items: make(map[string]*coursedomain.WorkItem)}
}

func (r *fakeWorkItemRepo) Create(item *coursedomain.WorkItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == "" {
		r.nextID++
		item.ID = "item-" + strconv.Itoa(r.nextID)
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeWorkItemRepo) FindByID(id string) (*coursedomain.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (r *fakeWorkItemRepo) FindByUserID(userID string, status *coursedomain.WorkItemStatus) ([]*coursedomain.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*coursedomain.WorkItem
	for _, item := range r.items {
		if item.UserID != userID {
			continue
		}
		if status != nil && item.Status != *status {
			continue
		}
		copied := *item
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeWorkItemRepo) Update(item *coursedomain.WorkItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeWorkItemRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakeWorkItemRepo) FindByProviderLink(userID, prov, remoteID string) (*coursedomain.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.UserID == userID && item.Provider == prov && item.RemoteID == remoteID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeWorkItemRepo) FindDueBetween(from, to time.Time) ([]*coursedomain.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*coursedomain.WorkItem
	for _, item := range r.items {
		if item.Status == coursedomain.WorkItemStatusCompleted || item.DueDate == nil {
			continue
		}
		if !item.DueDate.Before(from) && item.DueDate.Before(to) {
			copied := *item
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	nextID int
	events map[string]*coursedomain.CalendarEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*coursedomain.CalendarEvent)}
}

func (r *fakeEventRepo) Create(e *coursedomain.CalendarEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		r.nextID++
		e.ID = "event-" + strconv.Itoa(r.nextID)
	}
	copied := *e
	r.events[e.ID] = &copied
	return nil
}

func (r *fakeEventRepo) FindByID(id string) (*coursedomain.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEventRepo) FindByUserID(userID string, from, to *time.Time) ([]*coursedomain.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*coursedomain.CalendarEvent
	for _, e := range r.events {
		if e.UserID == userID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Update(e *coursedomain.CalendarEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *e
	r.events[e.ID] = &copied
	return nil
}

func (r *fakeEventRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) FindByProviderLink(userID, prov, remoteID string) (*coursedomain.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.UserID == userID && e.Provider == prov && e.RemoteID == remoteID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeTombstoneRepo struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeTombstoneRepo() *fakeTombstoneRepo {
	return &fakeTombstoneRepo{keys: make(map[string]bool)}
}

func tombstoneKey(userID, prov, remoteID string, category coursedomain.TombstoneCategory) string {
	return userID + "|" + prov + "|" + remoteID + "|" + string(category)
}

func (r *fakeTombstoneRepo) Create(t *coursedomain.Tombstone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[tombstoneKey(t.UserID, t.Provider, t.RemoteID, t.Category)] = true
	return nil
}

func (r *fakeTombstoneRepo) RemoteIDs(userID, prov string, category coursedomain.TombstoneCategory) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	prefix := userID + "|" + prov + "|"
	for key := range r.keys {
		var remoteID string
		if n, err := parseTombstoneKey(key, prefix, string(category)); err == nil {
			remoteID = n
		} else {
			continue
		}
		out[remoteID] = true
	}
	return out, nil
}

func parseTombstoneKey(key, prefix, category string) (string, error) {
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return "", errors.New("no match")
	}
	rest := key[len(prefix):]
	suffix := "|" + category
	if len(rest) <= len(suffix) || rest[len(rest)-len(suffix):] != suffix {
		return "", errors.New("no match")
	}
	return rest[:len(rest)-len(suffix)], nil
}

type fakeNotificationRepo struct {
	mu     sync.Mutex
	nextID int
	all    []*notification.Notification
}

func (r *fakeNotificationRepo) Create(n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	n.ID = "notif-" + strconv.Itoa(r.nextID)
	copied := *n
	r.all = append(r.all, &copied)
	return nil
}

func (r *fakeNotificationRepo) FindByUserID(userID string, unreadOnly bool) ([]*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Notification
	for _, n := range r.all {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		copied := *n
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeNotificationRepo) HasUnreadByType(userID, ntype, prov string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.all {
		if n.UserID == userID && n.Type == ntype && n.Provider == prov && !n.IsRead {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) ExistsByRemote(userID, prov, remoteID, category string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.all {
		if n.UserID == userID && n.Provider == prov && n.Category == category && n.RemoteID != nil && *n.RemoteID == remoteID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) MarkRead(userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.all {
		if n.UserID == userID && n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

// syncFixture wires an orchestrator over the in-memory repositories
type syncFixture struct {
	u          *integrationUsecase
	creds      *fakeCredRepo
	courses    *fakeCourseRepo
	items      *fakeWorkItemRepo
	events     *fakeEventRepo
	tombstones *fakeTombstoneRepo
	notifs     *fakeNotificationRepo
	adapter    *fakeAdapter
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	f := &syncFixture{
		creds:      &fakeCredRepo{},
		courses:    newFakeCourseRepo(),
		items:      newFakeWorkItemRepo(),
		events:     newFakeEventRepo(),
		tombstones: newFakeTombstoneRepo(),
		notifs:     &fakeNotificationRepo{},
		adapter:    &fakeAdapter{},
	}
	vault := NewVault(testKey, f.creds)
	uc := NewIntegrationUsecase(f.creds, vault, f.courses, f.items, f.events, f.tombstones, notification.NewService(f.notifs))
	f.u = uc.(*integrationUsecase)
	f.u.retryBase = time.Millisecond
	f.u.newAdapter = func(name, baseURL string) (provider.Adapter, error) {
		return f.adapter, nil
	}

	seedCredential(t, f.creds, time.Now().Add(time.Hour))
	return f
}

func (f *syncFixture) sync(t *testing.T) *domain.SyncResult {
	t.Helper()
	result, err := f.u.Sync(context.Background(), "user-1", "canvas", nil)
	require.NoError(t, err)
	return result
}

func remoteBio101() domain.RemoteCourse {
	return domain.RemoteCourse{
		ID:   "101",
		Name: "Bio 101",
		Code: "BIO-101",
		URL:  "https://canvas.school.edu/courses/101",
	}
}

func TestSyncCreatesThenIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	due := time.Now().Add(7 * 24 * time.Hour)
	f.adapter.courses = []domain.RemoteCourse{remoteBio101()}
	f.adapter.assignments = map[string][]domain.RemoteAssignment{
		"101": {{ID: "a1", Name: "Essay", DescriptionHTML: "<p>Read Ch.1</p>", DueAt: &due}},
	}
	f.adapter.events = []domain.RemoteEvent{
		{ID: "e1", Title: "Midterm", StartsAt: time.Now().Add(48 * time.Hour)},
	}
	f.adapter.announcements = []domain.RemoteAnnouncement{
		{ID: "n1", CourseID: "101", Title: "Welcome", BodyHTML: "<p>Hi</p>", PostedAt: time.Now()},
	}

	first := f.sync(t)
	assert.Equal(t, 1, first.Courses.Created)
	assert.Equal(t, 1, first.Assignments.Created)
	assert.Equal(t, 1, first.Events.Created)
	assert.Equal(t, 1, first.Announcements.Created)
	assert.Zero(t, first.TotalErrors())

	second := f.sync(t)
	assert.Zero(t, second.TotalCreated())
	assert.Equal(t, 1, second.Courses.Updated)
	assert.Equal(t, 1, second.Assignments.Updated)
	assert.Equal(t, 1, second.Events.Updated)

	items, err := f.items.FindByUserID("user-1", nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Read Ch.1", items[0].ProviderNotes)
}

func TestSyncKeepsUserRename(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.courses = []domain.RemoteCourse{remoteBio101()}
	f.sync(t)

	course, err := f.courses.FindByProviderLink("user-1", "canvas", "101")
	require.NoError(t, err)
	course.Name = "Biology (Dr. Lee)"
	require.NoError(t, f.courses.Update(course))

	f.sync(t)

	course, err = f.courses.FindByProviderLink("user-1", "canvas", "101")
	require.NoError(t, err)
	assert.Equal(t, "Biology (Dr. Lee)", course.Name)
	require.Len(t, course.Links, 1)
	assert.Equal(t, "https://canvas.school.edu/courses/101", course.Links[0].URL)
}

func TestSyncPreservesUserNotesAndStatus(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.courses = []domain.RemoteCourse{remoteBio101()}
	f.adapter.assignments = map[string][]domain.RemoteAssignment{
		"101": {{ID: "a1", Name: "Essay", DescriptionHTML: "<p>Read Ch.1</p>"}},
	}
	f.sync(t)

	item, err := f.items.FindByProviderLink("user-1", "canvas", "a1")
	require.NoError(t, err)
	item.UserNotes = "My own thought"
	item.Status = coursedomain.WorkItemStatusCompleted
	require.NoError(t, f.items.Update(item))

	f.adapter.assignments["101"][0].DescriptionHTML = "<p>Read Ch.2</p>"
	f.sync(t)

	item, err = f.items.FindByProviderLink("user-1", "canvas", "a1")
	require.NoError(t, err)
	assert.Equal(t, "My own thought", item.UserNotes)
	assert.Equal(t, "Read Ch.2", item.ProviderNotes)
	// Completed never demotes, even though the provider reports the
	// item as not complete
	assert.Equal(t, coursedomain.WorkItemStatusCompleted, item.Status)
}

func TestSyncGradePromotesStatus(t *testing.T) {
	f := newSyncFixture(t)
	score := 95.0
	f.adapter.courses = []domain.RemoteCourse{remoteBio101()}
	f.adapter.assignments = map[string][]domain.RemoteAssignment{
		"101": {{ID: "a1", Name: "Essay"}},
	}
	f.sync(t)

	f.adapter.grades = map[string][]domain.RemoteGrade{
		"101": {{AssignmentID: "a1", Score: &score}},
	}
	result := f.sync(t)
	assert.Equal(t, 1, result.Grades.Updated)

	item, err := f.items.FindByProviderLink("user-1", "canvas", "a1")
	require.NoError(t, err)
	assert.Equal(t, coursedomain.WorkItemStatusCompleted, item.Status)
	require.NotNil(t, item.Score)
	assert.Equal(t, 95.0, *item.Score)
}

func TestSyncTombstoneVetoesRecreation(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.courses = []domain.RemoteCourse{remoteBio101()}
	f.adapter.assignments = map[string][]domain.RemoteAssignment{
		"101": {{ID: "a1", Name: "Essay"}},
	}
	f.sync(t)

	// User deletes the synced item; the delete leaves a tombstone
	item, err := f.items.FindByProviderLink("user-1", "canvas", "a1")
	require.NoError(t, err)
	require.NoError(t, f.items.Delete(item.ID))
	require.NoError(t, f.tombstones.Create(&coursedomain.Tombstone{
		UserID: "user-1", Provider: "canvas", RemoteID: "a1", Category: coursedomain.TombstoneWorkItem,
	}))

	result := f.sync(t)
	assert.Zero(t, result.Assignments.Created)

	item, err = f.items.FindByProviderLink("user-1", "canvas", "a1")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestSyncAuthFailureNotifiesOnce(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.listErr = &domain.AuthError{Provider: "canvas", Err: errors.New("revoked")}

	result, err := f.u.Sync(context.Background(), "user-1", "canvas", nil)
	require.Error(t, err)
	require.True(t, domain.IsAuthError(err))
	require.NotNil(t, result)
	assert.True(t, result.AuthFailed)

	// A second failing run must not stack a second unread notice
	_, err = f.u.Sync(context.Background(), "user-1", "canvas", nil)
	require.Error(t, err)

	notifs, err := f.notifs.FindByUserID("user-1", true)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.TypeProviderAuth, notifs[0].Type)
}

func TestSyncTransientErrorIsolatedAndRetried(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.courses = []domain.RemoteCourse{remoteBio101()}
	f.adapter.events = []domain.RemoteEvent{
		{ID: "e1", Title: "Midterm", StartsAt: time.Now().Add(24 * time.Hour)},
	}
	f.adapter.listErr = nil
	f.adapter.assignments = nil

	// Assignments fail with a transient error; courses and events
	// still land
	f.adapter.assignmentsErr = &domain.ProviderError{Provider: "canvas", StatusCode: 503, Message: "maintenance"}

	result := f.sync(t)
	assert.Equal(t, 1, result.Courses.Created)
	assert.Equal(t, 1, result.Events.Created)
	require.Len(t, result.Assignments.Errors, 1)
	assert.Contains(t, result.Assignments.Errors[0], "maintenance")

	// The transient failure was retried before giving up
	assert.Equal(t, 3, f.adapter.assignmentCalls)
}

func TestSyncRunLock(t *testing.T) {
	f := newSyncFixture(t)
	require.True(t, f.u.tryLock("user-1", "canvas"))

	_, err := f.u.Sync(context.Background(), "user-1", "canvas", nil)
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	f.u.unlock("user-1", "canvas")
	_, err = f.u.Sync(context.Background(), "user-1", "canvas", nil)
	assert.NoError(t, err)
}

func TestSyncNotConnected(t *testing.T) {
	f := newSyncFixture(t)
	_, err := f.u.Sync(context.Background(), "user-1", "moodle", nil)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestSyncDisabled(t *testing.T) {
	f := newSyncFixture(t)
	enabled := false
	_, err := f.u.UpdateSettings("user-1", "canvas", &dto.UpdateSettingsRequest{SyncEnabled: &enabled})
	require.NoError(t, err)

	_, err = f.u.Sync(context.Background(), "user-1", "canvas", nil)
	assert.ErrorIs(t, err, domain.ErrSyncDisabled)
}

func TestSyncCategoryToggleOverride(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.courses = []domain.RemoteCourse{remoteBio101()}
	f.adapter.announcements = []domain.RemoteAnnouncement{
		{ID: "n1", CourseID: "101", Title: "Welcome", PostedAt: time.Now()},
	}
	f.sync(t)

	off := false
	result, err := f.u.Sync(context.Background(), "user-1", "canvas", &domain.CategoryToggles{
		Announcements: &off,
	})
	require.NoError(t, err)
	assert.Zero(t, result.Announcements.Created)
	assert.Equal(t, 1, result.Courses.Updated)
}

func TestSyncOldAnnouncementImportedRead(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.courses = []domain.RemoteCourse{remoteBio101()}
	f.adapter.announcements = []domain.RemoteAnnouncement{
		{ID: "old", CourseID: "101", Title: "Old news", PostedAt: time.Now().Add(-72 * time.Hour)},
		{ID: "new", CourseID: "101", Title: "Fresh news", PostedAt: time.Now().Add(-1 * time.Hour)},
	}

	result := f.sync(t)
	assert.Equal(t, 2, result.Announcements.Created)

	unread, err := f.notifs.FindByUserID("user-1", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Contains(t, unread[0].Title, "Fresh news")
}

// Announcement titles carry the local course name, which may have been
// renamed by the user
func TestSyncAnnouncementTitleUsesLocalCourseName(t *testing.T) {
	f := newSyncFixture(t)
	f.adapter.courses = []domain.RemoteCourse{remoteBio101()}
	f.sync(t)

	course, err := f.courses.FindByProviderLink("user-1", "canvas", "101")
	require.NoError(t, err)
	course.Name = "Biology"
	require.NoError(t, f.courses.Update(course))

	f.adapter.announcements = []domain.RemoteAnnouncement{
		{ID: "n1", CourseID: "101", Title: "Lab cancelled", PostedAt: time.Now()},
	}
	f.sync(t)

	all, err := f.notifs.FindByUserID("user-1", false)
	require.NoError(t, err)
	var found bool
	for _, n := range all {
		if n.Type == notification.TypeAnnouncement {
			assert.Equal(t, "Biology: Lab cancelled", n.Title)
			found = true
		}
	}
	assert.True(t, found)
}
