package usecase

import (
	"strconv"
	"testing"
	"time"

	"studydash-backend/internal/course/domain"
	"studydash-backend/internal/course/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCourseRepo struct {
	nextID  int
	courses map[string]*domain.Course
}

func newMemCourseRepo() *memCourseRepo {
	return &memCourseRepo{courses: make(map[string]*domain.Course)}
}

func (r *memCourseRepo) Create(c *domain.Course) error {
	r.nextID++
	c.ID = "course-" + strconv.Itoa(r.nextID)
	copied := *c
	r.courses[c.ID] = &copied
	return nil
}

func (r *memCourseRepo) FindByID(id string) (*domain.Course, error) {
	c, ok := r.courses[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *memCourseRepo) FindByUserID(userID string) ([]*domain.Course, error) {
	var out []*domain.Course
	for _, c := range r.courses {
		if c.UserID == userID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memCourseRepo) Update(c *domain.Course) error {
	copied := *c
	r.courses[c.ID] = &copied
	return nil
}

func (r *memCourseRepo) Delete(id string) error {
	delete(r.courses, id)
	return nil
}

func (r *memCourseRepo) FindByProviderLink(userID, prov, remoteID string) (*domain.Course, error) {
	for _, c := range r.courses {
		if c.UserID == userID && c.Provider == prov && c.RemoteID == remoteID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memCourseRepo) FindLinkedByProvider(userID, prov string) ([]*domain.Course, error) {
	var out []*domain.Course
	for _, c := range r.courses {
		if c.UserID == userID && c.Provider == prov && c.RemoteID != "" {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memWorkItemRepo struct {
	nextID int
	items  map[string]*domain.WorkItem
}

func newMemWorkItemRepo() *memWorkItemRepo {
	return &memWorkItemRepo{items: make(map[string]*domain.WorkItem)}
}

func (r *memWorkItemRepo) Create(item *domain.WorkItem) error {
	r.nextID++
	item.ID = "item-" + strconv.Itoa(r.nextID)
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memWorkItemRepo) FindByID(id string) (*domain.WorkItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (r *memWorkItemRepo) FindByUserID(userID string, status *domain.WorkItemStatus) ([]*domain.WorkItem, error) {
	var out []*domain.WorkItem
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

func (r *memWorkItemRepo) Update(item *domain.WorkItem) error {
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *memWorkItemRepo) Delete(id string) error {
	delete(r.items, id)
	return nil
}

func (r *memWorkItemRepo) FindByProviderLink(userID, prov, remoteID string) (*domain.WorkItem, error) {
	for _, item := range r.items {
		if item.UserID == userID && item.Provider == prov && item.RemoteID == remoteID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memWorkItemRepo) FindDueBetween(from, to time.Time) ([]*domain.WorkItem, error) {
	var out []*domain.WorkItem
	for _, item := range r.items {
		if item.Status == domain.WorkItemStatusCompleted || item.DueDate == nil {
			continue
		}
		if !item.DueDate.Before(from) && item.DueDate.Before(to) {
			copied := *item
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memEventRepo struct {
	nextID int
	events map[string]*domain.CalendarEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[string]*domain.CalendarEvent)}
}

func (r *memEventRepo) Create(e *domain.CalendarEvent) error {
	r.nextID++
	e.ID = "event-" + strconv.Itoa(r.nextID)
	copied := *e
	r.events[e.ID] = &copied
	return nil
}

func (r *memEventRepo) FindByID(id string) (*domain.CalendarEvent, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (r *memEventRepo) FindByUserID(userID string, from, to *time.Time) ([]*domain.CalendarEvent, error) {
	var out []*domain.CalendarEvent
	for _, e := range r.events {
		if e.UserID == userID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memEventRepo) Update(e *domain.CalendarEvent) error {
	copied := *e
	r.events[e.ID] = &copied
	return nil
}

func (r *memEventRepo) Delete(id string) error {
	delete(r.events, id)
	return nil
}

func (r *memEventRepo) FindByProviderLink(userID, prov, remoteID string) (*domain.CalendarEvent, error) {
	for _, e := range r.events {
		if e.UserID == userID && e.Provider == prov && e.RemoteID == remoteID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

type memTombstoneRepo struct {
	created []*domain.Tombstone
}

func (r *memTombstoneRepo) Create(t *domain.Tombstone) error {
	r.created = append(r.created, t)
	return nil
}

func (r *memTombstoneRepo) RemoteIDs(userID, prov string, category domain.TombstoneCategory) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, t := range r.created {
		if t.UserID == userID && t.Provider == prov && t.Category == category {
			out[t.RemoteID] = true
		}
	}
	return out, nil
}

type courseFixture struct {
	u          CourseUsecase
	courses    *memCourseRepo
	items      *memWorkItemRepo
	events     *memEventRepo
	tombstones *memTombstoneRepo
}

func newCourseFixture() *courseFixture {
	f := &courseFixture{
		courses:    newMemCourseRepo(),
		items:      newMemWorkItemRepo(),
		events:     newMemEventRepo(),
		tombstones: &memTombstoneRepo{},
	}
	f.u = NewCourseUsecase(f.courses, f.items, f.events, f.tombstones)
	return f
}

func TestCreateWorkItemNotesBecomeUserNotes(t *testing.T) {
	f := newCourseFixture()

	resp, err := f.u.CreateWorkItem("user-1", &dto.WorkItemRequest{
		Title: "Essay",
		Notes: "plan the outline",
	})
	require.NoError(t, err)

	stored, err := f.items.FindByID(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "plan the outline", stored.UserNotes)
	assert.Empty(t, stored.ProviderNotes)
	assert.Equal(t, "──user──\nplan the outline", resp.Notes)
}

func TestUpdateWorkItemNotesPreservesProviderSection(t *testing.T) {
	f := newCourseFixture()
	item := &domain.WorkItem{
		UserID:        "user-1",
		Title:         "Essay",
		Status:        domain.WorkItemStatusPending,
		ProviderNotes: "Read Ch.1",
		Provider:      "canvas",
		RemoteID:      "a1",
	}
	require.NoError(t, f.items.Create(item))

	// The client edits the rendered blob and adds its own text above
	// the provider section
	blob := "──user──\nMy own thought\n\n──provider──\nRead Ch.1"
	resp, err := f.u.UpdateWorkItem("user-1", item.ID, &dto.WorkItemUpdateRequest{Notes: &blob})
	require.NoError(t, err)

	stored, err := f.items.FindByID(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "My own thought", stored.UserNotes)
	assert.Equal(t, "Read Ch.1", stored.ProviderNotes)
	assert.Equal(t, blob, resp.Notes)
}

func TestDeleteLinkedWorkItemLeavesTombstone(t *testing.T) {
	f := newCourseFixture()
	item := &domain.WorkItem{
		UserID:   "user-1",
		Title:    "Essay",
		Provider: "canvas",
		RemoteID: "a1",
	}
	require.NoError(t, f.items.Create(item))

	require.NoError(t, f.u.DeleteWorkItem("user-1", item.ID))

	dead, err := f.tombstones.RemoteIDs("user-1", "canvas", domain.TombstoneWorkItem)
	require.NoError(t, err)
	assert.True(t, dead["a1"])

	stored, err := f.items.FindByID(item.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDeleteUnlinkedItemLeavesNoTombstone(t *testing.T) {
	f := newCourseFixture()
	item := &domain.WorkItem{UserID: "user-1", Title: "Groceries"}
	require.NoError(t, f.items.Create(item))

	require.NoError(t, f.u.DeleteWorkItem("user-1", item.ID))
	assert.Empty(t, f.tombstones.created)
}

func TestWorkItemOwnershipEnforced(t *testing.T) {
	f := newCourseFixture()
	item := &domain.WorkItem{UserID: "user-1", Title: "Essay"}
	require.NoError(t, f.items.Create(item))

	_, err := f.u.GetWorkItem("user-2", item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.u.DeleteWorkItem("user-2", item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteLinkedCourseAndEventLeaveTombstones(t *testing.T) {
	f := newCourseFixture()
	course := &domain.Course{UserID: "user-1", Name: "Bio 101", Provider: "canvas", RemoteID: "101"}
	require.NoError(t, f.courses.Create(course))
	event := &domain.CalendarEvent{UserID: "user-1", Title: "Midterm", StartsAt: time.Now(), Provider: "canvas", RemoteID: "e1"}
	require.NoError(t, f.events.Create(event))

	require.NoError(t, f.u.DeleteCourse("user-1", course.ID))
	require.NoError(t, f.u.DeleteEvent("user-1", event.ID))

	deadCourses, err := f.tombstones.RemoteIDs("user-1", "canvas", domain.TombstoneCourse)
	require.NoError(t, err)
	assert.True(t, deadCourses["101"])

	deadEvents, err := f.tombstones.RemoteIDs("user-1", "canvas", domain.TombstoneEvent)
	require.NoError(t, err)
	assert.True(t, deadEvents["e1"])
}

func TestUpdateWorkItemStatusDirect(t *testing.T) {
	f := newCourseFixture()
	item := &domain.WorkItem{UserID: "user-1", Title: "Essay", Status: domain.WorkItemStatusPending}
	require.NoError(t, f.items.Create(item))

	status := domain.WorkItemStatusInProgress
	resp, err := f.u.UpdateWorkItem("user-1", item.ID, &dto.WorkItemUpdateRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.WorkItemStatusInProgress, resp.Status)
}
