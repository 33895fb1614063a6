package usecase

import (
	"time"

	"studydash-backend/internal/course/domain"
	"studydash-backend/internal/course/dto"
	"studydash-backend/internal/course/repository"
	"studydash-backend/internal/integration/merge"
)

// CourseUsecase owns user-facing CRUD over courses, work items and
// calendar events. Deleting a provider-linked entity leaves a tombstone
// so the next sync does not resurrect it.
type CourseUsecase interface {
	CreateCourse(userID string, req *dto.CourseRequest) (*domain.Course, error)
	ListCourses(userID string) ([]*domain.Course, error)
	GetCourse(userID, id string) (*domain.Course, error)
	UpdateCourse(userID, id string, req *dto.CourseUpdateRequest) (*domain.Course, error)
	DeleteCourse(userID, id string) error

	CreateWorkItem(userID string, req *dto.WorkItemRequest) (*dto.WorkItemResponse, error)
	ListWorkItems(userID string, status *domain.WorkItemStatus) ([]*dto.WorkItemResponse, error)
	GetWorkItem(userID, id string) (*dto.WorkItemResponse, error)
	UpdateWorkItem(userID, id string, req *dto.WorkItemUpdateRequest) (*dto.WorkItemResponse, error)
	DeleteWorkItem(userID, id string) error

	CreateEvent(userID string, req *dto.EventRequest) (*domain.CalendarEvent, error)
	ListEvents(userID string, from, to *time.Time) ([]*domain.CalendarEvent, error)
	UpdateEvent(userID, id string, req *dto.EventUpdateRequest) (*domain.CalendarEvent, error)
	DeleteEvent(userID, id string) error
}

type courseUsecase struct {
	courses    repository.CourseRepository
	items      repository.WorkItemRepository
	events     repository.EventRepository
	tombstones repository.TombstoneRepository
}

func NewCourseUsecase(
	courses repository.CourseRepository,
	items repository.WorkItemRepository,
	events repository.EventRepository,
	tombstones repository.TombstoneRepository,
) CourseUsecase {
	return &courseUsecase{
		courses:    courses,
		items:      items,
		events:     events,
		tombstones: tombstones,
	}
}

func (u *courseUsecase) CreateCourse(userID string, req *dto.CourseRequest) (*domain.Course, error) {
	course := &domain.Course{
		UserID:    userID,
		Name:      req.Name,
		Code:      req.Code,
		Term:      req.Term,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Links:     req.Links,
	}
	if err := u.courses.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (u *courseUsecase) ListCourses(userID string) ([]*domain.Course, error) {
	return u.courses.FindByUserID(userID)
}

func (u *courseUsecase) GetCourse(userID, id string) (*domain.Course, error) {
	course, err := u.courses.FindByID(id)
	if err != nil {
		return nil, err
	}
	if course == nil || course.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return course, nil
}

func (u *courseUsecase) UpdateCourse(userID, id string, req *dto.CourseUpdateRequest) (*domain.Course, error) {
	course, err := u.GetCourse(userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Code != nil {
		course.Code = *req.Code
	}
	if req.Term != nil {
		course.Term = *req.Term
	}
	if req.StartDate != nil {
		course.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		course.EndDate = req.EndDate
	}
	if req.Links != nil {
		course.Links = *req.Links
	}

	if err := u.courses.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (u *courseUsecase) DeleteCourse(userID, id string) error {
	course, err := u.GetCourse(userID, id)
	if err != nil {
		return err
	}
	if course.Linked() {
		tombstone := &domain.Tombstone{
			UserID:   userID,
			Provider: course.Provider,
			RemoteID: course.RemoteID,
			Category: domain.TombstoneCourse,
		}
		if err := u.tombstones.Create(tombstone); err != nil {
			return err
		}
	}
	return u.courses.Delete(course.ID)
}

// workItemResponse renders the combined notes blob for the client
func workItemResponse(item *domain.WorkItem) *dto.WorkItemResponse {
	return &dto.WorkItemResponse{
		WorkItem: item,
		Notes:    merge.Render(item.UserNotes, item.ProviderNotes),
	}
}

func (u *courseUsecase) CreateWorkItem(userID string, req *dto.WorkItemRequest) (*dto.WorkItemResponse, error) {
	if req.CourseID != "" {
		if _, err := u.GetCourse(userID, req.CourseID); err != nil {
			return nil, err
		}
	}

	itemType := req.Type
	if itemType == "" {
		itemType = domain.WorkItemAssignment
	}

	item := &domain.WorkItem{
		UserID:         userID,
		CourseID:       req.CourseID,
		Title:          req.Title,
		Type:           itemType,
		Status:         domain.WorkItemStatusPending,
		DueDate:        req.DueDate,
		PointsPossible: req.PointsPossible,
		UserNotes:      merge.SplitBlob(req.Notes, ""),
		Links:          req.Links,
	}
	if err := u.items.Create(item); err != nil {
		return nil, err
	}
	return workItemResponse(item), nil
}

func (u *courseUsecase) ListWorkItems(userID string, status *domain.WorkItemStatus) ([]*dto.WorkItemResponse, error) {
	items, err := u.items.FindByUserID(userID, status)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.WorkItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, workItemResponse(item))
	}
	return out, nil
}

func (u *courseUsecase) GetWorkItem(userID, id string) (*dto.WorkItemResponse, error) {
	item, err := u.findWorkItem(userID, id)
	if err != nil {
		return nil, err
	}
	return workItemResponse(item), nil
}

func (u *courseUsecase) findWorkItem(userID, id string) (*domain.WorkItem, error) {
	item, err := u.items.FindByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (u *courseUsecase) UpdateWorkItem(userID, id string, req *dto.WorkItemUpdateRequest) (*dto.WorkItemResponse, error) {
	item, err := u.findWorkItem(userID, id)
	if err != nil {
		return nil, err
	}

	if req.CourseID != nil {
		if *req.CourseID != "" {
			if _, err := u.GetCourse(userID, *req.CourseID); err != nil {
				return nil, err
			}
		}
		item.CourseID = *req.CourseID
	}
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Type != nil {
		item.Type = *req.Type
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if req.DueDate != nil {
		item.DueDate = req.DueDate
	}
	if req.PointsPossible != nil {
		item.PointsPossible = req.PointsPossible
	}
	if req.Notes != nil {
		// The client edits the combined blob; only the user's side of
		// it is stored, the provider's side belongs to sync
		item.UserNotes = merge.SplitBlob(*req.Notes, item.ProviderNotes)
	}
	if req.Links != nil {
		item.Links = *req.Links
	}

	if err := u.items.Update(item); err != nil {
		return nil, err
	}
	return workItemResponse(item), nil
}

func (u *courseUsecase) DeleteWorkItem(userID, id string) error {
	item, err := u.findWorkItem(userID, id)
	if err != nil {
		return err
	}
	if item.Linked() {
		tombstone := &domain.Tombstone{
			UserID:   userID,
			Provider: item.Provider,
			RemoteID: item.RemoteID,
			Category: domain.TombstoneWorkItem,
		}
		if err := u.tombstones.Create(tombstone); err != nil {
			return err
		}
	}
	return u.items.Delete(item.ID)
}

func (u *courseUsecase) CreateEvent(userID string, req *dto.EventRequest) (*domain.CalendarEvent, error) {
	event := &domain.CalendarEvent{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Location:    req.Location,
	}
	if err := u.events.Create(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (u *courseUsecase) ListEvents(userID string, from, to *time.Time) ([]*domain.CalendarEvent, error) {
	return u.events.FindByUserID(userID, from, to)
}

func (u *courseUsecase) findEvent(userID, id string) (*domain.CalendarEvent, error) {
	event, err := u.events.FindByID(id)
	if err != nil {
		return nil, err
	}
	if event == nil || event.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return event, nil
}

func (u *courseUsecase) UpdateEvent(userID, id string, req *dto.EventUpdateRequest) (*domain.CalendarEvent, error) {
	event, err := u.findEvent(userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = req.EndsAt
	}
	if req.Location != nil {
		event.Location = *req.Location
	}

	if err := u.events.Update(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (u *courseUsecase) DeleteEvent(userID, id string) error {
	event, err := u.findEvent(userID, id)
	if err != nil {
		return err
	}
	if event.Linked() {
		tombstone := &domain.Tombstone{
			UserID:   userID,
			Provider: event.Provider,
			RemoteID: event.RemoteID,
			Category: domain.TombstoneEvent,
		}
		if err := u.tombstones.Create(tombstone); err != nil {
			return err
		}
	}
	return u.events.Delete(event.ID)
}
