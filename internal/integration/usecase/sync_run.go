package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	coursedomain "studydash-backend/internal/course/domain"
	"studydash-backend/internal/integration/domain"
	"studydash-backend/internal/integration/merge"
	"studydash-backend/internal/integration/provider"
	"studydash-backend/pkg/htmltext"
)

const (
	// eventWindow bounds how far ahead calendar events are pulled
	eventWindow = 3 // months

	// announcementLookback bounds how far back announcements are pulled
	announcementLookback = 14 * 24 * time.Hour

	// preReadAge is how old an announcement may be before it is
	// imported already marked read, so a first sync does not flood the
	// unread list with stale notices
	preReadAge = 48 * time.Hour
)

// Sync runs one synchronization. Categories run in dependency order and
// failures inside one category never abort the others; only an auth
// failure stops the run.
func (u *integrationUsecase) Sync(ctx context.Context, userID, providerName string, toggles *domain.CategoryToggles) (*domain.SyncResult, error) {
	cred, err := u.creds.FindByUserAndProvider(userID, providerName)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, domain.ErrNotConnected
	}
	if !cred.SyncEnabled {
		return nil, domain.ErrSyncDisabled
	}

	if !u.tryLock(userID, providerName) {
		return nil, domain.ErrSyncInProgress
	}
	defer u.unlock(userID, providerName)

	adapter, err := u.newAdapter(cred.Provider, cred.BaseURL)
	if err != nil {
		return nil, err
	}

	result := &domain.SyncResult{Provider: cred.Provider, StartedAt: time.Now()}
	defer func() { result.FinishedAt = time.Now() }()

	token, err := u.vault.ValidToken(ctx, adapter, cred)
	if err != nil {
		if domain.IsAuthError(err) {
			u.failAuth(result, userID, adapter)
		}
		return result, err
	}

	run := &syncRun{
		u:       u,
		ctx:     ctx,
		adapter: adapter,
		cred:    cred,
		token:   token,
		result:  result,
	}

	courses, assignments, grades, events, announcements := toggles.Effective(cred)

	if err := run.syncCourses(courses); err != nil {
		u.failAuth(result, userID, adapter)
		return result, err
	}
	if err := run.loadCourseMap(); err != nil {
		return result, err
	}
	if err := run.syncAssignments(assignments); err != nil {
		u.failAuth(result, userID, adapter)
		return result, err
	}
	if err := run.syncGrades(grades); err != nil {
		u.failAuth(result, userID, adapter)
		return result, err
	}
	if err := run.syncEvents(events); err != nil {
		u.failAuth(result, userID, adapter)
		return result, err
	}
	if err := run.syncAnnouncements(announcements); err != nil {
		u.failAuth(result, userID, adapter)
		return result, err
	}

	if err := u.creds.UpdateLastSynced(cred.ID, time.Now()); err != nil {
		log.Printf("[Sync] Failed to record last sync time for %s/%s: %v", userID, providerName, err)
	}

	log.Printf("[Sync] User %s provider %s: %d created, %d errors", userID, providerName, result.TotalCreated(), result.TotalErrors())
	return result, nil
}

// failAuth marks the run as stopped by a credential failure and raises
// the reconnect notification
func (u *integrationUsecase) failAuth(result *domain.SyncResult, userID string, adapter provider.Adapter) {
	result.AuthFailed = true
	if err := u.notifications.NotifyTokenExpired(userID, adapter.Name(), adapter.DisplayName()); err != nil {
		log.Printf("[Sync] Failed to create token-expired notification: %v", err)
	}
}

// withRetry retries transient provider failures up to twice with a
// doubling backoff. Auth failures and local failures never retry.
func (u *integrationUsecase) withRetry(ctx context.Context, fn func() error) error {
	backoff := u.retryBase
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || attempt >= 2 {
			return err
		}
		if domain.IsAuthError(err) {
			return err
		}
		var provErr *domain.ProviderError
		if !errors.As(err, &provErr) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// syncRun carries the state of one run between categories
type syncRun struct {
	u       *integrationUsecase
	ctx     context.Context
	adapter provider.Adapter
	cred    *domain.Credential
	token   string
	result  *domain.SyncResult

	// local linked courses keyed by remote course id
	courseByRemote map[string]*coursedomain.Course
}

// deepLink wraps the provider UI link for an entity
func (r *syncRun) deepLink(url string) []htmltext.Link {
	if url == "" {
		return nil
	}
	return []htmltext.Link{{Label: "Open in " + r.adapter.DisplayName(), URL: url}}
}

func (r *syncRun) syncCourses(enabled bool) error {
	if !enabled {
		return nil
	}
	userID, prov := r.cred.UserID, r.cred.Provider

	var remote []domain.RemoteCourse
	err := r.u.withRetry(r.ctx, func() error {
		var listErr error
		remote, listErr = r.adapter.ListCourses(r.ctx, r.token)
		return listErr
	})
	if err != nil {
		if domain.IsAuthError(err) {
			return err
		}
		r.result.Courses.Errors = append(r.result.Courses.Errors, err.Error())
		return nil
	}

	dead, err := r.u.tombstones.RemoteIDs(userID, prov, coursedomain.TombstoneCourse)
	if err != nil {
		r.result.Courses.Errors = append(r.result.Courses.Errors, (&domain.LocalStoreError{Op: "load course tombstones", Err: err}).Error())
		return nil
	}

	for _, rc := range remote {
		if dead[rc.ID] {
			continue
		}

		existing, err := r.u.courses.FindByProviderLink(userID, prov, rc.ID)
		if err != nil {
			r.result.Courses.Errors = append(r.result.Courses.Errors, (&domain.LocalStoreError{Op: "lookup course " + rc.ID, Err: err}).Error())
			continue
		}

		if existing == nil {
			course := &coursedomain.Course{
				UserID:    userID,
				Name:      rc.Name,
				Code:      rc.Code,
				StartDate: rc.StartsAt,
				EndDate:   rc.EndsAt,
				Links:     merge.Links(nil, r.deepLink(rc.URL)),
				Provider:  prov,
				RemoteID:  rc.ID,
			}
			if err := r.u.courses.Create(course); err != nil {
				r.result.Courses.Errors = append(r.result.Courses.Errors, (&domain.LocalStoreError{Op: "create course " + rc.ID, Err: err}).Error())
				continue
			}
			r.result.Courses.Created++
			continue
		}

		// Name, code and term are the user's once the course exists;
		// only the link list is refreshed
		existing.Links = merge.Links(existing.Links, r.deepLink(rc.URL))
		if err := r.u.courses.Update(existing); err != nil {
			r.result.Courses.Errors = append(r.result.Courses.Errors, (&domain.LocalStoreError{Op: "update course " + rc.ID, Err: err}).Error())
			continue
		}
		r.result.Courses.Updated++
	}
	return nil
}

// loadCourseMap rebuilds the remote-to-local course map from the store,
// so later categories work even when the courses category was skipped
func (r *syncRun) loadCourseMap() error {
	linked, err := r.u.courses.FindLinkedByProvider(r.cred.UserID, r.cred.Provider)
	if err != nil {
		return &domain.LocalStoreError{Op: "load linked courses", Err: err}
	}
	r.courseByRemote = make(map[string]*coursedomain.Course, len(linked))
	for _, course := range linked {
		r.courseByRemote[course.RemoteID] = course
	}
	return nil
}

func (r *syncRun) syncAssignments(enabled bool) error {
	if !enabled {
		return nil
	}
	userID, prov := r.cred.UserID, r.cred.Provider

	dead, err := r.u.tombstones.RemoteIDs(userID, prov, coursedomain.TombstoneWorkItem)
	if err != nil {
		r.result.Assignments.Errors = append(r.result.Assignments.Errors, (&domain.LocalStoreError{Op: "load work item tombstones", Err: err}).Error())
		return nil
	}

	for remoteCourseID, course := range r.courseByRemote {
		var remote []domain.RemoteAssignment
		err := r.u.withRetry(r.ctx, func() error {
			var listErr error
			remote, listErr = r.adapter.ListAssignments(r.ctx, r.token, remoteCourseID)
			return listErr
		})
		if err != nil {
			if domain.IsAuthError(err) {
				return err
			}
			r.result.Assignments.Errors = append(r.result.Assignments.Errors, fmt.Sprintf("course %s: %v", course.Name, err))
			continue
		}

		for _, ra := range remote {
			if dead[ra.ID] {
				continue
			}
			if err := r.upsertWorkItem(course, &ra); err != nil {
				r.result.Assignments.Errors = append(r.result.Assignments.Errors, err.Error())
			}
		}
	}
	return nil
}

func (r *syncRun) upsertWorkItem(course *coursedomain.Course, ra *domain.RemoteAssignment) error {
	userID, prov := r.cred.UserID, r.cred.Provider

	existing, err := r.u.items.FindByProviderLink(userID, prov, ra.ID)
	if err != nil {
		return &domain.LocalStoreError{Op: "lookup work item " + ra.ID, Err: err}
	}

	providerLinks := append(r.deepLink(ra.URL), htmltext.ExtractLinks(ra.DescriptionHTML)...)
	notes := htmltext.ToPlainText(ra.DescriptionHTML)

	if existing == nil {
		status := coursedomain.WorkItemStatusPending
		if ra.Complete() {
			status = coursedomain.WorkItemStatusCompleted
		}
		item := &coursedomain.WorkItem{
			UserID:         userID,
			CourseID:       course.ID,
			Title:          ra.Name,
			Type:           coursedomain.WorkItemAssignment,
			Status:         status,
			DueDate:        ra.DueAt,
			PointsPossible: ra.PointsPossible,
			Score:          ra.Score,
			GradedAt:       ra.GradedAt,
			ProviderNotes:  notes,
			Links:          merge.Links(nil, providerLinks),
			Provider:       prov,
			RemoteID:       ra.ID,
		}
		if err := r.u.items.Create(item); err != nil {
			return &domain.LocalStoreError{Op: "create work item " + ra.ID, Err: err}
		}
		r.result.Assignments.Created++
		return nil
	}

	// Title and type are user-owned; everything the provider owns is
	// overwritten, and the status only ever ratchets forward
	existing.DueDate = ra.DueAt
	existing.PointsPossible = ra.PointsPossible
	if ra.Score != nil {
		existing.Score = ra.Score
	}
	if ra.GradedAt != nil {
		existing.GradedAt = ra.GradedAt
	}
	existing.ProviderNotes = notes
	existing.Links = merge.Links(existing.Links, providerLinks)
	existing.Status = merge.PromoteStatus(existing.Status, ra.Complete())

	if err := r.u.items.Update(existing); err != nil {
		return &domain.LocalStoreError{Op: "update work item " + ra.ID, Err: err}
	}
	r.result.Assignments.Updated++
	return nil
}

func (r *syncRun) syncGrades(enabled bool) error {
	if !enabled || !r.adapter.HasGradeFeed() {
		return nil
	}
	userID, prov := r.cred.UserID, r.cred.Provider

	for remoteCourseID, course := range r.courseByRemote {
		var remote []domain.RemoteGrade
		err := r.u.withRetry(r.ctx, func() error {
			var listErr error
			remote, listErr = r.adapter.ListGrades(r.ctx, r.token, remoteCourseID)
			return listErr
		})
		if err != nil {
			if domain.IsAuthError(err) {
				return err
			}
			r.result.Grades.Errors = append(r.result.Grades.Errors, fmt.Sprintf("course %s: %v", course.Name, err))
			continue
		}

		for _, rg := range remote {
			item, err := r.u.items.FindByProviderLink(userID, prov, rg.AssignmentID)
			if err != nil {
				r.result.Grades.Errors = append(r.result.Grades.Errors, (&domain.LocalStoreError{Op: "lookup work item " + rg.AssignmentID, Err: err}).Error())
				continue
			}
			if item == nil {
				// Grade for an assignment that was never synced, or was
				// deleted and tombstoned
				continue
			}

			if rg.Score != nil {
				item.Score = rg.Score
			}
			if rg.GradedAt != nil {
				item.GradedAt = rg.GradedAt
			}
			item.Status = merge.PromoteStatus(item.Status, rg.Complete())

			if err := r.u.items.Update(item); err != nil {
				r.result.Grades.Errors = append(r.result.Grades.Errors, (&domain.LocalStoreError{Op: "update work item " + rg.AssignmentID, Err: err}).Error())
				continue
			}
			r.result.Grades.Updated++
		}
	}
	return nil
}

func (r *syncRun) syncEvents(enabled bool) error {
	if !enabled {
		return nil
	}
	userID, prov := r.cred.UserID, r.cred.Provider

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, eventWindow, 0)

	var remote []domain.RemoteEvent
	err := r.u.withRetry(r.ctx, func() error {
		var listErr error
		remote, listErr = r.adapter.ListEvents(r.ctx, r.token, from, to)
		return listErr
	})
	if err != nil {
		if domain.IsAuthError(err) {
			return err
		}
		r.result.Events.Errors = append(r.result.Events.Errors, err.Error())
		return nil
	}

	dead, err := r.u.tombstones.RemoteIDs(userID, prov, coursedomain.TombstoneEvent)
	if err != nil {
		r.result.Events.Errors = append(r.result.Events.Errors, (&domain.LocalStoreError{Op: "load event tombstones", Err: err}).Error())
		return nil
	}

	for _, re := range remote {
		if dead[re.ID] {
			continue
		}

		existing, err := r.u.events.FindByProviderLink(userID, prov, re.ID)
		if err != nil {
			r.result.Events.Errors = append(r.result.Events.Errors, (&domain.LocalStoreError{Op: "lookup event " + re.ID, Err: err}).Error())
			continue
		}

		if existing == nil {
			event := &coursedomain.CalendarEvent{
				UserID:      userID,
				Title:       re.Title,
				Description: htmltext.ToPlainText(re.DescriptionHTML),
				StartsAt:    re.StartsAt,
				EndsAt:      re.EndsAt,
				Location:    re.Location,
				Provider:    prov,
				RemoteID:    re.ID,
			}
			if err := r.u.events.Create(event); err != nil {
				r.result.Events.Errors = append(r.result.Events.Errors, (&domain.LocalStoreError{Op: "create event " + re.ID, Err: err}).Error())
				continue
			}
			r.result.Events.Created++
			continue
		}

		// Title stays with the user; time and place follow the provider
		existing.Description = htmltext.ToPlainText(re.DescriptionHTML)
		existing.StartsAt = re.StartsAt
		existing.EndsAt = re.EndsAt
		existing.Location = re.Location
		if err := r.u.events.Update(existing); err != nil {
			r.result.Events.Errors = append(r.result.Events.Errors, (&domain.LocalStoreError{Op: "update event " + re.ID, Err: err}).Error())
			continue
		}
		r.result.Events.Updated++
	}
	return nil
}

func (r *syncRun) syncAnnouncements(enabled bool) error {
	if !enabled || len(r.courseByRemote) == 0 {
		return nil
	}
	userID, prov := r.cred.UserID, r.cred.Provider

	courseIDs := make([]string, 0, len(r.courseByRemote))
	for remoteID := range r.courseByRemote {
		courseIDs = append(courseIDs, remoteID)
	}

	since := time.Now().Add(-announcementLookback)

	var remote []domain.RemoteAnnouncement
	err := r.u.withRetry(r.ctx, func() error {
		var listErr error
		remote, listErr = r.adapter.ListAnnouncements(r.ctx, r.token, courseIDs, since)
		return listErr
	})
	if err != nil {
		if domain.IsAuthError(err) {
			return err
		}
		r.result.Announcements.Errors = append(r.result.Announcements.Errors, err.Error())
		return nil
	}

	dead, err := r.u.tombstones.RemoteIDs(userID, prov, coursedomain.TombstoneAnnouncement)
	if err != nil {
		r.result.Announcements.Errors = append(r.result.Announcements.Errors, (&domain.LocalStoreError{Op: "load announcement tombstones", Err: err}).Error())
		return nil
	}

	for _, ra := range remote {
		if dead[ra.ID] {
			continue
		}

		title := ra.Title
		if course, ok := r.courseByRemote[ra.CourseID]; ok {
			title = course.Name + ": " + ra.Title
		}

		markRead := !ra.PostedAt.IsZero() && time.Since(ra.PostedAt) > preReadAge

		created, err := r.u.notifications.ImportAnnouncement(userID, prov, ra.ID, title, htmltext.ToPlainText(ra.BodyHTML), markRead)
		if err != nil {
			r.result.Announcements.Errors = append(r.result.Announcements.Errors, (&domain.LocalStoreError{Op: "import announcement " + ra.ID, Err: err}).Error())
			continue
		}
		if created {
			r.result.Announcements.Created++
		}
	}
	return nil
}
