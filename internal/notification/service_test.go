package notification

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	nextID int
	all    []*Notification
}

func (r *memRepo) Create(n *Notification) error {
	r.nextID++
	n.ID = "notif-" + strconv.Itoa(r.nextID)
	copied := *n
	r.all = append(r.all, &copied)
	return nil
}

func (r *memRepo) FindByUserID(userID string, unreadOnly bool) ([]*Notification, error) {
	var out []*Notification
	for _, n := range r.all {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *memRepo) HasUnreadByType(userID, ntype, provider string) (bool, error) {
	for _, n := range r.all {
		if n.UserID == userID && n.Type == ntype && n.Provider == provider && !n.IsRead {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) ExistsByRemote(userID, provider, remoteID, category string) (bool, error) {
	for _, n := range r.all {
		if n.UserID == userID && n.Provider == provider && n.Category == category && n.RemoteID != nil && *n.RemoteID == remoteID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) MarkRead(userID, id string) error {
	for _, n := range r.all {
		if n.UserID == userID && n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

func TestNotifyTokenExpiredDedupesWhileUnread(t *testing.T) {
	repo := &memRepo{}
	service := NewService(repo)

	require.NoError(t, service.NotifyTokenExpired("user-1", "canvas", "Canvas"))
	require.NoError(t, service.NotifyTokenExpired("user-1", "canvas", "Canvas"))
	assert.Len(t, repo.all, 1)
	assert.Contains(t, repo.all[0].Title, "Canvas")

	// Once the user reads the notice, a later failure may raise a new one
	require.NoError(t, repo.MarkRead("user-1", repo.all[0].ID))
	require.NoError(t, service.NotifyTokenExpired("user-1", "canvas", "Canvas"))
	assert.Len(t, repo.all, 2)
}

func TestNotifyTokenExpiredPerProvider(t *testing.T) {
	repo := &memRepo{}
	service := NewService(repo)

	require.NoError(t, service.NotifyTokenExpired("user-1", "canvas", "Canvas"))
	require.NoError(t, service.NotifyTokenExpired("user-1", "moodle", "Moodle"))
	assert.Len(t, repo.all, 2)
}

func TestImportAnnouncementIdempotent(t *testing.T) {
	repo := &memRepo{}
	service := NewService(repo)

	created, err := service.ImportAnnouncement("user-1", "canvas", "n1", "Welcome", "Hi", false)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = service.ImportAnnouncement("user-1", "canvas", "n1", "Welcome", "Hi", false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, repo.all, 1)

	// Same remote id from a different provider is a different notice
	created, err = service.ImportAnnouncement("user-1", "moodle", "n1", "Welcome", "Hi", false)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestImportAnnouncementPreRead(t *testing.T) {
	repo := &memRepo{}
	service := NewService(repo)

	_, err := service.ImportAnnouncement("user-1", "canvas", "old", "Old news", "stale", true)
	require.NoError(t, err)

	unread, err := service.List("user-1", true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestRemindWorkItemDueOnce(t *testing.T) {
	repo := &memRepo{}
	service := NewService(repo)

	require.NoError(t, service.RemindWorkItemDue("user-1", "item-1", "Due soon: Essay", "due tomorrow"))
	require.NoError(t, service.RemindWorkItemDue("user-1", "item-1", "Due soon: Essay", "due tomorrow"))
	assert.Len(t, repo.all, 1)
	assert.Equal(t, TypeReminder, repo.all[0].Type)
}
