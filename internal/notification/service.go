package notification

import (
	"fmt"
	"log"
)

// Service is the notification sink the sync engine and the reminder
// scheduler write into.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NotifyTokenExpired creates the "reconnect required" notification for a
// provider, at most one unread per user and provider. Repeated auth
// failures while the first notice is unread stay silent.
func (s *Service) NotifyTokenExpired(userID, provider, displayName string) error {
	exists, err := s.repo.HasUnreadByType(userID, TypeProviderAuth, provider)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	n := &Notification{
		UserID:   userID,
		Type:     TypeProviderAuth,
		Provider: provider,
		Title:    fmt.Sprintf("%s connection expired", displayName),
		Message:  fmt.Sprintf("Your %s credentials are no longer valid. Reconnect the integration to resume syncing.", displayName),
	}
	if err := s.repo.Create(n); err != nil {
		return err
	}

	log.Printf("[Notification] Token expired notice created for user %s provider %s", userID, provider)
	return nil
}

// ImportAnnouncement creates a notification for an LMS announcement,
// keyed by (user, provider, remote id, category). Announcements are
// immutable once imported: if the key already exists nothing happens and
// false is returned.
func (s *Service) ImportAnnouncement(userID, provider, remoteID, title, message string, markRead bool) (bool, error) {
	exists, err := s.repo.ExistsByRemote(userID, provider, remoteID, "announcement")
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	n := &Notification{
		UserID:   userID,
		Type:     TypeAnnouncement,
		Provider: provider,
		RemoteID: &remoteID,
		Category: "announcement",
		Title:    title,
		Message:  message,
		IsRead:   markRead,
	}
	if err := s.repo.Create(n); err != nil {
		return false, err
	}
	return true, nil
}

// RemindWorkItemDue creates a due-soon reminder for a work item, at most
// once per item.
func (s *Service) RemindWorkItemDue(userID, workItemID, title, message string) error {
	exists, err := s.repo.ExistsByRemote(userID, "local", workItemID, "reminder")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	n := &Notification{
		UserID:   userID,
		Type:     TypeReminder,
		Provider: "local",
		RemoteID: &workItemID,
		Category: "reminder",
		Title:    title,
		Message:  message,
	}
	return s.repo.Create(n)
}

func (s *Service) List(userID string, unreadOnly bool) ([]*Notification, error) {
	return s.repo.FindByUserID(userID, unreadOnly)
}

func (s *Service) MarkRead(userID, id string) error {
	return s.repo.MarkRead(userID, id)
}
