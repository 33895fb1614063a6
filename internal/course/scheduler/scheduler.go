package scheduler

import (
	"fmt"
	"log"
	"time"

	"studydash-backend/internal/course/repository"
	"studydash-backend/internal/notification"
)

// reminderHorizon is how far ahead a due date may be before the
// reminder fires
const reminderHorizon = 24 * time.Hour

// DueReminderScheduler raises a notification for work items due within
// the horizon. The notification sink dedupes per item, so re-scanning
// the same item on every tick is harmless.
type DueReminderScheduler struct {
	items         repository.WorkItemRepository
	notifications *notification.Service
	interval      time.Duration
	stopChan      chan struct{}
}

func NewDueReminderScheduler(items repository.WorkItemRepository, notifications *notification.Service) *DueReminderScheduler {
	return &DueReminderScheduler{
		items:         items,
		notifications: notifications,
		interval:      15 * time.Minute,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *DueReminderScheduler) Start() {
	log.Printf("[ReminderScheduler] Starting due reminder scheduler (interval: %s)", s.interval)

	go func() {
		// Run immediately on start
		s.checkDueSoon()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.checkDueSoon()
			case <-s.stopChan:
				log.Println("[ReminderScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *DueReminderScheduler) Stop() {
	close(s.stopChan)
}

// checkDueSoon finds not-completed work items due within the horizon
// and raises one reminder each
func (s *DueReminderScheduler) checkDueSoon() {
	now := time.Now()

	items, err := s.items.FindDueBetween(now, now.Add(reminderHorizon))
	if err != nil {
		log.Printf("[ReminderScheduler] Error finding due items: %v", err)
		return
	}

	for _, item := range items {
		title := "Due soon: " + item.Title
		message := fmt.Sprintf("%q is due %s.", item.Title, item.DueDate.Format("Mon Jan 2 at 15:04"))

		if err := s.notifications.RemindWorkItemDue(item.UserID, item.ID, title, message); err != nil {
			log.Printf("[ReminderScheduler] Error creating reminder for item %s: %v", item.ID, err)
		}
	}
}
