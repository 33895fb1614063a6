package notification

import "time"

// Notification types
const (
	TypeProviderAuth = "provider_auth" // credential expired, reconnect required
	TypeAnnouncement = "announcement"  // imported LMS announcement
	TypeReminder     = "reminder"      // work item due soon
)

// Notification is a persisted message for the user. Announcement and
// reminder notifications carry a remote key so the same source item is
// never imported twice; the key is a real unique index, not a substring
// match on the message text.
type Notification struct {
	ID      string `json:"id" gorm:"primaryKey"`
	UserID  string `json:"user_id" gorm:"index;uniqueIndex:idx_notification_remote;not null"`
	Type    string `json:"type" gorm:"index;not null"`
	Title   string `json:"title" gorm:"not null"`
	Message string `json:"message"`

	// Source key; RemoteID is NULL for notifications without a remote
	// origin so the unique index only binds imported items
	Provider string  `json:"provider,omitempty" gorm:"uniqueIndex:idx_notification_remote"`
	RemoteID *string `json:"remote_id,omitempty" gorm:"uniqueIndex:idx_notification_remote"`
	Category string  `json:"category,omitempty" gorm:"uniqueIndex:idx_notification_remote"`

	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
