package domain

import "time"

// TombstoneCategory names the kind of entity a tombstone suppresses
type TombstoneCategory string

const (
	TombstoneCourse       TombstoneCategory = "course"
	TombstoneWorkItem     TombstoneCategory = "work_item"
	TombstoneEvent        TombstoneCategory = "event"
	TombstoneAnnouncement TombstoneCategory = "announcement"
)

// Tombstone records that the user deleted a provider-linked entity.
// Sync consults the set before any create; a matching remote id is a
// permanent veto on recreation. Tombstones are never expired and survive
// provider disconnects.
type Tombstone struct {
	ID       string            `json:"id" gorm:"primaryKey"`
	UserID   string            `json:"user_id" gorm:"uniqueIndex:idx_tombstone_key;not null"`
	Provider string            `json:"provider" gorm:"uniqueIndex:idx_tombstone_key;not null"`
	RemoteID string            `json:"remote_id" gorm:"uniqueIndex:idx_tombstone_key;not null"`
	Category TombstoneCategory `json:"category" gorm:"uniqueIndex:idx_tombstone_key;not null"`

	CreatedAt time.Time `json:"created_at"`
}
