package models

import "time"

// PlayerProfile is the durable per-submitter memory: last-known server,
// guild and name, used to substitute low-confidence fields. At most one row
// per submitter.
type PlayerProfile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	SubmitterID string `gorm:"size:64;uniqueIndex;not null"`
	ServerID    int
	Guild       string `gorm:"size:8"`
	PlayerName  string `gorm:"size:64"`
	FirstSeen   time.Time
	LastSeen    time.Time

	// A name lock is set only by an explicit user-confirmed name change
	// and expires on its own; OCR can never override it.
	NameLocked      bool
	NameLockedUntil *time.Time
}

// NameLockActive reports whether the lock is set and has not yet expired.
func (p *PlayerProfile) NameLockActive(now time.Time) bool {
	return p.NameLocked && p.NameLockedUntil != nil && now.Before(*p.NameLockedUntil)
}
