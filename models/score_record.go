package models

import "time"

// ScoreRecord is an accepted submission as handed to ranking storage. Only
// records that passed validation and a confirmation tier land here.
type ScoreRecord struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	SubmissionID string `gorm:"size:64;uniqueIndex;not null"`
	SubmitterID  string `gorm:"size:64;index;not null"`
	CommunityID  string `gorm:"size:64;index;not null"`

	Score      int64  `gorm:"not null"`
	Phase      string `gorm:"size:8"`
	Day        string `gorm:"size:8"`
	ServerID   int
	Guild      string `gorm:"size:8"`
	PlayerName string `gorm:"size:64"`

	Overall          float64
	ManuallyVerified bool
	GuildFromCache   bool
}
