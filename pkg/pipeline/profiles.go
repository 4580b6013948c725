package pipeline

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"svsboard/models"
)

// ProfileStore wraps the player_profiles table. Updates are scoped per
// submitter id; there is no cross-submitter locking to take.
type ProfileStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Get returns the submitter's profile, or nil when none exists yet.
func (s *ProfileStore) Get(submitterID string) (*models.PlayerProfile, error) {
	var p models.PlayerProfile
	err := s.db.Where("submitter_id = ?", submitterID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile get: %w", err)
	}
	return &p, nil
}

// Upsert creates or refreshes the one profile row for a submitter. Empty
// incoming values never clobber known ones, and the player name is only
// written when allowName says so (the name lock rules live in the caller).
func (s *ProfileStore) Upsert(submitterID string, serverID int, guild, name string, allowName bool) error {
	now := time.Now()
	var p models.PlayerProfile
	err := s.db.Where("submitter_id = ?", submitterID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = models.PlayerProfile{
			SubmitterID: submitterID,
			ServerID:    serverID,
			Guild:       guild,
			PlayerName:  name,
			FirstSeen:   now,
			LastSeen:    now,
		}
		if err := s.db.Create(&p).Error; err != nil {
			return fmt.Errorf("profile create: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("profile upsert: %w", err)
	}
	if serverID != 0 {
		p.ServerID = serverID
	}
	if guild != "" {
		p.Guild = guild
	}
	if allowName && name != "" {
		p.PlayerName = name
	}
	p.LastSeen = now
	if err := s.db.Save(&p).Error; err != nil {
		return fmt.Errorf("profile save: %w", err)
	}
	return nil
}

// ApplyNameChange records an explicitly confirmed rename and arms a fresh
// name lock. This is the only path that may change the name while a lock is
// active.
func (s *ProfileStore) ApplyNameChange(submitterID, newName string, lockUntil time.Time) error {
	now := time.Now()
	var p models.PlayerProfile
	err := s.db.Where("submitter_id = ?", submitterID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = models.PlayerProfile{
			SubmitterID: submitterID,
			PlayerName:  newName,
			FirstSeen:   now,
			LastSeen:    now,
			NameLocked:  true,
		}
		p.NameLockedUntil = &lockUntil
		if err := s.db.Create(&p).Error; err != nil {
			return fmt.Errorf("profile create: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("name change: %w", err)
	}
	p.PlayerName = newName
	p.NameLocked = true
	p.NameLockedUntil = &lockUntil
	p.LastSeen = now
	if err := s.db.Save(&p).Error; err != nil {
		return fmt.Errorf("name change save: %w", err)
	}
	return nil
}
