package specification

import (
	"time"

	"gorm.io/gorm"
)

type OwnedBy struct {
	UserId string
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserId)
}

// CreatedAfter keeps sessions that have not expired at Cutoff.
type CreatedAfter struct {
	Cutoff time.Time
}

func (s CreatedAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at > ?", s.Cutoff)
}

// CreatedAtOrBefore selects expired sessions.
type CreatedAtOrBefore struct {
	Cutoff time.Time
}

func (s CreatedAtOrBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at <= ?", s.Cutoff)
}

type PromptAvailable struct{}

func (PromptAvailable) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("prompt_count < max_prompts")
}

type PromptUsed struct{}

func (PromptUsed) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("prompt_count > 0")
}

// AtGeneration matches sessions not cleared since Generation was read.
type AtGeneration struct {
	Generation int
}

func (s AtGeneration) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("generation = ?", s.Generation)
}
