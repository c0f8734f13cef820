package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CvSectionsColumn struct {
	Contact    string `json:"contact,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Experience string `json:"experience,omitempty"`
	Education  string `json:"education,omitempty"`
	Skills     string `json:"skills,omitempty"`
}

type ChatTurnColumn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type CvSession struct {
	Id          uuid.UUID                            `gorm:"type:uuid;primaryKey"`
	UserId      string                               `gorm:"type:varchar(100);not null;index"`
	CvText      string                               `gorm:"type:text;not null"`
	CvSections  datatypes.JSONType[CvSectionsColumn] `gorm:"type:jsonb;not null"`
	CvFilename  string                               `gorm:"type:text;not null"`
	NumPages    int                                  `gorm:"not null;default:0"`
	ChatHistory datatypes.JSONSlice[ChatTurnColumn]  `gorm:"type:jsonb;not null"`
	PromptCount int                                  `gorm:"not null;default:0;check:prompt_count >= 0"`
	MaxPrompts  int                                  `gorm:"not null"`
	Generation  int                                  `gorm:"not null;default:0"`
	CreatedAt   time.Time                            `gorm:"not null;index"`
}

func (CvSession) TableName() string {
	return "cv_sessions"
}
