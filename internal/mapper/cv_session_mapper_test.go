package mapper

import (
	"testing"
	"time"

	"cv-evaluator-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCvSessionMapper_KeepsHistoryOrder(t *testing.T) {
	m := NewCvSessionMapper()
	now := time.Now().UTC().Truncate(time.Second)
	in := &entity.CvSession{
		Id:         "3f1c2a7e-9b7d-4c1e-8f0a-2b5d6c7e8f90",
		UserId:     "alice",
		CvSections: entity.CvSections{Skills: "Go"},
		ChatHistory: []entity.ChatTurn{
			{Role: entity.ChatRoleUser, Content: "q", CreatedAt: now},
			{Role: entity.ChatRoleAssistant, Content: "a", CreatedAt: now},
		},
		PromptCount: 1,
		MaxPrompts:  10,
		Generation:  2,
		CreatedAt:   now,
	}

	mdl, err := m.ToModel(in)
	require.NoError(t, err)
	assert.Equal(t, "Go", mdl.CvSections.Data().Skills)

	out := m.ToEntity(mdl)
	assert.Equal(t, in, out)
}

func TestCvSessionMapper_RejectsNonUUID(t *testing.T) {
	_, err := NewCvSessionMapper().ToModel(&entity.CvSession{Id: "nope"})
	assert.Error(t, err)
}
