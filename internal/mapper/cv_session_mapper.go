package mapper

import (
	"cv-evaluator-be/internal/entity"
	"cv-evaluator-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CvSessionMapper struct{}

func NewCvSessionMapper() *CvSessionMapper {
	return &CvSessionMapper{}
}

func (m *CvSessionMapper) ToEntity(s *model.CvSession) *entity.CvSession {
	if s == nil {
		return nil
	}

	sections := s.CvSections.Data()
	history := make([]entity.ChatTurn, 0, len(s.ChatHistory))
	for _, t := range s.ChatHistory {
		history = append(history, entity.ChatTurn{
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.CreatedAt,
		})
	}

	return &entity.CvSession{
		Id:     s.Id.String(),
		UserId: s.UserId,
		CvText: s.CvText,
		CvSections: entity.CvSections{
			Contact:    sections.Contact,
			Summary:    sections.Summary,
			Experience: sections.Experience,
			Education:  sections.Education,
			Skills:     sections.Skills,
		},
		CvFilename:  s.CvFilename,
		NumPages:    s.NumPages,
		ChatHistory: history,
		PromptCount: s.PromptCount,
		MaxPrompts:  s.MaxPrompts,
		Generation:  s.Generation,
		CreatedAt:   s.CreatedAt,
	}
}

// ToModel fails only when the entity id is not a UUID.
func (m *CvSessionMapper) ToModel(s *entity.CvSession) (*model.CvSession, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(s.Id)
	if err != nil {
		return nil, err
	}

	return &model.CvSession{
		Id:     id,
		UserId: s.UserId,
		CvText: s.CvText,
		CvSections: datatypes.NewJSONType(model.CvSectionsColumn{
			Contact:    s.CvSections.Contact,
			Summary:    s.CvSections.Summary,
			Experience: s.CvSections.Experience,
			Education:  s.CvSections.Education,
			Skills:     s.CvSections.Skills,
		}),
		CvFilename:  s.CvFilename,
		NumPages:    s.NumPages,
		ChatHistory: m.TurnsToModel(s.ChatHistory),
		PromptCount: s.PromptCount,
		MaxPrompts:  s.MaxPrompts,
		Generation:  s.Generation,
		CreatedAt:   s.CreatedAt,
	}, nil
}

func (m *CvSessionMapper) TurnsToModel(turns []entity.ChatTurn) datatypes.JSONSlice[model.ChatTurnColumn] {
	cols := make([]model.ChatTurnColumn, 0, len(turns))
	for _, t := range turns {
		cols = append(cols, model.ChatTurnColumn{
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.CreatedAt,
		})
	}
	return datatypes.NewJSONSlice(cols)
}
