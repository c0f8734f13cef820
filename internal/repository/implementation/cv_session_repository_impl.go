package implementation

import (
	"context"
	"errors"
	"time"

	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/entity"
	"cv-evaluator-be/internal/mapper"
	"cv-evaluator-be/internal/model"
	"cv-evaluator-be/internal/repository/contract"
	"cv-evaluator-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CvSessionRepositoryImpl stores sessions in Postgres. Rows older than the
// session timeout are ignored by every read and removed by CleanupExpired.
type CvSessionRepositoryImpl struct {
	db         *gorm.DB
	mapper     *mapper.CvSessionMapper
	timeout    time.Duration
	maxPrompts int
}

func NewCvSessionRepository(db *gorm.DB) contract.CvSessionRepository {
	return &CvSessionRepositoryImpl{
		db:         db,
		mapper:     mapper.NewCvSessionMapper(),
		timeout:    constant.SessionTimeout,
		maxPrompts: constant.MaxPromptsPerSession,
	}
}

func (r *CvSessionRepositoryImpl) cutoff() time.Time {
	return time.Now().Add(-r.timeout)
}

// live scopes a query to unexpired rows of one session id.
func (r *CvSessionRepositoryImpl) live(db *gorm.DB, id uuid.UUID, specs ...specification.Specification) *gorm.DB {
	db = specification.Apply(db, specification.ByID{ID: id}, specification.CreatedAfter{Cutoff: r.cutoff()})
	return specification.Apply(db, specs...)
}

func (r *CvSessionRepositoryImpl) find(ctx context.Context, db *gorm.DB, id string) (*model.CvSession, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	var m model.CvSession
	err = r.live(db.WithContext(ctx), uid).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CvSessionRepositoryImpl) Create(ctx context.Context, userId, cvText string, sections entity.CvSections, filename string, numPages int) (*entity.CvSession, error) {
	s := &entity.CvSession{
		Id:          uuid.NewString(),
		UserId:      userId,
		CvText:      cvText,
		CvSections:  sections,
		CvFilename:  filename,
		NumPages:    numPages,
		ChatHistory: []entity.ChatTurn{},
		MaxPrompts:  r.maxPrompts,
		CreatedAt:   time.Now().UTC(),
	}
	m, err := r.mapper.ToModel(s)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(m), nil
}

func (r *CvSessionRepositoryImpl) Get(ctx context.Context, id string) (*entity.CvSession, error) {
	m, err := r.find(ctx, r.db, id)
	if err != nil || m == nil {
		return nil, err
	}
	return r.mapper.ToEntity(m), nil
}

func (r *CvSessionRepositoryImpl) GetByOwner(ctx context.Context, id, userId string) (*entity.CvSession, error) {
	s, err := r.Get(ctx, id)
	if err != nil || s == nil || !s.OwnedBy(userId) {
		return nil, err
	}
	return s, nil
}

func (r *CvSessionRepositoryImpl) ListByOwner(ctx context.Context, userId string) ([]*entity.CvSession, error) {
	var rows []*model.CvSession
	err := specification.Apply(r.db.WithContext(ctx),
		specification.OwnedBy{UserId: userId},
		specification.CreatedAfter{Cutoff: r.cutoff()},
		specification.OrderBy{Field: "created_at"},
	).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	sessions := make([]*entity.CvSession, 0, len(rows))
	for _, m := range rows {
		sessions = append(sessions, r.mapper.ToEntity(m))
	}
	return sessions, nil
}

func (r *CvSessionRepositoryImpl) Stats(ctx context.Context, id string) (*entity.SessionStats, error) {
	s, err := r.Get(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	return s.Stats(), nil
}

func (r *CvSessionRepositoryImpl) CheckPromptLimit(ctx context.Context, id string) (entity.PromptInfo, error) {
	m, err := r.find(ctx, r.db, id)
	if err != nil || m == nil {
		return entity.PromptInfo{Max: r.maxPrompts}, err
	}
	return entity.NewPromptInfo(m.PromptCount, m.MaxPrompts), nil
}

// withLockedSession loads one row FOR UPDATE inside a transaction.
func (r *CvSessionRepositoryImpl) withLockedSession(ctx context.Context, id string, fn func(tx *gorm.DB, s *entity.CvSession) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := r.find(ctx, tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if m == nil {
			return contract.ErrSessionNotFound
		}
		return fn(tx, r.mapper.ToEntity(m))
	})
}

func (r *CvSessionRepositoryImpl) saveChat(tx *gorm.DB, s *entity.CvSession) error {
	uid, _ := uuid.Parse(s.Id)
	return specification.Apply(tx.Model(&model.CvSession{}), specification.ByID{ID: uid}).
		Updates(map[string]interface{}{
			"chat_history": r.mapper.TurnsToModel(s.ChatHistory),
			"prompt_count": s.PromptCount,
		}).Error
}

func (r *CvSessionRepositoryImpl) AddMessage(ctx context.Context, id, role, content string) (*entity.PromptInfo, error) {
	var info *entity.PromptInfo
	err := r.withLockedSession(ctx, id, func(tx *gorm.DB, s *entity.CvSession) error {
		info = s.AddMessage(role, content, time.Now().UTC())
		if info == nil {
			return nil
		}
		return r.saveChat(tx, s)
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ReservePrompt is a single conditional UPDATE ... RETURNING, so concurrent
// callers can never push prompt_count past max_prompts and the generation
// read back is the one the slot was taken in.
func (r *CvSessionRepositoryImpl) ReservePrompt(ctx context.Context, id string) (entity.Reservation, bool, error) {
	none := entity.Reservation{PromptInfo: entity.PromptInfo{Max: r.maxPrompts}}
	uid, err := uuid.Parse(id)
	if err != nil {
		return none, false, contract.ErrSessionNotFound
	}

	var updated model.CvSession
	res := r.live(r.db.WithContext(ctx).Model(&updated).Clauses(clause.Returning{}), uid, specification.PromptAvailable{}).
		Update("prompt_count", gorm.Expr("prompt_count + 1"))
	if res.Error != nil {
		return none, false, res.Error
	}
	if res.RowsAffected == 1 {
		return entity.Reservation{
			PromptInfo: entity.NewPromptInfo(updated.PromptCount, updated.MaxPrompts),
			Generation: updated.Generation,
		}, true, nil
	}

	m, err := r.find(ctx, r.db, id)
	if err != nil {
		return none, false, err
	}
	if m == nil {
		return none, false, contract.ErrSessionNotFound
	}
	return entity.Reservation{
		PromptInfo: entity.NewPromptInfo(m.PromptCount, m.MaxPrompts),
		Generation: m.Generation,
	}, false, nil
}

func (r *CvSessionRepositoryImpl) ReleasePrompt(ctx context.Context, id string, generation int) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	return specification.Apply(r.db.WithContext(ctx).Model(&model.CvSession{}),
		specification.ByID{ID: uid},
		specification.AtGeneration{Generation: generation},
		specification.PromptUsed{},
	).Update("prompt_count", gorm.Expr("prompt_count - 1")).Error
}

func (r *CvSessionRepositoryImpl) AppendTurns(ctx context.Context, id string, generation int, turns ...entity.ChatTurn) (entity.PromptInfo, error) {
	info := entity.PromptInfo{Max: r.maxPrompts}
	err := r.withLockedSession(ctx, id, func(tx *gorm.DB, s *entity.CvSession) error {
		stored := s.AppendReserved(generation, turns...)
		info = s.PromptInfo()
		if !stored {
			return contract.ErrStaleReservation
		}
		return specification.Apply(tx.Model(&model.CvSession{}), specification.ByID{ID: uuid.MustParse(s.Id)}).
			Update("chat_history", r.mapper.TurnsToModel(s.ChatHistory)).Error
	})
	return info, err
}

func (r *CvSessionRepositoryImpl) Delete(ctx context.Context, id, userId string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	res := r.live(r.db.WithContext(ctx), uid, specification.OwnedBy{UserId: userId}).
		Delete(&model.CvSession{})
	return res.RowsAffected > 0, res.Error
}

func (r *CvSessionRepositoryImpl) Clear(ctx context.Context, id, userId string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	res := r.live(r.db.WithContext(ctx).Model(&model.CvSession{}), uid, specification.OwnedBy{UserId: userId}).
		Updates(map[string]interface{}{
			"chat_history": r.mapper.TurnsToModel(nil),
			"prompt_count": 0,
			"generation":   gorm.Expr("generation + 1"),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *CvSessionRepositoryImpl) CleanupExpired(ctx context.Context) (int, error) {
	res := specification.Apply(r.db.WithContext(ctx), specification.CreatedAtOrBefore{Cutoff: r.cutoff()}).
		Delete(&model.CvSession{})
	return int(res.RowsAffected), res.Error
}
