package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/entity"
	"cv-evaluator-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// CvSessionRepository keeps sessions in a go-cache whose expiration is fixed
// at creation. The cache holds pointers and is never Set again, so later
// mutations do not extend a session's life. The janitor is off: expired
// entries are invisible to reads and CleanupExpired purges them.
type CvSessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache

	timeout    time.Duration
	maxPrompts int

	sweeping bool
	swept    int
}

var _ contract.CvSessionRepository = &CvSessionRepository{}

type Option func(*CvSessionRepository)

func WithTimeout(d time.Duration) Option {
	return func(r *CvSessionRepository) { r.timeout = d }
}

func WithMaxPrompts(n int) Option {
	return func(r *CvSessionRepository) { r.maxPrompts = n }
}

func NewCvSessionRepository(opts ...Option) *CvSessionRepository {
	r := &CvSessionRepository{
		timeout:    constant.SessionTimeout,
		maxPrompts: constant.MaxPromptsPerSession,
	}
	for _, o := range opts {
		o(r)
	}
	r.cache = cache.New(r.timeout, 0)
	r.cache.OnEvicted(func(string, interface{}) {
		if r.sweeping {
			r.swept++
		}
	})
	return r
}

func (r *CvSessionRepository) lookup(id string) *entity.CvSession {
	if x, found := r.cache.Get(id); found {
		return x.(*entity.CvSession)
	}
	return nil
}

func (r *CvSessionRepository) Create(ctx context.Context, userId, cvText string, sections entity.CvSections, filename string, numPages int) (*entity.CvSession, error) {
	session := &entity.CvSession{
		Id:          uuid.NewString(),
		UserId:      userId,
		CvText:      cvText,
		CvSections:  sections,
		CvFilename:  filename,
		NumPages:    numPages,
		ChatHistory: []entity.ChatTurn{},
		PromptCount: 0,
		MaxPrompts:  r.maxPrompts,
		CreatedAt:   time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(session.Id, session, cache.DefaultExpiration)

	return session.Clone(), nil
}

func (r *CvSessionRepository) Get(ctx context.Context, id string) (*entity.CvSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(id).Clone(), nil
}

func (r *CvSessionRepository) GetByOwner(ctx context.Context, id, userId string) (*entity.CvSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nil || !s.OwnedBy(userId) {
		return nil, nil
	}
	return s.Clone(), nil
}

func (r *CvSessionRepository) ListByOwner(ctx context.Context, userId string) ([]*entity.CvSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := []*entity.CvSession{}
	for _, item := range r.cache.Items() {
		s := item.Object.(*entity.CvSession)
		if s.OwnedBy(userId) {
			sessions = append(sessions, s.Clone())
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (r *CvSessionRepository) Stats(ctx context.Context, id string) (*entity.SessionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nil {
		return nil, nil
	}
	return s.Stats(), nil
}

func (r *CvSessionRepository) CheckPromptLimit(ctx context.Context, id string) (entity.PromptInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nil {
		return entity.PromptInfo{Max: r.maxPrompts}, nil
	}
	return s.PromptInfo(), nil
}

func (r *CvSessionRepository) AddMessage(ctx context.Context, id, role, content string) (*entity.PromptInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nil {
		return nil, contract.ErrSessionNotFound
	}
	return s.AddMessage(role, content, time.Now().UTC()), nil
}

func (r *CvSessionRepository) ReservePrompt(ctx context.Context, id string) (entity.Reservation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nil {
		return entity.Reservation{PromptInfo: entity.PromptInfo{Max: r.maxPrompts}}, false, contract.ErrSessionNotFound
	}
	ok := s.ReservePrompt()
	return entity.Reservation{PromptInfo: s.PromptInfo(), Generation: s.Generation}, ok, nil
}

func (r *CvSessionRepository) ReleasePrompt(ctx context.Context, id string, generation int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.lookup(id); s != nil {
		s.ReleaseReservation(generation)
	}
	return nil
}

func (r *CvSessionRepository) AppendTurns(ctx context.Context, id string, generation int, turns ...entity.ChatTurn) (entity.PromptInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nil {
		return entity.PromptInfo{Max: r.maxPrompts}, contract.ErrSessionNotFound
	}
	if !s.AppendReserved(generation, turns...) {
		return s.PromptInfo(), contract.ErrStaleReservation
	}
	return s.PromptInfo(), nil
}

func (r *CvSessionRepository) Delete(ctx context.Context, id, userId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nil || !s.OwnedBy(userId) {
		return false, nil
	}
	r.cache.Delete(id)
	return true, nil
}

func (r *CvSessionRepository) Clear(ctx context.Context, id, userId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.lookup(id)
	if s == nil || !s.OwnedBy(userId) {
		return false, nil
	}
	s.Clear()
	return true, nil
}

func (r *CvSessionRepository) CleanupExpired(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweeping, r.swept = true, 0
	r.cache.DeleteExpired()
	r.sweeping = false

	return r.swept, nil
}
