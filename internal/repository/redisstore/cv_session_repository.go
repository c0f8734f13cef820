// Package redisstore keeps CV sessions in Redis so several API replicas can
// share them. Each session is one JSON value whose TTL ends one session
// timeout after creation, plus a per-owner set of session ids.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/entity"
	"cv-evaluator-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "cvsession:"
	ownerKeyPrefix = "cvsession:owner:"

	maxTxRetries = 10
)

var ErrTxConflict = errors.New("redis: too many concurrent updates")

type CvSessionRepository struct {
	rdb        *redis.Client
	timeout    time.Duration
	maxPrompts int
}

var _ contract.CvSessionRepository = &CvSessionRepository{}

func NewCvSessionRepository(rdb *redis.Client) *CvSessionRepository {
	return &CvSessionRepository{
		rdb:        rdb,
		timeout:    constant.SessionTimeout,
		maxPrompts: constant.MaxPromptsPerSession,
	}
}

func sessionKey(id string) string   { return keyPrefix + id }
func ownerKey(userId string) string { return ownerKeyPrefix + userId }

func (r *CvSessionRepository) expiresAt(s *entity.CvSession) time.Time {
	return s.CreatedAt.Add(r.timeout)
}

func decode(raw []byte) (*entity.CvSession, error) {
	var s entity.CvSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.ChatHistory == nil {
		s.ChatHistory = []entity.ChatTurn{}
	}
	return &s, nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *CvSessionRepository) load(ctx context.Context, c getter, id string) (*entity.CvSession, error) {
	raw, err := c.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if s.IsExpired(time.Now(), r.timeout) {
		return nil, nil
	}
	return s, nil
}

func (r *CvSessionRepository) write(ctx context.Context, pipe redis.Pipeliner, s *entity.CvSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	pipe.Set(ctx, sessionKey(s.Id), data, 0)
	pipe.PExpireAt(ctx, sessionKey(s.Id), r.expiresAt(s))
	return nil
}

// mutate runs fn inside WATCH/MULTI/EXEC and retries on conflicts. fn
// reports whether it changed the session; unchanged sessions are not written.
func (r *CvSessionRepository) mutate(ctx context.Context, id string, fn func(s *entity.CvSession) (bool, error)) (*entity.CvSession, error) {
	key := sessionKey(id)
	var result *entity.CvSession

	txf := func(tx *redis.Tx) error {
		s, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return contract.ErrSessionNotFound
		}
		changed, err := fn(s)
		if err != nil {
			return err
		}
		result = s
		if !changed {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return r.write(ctx, pipe, s)
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, ErrTxConflict
}

func (r *CvSessionRepository) Create(ctx context.Context, userId, cvText string, sections entity.CvSections, filename string, numPages int) (*entity.CvSession, error) {
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

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := r.write(ctx, pipe, s); err != nil {
			return err
		}
		pipe.SAdd(ctx, ownerKey(userId), s.Id)
		pipe.Expire(ctx, ownerKey(userId), r.timeout)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func (r *CvSessionRepository) Get(ctx context.Context, id string) (*entity.CvSession, error) {
	return r.load(ctx, r.rdb, id)
}

func (r *CvSessionRepository) GetByOwner(ctx context.Context, id, userId string) (*entity.CvSession, error) {
	s, err := r.load(ctx, r.rdb, id)
	if err != nil || s == nil || !s.OwnedBy(userId) {
		return nil, err
	}
	return s, nil
}

// ListByOwner also drops ids of sessions that have expired from the owner set.
func (r *CvSessionRepository) ListByOwner(ctx context.Context, userId string) ([]*entity.CvSession, error) {
	ids, err := r.rdb.SMembers(ctx, ownerKey(userId)).Result()
	if err != nil {
		return nil, err
	}

	sessions := []*entity.CvSession{}
	var stale []interface{}
	for _, id := range ids {
		s, err := r.load(ctx, r.rdb, id)
		if err != nil {
			return nil, err
		}
		if s == nil || !s.OwnedBy(userId) {
			stale = append(stale, id)
			continue
		}
		sessions = append(sessions, s)
	}
	if len(stale) > 0 {
		r.rdb.SRem(ctx, ownerKey(userId), stale...)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (r *CvSessionRepository) Stats(ctx context.Context, id string) (*entity.SessionStats, error) {
	s, err := r.load(ctx, r.rdb, id)
	if err != nil || s == nil {
		return nil, err
	}
	return s.Stats(), nil
}

func (r *CvSessionRepository) CheckPromptLimit(ctx context.Context, id string) (entity.PromptInfo, error) {
	s, err := r.load(ctx, r.rdb, id)
	if err != nil {
		return entity.PromptInfo{Max: r.maxPrompts}, err
	}
	if s == nil {
		return entity.PromptInfo{Max: r.maxPrompts}, nil
	}
	return s.PromptInfo(), nil
}

func (r *CvSessionRepository) AddMessage(ctx context.Context, id, role, content string) (*entity.PromptInfo, error) {
	var info *entity.PromptInfo
	_, err := r.mutate(ctx, id, func(s *entity.CvSession) (bool, error) {
		info = s.AddMessage(role, content, time.Now().UTC())
		return info != nil, nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (r *CvSessionRepository) ReservePrompt(ctx context.Context, id string) (entity.Reservation, bool, error) {
	var ok bool
	s, err := r.mutate(ctx, id, func(s *entity.CvSession) (bool, error) {
		ok = s.ReservePrompt()
		return ok, nil
	})
	if err != nil {
		return entity.Reservation{PromptInfo: entity.PromptInfo{Max: r.maxPrompts}}, false, err
	}
	return entity.Reservation{PromptInfo: s.PromptInfo(), Generation: s.Generation}, ok, nil
}

func (r *CvSessionRepository) ReleasePrompt(ctx context.Context, id string, generation int) error {
	_, err := r.mutate(ctx, id, func(s *entity.CvSession) (bool, error) {
		return s.ReleaseReservation(generation), nil
	})
	if errors.Is(err, contract.ErrSessionNotFound) {
		return nil
	}
	return err
}

func (r *CvSessionRepository) AppendTurns(ctx context.Context, id string, generation int, turns ...entity.ChatTurn) (entity.PromptInfo, error) {
	info := entity.PromptInfo{Max: r.maxPrompts}
	_, err := r.mutate(ctx, id, func(s *entity.CvSession) (bool, error) {
		stored := s.AppendReserved(generation, turns...)
		info = s.PromptInfo()
		if !stored {
			return false, contract.ErrStaleReservation
		}
		return true, nil
	})
	return info, err
}

func (r *CvSessionRepository) Delete(ctx context.Context, id, userId string) (bool, error) {
	key := sessionKey(id)
	deleted := false

	txf := func(tx *redis.Tx) error {
		s, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if s == nil || !s.OwnedBy(userId) {
			deleted = false
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, ownerKey(userId), id)
			return nil
		})
		deleted = err == nil
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return deleted, err
	}
	return false, ErrTxConflict
}

func (r *CvSessionRepository) Clear(ctx context.Context, id, userId string) (bool, error) {
	var owned bool
	_, err := r.mutate(ctx, id, func(s *entity.CvSession) (bool, error) {
		owned = s.OwnedBy(userId)
		if !owned {
			return false, nil
		}
		s.Clear()
		return true, nil
	})
	if errors.Is(err, contract.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return owned, nil
}

// CleanupExpired prunes owner sets of sessions whose key has expired and
// returns how many were dropped. Redis itself expires the session values.
func (r *CvSessionRepository) CleanupExpired(ctx context.Context) (int, error) {
	removed := 0
	iter := r.rdb.Scan(ctx, 0, ownerKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		setKey := iter.Val()
		ids, err := r.rdb.SMembers(ctx, setKey).Result()
		if err != nil {
			return removed, err
		}
		for _, id := range ids {
			n, err := r.rdb.Exists(ctx, sessionKey(id)).Result()
			if err != nil {
				return removed, err
			}
			if n == 0 {
				if err := r.rdb.SRem(ctx, setKey, id).Err(); err != nil {
					return removed, err
				}
				removed++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}
