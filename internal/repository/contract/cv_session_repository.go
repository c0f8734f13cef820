package contract

import (
	"context"
	"errors"

	"cv-evaluator-be/internal/entity"
)

var (
	ErrSessionNotFound  = errors.New("cv session not found")
	ErrStaleReservation = errors.New("cv session cleared after prompt reservation")
)

// CvSessionRepository owns every CV session. Each method is atomic on its
// own. Lookups that miss return nil without an error; expired sessions are
// reported as missing.
type CvSessionRepository interface {
	Create(ctx context.Context, userId, cvText string, sections entity.CvSections, filename string, numPages int) (*entity.CvSession, error)
	Get(ctx context.Context, id string) (*entity.CvSession, error)
	// GetByOwner does not tell an unknown id from a foreign one.
	GetByOwner(ctx context.Context, id, userId string) (*entity.CvSession, error)
	ListByOwner(ctx context.Context, userId string) ([]*entity.CvSession, error)
	Stats(ctx context.Context, id string) (*entity.SessionStats, error)

	// CheckPromptLimit reports {canPrompt:false, used:0, remaining:0, max:10} for an unknown id.
	CheckPromptLimit(ctx context.Context, id string) (entity.PromptInfo, error)
	// AddMessage returns nil info, with nothing stored, once a user turn would exceed the quota.
	AddMessage(ctx context.Context, id, role, content string) (*entity.PromptInfo, error)
	// ReservePrompt takes one prompt slot if any is left.
	ReservePrompt(ctx context.Context, id string) (entity.Reservation, bool, error)
	// ReleasePrompt is a no-op when the session was cleared after the reservation.
	ReleasePrompt(ctx context.Context, id string, generation int) error
	// AppendTurns stores turns without touching the prompt counter. It stores
	// nothing and returns ErrStaleReservation when the session was cleared
	// after the reservation.
	AppendTurns(ctx context.Context, id string, generation int, turns ...entity.ChatTurn) (entity.PromptInfo, error)

	Delete(ctx context.Context, id, userId string) (bool, error)
	Clear(ctx context.Context, id, userId string) (bool, error)
	CleanupExpired(ctx context.Context) (int, error)
}
