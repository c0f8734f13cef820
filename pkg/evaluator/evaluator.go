// Package evaluator runs one CV chat exchange: it reserves a prompt slot,
// builds the model context from the session, calls the LLM with
// rate-limit retries and records the turns.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/entity"
	"cv-evaluator-be/internal/pkg/apperror"
	"cv-evaluator-be/internal/pkg/logger"
	"cv-evaluator-be/internal/repository/contract"
	"cv-evaluator-be/pkg/llm"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "EVALUATOR"

type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
	MaxAttempts int
	RetryDelay  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Model:       constant.GroqDefaultModel,
		MaxTokens:   constant.EvaluatorMaxTokens,
		Temperature: constant.EvaluatorTemperature,
		MaxAttempts: constant.EvaluatorMaxAttempts,
		RetryDelay:  constant.EvaluatorRetryDelay,
	}
}

type ChatResult struct {
	Response   string
	Usage      llm.Usage
	PromptInfo entity.PromptInfo
}

type IEvaluator interface {
	Chat(ctx context.Context, sessionId, userMessage string) (*ChatResult, error)
	InitialEvaluation(ctx context.Context, sessionId, jobDescription string) (*ChatResult, error)
	EvaluateJobMatch(ctx context.Context, sessionId, jobDescription string) (*ChatResult, error)
}

type Evaluator struct {
	sessions contract.CvSessionRepository
	provider llm.LLMProvider
	cfg      Config
	logger   logger.ILogger
	tracer   trace.Tracer
	newTimer func() backoff.Timer
}

var _ IEvaluator = &Evaluator{}

type Option func(*Evaluator)

// WithTimer replaces the retry wait timer; tests use it to skip real sleeps.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(e *Evaluator) { e.newTimer = newTimer }
}

func New(sessions contract.CvSessionRepository, provider llm.LLMProvider, cfg Config, log logger.ILogger, opts ...Option) *Evaluator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	e := &Evaluator{
		sessions: sessions,
		provider: provider,
		cfg:      cfg,
		logger:   log,
		tracer:   otel.Tracer("cv-evaluator-be/pkg/evaluator"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Chat reserves the prompt before calling the model, so two concurrent
// requests can never both take the last slot. A failed model call gives
// the slot back.
func (e *Evaluator) Chat(ctx context.Context, sessionId, userMessage string) (*ChatResult, error) {
	ctx, span := e.tracer.Start(ctx, "evaluator.Chat",
		trace.WithAttributes(attribute.String("cv.session_id", sessionId)))
	defer span.End()

	// 1. Load Session
	session, err := e.sessions.Get(ctx, sessionId)
	if err != nil {
		return nil, apperror.Internal("Failed to load session", err)
	}
	if session == nil {
		return nil, apperror.NotFound()
	}

	// 2. Reserve Prompt Slot
	reservation, ok, err := e.sessions.ReservePrompt(ctx, sessionId)
	if errors.Is(err, contract.ErrSessionNotFound) {
		return nil, apperror.NotFound()
	}
	if err != nil {
		return nil, apperror.Internal("Failed to reserve prompt", err)
	}
	if !ok {
		return nil, apperror.QuotaExhausted(reservation.PromptInfo)
	}

	// 3. Call Model (rate limits retried)
	completion, err := e.complete(ctx, BuildMessages(session, userMessage))
	if err != nil {
		if relErr := e.sessions.ReleasePrompt(context.WithoutCancel(ctx), sessionId, reservation.Generation); relErr != nil {
			e.logger.Error(logModule, "Failed to release prompt reservation", map[string]interface{}{
				"session_id": sessionId,
				"error":      relErr.Error(),
			})
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")

		if llm.IsRateLimit(err) {
			e.logger.Error(logModule, "Groq rate limit: max retries exhausted", map[string]interface{}{
				"session_id": sessionId,
			})
			return nil, apperror.RateLimited(err)
		}
		return nil, apperror.Internal(apperror.MsgAIFailure, err)
	}

	// 4. Store Exchange
	now := time.Now().UTC()
	info, err := e.sessions.AppendTurns(ctx, sessionId, reservation.Generation,
		entity.ChatTurn{Role: entity.ChatRoleUser, Content: userMessage, CreatedAt: now},
		entity.ChatTurn{Role: entity.ChatRoleAssistant, Content: completion.Content, CreatedAt: now},
	)
	// A clear landed while the model was answering: the reply is still
	// returned, but it belongs to the discarded history.
	if errors.Is(err, contract.ErrStaleReservation) {
		e.logger.Info(logModule, "Session cleared during chat, reply not stored", map[string]interface{}{
			"session_id": sessionId,
		})
		err = nil
	}
	if errors.Is(err, contract.ErrSessionNotFound) {
		return nil, apperror.NotFound()
	}
	if err != nil {
		return nil, apperror.Internal("Failed to save chat history", err)
	}

	span.SetAttributes(
		attribute.Int("llm.usage.total_tokens", completion.Usage.TotalTokens),
		attribute.Int("cv.prompts_used", info.Used),
	)

	return &ChatResult{
		Response:   completion.Content,
		Usage:      completion.Usage,
		PromptInfo: info,
	}, nil
}

func (e *Evaluator) InitialEvaluation(ctx context.Context, sessionId, jobDescription string) (*ChatResult, error) {
	prompt := constant.InitialEvaluationPrompt
	if jobDescription != "" {
		prompt += fmt.Sprintf(constant.InitialEvaluationJobSuffix, jobDescription)
	}
	return e.Chat(ctx, sessionId, prompt)
}

func (e *Evaluator) EvaluateJobMatch(ctx context.Context, sessionId, jobDescription string) (*ChatResult, error) {
	return e.Chat(ctx, sessionId, fmt.Sprintf(constant.JobMatchPrompt, jobDescription))
}

// complete calls the provider, retrying only rate-limit failures. The wait
// before retry n is n × RetryDelay.
func (e *Evaluator) complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error) {
	var completion *llm.Completion
	attempt := 0

	op := func() error {
		attempt++
		res, err := e.provider.Chat(ctx, messages,
			llm.WithModel(e.cfg.Model),
			llm.WithMaxTokens(e.cfg.MaxTokens),
			llm.WithTemperature(e.cfg.Temperature),
		)
		if err != nil {
			if llm.IsRateLimit(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		completion = res
		return nil
	}

	notify := func(err error, wait time.Duration) {
		e.logger.Warn(logModule, "Rate limit hit, retrying", map[string]interface{}{
			"retry_in": wait.String(),
			"attempt":  fmt.Sprintf("%d/%d", attempt, e.cfg.MaxAttempts),
		})
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: e.cfg.RetryDelay}, uint64(e.cfg.MaxAttempts-1)),
		ctx,
	)

	var timer backoff.Timer
	if e.newTimer != nil {
		timer = e.newTimer()
	}
	if err := backoff.RetryNotifyWithTimer(op, policy, notify, timer); err != nil {
		return nil, err
	}
	return completion, nil
}

// linearBackOff waits step, 2×step, 3×step, ...
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}
