package controller

import (
	"fmt"
	"time"

	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/dto"
	"cv-evaluator-be/internal/entity"
	"cv-evaluator-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type IInfoController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Root(ctx *fiber.Ctx) error
}

type infoController struct {
	maxPrompts int
}

func NewInfoController(maxPrompts int) IInfoController {
	if maxPrompts <= 0 {
		maxPrompts = constant.MaxPromptsPerSession
	}
	return &infoController{maxPrompts: maxPrompts}
}

func (c *infoController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
	r.Get("/", c.Root)
}

func (c *infoController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

func (c *infoController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.ServiceInfoResponse{
		Message:     "CV Evaluation API",
		Version:     constant.ServiceVersion,
		Description: "AI-powered CV evaluation with chat interface",
		Limits: dto.ServiceLimits{
			MaxPromptsPerSession: c.maxPrompts,
			SessionTimeout:       constant.SessionTimeout.String(),
			MaxFileSize:          fmt.Sprintf("%dMB", constant.MaxUploadSize/(1024*1024)),
			Note:                 "Sessions expire one hour after upload",
		},
		Endpoints: map[string]string{
			"health":            "GET /health",
			"uploadCv":          "POST /ai/evaluate/upload",
			"chat":              "POST /ai/evaluate/chat",
			"evaluateJob":       "POST /ai/evaluate/job",
			"initialEvaluation": "POST /ai/evaluate/:sessionId/evaluate",
			"getSession":        "GET /ai/evaluate/:sessionId",
			"listSessions":      "GET /ai/evaluate",
			"deleteSession":     "DELETE /ai/evaluate/:sessionId",
			"clearChat":         "POST /ai/evaluate/:sessionId/clear",
		},
		Usage: map[string]string{
			"step1": "Upload CV: POST /ai/evaluate/upload with 'cv' file and 'userId'",
			"step2": "Chat: POST /ai/evaluate/chat with { userId, sessionId, message }",
			"step3": "Check promptInfo in response to show remaining prompts to user",
		},
		PromptLimitResponse: dto.PromptLimitInfo{
			Note: "When limit is reached, API returns 429 status with code PROMPT_LIMIT_REACHED",
			Example: dto.ErrorDemo{
				Success:    false,
				Error:      apperror.MsgPromptLimit,
				Code:       string(apperror.KindQuotaExhausted),
				PromptInfo: entity.NewPromptInfo(c.maxPrompts, c.maxPrompts),
			},
		},
	})
}
