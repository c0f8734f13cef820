package controller

import (
	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/dto"
	"cv-evaluator-be/internal/pkg/apperror"
	"cv-evaluator-be/internal/pkg/serverutils"
	"cv-evaluator-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IEvaluateController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	EvaluateJob(ctx *fiber.Ctx) error
	InitialEvaluation(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	ClearSession(ctx *fiber.Ctx) error
}

type evaluateController struct {
	evaluationService service.IEvaluationService
	jwtSecret         string
}

func NewEvaluateController(evaluationService service.IEvaluationService, jwtSecret string) IEvaluateController {
	return &evaluateController{
		evaluationService: evaluationService,
		jwtSecret:         jwtSecret,
	}
}

func (c *evaluateController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ai/evaluate")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/upload", c.Upload)
	h.Post("/chat", c.Chat)
	h.Post("/job", c.EvaluateJob)
	h.Get("/", c.ListSessions)
	h.Get("/:sessionId", c.GetSession)
	h.Delete("/:sessionId", c.DeleteSession)
	h.Post("/:sessionId/clear", c.ClearSession)
	h.Post("/:sessionId/evaluate", c.InitialEvaluation)
}

func (c *evaluateController) Upload(ctx *fiber.Ctx) error {
	// 1. Validate Form Fields
	req := dto.UploadCvRequest{UserId: ctx.FormValue("userId")}
	req.Normalize()
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := serverutils.AssertOwner(ctx, req.UserId); err != nil {
		return err
	}

	// 2. Read File Part
	file, err := ctx.FormFile(constant.UploadFieldName)
	if err != nil {
		return apperror.Validation(apperror.MsgMissingFile)
	}

	// 3. Parse & Create Session
	res, err := c.evaluationService.UploadCV(ctx.UserContext(), &req, file)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("", res))
}

func (c *evaluateController) Chat(ctx *fiber.Ctx) error {
	// 1. Parse & Validate
	var req dto.ChatRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	req.Normalize()
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := serverutils.AssertOwner(ctx, req.UserId); err != nil {
		return err
	}

	// 2. Ask Model (quota enforced by the evaluator)
	res, err := c.evaluationService.Chat(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("", res))
}

func (c *evaluateController) EvaluateJob(ctx *fiber.Ctx) error {
	var req dto.JobMatchRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	req.Normalize()
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := serverutils.AssertOwner(ctx, req.UserId); err != nil {
		return err
	}

	res, err := c.evaluationService.EvaluateJob(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("", res))
}

func (c *evaluateController) InitialEvaluation(ctx *fiber.Ctx) error {
	var req dto.InitialEvaluationRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	req.SessionId = ctx.Params("sessionId")
	req.Normalize()
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := serverutils.AssertOwner(ctx, req.UserId); err != nil {
		return err
	}

	res, err := c.evaluationService.InitialEvaluation(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("", res))
}

func (c *evaluateController) GetSession(ctx *fiber.Ctx) error {
	req, err := c.sessionOwnerFromQuery(ctx)
	if err != nil {
		return err
	}

	res, err := c.evaluationService.GetSession(ctx.UserContext(), req.SessionId, req.UserId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("", res))
}

func (c *evaluateController) ListSessions(ctx *fiber.Ctx) error {
	req := dto.ListSessionsRequest{UserId: ctx.Query("userId")}
	req.Normalize()
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := serverutils.AssertOwner(ctx, req.UserId); err != nil {
		return err
	}

	res, err := c.evaluationService.ListSessions(ctx.UserContext(), req.UserId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("", res))
}

func (c *evaluateController) DeleteSession(ctx *fiber.Ctx) error {
	req, err := c.sessionOwnerFromQuery(ctx)
	if err != nil {
		return err
	}

	if err := c.evaluationService.DeleteSession(ctx.UserContext(), req.SessionId, req.UserId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.MessageResponse("Session deleted successfully"))
}

func (c *evaluateController) ClearSession(ctx *fiber.Ctx) error {
	var req dto.SessionOwnerRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	req.SessionId = ctx.Params("sessionId")
	req.Normalize()
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := serverutils.AssertOwner(ctx, req.UserId); err != nil {
		return err
	}

	info, err := c.evaluationService.ClearSession(ctx.UserContext(), req.SessionId, req.UserId)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.ClearSessionResponse{
		Success:    true,
		Message:    "Chat history cleared and prompts reset",
		PromptInfo: *info,
	})
}

func (c *evaluateController) sessionOwnerFromQuery(ctx *fiber.Ctx) (*dto.SessionOwnerRequest, error) {
	req := dto.SessionOwnerRequest{
		SessionId: ctx.Params("sessionId"),
		UserId:    ctx.Query("userId"),
	}
	req.Normalize()
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := serverutils.AssertOwner(ctx, req.UserId); err != nil {
		return nil, err
	}
	return &req, nil
}

// parseBody tolerates an empty body so that validation reports the missing
// fields instead of a parse failure.
func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if len(ctx.Body()) == 0 {
		return nil
	}
	if err := ctx.BodyParser(out); err != nil {
		return apperror.Validation("Invalid request body")
	}
	return nil
}
