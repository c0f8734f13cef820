package serverutils

import (
	"errors"

	"cv-evaluator-be/internal/pkg/apperror"
	"cv-evaluator-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// NewErrorHandler turns any error returned by a handler into the JSON error
// envelope. Used both as fiber.Config.ErrorHandler and by ErrorHandlerMiddleware.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			status := apperror.HTTPStatus(appErr.Kind)
			if status >= fiber.StatusInternalServerError {
				log.Error("HTTP", appErr.Message, map[string]interface{}{
					"path":  ctx.Path(),
					"error": err.Error(),
				})
			}
			body := ErrorResponse(string(appErr.Kind), appErr.Message)
			body.PromptInfo = appErr.PromptInfo
			return ctx.Status(status).JSON(body)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			if fiberErr.Code == fiber.StatusRequestEntityTooLarge {
				return ctx.Status(fiber.StatusBadRequest).
					JSON(ErrorResponse(string(apperror.KindFileTooLarge), apperror.MsgFileTooLarge))
			}
			// Body parse failures surface as 422 from Fiber; report them as bad input.
			if fiberErr.Code == fiber.StatusUnprocessableEntity {
				return ctx.Status(fiber.StatusBadRequest).
					JSON(ErrorResponse(string(apperror.KindValidation), fiberErr.Message))
			}
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse("", fiberErr.Message))
		}

		log.Error("HTTP", "Unhandled error", map[string]interface{}{
			"path":  ctx.Path(),
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(string(apperror.KindInternal), "Internal server error"))
	}
}

// ErrorHandlerMiddleware renders handler errors in place so that later
// middleware (request logger) sees the final status code.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	handle := NewErrorHandler(log)
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return handle(ctx, err)
		}
		return nil
	}
}
