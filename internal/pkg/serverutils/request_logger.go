package serverutils

import (
	"fmt"
	"time"

	"cv-evaluator-be/internal/pkg/logger"

	"github.com/fatih/color"
	"github.com/gofiber/fiber/v2"
)

var (
	statusOK    = color.New(color.FgGreen).SprintFunc()
	statusError = color.New(color.FgRed).SprintFunc()
)

// RequestLogger prints a short colored line per request to the console and
// writes the structured entry to the access log.
func RequestLogger(accessLog logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		timestamp := start.UTC().Format(time.RFC3339)
		method := ctx.Method()
		url := ctx.OriginalURL()

		fmt.Fprintf(color.Output, "[%s] --> %s %s\n", timestamp, method, url)

		err := ctx.Next()

		status := ctx.Response().StatusCode()
		duration := time.Since(start)

		paint := statusOK
		if status >= fiber.StatusBadRequest {
			paint = statusError
		}
		fmt.Fprintf(color.Output, "[%s] <-- %s %s %s %dms\n",
			timestamp, method, url, paint(status), duration.Milliseconds())

		accessLog.Info("HTTP", "request completed", map[string]interface{}{
			"method":      method,
			"url":         url,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"ip":          ctx.IP(),
		})
		return err
	}
}
