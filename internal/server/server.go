package server

import (
	"time"

	"cv-evaluator-be/internal/bootstrap"
	"cv-evaluator-be/internal/config"
	"cv-evaluator-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// bodyLimit leaves room for multipart framing around a 10MB file; the
// exact file limit is enforced by the upload handler.
const bodyLimit = 12 * 1024 * 1024

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "cv-evaluator-be",
		BodyLimit:    bodyLimit,
		ErrorHandler: serverutils.NewErrorHandler(container.Logger),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, DELETE",
	}))

	app.Use(otelfiber.Middleware())

	app.Use(serverutils.RequestLogger(container.AccessLogger))
	app.Use(serverutils.ErrorHandlerMiddleware(container.Logger))

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("SERVER", "CV Evaluation API running", map[string]interface{}{
		"url":         "http://localhost:" + s.cfg.App.Port,
		"max_prompts": s.container.MaxPrompts,
		"store":       s.cfg.Session.Store,
	})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.InfoController.RegisterRoutes(app)
	c.EvaluateController.RegisterRoutes(app)
}
