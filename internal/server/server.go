package server

import (
	"lucide-core/internal/bootstrap"
	"lucide-core/internal/config"
	"lucide-core/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		// Uploads are checked against the document limit after the body
		// arrives, so this only guards against runaway requests.
		BodyLimit:    cfg.App.BodyLimitMB * 1024 * 1024,
		ErrorHandler: serverutils.ErrorHandlerMiddleware,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	registerRoutes(app, cfg, container)

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
	s.container.Logger.Info("SERVER", "Server is running", map[string]interface{}{"addr": "http://localhost:" + s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	// The socket authenticates its own handshake.
	c.AskSocketHandler.RegisterRoutes(app)

	api := app.Group("/api", serverutils.JwtMiddleware(cfg.Keys.JwtSecret))
	c.SystemController.RegisterRoutes(api)
	c.AskController.RegisterRoutes(api)
	c.DocumentController.RegisterRoutes(api)
	c.SessionController.RegisterRoutes(api)
}
