// Package main provides the workflow automation service entrypoint.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/tenbase/tenbase/pkg/persistence"
	"github.com/tenbase/tenbase/pkg/web"
	"github.com/tenbase/tenbase/pkg/workflow"
)

type Server struct {
	logger   *slog.Logger
	handlers *web.APIHandlers
}

func NewServer(
	logger *slog.Logger,
	engine *workflow.Engine,
	registry *workflow.HandlerRegistry,
	persist persistence.Persistence,
) (*Server, error) {
	ruleValidator, err := workflow.NewRuleValidator(registry)
	if err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	return &Server{
		logger:   logger,
		handlers: web.NewAPIHandlers(logger, engine, ruleValidator, persist, validate),
	}, nil
}

func (s *Server) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	web.Register(app, s.handlers)

	return app
}

func (s *Server) Start(port int) error {
	app := s.App()

	return app.Listen(":" + strconv.Itoa(port))
}
