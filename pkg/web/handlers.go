package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence"
	"github.com/tenbase/tenbase/pkg/workflow"
)

type APIHandlers struct {
	logger        *slog.Logger
	engine        *workflow.Engine
	ruleValidator *workflow.RuleValidator
	persistence   persistence.Persistence
	validator     *validator.Validate
}

func NewAPIHandlers(
	logger *slog.Logger,
	engine *workflow.Engine,
	ruleValidator *workflow.RuleValidator,
	persist persistence.Persistence,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		logger:        logger.With("module", "web"),
		engine:        engine,
		ruleValidator: ruleValidator,
		persistence:   persist,
		validator:     validate,
	}
}

// BeforeSave runs the synchronous before-save pipeline for one record. Hook
// validation errors come back as 422 so the caller can reject the save; rule
// execution problems never fail the request.
func (h *APIHandlers) BeforeSave(c fiber.Ctx) error {
	var req BeforeSaveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	outcome, err := h.engine.EvaluateBeforeSave(c.Context(), workflow.BeforeSaveRequest{
		TenantID:       req.TenantID,
		CollectionID:   req.CollectionID,
		CollectionName: req.CollectionName,
		RecordID:       req.RecordID,
		Data:           req.Data,
		PreviousData:   req.PreviousData,
		ChangedFields:  req.ChangedFields,
		UserID:         req.UserID,
		ChangeType:     req.ChangeType,
	})
	if err != nil {
		return internalError(c, err)
	}

	response := BeforeSaveResponse{
		FieldUpdates:    outcome.FieldUpdates,
		RulesEvaluated:  outcome.RulesEvaluated,
		ActionsExecuted: outcome.ActionsExecuted,
	}

	for _, verr := range outcome.Errors {
		response.Errors = append(response.Errors, ValidationErrorResponse{
			Field:   verr.Field,
			Message: verr.Message,
		})
	}

	if len(response.Errors) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(response)
	}

	return c.JSON(response)
}

// ValidateRule checks an authored rule document without persisting it, so
// configuration tooling can surface problems before saving.
func (h *APIHandlers) ValidateRule(c fiber.Ctx) error {
	var rule models.WorkflowRule
	if err := json.Unmarshal(c.Body(), &rule); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.ruleValidator.ValidateRule(&rule); err != nil {
		return c.JSON(ValidateRuleResponse{Valid: false, Error: err.Error()})
	}

	return c.JSON(ValidateRuleResponse{Valid: true})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK

	err := h.persistence.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError

		h.logger.ErrorContext(c.Context(), "Persistence health check failed", "error", err)
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}

// Register mounts the workflow endpoints on the app.
func Register(app *fiber.App, handlers *APIHandlers) {
	internal := app.Group("/internal/workflow")
	internal.Post("/before-save", handlers.BeforeSave)
	internal.Post("/rules/validate", handlers.ValidateRule)

	app.Get("/health", handlers.HealthCheck)
}
