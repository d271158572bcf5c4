package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tenbase/tenbase/pkg/workflow"
)

type fieldUpdateConfig struct {
	Updates []fieldUpdate `json:"updates"`
}

type fieldUpdate struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// FieldUpdateHandler sets field values on the record being saved. The engine
// folds the produced updates into the record before persistence; the handler
// itself writes nothing.
type FieldUpdateHandler struct {
	logger *slog.Logger
}

func NewFieldUpdateHandler(logger *slog.Logger) *FieldUpdateHandler {
	return &FieldUpdateHandler{logger: logger}
}

func (h *FieldUpdateHandler) ActionTypeKey() string {
	return "FIELD_UPDATE"
}

func (h *FieldUpdateHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg fieldUpdateConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid field update config: %v", err)), nil
	}

	if len(cfg.Updates) == 0 {
		return workflow.Failed("No updates defined"), nil
	}

	updatedFields := make(map[string]any)

	for _, update := range cfg.Updates {
		if strings.TrimSpace(update.Field) == "" {
			continue
		}

		updatedFields[update.Field] = update.Value
	}

	h.logger.InfoContext(ctx, "Field update action",
		"record_id", actionCtx.RecordID, "fields", len(updatedFields))

	return workflow.Successful(map[string]any{
		"updatedFields": updatedFields,
	}), nil
}

func (h *FieldUpdateHandler) Validate(config string) error {
	var cfg fieldUpdateConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if len(cfg.Updates) == 0 {
		return errors.New("config must contain a non-empty 'updates' array")
	}

	for _, update := range cfg.Updates {
		if strings.TrimSpace(update.Field) == "" {
			return errors.New("every update must name a 'field'")
		}
	}

	return nil
}
