package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tenbase/tenbase/pkg/services"
	"github.com/tenbase/tenbase/pkg/workflow"
)

type updateMapping struct {
	Field       string `json:"field"`
	SourceField string `json:"sourceField,omitempty"`
	Value       any    `json:"value,omitempty"`
}

type updateRecordConfig struct {
	TargetCollectionID string          `json:"targetCollectionId"`
	RecordIDField      string          `json:"recordIdField,omitempty"`
	RecordID           string          `json:"recordId,omitempty"`
	Updates            []updateMapping `json:"updates"`
}

// UpdateRecordHandler applies a partial update to a record in any collection.
// The target record id resolves from recordIdField (a field of the triggering
// record), then a static recordId, then the triggering record itself.
type UpdateRecordHandler struct {
	logger      *slog.Logger
	collections services.CollectionService
	records     services.RecordService
}

func NewUpdateRecordHandler(logger *slog.Logger, collections services.CollectionService, records services.RecordService) *UpdateRecordHandler {
	return &UpdateRecordHandler{
		logger:      logger,
		collections: collections,
		records:     records,
	}
}

func (h *UpdateRecordHandler) ActionTypeKey() string {
	return "UPDATE_RECORD"
}

func (h *UpdateRecordHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg updateRecordConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid update record config: %v", err)), nil
	}

	if strings.TrimSpace(cfg.TargetCollectionID) == "" {
		return workflow.Failed("Target collection ID is required"), nil
	}

	collection, err := h.collections.FindCollection(ctx, actionCtx.TenantID, cfg.TargetCollectionID)
	if err != nil {
		return workflow.Failed("Target collection not found: " + cfg.TargetCollectionID), nil
	}

	targetRecordID := resolveRecordID(cfg.RecordIDField, cfg.RecordID, actionCtx)
	if targetRecordID == "" {
		return workflow.Failed("Could not resolve target record ID"), nil
	}

	if len(cfg.Updates) == 0 {
		return workflow.Failed("No updates defined"), nil
	}

	updateData := make(map[string]any, len(cfg.Updates))

	for _, update := range cfg.Updates {
		if strings.TrimSpace(update.Field) == "" {
			continue
		}

		if update.SourceField != "" {
			updateData[update.Field] = actionCtx.RecordData[update.SourceField]

			continue
		}

		updateData[update.Field] = update.Value
	}

	err = h.records.UpdateRecord(ctx, actionCtx.TenantID, cfg.TargetCollectionID, targetRecordID, updateData)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("Failed to update record in %s: %v", collection.Name, err)), nil
	}

	h.logger.InfoContext(ctx, "Update record action",
		"target_collection", collection.Name, "target_record_id", targetRecordID,
		"fields", len(updateData))

	return workflow.Successful(map[string]any{
		"targetCollectionId":   cfg.TargetCollectionID,
		"targetCollectionName": collection.Name,
		"targetRecordId":       targetRecordID,
		"updateData":           updateData,
	}), nil
}

func (h *UpdateRecordHandler) Validate(config string) error {
	var cfg updateRecordConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.TargetCollectionID == "" {
		return errors.New("config must contain 'targetCollectionId'")
	}

	if len(cfg.Updates) == 0 {
		return errors.New("config must contain 'updates' array")
	}

	return nil
}

// resolveRecordID picks the target record: a field of the triggering record,
// a static id from config, or the triggering record itself.
func resolveRecordID(recordIDField, staticRecordID string, actionCtx workflow.ActionContext) string {
	if recordIDField != "" {
		value, present := actionCtx.RecordData[recordIDField]
		if !present || value == nil {
			return ""
		}

		return fmt.Sprintf("%v", value)
	}

	if staticRecordID != "" {
		return staticRecordID
	}

	return actionCtx.RecordID
}
