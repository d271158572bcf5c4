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

type deleteRecordConfig struct {
	TargetCollectionID string `json:"targetCollectionId"`
	RecordIDField      string `json:"recordIdField,omitempty"`
	RecordID           string `json:"recordId,omitempty"`
}

// DeleteRecordHandler removes a record from any collection, resolving the
// target id the same way UpdateRecordHandler does.
type DeleteRecordHandler struct {
	logger      *slog.Logger
	collections services.CollectionService
	records     services.RecordService
}

func NewDeleteRecordHandler(logger *slog.Logger, collections services.CollectionService, records services.RecordService) *DeleteRecordHandler {
	return &DeleteRecordHandler{
		logger:      logger,
		collections: collections,
		records:     records,
	}
}

func (h *DeleteRecordHandler) ActionTypeKey() string {
	return "DELETE_RECORD"
}

func (h *DeleteRecordHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg deleteRecordConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid delete record config: %v", err)), nil
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

	err = h.records.DeleteRecord(ctx, actionCtx.TenantID, cfg.TargetCollectionID, targetRecordID)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("Failed to delete record in %s: %v", collection.Name, err)), nil
	}

	h.logger.InfoContext(ctx, "Delete record action",
		"target_collection", collection.Name, "target_record_id", targetRecordID)

	return workflow.Successful(map[string]any{
		"targetCollectionId":   cfg.TargetCollectionID,
		"targetCollectionName": collection.Name,
		"targetRecordId":       targetRecordID,
		"action":               "DELETE",
	}), nil
}

func (h *DeleteRecordHandler) Validate(config string) error {
	var cfg deleteRecordConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.TargetCollectionID == "" {
		return errors.New("config must contain 'targetCollectionId'")
	}

	return nil
}
