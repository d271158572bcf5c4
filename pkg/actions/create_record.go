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

type fieldMapping struct {
	TargetField string `json:"targetField"`
	SourceField string `json:"sourceField,omitempty"`
	Value       any    `json:"value,omitempty"`
}

type createRecordConfig struct {
	TargetCollectionID string         `json:"targetCollectionId"`
	FieldMappings      []fieldMapping `json:"fieldMappings"`
}

// CreateRecordHandler creates a record in another collection. Field mappings
// carry either a static value or a sourceField copied from the triggering
// record.
type CreateRecordHandler struct {
	logger      *slog.Logger
	collections services.CollectionService
	records     services.RecordService
}

func NewCreateRecordHandler(logger *slog.Logger, collections services.CollectionService, records services.RecordService) *CreateRecordHandler {
	return &CreateRecordHandler{
		logger:      logger,
		collections: collections,
		records:     records,
	}
}

func (h *CreateRecordHandler) ActionTypeKey() string {
	return "CREATE_RECORD"
}

func (h *CreateRecordHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg createRecordConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid create record config: %v", err)), nil
	}

	if strings.TrimSpace(cfg.TargetCollectionID) == "" {
		return workflow.Failed("Target collection ID is required"), nil
	}

	collection, err := h.collections.FindCollection(ctx, actionCtx.TenantID, cfg.TargetCollectionID)
	if err != nil {
		return workflow.Failed("Target collection not found: " + cfg.TargetCollectionID), nil
	}

	recordData := applyFieldMappings(cfg.FieldMappings, actionCtx.RecordData)

	createdID, err := h.records.CreateRecord(ctx, actionCtx.TenantID, cfg.TargetCollectionID, recordData)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("Failed to create record in %s: %v", collection.Name, err)), nil
	}

	h.logger.InfoContext(ctx, "Create record action",
		"target_collection", collection.Name, "created_record_id", createdID)

	return workflow.Successful(map[string]any{
		"targetCollectionId":   cfg.TargetCollectionID,
		"targetCollectionName": collection.Name,
		"createdRecordId":      createdID,
		"recordData":           recordData,
	}), nil
}

func (h *CreateRecordHandler) Validate(config string) error {
	var cfg createRecordConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.TargetCollectionID == "" {
		return errors.New("config must contain 'targetCollectionId'")
	}

	return nil
}

// applyFieldMappings resolves a mapping list against the triggering record.
// Mappings with a sourceField copy that field's current value; the rest use
// the static value. Mappings without a target field are skipped.
func applyFieldMappings(mappings []fieldMapping, recordData map[string]any) map[string]any {
	resolved := make(map[string]any, len(mappings))

	for _, mapping := range mappings {
		if strings.TrimSpace(mapping.TargetField) == "" {
			continue
		}

		if mapping.SourceField != "" {
			resolved[mapping.TargetField] = recordData[mapping.SourceField]

			continue
		}

		resolved[mapping.TargetField] = mapping.Value
	}

	return resolved
}
