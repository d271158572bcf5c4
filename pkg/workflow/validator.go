package workflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/tenbase/tenbase/pkg/models"
)

// ruleSchema is the structural contract for a workflow rule document.
// Per-action configuration stays opaque here; each handler validates its own
// config through Validate.
const ruleSchema = `{
	"type": "object",
	"required": ["tenant_id", "collection_id", "name", "trigger_type"],
	"properties": {
		"tenant_id": {"type": "string", "minLength": 1},
		"collection_id": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 3},
		"trigger_type": {
			"type": "string",
			"enum": [
				"BEFORE_CREATE", "BEFORE_UPDATE", "BEFORE_DELETE",
				"AFTER_CREATE", "AFTER_UPDATE", "AFTER_DELETE",
				"AFTER_CREATE_OR_UPDATE", "SCHEDULED"
			]
		},
		"trigger_fields": {"type": "array", "items": {"type": "string"}},
		"filter_formula": {"type": "string"},
		"execution_order": {"type": "integer"},
		"error_handling": {
			"type": "string",
			"enum": ["STOP_ON_ERROR", "CONTINUE_ON_ERROR"]
		},
		"cron_expression": {"type": "string"},
		"timezone": {"type": "string"},
		"actions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["action_type"],
				"properties": {
					"action_type": {"type": "string", "minLength": 1},
					"config": {"type": "string"},
					"execution_order": {"type": "integer"},
					"retry_count": {"type": "integer", "minimum": 0},
					"retry_delay_seconds": {"type": "integer", "minimum": 0},
					"retry_backoff": {"type": "string", "enum": ["FIXED", "EXPONENTIAL"]}
				}
			}
		}
	}
}`

// RuleValidator checks authored rule documents: structural shape against the
// JSON schema, then each action's configuration against its handler.
type RuleValidator struct {
	schema   *gojsonschema.Schema
	handlers *HandlerRegistry
}

func NewRuleValidator(handlers *HandlerRegistry) (*RuleValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(ruleSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile rule schema: %w", err)
	}

	return &RuleValidator{
		schema:   schema,
		handlers: handlers,
	}, nil
}

// ValidateDocument checks a raw rule document against the structural schema.
func (v *RuleValidator) ValidateDocument(document []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to validate rule document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}

	return fmt.Errorf("invalid rule document: %s", strings.Join(messages, "; "))
}

// ValidateRule checks a parsed rule: structural shape plus every action's
// configuration against its registered handler. Actions whose type has no
// handler fail validation at authoring time, even though the engine treats
// them as no-ops at execution time.
func (v *RuleValidator) ValidateRule(rule *models.WorkflowRule) error {
	document, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to marshal rule: %w", err)
	}

	err = v.ValidateDocument(document)
	if err != nil {
		return err
	}

	if rule.TriggerType == models.TriggerScheduled && rule.CronExpression == "" {
		return fmt.Errorf("scheduled rule %q requires a cron expression", rule.Name)
	}

	for _, action := range rule.Actions {
		handler, registered := v.handlers.GetHandler(action.ActionType)
		if !registered {
			return fmt.Errorf("unknown action type: %s", action.ActionType)
		}

		err = handler.Validate(action.Config)
		if err != nil {
			return fmt.Errorf("invalid %s config: %w", action.ActionType, err)
		}
	}

	return nil
}
