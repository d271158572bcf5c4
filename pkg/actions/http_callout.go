package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tenbase/tenbase/pkg/workflow"
)

// maxResponseSize caps how much of a callout response is kept in the result.
const maxResponseSize = 50_000

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

type httpCalloutConfig struct {
	URL              string            `json:"url"`
	Method           string            `json:"method,omitempty"`
	Headers          map[string]string `json:"headers,omitempty"`
	Body             json.RawMessage   `json:"body,omitempty"`
	ResponseVariable string            `json:"responseVariable,omitempty"`
}

// HTTPCalloutHandler makes an HTTP request and captures the response. When a
// responseVariable is configured the parsed response is bound into the
// firing's resolved data for downstream actions.
type HTTPCalloutHandler struct {
	logger *slog.Logger
	client *http.Client
}

func NewHTTPCalloutHandler(logger *slog.Logger, client *http.Client) *HTTPCalloutHandler {
	return &HTTPCalloutHandler{
		logger: logger,
		client: client,
	}
}

func (h *HTTPCalloutHandler) ActionTypeKey() string {
	return "HTTP_CALLOUT"
}

func (h *HTTPCalloutHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg httpCalloutConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid http callout config: %v", err)), nil
	}

	if strings.TrimSpace(cfg.URL) == "" {
		return workflow.Failed("URL is required for HTTP callout"), nil
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}

	if !allowedMethods[method] {
		return workflow.Failed("Invalid HTTP method: " + cfg.Method), nil
	}

	body, err := calloutBody(cfg.Body)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid http callout body: %v", err)), nil
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, strings.NewReader(body))
	if err != nil {
		return workflow.Failed(fmt.Sprintf("failed to build request: %v", err)), nil
	}

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	h.logger.InfoContext(ctx, "HTTP callout",
		"method", method, "url", cfg.URL, "workflow_rule_id", actionCtx.WorkflowRuleID)

	resp, err := h.client.Do(req)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("HTTP callout failed: %v", err)), nil
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return workflow.Failed(fmt.Sprintf("failed to read response: %v", err)), nil
	}

	outputData := map[string]any{
		"statusCode": resp.StatusCode,
		"url":        cfg.URL,
		"method":     method,
	}

	if len(responseBytes) > 0 {
		responseBody := string(responseBytes)
		if len(responseBody) > maxResponseSize {
			responseBody = responseBody[:maxResponseSize] + "... [truncated]"
		}

		outputData["responseBody"] = responseBody

		// Best effort: structured access for downstream actions when the
		// response is JSON.
		var parsed any
		if json.Unmarshal(responseBytes, &parsed) == nil {
			outputData["responseData"] = parsed
		}
	}

	if cfg.ResponseVariable != "" {
		outputData["responseVariable"] = cfg.ResponseVariable
	}

	h.logger.InfoContext(ctx, "HTTP callout completed",
		"url", cfg.URL, "status", resp.StatusCode)

	return workflow.Successful(outputData), nil
}

func (h *HTTPCalloutHandler) Validate(config string) error {
	var cfg httpCalloutConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.URL == "" {
		return errors.New("config must contain 'url'")
	}

	if cfg.Method != "" && !allowedMethods[strings.ToUpper(cfg.Method)] {
		return fmt.Errorf("invalid HTTP method: %s", cfg.Method)
	}

	return nil
}

// calloutBody renders the configured body: raw strings pass through, any
// other JSON value is re-serialized.
func calloutBody(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var asString string
	if json.Unmarshal(raw, &asString) == nil {
		return asString, nil
	}

	return string(raw), nil
}
