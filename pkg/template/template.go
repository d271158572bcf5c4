// Package template renders workflow-configured text, such as email subjects
// and bodies, against record data.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Render executes templateStr against data and returns the rendered string.
// Templates use Go text/template syntax; record fields are addressed as
// {{.record.fieldName}} alongside {{.tenant_id}}, {{.user_id}}, and
// {{.previous}} for the pre-change record state.
func Render(templateStr string, data map[string]any) (string, error) {
	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		}).
		Option("missingkey=zero").
		Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}

// RecordData builds the render scope for a record-scoped template.
func RecordData(tenantID, userID, recordID string, record, previous map[string]any) map[string]any {
	return map[string]any{
		"tenant_id": tenantID,
		"user_id":   userID,
		"record_id": recordID,
		"record":    record,
		"previous":  previous,
	}
}
