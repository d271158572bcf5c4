// Package memory provides an in-memory persistence implementation used for
// development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence"
)

// Persistence implements persistence.Persistence on in-memory maps.
type Persistence struct {
	mu sync.RWMutex

	rules         map[string]*models.WorkflowRule
	executionLogs []*models.WorkflowExecutionLog
	actionLogs    []*models.WorkflowActionLog
	emailLogs     []*models.EmailLog
	scriptLogs    []*models.ScriptExecutionLog
	notifications []*models.Notification
}

func NewPersistence() *Persistence {
	return &Persistence{
		rules: make(map[string]*models.WorkflowRule),
	}
}

// SaveRule stores or replaces a rule. Used by tests and local tooling.
func (p *Persistence) SaveRule(rule *models.WorkflowRule) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rules[rule.ID] = rule
}

func (p *Persistence) FindActiveRules(_ context.Context, tenantID, collectionID string, triggerType models.TriggerType) ([]*models.WorkflowRule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var matched []*models.WorkflowRule

	for _, rule := range p.rules {
		if rule.Active && rule.TenantID == tenantID && rule.CollectionID == collectionID && rule.TriggerType == triggerType {
			matched = append(matched, rule)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].ExecutionOrder != matched[j].ExecutionOrder {
			return matched[i].ExecutionOrder < matched[j].ExecutionOrder
		}

		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	return matched, nil
}

func (p *Persistence) FindRuleByID(_ context.Context, id string) (*models.WorkflowRule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rule, found := p.rules[id]
	if !found {
		return nil, persistence.ErrRuleNotFound
	}

	return rule, nil
}

func (p *Persistence) FindScheduledRules(_ context.Context) ([]*models.WorkflowRule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var matched []*models.WorkflowRule

	for _, rule := range p.rules {
		if rule.Active && rule.TriggerType == models.TriggerScheduled {
			matched = append(matched, rule)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})

	return matched, nil
}

func (p *Persistence) MarkScheduledRun(_ context.Context, ruleID string, runAt int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rule, found := p.rules[ruleID]
	if !found {
		return persistence.ErrRuleNotFound
	}

	lastRun := time.Unix(runAt, 0).UTC()
	rule.LastScheduledRun = &lastRun

	return nil
}

func (p *Persistence) SaveExecutionLog(_ context.Context, entry *models.WorkflowExecutionLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.executionLogs = append(p.executionLogs, entry)

	return nil
}

func (p *Persistence) SaveActionLog(_ context.Context, entry *models.WorkflowActionLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.actionLogs = append(p.actionLogs, entry)

	return nil
}

func (p *Persistence) SaveEmailLog(_ context.Context, entry *models.EmailLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.emailLogs = append(p.emailLogs, entry)

	return nil
}

func (p *Persistence) SaveScriptLog(_ context.Context, entry *models.ScriptExecutionLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scriptLogs = append(p.scriptLogs, entry)

	return nil
}

func (p *Persistence) SaveNotification(_ context.Context, entry *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.notifications = append(p.notifications, entry)

	return nil
}

// ExecutionLogs returns a snapshot of the recorded execution logs.
func (p *Persistence) ExecutionLogs() []*models.WorkflowExecutionLog {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]*models.WorkflowExecutionLog(nil), p.executionLogs...)
}

// ActionLogs returns a snapshot of the recorded per-action logs.
func (p *Persistence) ActionLogs() []*models.WorkflowActionLog {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]*models.WorkflowActionLog(nil), p.actionLogs...)
}

// EmailLogs returns a snapshot of the queued emails.
func (p *Persistence) EmailLogs() []*models.EmailLog {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]*models.EmailLog(nil), p.emailLogs...)
}

// ScriptLogs returns a snapshot of the queued script invocations.
func (p *Persistence) ScriptLogs() []*models.ScriptExecutionLog {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]*models.ScriptExecutionLog(nil), p.scriptLogs...)
}

// Notifications returns a snapshot of the queued notifications.
func (p *Persistence) Notifications() []*models.Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]*models.Notification(nil), p.notifications...)
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
