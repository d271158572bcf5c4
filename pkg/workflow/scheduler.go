package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence"
)

// DefaultPollInterval is how often the scheduler checks for due rules.
const DefaultPollInterval = time.Minute

// Scheduler polls SCHEDULED rules and executes the ones whose cron expression
// is due. Each rule's expression is evaluated in the rule's own timezone, and
// the stored last-run timestamp keeps restarts from double-firing.
type Scheduler struct {
	logger       *slog.Logger
	rules        persistence.RuleRepository
	engine       *Engine
	parser       cron.Parser
	pollInterval time.Duration
}

func NewScheduler(logger *slog.Logger, rules persistence.RuleRepository, engine *Engine, pollInterval time.Duration) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &Scheduler{
		logger:       logger.With("module", "scheduler"),
		rules:        rules,
		engine:       engine,
		parser:       cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		pollInterval: pollInterval,
	}
}

// Start runs the polling loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.InfoContext(ctx, "Starting workflow scheduler", "poll_interval", s.pollInterval)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Stopping workflow scheduler")

			return
		case <-ticker.C:
			s.tick(ctx, time.Now())
		}
	}
}

// tick executes every due rule once.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	rules, err := s.rules.FindScheduledRules(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load scheduled rules", "error", err)

		return
	}

	for _, rule := range rules {
		due, err := s.isDue(rule, now)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping rule with invalid schedule",
				"rule", rule.Name, "cron", rule.CronExpression, "error", err)

			continue
		}

		if !due {
			continue
		}

		err = s.rules.MarkScheduledRun(ctx, rule.ID, now.Unix())
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to mark scheduled run",
				"rule", rule.Name, "error", err)

			continue
		}

		err = s.engine.ExecuteScheduledRule(ctx, rule)
		if err != nil {
			s.logger.ErrorContext(ctx, "Scheduled rule execution failed",
				"rule", rule.Name, "error", err)
		}
	}
}

// isDue reports whether the rule's next fire time after its last run has
// passed. Rules that never ran use one poll interval ago as the reference so
// a fresh deployment does not replay the entire cron history.
func (s *Scheduler) isDue(rule *models.WorkflowRule, now time.Time) (bool, error) {
	schedule, err := s.parser.Parse(rule.CronExpression)
	if err != nil {
		return false, err
	}

	location := time.UTC

	if rule.Timezone != "" {
		location, err = time.LoadLocation(rule.Timezone)
		if err != nil {
			return false, err
		}
	}

	reference := now.Add(-s.pollInterval)
	if rule.LastScheduledRun != nil {
		reference = *rule.LastScheduledRun
	}

	next := schedule.Next(reference.In(location))

	return !next.After(now.In(location)), nil
}
