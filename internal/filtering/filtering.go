package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/jd-gatekeeper/internal/eligibility"
	"github.com/spigell/jd-gatekeeper/internal/keywords"
	"go.uber.org/zap"
)

// Filter represents a single filtering step applied to a batch of job references.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, b *keywords.Batch) (*keywords.Batch, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger    *zap.Logger
	Engine    *eligibility.Engine
	Candidate keywords.Document
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	ExcludeFile  string
	ExcludeRoles []string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially. It returns the remaining
// references and the eligibility result when a step produced one.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, b *keywords.Batch) (*keywords.Batch, *eligibility.Result, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	var result *eligibility.Result
	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				fields := []zap.Field{zap.String("name", step.Name())}
				if reporter, ok := step.(statusProvider); ok && reporter.Status().Reason != "" {
					fields = append(fields, zap.String("reason", reporter.Status().Reason))
				}
				deps.Logger.Info("filter disabled", fields...)
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, b)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		b = next

		if collector, ok := step.(interface {
			Result() *eligibility.Result
		}); ok && collector.Result() != nil {
			result = collector.Result()
		}
	}

	return b, result, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
