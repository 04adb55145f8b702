package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jd-gatekeeper/internal/keywords"
)

type excludeFileFilter struct {
	disabled bool
	reason   string
	path     string
}

// NewExcludeFile creates a filter that removes jobs listed in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, b *keywords.Batch) (*keywords.Batch, Step, error) {
	initial := b.Len()
	if f.path == "" {
		return b, Step{Initial: initial, Dropped: 0, Left: b.Len()}, nil
	}

	excluded, err := keywords.LoadExcludedJobs(f.path)
	if err != nil {
		return b, Step{}, fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	removed := b.Exclude(excluded.IDs())
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding jobs based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_jobs", removed),
			zap.Int("jobs_left", b.Len()),
		)
	}

	return b, Step{Initial: initial, Dropped: len(removed), Left: b.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: !f.disabled, Reason: f.reason, Details: details}
}
