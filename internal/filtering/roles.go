package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jd-gatekeeper/internal/keywords"
)

type rolesFilter struct {
	disabled bool
	reason   string
	roles    []string
}

// NewRoles creates a filter that removes jobs whose role name is listed in the config.
func NewRoles() Filter {
	return &rolesFilter{}
}

func (f *rolesFilter) Name() string { return "roles" }

func (f *rolesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *rolesFilter) IsEnabled() bool { return !f.disabled }

func (f *rolesFilter) Validate(cfg *Config) error {
	f.roles = nil
	if cfg != nil {
		for _, role := range cfg.ExcludeRoles {
			if role = strings.TrimSpace(role); role != "" {
				f.roles = append(f.roles, role)
			}
		}
	}
	return nil
}

func (f *rolesFilter) Apply(_ context.Context, deps Deps, b *keywords.Batch) (*keywords.Batch, Step, error) {
	initial := b.Len()
	if len(f.roles) == 0 {
		return b, Step{Initial: initial, Dropped: 0, Left: b.Len()}, nil
	}

	var ids []string
	for _, ref := range b.Items {
		role := keywords.RoleName(ref.ID)
		for _, excluded := range f.roles {
			if strings.EqualFold(role, excluded) {
				ids = append(ids, ref.ID)
				break
			}
		}
	}

	removed := b.Exclude(ids)
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding jobs by role",
			zap.Strings("excluded_roles", f.roles),
			zap.Strings("excluded_jobs", removed),
			zap.Int("jobs_left", b.Len()),
		)
	}

	return b, Step{Initial: initial, Dropped: len(removed), Left: b.Len()}, nil
}

func (f *rolesFilter) Status() Status {
	details := map[string]string{}
	if len(f.roles) > 0 {
		details["roles"] = strings.Join(f.roles, ",")
	}
	return Status{Name: f.Name(), Enabled: !f.disabled, Reason: f.reason, Details: details}
}
