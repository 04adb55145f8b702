package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/jd-gatekeeper/internal/eligibility"
	"github.com/spigell/jd-gatekeeper/internal/keywords"
)

type eligibilityFilter struct {
	disabled bool
	reason   string
	result   *eligibility.Result
}

// NewEligibility creates the step that keeps only the jobs the candidate is
// eligible for. The remaining batch follows the engine's output order.
func NewEligibility() Filter {
	return &eligibilityFilter{}
}

func (f *eligibilityFilter) Name() string { return "eligibility" }

func (f *eligibilityFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *eligibilityFilter) IsEnabled() bool { return !f.disabled }

func (f *eligibilityFilter) Validate(*Config) error { return nil }

func (f *eligibilityFilter) Apply(ctx context.Context, deps Deps, b *keywords.Batch) (*keywords.Batch, Step, error) {
	if deps.Engine == nil {
		return b, Step{}, fmt.Errorf("eligibility engine is required")
	}

	initial := b.Len()
	var refs []keywords.Reference
	if b != nil {
		refs = b.Items
	}

	f.result = deps.Engine.Rank(ctx, deps.Candidate, refs)

	kept := make([]keywords.Reference, 0, len(f.result.Eligible))
	for _, id := range f.result.Eligible {
		if ref, ok := b.FindByID(id); ok {
			kept = append(kept, ref)
		}
	}
	next := keywords.NewBatch(kept...)

	return next, Step{Initial: initial, Dropped: initial - next.Len(), Left: next.Len()}, nil
}

// Result returns the outcome of the last Apply.
func (f *eligibilityFilter) Result() *eligibility.Result {
	return f.result
}

func (f *eligibilityFilter) Status() Status {
	details := map[string]string{}
	if f.result != nil {
		details["threshold"] = strconv.FormatFloat(f.result.Threshold, 'f', -1, 64)
		details["eligible"] = strconv.Itoa(f.result.Len())
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
