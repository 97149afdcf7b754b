package projection

import (
	"time"

	"github.com/ignite/budget-escalator/internal/domain"
)

// Step is one previewed period.
type Step struct {
	Period int       `json:"period"`
	Budget float64   `json:"budget"`
	Date   time.Time `json:"date"`
	// ReachesTarget marks the first step at or above the target.
	ReachesTarget bool `json:"reaches_target,omitempty"`
}

// ScheduleInput describes where a preview starts from.
type ScheduleInput struct {
	CurrentBudget float64
	CurrentPeriod int
	StartPeriod   int
	StartDate     time.Time
	Rate          float64
	Cadence       domain.Cadence
	Target        *float64
}

// Schedule previews the next n periods. Each step compounds from the
// rounded previous step, the same way consecutive advances would.
func Schedule(in ScheduleInput, n int) ([]Step, error) {
	if err := ValidateRate(in.Rate); err != nil {
		return nil, err
	}
	steps := make([]Step, 0, n)
	budget := in.CurrentBudget
	reached := in.Target != nil && *in.Target > 0 && budget >= *in.Target
	for i := 1; i <= n; i++ {
		next, err := NextBudget(budget, in.Rate)
		if err != nil {
			return nil, err
		}
		period := in.CurrentPeriod + i
		step := Step{
			Period: period,
			Budget: next,
			Date:   EstimatedDate(in.StartDate, period-in.StartPeriod, in.Cadence),
		}
		if !reached && in.Target != nil && *in.Target > 0 && next >= *in.Target {
			step.ReachesTarget = true
			reached = true
		}
		steps = append(steps, step)
		budget = next
	}
	return steps, nil
}
