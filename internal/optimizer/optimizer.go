package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/realestate-model/internal/config"
	"github.com/iwvelando/realestate-model/internal/report"
	"github.com/iwvelando/realestate-model/pkg/cashflow"
	"github.com/iwvelando/realestate-model/pkg/format"
	"github.com/iwvelando/realestate-model/pkg/mathutil"
	"github.com/iwvelando/realestate-model/pkg/optimization"
	"github.com/iwvelando/realestate-model/pkg/project"
	"github.com/iwvelando/realestate-model/pkg/scenario"
	"go.uber.org/zap"
)

// Search bounds, in percent of the base value.
const (
	minConstructionDeltaPct = -100.0
	maxConstructionDeltaPct = 1000.0
	minSalePriceDeltaPct    = -100.0
	maxSalePriceDeltaPct    = 1000.0
)

// Runner performs the break-even searches of one project.
type Runner struct {
	logger   *zap.Logger
	params   project.Parameters
	settings config.BreakEvenConfig
}

type evaluation struct {
	value   float64
	outcome float64
	floor   float64
}

func (e evaluation) feasible() bool {
	return e.outcome >= e.floor
}

func (e evaluation) headroom() float64 {
	return e.outcome - e.floor
}

// target describes one search. The outcome is feasible at or above floor;
// preferUpper selects the largest feasible value instead of the smallest.
type target struct {
	name        string
	field       string
	original    float64
	lower       float64
	upper       float64
	floor       float64
	preferUpper bool
	display     func(float64) string
	evaluate    func(float64) (float64, error)
}

// Result holds the break-even summaries.
type Result struct {
	Summaries []optimization.Summary
}

// Empty indicates whether any searches were run.
func (r Result) Empty() bool {
	return len(r.Summaries) == 0
}

// Apply attaches the summaries to a report.
func (r Result) Apply(rep *report.Report) {
	if rep == nil || len(r.Summaries) == 0 {
		return
	}
	rep.BreakEven = append(rep.BreakEven, r.Summaries...)
}

// NewRunner constructs a Runner for the provided parameters.
func NewRunner(logger *zap.Logger, params project.Parameters, settings config.BreakEvenConfig) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Runner{logger: logger, params: params, settings: settings}, nil
}

// Run executes the break-even searches: the construction overrun and the sale
// price change at which gross profit reaches zero, and the smallest loan that
// keeps the cumulative cash position at or above the equity floor.
func (r *Runner) Run() (*Result, error) {
	targets := []target{r.constructionTarget(), r.salePriceTarget()}
	if loanTarget, ok := r.loanTarget(); ok {
		targets = append(targets, loanTarget)
	}

	result := &Result{}
	for _, t := range targets {
		summary, err := r.search(t)
		if err != nil {
			return nil, fmt.Errorf("break-even %s: %w", t.name, err)
		}
		result.Summaries = append(result.Summaries, summary)

		r.logger.Info("break-even search finished",
			zap.String("op", "optimizer.Run"),
			zap.String("target", t.name),
			zap.Float64("original", summary.Original),
			zap.Float64("value", summary.Value),
			zap.String("valueDisplay", summary.ValueDisplay),
			zap.Float64("outcome", summary.Outcome),
			zap.Float64("headroom", summary.Headroom),
			zap.Int("iterations", summary.Iterations),
			zap.Bool("converged", summary.Converged),
		)
	}

	if !r.hasLoanFacility() {
		r.logger.Debug("skipping minimum loan search because no loan term and schedule are configured",
			zap.String("op", "optimizer.Run"),
		)
	}

	return result, nil
}

func (r *Runner) constructionTarget() target {
	base := r.params.ProjectTotals()
	return target{
		name:        optimization.TargetConstructionOverrun,
		field:       "constructionDeltaPct",
		lower:       minConstructionDeltaPct,
		upper:       maxConstructionDeltaPct,
		preferUpper: true,
		display:     format.Percent,
		evaluate: func(delta float64) (float64, error) {
			stressed := scenario.Stress(base, scenario.Sensitivity{ConstructionDeltaPct: delta})
			return scenario.Profitability(stressed, r.params.TaxRate).GrossProfit, nil
		},
	}
}

func (r *Runner) salePriceTarget() target {
	base := r.params.ProjectTotals()
	return target{
		name:     optimization.TargetSalePriceChange,
		field:    "salePriceDeltaPct",
		lower:    minSalePriceDeltaPct,
		upper:    maxSalePriceDeltaPct,
		display:  format.Percent,
		evaluate: func(delta float64) (float64, error) {
			stressed := scenario.Stress(base, scenario.Sensitivity{SalePriceDeltaPct: delta})
			return scenario.Profitability(stressed, r.params.TaxRate).GrossProfit, nil
		},
	}
}

func (r *Runner) hasLoanFacility() bool {
	return r.params.Loan.TermYears >= 1 &&
		!r.params.Timeline.LoanDisbursement.IsZero() &&
		r.params.Timeline.RepaymentStart >= 1
}

func (r *Runner) loanTarget() (target, bool) {
	if !r.hasLoanFacility() {
		return target{}, false
	}

	timeline := r.params.Timeline
	totals := r.params.CashFlowTotals()
	loan := r.params.LoanParams()
	months := r.params.Months

	return target{
		name:     optimization.TargetMinimumLoan,
		field:    "principal",
		original: loan.Principal,
		lower:    0,
		upper:    math.Max(r.params.CostTotals().Investment(), loan.Principal),
		floor:    -r.settings.EquityFloor,
		display:  format.Currency,
		evaluate: func(principal float64) (float64, error) {
			candidate := loan
			candidate.Principal = principal
			projection, err := cashflow.Project(timeline, totals, candidate, months)
			if err != nil {
				return 0, err
			}
			return projection.PeakCapitalRequirement, nil
		},
	}, true
}

func (r *Runner) evaluate(t target, value float64) (evaluation, error) {
	outcome, err := t.evaluate(value)
	if err != nil {
		return evaluation{}, err
	}
	return evaluation{value: value, outcome: outcome, floor: t.floor}, nil
}

func (r *Runner) search(t target) (optimization.Summary, error) {
	lowerEval, err := r.evaluate(t, t.lower)
	if err != nil {
		return optimization.Summary{}, err
	}
	upperEval, err := r.evaluate(t, t.upper)
	if err != nil {
		return optimization.Summary{}, err
	}

	summary := optimization.Summary{
		Target:          t.name,
		Field:           t.field,
		Original:        t.original,
		OriginalDisplay: t.display(t.original),
		Lower:           t.lower,
		Upper:           t.upper,
		Floor:           t.floor,
	}
	finish := func(eval evaluation, iterations int, converged bool, notes ...string) optimization.Summary {
		summary.Value = eval.value
		summary.ValueDisplay = t.display(eval.value)
		summary.Outcome = eval.outcome
		summary.Headroom = eval.headroom()
		summary.Iterations = iterations
		summary.Converged = converged
		summary.Notes = notes
		return summary
	}

	if !lowerEval.feasible() && !upperEval.feasible() {
		chased := upperEval
		if lowerEval.headroom() > upperEval.headroom() {
			chased = lowerEval
		}
		note := fmt.Sprintf("unable to reach %s within bounds %s to %s",
			format.Currency(t.floor), t.display(t.lower), t.display(t.upper))
		return finish(chased, 0, false, note), nil
	}

	if lowerEval.feasible() && upperEval.feasible() {
		chosen := lowerEval
		if t.preferUpper {
			chosen = upperEval
		}
		note := fmt.Sprintf("feasible across bounds %s to %s", t.display(t.lower), t.display(t.upper))
		return finish(chosen, 0, true, note), nil
	}

	// Exactly one bound is feasible: bisect towards the other, keeping the
	// feasible side.
	feasible, infeasible := lowerEval, upperEval
	if upperEval.feasible() {
		feasible, infeasible = upperEval, lowerEval
	}

	iterations := 0
	for iterations < r.settings.MaxIterations && !mathutil.WithinTolerance(infeasible.value, feasible.value, r.settings.Tolerance) {
		mid := feasible.value + (infeasible.value-feasible.value)/2
		evalMid, err := r.evaluate(t, mid)
		if err != nil {
			return optimization.Summary{}, err
		}
		iterations++
		if evalMid.feasible() {
			feasible = evalMid
		} else {
			infeasible = evalMid
		}
	}

	converged := mathutil.WithinTolerance(infeasible.value, feasible.value, r.settings.Tolerance)
	if !converged {
		note := fmt.Sprintf("stopped after %d iterations with interval %s to %s",
			iterations, t.display(feasible.value), t.display(infeasible.value))
		return finish(feasible, iterations, false, note), nil
	}
	return finish(feasible, iterations, true), nil
}
