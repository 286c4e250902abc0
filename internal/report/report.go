// Package report defines the data structures related to a project report and
// includes functions for computing it.
package report

import (
	"fmt"

	"github.com/iwvelando/realestate-model/internal/config"
	"github.com/iwvelando/realestate-model/pkg/cashflow"
	"github.com/iwvelando/realestate-model/pkg/costs"
	"github.com/iwvelando/realestate-model/pkg/loans"
	"github.com/iwvelando/realestate-model/pkg/optimization"
	"github.com/iwvelando/realestate-model/pkg/project"
	"github.com/iwvelando/realestate-model/pkg/scenario"
	"go.uber.org/zap"
)

// Report holds every derived figure of one project.
type Report struct {
	Name       string                 `json:"name" yaml:"name"`
	Totals     costs.Totals           `json:"totals" yaml:"totals"`
	Breakdown  []costs.Share          `json:"breakdown" yaml:"breakdown"`
	Admin      costs.AdminSummary     `json:"admin" yaml:"admin"`
	Investment float64                `json:"investment" yaml:"investment"`
	Revenue    float64                `json:"revenue" yaml:"revenue"`
	Loan       *loans.Schedule        `json:"loan,omitempty" yaml:"loan,omitempty"`
	CashFlow   cashflow.Projection    `json:"cashFlow" yaml:"cashFlow"`
	Base       scenario.Metrics       `json:"base" yaml:"base"`
	Scenarios  []scenario.Comparison  `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`
	BreakEven  []optimization.Summary `json:"breakEven,omitempty" yaml:"breakEven,omitempty"`
	Warnings   []string               `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// GetReport validates the configuration and computes its report.
func GetReport(logger *zap.Logger, conf config.Configuration) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := conf.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid configuration: %w", err)
	}

	result, err := Generate(logger, conf.ToParameters())
	if err != nil {
		return Report{}, err
	}
	result.Warnings = conf.ValidateConfiguration()

	for _, warning := range result.Warnings {
		logger.Warn(warning, zap.String("op", "report.GetReport"))
	}

	return result, nil
}

// Generate runs the cost aggregation, loan amortization, cash flow projection
// and scenario evaluation for one set of parameters.
func Generate(logger *zap.Logger, params project.Parameters) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := params.Validate(); err != nil {
		return Report{}, err
	}

	totals := params.CostTotals()
	result := Report{
		Name:       params.Name,
		Totals:     totals,
		Breakdown:  totals.Breakdown(),
		Admin:      params.Admin.Summarize(),
		Investment: totals.Investment(),
		Revenue:    params.CashFlowTotals().Revenue,
	}
	logger.Debug(fmt.Sprintf("aggregated costs of project %s", params.Name),
		zap.String("op", "report.GetReport"),
		zap.Float64("investment", result.Investment),
		zap.Float64("revenue", result.Revenue),
	)

	if params.Loan.Principal > 0 {
		schedule, err := loans.NewAmortizationScheduleGenerator(logger).GenerateSchedule(params.Loan)
		if err != nil {
			return Report{}, fmt.Errorf("loan %s: %w", params.Loan.Name, err)
		}
		result.Loan = &schedule
		logger.Debug(fmt.Sprintf("amortized loan %s", params.Loan.Name),
			zap.String("op", "report.GetReport"),
			zap.Float64("monthlyPayment", schedule.MonthlyPayment),
			zap.Float64("totalInterest", schedule.TotalInterest),
		)
	} else {
		logger.Debug("skipping amortization because no loan is configured",
			zap.String("op", "report.GetReport"),
		)
	}

	projection, err := cashflow.NewProjector(logger).Project(params.Timeline, params.CashFlowTotals(), params.LoanParams(), params.Months)
	if err != nil {
		return Report{}, fmt.Errorf("cash flow: %w", err)
	}
	result.CashFlow = projection

	base := params.ProjectTotals()
	result.Base = scenario.Profitability(base, params.TaxRate)
	result.Scenarios = scenario.EvaluateAll(base, params.Scenarios)
	logger.Debug(fmt.Sprintf("evaluated %d scenarios", len(result.Scenarios)),
		zap.String("op", "report.GetReport"),
		zap.Float64("grossProfit", result.Base.GrossProfit),
		zap.Stringer("roi", result.Base.ROI),
	)

	return result, nil
}

// FindScenario returns the comparison with the given name, or nil.
func (r *Report) FindScenario(name string) *scenario.Comparison {
	for i := range r.Scenarios {
		if r.Scenarios[i].Name == name {
			return &r.Scenarios[i]
		}
	}
	return nil
}
