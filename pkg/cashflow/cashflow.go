// Package cashflow projects the monthly cash flow of a development project.
package cashflow

import (
	"errors"
	"fmt"

	"github.com/iwvelando/realestate-model/pkg/costs"
	"github.com/iwvelando/realestate-model/pkg/datetime"
	"github.com/iwvelando/realestate-model/pkg/loans"
	"go.uber.org/zap"
)

// ErrInvalidParameter is returned when the horizon or a phase window is out
// of range.
var ErrInvalidParameter = errors.New("invalid cash flow parameter")

// Window is an inclusive range of project months.
type Window struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Event returns a single-month window.
func Event(month int) Window {
	return Window{Start: month, End: month}
}

// Duration returns the number of months in the window. A reversed window has
// a non-positive duration.
func (w Window) Duration() int {
	return w.End - w.Start + 1
}

// Contains reports whether month falls within the window.
func (w Window) Contains(month int) bool {
	return month >= w.Start && month <= w.End
}

// IsZero reports whether the window was left unset.
func (w Window) IsZero() bool {
	return w == Window{}
}

// Timeline places each project phase on the month axis.
type Timeline struct {
	StartDate        string `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	Land             Window `json:"land" yaml:"land"`
	Urbanization     Window `json:"urbanization" yaml:"urbanization"`
	Construction     Window `json:"construction" yaml:"construction"`
	AdminPermits     Window `json:"adminPermits" yaml:"adminPermits"`
	Contingency      Window `json:"contingency" yaml:"contingency"`
	Sales            Window `json:"sales" yaml:"sales"`
	LoanDisbursement Window `json:"loanDisbursement" yaml:"loanDisbursement"`
	RepaymentStart   int    `json:"repaymentStart" yaml:"repaymentStart"`
}

// Totals are the amounts distributed over the timeline.
type Totals struct {
	Land         float64 `json:"land" yaml:"land"`
	Urbanization float64 `json:"urbanization" yaml:"urbanization"`
	Construction float64 `json:"construction" yaml:"construction"`
	AdminPermits float64 `json:"adminPermits" yaml:"adminPermits"`
	Contingency  float64 `json:"contingency" yaml:"contingency"`
	Revenue      float64 `json:"revenue" yaml:"revenue"`
}

// TotalsFrom builds cash flow totals from cost totals and the sale price per
// unit.
func TotalsFrom(t costs.Totals, salePrice float64) Totals {
	return Totals{
		Land:         t.Land,
		Urbanization: t.Urbanization,
		Construction: t.Construction(),
		AdminPermits: t.AdminPermits,
		Contingency:  t.Contingency,
		Revenue:      salePrice * float64(t.Units),
	}
}

// LoanParams describe the single loan facility.
type LoanParams struct {
	Principal  float64 `json:"principal" yaml:"principal"`
	AnnualRate float64 `json:"annualRate" yaml:"annualRate"`
	TermYears  int     `json:"termYears" yaml:"termYears"`
}

// Row is one month of the projection. Inflows are positive, outflows negative.
type Row struct {
	Month            int     `json:"month" yaml:"month"`
	Date             string  `json:"date,omitempty" yaml:"date,omitempty"`
	Sales            float64 `json:"sales" yaml:"sales"`
	LoanDisbursement float64 `json:"loanDisbursement" yaml:"loanDisbursement"`
	Land             float64 `json:"land" yaml:"land"`
	Urbanization     float64 `json:"urbanization" yaml:"urbanization"`
	Construction     float64 `json:"construction" yaml:"construction"`
	AdminPermits     float64 `json:"adminPermits" yaml:"adminPermits"`
	Contingency      float64 `json:"contingency" yaml:"contingency"`
	LoanRepayment    float64 `json:"loanRepayment" yaml:"loanRepayment"`
	Net              float64 `json:"net" yaml:"net"`
	Cumulative       float64 `json:"cumulative" yaml:"cumulative"`
}

func (r *Row) sum() float64 {
	return r.Sales + r.LoanDisbursement + r.Land + r.Urbanization + r.Construction +
		r.AdminPermits + r.Contingency + r.LoanRepayment
}

// Projection is the full monthly series and its summary figures.
type Projection struct {
	Rows []Row `json:"rows" yaml:"rows"`
	// PeakCapitalRequirement is the minimum of the cumulative series. A
	// negative value is the external capital needed at that point.
	PeakCapitalRequirement float64 `json:"peakCapitalRequirement" yaml:"peakCapitalRequirement"`
	PeakMonth              int     `json:"peakMonth" yaml:"peakMonth"`
	FinalBalance           float64 `json:"finalBalance" yaml:"finalBalance"`
	TotalInflows           float64 `json:"totalInflows" yaml:"totalInflows"`
	TotalOutflows          float64 `json:"totalOutflows" yaml:"totalOutflows"`
	LoanPayment            float64 `json:"loanPayment" yaml:"loanPayment"`
	RepaymentMonths        int     `json:"repaymentMonths" yaml:"repaymentMonths"`
}

// Projector distributes project totals over a timeline.
type Projector struct {
	logger *zap.Logger
}

// NewProjector creates a projector. A nil logger disables logging.
func NewProjector(logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{logger: logger}
}

// Project computes the monthly cash flow over months 1..months.
func Project(timeline Timeline, totals Totals, loan LoanParams, months int) (Projection, error) {
	return NewProjector(nil).Project(timeline, totals, loan, months)
}

// Project computes the monthly cash flow over months 1..months.
func (p *Projector) Project(timeline Timeline, totals Totals, loan LoanParams, months int) (Projection, error) {
	if err := Validate(timeline, totals, loan, months); err != nil {
		return Projection{}, err
	}

	labels, err := datetime.MonthLabels(timeline.StartDate, months)
	if err != nil {
		return Projection{}, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	rows := make([]Row, months)
	for i := range rows {
		rows[i].Month = i + 1
		if labels != nil {
			rows[i].Date = labels[i]
		}
	}

	spread(rows, timeline.Land, -totals.Land, func(r *Row, v float64) { r.Land += v })
	spread(rows, timeline.Urbanization, -totals.Urbanization, func(r *Row, v float64) { r.Urbanization += v })
	spread(rows, timeline.Construction, -totals.Construction, func(r *Row, v float64) { r.Construction += v })
	spread(rows, timeline.AdminPermits, -totals.AdminPermits, func(r *Row, v float64) { r.AdminPermits += v })
	spread(rows, timeline.Contingency, -totals.Contingency, func(r *Row, v float64) { r.Contingency += v })
	spread(rows, timeline.Sales, totals.Revenue, func(r *Row, v float64) { r.Sales += v })

	projection := Projection{}
	if loan.Principal > 0 {
		spread(rows, timeline.LoanDisbursement, loan.Principal, func(r *Row, v float64) { r.LoanDisbursement += v })

		schedule, err := loans.NewAmortizationScheduleGenerator(p.logger).GenerateSchedule(loans.LoanConfig{
			Principal:    loan.Principal,
			InterestRate: loan.AnnualRate,
			TermYears:    loan.TermYears,
		})
		if err != nil {
			return Projection{}, fmt.Errorf("loan repayment: %w", err)
		}

		start := timeline.RepaymentStart
		repaymentMonths := min(months-start+1, len(schedule.Payments))
		for i := 0; i < repaymentMonths; i++ {
			rows[start-1+i].LoanRepayment -= schedule.Payments[i].Payment
		}
		projection.LoanPayment = schedule.MonthlyPayment
		projection.RepaymentMonths = repaymentMonths

		if repaymentMonths < len(schedule.Payments) {
			p.logger.Debug(fmt.Sprintf("loan repayment truncated to %d of %d months by horizon", repaymentMonths, len(schedule.Payments)),
				zap.String("op", "cashflow.Project"),
			)
		}
	}

	cumulative := 0.0
	for i := range rows {
		row := &rows[i]
		row.Net = row.sum()
		cumulative += row.Net
		row.Cumulative = cumulative

		if i == 0 || row.Cumulative < projection.PeakCapitalRequirement {
			projection.PeakCapitalRequirement = row.Cumulative
			projection.PeakMonth = row.Month
		}
		for _, v := range []float64{row.Sales, row.LoanDisbursement, row.Land, row.Urbanization,
			row.Construction, row.AdminPermits, row.Contingency, row.LoanRepayment} {
			if v > 0 {
				projection.TotalInflows += v
			} else {
				projection.TotalOutflows += v
			}
		}
	}
	projection.Rows = rows
	projection.FinalBalance = cumulative

	p.logger.Debug("projected cash flow",
		zap.String("op", "cashflow.Project"),
		zap.Int("months", months),
		zap.Float64("peakCapitalRequirement", projection.PeakCapitalRequirement),
		zap.Int("peakMonth", projection.PeakMonth),
		zap.Float64("finalBalance", projection.FinalBalance),
	)

	return projection, nil
}

// spread distributes amount evenly over the window. A window with no duration
// contributes nothing.
func spread(rows []Row, w Window, amount float64, add func(*Row, float64)) {
	d := w.Duration()
	if d <= 0 || amount == 0 {
		return
	}
	share := amount / float64(d)
	for month := w.Start; month <= w.End; month++ {
		add(&rows[month-1], share)
	}
}

// Validate checks the horizon and every scheduled window. A window may be left
// unset only when nothing is distributed over it.
func Validate(timeline Timeline, totals Totals, loan LoanParams, months int) error {
	if months < 1 {
		return fmt.Errorf("%w: horizon must be at least 1 month, got %d", ErrInvalidParameter, months)
	}

	if timeline.StartDate != "" {
		if err := datetime.ValidateDate(timeline.StartDate); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
		}
	}

	phases := []struct {
		name   string
		window Window
		amount float64
		event  bool
	}{
		{"land", timeline.Land, totals.Land, true},
		{"urbanization", timeline.Urbanization, totals.Urbanization, false},
		{"construction", timeline.Construction, totals.Construction, false},
		{"admin/permits", timeline.AdminPermits, totals.AdminPermits, true},
		{"contingency", timeline.Contingency, totals.Contingency, false},
		{"sales", timeline.Sales, totals.Revenue, false},
		{"loan disbursement", timeline.LoanDisbursement, loan.Principal, true},
	}
	for _, phase := range phases {
		if phase.amount < 0 {
			return fmt.Errorf("%w: %s amount %.2f is negative", ErrInvalidParameter, phase.name, phase.amount)
		}
		if phase.amount == 0 && phase.window.IsZero() {
			continue
		}
		if err := checkWindow(phase.name, phase.window, months); err != nil {
			return err
		}
		if phase.event && phase.window.Start != phase.window.End {
			return fmt.Errorf("%w: %s is a single-month event, got months %d-%d",
				ErrInvalidParameter, phase.name, phase.window.Start, phase.window.End)
		}
	}

	if loan.Principal > 0 {
		if timeline.RepaymentStart < 1 || timeline.RepaymentStart > months {
			return fmt.Errorf("%w: loan repayment start month %d outside 1-%d",
				ErrInvalidParameter, timeline.RepaymentStart, months)
		}
	}
	return nil
}

func checkWindow(name string, w Window, months int) error {
	for _, bound := range []int{w.Start, w.End} {
		if bound < 1 || bound > months {
			return fmt.Errorf("%w: %s window %d-%d outside 1-%d", ErrInvalidParameter, name, w.Start, w.End, months)
		}
	}
	return nil
}
