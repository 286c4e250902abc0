package validation

import (
	"fmt"

	"github.com/iwvelando/realestate-model/pkg/mathutil"
)

// ValidateRepaymentHorizon checks if the loan is repaid within the projection horizon.
func ValidateRepaymentHorizon(loanName string, repaymentStart, termMonths, months int) string {
	lastMonth := repaymentStart + termMonths - 1
	if lastMonth > months {
		return fmt.Sprintf("Loan '%s' repayment runs past the projection horizon (month %d > %d) - loan will have outstanding balance",
			loanName, lastMonth, months)
	}
	return ""
}

// ValidatePhaseWindow checks if a phase is scheduled so that it contributes to the cash flow.
func ValidatePhaseWindow(phase PhaseConfig) []string {
	var warnings []string

	if phase.Amount == 0 {
		return nil
	}
	if phase.End < phase.Start {
		warnings = append(warnings, fmt.Sprintf("Phase '%s' ends before it starts (%d > %d) and will contribute nothing",
			phase.Name, phase.Start, phase.End))
	}

	return warnings
}

// ValidatePhaseOrder checks that sales start once construction has finished.
func ValidatePhaseOrder(construction, sales PhaseConfig) string {
	if construction.Amount == 0 || sales.Amount == 0 {
		return ""
	}
	if sales.Start < construction.End {
		return fmt.Sprintf("Sales start in month %d before construction ends in month %d",
			sales.Start, construction.End)
	}
	return ""
}

// ConfigValidator checks a project configuration for suspicious but valid settings.
type ConfigValidator struct {
	Months       int
	Phases       []PhaseConfig
	Construction PhaseConfig
	Sales        PhaseConfig
	Loan         LoanConfig
	Scenarios    []ScenarioConfig
}

// PhaseConfig is one scheduled phase of the project.
type PhaseConfig struct {
	Name   string
	Start  int
	End    int
	Amount float64
}

// LoanConfig is the loan facility schedule.
type LoanConfig struct {
	Name              string
	Principal         float64
	DisbursementMonth int
	RepaymentStart    int
	TermMonths        int
}

// ScenarioConfig is a stress scenario.
type ScenarioConfig struct {
	Name                 string
	Active               bool
	ConstructionDeltaPct float64
	SalePriceDeltaPct    float64
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	for _, phase := range cv.Phases {
		warnings = append(warnings, ValidatePhaseWindow(phase)...)
	}

	if warning := ValidatePhaseOrder(cv.Construction, cv.Sales); warning != "" {
		warnings = append(warnings, warning)
	}

	if cv.Loan.Principal > 0 {
		if warning := ValidateRepaymentHorizon(cv.Loan.Name, cv.Loan.RepaymentStart, cv.Loan.TermMonths, cv.Months); warning != "" {
			warnings = append(warnings, warning)
		}
		if cv.Loan.RepaymentStart < cv.Loan.DisbursementMonth {
			warnings = append(warnings, fmt.Sprintf("Loan '%s' repayment starts in month %d before disbursement in month %d",
				cv.Loan.Name, cv.Loan.RepaymentStart, cv.Loan.DisbursementMonth))
		}
	}

	for _, scenario := range cv.Scenarios {
		if !scenario.Active {
			continue
		}
		if mathutil.IsZero(scenario.ConstructionDeltaPct) && mathutil.IsZero(scenario.SalePriceDeltaPct) {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' changes neither construction cost nor sale price", scenario.Name))
		}
	}

	return warnings
}
