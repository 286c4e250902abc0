package config

import (
	"github.com/iwvelando/realestate-model/pkg/cashflow"
	"github.com/iwvelando/realestate-model/pkg/constants"
	"github.com/iwvelando/realestate-model/pkg/loans"
	"github.com/iwvelando/realestate-model/pkg/project"
	"github.com/iwvelando/realestate-model/pkg/scenario"
)

// ToLoansConfig converts the loan section to a pkg/loans.LoanConfig.
func (loan LoanConfig) ToLoansConfig() loans.LoanConfig {
	name := loan.Name
	if name == "" {
		name = "Loan"
	}
	return loans.LoanConfig{
		Name:         name,
		Principal:    loan.Principal,
		InterestRate: loan.AnnualRate,
		TermYears:    loan.TermYears,
	}
}

// ToTimeline converts the timeline section to a pkg/cashflow.Timeline. An
// unset contingency window follows the construction window.
func (t TimelineConfig) ToTimeline() cashflow.Timeline {
	contingency := t.Contingency
	if contingency.IsZero() {
		contingency = t.Construction
	}
	return cashflow.Timeline{
		StartDate:        t.StartDate,
		Land:             t.Land,
		Urbanization:     t.Urbanization,
		Construction:     t.Construction,
		AdminPermits:     t.AdminPermits,
		Contingency:      contingency,
		Sales:            t.Sales,
		LoanDisbursement: t.LoanDisbursement,
		RepaymentStart:   t.RepaymentStart,
	}
}

// EffectiveTaxRate returns the configured tax rate or the default.
func (c *Configuration) EffectiveTaxRate() float64 {
	if c.TaxRate == nil {
		return constants.DefaultTaxRate
	}
	return *c.TaxRate
}

// ActiveSensitivities returns the active scenarios as sensitivities. A
// scenario without its own tax rate uses the project tax rate.
func (c *Configuration) ActiveSensitivities() []scenario.Sensitivity {
	var sensitivities []scenario.Sensitivity
	for _, s := range c.Scenarios {
		if !s.Active {
			continue
		}
		taxRate := c.EffectiveTaxRate()
		if s.TaxRatePct != nil {
			taxRate = *s.TaxRatePct
		}
		sensitivities = append(sensitivities, scenario.Sensitivity{
			Name:                 s.Name,
			ConstructionDeltaPct: s.ConstructionDeltaPct,
			SalePriceDeltaPct:    s.SalePriceDeltaPct,
			TaxRatePct:           taxRate,
		})
	}
	return sensitivities
}

// ToParameters converts the configuration to the immutable engine parameters.
func (c *Configuration) ToParameters() project.Parameters {
	return project.Parameters{
		Name:         c.Project.Name,
		Units:        c.Project.Units,
		LandCost:     c.Project.LandCost,
		Contingency:  c.Project.Contingency,
		SalePrice:    c.Project.SalePrice,
		Urbanization: c.Costs.Urbanization,
		Construction: c.Costs.Construction,
		Admin:        c.Costs.Admin,
		Loan:         c.Loan.ToLoansConfig(),
		Months:       c.Timeline.Months,
		Timeline:     c.Timeline.ToTimeline(),
		TaxRate:      c.EffectiveTaxRate(),
		Scenarios:    c.ActiveSensitivities(),
	}
}
