// Package project defines the immutable parameter set of one development
// project and derives the inputs of each calculation from it.
package project

import (
	"errors"
	"fmt"

	"github.com/iwvelando/realestate-model/pkg/cashflow"
	"github.com/iwvelando/realestate-model/pkg/constants"
	"github.com/iwvelando/realestate-model/pkg/costs"
	"github.com/iwvelando/realestate-model/pkg/loans"
	"github.com/iwvelando/realestate-model/pkg/scenario"
)

// ErrMissingParameter is returned when a required parameter was not supplied.
var ErrMissingParameter = errors.New("missing project parameter")

// Parameters hold every input of a calculation pass. They are passed by value
// and never modified by the engine.
type Parameters struct {
	Name         string                 `json:"name" yaml:"name"`
	Units        int                    `json:"units" yaml:"units"`
	LandCost     float64                `json:"landCost" yaml:"landCost"`
	Contingency  float64                `json:"contingency" yaml:"contingency"`
	SalePrice    float64                `json:"salePrice" yaml:"salePrice"`
	Urbanization []costs.LineItem       `json:"urbanization" yaml:"urbanization"`
	Construction []costs.LineItem       `json:"construction" yaml:"construction"` // per unit
	Admin        costs.AdminBudget      `json:"admin" yaml:"admin"`
	Loan         loans.LoanConfig       `json:"loan" yaml:"loan"`
	Months       int                    `json:"months" yaml:"months"`
	Timeline     cashflow.Timeline      `json:"timeline" yaml:"timeline"`
	TaxRate      float64                `json:"taxRate" yaml:"taxRate"`
	Scenarios    []scenario.Sensitivity `json:"scenarios" yaml:"scenarios"`
}

// Validate returns an error for a missing dependency or an invalid value
// instead of substituting a default.
func (p Parameters) Validate() error {
	if p.Units < 1 {
		return fmt.Errorf("%w: unit count must be at least 1, got %d", ErrMissingParameter, p.Units)
	}
	if p.Months < 1 {
		return fmt.Errorf("%w: timeline must span at least 1 month, got %d", ErrMissingParameter, p.Months)
	}
	if p.Loan.Principal > 0 && p.Loan.TermYears < 1 {
		return fmt.Errorf("%w: loan term must be at least 1 year, got %d", ErrMissingParameter, p.Loan.TermYears)
	}
	if p.SalePrice < 0 {
		return fmt.Errorf("%w: sale price %.2f is negative", costs.ErrInvalidParameter, p.SalePrice)
	}
	if err := costs.Validate(p.Urbanization); err != nil {
		return fmt.Errorf("urbanization costs: %w", err)
	}
	if err := costs.Validate(p.Construction); err != nil {
		return fmt.Errorf("construction costs: %w", err)
	}
	if err := p.Admin.Validate(); err != nil {
		return fmt.Errorf("admin costs: %w", err)
	}
	if err := p.CostTotals().Validate(); err != nil {
		return err
	}
	if p.Loan.Principal > 0 {
		if err := p.Loan.Validate(); err != nil {
			return err
		}
	}
	if err := cashflow.Validate(p.Timeline, p.CashFlowTotals(), p.LoanParams(), p.Months); err != nil {
		return err
	}
	if err := p.BaseSensitivity().Validate(); err != nil {
		return err
	}
	for _, s := range p.Scenarios {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return nil
}

// CostTotals aggregates every cost table into category totals.
func (p Parameters) CostTotals() costs.Totals {
	return costs.Totals{
		Units:               p.Units,
		Land:                p.LandCost,
		Urbanization:        costs.Aggregate(p.Urbanization),
		ConstructionPerUnit: costs.Aggregate(p.Construction),
		AdminPermits:        p.Admin.Summarize().Total,
		Contingency:         p.Contingency,
	}
}

// CashFlowTotals returns the amounts distributed by the cash flow projection.
func (p Parameters) CashFlowTotals() cashflow.Totals {
	return cashflow.TotalsFrom(p.CostTotals(), p.SalePrice)
}

// LoanParams returns the loan facility in cash flow terms.
func (p Parameters) LoanParams() cashflow.LoanParams {
	return cashflow.LoanParams{
		Principal:  p.Loan.Principal,
		AnnualRate: p.Loan.InterestRate,
		TermYears:  p.Loan.TermYears,
	}
}

// ProjectTotals returns the inputs of the profitability calculation.
func (p Parameters) ProjectTotals() scenario.ProjectTotals {
	return scenario.FromCosts(p.CostTotals(), p.SalePrice, p.Loan.Principal)
}

// BaseSensitivity is the unstressed case at the project tax rate.
func (p Parameters) BaseSensitivity() scenario.Sensitivity {
	return scenario.Sensitivity{Name: "Base", TaxRatePct: p.TaxRate}
}

// RepaymentEnd returns the last month of loan repayment had the horizon been
// unbounded, or zero without a loan.
func (p Parameters) RepaymentEnd() int {
	if p.Loan.Principal <= 0 {
		return 0
	}
	return p.Timeline.RepaymentStart + p.Loan.TermYears*constants.MonthsPerYear - 1
}
