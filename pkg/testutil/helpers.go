// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/realestate-model/pkg/cashflow"
	"github.com/iwvelando/realestate-model/pkg/costs"
	"github.com/iwvelando/realestate-model/pkg/loans"
	"github.com/iwvelando/realestate-model/pkg/project"
	"github.com/iwvelando/realestate-model/pkg/scenario"
)

// FindScenario finds a scenario comparison by name in the results slice.
// Returns a pointer to the comparison if found, nil otherwise.
func FindScenario(results []scenario.Comparison, name string) *scenario.Comparison {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// ReferenceParameters returns the reference project: 10 units sold at
// 85,000, land 100,000, urbanization 84,650, construction 25,850 per unit and
// admin/permits 90,100, financed by a 200,000 loan at 5% over 15 years.
func ReferenceParameters() project.Parameters {
	return project.Parameters{
		Name:      "Reference project",
		Units:     10,
		LandCost:  100000,
		SalePrice: 85000,
		Urbanization: []costs.LineItem{
			{Name: "Networks", Unit: "global", Quantity: 1, UnitPrice: 52000},
			{Name: "Street opening", Unit: "m2", Quantity: 1500, UnitPrice: 8.5},
			{Name: "Perimeter wall", Unit: "m", Quantity: 300, UnitPrice: 45},
			{Name: "Internal paving", Unit: "m2", Quantity: 320, UnitPrice: 20},
		},
		Construction: []costs.LineItem{
			{Name: "Shell", Unit: "global", Quantity: 1, UnitPrice: 19800},
			{Name: "Finishes", Unit: "global", Quantity: 1, UnitPrice: 6050},
		},
		Admin: costs.AdminBudget{
			Recurring:      []costs.FlatItem{{Name: "Overhead", Amount: 4100}},
			DurationMonths: 18,
			FixedAssets:    []costs.LineItem{{Name: "Equipment", Quantity: 1, UnitPrice: 3150}},
			Permits:        []costs.FlatItem{{Name: "Permits and taxes", Amount: 13150}},
		},
		Loan:   loans.LoanConfig{Name: "Construction loan", Principal: 200000, InterestRate: 5, TermYears: 15},
		Months: 24,
		Timeline: cashflow.Timeline{
			Land:             cashflow.Event(1),
			Urbanization:     cashflow.Window{Start: 2, End: 6},
			Construction:     cashflow.Window{Start: 4, End: 15},
			AdminPermits:     cashflow.Event(1),
			Sales:            cashflow.Window{Start: 12, End: 24},
			LoanDisbursement: cashflow.Event(3),
			RepaymentStart:   13,
		},
		TaxRate: 25,
		Scenarios: []scenario.Sensitivity{
			{Name: "Overrun and discount", ConstructionDeltaPct: 10, SalePriceDeltaPct: -5, TaxRatePct: 25},
		},
	}
}
