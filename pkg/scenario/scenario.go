// Package scenario evaluates project profitability under construction cost
// and sale price stress.
package scenario

import (
	"errors"
	"fmt"

	"github.com/iwvelando/realestate-model/pkg/constants"
	"github.com/iwvelando/realestate-model/pkg/costs"
	"github.com/iwvelando/realestate-model/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// ErrInvalidParameter is returned for negative totals or out of range
// percentages.
var ErrInvalidParameter = errors.New("invalid scenario parameter")

var hundred = decimal.NewFromFloat(constants.PercentageMultiplier)

// ProjectTotals are the inputs of a profitability calculation.
type ProjectTotals struct {
	Units         int     `json:"units" yaml:"units"`
	SalePrice     float64 `json:"salePrice" yaml:"salePrice"`
	Land          float64 `json:"land" yaml:"land"`
	Urbanization  float64 `json:"urbanization" yaml:"urbanization"`
	Construction  float64 `json:"construction" yaml:"construction"`
	AdminPermits  float64 `json:"adminPermits" yaml:"adminPermits"`
	Contingency   float64 `json:"contingency" yaml:"contingency"`
	LoanPrincipal float64 `json:"loanPrincipal" yaml:"loanPrincipal"`
}

// FromCosts builds project totals from cost totals, the sale price per unit
// and the loan principal.
func FromCosts(t costs.Totals, salePrice, loanPrincipal float64) ProjectTotals {
	return ProjectTotals{
		Units:         t.Units,
		SalePrice:     salePrice,
		Land:          t.Land,
		Urbanization:  t.Urbanization,
		Construction:  t.Construction(),
		AdminPermits:  t.AdminPermits,
		Contingency:   t.Contingency,
		LoanPrincipal: loanPrincipal,
	}
}

// Revenue returns the sale price times the number of units.
func (t ProjectTotals) Revenue() float64 {
	return decimal.NewFromFloat(t.SalePrice).Mul(decimal.NewFromInt(int64(t.Units))).InexactFloat64()
}

// TotalCost returns the sum of every cost category.
func (t ProjectTotals) TotalCost() float64 {
	sum := decimal.Zero
	for _, v := range []float64{t.Land, t.Urbanization, t.Construction, t.AdminPermits, t.Contingency} {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.InexactFloat64()
}

// Validate checks for negative amounts.
func (t ProjectTotals) Validate() error {
	if t.Units < 0 {
		return fmt.Errorf("%w: unit count %d is negative", ErrInvalidParameter, t.Units)
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"sale price", t.SalePrice},
		{"land", t.Land},
		{"urbanization", t.Urbanization},
		{"construction", t.Construction},
		{"admin/permits", t.AdminPermits},
		{"contingency", t.Contingency},
		{"loan principal", t.LoanPrincipal},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%w: %s %.2f is negative", ErrInvalidParameter, f.name, f.value)
		}
	}
	return nil
}

// Sensitivity is a named stress case.
type Sensitivity struct {
	Name                 string  `json:"name" yaml:"name"`
	ConstructionDeltaPct float64 `json:"constructionDeltaPct" yaml:"constructionDeltaPct"`
	SalePriceDeltaPct    float64 `json:"salePriceDeltaPct" yaml:"salePriceDeltaPct"`
	TaxRatePct           float64 `json:"taxRatePct" yaml:"taxRatePct"`
}

// Validate checks that the tax rate is a percentage and that no delta drives
// a price or cost below zero.
func (s Sensitivity) Validate() error {
	if s.TaxRatePct < 0 || s.TaxRatePct > constants.PercentageMultiplier {
		return fmt.Errorf("%w: tax rate %.2f%% outside 0-100", ErrInvalidParameter, s.TaxRatePct)
	}
	if s.ConstructionDeltaPct < -constants.PercentageMultiplier {
		return fmt.Errorf("%w: construction delta %.2f%% below -100", ErrInvalidParameter, s.ConstructionDeltaPct)
	}
	if s.SalePriceDeltaPct < -constants.PercentageMultiplier {
		return fmt.Errorf("%w: sale price delta %.2f%% below -100", ErrInvalidParameter, s.SalePriceDeltaPct)
	}
	return nil
}

// Metrics are the profitability figures of one case.
type Metrics struct {
	Revenue        float64 `json:"revenue" yaml:"revenue"`
	Construction   float64 `json:"construction" yaml:"construction"`
	TotalCost      float64 `json:"totalCost" yaml:"totalCost"`
	GrossProfit    float64 `json:"grossProfit" yaml:"grossProfit"`
	Tax            float64 `json:"tax" yaml:"tax"`
	NetProfit      float64 `json:"netProfit" yaml:"netProfit"`
	EquityRequired float64 `json:"equityRequired" yaml:"equityRequired"`
	ROI            Ratio   `json:"roi" yaml:"roi"`
	ROC            Ratio   `json:"roc" yaml:"roc"`
}

// Profitability computes the metrics of a project at the given tax rate. No
// tax is levied on a loss. ROI is undefined when no equity is required and
// ROC is undefined when there is no cost.
func Profitability(t ProjectTotals, taxRatePct float64) Metrics {
	m := Metrics{
		Revenue:      t.Revenue(),
		Construction: t.Construction,
		TotalCost:    t.TotalCost(),
	}
	m.GrossProfit = m.Revenue - m.TotalCost
	m.Tax = mathutil.ApplyPercentage(mathutil.Max(0, m.GrossProfit), taxRatePct)
	m.NetProfit = m.GrossProfit - m.Tax
	m.EquityRequired = m.TotalCost - t.LoanPrincipal
	m.ROI = Ratio(mathutil.Percentage(m.NetProfit, m.EquityRequired))
	m.ROC = Ratio(mathutil.Percentage(m.GrossProfit, m.TotalCost))
	return m
}

// Stress applies the sensitivity deltas to the sale price and construction
// cost. Every other figure is held fixed.
func Stress(t ProjectTotals, s Sensitivity) ProjectTotals {
	t.SalePrice = scale(t.SalePrice, s.SalePriceDeltaPct)
	t.Construction = scale(t.Construction, s.ConstructionDeltaPct)
	return t
}

func scale(value, deltaPct float64) float64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(deltaPct).Div(hundred))
	return decimal.NewFromFloat(value).Mul(factor).InexactFloat64()
}

// Comparison holds the base and stressed metrics of one sensitivity.
type Comparison struct {
	Name        string      `json:"name" yaml:"name"`
	Sensitivity Sensitivity `json:"sensitivity" yaml:"sensitivity"`
	Base        Metrics     `json:"base" yaml:"base"`
	Scenario    Metrics     `json:"scenario" yaml:"scenario"`
	Delta       Metrics     `json:"delta" yaml:"delta"`
}

// Evaluate compares the base case against the stressed case.
func Evaluate(base ProjectTotals, s Sensitivity) Comparison {
	baseMetrics := Profitability(base, s.TaxRatePct)
	stressed := Profitability(Stress(base, s), s.TaxRatePct)
	return Comparison{
		Name:        s.Name,
		Sensitivity: s,
		Base:        baseMetrics,
		Scenario:    stressed,
		Delta:       Difference(stressed, baseMetrics),
	}
}

// EvaluateAll evaluates each sensitivity against the same base case.
func EvaluateAll(base ProjectTotals, sensitivities []Sensitivity) []Comparison {
	comparisons := make([]Comparison, 0, len(sensitivities))
	for _, s := range sensitivities {
		comparisons = append(comparisons, Evaluate(base, s))
	}
	return comparisons
}

// Difference returns a - b field by field. A ratio difference is undefined if
// either side is undefined.
func Difference(a, b Metrics) Metrics {
	return Metrics{
		Revenue:        a.Revenue - b.Revenue,
		Construction:   a.Construction - b.Construction,
		TotalCost:      a.TotalCost - b.TotalCost,
		GrossProfit:    a.GrossProfit - b.GrossProfit,
		Tax:            a.Tax - b.Tax,
		NetProfit:      a.NetProfit - b.NetProfit,
		EquityRequired: a.EquityRequired - b.EquityRequired,
		ROI:            a.ROI.sub(b.ROI),
		ROC:            a.ROC.sub(b.ROC),
	}
}
