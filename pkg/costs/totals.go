package costs

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FlatItem is a cost with a single amount, such as a monthly overhead line or
// a permit fee.
type FlatItem struct {
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// AdminBudget holds administrative overhead: recurring monthly costs over the
// project duration, one-off fixed asset purchases, and permits/taxes.
type AdminBudget struct {
	Recurring      []FlatItem `json:"recurring" yaml:"recurring"`
	DurationMonths int        `json:"durationMonths" yaml:"durationMonths"`
	FixedAssets    []LineItem `json:"fixedAssets" yaml:"fixedAssets"`
	Permits        []FlatItem `json:"permits" yaml:"permits"`
}

// AdminSummary breaks the admin budget into its three parts.
type AdminSummary struct {
	MonthlyOverhead float64 `json:"monthlyOverhead" yaml:"monthlyOverhead"`
	Recurring       float64 `json:"recurring" yaml:"recurring"`
	FixedAssets     float64 `json:"fixedAssets" yaml:"fixedAssets"`
	Permits         float64 `json:"permits" yaml:"permits"`
	Total           float64 `json:"total" yaml:"total"`
}

// Validate checks the admin budget for negative amounts and durations.
func (b AdminBudget) Validate() error {
	if b.DurationMonths < 0 {
		return fmt.Errorf("%w: admin duration %d months is negative", ErrInvalidParameter, b.DurationMonths)
	}
	for _, item := range append(append([]FlatItem{}, b.Recurring...), b.Permits...) {
		if item.Amount < 0 {
			return fmt.Errorf("%w: admin item %s has negative amount %.2f", ErrInvalidParameter, item.Name, item.Amount)
		}
	}
	if err := Validate(b.FixedAssets); err != nil {
		return fmt.Errorf("fixed assets: %w", err)
	}
	return nil
}

// Summarize computes the admin budget totals.
func (b AdminBudget) Summarize() AdminSummary {
	monthly := sumFlat(b.Recurring)
	recurring := monthly.Mul(decimal.NewFromInt(int64(b.DurationMonths)))
	assets := decimal.NewFromFloat(Aggregate(b.FixedAssets))
	permits := sumFlat(b.Permits)

	return AdminSummary{
		MonthlyOverhead: monthly.InexactFloat64(),
		Recurring:       recurring.InexactFloat64(),
		FixedAssets:     assets.InexactFloat64(),
		Permits:         permits.InexactFloat64(),
		Total:           recurring.Add(assets).Add(permits).InexactFloat64(),
	}
}

func sumFlat(items []FlatItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Amount))
	}
	return total
}

// Totals are the category totals of a project.
type Totals struct {
	Units               int     `json:"units" yaml:"units"`
	Land                float64 `json:"land" yaml:"land"`
	Urbanization        float64 `json:"urbanization" yaml:"urbanization"`
	ConstructionPerUnit float64 `json:"constructionPerUnit" yaml:"constructionPerUnit"`
	AdminPermits        float64 `json:"adminPermits" yaml:"adminPermits"`
	Contingency         float64 `json:"contingency" yaml:"contingency"`
}

// Construction returns the construction cost of all units.
func (t Totals) Construction() float64 {
	return decimal.NewFromFloat(t.ConstructionPerUnit).Mul(decimal.NewFromInt(int64(t.Units))).InexactFloat64()
}

// Investment returns the grand total investment.
func (t Totals) Investment() float64 {
	sum := decimal.Zero
	for _, share := range t.Breakdown() {
		sum = sum.Add(decimal.NewFromFloat(share.Amount))
	}
	return sum.InexactFloat64()
}

// Validate checks the totals for negative amounts and a missing unit count.
func (t Totals) Validate() error {
	if t.Units < 1 {
		return fmt.Errorf("%w: unit count must be at least 1, got %d", ErrInvalidParameter, t.Units)
	}
	for _, share := range t.Breakdown() {
		if share.Amount < 0 {
			return fmt.Errorf("%w: %s cost %.2f is negative", ErrInvalidParameter, share.Category, share.Amount)
		}
	}
	if t.ConstructionPerUnit < 0 {
		return fmt.Errorf("%w: construction cost per unit %.2f is negative", ErrInvalidParameter, t.ConstructionPerUnit)
	}
	return nil
}

// Category names used in breakdowns and cash flow columns.
const (
	CategoryLand         = "land"
	CategoryUrbanization = "urbanization"
	CategoryConstruction = "construction"
	CategoryAdminPermits = "admin/permits"
	CategoryContingency  = "contingency"
)

// Share is one category of the investment breakdown.
type Share struct {
	Category string  `json:"category" yaml:"category"`
	Amount   float64 `json:"amount" yaml:"amount"`
	Percent  float64 `json:"percent" yaml:"percent"`
}

// Breakdown returns each cost category with its share of the investment, in
// a fixed order.
func (t Totals) Breakdown() []Share {
	shares := []Share{
		{Category: CategoryLand, Amount: t.Land},
		{Category: CategoryUrbanization, Amount: t.Urbanization},
		{Category: CategoryConstruction, Amount: t.Construction()},
		{Category: CategoryAdminPermits, Amount: t.AdminPermits},
		{Category: CategoryContingency, Amount: t.Contingency},
	}
	total := 0.0
	for _, s := range shares {
		total += s.Amount
	}
	if total > 0 {
		for i := range shares {
			shares[i].Percent = shares[i].Amount / total * 100
		}
	}
	return shares
}
