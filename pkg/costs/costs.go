// Package costs aggregates editable line-item tables into the cost categories
// of a development project.
package costs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidParameter is returned for negative quantities, prices or
// durations and for out-of-range row indexes.
var ErrInvalidParameter = errors.New("invalid parameter")

// LineItem is one row of a cost table. Its total is always derived from
// Quantity and UnitPrice.
type LineItem struct {
	Name      string  `json:"name" yaml:"name"`
	Unit      string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Quantity  float64 `json:"quantity" yaml:"quantity"`
	UnitPrice float64 `json:"unitPrice" yaml:"unitPrice"`
}

// Total returns Quantity × UnitPrice.
func (item LineItem) Total() float64 {
	return lineTotal(item).InexactFloat64()
}

// Validate checks that the row is financially meaningful.
func (item LineItem) Validate() error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: line item name cannot be empty", ErrInvalidParameter)
	}
	if item.Quantity < 0 {
		return fmt.Errorf("%w: line item %s has negative quantity %.2f", ErrInvalidParameter, item.Name, item.Quantity)
	}
	if item.UnitPrice < 0 {
		return fmt.Errorf("%w: line item %s has negative unit price %.2f", ErrInvalidParameter, item.Name, item.UnitPrice)
	}
	return nil
}

func lineTotal(item LineItem) decimal.Decimal {
	return decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.UnitPrice))
}

// Aggregate returns Σ(quantity × unit price). An empty sequence yields zero.
func Aggregate(items []LineItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(lineTotal(item))
	}
	return total.InexactFloat64()
}

// Validate checks every row of a line-item sequence.
func Validate(items []LineItem) error {
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

// Table is an ordered, editable sequence of line items. Totals are
// recomputed on every read so no derived value can go stale.
type Table struct {
	Name  string
	items []LineItem
}

// NewTable builds a table from the given rows, validating each of them.
func NewTable(name string, items []LineItem) (*Table, error) {
	if err := Validate(items); err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	t := &Table{Name: name, items: make([]LineItem, len(items))}
	copy(t.items, items)
	return t, nil
}

// Add appends a row.
func (t *Table) Add(item LineItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("table %s: %w", t.Name, err)
	}
	t.items = append(t.items, item)
	return nil
}

// Update replaces the row at index i.
func (t *Table) Update(i int, item LineItem) error {
	if err := t.checkIndex(i); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("table %s: %w", t.Name, err)
	}
	t.items[i] = item
	return nil
}

// Remove deletes the row at index i, preserving the order of the rest.
func (t *Table) Remove(i int) error {
	if err := t.checkIndex(i); err != nil {
		return err
	}
	t.items = append(t.items[:i], t.items[i+1:]...)
	return nil
}

// Items returns a copy of the rows.
func (t *Table) Items() []LineItem {
	out := make([]LineItem, len(t.items))
	copy(out, t.items)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.items)
}

// Total returns the aggregate of all rows.
func (t *Table) Total() float64 {
	return Aggregate(t.items)
}

func (t *Table) checkIndex(i int) error {
	if i < 0 || i >= len(t.items) {
		return fmt.Errorf("%w: table %s has no row %d", ErrInvalidParameter, t.Name, i)
	}
	return nil
}
