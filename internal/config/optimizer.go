package config

import (
	"fmt"

	"github.com/iwvelando/realestate-model/pkg/constants"
)

// BreakEvenConfig enables the break-even searches. EquityFloor is the equity
// the developer can supply; the minimum loan search keeps the cumulative cash
// position at or above its negation.
type BreakEvenConfig struct {
	Enabled       bool    `yaml:"enabled" json:"enabled"`
	EquityFloor   float64 `yaml:"equityFloor,omitempty" json:"equityFloor,omitempty"`
	Tolerance     float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	MaxIterations int     `yaml:"maxIterations,omitempty" json:"maxIterations,omitempty"`
}

// Normalize ensures defaults are applied before validation.
func (b *BreakEvenConfig) Normalize() {
	if b == nil {
		return
	}
	if b.Tolerance <= 0 {
		b.Tolerance = constants.DefaultSolverTolerance
	}
	if b.MaxIterations <= 0 {
		b.MaxIterations = constants.DefaultSolverMaxIterations
	}
}

// Validate returns an error when the break-even configuration is unusable.
func (b *BreakEvenConfig) Validate() error {
	if b == nil {
		return fmt.Errorf("break-even configuration cannot be nil")
	}

	b.Normalize()

	if b.EquityFloor < 0 {
		return fmt.Errorf("equity floor %.2f must not be negative", b.EquityFloor)
	}
	return nil
}
