// Package loans provides loan amortization utilities.
package loans

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/realestate-model/pkg/constants"
	"go.uber.org/zap"
)

// ErrInvalidParameter is returned for a term outside 1..MaxLoanTermYears or a
// negative principal or interest rate.
var ErrInvalidParameter = errors.New("invalid loan parameter")

// Payment holds the values for a given month of the schedule.
type Payment struct {
	Month int `json:"month" yaml:"month"`
	// Payment equals the fixed monthly payment except on the final row, where
	// it is principal plus interest after the residue is absorbed.
	Payment            float64 `json:"payment" yaml:"payment"`
	Principal          float64 `json:"principal" yaml:"principal"`
	Interest           float64 `json:"interest" yaml:"interest"`
	RemainingPrincipal float64 `json:"remainingPrincipal" yaml:"remainingPrincipal"`
}

// Schedule is a complete amortization schedule.
type Schedule struct {
	MonthlyPayment float64   `json:"monthlyPayment" yaml:"monthlyPayment"`
	Payments       []Payment `json:"payments" yaml:"payments"`
	TotalPaid      float64   `json:"totalPaid" yaml:"totalPaid"`
	TotalInterest  float64   `json:"totalInterest" yaml:"totalInterest"`
}

// LoanConfig represents loan parameters.
type LoanConfig struct {
	Name         string  `json:"name,omitempty" yaml:"name,omitempty"`
	Principal    float64 `json:"principal" yaml:"principal"`
	InterestRate float64 `json:"annualRate" yaml:"annualRate"` // annual, percent
	TermYears    int     `json:"termYears" yaml:"termYears"`
}

// TermMonths returns the number of monthly payments.
func (l LoanConfig) TermMonths() int {
	return l.TermYears * constants.MonthsPerYear
}

// Validate checks the loan parameters.
func (l LoanConfig) Validate() error {
	if l.TermYears <= 0 {
		return fmt.Errorf("%w: term must be at least 1 year, got %d", ErrInvalidParameter, l.TermYears)
	}
	if l.TermYears > constants.MaxLoanTermYears {
		return fmt.Errorf("%w: term must be at most %d years, got %d", ErrInvalidParameter, constants.MaxLoanTermYears, l.TermYears)
	}
	if l.Principal < 0 {
		return fmt.Errorf("%w: principal %.2f is negative", ErrInvalidParameter, l.Principal)
	}
	if l.InterestRate < 0 {
		return fmt.Errorf("%w: annual rate %.2f is negative", ErrInvalidParameter, l.InterestRate)
	}
	return nil
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	periodicInterestRate := MonthlyRate(annualInterestRate)
	// 1 - (1+r)^-n computed without losing r when it is tiny next to 1.
	denominator := -math.Expm1(-float64(termMonths) * math.Log1p(periodicInterestRate))
	if denominator == 0 {
		return principal / float64(termMonths)
	}
	return principal * periodicInterestRate / denominator
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * MonthlyRate(annualInterestRate)
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(annualInterestRate float64) float64 {
	return annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// Amortize computes the fixed monthly payment and full schedule for a loan.
func Amortize(principal, annualRatePct float64, termYears int) (Schedule, error) {
	return NewAmortizationScheduleGenerator(nil).GenerateSchedule(LoanConfig{
		Principal:    principal,
		InterestRate: annualRatePct,
		TermYears:    termYears,
	})
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates a complete amortization schedule for a loan
func (g *AmortizationScheduleGenerator) GenerateSchedule(loan LoanConfig) (Schedule, error) {
	if err := loan.Validate(); err != nil {
		return Schedule{}, err
	}

	termMonths := loan.TermMonths()
	monthlyPayment := CalculateMonthlyPayment(loan.Principal, loan.InterestRate, termMonths)

	schedule := Schedule{
		MonthlyPayment: monthlyPayment,
		Payments:       make([]Payment, 0, termMonths),
	}

	balance := loan.Principal
	for month := 1; month <= termMonths; month++ {
		current := Payment{
			Month:    month,
			Payment:  monthlyPayment,
			Interest: CalculateInterestPayment(balance, loan.InterestRate),
		}
		current.Principal = monthlyPayment - current.Interest

		if month == termMonths {
			// Absorb the floating point residue so the loan closes at exactly zero.
			residue := balance - current.Principal
			current.Principal = balance
			current.Payment = current.Principal + current.Interest
			current.RemainingPrincipal = 0
			if residue != 0 {
				g.logger.Debug(fmt.Sprintf("absorbing %.10f residue into final payment of loan %s", residue, loan.Name),
					zap.String("op", "loans.GenerateSchedule"),
				)
			}
		} else {
			current.RemainingPrincipal = balance - current.Principal
		}

		balance = current.RemainingPrincipal
		schedule.TotalPaid += current.Payment
		schedule.TotalInterest += current.Interest
		schedule.Payments = append(schedule.Payments, current)
	}

	g.logger.Debug("generated amortization schedule",
		zap.String("op", "loans.GenerateSchedule"),
		zap.String("loan", loan.Name),
		zap.Float64("principal", loan.Principal),
		zap.Float64("monthlyPayment", monthlyPayment),
		zap.Int("payments", len(schedule.Payments)),
	)

	return schedule, nil
}

// PaymentForMonth returns the scheduled payment for a 1-based month, or
// false when the month is outside the schedule.
func (s Schedule) PaymentForMonth(month int) (Payment, bool) {
	if month < 1 || month > len(s.Payments) {
		return Payment{}, false
	}
	return s.Payments[month-1], true
}
