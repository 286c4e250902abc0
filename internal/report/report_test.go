package report

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/realestate-model/internal/config"
	"github.com/iwvelando/realestate-model/pkg/cashflow"
	"github.com/iwvelando/realestate-model/pkg/project"
)

const testConfigPath = "../../test/test_config.yaml"

func loadTestConfig(t *testing.T) config.Configuration {
	t.Helper()
	conf, err := config.LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return *conf
}

func TestGetReport(t *testing.T) {
	rep, err := GetReport(nil, loadTestConfig(t))
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}

	if rep.Name != "Reference subdivision" {
		t.Errorf("Name = %q", rep.Name)
	}

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"urbanization", rep.Totals.Urbanization, 84650},
		{"construction per unit", rep.Totals.ConstructionPerUnit, 25850},
		{"construction", rep.Totals.Construction(), 258500},
		{"admin", rep.Admin.Total, 90100},
		{"investment", rep.Investment, 533250},
		{"revenue", rep.Revenue, 850000},
		{"gross profit", rep.Base.GrossProfit, 316750},
		{"tax", rep.Base.Tax, 79187.5},
		{"net profit", rep.Base.NetProfit, 237562.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.expected) > 0.001 {
				t.Errorf("%s = %.4f, expected %.4f", tt.name, tt.got, tt.expected)
			}
		})
	}

	if len(rep.Breakdown) != 5 {
		t.Errorf("expected 5 breakdown categories, got %d", len(rep.Breakdown))
	}
}

func TestGetReportLoan(t *testing.T) {
	rep, err := GetReport(nil, loadTestConfig(t))
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}

	if rep.Loan == nil {
		t.Fatal("expected a loan schedule")
	}
	if math.Abs(rep.Loan.MonthlyPayment-1581.59) > 0.01 {
		t.Errorf("MonthlyPayment = %.4f, expected 1581.59", rep.Loan.MonthlyPayment)
	}
	if len(rep.Loan.Payments) != 180 {
		t.Errorf("expected 180 payments, got %d", len(rep.Loan.Payments))
	}
	if rep.CashFlow.RepaymentMonths != 12 {
		t.Errorf("RepaymentMonths = %d, expected 12 within the horizon", rep.CashFlow.RepaymentMonths)
	}
}

func TestGetReportCashFlow(t *testing.T) {
	rep, err := GetReport(nil, loadTestConfig(t))
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}

	rows := rep.CashFlow.Rows
	if len(rows) != 24 {
		t.Fatalf("expected 24 rows, got %d", len(rows))
	}
	if rows[0].Date != "2026-01" || rows[23].Date != "2027-12" {
		t.Errorf("dates %q to %q, expected 2026-01 to 2027-12", rows[0].Date, rows[23].Date)
	}
	if math.Abs(rows[0].Net-(-190100)) > 0.001 {
		t.Errorf("month 1 net = %.2f, expected -190100", rows[0].Net)
	}
	if math.Abs(rows[2].LoanDisbursement-200000) > 0.001 {
		t.Errorf("month 3 disbursement = %.2f, expected 200000", rows[2].LoanDisbursement)
	}

	// Month 11 is the last month before sales start.
	if rep.CashFlow.PeakMonth != 11 {
		t.Errorf("PeakMonth = %d, expected 11", rep.CashFlow.PeakMonth)
	}
	if math.Abs(rep.CashFlow.PeakCapitalRequirement-(-247083.3333)) > 0.01 {
		t.Errorf("PeakCapitalRequirement = %.4f, expected -247083.33", rep.CashFlow.PeakCapitalRequirement)
	}

	expectedFinal := 850000 - 533250 + 200000 - 12*rep.Loan.MonthlyPayment
	if math.Abs(rep.CashFlow.FinalBalance-expectedFinal) > 0.01 {
		t.Errorf("FinalBalance = %.4f, expected %.4f", rep.CashFlow.FinalBalance, expectedFinal)
	}
}

func TestGetReportScenarios(t *testing.T) {
	rep, err := GetReport(nil, loadTestConfig(t))
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}

	if len(rep.Scenarios) != 2 {
		t.Fatalf("expected 2 active scenarios, got %d", len(rep.Scenarios))
	}
	if rep.FindScenario("Severe downturn") != nil {
		t.Error("inactive scenario should not be evaluated")
	}

	stressed := rep.FindScenario("Overrun and discount")
	if stressed == nil {
		t.Fatal("scenario 'Overrun and discount' not found")
	}
	if math.Abs(stressed.Scenario.Revenue-807500) > 0.001 {
		t.Errorf("Revenue = %.2f, expected 807500", stressed.Scenario.Revenue)
	}
	if math.Abs(stressed.Scenario.Construction-284350) > 0.001 {
		t.Errorf("Construction = %.2f, expected 284350", stressed.Scenario.Construction)
	}
	if math.Abs(stressed.Scenario.GrossProfit-248400) > 0.001 {
		t.Errorf("GrossProfit = %.2f, expected 248400", stressed.Scenario.GrossProfit)
	}
	if math.Abs(stressed.Delta.GrossProfit-(-68350)) > 0.001 {
		t.Errorf("Delta.GrossProfit = %.2f, expected -68350", stressed.Delta.GrossProfit)
	}

	lowTax := rep.FindScenario("Low tax jurisdiction")
	if lowTax == nil {
		t.Fatal("scenario 'Low tax jurisdiction' not found")
	}
	if math.Abs(lowTax.Scenario.GrossProfit-303825) > 0.001 {
		t.Errorf("GrossProfit = %.2f, expected 303825", lowTax.Scenario.GrossProfit)
	}
	if math.Abs(lowTax.Scenario.Tax-30382.5) > 0.001 {
		t.Errorf("Tax = %.2f, expected 30382.5 at 10%%", lowTax.Scenario.Tax)
	}
}

func TestGetReportWarnings(t *testing.T) {
	rep, err := GetReport(nil, loadTestConfig(t))
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if len(rep.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", rep.Warnings)
	}
	if !strings.Contains(rep.Warnings[1], "repayment runs past the projection horizon") {
		t.Errorf("unexpected warning %q", rep.Warnings[1])
	}
}

func TestGetReportInvalid(t *testing.T) {
	conf := loadTestConfig(t)
	conf.Project.Units = 0
	if _, err := GetReport(nil, conf); err == nil {
		t.Fatal("expected error for a project without units")
	} else if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("unexpected error %v", err)
	}

	conf = loadTestConfig(t)
	conf.Timeline.Sales = cashflow.Window{Start: 20, End: 30}
	if _, err := GetReport(nil, conf); !errors.Is(err, cashflow.ErrInvalidParameter) {
		t.Errorf("expected cashflow.ErrInvalidParameter, got %v", err)
	}
}

func TestGenerateWithoutLoan(t *testing.T) {
	conf := loadTestConfig(t)
	params := conf.ToParameters()
	params.Loan.Principal = 0

	rep, err := Generate(nil, params)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if rep.Loan != nil {
		t.Error("expected no loan schedule")
	}
	if rep.CashFlow.LoanPayment != 0 {
		t.Errorf("LoanPayment = %.2f, expected 0", rep.CashFlow.LoanPayment)
	}
	if math.Abs(rep.CashFlow.FinalBalance-316750) > 0.01 {
		t.Errorf("FinalBalance = %.2f, expected the gross profit 316750", rep.CashFlow.FinalBalance)
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("Generate() should not attach warnings, got %v", rep.Warnings)
	}
}

func TestGenerateMissingParameter(t *testing.T) {
	_, err := Generate(nil, project.Parameters{Units: 1})
	if !errors.Is(err, project.ErrMissingParameter) {
		t.Errorf("expected ErrMissingParameter, got %v", err)
	}
}
