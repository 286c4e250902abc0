// Package output provides utilities for formatting and displaying project reports.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/iwvelando/realestate-model/internal/report"
	"github.com/iwvelando/realestate-model/pkg/constants"
	"github.com/iwvelando/realestate-model/pkg/loans"
	"github.com/iwvelando/realestate-model/pkg/validation"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Write renders the report in the requested output format.
func Write(w io.Writer, outputFormat string, rep report.Report) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvFormat(w, rep)
	case constants.OutputFormatJSON:
		return JSONFormat(w, rep)
	case constants.OutputFormatYAML:
		return YAMLFormat(w, rep)
	default:
		return PrettyFormat(w, rep)
	}
}

func money(p *message.Printer, amount float64) string {
	if amount < 0 && p.Sprintf("%.2f", -amount) != "0.00" {
		return "-$" + p.Sprintf("%.2f", -amount)
	}
	return "$" + p.Sprintf("%.2f", amount)
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, rep report.Report) error {
	p := message.NewPrinter(language.English)
	pw := &printer{w: w, p: p}

	pw.printf("--- Results for project %s ---\n\n", rep.Name)

	pw.printf("Category        | Amount          | Share\n")
	pw.printf("________        | ______          | _____\n")
	for _, share := range rep.Breakdown {
		pw.printf("%-15s | %-15s | %.2f%%\n", share.Category, money(p, share.Amount), share.Percent)
	}
	pw.printf("%-15s | %-15s |\n", "total", money(p, rep.Investment))
	pw.printf("Revenue: %s\n", money(p, rep.Revenue))
	pw.printf("Admin: %s monthly overhead, %s recurring, %s fixed assets, %s permits\n\n",
		money(p, rep.Admin.MonthlyOverhead), money(p, rep.Admin.Recurring),
		money(p, rep.Admin.FixedAssets), money(p, rep.Admin.Permits))

	if rep.Loan != nil {
		pw.printf("Loan: %s monthly over %d payments, %s total paid, %s interest\n\n",
			money(p, rep.Loan.MonthlyPayment), len(rep.Loan.Payments),
			money(p, rep.Loan.TotalPaid), money(p, rep.Loan.TotalInterest))
	}

	pw.printf("Month | Date    | Net             | Cumulative\n")
	pw.printf("_____ | ____    | ___             | __________\n")
	for _, row := range rep.CashFlow.Rows {
		date := row.Date
		if date == "" {
			date = "-"
		}
		pw.printf("%5d | %-7s | %-15s | %s\n", row.Month, date, money(p, row.Net), money(p, row.Cumulative))
	}
	pw.printf("Peak capital requirement: %s in month %d\n", money(p, rep.CashFlow.PeakCapitalRequirement), rep.CashFlow.PeakMonth)
	pw.printf("Final balance: %s\n\n", money(p, rep.CashFlow.FinalBalance))

	pw.printf("Base: gross profit %s, tax %s, net profit %s, ROI %s, ROC %s\n",
		money(p, rep.Base.GrossProfit), money(p, rep.Base.Tax), money(p, rep.Base.NetProfit), rep.Base.ROI.String(), rep.Base.ROC.String())
	for _, c := range rep.Scenarios {
		pw.printf("Scenario %s: gross profit %s (%s), net profit %s (%s), ROI %s, ROC %s\n",
			c.Name, money(p, c.Scenario.GrossProfit), money(p, c.Delta.GrossProfit),
			money(p, c.Scenario.NetProfit), money(p, c.Delta.NetProfit), c.Scenario.ROI.String(), c.Scenario.ROC.String())
	}

	if len(rep.BreakEven) > 0 {
		pw.printf("\n")
	}
	for _, s := range rep.BreakEven {
		status := "converged"
		if !s.Converged {
			status = "not converged"
		}
		pw.printf("Break-even %s: %s (from %s), %s after %d iterations\n",
			s.Target, s.ValueDisplay, s.OriginalDisplay, status, s.Iterations)
		for _, note := range s.Notes {
			pw.printf("  note: %s\n", note)
		}
	}

	if len(rep.Warnings) > 0 {
		pw.printf("\nWarnings:\n")
	}
	for _, warning := range rep.Warnings {
		pw.printf("  %s\n", warning)
	}
	return pw.err
}

type printer struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (pw *printer) printf(format string, args ...interface{}) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.p.Fprintf(pw.w, format, args...)
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// CsvFormat outputs the monthly cash flow in comma-separated value format.
func CsvFormat(w io.Writer, rep report.Report) error {
	writer := csv.NewWriter(w)
	header := []string{"month", "date", "sales", "loan disbursement", "land", "urbanization",
		"construction", "admin/permits", "contingency", "loan repayment", "net", "cumulative"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rep.CashFlow.Rows {
		record := []string{strconv.Itoa(row.Month), row.Date, amount(row.Sales), amount(row.LoanDisbursement),
			amount(row.Land), amount(row.Urbanization), amount(row.Construction), amount(row.AdminPermits),
			amount(row.Contingency), amount(row.LoanRepayment), amount(row.Net), amount(row.Cumulative)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// AmortizationCsv outputs a loan schedule in comma-separated value format.
func AmortizationCsv(w io.Writer, schedule loans.Schedule) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"month", "payment", "principal", "interest", "remaining principal"}); err != nil {
		return err
	}
	for _, payment := range schedule.Payments {
		record := []string{strconv.Itoa(payment.Month), amount(payment.Payment), amount(payment.Principal),
			amount(payment.Interest), amount(payment.RemainingPrincipal)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// JSONFormat outputs v as indented JSON.
func JSONFormat(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// YAMLFormat outputs v as YAML.
func YAMLFormat(w io.Writer, v interface{}) error {
	var b strings.Builder
	encoder := yaml.NewEncoder(&b)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, b.String())
	return err
}
