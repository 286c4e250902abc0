// Package config defines the data structures related to configuration and
// includes functions for loading, validating and converting the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/realestate-model/pkg/cashflow"
	"github.com/iwvelando/realestate-model/pkg/constants"
	"github.com/iwvelando/realestate-model/pkg/costs"
	"github.com/iwvelando/realestate-model/pkg/validation"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for realestate-model.
type Configuration struct {
	Project   ProjectConfig   `yaml:"project" json:"project"`
	Costs     CostsConfig     `yaml:"costs" json:"costs"`
	Loan      LoanConfig      `yaml:"loan,omitempty" json:"loan"`
	Timeline  TimelineConfig  `yaml:"timeline" json:"timeline"`
	TaxRate   *float64        `yaml:"taxRate,omitempty" json:"taxRate,omitempty"`
	Scenarios []Scenario      `yaml:"scenarios,omitempty" json:"scenarios,omitempty"`
	BreakEven BreakEvenConfig `yaml:"breakEven,omitempty" json:"breakEven"`
	Logging   LoggingConfig   `yaml:"logging,omitempty" json:"logging"`
	Output    OutputConfig    `yaml:"output,omitempty" json:"output"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" json:"level,omitempty"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" json:"format,omitempty"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" json:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // pretty, csv, json, yaml
}

// ProjectConfig holds the scalar project inputs.
type ProjectConfig struct {
	Name        string  `yaml:"name" json:"name"`
	Units       int     `yaml:"units" json:"units"`
	LandCost    float64 `yaml:"landCost" json:"landCost"`
	Contingency float64 `yaml:"contingency,omitempty" json:"contingency,omitempty"`
	SalePrice   float64 `yaml:"salePrice" json:"salePrice"`
}

// CostsConfig holds the editable cost tables.
type CostsConfig struct {
	Urbanization []costs.LineItem `yaml:"urbanization" json:"urbanization"`
	Construction []costs.LineItem `yaml:"construction" json:"construction"` // per unit
	Admin        costs.AdminBudget `yaml:"admin" json:"admin"`
}

// LoanConfig holds the single loan facility.
type LoanConfig struct {
	Name       string  `yaml:"name,omitempty" json:"name,omitempty"`
	Principal  float64 `yaml:"principal" json:"principal"`
	AnnualRate float64 `yaml:"annualRate" json:"annualRate"` // percent
	TermYears  int     `yaml:"termYears" json:"termYears"`
}

// TimelineConfig places the project phases on the month axis.
type TimelineConfig struct {
	Months           int             `yaml:"months" json:"months"`
	StartDate        string          `yaml:"startDate,omitempty" json:"startDate,omitempty"`
	Land             cashflow.Window `yaml:"land" json:"land"`
	Urbanization     cashflow.Window `yaml:"urbanization" json:"urbanization"`
	Construction     cashflow.Window `yaml:"construction" json:"construction"`
	AdminPermits     cashflow.Window `yaml:"adminPermits" json:"adminPermits"`
	Contingency      cashflow.Window `yaml:"contingency,omitempty" json:"contingency"`
	Sales            cashflow.Window `yaml:"sales" json:"sales"`
	LoanDisbursement cashflow.Window `yaml:"loanDisbursement,omitempty" json:"loanDisbursement"`
	RepaymentStart   int             `yaml:"repaymentStart,omitempty" json:"repaymentStart,omitempty"`
}

// Scenario is a named stress case. TaxRatePct overrides the project tax rate.
type Scenario struct {
	Name                 string   `yaml:"name" json:"name"`
	Active               bool     `yaml:"active" json:"active"`
	ConstructionDeltaPct float64  `yaml:"constructionDeltaPct" json:"constructionDeltaPct"`
	SalePriceDeltaPct    float64  `yaml:"salePriceDeltaPct" json:"salePriceDeltaPct"`
	TaxRatePct           *float64 `yaml:"taxRatePct,omitempty" json:"taxRatePct,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Environment variables prefixed with REMODEL override
// file values, e.g. REMODEL_LOAN_PRINCIPAL.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// Validate returns an error for a configuration the engine cannot run.
func (c *Configuration) Validate() error {
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}
	if err := c.BreakEven.Validate(); err != nil {
		return fmt.Errorf("breakEven: %w", err)
	}

	seen := make(map[string]bool)
	for i, scenario := range c.Scenarios {
		name := strings.TrimSpace(scenario.Name)
		if name == "" {
			return fmt.Errorf("scenario %d requires a name", i+1)
		}
		if seen[name] {
			return fmt.Errorf("scenario name %q is used more than once", name)
		}
		seen[name] = true
	}

	return c.ToParameters().Validate()
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.TaxRate == nil {
		warnings = append(warnings, fmt.Sprintf("No taxRate configured, using %.2f%%", constants.DefaultTaxRate))
	}
	if c.Project.Contingency > 0 && c.Timeline.Contingency.IsZero() {
		warnings = append(warnings, "No contingency window configured, spreading contingency over the construction window")
	}

	params := c.ToParameters()
	totals := params.CashFlowTotals()

	var scenarios []validation.ScenarioConfig
	for _, scenario := range c.Scenarios {
		scenarios = append(scenarios, validation.ScenarioConfig{
			Name:                 scenario.Name,
			Active:               scenario.Active,
			ConstructionDeltaPct: scenario.ConstructionDeltaPct,
			SalePriceDeltaPct:    scenario.SalePriceDeltaPct,
		})
	}

	validator := validation.ConfigValidator{
		Months: c.Timeline.Months,
		Phases: []validation.PhaseConfig{
			phase("urbanization", params.Timeline.Urbanization, totals.Urbanization),
			phase("construction", params.Timeline.Construction, totals.Construction),
			phase("contingency", params.Timeline.Contingency, totals.Contingency),
			phase("sales", params.Timeline.Sales, totals.Revenue),
		},
		Construction: phase("construction", params.Timeline.Construction, totals.Construction),
		Sales:        phase("sales", params.Timeline.Sales, totals.Revenue),
		Loan: validation.LoanConfig{
			Name:              params.Loan.Name,
			Principal:         params.Loan.Principal,
			DisbursementMonth: params.Timeline.LoanDisbursement.Start,
			RepaymentStart:    params.Timeline.RepaymentStart,
			TermMonths:        params.Loan.TermMonths(),
		},
		Scenarios: scenarios,
	}
	warnings = append(warnings, validator.ValidateAll()...)

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}

func phase(name string, w cashflow.Window, amount float64) validation.PhaseConfig {
	return validation.PhaseConfig{Name: name, Start: w.Start, End: w.End, Amount: amount}
}
