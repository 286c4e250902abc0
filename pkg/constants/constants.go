// Package constants provides shared constants for the realestate-model application.
package constants

// DateTimeLayout is the format expected for the optional project start date
// and is also the output date format for cash flow rows.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment variable overrides, e.g. REMODEL_LOAN_PRINCIPAL
	EnvPrefix = "REMODEL"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Validation and solver constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// FloatTolerance is the tolerance for exact-arithmetic invariants
	FloatTolerance = 1e-6

	// DefaultTaxRate is the income tax rate applied when none is configured
	DefaultTaxRate = 25.0

	// DefaultSolverTolerance is the bisection stopping width
	DefaultSolverTolerance = 0.01

	// DefaultSolverMaxIterations caps bisection iterations
	DefaultSolverMaxIterations = 100

	// MaxLoanTermYears is the longest accepted loan term
	MaxLoanTermYears = 30
)
