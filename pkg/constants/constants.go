// Package constants provides shared constants for the dealcalc application.
package constants

// Record store names. These double as the on-disk file names (with a .json
// extension) and must stay stable across releases so older saves keep loading.
const (
	// RehabStore holds rehab projects keyed by address.
	RehabStore = "rehabProjects_v1"

	// MaxOfferStore holds max-offer projects as an ordered list.
	MaxOfferStore = "maxOfferProjects_v1"

	// ProfitStore holds profit projects as an ordered list.
	ProfitStore = "profitProjects_v1"
)

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultDataDir is the default directory for the record store files
	DefaultDataDir = "data"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"
)
