// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"os"

	"github.com/jmreiser/dealcalc/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for dealcalc.
type Configuration struct {
	DataDir string         `yaml:"dataDir,omitempty"`
	Logging LoggingConfig  `yaml:"logging,omitempty"`
	Server  ServerConfig   `yaml:"server,omitempty"`
	Profit  ProfitDefaults `yaml:"profit,omitempty"`
	Output  OutputConfig   `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// ServerConfig holds the HTTP API configuration options
type ServerConfig struct {
	Address        string   `yaml:"address,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// ProfitDefaults holds the starting values for the profit calculator form.
// All values are kept as strings because the calculator inputs are raw text.
type ProfitDefaults struct {
	ClosingBuyPct  string `yaml:"closingBuyPct,omitempty"`
	ClosingSellPct string `yaml:"closingSellPct,omitempty"`
	ContingencyPct string `yaml:"contingencyPct,omitempty"`
	CarryMonths    string `yaml:"carryMonths,omitempty"`
	RateAPR        string `yaml:"rateAPR,omitempty"`
	PointsPct      string `yaml:"pointsPct,omitempty"`
	LTVPct         string `yaml:"ltvPct,omitempty"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file is not an error: every option has a
// usable default.
func LoadConfiguration(configPath string) (*Configuration, error) {
	var configuration Configuration

	if _, err := os.Stat(configPath); err == nil {
		viper.SetConfigFile(configPath)
		viper.AutomaticEnv()

		viper.SetConfigType("yml")

		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
		if err := viper.Unmarshal(&configuration); err != nil {
			return nil, fmt.Errorf("unable to decode into struct, %s", err)
		}
	}

	configuration.applyDefaults()
	return &configuration, nil
}

func (conf *Configuration) applyDefaults() {
	if conf.DataDir == "" {
		conf.DataDir = constants.DefaultDataDir
	}
	if conf.Server.Address == "" {
		conf.Server.Address = constants.DefaultServerAddress
	}
	if conf.Output.Format == "" {
		conf.Output.Format = constants.OutputFormatPretty
	}
	if conf.Profit.ClosingBuyPct == "" {
		conf.Profit.ClosingBuyPct = "2"
	}
	if conf.Profit.ClosingSellPct == "" {
		conf.Profit.ClosingSellPct = "6"
	}
	if conf.Profit.ContingencyPct == "" {
		conf.Profit.ContingencyPct = "10"
	}
	if conf.Profit.CarryMonths == "" {
		conf.Profit.CarryMonths = "4"
	}
	if conf.Profit.RateAPR == "" {
		conf.Profit.RateAPR = "12"
	}
	if conf.Profit.PointsPct == "" {
		conf.Profit.PointsPct = "2"
	}
	if conf.Profit.LTVPct == "" {
		conf.Profit.LTVPct = "85"
	}
}

// ValidateConfiguration checks the loaded configuration and returns warnings
// for suspicious values. Warnings never block startup.
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	switch conf.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("unrecognized log level %q, the logger will reject it", conf.Logging.Level))
	}

	switch conf.Output.Format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
	default:
		warnings = append(warnings, fmt.Sprintf("unrecognized output format %q, expected %s or %s",
			conf.Output.Format, constants.OutputFormatPretty, constants.OutputFormatCSV))
	}

	return warnings
}
