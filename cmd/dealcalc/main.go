package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmreiser/dealcalc/internal/config"
	"github.com/jmreiser/dealcalc/internal/maxoffer"
	"github.com/jmreiser/dealcalc/internal/profit"
	"github.com/jmreiser/dealcalc/internal/rehab"
	"github.com/jmreiser/dealcalc/internal/server"
	"github.com/jmreiser/dealcalc/internal/store"
	"github.com/jmreiser/dealcalc/pkg/constants"
	"github.com/jmreiser/dealcalc/pkg/output"
	"github.com/jmreiser/dealcalc/pkg/validation"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// promptConfirm returns a confirmation hook reading y/N answers from in.
// Anything other than an explicit yes declines.
func promptConfirm(in io.Reader) func(prompt string) bool {
	reader := bufio.NewReader(in)
	return func(prompt string) bool {
		fmt.Printf("%s [y/N]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "run the HTTP API instead of printing the project summary")
	serverConfigLocation := flag.String("server-config", "", "path to optional server configuration file")
	deleteRehab := flag.String("delete-rehab", "", "delete the saved rehab project for this address")
	deleteMaxOffer := flag.Int64("delete-maxoffer", 0, "delete the saved max-offer project with this id")
	deleteProfit := flag.Int64("delete-profit", 0, "delete the saved profit project with this id")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	st, err := store.New(afero.NewOsFs(), conf.DataDir, logger)
	if err != nil {
		logger.Fatal("failed to open record store",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	profitDefaults := profit.Defaults{
		ClosingBuyPct:  conf.Profit.ClosingBuyPct,
		ClosingSellPct: conf.Profit.ClosingSellPct,
		ContingencyPct: conf.Profit.ContingencyPct,
		CarryMonths:    conf.Profit.CarryMonths,
		RateAPR:        conf.Profit.RateAPR,
		PointsPct:      conf.Profit.PointsPct,
		LTVPct:         conf.Profit.LTVPct,
	}

	if *deleteRehab != "" || *deleteMaxOffer != 0 || *deleteProfit != 0 {
		confirm := promptConfirm(os.Stdin)
		if *deleteRehab != "" {
			e := rehab.NewEngine(st, logger)
			e.Confirm = confirm
			if err := e.Delete(*deleteRehab); err != nil {
				logger.Fatal("failed to delete rehab project",
					zap.String("op", "main"),
					zap.Error(err),
				)
			}
		}
		if *deleteMaxOffer != 0 {
			e := maxoffer.NewEngine(st, logger)
			e.Confirm = confirm
			if err := e.Delete(*deleteMaxOffer); err != nil {
				logger.Fatal("failed to delete max-offer project",
					zap.String("op", "main"),
					zap.Error(err),
				)
			}
		}
		if *deleteProfit != 0 {
			e := profit.NewEngine(st, profitDefaults, logger)
			e.Confirm = confirm
			if err := e.Delete(*deleteProfit); err != nil {
				logger.Fatal("failed to delete profit project",
					zap.String("op", "main"),
					zap.Error(err),
				)
			}
		}
		return
	}

	if *serve {
		serverConf, err := server.LoadConfig(*serverConfigLocation)
		if err != nil {
			logger.Fatal("failed to load server configuration",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		address := serverConf.Address
		if address == "" {
			address = conf.Server.Address
		}
		origins := serverConf.AllowedOrigins
		if len(origins) == 0 {
			origins = conf.Server.AllowedOrigins
		}

		handler := server.NewHandler(logger, st, profitDefaults, origins)
		logger.Info("serving calculator API",
			zap.String("op", "main"),
			zap.String("address", address),
		)
		if err := http.ListenAndServe(address, handler); err != nil {
			logger.Fatal("server stopped",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	rehabEngine := rehab.NewEngine(st, logger)
	maxOfferEngine := maxoffer.NewEngine(st, logger)
	profitEngine := profit.NewEngine(st, profitDefaults, logger)

	rows := output.BuildSummary(rehabEngine.ReadAll(), maxOfferEngine.Projects(), profitEngine.Projects())

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(rows)
	case constants.OutputFormatCSV:
		output.CsvFormat(rows)
	}
}
