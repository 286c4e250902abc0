package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/iwvelando/realestate-model/internal/config"
	"github.com/iwvelando/realestate-model/internal/logging"
	"github.com/iwvelando/realestate-model/internal/optimizer"
	"github.com/iwvelando/realestate-model/internal/report"
	"github.com/iwvelando/realestate-model/pkg/constants"
	"github.com/iwvelando/realestate-model/pkg/output"
	"github.com/iwvelando/realestate-model/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional file of REMODEL_* environment overrides")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, yaml")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	schedule := flag.Bool("schedule", false, "print the loan amortization schedule as CSV instead of the report")
	flag.Parse()

	// Environment overrides must be in place before viper reads the file.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load environment file %s\", \"error\": \"%v\"}\n", *envFile, err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

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

	rep, err := report.GetReport(logger, *conf)
	if err != nil {
		logger.Fatal("failed to compute report",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if *schedule {
		if rep.Loan == nil {
			logger.Fatal("no loan is configured",
				zap.String("op", "main"),
			)
		}
		if err := output.AmortizationCsv(os.Stdout, *rep.Loan); err != nil {
			logger.Fatal("failed to write amortization schedule",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	if conf.BreakEven.Enabled {
		runner, err := optimizer.NewRunner(logger, conf.ToParameters(), conf.BreakEven)
		if err != nil {
			logger.Fatal("failed to initialize break-even search",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		result, err := runner.Run()
		if err != nil {
			logger.Fatal("break-even search failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		result.Apply(&rep)
	}

	if err := output.Write(os.Stdout, outputFormat, rep); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
