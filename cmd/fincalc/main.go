package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okushnir/fincalc/internal/config"
	"github.com/okushnir/fincalc/internal/projection"
	"github.com/okushnir/fincalc/pkg/constants"
	"github.com/okushnir/fincalc/pkg/output"
	"github.com/okushnir/fincalc/pkg/rates"
	"github.com/okushnir/fincalc/pkg/validation"
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
		level = "info" // Default to info level
	}

	// Parse log level
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

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
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
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
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

// needsRates reports whether any calculator asks for a non-home display
// currency; without one there is nothing to fetch.
func needsRates(conf *config.Configuration) bool {
	home := conf.Currency.HomeOrDefault()
	for _, calc := range conf.Calculators {
		if calc.DisplayCurrency != "" && calc.DisplayCurrency != home {
			return true
		}
	}
	return false
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, yaml")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	// Build the rate converter and refresh snapshots once if any calculator
	// needs a display currency. A failed refresh is not fatal: conversion
	// degrades to the home currency downstream.
	fetch := rates.NewHTTPSource(nil, conf.Currency.SourceURLOrDefault(), logger)
	converter := rates.NewConverter(logger, conf.Currency.HomeOrDefault(), conf.Currency.Codes,
		conf.Currency.RefreshTTL(), fetch)
	if needsRates(conf) {
		outcome, refreshErr := converter.Refresh(context.Background())
		if refreshErr != nil {
			logger.Warn("exchange rate refresh failed",
				zap.String("op", "main"),
				zap.Error(refreshErr),
			)
		}
		for code, freshness := range outcome {
			logger.Info(fmt.Sprintf("exchange rate for %s: %s", code, freshness),
				zap.String("op", "main"),
			)
		}
	}

	// Compute every configured calculator.
	projections, err := projection.Run(logger, *conf, converter)
	if err != nil {
		logger.Fatal("failed to compute projections",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(projections)
	case constants.OutputFormatCSV:
		output.CsvFormat(projections)
	case constants.OutputFormatYAML:
		if err := output.YamlFormat(projections); err != nil {
			logger.Fatal("failed to render yaml output",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
