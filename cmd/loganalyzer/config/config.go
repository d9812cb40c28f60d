package config

import (
	"fmt"

	"terminal-log-reconciler/internal/engine"
	"terminal-log-reconciler/internal/report"
	"terminal-log-reconciler/internal/validator"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// CreateBatchConfig creates a batch configuration with CLI overrides applied
func CreateBatchConfig(chunkSize int, allowMissingMatrix bool) *engine.BatchConfig {
	config := engine.DefaultBatchConfig()

	if chunkSize > 0 {
		config.ChunkSize = chunkSize
	}
	if workers := viper.GetInt("batch.max_workers"); workers > 0 {
		config.MaxWorkers = workers
	}
	config.AllowMissingMatrix = allowMissingMatrix

	return config
}

// CreateValidatorConfig creates a claim validation configuration. Tolerances
// and time windows can be overridden through the configuration file or
// LOGANALYZER_* environment variables.
func CreateValidatorConfig() *validator.Config {
	config := validator.DefaultConfig()

	if v := viper.GetFloat64("validator.unverified_tolerance"); v > 0 {
		config.UnverifiedTolerance = decimal.NewFromFloat(v)
	}
	if v := viper.GetFloat64("validator.collect_tolerance"); v > 0 {
		config.CollectTolerance = decimal.NewFromFloat(v)
	}
	if v := viper.GetDuration("validator.error_window"); v > 0 {
		config.ErrorWindow = v
	}
	if v := viper.GetDuration("validator.activity_window"); v > 0 {
		config.ActivityWindow = v
	}

	return config
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string, topN int) (*report.Config, error) {
	config := report.DefaultConfig()

	switch format {
	case "console", "":
		config.Format = report.FormatConsole
	case "json":
		config.Format = report.FormatJSON
		// Conclusions are free-form prose, keep machine output data-only
		config.IncludeConclusions = false
	case "csv":
		config.Format = report.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
		config.IncludeTrend = false
		config.IncludeConclusions = false
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}

	if topN > 0 {
		config.TopN = topN
	}

	return config, nil
}

// CreateReportGenerator builds a report generator for the format and top-N
// limit requested on the command line
func CreateReportGenerator(format string, topN int) (*report.Generator, error) {
	config, err := CreateReportConfig(format, topN)
	if err != nil {
		return nil, err
	}

	return report.NewGenerator(config)
}
