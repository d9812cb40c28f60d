package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"terminal-log-reconciler/cmd/loganalyzer/config"
	"terminal-log-reconciler/internal/engine"
	"terminal-log-reconciler/internal/models"
	"terminal-log-reconciler/pkg/errors"
	"terminal-log-reconciler/pkg/logger"

	"github.com/spf13/cobra"
)

// Flags for the analyze command
var (
	logsDir            string
	matrixFile         string
	allowMissingMatrix bool
	chunkSize          int
	outputFormat       string
	outputFile         string
	showProgress       bool
	topN               int
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Ingest a directory of terminal log files and report reconciliation statistics",
	Long: `Analyze classifies every log file in a directory as a cash movement
(collect, deposit, unverified) or a technical error event, extracts cash
amounts and error codes, enriches errors against the reference matrix,
and prints reconciliation statistics and error analytics.

This command requires:
- A directory of terminal log files
- A reference error matrix (CSV), unless --allow-missing-matrix is set

Examples:
  # Basic analysis
  loganalyzer analyze --logs-dir ./logs --matrix matrix.csv

  # JSON report to a file, with progress
  loganalyzer analyze --logs-dir ./logs --matrix matrix.csv \
    --output-format json --output-file report.json --progress

  # Cash classification only, without a matrix
  loganalyzer analyze --logs-dir ./logs --allow-missing-matrix`,

	PreRunE: validateAnalyzeFlags,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&logsDir, "logs-dir", "d", "", "directory of terminal log files (required)")
	analyzeCmd.Flags().StringVarP(&matrixFile, "matrix", "m", "", "path to the reference error matrix CSV")
	analyzeCmd.Flags().BoolVar(&allowMissingMatrix, "allow-missing-matrix", false, "classify cash files without a loaded matrix")

	analyzeCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "files processed per chunk (default 64)")
	analyzeCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	analyzeCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	analyzeCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress percentages")
	analyzeCmd.Flags().IntVar(&topN, "top", 0, "number of entries in the top-errors view (default 10)")
}

func validateAnalyzeFlags(cmd *cobra.Command, args []string) error {
	if logsDir == "" {
		return errors.ValidationError(errors.CodeMissingField, "logs-dir", nil, nil)
	}

	if matrixFile == "" && !allowMissingMatrix {
		return errors.ConfigurationError(errors.CodeMatrixNotLoaded, "matrix", nil, nil)
	}

	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	session, result, err := runBatch(cmd.Context())
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	if err := writeReport(session, result); err != nil {
		os.Exit(handler.HandleError(err))
	}

	return nil
}

// runBatch builds a session, loads the matrix, collects the log files and
// ingests them. Shared by the analyze and validate commands.
func runBatch(ctx context.Context) (*engine.Session, *engine.BatchResult, error) {
	log := logger.GetGlobalLogger().WithComponent("cli")

	session, err := engine.NewSession(config.CreateBatchConfig(chunkSize, allowMissingMatrix), config.CreateValidatorConfig())
	if err != nil {
		return nil, nil, err
	}

	if matrixFile != "" {
		file, err := os.Open(matrixFile)
		if err != nil {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, matrixFile, err)
		}
		codes, err := session.LoadMatrix(file)
		file.Close()
		if err != nil {
			return nil, nil, err
		}
		log.WithField("codes", codes).Info("Matrix loaded")
	}

	files, err := collectLogFiles(logsDir)
	if err != nil {
		return nil, nil, err
	}

	progress, wait := progressSink(showProgress)
	result, err := session.Ingest(ctx, files, progress)
	wait()
	if err != nil {
		return nil, nil, err
	}

	return session, result, nil
}

// collectLogFiles reads every regular file in dir. Files that cannot be
// read are passed through with nil content so the batch counts them as
// skipped instead of failing.
func collectLogFiles(dir string) ([]models.RawFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.FileError(errors.CodeDirectoryError, dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	// Deterministic input order gives deterministic output collections.
	sort.Strings(names)

	files := make([]models.RawFile, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		raw := models.RawFile{Name: name}

		if info, err := os.Stat(path); err == nil {
			raw.ModTime = info.ModTime()
		}
		if content, err := os.ReadFile(path); err == nil {
			raw.Content = content
		}

		files = append(files, raw)
	}

	return files, nil
}

// progressSink returns the progress channel to hand to the orchestrator
// and a function that waits for the drain goroutine. A nil channel
// disables progress reporting.
func progressSink(show bool) (chan int, func()) {
	if !show {
		return nil, func() {}
	}

	progress := make(chan int, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for pct := range progress {
			fmt.Fprintf(os.Stderr, "\rProcessing: %3d%%", pct)
		}
		fmt.Fprintln(os.Stderr)
	}()

	return progress, wg.Wait
}

// writeReport renders the analysis with the configured format and sink
func writeReport(session *engine.Session, result *engine.BatchResult) error {
	generator, err := config.CreateReportGenerator(outputFormat, topN)
	if err != nil {
		return err
	}

	writer := os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return errors.FileError(errors.CodeFilePermission, outputFile, err)
		}
		defer file.Close()
		writer = file
	}

	return generator.Generate(result, session.Claims(), writer)
}
