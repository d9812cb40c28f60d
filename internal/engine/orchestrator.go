// Package engine drives batch ingestion of terminal log files.
//
// The orchestrator processes an arbitrarily large file set in bounded-size
// chunks. Within a chunk every file is classified and extracted
// concurrently; chunks themselves run sequentially, and the orchestrator
// yields between chunks so a host UI stays responsive on 5,000+ file
// batches. Progress percentages are emitted on a channel the caller
// drains, and cancellation is honored at every chunk boundary: a cancelled
// batch returns whatever was accumulated plus a partial-completion flag,
// never an error.
//
// Example usage:
//
//	orchestrator, err := engine.NewOrchestrator(engine.DefaultBatchConfig())
//	progress := make(chan int, 8)
//	go func() {
//		for pct := range progress {
//			fmt.Printf("\r%3d%%", pct)
//		}
//	}()
//	result, err := orchestrator.Process(ctx, files, matrixIndex, progress)
package engine

import (
	"context"
	"sort"
	"time"

	"terminal-log-reconciler/internal/matrix"
	"terminal-log-reconciler/internal/models"
	"terminal-log-reconciler/internal/parsers"
	"terminal-log-reconciler/pkg/errors"
	"terminal-log-reconciler/pkg/logger"

	"github.com/sourcegraph/conc/pool"
)

// BatchConfig holds tunables for batch processing
type BatchConfig struct {
	// ChunkSize is the number of files processed per chunk. Field runs
	// settled on values between 50 and 100.
	ChunkSize int

	// MaxWorkers bounds the concurrent extractions within one chunk
	MaxWorkers int

	// YieldInterval is the deliberate pause between chunks that keeps the
	// host environment responsive to cancellation and UI refresh
	YieldInterval time.Duration

	// AllowMissingMatrix permits ingestion without a loaded error matrix.
	// Cash classification does not depend on the matrix; error events are
	// then enriched with placeholder metadata only.
	AllowMissingMatrix bool
}

// DefaultBatchConfig returns a configuration with sensible defaults
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		ChunkSize:     64,
		MaxWorkers:    8,
		YieldInterval: 10 * time.Millisecond,
	}
}

// Validate validates the batch configuration
func (c *BatchConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "chunk_size", c.ChunkSize, nil)
	}
	if c.MaxWorkers <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max_workers", c.MaxWorkers, nil)
	}
	if c.YieldInterval < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "yield_interval", c.YieldInterval, nil)
	}
	return nil
}

// BatchResult holds the four classified record collections plus run
// statistics. The orchestrator exclusively owns and produces the
// collections; aggregation and validation only read them.
type BatchResult struct {
	Collect    []*models.CashRecord  `json:"collect"`
	Deposit    []*models.CashRecord  `json:"deposit"`
	Unverified []*models.CashRecord  `json:"unverified"`
	Errors     []*models.ErrorRecord `json:"errors"`
	Stats      models.BatchStats     `json:"stats"`
	Partial    bool                  `json:"partial"`
}

// Orchestrator drives classification and extraction over a batch of files
type Orchestrator struct {
	config *BatchConfig
	logger logger.Logger
}

// NewOrchestrator creates a new batch orchestrator
func NewOrchestrator(config *BatchConfig) (*Orchestrator, error) {
	if config == nil {
		config = DefaultBatchConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Orchestrator{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("batch_orchestrator"),
	}, nil
}

// fileOutcome is the result of processing a single file. At most one of
// cash/errRecord is set; neither set means the file was skipped.
type fileOutcome struct {
	cash      *models.CashRecord
	errRecord *models.ErrorRecord
}

// Process classifies and extracts every file in the batch.
//
// Progress percentages (0-100, monotonically non-decreasing, at least one
// per chunk boundary) are sent to progress when non-nil; the channel is
// closed before returning. Cancellation is checked at each chunk boundary
// and returns the accumulated partial result with Partial set.
//
// An empty matrix index is a precondition failure unless
// AllowMissingMatrix is set.
func (o *Orchestrator) Process(
	ctx context.Context,
	files []models.RawFile,
	idx *matrix.Index,
	progress chan<- int,
) (*BatchResult, error) {

	if progress != nil {
		defer close(progress)
	}

	if idx.Len() == 0 && !o.config.AllowMissingMatrix {
		return nil, errors.ConfigurationError(errors.CodeMatrixNotLoaded, "matrix", nil, nil)
	}

	total := len(files)
	o.logger.WithFields(logger.Fields{
		"total_files": total,
		"chunk_size":  o.config.ChunkSize,
		"has_matrix":  idx.Len() > 0,
	}).Info("Starting batch ingestion")

	result := &BatchResult{}
	result.Stats.TotalFiles = total

	if total == 0 {
		o.emitProgress(ctx, progress, 100)
		return result, nil
	}

	tracker := logger.NewBatchTracker("batch_ingestion", int64(total), 0, o.logger)
	processed := 0

	for start := 0; start < total; start += o.config.ChunkSize {
		if ctx.Err() != nil {
			o.logger.WithField("processed", processed).Warn("Batch cancelled, returning partial result")
			result.Partial = true
			// The unprocessed remainder counts as skipped so the file
			// accounting stays consistent on partial results.
			result.Stats.SkippedFiles += total - processed
			o.finalize(result)
			return result, nil
		}

		end := start + o.config.ChunkSize
		if end > total {
			end = total
		}
		chunk := files[start:end]

		outcomes := o.processChunk(chunk, idx)

		// Merge in submission order at the chunk barrier. Only this
		// coordinating flow mutates the collections.
		for _, outcome := range outcomes {
			switch {
			case outcome.cash != nil:
				o.mergeCash(result, outcome.cash)
			case outcome.errRecord != nil:
				result.Errors = append(result.Errors, outcome.errRecord)
				result.Stats.FilesWithErrors++
				result.Stats.TotalErrors += len(outcome.errRecord.Events)
			default:
				result.Stats.SkippedFiles++
			}
		}

		processed += len(chunk)
		tracker.Add(int64(len(chunk)))
		o.emitProgress(ctx, progress, percentOf(processed, total))

		if end < total {
			o.yield(ctx)
		}
	}

	tracker.Complete()
	o.finalize(result)

	o.logger.WithFields(logger.Fields{
		"collect":     len(result.Collect),
		"deposit":     len(result.Deposit),
		"unverified":  len(result.Unverified),
		"error_logs":  len(result.Errors),
		"skipped":     result.Stats.SkippedFiles,
		"total_codes": result.Stats.TotalErrors,
	}).Info("Batch ingestion completed")

	return result, nil
}

// processChunk runs extraction for every file of a chunk concurrently and
// returns outcomes in submission order
func (o *Orchestrator) processChunk(chunk []models.RawFile, idx *matrix.Index) []fileOutcome {
	outcomes := make([]fileOutcome, len(chunk))

	p := pool.New().WithMaxGoroutines(o.config.MaxWorkers)
	for i := range chunk {
		i := i
		file := chunk[i]
		p.Go(func() {
			outcomes[i] = o.processFile(file, idx)
		})
	}
	p.Wait()

	return outcomes
}

// processFile classifies one file and routes it to the matching extractor.
// Failures degrade to a skip: a single bad file never aborts the batch.
func (o *Orchestrator) processFile(file models.RawFile, idx *matrix.Index) (outcome fileOutcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logger.Fields{
				"file":  file.Name,
				"panic": r,
			}).Error("Recovered from extraction panic, skipping file")
			outcome = fileOutcome{}
		}
	}()

	if file.Content == nil {
		o.logger.WithField("file", file.Name).Debug("File has no readable content, skipping")
		return fileOutcome{}
	}

	content := models.DecodeText(file.Content)

	kind := parsers.Classify(file.Name)
	if kind.IsCash() {
		return fileOutcome{cash: parsers.ParseCashFile(kind, file.Name, content, file.ModTime)}
	}

	record := parsers.ExtractErrorRecord(file.Name, content, file.ModTime, idx)
	if record == nil {
		// Not a cash file and no embedded codes: nothing to report.
		return fileOutcome{}
	}
	return fileOutcome{errRecord: record}
}

func (o *Orchestrator) mergeCash(result *BatchResult, record *models.CashRecord) {
	switch record.Kind {
	case models.KindCollect:
		result.Collect = append(result.Collect, record)
	case models.KindDeposit:
		result.Deposit = append(result.Deposit, record)
	case models.KindUnverified:
		result.Unverified = append(result.Unverified, record)
	}
}

// finalize applies the output ordering contract: collect and deposit are
// sorted most-recent-first for operator review; unverified and error
// collections stay in processing order for downstream triage.
func (o *Orchestrator) finalize(result *BatchResult) {
	sortByTimestampDesc(result.Collect)
	sortByTimestampDesc(result.Deposit)
}

// sortByTimestampDesc sorts records newest first. Records without a usable
// timestamp sink to the end; the sort is stable so their processing order
// is preserved.
func sortByTimestampDesc(records []*models.CashRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := records[i].Timestamp, records[j].Timestamp
		switch {
		case ti.IsZero():
			return false
		case tj.IsZero():
			return true
		default:
			return ti.After(tj)
		}
	})
}

// emitProgress delivers one percentage to the caller. The send blocks until
// the caller drains it, unless the context is cancelled first.
func (o *Orchestrator) emitProgress(ctx context.Context, progress chan<- int, pct int) {
	if progress == nil {
		return
	}

	select {
	case progress <- pct:
	case <-ctx.Done():
	}
}

// yield pauses between chunks so the host can observe progress and cancel
func (o *Orchestrator) yield(ctx context.Context) {
	select {
	case <-time.After(o.config.YieldInterval):
	case <-ctx.Done():
	}
}

func percentOf(done, total int) int {
	if total == 0 {
		return 100
	}
	return int(float64(done)/float64(total)*100 + 0.5)
}
