package logger

import (
	"fmt"
	"sync"
	"time"
)

// BatchTracker logs progress of a long-running batch at a throttled interval.
// It is safe for concurrent use by per-file workers.
type BatchTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.RWMutex
}

// NewBatchTracker creates a tracker for the given operation and total count.
// A zero logInterval defaults to 5 seconds.
func NewBatchTracker(operation string, total int64, logInterval time.Duration, log Logger) *BatchTracker {
	if log == nil {
		log = GetGlobalLogger()
	}
	if logInterval == 0 {
		logInterval = 5 * time.Second
	}

	tracker := &BatchTracker{
		logger:      log.WithComponent("progress"),
		operation:   operation,
		total:       total,
		startTime:   time.Now(),
		lastLogTime: time.Now(),
		logInterval: logInterval,
	}

	tracker.logger.WithFields(Fields{
		"operation": operation,
		"total":     total,
	}).Info("Starting batch")

	return tracker
}

// Add advances the progress counter by delta and logs if the interval elapsed.
func (p *BatchTracker) Add(delta int64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current += delta
	now := time.Now()
	if now.Sub(p.lastLogTime) >= p.logInterval {
		p.logProgress(now)
		p.lastLogTime = now
	}
}

// Complete marks the batch as finished and logs final statistics.
func (p *BatchTracker) Complete() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	duration := time.Since(p.startTime)
	var rate float64
	if duration.Seconds() > 0 {
		rate = float64(p.current) / duration.Seconds()
	}

	p.logger.WithFields(Fields{
		"operation": p.operation,
		"total":     p.total,
		"processed": p.current,
		"duration":  duration.String(),
		"rate":      fmt.Sprintf("%.2f/sec", rate),
	}).Info("Batch completed")
}

// Stats returns a snapshot of the current progress.
func (p *BatchTracker) Stats() BatchProgress {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	duration := time.Since(p.startTime)
	var percentage float64
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100
	}

	return BatchProgress{
		Operation:  p.operation,
		Total:      p.total,
		Current:    p.current,
		Percentage: percentage,
		Duration:   duration,
	}
}

func (p *BatchTracker) logProgress(now time.Time) {
	fields := Fields{
		"operation": p.operation,
		"processed": p.current,
	}
	if p.total > 0 {
		fields["total"] = p.total
		fields["percentage"] = fmt.Sprintf("%.1f%%", float64(p.current)/float64(p.total)*100)
	}

	p.logger.WithFields(fields).Info("Progress update")
}

// BatchProgress contains a progress snapshot
type BatchProgress struct {
	Operation  string        `json:"operation"`
	Total      int64         `json:"total"`
	Current    int64         `json:"current"`
	Percentage float64       `json:"percentage"`
	Duration   time.Duration `json:"duration"`
}

// String returns a human-readable representation of the progress
func (bp BatchProgress) String() string {
	if bp.Total > 0 {
		return fmt.Sprintf("%s: %d/%d (%.1f%%), elapsed: %v",
			bp.Operation, bp.Current, bp.Total, bp.Percentage, bp.Duration)
	}
	return fmt.Sprintf("%s: %d processed, elapsed: %v", bp.Operation, bp.Current, bp.Duration)
}

// TimedOperation executes a function and logs timing information
func TimedOperation(operation string, log Logger, fn func() error) error {
	if log == nil {
		log = GetGlobalLogger()
	}
	log = log.WithField("operation", operation)

	start := time.Now()
	log.Info("Starting operation")

	err := fn()

	duration := time.Since(start)
	if err != nil {
		log.WithError(err).WithField("duration", duration.String()).Error("Operation failed")
	} else {
		log.WithField("duration", duration.String()).Info("Operation completed")
	}

	return err
}
