package engine

import (
	"os"
	"testing"

	"terminal-log-reconciler/pkg/logger"
)

// TestMain silences batch logging so test output stays readable.
func TestMain(m *testing.M) {
	if log, err := logger.NewLogger(logger.QuietConfig()); err == nil {
		logger.SetGlobalLogger(log)
	}
	os.Exit(m.Run())
}
