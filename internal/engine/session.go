package engine

import (
	"context"
	"io"
	"sync"

	"terminal-log-reconciler/internal/matrix"
	"terminal-log-reconciler/internal/models"
	"terminal-log-reconciler/internal/validator"
	"terminal-log-reconciler/pkg/errors"
	"terminal-log-reconciler/pkg/logger"

	"github.com/google/uuid"
)

// Session is the explicit, caller-owned analysis context: the loaded error
// matrix, the latest batch result and the incidence claim list. All state
// lives for one analysis session; nothing is persisted.
//
// A Session replaces ambient global state with a value the caller
// constructs, passes around and resets. Claims are guarded by a mutex so a
// UI layer may add and remove them while a batch runs; the batch result
// itself is only swapped at Ingest time.
type Session struct {
	orchestrator *Orchestrator
	validator    *validator.Validator
	logger       logger.Logger

	mu     sync.RWMutex
	matrix *matrix.Index
	result *BatchResult
	claims []*models.IncidenceClaim
}

// NewSession creates an analysis session
func NewSession(batchConfig *BatchConfig, validatorConfig *validator.Config) (*Session, error) {
	orchestrator, err := NewOrchestrator(batchConfig)
	if err != nil {
		return nil, err
	}

	return &Session{
		orchestrator: orchestrator,
		validator:    validator.New(validatorConfig),
		logger:       logger.GetGlobalLogger().WithComponent("session"),
	}, nil
}

// LoadMatrix reads and indexes an error matrix table, replacing any
// previously loaded index wholesale. Error events already extracted keep
// their enrichment snapshots.
func (s *Session) LoadMatrix(r io.Reader) (int, error) {
	var idx *matrix.Index
	err := logger.TimedOperation("matrix_load", s.logger, func() error {
		loaded, err := matrix.Load(r)
		if err != nil {
			return err
		}
		idx = loaded
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.matrix = idx
	s.mu.Unlock()

	s.logger.WithField("codes", idx.Len()).Info("Matrix replaced for session")
	return idx.Len(), nil
}

// Matrix returns the currently loaded index, possibly nil
func (s *Session) Matrix() *matrix.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matrix
}

// Ingest runs a batch over the supplied files and stores the result in the
// session. See Orchestrator.Process for the progress and cancellation
// contract.
func (s *Session) Ingest(ctx context.Context, files []models.RawFile, progress chan<- int) (*BatchResult, error) {
	result, err := s.orchestrator.Process(ctx, files, s.Matrix(), progress)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	return result, nil
}

// Result returns the latest batch result, possibly nil
func (s *Session) Result() *BatchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// ValidateClaim evaluates a claim against the session's batch result
// without recording it. Safe to call repeatedly as the operator edits the
// claim inputs.
func (s *Session) ValidateClaim(claim validator.ClaimInput) (models.ValidationResult, error) {
	result := s.Result()
	if result == nil {
		return models.ValidationResult{}, errors.AnalysisError(errors.CodeProcessingError, "claim_validation", nil).
			WithSuggestion("ingest a log batch before validating claims")
	}

	return s.validator.Validate(claim, validator.Collections{
		Collect:    result.Collect,
		Deposit:    result.Deposit,
		Unverified: result.Unverified,
		Errors:     result.Errors,
	}), nil
}

// AddClaim validates a claim and records it in the session list. The
// stored claim is immutable afterwards, except for removal by ID.
func (s *Session) AddClaim(claim validator.ClaimInput) (*models.IncidenceClaim, error) {
	verdict, err := s.ValidateClaim(claim)
	if err != nil {
		return nil, err
	}

	folio := claim.Folio
	if folio == "" {
		folio = "S/N"
	}

	stored := &models.IncidenceClaim{
		ID:            uuid.NewString(),
		Folio:         folio,
		ClaimedAmount: claim.ClaimedAmount,
		CollectAmount: claim.CollectAmount,
		ClaimedDate:   claim.ClaimedDate,
		IsJustified:   verdict.IsJustified,
		VerdictText:   verdict.VerdictText(),
		ShortVerdict:  verdict.ShortConclusion,
	}

	s.mu.Lock()
	s.claims = append(s.claims, stored)
	s.mu.Unlock()

	s.logger.WithFields(logger.Fields{
		"claim_id":  stored.ID,
		"folio":     stored.Folio,
		"justified": stored.IsJustified,
	}).Info("Claim added to session")

	return stored, nil
}

// RemoveClaim deletes a claim by ID, reporting whether it existed
func (s *Session) RemoveClaim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, claim := range s.claims {
		if claim.ID == id {
			s.claims = append(s.claims[:i], s.claims[i+1:]...)
			return true
		}
	}
	return false
}

// Claims returns a copy of the recorded claim list in insertion order
func (s *Session) Claims() []*models.IncidenceClaim {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.IncidenceClaim, len(s.claims))
	copy(out, s.claims)
	return out
}

// Reset clears the batch result and claims, keeping the loaded matrix
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.result = nil
	s.claims = nil
	s.logger.Info("Session reset")
}
