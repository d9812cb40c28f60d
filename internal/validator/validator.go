// Package validator cross-validates manually reported cash discrepancies
// (aclaraciones) against the ingested log corpus.
//
// A claim carries an amount and/or a date. The validator searches the
// classified record collections for justifying evidence using an ordered
// rule chain: an unverified deposit matching the claimed amount within
// tolerance justifies the claim outright; failing that, a technical error
// recorded near the claimed time justifies it; failing that, nearby
// deposit activity is reported as inconclusive context, and otherwise the
// verdict is "no evidence". A secondary path matches a claimed collection
// amount against collect logs with a tighter tolerance.
//
// Every call is pure and side-effect-free. Linear scans are deliberate:
// batches top out at tens of thousands of records and the validator is
// re-run on every input change.
package validator

import (
	"fmt"
	"time"

	"terminal-log-reconciler/internal/models"
	"terminal-log-reconciler/pkg/logger"

	"github.com/shopspring/decimal"
)

// Config holds the matching tolerances. The source system hard-coded
// these; they are configurable here pending a business ruling, with the
// empirical values as defaults.
type Config struct {
	// UnverifiedTolerance is the maximum amount difference (exclusive) for
	// a claimed shortfall to match an unverified deposit
	UnverifiedTolerance decimal.Decimal

	// CollectTolerance is the tighter tolerance for the collection-amount
	// path
	CollectTolerance decimal.Decimal

	// ErrorWindow is the time window around the claimed date searched for
	// technical errors
	ErrorWindow time.Duration

	// ActivityWindow is the tighter window searched for deposit activity
	// when no error explains the claim
	ActivityWindow time.Duration
}

// DefaultConfig returns the tolerances observed in the field
func DefaultConfig() *Config {
	return &Config{
		UnverifiedTolerance: decimal.NewFromInt(2),
		CollectTolerance:    decimal.NewFromInt(1),
		ErrorWindow:         time.Hour,
		ActivityWindow:      30 * time.Minute,
	}
}

// ClaimInput is the caller-supplied claim under validation
type ClaimInput struct {
	Folio         string
	ClaimedAmount decimal.Decimal
	CollectAmount decimal.Decimal
	ClaimedDate   *time.Time
}

// HasAmount reports whether the claim carries a positive shortfall amount
func (c *ClaimInput) HasAmount() bool {
	return c.ClaimedAmount.IsPositive()
}

// HasDate reports whether the claim carries a usable date
func (c *ClaimInput) HasDate() bool {
	return c.ClaimedDate != nil && !c.ClaimedDate.IsZero()
}

// Collections are the classified record sets searched for evidence. The
// validator only reads them.
type Collections struct {
	Collect    []*models.CashRecord
	Deposit    []*models.CashRecord
	Unverified []*models.CashRecord
	Errors     []*models.ErrorRecord
}

// Validator evaluates claims against the log corpus
type Validator struct {
	config *Config
	logger logger.Logger
}

// New creates a validator with the given tolerances
func New(config *Config) *Validator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Validator{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("discrepancy_validator"),
	}
}

// Validate evaluates one claim. Rules are ordered; the first successful
// rule wins and later rules are fallback explanations, not alternative
// matches. A claim with no amount, no date and no collection amount
// yields a neutral pending verdict, not an error.
func (v *Validator) Validate(claim ClaimInput, logs Collections) models.ValidationResult {
	result := models.ValidationResult{}

	if !claim.HasAmount() && !claim.HasDate() && !claim.CollectAmount.IsPositive() {
		result.Findings = append(result.Findings,
			"PENDING: no claimed amount or date provided; nothing to search for.")
		result.ShortConclusion = "Pending"
		return result
	}

	// Rule 1: claimed amount against unverified deposits.
	if claim.HasAmount() {
		if match := findAmountMatch(logs.Unverified, claim.ClaimedAmount, v.config.UnverifiedTolerance); match != nil {
			result.IsJustified = true
			result.Findings = append(result.Findings, fmt.Sprintf(
				"DIFFERENCE JUSTIFIED: matches an unverified deposit of $%s on %s (file %s).",
				match.Amount.StringFixed(2), timestampLabel(match), match.SourceFile))
			result.ShortConclusion = "Matches unverified deposit"
		}
	}

	// Rules 2 and 3: date-driven fallbacks.
	if !result.IsJustified && claim.HasDate() {
		target := *claim.ClaimedDate

		if errMatch, code := findErrorNear(logs.Errors, target, v.config.ErrorWindow); errMatch != nil {
			result.IsJustified = true
			result.Findings = append(result.Findings, fmt.Sprintf(
				"JUSTIFIED BY TECHNICAL FAILURE: error %s recorded near the reported time (file %s).",
				code, errMatch.SourceFile))
			result.ShortConclusion = fmt.Sprintf("Technical failure (%s)", code)
		} else if activity := findDepositNear(logs.Deposit, target, v.config.ActivityWindow); activity != nil {
			result.Findings = append(result.Findings, fmt.Sprintf(
				"ACTIVITY FOUND: successful deposits near this time (%s), but the amount does not match.",
				timestampLabel(activity)))
			result.ShortConclusion = "Activity without amount match"
		} else {
			result.Findings = append(result.Findings,
				"NO EVIDENCE: no errors or activity recorded at the reported date/time.")
			result.ShortConclusion = "No evidence in logs"
		}
	} else if !result.IsJustified && claim.HasAmount() {
		result.Findings = append(result.Findings,
			"NO EVIDENCE: the amount is not in the unverified set. Add the exact date to search for technical errors.")
		result.ShortConclusion = "Not found by amount"
	}

	// Secondary path: a claimed collection amount is checked against
	// collect logs independently of the rules above.
	if claim.CollectAmount.IsPositive() {
		if match := findAmountMatch(logs.Collect, claim.CollectAmount, v.config.CollectTolerance); match != nil {
			alreadyJustified := result.IsJustified
			result.IsJustified = true
			result.Findings = append(result.Findings, fmt.Sprintf(
				"COLLECTION CONFIRMED: matches a collection of $%s on %s (file %s).",
				match.Amount.StringFixed(2), timestampLabel(match), match.SourceFile))
			if !alreadyJustified {
				result.ShortConclusion = "Matches collection"
			}
		}
	}

	if result.ShortConclusion == "" {
		result.ShortConclusion = "Pending"
	}

	v.logger.WithFields(logger.Fields{
		"folio":      claim.Folio,
		"justified":  result.IsJustified,
		"conclusion": result.ShortConclusion,
	}).Debug("Claim validated")

	return result
}

// findAmountMatch scans records for an amount within tolerance of target
func findAmountMatch(records []*models.CashRecord, target, tolerance decimal.Decimal) *models.CashRecord {
	for _, record := range records {
		if models.AmountsWithinTolerance(record.Amount, target, tolerance) {
			return record
		}
	}
	return nil
}

// findErrorNear scans error records for one whose timestamp falls within
// the window around target, returning the record and its first event code
func findErrorNear(records []*models.ErrorRecord, target time.Time, window time.Duration) (*models.ErrorRecord, string) {
	for _, record := range records {
		if !record.HasTimestamp() {
			continue
		}
		if models.TimesWithinWindow(record.Timestamp, target, window) {
			code := "unknown"
			if len(record.Events) > 0 {
				code = record.Events[0].Code
			}
			return record, code
		}
	}
	return nil, ""
}

// findDepositNear scans deposits for activity within the window
func findDepositNear(records []*models.CashRecord, target time.Time, window time.Duration) *models.CashRecord {
	for _, record := range records {
		if !record.HasTimestamp() {
			continue
		}
		if models.TimesWithinWindow(record.Timestamp, target, window) {
			return record
		}
	}
	return nil
}

func timestampLabel(record *models.CashRecord) string {
	if record.HasTimestamp() {
		return record.Timestamp.Format("2006-01-02 15:04:05")
	}
	return record.TimestampRaw
}
