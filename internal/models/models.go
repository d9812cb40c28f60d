// Package models defines the core data types for terminal log analysis.
//
// The package models the record kinds produced by cash-handling terminals
// (collect, deposit, unverified and technical error logs), the enrichment
// snapshot taken from the error matrix, batch-level statistics, and the
// incidence claims that are cross-validated against the ingested corpus.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// RecordKind discriminates the classified record types
type RecordKind string

const (
	// KindCollect represents physical removal of cash by the carrier (CIT)
	KindCollect RecordKind = "collect"
	// KindDeposit represents a confirmed, bank-accepted cash-in transaction
	KindDeposit RecordKind = "deposit"
	// KindUnverified represents cash accepted but not yet reconciled by the bank
	KindUnverified RecordKind = "unverified"
	// KindErrorLog represents a technical error event log
	KindErrorLog RecordKind = "error_log"
	// KindUnclassified marks files not recognized as cash movements; they are
	// candidates for error-log extraction
	KindUnclassified RecordKind = "unclassified"
)

// String returns the string representation of RecordKind
func (k RecordKind) String() string {
	return string(k)
}

// IsCash reports whether the kind is one of the cash-movement kinds
func (k RecordKind) IsCash() bool {
	return k == KindCollect || k == KindDeposit || k == KindUnverified
}

// CashRecord represents one cash-movement log file
type CashRecord struct {
	Kind         RecordKind      `json:"kind"`
	SourceFile   string          `json:"sourceFile"`
	Timestamp    time.Time       `json:"timestamp"`
	TimestampRaw string          `json:"timestampRaw"`
	Amount       decimal.Decimal `json:"amount"`
	RawLine      string          `json:"rawLine"`
}

// HasTimestamp reports whether the device timestamp could be parsed.
// Records without a usable timestamp are excluded from date-bucketed views.
func (r *CashRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// Validate performs basic validation on the CashRecord
func (r *CashRecord) Validate() error {
	if !r.Kind.IsCash() {
		return fmt.Errorf("invalid cash record kind: %s", r.Kind)
	}

	if strings.TrimSpace(r.SourceFile) == "" {
		return fmt.Errorf("source file cannot be empty")
	}

	if r.Amount.IsNegative() {
		return fmt.Errorf("amount cannot be negative: %s", r.Amount)
	}

	return nil
}

// String returns a string representation of the CashRecord
func (r *CashRecord) String() string {
	return fmt.Sprintf("CashRecord{Kind: %s, File: %s, Amount: %s, Time: %s}",
		r.Kind, r.SourceFile, r.Amount.String(), r.TimestampRaw)
}

// ErrorEvent is a denormalized snapshot of a matrix entry taken at
// enrichment time. It is never mutated afterwards, so downstream
// aggregation is unaffected by matrix reloads mid-session.
type ErrorEvent struct {
	Code            string `json:"code"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	SubCategory     string `json:"subCategory"`
	SolutionType    string `json:"solutionType"`
	RecoveryMinutes int    `json:"recoveryMinutes"`
}

// ErrorRecord represents one technical error log file with its extracted
// and enriched events. Events is always non-empty; files with zero matched
// codes produce no record at all.
type ErrorRecord struct {
	SourceFile string       `json:"sourceFile"`
	Timestamp  time.Time    `json:"timestamp"`
	Events     []ErrorEvent `json:"events"`
}

// HasTimestamp reports whether the record carries a usable timestamp
func (r *ErrorRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// Validate performs basic validation on the ErrorRecord
func (r *ErrorRecord) Validate() error {
	if strings.TrimSpace(r.SourceFile) == "" {
		return fmt.Errorf("source file cannot be empty")
	}

	if len(r.Events) == 0 {
		return fmt.Errorf("error record must carry at least one event")
	}

	return nil
}

// String returns a string representation of the ErrorRecord
func (r *ErrorRecord) String() string {
	return fmt.Sprintf("ErrorRecord{File: %s, Events: %d}", r.SourceFile, len(r.Events))
}

// RawFile is a batch input: a file as delivered by the caller, before
// classification. Content may be UTF-8 or ISO-8859-1 encoded device output.
type RawFile struct {
	Name    string
	Content []byte
	ModTime time.Time
}

// BatchStats summarizes one batch run. TotalFiles always equals the sum
// of classified, error and skipped files; on a cancelled run the
// unprocessed remainder is counted as skipped.
type BatchStats struct {
	TotalFiles      int `json:"totalFiles"`
	FilesWithErrors int `json:"filesWithErrors"`
	TotalErrors     int `json:"totalErrors"`
	SkippedFiles    int `json:"skippedFiles"`
}

// IncidenceClaim is a manually reported cash-shortfall claim (aclaración)
// held for the lifetime of the analysis session. Immutable once added,
// except for deletion by ID.
type IncidenceClaim struct {
	ID            string          `json:"id"`
	Folio         string          `json:"folio"`
	ClaimedAmount decimal.Decimal `json:"claimedAmount"`
	CollectAmount decimal.Decimal `json:"collectAmount"`
	ClaimedDate   *time.Time      `json:"claimedDate,omitempty"`
	IsJustified   bool            `json:"isJustified"`
	VerdictText   string          `json:"verdictText"`
	ShortVerdict  string          `json:"shortVerdict"`
}

// ValidationResult is the verdict produced by one cross-validation call.
// It is ephemeral: recomputed on every input change, never cached across
// claims.
type ValidationResult struct {
	IsJustified     bool     `json:"isJustified"`
	Findings        []string `json:"findings"`
	ShortConclusion string   `json:"shortConclusion"`
}

// VerdictText joins the findings into the long-form verdict
func (v *ValidationResult) VerdictText() string {
	return strings.Join(v.Findings, "\n")
}

// Utility functions for working with models

// ParseDecimalFromString parses a decimal amount, tolerating currency
// symbols, thousands separators and surrounding whitespace
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount string")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %s", s)
	}

	return amount, nil
}

// deviceTimeFormats are the timestamp layouts observed in device output,
// tried in order.
var deviceTimeFormats = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"02-01-2006 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
}

// ParseDeviceTime parses a timestamp string from device output, trying the
// known layouts. Returns the zero time when no layout matches; callers must
// treat a zero time as "unparsable", not as an error.
func ParseDeviceTime(s string) time.Time {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}
	}

	for _, format := range deviceTimeFormats {
		if t, err := time.Parse(format, trimmed); err == nil {
			return t
		}
	}

	return time.Time{}
}

// DecodeText converts raw file bytes to a string, falling back to
// ISO-8859-1 when the bytes are not valid UTF-8. Device and back-office
// exports use Latin-1 for accented Spanish text.
func DecodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// Latin-1 maps every byte, but keep the raw interpretation as a
		// last resort.
		return string(raw)
	}
	return string(decoded)
}

// AmountsWithinTolerance reports whether two amounts differ by strictly
// less than the tolerance
func AmountsWithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(tolerance)
}

// TimesWithinWindow reports whether two times differ by strictly less than
// the window
func TimesWithinWindow(a, b time.Time, window time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff < window
}
