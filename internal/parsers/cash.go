package parsers

import (
	"strings"
	"time"

	"terminal-log-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

// Device record format constants. The final line of a cash-movement file
// carries the authoritative running total; earlier lines are itemized
// history and are ignored. Field 4 holds the event timestamp and the
// denomination ledger starts at field 6, laid out as repeating
// (denomination, currency, count) triplets.
const (
	timestampFieldIndex = 4
	ledgerFieldOffset   = 6
	ledgerStride        = 3
	minLedgerFields     = 7
)

// UnknownTimestamp is the placeholder raw value for files without a
// parseable ledger line
const UnknownTimestamp = "unknown"

// ParseCashFile extracts a CashRecord from a cash-movement file.
//
// Malformed input degrades rather than fails: an empty file or a ledger
// line with too few fields yields amount zero, and an unparsable timestamp
// leaves the record out of date-bucketed views only. A record is always
// produced so the operator sees the file was touched.
func ParseCashFile(kind models.RecordKind, fileName, content string, modTime time.Time) *models.CashRecord {
	record := &models.CashRecord{
		Kind:         kind,
		SourceFile:   fileName,
		TimestampRaw: UnknownTimestamp,
		Amount:       decimal.Zero,
	}

	lastLine := lastNonBlankLine(content)
	if lastLine == "" {
		return record
	}
	record.RawLine = lastLine

	fields := strings.Split(lastLine, ",")
	if len(fields) > timestampFieldIndex+1 {
		record.TimestampRaw = strings.TrimSpace(fields[timestampFieldIndex])
		record.Timestamp = models.ParseDeviceTime(record.TimestampRaw)
	}
	if !record.HasTimestamp() && !modTime.IsZero() {
		// Best effort: file modification time stands in for an
		// unparsable device timestamp.
		record.Timestamp = modTime
	}

	record.Amount = CashAmount(fields)

	return record
}

// CashAmount totals the denomination ledger encoded in the fields of a
// ledger line. Starting at the fixed offset, each stride of 3 fields is
// read as (denomination, currency, count) and denomination x count is
// accumulated. Fields that fail numeric parsing are skipped so a partial
// ledger still contributes a partial total. Lines with fewer than 7 fields
// total zero. The result is never negative: device ledgers encode counted
// cash, so a negative product marks a corrupt stride, not a refund.
func CashAmount(fields []string) decimal.Decimal {
	total := decimal.Zero

	if len(fields) < minLedgerFields {
		return total
	}

	for i := ledgerFieldOffset; i+ledgerStride-1 < len(fields); i += ledgerStride {
		denomination, err := decimal.NewFromString(strings.TrimSpace(fields[i]))
		if err != nil {
			continue
		}

		count, err := decimal.NewFromString(strings.TrimSpace(fields[i+2]))
		if err != nil {
			continue
		}

		product := denomination.Mul(count)
		if product.IsNegative() {
			continue
		}

		total = total.Add(product)
	}

	return total
}

// lastNonBlankLine returns the last line of content with non-whitespace
// text, or "" when there is none
func lastNonBlankLine(content string) string {
	lines := strings.Split(content, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
