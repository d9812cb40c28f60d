// Package parsers implements classification and extraction for terminal
// log files.
//
// The device emits thousands of small operational files per service window.
// Classification relies on the device's file-naming convention, which is
// reliable and far cheaper than content sniffing; content is only inspected
// once a file is not recognized as a cash-movement file. Extraction then
// routes to either the cash-amount ledger parser or the error-code scanner.
//
// All extraction functions are pure: they never touch shared state, so a
// batch can run them concurrently without locks.
package parsers

import (
	"strings"

	"terminal-log-reconciler/internal/models"
)

// Classification markers checked in fixed priority order. The first marker
// found in the upper-cased file name wins.
var classificationOrder = []struct {
	marker string
	kind   models.RecordKind
}{
	{"COLLECT", models.KindCollect},
	{"DEPOSIT", models.KindDeposit},
	{"UNVERIFIED", models.KindUnverified},
}

// Classify determines a file's record kind from its name alone.
// Case-insensitive substring match; files matching no marker are candidate
// error logs. Pure function, idempotent.
func Classify(fileName string) models.RecordKind {
	upper := strings.ToUpper(fileName)

	for _, c := range classificationOrder {
		if strings.Contains(upper, c.marker) {
			return c.kind
		}
	}

	return models.KindUnclassified
}
