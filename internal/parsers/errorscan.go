package parsers

import (
	"regexp"
	"strings"
	"time"

	"terminal-log-reconciler/internal/matrix"
	"terminal-log-reconciler/internal/models"
)

// errorCodePattern matches device error codes: an "E" followed by 5 or 6
// uppercase hexadecimal characters.
var errorCodePattern = regexp.MustCompile(`\bE[0-9A-F]{5,6}\b`)

// statusFieldIndex is the delimited field of a device-native structured
// log's last record line that carries the fault code.
const statusFieldIndex = 5

// ScanErrorCodes extracts error codes from file content using two tiers,
// attempted in order:
//
//  1. a field-anchored search within the status field of the last record
//     line (device-native structured logs)
//  2. an unanchored scan of the whole content (free-form logs)
//
// The first tier that yields any match wins. Matches are never
// deduplicated: each physical occurrence is one code, because downstream
// frequency counting depends on one event per occurrence.
func ScanErrorCodes(content string) []string {
	if codes := scanStatusField(content); len(codes) > 0 {
		return codes
	}
	return scanFullText(content)
}

// scanStatusField searches the status field of the last record line
func scanStatusField(content string) []string {
	lastLine := lastNonBlankLine(content)
	if lastLine == "" {
		return nil
	}

	fields := strings.Split(lastLine, ",")
	if len(fields) <= statusFieldIndex {
		return nil
	}

	return errorCodePattern.FindAllString(fields[statusFieldIndex], -1)
}

// scanFullText searches the whole content for error codes
func scanFullText(content string) []string {
	return errorCodePattern.FindAllString(content, -1)
}

// ExtractErrorRecord scans content for error codes, enriches each match
// against the matrix index and assembles an ErrorRecord. Codes absent from
// the index produce placeholder events instead of being dropped. Returns
// nil when the content carries no codes at all: such a file contributes no
// record.
func ExtractErrorRecord(fileName, content string, modTime time.Time, idx *matrix.Index) *models.ErrorRecord {
	codes := ScanErrorCodes(content)
	if len(codes) == 0 {
		return nil
	}

	events := make([]models.ErrorEvent, 0, len(codes))
	for _, code := range codes {
		events = append(events, EnrichCode(code, idx))
	}

	return &models.ErrorRecord{
		SourceFile: fileName,
		Timestamp:  errorTimestamp(content, modTime),
		Events:     events,
	}
}

// errorTimestamp reads the event timestamp from the last record line,
// falling back to the file modification time when the line has no
// parseable timestamp field
func errorTimestamp(content string, modTime time.Time) time.Time {
	fields := strings.Split(lastNonBlankLine(content), ",")
	if len(fields) > timestampFieldIndex {
		if ts := models.ParseDeviceTime(fields[timestampFieldIndex]); !ts.IsZero() {
			return ts
		}
	}
	return modTime
}

// EnrichCode resolves one code against the index, synthesizing a
// placeholder event when the code is unknown
func EnrichCode(code string, idx *matrix.Index) models.ErrorEvent {
	entry := idx.Lookup(code)
	if entry == nil {
		entry = matrix.PlaceholderEntry(code)
	}

	return models.ErrorEvent{
		Code:            entry.Code,
		Description:     entry.Description,
		Category:        entry.Category,
		SubCategory:     entry.SubCategory,
		SolutionType:    entry.SolutionType,
		RecoveryMinutes: entry.RecoveryMinutes,
	}
}
