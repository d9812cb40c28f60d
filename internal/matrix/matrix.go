// Package matrix loads and indexes the reference error-code matrix.
//
// The matrix is a delimited table exported by the back office that maps
// device error codes to diagnostic metadata: description, category,
// sub-category, remediation type and expected recovery time. Files arrive
// in UTF-8 or ISO-8859-1 and frequently carry preamble rows before the
// real header, so the loader locates the header row dynamically and
// tolerates both Spanish and English spellings of the variable columns.
//
// Once built, an Index is read-only and safe for concurrent lookups from
// any number of extraction workers.
package matrix

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"terminal-log-reconciler/internal/models"
	"terminal-log-reconciler/pkg/errors"
	"terminal-log-reconciler/pkg/logger"
)

// Entry holds the enrichment metadata for one error code
type Entry struct {
	Code            string `json:"code"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	SubCategory     string `json:"subCategory"`
	SolutionType    string `json:"solutionType"`
	RecoveryMinutes int    `json:"recoveryMinutes"`
}

// Defaults applied to rows with missing optional fields
const (
	DefaultDescription = "Sin descripción"
	DefaultCategory    = "General"

	// UnknownCategory marks events whose code is absent from the matrix.
	// They stay visible to the operator as a data-quality signal.
	UnknownCategory     = "Unknown/System Event"
	UnknownDescription  = "no description available"
	UnknownSolutionType = "N/A"
)

// Header cell names recognized by the loader. The error-code column has two
// accepted spellings and the recovery-time column exists in two languages.
var (
	codeHeaders        = []string{"CODIGO DE ERROR", "CÓDIGO DE ERROR"}
	descriptionHeaders = []string{"DESCRIPCION DEL CODIGO", "DESCRIPTION"}
	categoryHeaders    = []string{"CATEGORIA", "CATEGORY"}
	subCategoryHeaders = []string{"SUB CATEGORIA", "SUB CATEGORY"}
	solutionHeaders    = []string{"TIPO DE SOLUCIÓN", "TIPO DE SOLUCION", "SOLUTION TYPE"}
	recoveryHeaders    = []string{"TIEMPO DE RECUPERACION (MIN)", "RECOVERY TIME (MIN)"}
)

// Index is the in-memory error-code index. It is immutable after Load;
// reloading produces a fresh Index and replaces the old one wholesale.
type Index struct {
	entries map[string]*Entry
	codes   []string
}

// Load reads a matrix table and builds the Index.
//
// Rows whose code cell is missing or has length <= 2 are discarded. Missing
// optional fields fall back to the documented defaults. An empty result is
// an error: a matrix without a single usable code is a configuration
// problem, not a valid index.
func Load(r io.Reader) (*Index, error) {
	log := logger.GetGlobalLogger().WithComponent("matrix")

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryFile, errors.CodeFileUnreadable, "failed to read matrix data")
	}

	text := models.DecodeText(raw)

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, "matrix", 0, "malformed delimited table", err)
	}

	headerIdx, columns := findHeader(rows)
	if headerIdx < 0 {
		return nil, errors.ParseError(errors.CodeMissingHeader, "matrix", 0,
			"no row contains an error-code column", nil)
	}

	idx := &Index{entries: make(map[string]*Entry)}
	for _, row := range rows[headerIdx+1:] {
		entry := buildEntry(row, columns)
		if entry == nil {
			continue
		}
		if _, dup := idx.entries[entry.Code]; dup {
			continue
		}
		idx.entries[entry.Code] = entry
		idx.codes = append(idx.codes, entry.Code)
	}

	if len(idx.entries) == 0 {
		return nil, errors.ParseError(errors.CodeInvalidData, "matrix", headerIdx+1,
			"no rows with a usable error code", nil).
			WithSuggestion("verify the matrix export contains data rows below the header")
	}

	log.WithFields(logger.Fields{
		"codes":      len(idx.entries),
		"header_row": headerIdx,
	}).Info("Error matrix loaded")

	return idx, nil
}

// Lookup returns the entry for code, or nil when the code is not indexed
func (idx *Index) Lookup(code string) *Entry {
	if idx == nil {
		return nil
	}
	return idx.entries[code]
}

// Len returns the number of indexed codes
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Codes returns the indexed codes in load order
func (idx *Index) Codes() []string {
	if idx == nil {
		return nil
	}
	out := make([]string, len(idx.codes))
	copy(out, idx.codes)
	return out
}

// PlaceholderEntry synthesizes the entry used for codes absent from the
// matrix. Unresolved codes must remain visible downstream, never dropped.
func PlaceholderEntry(code string) *Entry {
	return &Entry{
		Code:         code,
		Description:  UnknownDescription,
		Category:     UnknownCategory,
		SubCategory:  UnknownCategory,
		SolutionType: UnknownSolutionType,
	}
}

// columnMap records where each known column sits in the header row
type columnMap struct {
	code        int
	description int
	category    int
	subCategory int
	solution    int
	recovery    int
}

// findHeader scans rows for the first one containing an error-code header
// cell and maps the known columns. Returns -1 when no header is present.
func findHeader(rows [][]string) (int, *columnMap) {
	for i, row := range rows {
		codeCol := matchColumn(row, codeHeaders)
		if codeCol < 0 {
			continue
		}

		return i, &columnMap{
			code:        codeCol,
			description: matchColumn(row, descriptionHeaders),
			category:    matchColumn(row, categoryHeaders),
			subCategory: matchColumn(row, subCategoryHeaders),
			solution:    matchColumn(row, solutionHeaders),
			recovery:    matchColumn(row, recoveryHeaders),
		}
	}
	return -1, nil
}

func matchColumn(row []string, names []string) int {
	for i, cell := range row {
		normalized := strings.ToUpper(strings.TrimSpace(cell))
		for _, name := range names {
			if normalized == name || strings.Contains(normalized, name) {
				return i
			}
		}
	}
	return -1
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// buildEntry converts one data row into an Entry, or nil when the row has
// no usable code
func buildEntry(row []string, cols *columnMap) *Entry {
	code := cellAt(row, cols.code)
	if len(code) <= 2 {
		return nil
	}

	entry := &Entry{
		Code:         code,
		Description:  cellAt(row, cols.description),
		Category:     cellAt(row, cols.category),
		SubCategory:  cellAt(row, cols.subCategory),
		SolutionType: cellAt(row, cols.solution),
	}

	if entry.Description == "" {
		entry.Description = DefaultDescription
	}
	if entry.Category == "" {
		entry.Category = DefaultCategory
	}

	if minutes, err := strconv.Atoi(cellAt(row, cols.recovery)); err == nil && minutes >= 0 {
		entry.RecoveryMinutes = minutes
	}

	return entry
}
