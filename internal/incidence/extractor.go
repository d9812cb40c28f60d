// Package incidence defines the contract with the external document
// text-extraction collaborator and parses claim hints out of the plain
// text it delivers.
//
// The engine never performs document-to-text conversion itself (PDF
// parsing, image recognition and their quality concerns live outside the
// core). A collaborator hands over plain text, and this package recovers
// the structured hints an incidence report carries: a folio identifier,
// candidate incident timestamps and a claimed amount. Extraction quality
// is an input concern: short or garbled text degrades to an empty result,
// never an error.
package incidence

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"terminal-log-reconciler/internal/validator"

	"github.com/shopspring/decimal"
)

// Extractor is the external collaborator that turns a binary document
// into plain text plus best-effort hints. Implementations are out of
// scope for the engine; UsedFallback reports whether the implementation
// had to fall back to image recognition.
type Extractor interface {
	Extract(ctx context.Context, doc []byte, name string) (*Document, error)
}

// Document is the collaborator's output consumed by the engine
type Document struct {
	SourceName   string          `json:"sourceName"`
	Text         string          `json:"text"`
	Folio        string          `json:"folio"`
	Hints        []DateHint      `json:"hints"`
	Amount       decimal.Decimal `json:"amount"`
	UsedFallback bool            `json:"usedFallback"`
}

// HintKind classifies how a candidate timestamp was recovered
type HintKind string

const (
	// HintEmbeddedLog marks a timestamp lifted from a device log line
	// quoted inside the report
	HintEmbeddedLog HintKind = "embedded_log"
	// HintVerbalDate marks a Spanish long-form date ("día 12 del mes de
	// marzo")
	HintVerbalDate HintKind = "verbal_date"
	// HintSimpleDate marks a bare d/m/y match, the lowest-confidence form
	HintSimpleDate HintKind = "simple_date"
)

// DateHint is one candidate incident timestamp
type DateHint struct {
	Time   time.Time `json:"time"`
	Source string    `json:"source"`
	Kind   HintKind  `json:"kind"`
}

// minUsableTextLength is the threshold below which extracted text is
// considered unreadable noise
const minUsableTextLength = 20

// fallbackFolio labels reports whose folio could not be recovered
const fallbackFolio = "S/N"

var (
	embeddedLogPattern = regexp.MustCompile(`(?i)Op\s*DE[-_]?100\s*[:.]?\s*(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	timeOfDayPattern   = regexp.MustCompile(`(\d{1,2}):(\d{2}):(\d{2})`)
	verbalDatePattern  = regexp.MustCompile(`(?i)d[ií]a\s+(\d{1,2})\s+del?\s+mes\s+de\s+([a-záéíóúñ]+)`)
	yearPattern        = regexp.MustCompile(`20\d{2}`)
	simpleDatePattern  = regexp.MustCompile(`(\d{1,2})\s*[/-]\s*(\d{1,2})\s*[/-]\s*(\d{4})`)
	folioPattern       = regexp.MustCompile(`(?i)Folio\D{0,40}(\d{4,})`)
	amountPattern      = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)
	noisePattern       = regexp.MustCompile(`[|«»_—]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// spanishMonths maps lowercase Spanish month names to their time.Month
var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// ParseDocumentText recovers folio, timestamp hints and a claimed amount
// from already-extracted plain text. Text below the usable threshold
// yields a Document with no hints; the operator sees an unreadable report,
// not a failure.
func ParseDocumentText(name, text string) *Document {
	doc := &Document{
		SourceName: name,
		Folio:      fallbackFolio,
		Amount:     decimal.Zero,
	}

	cleaned := CleanText(text)
	doc.Text = cleaned
	if len(cleaned) < minUsableTextLength {
		return doc
	}

	if m := folioPattern.FindStringSubmatch(cleaned); m != nil {
		doc.Folio = m[1]
	}

	if m := amountPattern.FindStringSubmatch(cleaned); m != nil {
		if amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "")); err == nil {
			doc.Amount = amount
		}
	}

	doc.Hints = append(doc.Hints, embeddedLogHints(cleaned)...)
	doc.Hints = append(doc.Hints, verbalDateHints(cleaned)...)

	// Bare dates are only trusted when nothing better was found.
	if len(doc.Hints) == 0 {
		doc.Hints = simpleDateHints(cleaned)
	}

	return doc
}

// CleanText collapses whitespace and strips the character classes commonly
// produced by recognition errors
func CleanText(text string) string {
	cleaned := noisePattern.ReplaceAllString(text, "")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// embeddedLogHints finds device log lines quoted inside the report. These
// carry day/month/year and, when present nearby, a time of day; noon is
// assumed otherwise so window matching stays within the right day.
func embeddedLogHints(text string) []DateHint {
	var hints []DateHint

	for _, idx := range embeddedLogPattern.FindAllStringSubmatchIndex(text, -1) {
		m := matchGroups(text, idx, 3)
		day, _ := strconv.Atoi(m[0])
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		if !validDayMonth(day, month) {
			continue
		}

		hour, minute, second := 12, 0, 0
		after := text[idx[0]:clampIndex(text, idx[0]+50)]
		if tm := timeOfDayPattern.FindStringSubmatch(after); tm != nil {
			hour, _ = strconv.Atoi(tm[1])
			minute, _ = strconv.Atoi(tm[2])
			second, _ = strconv.Atoi(tm[3])
		}

		hints = append(hints, DateHint{
			Time:   time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC),
			Source: "embedded device log",
			Kind:   HintEmbeddedLog,
		})
	}

	return hints
}

// verbalDateHints finds Spanish long-form dates, searching the following
// context for the year
func verbalDateHints(text string) []DateHint {
	var hints []DateHint

	for _, idx := range verbalDatePattern.FindAllStringSubmatchIndex(text, -1) {
		m := matchGroups(text, idx, 2)
		day, _ := strconv.Atoi(m[0])
		month, ok := spanishMonths[strings.ToLower(m[1])]
		if !ok || day < 1 || day > 31 {
			continue
		}

		year := time.Now().Year()
		context := text[idx[0]:clampIndex(text, idx[0]+100)]
		if ym := yearPattern.FindString(context); ym != "" {
			year, _ = strconv.Atoi(ym)
		}

		hints = append(hints, DateHint{
			Time:   time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
			Source: "verbal date",
			Kind:   HintVerbalDate,
		})
	}

	return hints
}

// simpleDateHints finds bare d/m/y dates, filtered to plausible years
func simpleDateHints(text string) []DateHint {
	var hints []DateHint

	for _, m := range simpleDatePattern.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year <= 2020 || !validDayMonth(day, month) {
			continue
		}

		hints = append(hints, DateHint{
			Time:   time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
			Source: m[0],
			Kind:   HintSimpleDate,
		})
	}

	return hints
}

// BuildClaimInput prefills a validator claim from a parsed document: the
// recovered folio and amount plus the first (highest-confidence) timestamp
// hint
func BuildClaimInput(doc *Document) validator.ClaimInput {
	claim := validator.ClaimInput{
		ClaimedAmount: doc.Amount,
	}

	if doc.Folio != fallbackFolio {
		claim.Folio = doc.Folio
	}

	if len(doc.Hints) > 0 {
		best := doc.Hints[0].Time
		claim.ClaimedDate = &best
	}

	return claim
}

func matchGroups(text string, idx []int, n int) []string {
	groups := make([]string, n)
	for i := 0; i < n; i++ {
		start, end := idx[2*(i+1)], idx[2*(i+1)+1]
		if start >= 0 && end >= 0 {
			groups[i] = text[start:end]
		}
	}
	return groups
}

func clampIndex(text string, i int) int {
	if i > len(text) {
		return len(text)
	}
	return i
}

func validDayMonth(day, month int) bool {
	return day >= 1 && day <= 31 && month >= 1 && month <= 12
}
