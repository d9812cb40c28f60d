// Package report renders a completed analysis in console, JSON or CSV
// form.
//
// A report covers the batch statistics, cash totals and success rate, the
// top-error and category views, the error trend, the recorded incidence
// claims with their verdicts, and a generated technical-conclusions text
// block suitable for pasting into an operator dictum.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"terminal-log-reconciler/internal/analytics"
	"terminal-log-reconciler/internal/engine"
	"terminal-log-reconciler/internal/models"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// Config holds configuration options for report generation
type Config struct {
	Format OutputFormat `json:"format"`

	// TopN bounds the top-errors view
	TopN int `json:"top_n"`

	// Section toggles
	IncludeTrend       bool `json:"include_trend"`
	IncludeClaims      bool `json:"include_claims"`
	IncludeConclusions bool `json:"include_conclusions"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultConfig returns a default report configuration
func DefaultConfig() *Config {
	return &Config{
		Format:             FormatConsole,
		TopN:               analytics.DefaultTopN,
		IncludeTrend:       true,
		IncludeClaims:      true,
		IncludeConclusions: true,
		CSVDelimiter:       ',',
		CSVHeaders:         true,
	}
}

// Validate validates the report configuration
func (c *Config) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.TopN <= 0 {
		return fmt.Errorf("top-n must be positive, got %d", c.TopN)
	}

	return nil
}

// Generator renders analysis reports in the configured format
type Generator struct {
	config *Config
}

// NewGenerator creates a report generator with the specified configuration
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &Generator{config: config}, nil
}

// Generate renders the analysis to the writer in the configured format
func (g *Generator) Generate(result *engine.BatchResult, claims []*models.IncidenceClaim, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("batch result cannot be nil")
	}

	switch g.config.Format {
	case FormatConsole:
		return g.generateConsole(result, claims, writer)
	case FormatJSON:
		return g.generateJSON(result, claims, writer)
	case FormatCSV:
		return g.generateCSV(result, claims, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", g.config.Format)
	}
}

// generateConsole renders a human-readable report
func (g *Generator) generateConsole(result *engine.BatchResult, claims []*models.IncidenceClaim, writer io.Writer) error {
	totals := analytics.Totals(result)

	fmt.Fprintf(writer, "TERMINAL LOG ANALYSIS REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", time.Now().Format(time.RFC3339))
	if result.Partial {
		fmt.Fprintf(writer, "NOTE: batch was cancelled; this report covers a partial result\n")
	}
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== BATCH SUMMARY ===\n")
	fmt.Fprintf(writer, "Total Files:       %d\n", result.Stats.TotalFiles)
	fmt.Fprintf(writer, "Collect Records:   %d\n", len(result.Collect))
	fmt.Fprintf(writer, "Deposit Records:   %d\n", len(result.Deposit))
	fmt.Fprintf(writer, "Unverified:        %d\n", len(result.Unverified))
	fmt.Fprintf(writer, "Error Logs:        %d\n", result.Stats.FilesWithErrors)
	fmt.Fprintf(writer, "Error Events:      %d\n", result.Stats.TotalErrors)
	fmt.Fprintf(writer, "Skipped Files:     %d\n\n", result.Stats.SkippedFiles)

	fmt.Fprintf(writer, "=== CASH BALANCE ===\n")
	fmt.Fprintf(writer, "Collected:   $%s\n", totals.Collected.StringFixed(2))
	fmt.Fprintf(writer, "Deposited:   $%s\n", totals.Deposited.StringFixed(2))
	fmt.Fprintf(writer, "Unverified:  $%s\n", totals.Unverified.StringFixed(2))
	fmt.Fprintf(writer, "Success Rate: %.1f%%\n\n", analytics.SuccessRate(result))

	if topErrors := analytics.TopErrors(result.Errors, g.config.TopN); len(topErrors) > 0 {
		fmt.Fprintf(writer, "=== TOP ERRORS ===\n")
		fmt.Fprintf(writer, "%-10s %-7s %s\n", "Code", "Count", "Description")
		for _, freq := range topErrors {
			fmt.Fprintf(writer, "%-10s %-7d %s\n", freq.Code, freq.Count, truncate(freq.Description, 60))
		}
		fmt.Fprintf(writer, "\n")
	}

	if breakdown := analytics.CategoryBreakdown(result.Errors); len(breakdown) > 0 {
		fmt.Fprintf(writer, "=== ERROR CATEGORIES ===\n")
		for _, row := range breakdown {
			fmt.Fprintf(writer, "%-40s %d\n", row.Category, row.Count)
		}
		fmt.Fprintf(writer, "\n")
	}

	if g.config.IncludeTrend {
		if trend := analytics.ErrorTrend(result.Errors); len(trend) > 0 {
			fmt.Fprintf(writer, "=== ERROR TREND ===\n")
			for _, point := range trend {
				fmt.Fprintf(writer, "%s  %d\n", point.Date.Format("2006-01-02"), point.Count)
			}
			fmt.Fprintf(writer, "\n")
		}
	}

	if g.config.IncludeClaims && len(claims) > 0 {
		fmt.Fprintf(writer, "=== INCIDENCE CLAIMS ===\n")
		fmt.Fprintf(writer, "%-12s %-12s %-10s %s\n", "Folio", "Claimed", "Justified", "Conclusion")
		for _, claim := range claims {
			fmt.Fprintf(writer, "%-12s $%-11s %-10t %s\n",
				claim.Folio, claim.ClaimedAmount.StringFixed(2), claim.IsJustified, claim.ShortVerdict)
		}
		fmt.Fprintf(writer, "\n")
	}

	if g.config.IncludeConclusions {
		fmt.Fprintf(writer, "=== TECHNICAL CONCLUSIONS ===\n")
		fmt.Fprintf(writer, "%s\n", Conclusions(result, claims))
	}

	return nil
}

// generateJSON renders a structured JSON report
func (g *Generator) generateJSON(result *engine.BatchResult, claims []*models.IncidenceClaim, writer io.Writer) error {
	payload := map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"partial":      result.Partial,
		"stats":        result.Stats,
		"totals":       analytics.Totals(result),
		"success_rate": analytics.SuccessRate(result),
		"top_errors":   analytics.TopErrors(result.Errors, g.config.TopN),
		"categories":   analytics.CategoryBreakdown(result.Errors),
	}

	if g.config.IncludeTrend {
		payload["trend"] = analytics.ErrorTrend(result.Errors)
	}
	if g.config.IncludeClaims {
		payload["claims"] = claims
		payload["claims_summary"] = analytics.SummarizeClaims(claims)
	}
	if g.config.IncludeConclusions {
		payload["conclusions"] = Conclusions(result, claims)
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// generateCSV renders the classified records as CSV rows
func (g *Generator) generateCSV(result *engine.BatchResult, claims []*models.IncidenceClaim, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = g.config.CSVDelimiter
	defer csvWriter.Flush()

	if g.config.CSVHeaders {
		headers := []string{"Type", "Source_File", "Timestamp", "Amount", "Detail"}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	writeCash := func(records []*models.CashRecord) error {
		for _, record := range records {
			row := []string{
				record.Kind.String(),
				record.SourceFile,
				cashTimestamp(record),
				record.Amount.StringFixed(2),
				"",
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	}

	if err := writeCash(result.Collect); err != nil {
		return err
	}
	if err := writeCash(result.Deposit); err != nil {
		return err
	}
	if err := writeCash(result.Unverified); err != nil {
		return err
	}

	for _, record := range result.Errors {
		for _, event := range record.Events {
			row := []string{
				models.KindErrorLog.String(),
				record.SourceFile,
				errorTimestamp(record),
				"",
				fmt.Sprintf("%s: %s", event.Code, event.Description),
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	if g.config.IncludeClaims {
		for _, claim := range claims {
			row := []string{
				"claim",
				claim.Folio,
				claimTimestamp(claim),
				claim.ClaimedAmount.StringFixed(2),
				claim.ShortVerdict,
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	return nil
}

// Conclusions builds the technical-conclusions text block summarizing the
// analysis for the operator dictum
func Conclusions(result *engine.BatchResult, claims []*models.IncidenceClaim) string {
	totals := analytics.Totals(result)
	breakdown := analytics.CategoryBreakdown(result.Errors)

	mainCategory := "General"
	if len(breakdown) > 0 {
		mainCategory = breakdown[0].Category
	}

	text := "TECHNICAL AND OPERATIONAL RELIABILITY ASSESSMENT:\n\n"
	text += fmt.Sprintf("A full analysis of %d files was performed. Success rate: %.1f%%.\n\n",
		result.Stats.TotalFiles, analytics.SuccessRate(result))

	if len(result.Errors) > 0 {
		text += fmt.Sprintf("TECHNICAL STATUS: %d alerts recorded. Main category: %s.\n",
			result.Stats.TotalErrors, mainCategory)
	} else {
		text += "TECHNICAL STATUS: no recent history of critical errors.\n"
	}

	text += "CASH BALANCE:\n"
	text += fmt.Sprintf("- Deposited: $%s\n", totals.Deposited.StringFixed(2))
	text += fmt.Sprintf("- At risk (unverified): $%s\n", totals.Unverified.StringFixed(2))

	if len(claims) > 0 {
		summary := analytics.SummarizeClaims(claims)
		text += "\n--------------------------------------------------\n"
		text += fmt.Sprintf("CLAIMS SUMMARY (%d cases):\n", summary.Count)
		text += fmt.Sprintf("- Total claimed: $%s\n", summary.TotalClaimed.StringFixed(2))
		text += fmt.Sprintf("- Total justified: $%s\n", summary.TotalJustified.StringFixed(2))
		text += fmt.Sprintf("- Outstanding: $%s\n", summary.Outstanding.StringFixed(2))
	}

	return text
}

func cashTimestamp(record *models.CashRecord) string {
	if record.HasTimestamp() {
		return record.Timestamp.Format(time.RFC3339)
	}
	return record.TimestampRaw
}

func errorTimestamp(record *models.ErrorRecord) string {
	if record.HasTimestamp() {
		return record.Timestamp.Format(time.RFC3339)
	}
	return ""
}

func claimTimestamp(claim *models.IncidenceClaim) string {
	if claim.ClaimedDate != nil {
		return claim.ClaimedDate.Format(time.RFC3339)
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
