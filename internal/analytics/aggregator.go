// Package analytics derives summary statistics and analytical views from
// the classified record collections.
//
// Every function is pure and recomputed on demand from its inputs; nothing
// is cached, so views are always consistent with the batch result they
// were derived from.
package analytics

import (
	"math"
	"sort"
	"time"

	"terminal-log-reconciler/internal/engine"
	"terminal-log-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultTopN is the number of entries returned by the top-errors view
const DefaultTopN = 10

// ErrorFrequency is one row of the top-errors view
type ErrorFrequency struct {
	Code        string `json:"code"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// TopErrors groups error events by code and returns the n most frequent,
// sorted by count descending. Ties break in first-encountered order, which
// keeps the view deterministic for a fixed input order. Each physical
// occurrence counts once. The description comes from the event's
// enrichment snapshot; unresolved codes surface their placeholder text.
func TopErrors(records []*models.ErrorRecord, n int) []ErrorFrequency {
	if n <= 0 {
		n = DefaultTopN
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	descriptions := make(map[string]string)
	order := 0

	for _, record := range records {
		for _, event := range record.Events {
			if _, seen := counts[event.Code]; !seen {
				firstSeen[event.Code] = order
				descriptions[event.Code] = event.Description
				order++
			}
			counts[event.Code]++
		}
	}

	frequencies := make([]ErrorFrequency, 0, len(counts))
	for code, count := range counts {
		description := descriptions[code]
		if description == "" {
			description = "no description"
		}
		frequencies = append(frequencies, ErrorFrequency{
			Code:        code,
			Count:       count,
			Description: description,
		})
	}

	sort.Slice(frequencies, func(i, j int) bool {
		if frequencies[i].Count != frequencies[j].Count {
			return frequencies[i].Count > frequencies[j].Count
		}
		return firstSeen[frequencies[i].Code] < firstSeen[frequencies[j].Code]
	})

	if len(frequencies) > n {
		frequencies = frequencies[:n]
	}
	return frequencies
}

// TrendPoint is one calendar-date bucket of the error trend
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// ErrorTrend groups error records by the calendar date of their timestamp
// and counts records per date, ascending by date. Records without a usable
// timestamp are excluded rather than crashing the view.
func ErrorTrend(records []*models.ErrorRecord) []TrendPoint {
	buckets := make(map[time.Time]int)

	for _, record := range records {
		if !record.HasTimestamp() {
			continue
		}
		day := record.Timestamp.UTC().Truncate(24 * time.Hour)
		buckets[day]++
	}

	points := make([]TrendPoint, 0, len(buckets))
	for day, count := range buckets {
		points = append(points, TrendPoint{Date: day, Count: count})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points
}

// CategoryCount is one row of the category breakdown
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CategoryBreakdown groups error events by category and counts
// occurrences, sorted by count descending with first-encountered order as
// the tie-break
func CategoryBreakdown(records []*models.ErrorRecord) []CategoryCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, record := range records {
		for _, event := range record.Events {
			category := event.Category
			if category == "" {
				category = matrixGeneralCategory
			}
			if _, seen := counts[category]; !seen {
				firstSeen[category] = order
				order++
			}
			counts[category]++
		}
	}

	breakdown := make([]CategoryCount, 0, len(counts))
	for category, count := range counts {
		breakdown = append(breakdown, CategoryCount{Category: category, Count: count})
	}

	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Count != breakdown[j].Count {
			return breakdown[i].Count > breakdown[j].Count
		}
		return firstSeen[breakdown[i].Category] < firstSeen[breakdown[j].Category]
	})

	return breakdown
}

// matrixGeneralCategory labels events whose snapshot has no category
const matrixGeneralCategory = "General"

// CashTotals holds the per-collection monetary sums
type CashTotals struct {
	Collected  decimal.Decimal `json:"collected"`
	Deposited  decimal.Decimal `json:"deposited"`
	Unverified decimal.Decimal `json:"unverified"`
}

// Totals sums the amounts independently within each cash collection
func Totals(result *engine.BatchResult) CashTotals {
	return CashTotals{
		Collected:  sumAmounts(result.Collect),
		Deposited:  sumAmounts(result.Deposit),
		Unverified: sumAmounts(result.Unverified),
	}
}

func sumAmounts(records []*models.CashRecord) decimal.Decimal {
	total := decimal.Zero
	for _, record := range records {
		total = total.Add(record.Amount)
	}
	return total
}

// SuccessRate returns deposit.count / (deposit.count + unverified.count)
// as a percentage rounded to one decimal place. Zero when both collections
// are empty; always within [0, 100].
func SuccessRate(result *engine.BatchResult) float64 {
	deposits := len(result.Deposit)
	total := deposits + len(result.Unverified)
	if total == 0 {
		return 0
	}

	return math.Round(float64(deposits)/float64(total)*1000) / 10
}

// ClaimsSummary totals the recorded incidence claims
type ClaimsSummary struct {
	Count          int             `json:"count"`
	TotalClaimed   decimal.Decimal `json:"totalClaimed"`
	TotalJustified decimal.Decimal `json:"totalJustified"`
	Outstanding    decimal.Decimal `json:"outstanding"`
}

// SummarizeClaims computes the claimed/justified totals and the
// outstanding difference across the claim list
func SummarizeClaims(claims []*models.IncidenceClaim) ClaimsSummary {
	summary := ClaimsSummary{
		Count:          len(claims),
		TotalClaimed:   decimal.Zero,
		TotalJustified: decimal.Zero,
	}

	for _, claim := range claims {
		summary.TotalClaimed = summary.TotalClaimed.Add(claim.ClaimedAmount)
		if claim.IsJustified {
			summary.TotalJustified = summary.TotalJustified.Add(claim.ClaimedAmount)
		}
	}

	summary.Outstanding = summary.TotalClaimed.Sub(summary.TotalJustified)
	return summary
}
