package validator

import (
	"strings"
	"testing"
	"time"

	"terminal-log-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func cashRecord(kind models.RecordKind, file, amt string, ts time.Time) *models.CashRecord {
	return &models.CashRecord{
		Kind:       kind,
		SourceFile: file,
		Amount:     amount(amt),
		Timestamp:  ts,
	}
}

func testCollections() Collections {
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	return Collections{
		Unverified: []*models.CashRecord{
			cashRecord(models.KindUnverified, "UNVERIFIED_001.txt", "149.50", base),
		},
		Collect: []*models.CashRecord{
			cashRecord(models.KindCollect, "COLLECT_001.txt", "1200.00", base.Add(-2*time.Hour)),
		},
		Deposit: []*models.CashRecord{
			cashRecord(models.KindDeposit, "DEPOSIT_001.txt", "500.00", base.Add(10*time.Minute)),
		},
		Errors: []*models.ErrorRecord{
			{
				SourceFile: "TERMINAL_LOG_001.txt",
				Timestamp:  base.Add(45 * time.Minute),
				Events:     []models.ErrorEvent{{Code: "E10A01", Description: "Atasco de billetes"}},
			},
		},
	}
}

func TestValidate_UnverifiedAmountMatch(t *testing.T) {
	v := New(nil)

	// 150.00 vs 149.50 is within the default tolerance of 2
	result := v.Validate(ClaimInput{ClaimedAmount: amount("150.00")}, testCollections())

	if !result.IsJustified {
		t.Fatal("expected claim to be justified by unverified deposit")
	}
	if result.ShortConclusion != "Matches unverified deposit" {
		t.Errorf("unexpected conclusion %q", result.ShortConclusion)
	}
	if !strings.Contains(result.VerdictText(), "UNVERIFIED_001.txt") {
		t.Errorf("verdict should name the matching file, got %q", result.VerdictText())
	}
}

func TestValidate_AmountOutsideTolerance(t *testing.T) {
	v := New(nil)

	// 152.00 vs 149.50 differs by 2.50, beyond the tolerance of 2
	result := v.Validate(ClaimInput{ClaimedAmount: amount("152.00")}, testCollections())

	if result.IsJustified {
		t.Error("expected claim outside tolerance not to be justified")
	}
	if result.ShortConclusion != "Not found by amount" {
		t.Errorf("unexpected conclusion %q", result.ShortConclusion)
	}
}

func TestValidate_ErrorNearDate(t *testing.T) {
	v := New(nil)
	date := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	// No amount match, but an error sits 45 minutes after the claimed time
	result := v.Validate(ClaimInput{
		ClaimedAmount: amount("999.00"),
		ClaimedDate:   &date,
	}, testCollections())

	if !result.IsJustified {
		t.Fatal("expected technical failure justification")
	}
	if result.ShortConclusion != "Technical failure (E10A01)" {
		t.Errorf("conclusion should name the error code, got %q", result.ShortConclusion)
	}
}

func TestValidate_ErrorOutsideWindow(t *testing.T) {
	v := New(nil)
	// 2 hours before the only error record, outside the 1 hour window,
	// and more than 30 minutes from the only deposit
	date := time.Date(2024, 3, 15, 10, 45, 0, 0, time.UTC)

	result := v.Validate(ClaimInput{ClaimedDate: &date}, testCollections())

	if result.IsJustified {
		t.Error("expected no justification outside the error window")
	}
	if result.ShortConclusion != "No evidence in logs" {
		t.Errorf("unexpected conclusion %q", result.ShortConclusion)
	}
}

func TestValidate_DepositActivityFallback(t *testing.T) {
	v := New(nil)
	logs := testCollections()
	logs.Errors = nil

	date := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	result := v.Validate(ClaimInput{
		ClaimedAmount: amount("999.00"),
		ClaimedDate:   &date,
	}, logs)

	if result.IsJustified {
		t.Error("deposit activity alone must not justify a claim")
	}
	if result.ShortConclusion != "Activity without amount match" {
		t.Errorf("unexpected conclusion %q", result.ShortConclusion)
	}
}

func TestValidate_CollectAmountPath(t *testing.T) {
	v := New(nil)

	// 1200.50 vs 1200.00 is within the collect tolerance of 1
	result := v.Validate(ClaimInput{CollectAmount: amount("1200.50")}, testCollections())

	if !result.IsJustified {
		t.Fatal("expected collection amount to justify")
	}
	if result.ShortConclusion != "Matches collection" {
		t.Errorf("unexpected conclusion %q", result.ShortConclusion)
	}

	// 1201.00 differs by exactly 1: tolerance is exclusive
	miss := v.Validate(ClaimInput{CollectAmount: amount("1201.00")}, testCollections())
	if miss.IsJustified {
		t.Error("difference equal to the tolerance must not match")
	}
}

func TestValidate_CollectAmountOnlySearchesCollectLogs(t *testing.T) {
	v := New(nil)

	// A collect-only claim with no matching collection falls through to
	// the default verdict instead of being rejected as an empty claim.
	result := v.Validate(ClaimInput{CollectAmount: amount("9999.00")}, testCollections())

	if result.IsJustified {
		t.Error("unmatched collection amount must not justify")
	}
	if result.ShortConclusion != "Pending" {
		t.Errorf("unexpected conclusion %q", result.ShortConclusion)
	}
	for _, finding := range result.Findings {
		if strings.Contains(finding, "nothing to search for") {
			t.Errorf("collect-only claim must not be treated as empty, got %q", finding)
		}
	}
}

func TestValidate_CollectDoesNotOverrideConclusion(t *testing.T) {
	v := New(nil)

	result := v.Validate(ClaimInput{
		ClaimedAmount: amount("150.00"),
		CollectAmount: amount("1200.00"),
	}, testCollections())

	if !result.IsJustified {
		t.Fatal("expected justification")
	}
	// Primary conclusion stands; the collection match only adds a finding
	if result.ShortConclusion != "Matches unverified deposit" {
		t.Errorf("unexpected conclusion %q", result.ShortConclusion)
	}
	if !strings.Contains(result.VerdictText(), "COLLECTION CONFIRMED") {
		t.Errorf("expected collection finding in verdict, got %q", result.VerdictText())
	}
}

func TestValidate_EmptyClaim(t *testing.T) {
	v := New(nil)

	result := v.Validate(ClaimInput{}, testCollections())

	if result.IsJustified {
		t.Error("empty claim must not be justified")
	}
	if result.ShortConclusion != "Pending" {
		t.Errorf("unexpected conclusion %q", result.ShortConclusion)
	}
}

func TestValidate_RecordsWithoutTimestampIgnored(t *testing.T) {
	v := New(nil)
	date := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	logs := Collections{
		Errors: []*models.ErrorRecord{
			{
				SourceFile: "TERMINAL_LOG_999.txt",
				Events:     []models.ErrorEvent{{Code: "E20301"}},
			},
		},
	}

	result := v.Validate(ClaimInput{ClaimedDate: &date}, logs)

	if result.IsJustified {
		t.Error("error records without timestamps must not match date windows")
	}
}

func TestValidate_CustomTolerances(t *testing.T) {
	config := DefaultConfig()
	config.UnverifiedTolerance = decimal.NewFromInt(10)
	v := New(config)

	// 158.00 vs 149.50 differs by 8.50, inside the widened tolerance
	result := v.Validate(ClaimInput{ClaimedAmount: amount("158.00")}, testCollections())

	if !result.IsJustified {
		t.Error("expected widened tolerance to match")
	}
}
