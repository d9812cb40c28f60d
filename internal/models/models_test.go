package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRecordKind_IsCash(t *testing.T) {
	tests := []struct {
		kind RecordKind
		cash bool
	}{
		{KindCollect, true},
		{KindDeposit, true},
		{KindUnverified, true},
		{KindErrorLog, false},
		{KindUnclassified, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.IsCash(); got != tt.cash {
				t.Errorf("RecordKind.IsCash() = %v, want %v", got, tt.cash)
			}
		})
	}
}

func TestCashRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  CashRecord
		wantErr bool
	}{
		{
			name: "valid collect record",
			record: CashRecord{
				Kind:       KindCollect,
				SourceFile: "COLLECT_001.txt",
				Amount:     decimal.NewFromInt(1200),
			},
			wantErr: false,
		},
		{
			name: "zero amount is valid",
			record: CashRecord{
				Kind:       KindDeposit,
				SourceFile: "DEPOSIT_002.txt",
				Amount:     decimal.Zero,
			},
			wantErr: false,
		},
		{
			name: "non-cash kind",
			record: CashRecord{
				Kind:       KindErrorLog,
				SourceFile: "LOG_003.txt",
			},
			wantErr: true,
		},
		{
			name: "missing source file",
			record: CashRecord{
				Kind:   KindUnverified,
				Amount: decimal.NewFromInt(50),
			},
			wantErr: true,
		},
		{
			name: "negative amount",
			record: CashRecord{
				Kind:       KindCollect,
				SourceFile: "COLLECT_004.txt",
				Amount:     decimal.NewFromInt(-10),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("CashRecord.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCashRecord_HasTimestamp(t *testing.T) {
	record := CashRecord{Kind: KindDeposit, SourceFile: "a.txt"}
	if record.HasTimestamp() {
		t.Error("zero timestamp should report false")
	}

	record.Timestamp = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	if !record.HasTimestamp() {
		t.Error("set timestamp should report true")
	}
}

func TestErrorRecord_Validate(t *testing.T) {
	valid := ErrorRecord{
		SourceFile: "TERMINAL_LOG_001.txt",
		Events:     []ErrorEvent{{Code: "E10A01"}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid record, got %v", err)
	}

	noEvents := ErrorRecord{SourceFile: "TERMINAL_LOG_002.txt"}
	if err := noEvents.Validate(); err == nil {
		t.Error("expected error for record without events")
	}

	noFile := ErrorRecord{Events: []ErrorEvent{{Code: "E10A01"}}}
	if err := noFile.Validate(); err == nil {
		t.Error("expected error for record without source file")
	}
}

func TestValidationResult_VerdictText(t *testing.T) {
	result := ValidationResult{
		Findings: []string{"first finding", "second finding"},
	}

	expected := "first finding\nsecond finding"
	if got := result.VerdictText(); got != expected {
		t.Errorf("VerdictText() = %q, want %q", got, expected)
	}

	empty := ValidationResult{}
	if got := empty.VerdictText(); got != "" {
		t.Errorf("expected empty verdict, got %q", got)
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"1234.56", "1234.56", false},
		{"$1,234.56", "1234.56", false},
		{"  150.00  ", "150", false},
		{"$0.50", "0.5", false},
		{"", "", true},
		{"abc", "", true},
		{"$", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecimalFromString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalFromString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.expected {
				t.Errorf("ParseDecimalFromString(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseDeviceTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "dashed datetime",
			input: "2024-03-15 14:30:00",
			want:  time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "slashed datetime",
			input: "2024/03/15 14:30:00",
			want:  time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "day-first datetime",
			input: "15/03/2024 14:30:00",
			want:  time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			input: "2024-03-15",
			want:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "surrounding whitespace",
			input: "  2024-03-15 14:30:00  ",
			want:  time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "garbage returns zero time",
			input: "not a date",
			want:  time.Time{},
		},
		{
			name:  "empty returns zero time",
			input: "",
			want:  time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDeviceTime(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("ParseDeviceTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeText(t *testing.T) {
	utf8Input := []byte("Pérdida de comunicación")
	if got := DecodeText(utf8Input); got != "Pérdida de comunicación" {
		t.Errorf("valid UTF-8 should pass through, got %q", got)
	}

	// "Pérdida" in Latin-1: é is a lone 0xE9 byte, invalid UTF-8
	latin1Input := []byte{'P', 0xE9, 'r', 'd', 'i', 'd', 'a'}
	if got := DecodeText(latin1Input); got != "Pérdida" {
		t.Errorf("Latin-1 fallback failed, got %q", got)
	}

	if got := DecodeText(nil); got != "" {
		t.Errorf("nil input should decode to empty string, got %q", got)
	}
}

func TestAmountsWithinTolerance(t *testing.T) {
	tolerance := decimal.NewFromInt(2)

	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"exact match", "150.00", "150.00", true},
		{"just under tolerance", "150.00", "148.50", true},
		{"exactly at tolerance is out", "150.00", "148.00", false},
		{"beyond tolerance", "150.00", "147.00", false},
		{"order independent", "148.50", "150.00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := decimal.NewFromString(tt.a)
			b, _ := decimal.NewFromString(tt.b)
			if got := AmountsWithinTolerance(a, b, tolerance); got != tt.want {
				t.Errorf("AmountsWithinTolerance(%s, %s, 2) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTimesWithinWindow(t *testing.T) {
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		other  time.Time
		window time.Duration
		want   bool
	}{
		{"same instant", base, time.Hour, true},
		{"half window after", base.Add(30 * time.Minute), time.Hour, true},
		{"half window before", base.Add(-30 * time.Minute), time.Hour, true},
		{"exactly at window is out", base.Add(time.Hour), time.Hour, false},
		{"beyond window", base.Add(2 * time.Hour), time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimesWithinWindow(base, tt.other, tt.window); got != tt.want {
				t.Errorf("TimesWithinWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}
