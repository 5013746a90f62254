package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMonthKeyOf(t *testing.T) {
	tests := []struct {
		date     time.Time
		expected MonthKey
	}{
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03"},
		{time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), "2024-12"},
		{time.Date(999, 1, 15, 0, 0, 0, 0, time.UTC), "0999-01"},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			if got := MonthKeyOf(tt.date); got != tt.expected {
				t.Errorf("MonthKeyOf() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewSalesRecord(t *testing.T) {
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	record := NewSalesRecord(date, "SKU1", decimal.RequireFromString("10.00"), 2, decimal.RequireFromString("20.00"))

	if record.ItemCode != "SKU1" {
		t.Errorf("Expected ItemCode 'SKU1', got %s", record.ItemCode)
	}
	if record.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", record.Quantity)
	}
	if record.Month() != "2024-01" {
		t.Errorf("Expected month 2024-01, got %s", record.Month())
	}
	if !record.TotalPrice.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected total 20, got %s", record.TotalPrice)
	}
}

func TestSalesRecord_TotalIsNotRecomputed(t *testing.T) {
	record, err := CreateSalesRecordFromFields("2024-01-05", "SKU1", "10.00", "2", "25.00", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !record.TotalPrice.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("expected total price to be taken as given, got %s", record.TotalPrice)
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input     string
		expected  string
		wantError bool
	}{
		{"10.00", "10", false},
		{" 5.5 ", "5.5", false},
		{"$12.34", "", true},
		{"-3.10", "-3.1", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecimalFromString(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseDecimalFromString() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("ParseDecimalFromString() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		input     string
		expected  int
		wantError bool
	}{
		{"2", 2, false},
		{" 15 ", 15, false},
		{"+4", 4, false},
		{"-1", -1, false},
		{"2.5", 0, true},
		{"two", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseQuantity(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseQuantity() error = %v, wantError %v", err, tt.wantError)
			}
			if got != tt.expected {
				t.Errorf("ParseQuantity() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestParseDateWithFormats(t *testing.T) {
	tests := []struct {
		input     string
		formats   []string
		expected  time.Time
		wantError bool
	}{
		{"2024-01-05", nil, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"01/05/2024", nil, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"1/5/2024", nil, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"2024-01-05 10:30:00", nil, time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), false},
		{"Jan 5, 2024", nil, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"05.01.2024", []string{"02.01.2006"}, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"2024-01-05", []string{"02.01.2006"}, time.Time{}, true},
		{"2024-13-45", nil, time.Time{}, true},
		{"", nil, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDateWithFormats(tt.input, tt.formats)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseDateWithFormats() error = %v, wantError %v", err, tt.wantError)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("ParseDateWithFormats() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCreateSalesRecordFromFields_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields [5]string
		field  FieldName
	}{
		{"bad date", [5]string{"not-a-date", "SKU1", "1", "1", "1"}, FieldDate},
		{"bad unit price", [5]string{"2024-01-05", "SKU1", "x", "1", "1"}, FieldUnitPrice},
		{"bad quantity", [5]string{"2024-01-05", "SKU1", "1", "1.5", "1"}, FieldQuantity},
		{"bad total", [5]string{"2024-01-05", "SKU1", "1", "1", ""}, FieldTotalPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.fields
			_, err := CreateSalesRecordFromFields(f[0], f[1], f[2], f[3], f[4], nil)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			var convErr *FieldConversionError
			if !errors.As(err, &convErr) {
				t.Fatalf("expected FieldConversionError, got %T", err)
			}
			if convErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, convErr.Field)
			}
		})
	}
}

func TestSalesRecord_MarshalJSON(t *testing.T) {
	record, err := CreateSalesRecordFromFields("2024-03-09", "SKU9", "1.50", "4", "6.00", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if decoded["date"] != "2024-03-09" {
		t.Errorf("expected date 2024-03-09, got %v", decoded["date"])
	}
	if decoded["totalPrice"] != "6" {
		t.Errorf("expected totalPrice 6, got %v", decoded["totalPrice"])
	}
	if decoded["quantity"] != float64(4) {
		t.Errorf("expected quantity 4, got %v", decoded["quantity"])
	}
}

func TestSalesRecord_Equals(t *testing.T) {
	a, _ := CreateSalesRecordFromFields("2024-01-05", "SKU1", "10.00", "2", "20.00", nil)
	b, _ := CreateSalesRecordFromFields("2024-01-05", "SKU1", "10", "2", "20", nil)
	c, _ := CreateSalesRecordFromFields("2024-01-05", "sku1", "10", "2", "20", nil)

	if !a.Equals(b) {
		t.Error("expected records with equal decimal values to be equal")
	}
	if a.Equals(c) {
		t.Error("item codes are case-sensitive")
	}
	if a.Equals(nil) {
		t.Error("expected Equals(nil) to be false")
	}
}
