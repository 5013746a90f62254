package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MonthKeyLayout is the time layout used to derive a MonthKey
const MonthKeyLayout = "2006-01"

// MonthKey groups sales records by calendar month, formatted as "YYYY-MM"
type MonthKey string

// MonthKeyOf derives the MonthKey of a date
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format(MonthKeyLayout))
}

// String returns the string representation of MonthKey
func (m MonthKey) String() string {
	return string(m)
}

// SalesRecord represents one line of the sales transaction file.
// TotalPrice is taken as given and never recomputed from UnitPrice and Quantity.
type SalesRecord struct {
	Date       time.Time       `json:"date"`
	ItemCode   string          `json:"itemCode"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// NewSalesRecord creates a new SalesRecord instance
func NewSalesRecord(date time.Time, itemCode string, unitPrice decimal.Decimal, quantity int, totalPrice decimal.Decimal) *SalesRecord {
	return &SalesRecord{
		Date:       date,
		ItemCode:   itemCode,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
		TotalPrice: totalPrice,
	}
}

// Month returns the MonthKey the record belongs to
func (r *SalesRecord) Month() MonthKey {
	return MonthKeyOf(r.Date)
}

// String returns a string representation of the SalesRecord
func (r *SalesRecord) String() string {
	return fmt.Sprintf("SalesRecord{Date: %s, Item: %s, UnitPrice: %s, Quantity: %d, Total: %s}",
		r.Date.Format("2006-01-02"), r.ItemCode, r.UnitPrice.String(), r.Quantity, r.TotalPrice.String())
}

// MarshalJSON implements custom JSON marshaling for SalesRecord
func (r *SalesRecord) MarshalJSON() ([]byte, error) {
	type Alias SalesRecord
	return json.Marshal(&struct {
		Date       string `json:"date"`
		UnitPrice  string `json:"unitPrice"`
		TotalPrice string `json:"totalPrice"`
		*Alias
	}{
		Date:       r.Date.Format("2006-01-02"),
		UnitPrice:  r.UnitPrice.String(),
		TotalPrice: r.TotalPrice.String(),
		Alias:      (*Alias)(r),
	})
}

// Equals compares two SalesRecord instances for equality
func (r *SalesRecord) Equals(other *SalesRecord) bool {
	if other == nil {
		return false
	}

	return r.Date.Equal(other.Date) &&
		r.ItemCode == other.ItemCode &&
		r.UnitPrice.Equal(other.UnitPrice) &&
		r.Quantity == other.Quantity &&
		r.TotalPrice.Equal(other.TotalPrice)
}

// DefaultDateFormats lists the layouts tried, in order, when parsing the date field
var DefaultDateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDecimalFromString parses a fixed-point decimal value from string
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseQuantity parses a whole-number quantity, allowing a leading sign
func ParseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("quantity string cannot be empty")
	}

	q, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity '%s': %w", s, err)
	}

	return q, nil
}

// ParseDateWithFormats attempts to parse a date using each layout in turn.
// A nil or empty formats slice falls back to DefaultDateFormats.
func ParseDateWithFormats(s string, formats []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	if len(formats) == 0 {
		formats = DefaultDateFormats
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// FieldName identifies one of the positional fields of a sales line
type FieldName string

const (
	FieldDate       FieldName = "date"
	FieldItemCode   FieldName = "itemCode"
	FieldUnitPrice  FieldName = "unitPrice"
	FieldQuantity   FieldName = "quantity"
	FieldTotalPrice FieldName = "totalPrice"
)

// FieldOrder is the fixed positional order of fields in a sales line
var FieldOrder = []FieldName{FieldDate, FieldItemCode, FieldUnitPrice, FieldQuantity, FieldTotalPrice}

// FieldConversionError reports which field failed to convert
type FieldConversionError struct {
	Field FieldName
	Value string
	Err   error
}

func (e *FieldConversionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldConversionError) Unwrap() error {
	return e.Err
}

// CreateSalesRecordFromFields creates a SalesRecord from trimmed field values
func CreateSalesRecordFromFields(dateStr, itemCode, unitPriceStr, quantityStr, totalPriceStr string, dateFormats []string) (*SalesRecord, error) {
	date, err := ParseDateWithFormats(dateStr, dateFormats)
	if err != nil {
		return nil, &FieldConversionError{Field: FieldDate, Value: dateStr, Err: err}
	}

	unitPrice, err := ParseDecimalFromString(unitPriceStr)
	if err != nil {
		return nil, &FieldConversionError{Field: FieldUnitPrice, Value: unitPriceStr, Err: err}
	}

	quantity, err := ParseQuantity(quantityStr)
	if err != nil {
		return nil, &FieldConversionError{Field: FieldQuantity, Value: quantityStr, Err: err}
	}

	totalPrice, err := ParseDecimalFromString(totalPriceStr)
	if err != nil {
		return nil, &FieldConversionError{Field: FieldTotalPrice, Value: totalPriceStr, Err: err}
	}

	return NewSalesRecord(date, strings.TrimSpace(itemCode), unitPrice, quantity, totalPrice), nil
}
