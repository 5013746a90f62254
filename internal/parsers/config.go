package parsers

import (
	"fmt"
	"unicode/utf8"

	"sales-analytics-service/internal/models"
)

// MinFieldCount is the number of positional fields every sales line must have
const MinFieldCount = 5

// SalesParserConfig holds configuration for parsing sales files
type SalesParserConfig struct {
	HasHeader   bool     `json:"has_header" mapstructure:"has_header"`
	Delimiter   rune     `json:"delimiter" mapstructure:"delimiter"`
	DateFormats []string `json:"date_formats,omitempty" mapstructure:"date_formats"`
	MaxLineSize int      `json:"max_line_size" mapstructure:"max_line_size"`
}

// DefaultSalesParserConfig returns the layout of the standard sales file
func DefaultSalesParserConfig() *SalesParserConfig {
	formats := make([]string, len(models.DefaultDateFormats))
	copy(formats, models.DefaultDateFormats)

	return &SalesParserConfig{
		HasHeader:   true,
		Delimiter:   ',',
		DateFormats: formats,
		MaxLineSize: 1024 * 1024,
	}
}

// Validate checks if the sales parser configuration is valid
func (c *SalesParserConfig) Validate() error {
	if c.Delimiter == 0 || !utf8.ValidRune(c.Delimiter) {
		return fmt.Errorf("delimiter must be a valid character")
	}

	if c.Delimiter == '\r' || c.Delimiter == '\n' || c.Delimiter == '"' || c.Delimiter == utf8.RuneError {
		return fmt.Errorf("delimiter %q is not allowed", c.Delimiter)
	}

	if c.MaxLineSize < 0 {
		return fmt.Errorf("max line size cannot be negative, got %d", c.MaxLineSize)
	}

	for _, format := range c.DateFormats {
		if format == "" {
			return fmt.Errorf("date formats cannot contain an empty layout")
		}
	}

	return nil
}
