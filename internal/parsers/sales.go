package parsers

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"sales-analytics-service/internal/models"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"
)

// LoadResult holds the outcome of loading a sales file.
// Records keep input order; Diagnostics describe every skipped line.
type LoadResult struct {
	Source       string
	Records      []*models.SalesRecord
	Diagnostics  []*errors.AppError
	MissingInput *errors.AppError
	Stats        *ParseStats
}

// Missing reports whether the input file did not exist
func (lr *LoadResult) Missing() bool {
	return lr.MissingInput != nil
}

// SalesParser converts sales lines into SalesRecord values
type SalesParser struct {
	*BaseParser
	config *SalesParserConfig
	logger logger.Logger
}

// NewSalesParser creates a new SalesParser with the given configuration
func NewSalesParser(config *SalesParserConfig) (*SalesParser, error) {
	if config == nil {
		config = DefaultSalesParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"sales_parser_config",
			config,
			err,
		).WithSuggestion("Check the delimiter and date format settings")
	}

	baseParser := NewBaseParser(&ParseConfig{
		HasHeader:     config.HasHeader,
		SkipEmptyRows: true,
		MaxLineSize:   config.MaxLineSize,
	})
	log := logger.WithComponent("sales_parser")

	log.WithFields(logger.Fields{
		"has_header":   config.HasHeader,
		"delimiter":    string(config.Delimiter),
		"date_formats": len(config.DateFormats),
	}).Debug("Created sales parser")

	return &SalesParser{
		BaseParser: baseParser,
		config:     config,
		logger:     log,
	}, nil
}

// ParseLine converts one delimited line into a SalesRecord.
// Fields are trimmed before conversion; fields past the fifth are ignored.
// A double-quoted field may contain the delimiter and stays one field.
func (sp *SalesParser) ParseLine(lineNumber int, line string) (*models.SalesRecord, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.Comma = sp.config.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	fields, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			err = fmt.Errorf("line is empty")
		}
		return nil, &ParseError{
			Line:    lineNumber,
			Raw:     line,
			Message: "malformed delimited line",
			Err:     err,
		}
	}

	if len(fields) < MinFieldCount {
		return nil, &ParseError{
			Line:    lineNumber,
			Raw:     line,
			Message: fmt.Sprintf("expected %d fields, got %d", MinFieldCount, len(fields)),
		}
	}

	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	record, err := models.CreateSalesRecordFromFields(
		fields[0], fields[1], fields[2], fields[3], fields[4], sp.config.DateFormats,
	)
	if err != nil {
		parseErr := &ParseError{
			Line:    lineNumber,
			Raw:     line,
			Message: "field conversion failed",
			Err:     err,
		}
		var convErr *models.FieldConversionError
		if stderrors.As(err, &convErr) {
			parseErr.Field = string(convErr.Field)
			parseErr.Value = convErr.Value
			parseErr.Err = errors.FieldError(fieldErrorCode(convErr), parseErr.Field, convErr.Value, convErr.Err)
		}
		return nil, parseErr
	}

	return record, nil
}

// fieldErrorCode picks the error code for a field that failed to convert
func fieldErrorCode(convErr *models.FieldConversionError) errors.ErrorCode {
	if strings.TrimSpace(convErr.Value) == "" {
		return errors.CodeMissingField
	}

	switch convErr.Field {
	case models.FieldDate:
		return errors.CodeInvalidDate
	case models.FieldQuantity:
		return errors.CodeInvalidQuantity
	case models.FieldUnitPrice, models.FieldTotalPrice:
		return errors.CodeInvalidAmount
	default:
		return errors.CodeMalformedRecord
	}
}

// LoadFile loads a sales file from disk.
// A missing file is logged and produces an empty result, not an error.
func (sp *SalesParser) LoadFile(ctx context.Context, filePath string) (*LoadResult, error) {
	sp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"operation": "load_sales",
	}).Info("Starting sales data load")

	file, err := sp.OpenFile(filePath)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.CodeFileNotFound {
			sp.logger.WithError(appErr.Cause).WithField("file_path", filePath).Warn("Sales data file not found")
			return &LoadResult{
				Source:       filePath,
				Records:      []*models.SalesRecord{},
				Diagnostics:  []*errors.AppError{},
				MissingInput: appErr,
				Stats:        NewParseStats(),
			}, nil
		}
		sp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open sales file")
		return nil, err
	}
	defer file.Close()

	result, err := sp.Load(ctx, file)
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}
	result.Source = filePath

	return result, nil
}

// maxDiagnosticRaw caps the raw text kept for an over-long line
const maxDiagnosticRaw = 200

// skipLine records a malformed line as a diagnostic and logs it
func (sp *SalesParser) skipLine(result *LoadResult, lineNumber int, raw string, err error) {
	var parseErr *ParseError
	if stderrors.As(err, &parseErr) {
		result.Stats.AddError(parseErr)
	}

	diagnostic := errors.MalformedRecordError(lineNumber, raw, err)
	result.Diagnostics = append(result.Diagnostics, diagnostic)

	sp.logger.WithFields(logger.Fields{
		"line_number": lineNumber,
		"line":        raw,
	}).WithError(err).Warn(diagnostic.Message)
}

// Load reads sales lines from r, collecting valid records and diagnostics separately
func (sp *SalesParser) Load(ctx context.Context, r io.Reader) (*LoadResult, error) {
	result := &LoadResult{
		Records:     []*models.SalesRecord{},
		Diagnostics: []*errors.AppError{},
		Stats:       NewParseStats(),
	}
	stats := result.Stats

	err := sp.ScanLines(ctx, r, stats, func(lineNumber int, line string, lineErr error) error {
		stats.RecordsParsed++

		if lineErr != nil {
			raw := truncate(line, maxDiagnosticRaw)
			sp.skipLine(result, lineNumber, raw, &ParseError{
				Line:    lineNumber,
				Raw:     raw,
				Message: fmt.Sprintf("line longer than %d bytes", sp.config.MaxLineSize),
				Err:     lineErr,
			})
			return nil
		}

		record, err := sp.ParseLine(lineNumber, line)
		if err != nil {
			sp.skipLine(result, lineNumber, line, err)
			return nil
		}

		result.Records = append(result.Records, record)
		stats.RecordsValid++
		return nil
	})
	if err != nil {
		return nil, err
	}

	sp.logger.WithFields(logger.Fields{
		"total_lines":   stats.TotalLines,
		"records_valid": stats.RecordsValid,
		"error_count":   stats.ErrorCount,
	}).Info("Sales data load completed")

	if stats.HasErrors() {
		sp.logger.WithField("sample_errors", stats.GetSampleErrors(3)).Debug("Encountered errors during load")
	}

	return result, nil
}
