// Package parsers turns the flat sales file into typed sales records.
//
// The file carries one header line followed by comma separated lines with the
// fields date, itemCode, unitPrice, quantity and totalPrice. Parsing is
// best-effort: a line that fails to convert is skipped with a diagnostic
// and the remaining lines are still loaded. A missing file yields an empty
// result rather than an error.
//
// Example usage:
//
//	parser, err := NewSalesParser(DefaultSalesParserConfig())
//	result, err := parser.LoadFile(ctx, "DataFile/SalesData.txt")
//	for _, diag := range result.Diagnostics {
//		fmt.Println(diag.Message)
//	}
package parsers

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"
)

const utf8BOM = "\ufeff"

// ParseError represents a line that could not be converted into a record
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Raw     string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		if e.Err != nil {
			return fmt.Sprintf("parse error at line %d (%s='%s'): %s: %v",
				e.Line, e.Field, e.Value, e.Message, e.Err)
		}
		return fmt.Sprintf("parse error at line %d (%s='%s'): %s",
			e.Line, e.Field, e.Value, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d: %s: %v", e.Line, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseConfig holds configuration for line reading
type ParseConfig struct {
	HasHeader     bool
	SkipEmptyRows bool
	MaxLineSize   int
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:     true,
		SkipEmptyRows: true,
		MaxLineSize:   1024 * 1024,
	}
}

// BaseParser provides line oriented reading shared by the sales loader
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser with the given configuration
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	log := logger.WithComponent("base_parser")
	log.WithFields(logger.Fields{
		"has_header":    config.HasHeader,
		"max_line_size": config.MaxLineSize,
	}).Debug("Created base parser")

	return &BaseParser{
		config: config,
		logger: log,
	}
}

// OpenFile opens the input file, mapping failures onto file errors
func (bp *BaseParser) OpenFile(filePath string) (*os.File, error) {
	bp.logger.WithField("file_path", filePath).Debug("Opening input file")

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.MissingInputError(filePath, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, errors.FileError(errors.CodeDirectoryError, filePath, err)
	}

	return file, nil
}

// ErrLineTooLong marks a line longer than ParseConfig.MaxLineSize
var ErrLineTooLong = stderrors.New("line exceeds maximum line size")

// LineHandler receives each data line with its 1-based line number.
// lineErr is ErrLineTooLong when the line was cut at MaxLineSize; line then
// holds only the leading MaxLineSize bytes.
type LineHandler func(lineNumber int, line string, lineErr error) error

// ScanLines reads the input line by line, skipping the header and blank lines.
// It stops early when ctx is cancelled, the handler returns an error or the
// reader fails. Over-long lines are handed to the handler, not returned.
func (bp *BaseParser) ScanLines(ctx context.Context, r io.Reader, stats *ParseStats, handle LineHandler) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader := bufio.NewReaderSize(r, 64*1024)

	lineNumber := 0
	for {
		if err := ctx.Err(); err != nil {
			return errors.InternalError(errors.CodeCancelled, "sales file loading", err)
		}

		line, tooLong, err := bp.readLine(reader)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			bp.logger.WithError(err).WithField("line_number", lineNumber+1).Error("Failed to read input")
			return err
		}

		lineNumber++
		stats.TotalLines++

		if lineNumber == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
			if bp.config.HasHeader {
				bp.logger.WithField("header", truncate(line, 120)).Debug("Skipping header line")
				stats.HeaderLines++
				continue
			}
		}

		var lineErr error
		if tooLong {
			stats.OversizedLines++
			lineErr = ErrLineTooLong
		} else if bp.config.SkipEmptyRows && strings.TrimSpace(line) == "" {
			stats.BlankLines++
			continue
		}

		if err := handle(lineNumber, line, lineErr); err != nil {
			return err
		}
	}
}

// readLine returns the next line without its terminator. Bytes past
// MaxLineSize are drained and dropped, and tooLong is set. io.EOF is only
// returned when no line remains.
func (bp *BaseParser) readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	started := false

	for {
		fragment, isPrefix, err := r.ReadLine()
		if err != nil {
			if err == io.EOF && started {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		started = true

		if !tooLong {
			buf = append(buf, fragment...)
			if limit := bp.config.MaxLineSize; limit > 0 && len(buf) > limit {
				buf = buf[:limit]
				tooLong = true
			}
		}

		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// truncate shortens s to at most n bytes for log output
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}

// ParseStats holds statistics about a loading operation
type ParseStats struct {
	TotalLines     int
	HeaderLines    int
	BlankLines     int
	OversizedLines int
	RecordsParsed  int
	RecordsValid   int
	ErrorCount     int
	Errors         []*ParseError
}

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{
		Errors: make([]*ParseError, 0),
	}
}

// AddError adds an error to the parsing statistics
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// HasErrors returns true if there were any parsing errors
func (ps *ParseStats) HasErrors() bool {
	return ps.ErrorCount > 0
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Read %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.ErrorCount)
}

// GetSampleErrors returns a sample of the parsing errors for logging
func (ps *ParseStats) GetSampleErrors(maxSamples int) []string {
	if len(ps.Errors) == 0 {
		return nil
	}

	limit := len(ps.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	samples := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		samples = append(samples, ps.Errors[i].Error())
	}

	return samples
}
