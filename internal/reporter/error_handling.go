package reporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sales-analytics-service/internal/analytics"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with fallbacks. Reports are
// rendered into memory first so a failed render never leaves partial output.
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator with error handling
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("Check the output format and CSV delimiter settings")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely renders report and writes it to writer.
// A render failure in a text format other than console falls back to the
// console format; a write failure on a named file falls back to a backup file next to it.
func (srg *SafeReportGenerator) GenerateReportSafely(report *analytics.Report, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	}).Info("Starting report generation")

	if err := srg.validateInputs(report, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed: input validation")
		return err
	}

	content, err := srg.renderWithFallback(report)
	if err != nil {
		srg.logger.WithError(err).Error("Report generation failed")
		return err
	}

	if err := srg.writeWithFallback(report, content, writer); err != nil {
		srg.logger.WithError(err).Error("Report output failed")
		return err
	}

	srg.logger.WithField("bytes", len(content)).Info("Report generation completed successfully")
	return nil
}

// validateInputs validates the inputs for report generation
func (srg *SafeReportGenerator) validateInputs(report *analytics.Report, writer io.Writer) error {
	if report == nil {
		return errors.New(errors.CategoryValidation, errors.CodeMissingField, "sales report is required").
			WithContext("field", "report").
			WithSuggestion("Run the analysis before generating a report")
	}

	if writer == nil {
		return errors.New(errors.CategoryValidation, errors.CodeMissingField, "output writer is required").
			WithContext("field", "writer").
			WithSuggestion("Provide a valid output writer")
	}

	return nil
}

// renderWithFallback renders the configured format, falling back to console
// for text formats
func (srg *SafeReportGenerator) renderWithFallback(report *analytics.Report) ([]byte, error) {
	var buf bytes.Buffer
	err := srg.GenerateReport(report, &buf)
	if err == nil {
		return buf.Bytes(), nil
	}

	srg.logger.WithError(err).Warn("Primary report generation failed, attempting fallback")
	primaryErr := errors.ReportError(errors.CodeRenderFailed, string(srg.config.Format), err)

	if !srg.shouldAttemptFormatFallback() {
		return nil, primaryErr
	}

	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole

	srg.logger.WithField("fallback_format", FormatConsole).Info("Attempting format fallback")

	fallbackGenerator, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return nil, primaryErr
	}

	buf.Reset()
	if err := fallbackGenerator.GenerateReport(report, &buf); err != nil {
		return nil, errors.InternalError(
			errors.CodeUnexpectedError,
			"report_fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", primaryErr, err),
		)
	}

	srg.logger.Info("Report generated successfully using format fallback")
	return buf.Bytes(), nil
}

// shouldAttemptFormatFallback reports whether console text may replace the
// configured format. Binary formats never fall back since the output file
// would carry the wrong content for its extension.
func (srg *SafeReportGenerator) shouldAttemptFormatFallback() bool {
	return srg.config.Format != FormatConsole && !srg.config.Format.IsBinary()
}

// writeWithFallback writes content to writer, retrying into a backup file
// when writer is a file that cannot be written
func (srg *SafeReportGenerator) writeWithFallback(report *analytics.Report, content []byte, writer io.Writer) error {
	_, err := writer.Write(content)
	if err == nil {
		return nil
	}

	writeErr := errors.ReportError(errors.CodeWriteFailed, string(srg.config.Format), err)

	file, ok := writer.(*os.File)
	if !ok || file.Name() == "" || !isFileError(err) {
		return writeErr
	}

	originalPath := file.Name()
	backupPath := generateBackupPath(originalPath)

	srg.logger.WithFields(logger.Fields{
		"original_file": originalPath,
		"backup_file":   backupPath,
		"run_id":        report.RunID,
	}).Info("Attempting output fallback")

	if err := os.WriteFile(backupPath, content, 0644); err != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report_output_fallback",
			fmt.Errorf("both primary and backup output failed: primary=%v, backup=%v", writeErr, err),
		)
	}

	srg.logger.WithField("backup_file", backupPath).
		Warnf("Could not write to %s, report saved to %s", originalPath, backupPath)
	return nil
}

// isFileError checks if the error is file-related
func isFileError(err error) bool {
	return os.IsPermission(err) ||
		os.IsNotExist(err) ||
		os.IsExist(err) ||
		isSpaceError(err)
}

// generateBackupPath creates a backup file path
func generateBackupPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}

func isSpaceError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}
