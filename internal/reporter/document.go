package reporter

import (
	"fmt"
	"time"

	"sales-analytics-service/internal/analytics"
)

// ReportMetadata identifies the run that produced a report
type ReportMetadata struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	RecordCount int       `json:"record_count" yaml:"record_count"`
}

// OrderStatsSummary is the serialized form of analytics.OrderStats
type OrderStatsSummary struct {
	Min     int    `json:"min" yaml:"min"`
	Max     int    `json:"max" yaml:"max"`
	Average string `json:"average" yaml:"average"`
	Count   int    `json:"count" yaml:"count"`
}

// MonthSummary is one month of the report
type MonthSummary struct {
	Month          string             `json:"month" yaml:"month"`
	SalesTotal     string             `json:"sales_total" yaml:"sales_total"`
	PopularItem    string             `json:"popular_item" yaml:"popular_item"`
	TopRevenueItem string             `json:"top_revenue_item" yaml:"top_revenue_item"`
	OrderStats     *OrderStatsSummary `json:"order_stats,omitempty" yaml:"order_stats,omitempty"`
}

// ReportDocument is the structured form shared by the json, yaml and
// spreadsheet outputs. Monetary values are fixed two-decimal strings.
type ReportDocument struct {
	Metadata   *ReportMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	TotalSales string          `json:"total_sales" yaml:"total_sales"`
	Months     []MonthSummary  `json:"months" yaml:"months"`
}

// BuildDocument flattens report into a ReportDocument, months in report order
func BuildDocument(report *analytics.Report, includeMetadata bool) *ReportDocument {
	doc := &ReportDocument{
		TotalSales: FormatAmount(report.TotalSales),
		Months:     make([]MonthSummary, 0, report.MonthlySales.Len()),
	}

	if includeMetadata {
		doc.Metadata = &ReportMetadata{
			RunID:       report.RunID,
			GeneratedAt: report.GeneratedAt,
			RecordCount: report.RecordCount,
		}
	}

	for _, month := range report.Months() {
		total, _ := report.MonthlySales.Get(month)
		summary := MonthSummary{
			Month:      month.String(),
			SalesTotal: FormatAmount(total),
		}
		if report.PopularItems != nil {
			summary.PopularItem, _ = report.PopularItems.Get(month)
		}
		if report.TopRevenueItems != nil {
			summary.TopRevenueItem, _ = report.TopRevenueItems.Get(month)
		}
		if report.OrderStats != nil {
			if stats, ok := report.OrderStats.Get(month); ok {
				summary.OrderStats = &OrderStatsSummary{
					Min:     stats.Min,
					Max:     stats.Max,
					Average: formatAverage(stats.Average),
					Count:   stats.Count,
				}
			}
		}
		doc.Months = append(doc.Months, summary)
	}

	return doc
}

func formatAverage(avg float64) string {
	return fmt.Sprintf("%.2f", avg)
}
