// Package analytics reduces a sequence of sales records into the monthly
// sales report.
//
// All reductions are pure functions over an in-memory slice. Months appear in
// the order they are first seen in the input, and every per-month ranking
// breaks ties in favour of the item that appeared first. Order statistics are
// computed in two stages: popularity is derived first and then passed in
// explicitly.
//
// Example usage:
//
//	engine := analytics.NewEngine()
//	report, err := engine.Analyze(ctx, result.Records)
//	for _, month := range report.MonthlySales.Keys() {
//		total, _ := report.MonthlySales.Get(month)
//		fmt.Println(month, total)
//	}
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sales-analytics-service/internal/models"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"
)

// OrderStats summarises the quantities of one month's popular item
type OrderStats struct {
	Min     int     `json:"min" yaml:"min"`
	Max     int     `json:"max" yaml:"max"`
	Average float64 `json:"average" yaml:"average"`
	Count   int     `json:"count" yaml:"count"`
}

// Report is the full set of derived figures for one run
type Report struct {
	RunID           string
	GeneratedAt     time.Time
	RecordCount     int
	TotalSales      decimal.Decimal
	MonthlySales    *MonthlyMap[decimal.Decimal]
	PopularItems    *MonthlyMap[string]
	TopRevenueItems *MonthlyMap[string]
	OrderStats      *MonthlyMap[OrderStats]
}

// Months returns the report months in first-occurrence order
func (r *Report) Months() []models.MonthKey {
	return r.MonthlySales.Keys()
}

// TotalSales sums the total price of every record
func TotalSales(records []*models.SalesRecord) decimal.Decimal {
	total := decimal.Zero
	for _, record := range records {
		if record == nil {
			continue
		}
		total = total.Add(record.TotalPrice)
	}
	return total
}

// MonthlySales sums total price per month
func MonthlySales(records []*models.SalesRecord) *MonthlyMap[decimal.Decimal] {
	result := NewMonthlyMap[decimal.Decimal]()
	for _, record := range records {
		if record == nil {
			continue
		}
		month := record.Month()
		current, _ := result.Get(month)
		result.Set(month, current.Add(record.TotalPrice))
	}
	return result
}

// PopularItemByMonth picks, per month, the item with the most transactions.
// On equal counts the item seen first wins.
func PopularItemByMonth(records []*models.SalesRecord) *MonthlyMap[string] {
	counts := groupByMonth(records,
		func(*models.SalesRecord) int { return 1 },
		func(old, add int) int { return old + add },
	)

	result := NewMonthlyMap[string]()
	counts.Range(func(month models.MonthKey, tally *itemTally[int]) bool {
		result.Set(month, tally.leader(func(a, b int) bool { return a > b }))
		return true
	})
	return result
}

// TopRevenueItemByMonth picks, per month, the item with the largest summed
// total price. On equal revenue the item seen first wins.
func TopRevenueItemByMonth(records []*models.SalesRecord) *MonthlyMap[string] {
	revenue := groupByMonth(records,
		func(r *models.SalesRecord) decimal.Decimal { return r.TotalPrice },
		func(old, add decimal.Decimal) decimal.Decimal { return old.Add(add) },
	)

	result := NewMonthlyMap[string]()
	revenue.Range(func(month models.MonthKey, tally *itemTally[decimal.Decimal]) bool {
		result.Set(month, tally.leader(func(a, b decimal.Decimal) bool { return a.GreaterThan(b) }))
		return true
	})
	return result
}

// OrderStatsByMonth computes quantity statistics over the transactions of
// each month's popular item. Months without a matching transaction are omitted.
func OrderStatsByMonth(records []*models.SalesRecord, popular *MonthlyMap[string]) *MonthlyMap[OrderStats] {
	result := NewMonthlyMap[OrderStats]()
	if popular == nil {
		return result
	}

	buckets := NewMonthlyMap[[]int]()
	for _, record := range records {
		if record == nil {
			continue
		}
		month := record.Month()
		item, ok := popular.Get(month)
		if !ok || record.ItemCode != item {
			continue
		}
		quantities, _ := buckets.Get(month)
		buckets.Set(month, append(quantities, record.Quantity))
	}

	buckets.Range(func(month models.MonthKey, quantities []int) bool {
		if len(quantities) == 0 {
			return true
		}
		result.Set(month, summarize(quantities))
		return true
	})
	return result
}

// OrderStatsForPopularItems derives popularity and then the order statistics
func OrderStatsForPopularItems(records []*models.SalesRecord) *MonthlyMap[OrderStats] {
	return OrderStatsByMonth(records, PopularItemByMonth(records))
}

func summarize(quantities []int) OrderStats {
	stats := OrderStats{
		Min:   quantities[0],
		Max:   quantities[0],
		Count: len(quantities),
	}

	sum := 0.0
	for _, q := range quantities {
		if q < stats.Min {
			stats.Min = q
		}
		if q > stats.Max {
			stats.Max = q
		}
		sum += float64(q)
	}
	stats.Average = sum / float64(len(quantities))

	return stats
}

// Engine runs every reduction over one record set and assembles a Report
type Engine struct {
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

// NewEngine creates an Engine that logs through the global logger
func NewEngine() *Engine {
	return &Engine{
		logger: logger.WithComponent("analytics_engine"),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// WithLogger replaces the engine logger
func (e *Engine) WithLogger(log logger.Logger) *Engine {
	if log != nil {
		e.logger = log
	}
	return e
}

// Analyze computes the full report. The only error it returns is cancellation
// of ctx before the reductions start.
func (e *Engine) Analyze(ctx context.Context, records []*models.SalesRecord) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.InternalError(errors.CodeCancelled, "sales analysis", err)
	}

	runID := e.newID()
	opLogger := logger.NewOperationLogger("analyze_sales", e.logger).
		WithField("run_id", runID).
		WithField("record_count", len(records))

	var report *Report
	err := opLogger.Run(func() error {
		opLogger.Step("aggregate totals")
		total := TotalSales(records)
		monthly := MonthlySales(records)

		opLogger.Step("rank items")
		popular := PopularItemByMonth(records)
		topRevenue := TopRevenueItemByMonth(records)

		opLogger.Step("order statistics")
		stats := OrderStatsByMonth(records, popular)

		report = &Report{
			RunID:           runID,
			GeneratedAt:     e.now(),
			RecordCount:     len(records),
			TotalSales:      total,
			MonthlySales:    monthly,
			PopularItems:    popular,
			TopRevenueItems: topRevenue,
			OrderStats:      stats,
		}
		return nil
	}, "Sales analysis completed")
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logger.Fields{
		"run_id":      runID,
		"months":      report.MonthlySales.Len(),
		"total_sales": report.TotalSales.StringFixed(2),
	}).Debug("Report assembled")

	return report, nil
}
