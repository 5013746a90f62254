package analytics

import (
	"sales-analytics-service/internal/models"
)

// MonthlyMap maps month keys to values while remembering the order in which
// months were first seen. Reports iterate it in that order. A nil *MonthlyMap
// reads as empty.
type MonthlyMap[V any] struct {
	keys   []models.MonthKey
	values map[models.MonthKey]V
}

// NewMonthlyMap creates an empty MonthlyMap
func NewMonthlyMap[V any]() *MonthlyMap[V] {
	return &MonthlyMap[V]{
		keys:   make([]models.MonthKey, 0),
		values: make(map[models.MonthKey]V),
	}
}

// Set stores value under month, appending month to the key order on first use
func (m *MonthlyMap[V]) Set(month models.MonthKey, value V) {
	if _, exists := m.values[month]; !exists {
		m.keys = append(m.keys, month)
	}
	m.values[month] = value
}

// Get returns the value for month and whether it was present
func (m *MonthlyMap[V]) Get(month models.MonthKey) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	value, ok := m.values[month]
	return value, ok
}

// Has reports whether month is present
func (m *MonthlyMap[V]) Has(month models.MonthKey) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[month]
	return ok
}

// Keys returns the month keys in first-occurrence order
func (m *MonthlyMap[V]) Keys() []models.MonthKey {
	if m == nil {
		return []models.MonthKey{}
	}
	keys := make([]models.MonthKey, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Len returns the number of months
func (m *MonthlyMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Range calls fn for every month in first-occurrence order until fn returns false
func (m *MonthlyMap[V]) Range(fn func(month models.MonthKey, value V) bool) {
	if m == nil {
		return
	}
	for _, month := range m.keys {
		if !fn(month, m.values[month]) {
			return
		}
	}
}

// ToMap returns a plain map copy, losing key order
func (m *MonthlyMap[V]) ToMap() map[models.MonthKey]V {
	if m == nil {
		return map[models.MonthKey]V{}
	}
	out := make(map[models.MonthKey]V, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// itemTally accumulates a per-item value inside one month, keeping items in
// the order they were first seen so that ties resolve to the earliest item.
type itemTally[V any] struct {
	items  []string
	values map[string]V
}

func newItemTally[V any]() *itemTally[V] {
	return &itemTally[V]{
		items:  make([]string, 0),
		values: make(map[string]V),
	}
}

func (t *itemTally[V]) add(item string, value V, merge func(old, add V) V) {
	old, exists := t.values[item]
	if !exists {
		t.items = append(t.items, item)
		t.values[item] = value
		return
	}
	t.values[item] = merge(old, value)
}

// leader returns the first item whose value is strictly greater than every
// item seen before it. The first item seeds the comparison.
func (t *itemTally[V]) leader(greater func(a, b V) bool) string {
	if len(t.items) == 0 {
		return ""
	}

	best := t.items[0]
	bestValue := t.values[best]
	for _, item := range t.items[1:] {
		if value := t.values[item]; greater(value, bestValue) {
			best = item
			bestValue = value
		}
	}
	return best
}

// groupByMonth buckets records into per-month item tallies using extract
func groupByMonth[V any](
	records []*models.SalesRecord,
	extract func(r *models.SalesRecord) V,
	merge func(old, add V) V,
) *MonthlyMap[*itemTally[V]] {
	grouped := NewMonthlyMap[*itemTally[V]]()
	for _, record := range records {
		if record == nil {
			continue
		}
		month := record.Month()
		tally, ok := grouped.Get(month)
		if !ok {
			tally = newItemTally[V]()
			grouped.Set(month, tally)
		}
		tally.add(record.ItemCode, extract(record), merge)
	}
	return grouped
}
