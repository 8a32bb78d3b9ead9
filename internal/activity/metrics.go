package activity

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Metric is one aggregated row: how many events of a type happened on a day.
type Metric struct {
	Date      string `db:"metric_date" json:"date"`
	EventType string `db:"event_type" json:"event_type"`
	Count     int    `db:"count" json:"count"`
}

// Metrics returns recorded counters, newest day first. An empty day
// returns every day; limit <= 0 means no limit.
func (c *Consumer) Metrics(ctx context.Context, day string, limit int) ([]Metric, error) {
	b := c.store.Builder().Select("metric_date", "event_type", "count").
		From("activity_metrics").
		OrderBy("metric_date DESC", "event_type")
	if day != "" {
		b = b.Where(sq.Eq{"metric_date": day})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	out := []Metric{}
	if err := c.store.DB().SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	return out, nil
}

// Totals sums the counters per event type over all days.
func (c *Consumer) Totals(ctx context.Context) (map[string]int, error) {
	query, args, err := c.store.Builder().Select("event_type", "SUM(count) AS total").
		From("activity_metrics").
		GroupBy("event_type").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		EventType string `db:"event_type"`
		Total     int    `db:"total"`
	}
	if err := c.store.DB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sum metrics: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.EventType] = r.Total
	}
	return out, nil
}
