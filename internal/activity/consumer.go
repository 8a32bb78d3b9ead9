// Package activity aggregates user and post lifecycle events into daily
// counters per event type.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/models"
	"github.com/Marysah2/Backend-REST-API-Code-Challenge/pkg/store"
)

// RoutingKeys are the event types the consumer subscribes to.
var RoutingKeys = []string{"user.*", "post.*"}

// Consumer records activity metrics for lifecycle events.
type Consumer struct {
	store  *store.Store
	logger *slog.Logger
}

// NewConsumer creates a consumer writing into the store's database.
func NewConsumer(s *store.Store, logger *slog.Logger) *Consumer {
	return &Consumer{store: s, logger: logger}
}

// HandleMessage processes one delivery. Each event is counted at most once.
func (c *Consumer) HandleMessage(ctx context.Context, delivery amqp.Delivery) error {
	var event models.Event
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		c.logger.Error("failed to decode event", "correlation_id", delivery.CorrelationId, "error", err)
		return err
	}
	if event.EventID == "" {
		return fmt.Errorf("event without id")
	}
	if r := event.EventType.Resource(); r != "user" && r != "post" {
		return fmt.Errorf("unsupported event type %q", event.EventType)
	}

	log := c.logger.With("event_id", event.EventID, "type", event.EventType, "correlation_id", event.CorrelationID)

	recorded, err := c.Record(ctx, event)
	if err != nil {
		log.Error("failed to record activity", "error", err)
		return err
	}
	if !recorded {
		log.Info("duplicate event ignored")
		return nil
	}
	log.Info("activity recorded")
	return nil
}

// Record counts event on its day. It reports false when the event was seen before.
func (c *Consumer) Record(ctx context.Context, event models.Event) (bool, error) {
	d := c.store.Dialect()
	b := c.store.Builder()
	metricDate := event.Timestamp.UTC().Format("2006-01-02")

	tx, err := c.store.DB().BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	fresh, err := claim(ctx, tx, b, d, event.EventID)
	if err != nil || !fresh {
		return false, err
	}

	query, args, err := b.Insert("activity_metrics").
		Columns("metric_date", "event_type", "count").
		Values(metricDate, string(event.EventType), 1).
		Suffix(d.OnConflict([]string{"metric_date", "event_type"}, "count = activity_metrics.count + 1")).
		ToSql()
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("upsert metric: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// claim stores the idempotency key and reports whether it was new.
func claim(ctx context.Context, tx *sqlx.Tx, b sq.StatementBuilderType, d store.Dialect, eventID string) (bool, error) {
	query, args, err := b.Insert("idempotency_keys").
		Columns("event_id").
		Values(eventID).
		Suffix(d.OnConflict([]string{"event_id"}, "")).
		ToSql()
	if err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("store idempotency key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of events of type t recorded on day (YYYY-MM-DD).
func (c *Consumer) Count(ctx context.Context, day string, t models.EventType) (int, error) {
	query, args, err := c.store.Builder().Select("count").
		From("activity_metrics").
		Where(sq.Eq{"metric_date": day, "event_type": string(t)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := c.store.DB().GetContext(ctx, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}
