package usecase

import (
	"context"
	"fmt"
	"time"

	"GoldGate/internal/domain/models"
	drepo "GoldGate/internal/domain/repository"
)

// AuditRouter routes finished audit records to the configured backend:
// straight into ClickHouse, or through Kafka for the consumer to land.
type AuditRouter struct {
	pub     drepo.AuditPublisher
	sink    drepo.AuditSink
	metrics drepo.Metrics
	backend string
}

func NewAuditRouter(pub drepo.AuditPublisher, sink drepo.AuditSink, metrics drepo.Metrics, backend string) *AuditRouter {
	return &AuditRouter{pub: pub, sink: sink, metrics: metrics, backend: backend}
}

// Record delivers a single audit record.
func (r *AuditRouter) Record(ctx context.Context, rec *models.AuditRecord) error {
	if rec == nil {
		return fmt.Errorf("audit record is nil")
	}
	start := time.Now()
	var err error
	switch r.backend {
	case "kafka":
		err = r.pub.Publish(ctx, rec)
	case "clickhouse":
		err = r.sink.Append(ctx, rec)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}
	if err != nil {
		r.metrics.RecordError("audit_deliver")
		return fmt.Errorf("deliver audit record: %w", err)
	}
	r.metrics.RecordMessageSent(r.backend, rec.Symbol)
	r.metrics.RecordLatency("audit_deliver", time.Since(start).Seconds())
	return nil
}

// RecordBatch delivers one cycle's records together.
func (r *AuditRouter) RecordBatch(ctx context.Context, recs []*models.AuditRecord) error {
	if len(recs) == 0 {
		return nil
	}
	start := time.Now()
	var err error
	switch r.backend {
	case "kafka":
		err = r.pub.PublishBatch(ctx, recs)
	case "clickhouse":
		err = r.sink.AppendBatch(ctx, recs)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}
	if err != nil {
		r.metrics.RecordError("audit_deliver_batch")
		return fmt.Errorf("deliver audit batch: %w", err)
	}
	for _, rec := range recs {
		r.metrics.RecordMessageSent(r.backend, rec.Symbol)
	}
	r.metrics.RecordLatency("audit_deliver_batch", time.Since(start).Seconds())
	return nil
}

// Close closes the underlying resources if present.
func (r *AuditRouter) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
	if r.sink != nil {
		_ = r.sink.Close()
	}
}
