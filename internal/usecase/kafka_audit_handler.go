package usecase

import (
	"context"
	"encoding/json"
	"time"

	"GoldGate/internal/domain/models"
	domrepo "GoldGate/internal/domain/repository"
	pkgkafka "GoldGate/pkg/kafka"
)

// KafkaAuditHandler consumes audit records from Kafka and lands them in the
// ClickHouse audit log.
type KafkaAuditHandler struct {
	topic   string
	sink    domrepo.AuditSink
	metrics domrepo.Metrics
}

func NewKafkaAuditHandler(topic string, sink domrepo.AuditSink, metrics domrepo.Metrics) *KafkaAuditHandler {
	return &KafkaAuditHandler{topic: topic, sink: sink, metrics: metrics}
}

func (h *KafkaAuditHandler) Topic() string { return h.topic }

func (h *KafkaAuditHandler) Handle(ctx context.Context, b []byte) error {
	var rec models.AuditRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	h.metrics.RecordLatency("audit_e2e", time.Since(rec.Timestamp).Seconds())

	start := time.Now()
	if err := h.sink.Append(ctx, &rec); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("audit_insert", time.Since(start).Seconds())
	h.metrics.RecordMessageSent("clickhouse", rec.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaAuditHandler)(nil)
