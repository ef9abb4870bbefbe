package repository

import (
	"context"
	"time"

	"GoldGate/internal/domain/models"
)

// MarketStream is a live tick feed (WebSocket-backed in production).
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// AuditPublisher delivers audit records to a message broker.
type AuditPublisher interface {
	Publish(ctx context.Context, rec *models.AuditRecord) error
	PublishBatch(ctx context.Context, recs []*models.AuditRecord) error
	Close() error
}

// AuditSink is the append-only system of record for decisions.
type AuditSink interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, rec *models.AuditRecord) error
	AppendBatch(ctx context.Context, recs []*models.AuditRecord) error
	Recent(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AuditRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational counters for decisions and delivery.
type Metrics interface {
	RecordDecision(timeframe, decision string)
	RecordRejection(code string)
	RecordRiskMultiplier(timeframe string, m float64)
	RecordActiveBlocks(n int)
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}

// BalanceProvider returns the current account balance. Implementations may be
// backed by a broker API; a static config fallback is always available.
type BalanceProvider interface {
	Balance(ctx context.Context) (float64, error)
}
