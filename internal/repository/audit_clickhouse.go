package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"GoldGate/internal/domain/models"
	domrepo "GoldGate/internal/domain/repository"
	pkgch "GoldGate/pkg/clickhouse"
)

const auditTable = "goldgate.audit_log"

var auditColumns = []string{
	"ts", "symbol", "timeframe", "direction",
	"raw_conf", "calib_conf", "calib_drift",
	"regime", "htf_status", "htf_parent",
	"decision", "reason",
	"entry", "sl", "tp", "lots", "risk_pct", "risk_amount", "rr_ratio",
	"close_price_at_pred",
	"news_sentiment", "news_high_impact", "news_event", "news_impact_level",
	"news_cooldown_minutes", "news_block_until", "news_classification",
	"cache_age_minutes",
}

// ClickHouseAuditSink is the append-only system of record for decisions.
type ClickHouseAuditSink struct {
	ch *pkgch.Client
	db *sql.DB
}

func NewClickHouseAuditSink(ch *pkgch.Client) domrepo.AuditSink {
	return &ClickHouseAuditSink{ch: ch, db: ch.DB()}
}

func (s *ClickHouseAuditSink) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, SchemaStatements())
}

func (s *ClickHouseAuditSink) Append(ctx context.Context, rec *models.AuditRecord) error {
	return s.AppendBatch(ctx, []*models.AuditRecord{rec})
}

func (s *ClickHouseAuditSink) AppendBatch(ctx context.Context, recs []*models.AuditRecord) error {
	if len(recs) == 0 {
		return nil
	}
	const chunkSize = 500
	for start := 0; start < len(recs); start += chunkSize {
		end := start + chunkSize
		if end > len(recs) {
			end = len(recs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*len(auditColumns))
		placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(auditColumns)), ", ") + ")"
		for _, r := range recs[start:end] {
			if r == nil {
				continue
			}
			values = append(values, placeholder)
			args = append(args, auditArgs(r)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			auditTable, strings.Join(auditColumns, ", "), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("append audit batch: %w", err)
		}
	}
	return nil
}

func auditArgs(r *models.AuditRecord) []interface{} {
	highImpact := uint8(0)
	if r.NewsHighImpact {
		highImpact = 1
	}
	return []interface{}{
		r.Timestamp, r.Symbol, r.Timeframe, r.Direction,
		r.RawConf, r.CalibConf, r.CalibDrift,
		r.Regime, r.HTFStatus, r.HTFParent,
		r.Decision, r.Reason,
		r.Entry, r.Stop, r.Target, r.Lots, r.RiskPct, r.RiskAmount, r.RewardRisk,
		r.PriceAtDecision,
		r.NewsSentiment, highImpact, r.NewsEvent, r.NewsImpactLevel,
		r.NewsCooldownMin, r.NewsBlockUntil, r.NewsClass,
		r.CacheAgeMinutes,
	}
}

func (s *ClickHouseAuditSink) Recent(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AuditRecord, error) {
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?
    `, strings.Join(auditColumns, ", "), auditTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var out []*models.AuditRecord
	for rows.Next() {
		var r models.AuditRecord
		var highImpact uint8
		if err := rows.Scan(
			&r.Timestamp, &r.Symbol, &r.Timeframe, &r.Direction,
			&r.RawConf, &r.CalibConf, &r.CalibDrift,
			&r.Regime, &r.HTFStatus, &r.HTFParent,
			&r.Decision, &r.Reason,
			&r.Entry, &r.Stop, &r.Target, &r.Lots, &r.RiskPct, &r.RiskAmount, &r.RewardRisk,
			&r.PriceAtDecision,
			&r.NewsSentiment, &highImpact, &r.NewsEvent, &r.NewsImpactLevel,
			&r.NewsCooldownMin, &r.NewsBlockUntil, &r.NewsClass,
			&r.CacheAgeMinutes,
		); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		r.NewsHighImpact = highImpact != 0
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *ClickHouseAuditSink) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseAuditSink) Close() error {
	return nil // connection owned by the client
}
