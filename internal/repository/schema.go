package repository

import "fmt"

// SchemaStatements returns the DDL for the candle tables and the audit log.
// Statements are idempotent.
func SchemaStatements() []string {
	stmts := []string{
		`CREATE DATABASE IF NOT EXISTS goldgate`,
	}
	for _, tf := range []string{"15m", "30m", "1h", "4h", "1d"} {
		stmts = append(stmts, fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS goldgate.candles_%s (
                bucket  DateTime,
                symbol  LowCardinality(String),
                open    Float64,
                high    Float64,
                low     Float64,
                close   Float64,
                vol     Float64
            )
            ENGINE = ReplacingMergeTree()
            PARTITION BY toYYYYMM(bucket)
            ORDER BY (symbol, bucket)
        `, tf))
	}
	stmts = append(stmts, `
        CREATE TABLE IF NOT EXISTS goldgate.audit_log (
            ts                    DateTime,
            symbol                LowCardinality(String),
            timeframe             LowCardinality(String),
            direction             LowCardinality(String),
            raw_conf              Float64,
            calib_conf            Float64,
            calib_drift           Float64,
            regime                LowCardinality(String),
            htf_status            LowCardinality(String),
            htf_parent            LowCardinality(String),
            decision              LowCardinality(String),
            reason                String,
            entry                 Float64,
            sl                    Float64,
            tp                    Float64,
            lots                  Float64,
            risk_pct              Float64,
            risk_amount           Float64,
            rr_ratio              Float64,
            close_price_at_pred   Float64,
            news_sentiment        Float64,
            news_high_impact      UInt8,
            news_event            String,
            news_impact_level     LowCardinality(String),
            news_cooldown_minutes Int32,
            news_block_until      String,
            news_classification   LowCardinality(String),
            cache_age_minutes     Float64
        )
        ENGINE = MergeTree()
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, timeframe, ts)
    `)
	return stmts
}
