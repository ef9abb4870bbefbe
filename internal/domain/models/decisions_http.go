package models

import "time"

// Requests for decision HTTP endpoints. Defined in domain for consistency and reuse.

type DecisionsRequest struct {
	TF string `query:"tf" json:"tf" validate:"omitempty,oneof=15m 30m 1h 4h 1d"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=15m 30m 1h 4h 1d"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type AuditQueryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=1000"`
}

// DecisionView is the JSON shape of one per-timeframe decision.
type DecisionView struct {
	Timestamp       time.Time `json:"timestamp"`
	Symbol          string    `json:"symbol"`
	Timeframe       string    `json:"timeframe"`
	Direction       string    `json:"direction"`
	RawConfidence   float64   `json:"raw_confidence"`
	CalibConfidence float64   `json:"calib_confidence"`
	Drift           float64   `json:"drift"`
	DriftLevel      string    `json:"drift_level"`
	Regime          string    `json:"regime"`
	TrendDirection  string    `json:"trend_direction"`
	ADX             float64   `json:"adx"`
	ATRRatio        float64   `json:"atr_ratio"`
	HTFStatus       string    `json:"htf_status"`
	HTFParent       string    `json:"htf_parent,omitempty"`
	NewsBlocked     bool      `json:"news_blocked"`
	NewsSentiment   float64   `json:"news_sentiment"`
	RiskMultiplier  float64   `json:"risk_multiplier"`
	Decision        string    `json:"decision"`
	Rejection       string    `json:"rejection,omitempty"`
	RejectionDetail string    `json:"rejection_detail,omitempty"`
	Entry           float64   `json:"entry,omitempty"`
	Stop            float64   `json:"sl,omitempty"`
	Target          float64   `json:"tp,omitempty"`
	Lots            float64   `json:"lots,omitempty"`
	RiskPct         float64   `json:"risk_pct,omitempty"`
	RiskAmount      float64   `json:"risk_amount,omitempty"`
	RewardRisk      float64   `json:"rr_ratio,omitempty"`
	Price           float64   `json:"price"`
}

// NewsBlockView is the JSON shape of an active cooldown window.
type NewsBlockView struct {
	EventType        string    `json:"event_type"`
	Headline         string    `json:"headline"`
	Source           string    `json:"source,omitempty"`
	ImpactLevel      string    `json:"impact_level"`
	Classification   string    `json:"classification"`
	OriginTimestamp  time.Time `json:"origin_timestamp"`
	BlockUntil       time.Time `json:"block_until"`
	MinutesRemaining int       `json:"minutes_remaining"`
}

// CycleView is the JSON shape of one evaluation cycle.
type CycleView struct {
	Symbol    string                   `json:"symbol"`
	RunAt     time.Time                `json:"run_at"`
	Decisions map[string]*DecisionView `json:"decisions"`
}

// HealthView reports component liveness for /healthz.
type HealthView struct {
	Status       string    `json:"status"`
	StreamUp     bool      `json:"stream_up"`
	SinkUp       bool      `json:"sink_up"`
	LastCycle    time.Time `json:"last_cycle,omitempty"`
	ActiveBlocks int       `json:"active_blocks"`
}
