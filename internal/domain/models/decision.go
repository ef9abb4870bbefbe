package models

import "time"

// Direction of a predicted move.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// RegimeLabel is the coarse technical classification of market behavior.
type RegimeLabel string

const (
	RegimeStrongTrend RegimeLabel = "STRONG_TREND"
	RegimeWeakTrend   RegimeLabel = "WEAK_TREND"
	RegimeRange       RegimeLabel = "RANGE"
	RegimeHighVolNoTrade RegimeLabel = "HIGH_VOLATILITY_NO_TRADE"
	RegimeUnknown     RegimeLabel = "UNKNOWN"
)

// TrendDirection is the EMA-alignment context attached to a regime.
type TrendDirection string

const (
	TrendBullish TrendDirection = "BULLISH"
	TrendBearish TrendDirection = "BEARISH"
	TrendNeutral TrendDirection = "NEUTRAL"
)

// DriftLevel bands the calibration drift magnitude.
type DriftLevel string

const (
	DriftSafe     DriftLevel = "SAFE"
	DriftWarning  DriftLevel = "WARNING"
	DriftCritical DriftLevel = "CRITICAL"
)

// AlignmentStatus is the higher-timeframe agreement verdict.
type AlignmentStatus string

const (
	Aligned      AlignmentStatus = "ALIGNED"
	SoftConflict AlignmentStatus = "SOFT_CONFLICT"
	HardConflict AlignmentStatus = "HARD_CONFLICT"
)

// NewsClassification is the freshness verdict for a news item.
type NewsClassification string

const (
	NewsLiveEvent    NewsClassification = "LIVE_EVENT"
	NewsStaleContext NewsClassification = "STALE_CONTEXT"
	NewsExpired      NewsClassification = "EXPIRED"
	NewsUnverified   NewsClassification = "UNVERIFIED"
)

// DecisionOutcome is the final verdict for a timeframe.
type DecisionOutcome string

const (
	Trade   DecisionOutcome = "TRADE"
	NoTrade DecisionOutcome = "NO_TRADE"
)

// RegimeState is the per-cycle regime classification plus its numeric basis.
type RegimeState struct {
	Label          RegimeLabel
	ADX            float64
	ATRRatio       float64
	BBWPercentile  float64
	TrendDirection TrendDirection
	Squeeze        bool
	Reason         string
	Timeframe      string
}

// TimeframeSignal is the immutable per-cycle, per-timeframe model snapshot.
type TimeframeSignal struct {
	Timeframe       string
	Direction       Direction
	RawProbability  float64 // P(up), raw model output
	CalibProbability float64
	RawConfidence   float64 // confidence for the predicted direction
	CalibConfidence float64
	Drift           float64 // |calibrated - raw| confidence
	DriftWarning    bool    // set when the calibrator itself flagged the call
	Price           float64
	CandleTime      time.Time
}

// NewsBlock is one active high-impact cooldown window.
type NewsBlock struct {
	EventType       string
	Headline        string
	Source          string
	ImpactLevel     string
	Classification  NewsClassification
	OriginTimestamp time.Time
	FetchTimestamp  time.Time
	CooldownMinutes int
	BlockUntil      time.Time
}

// Active reports whether the cooldown window still covers now.
func (b NewsBlock) Active(now time.Time) bool {
	return now.Before(b.BlockUntil)
}

// MinutesRemaining returns whole minutes left in the cooldown, zero if lapsed.
func (b NewsBlock) MinutesRemaining(now time.Time) int {
	if !b.Active(now) {
		return 0
	}
	return int(b.BlockUntil.Sub(now).Minutes())
}

// NewsStatus is the blocker verdict for the current cycle.
type NewsStatus struct {
	Blocked        bool
	RiskMultiplier float64
	Block          *NewsBlock // nil when not blocked
	Sentiment      float64
	SentimentLabel string
	HighImpact     bool
	Classification NewsClassification
	CacheAgeMinutes float64
	CacheCleared   bool
}

// HTFStatus is the alignment verdict against parent timeframes.
type HTFStatus struct {
	Status         AlignmentStatus
	Parent         string
	ParentDirection Direction
	RiskMultiplier float64
	Reason         string
}

// TradeSetup is the risk-sizing output; immutable after construction.
type TradeSetup struct {
	Decision     DecisionOutcome
	Rejection    string // rejection code when NO_TRADE
	Entry        float64
	Stop         float64
	Target       float64
	StopDistance float64
	RewardRisk   float64
	RiskPct      float64
	RiskAmount   float64
	Lots         float64
	Balance      float64
}

// Decision is the final per-timeframe record written to the audit sink.
type Decision struct {
	Timestamp time.Time
	Symbol    string
	Timeframe string
	Signal    TimeframeSignal
	Regime    RegimeState
	HTF       HTFStatus
	News      NewsStatus
	Setup     TradeSetup
	Outcome   DecisionOutcome
	Rejection string // single authoritative rejection code when NO_TRADE
	DriftLevel DriftLevel
	CombinedRiskMultiplier float64
}

// AuditRecord is the flattened, schema-stable row appended to the audit sink.
// Field set and order follow the forward-test log contract; changing it
// breaks downstream analysis.
type AuditRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	Symbol           string    `json:"symbol"`
	Timeframe        string    `json:"timeframe"`
	Direction        string    `json:"direction"`
	RawConf          float64   `json:"raw_conf"`
	CalibConf        float64   `json:"calib_conf"`
	CalibDrift       float64   `json:"calib_drift"`
	Regime           string    `json:"regime"`
	HTFStatus        string    `json:"htf_status"`
	HTFParent        string    `json:"htf_parent"`
	Decision         string    `json:"decision"`
	Reason           string    `json:"reason"`
	Entry            float64   `json:"entry"`
	Stop             float64   `json:"sl"`
	Target           float64   `json:"tp"`
	Lots             float64   `json:"lots"`
	RiskPct          float64   `json:"risk_pct"`
	RiskAmount       float64   `json:"risk_amount"`
	RewardRisk       float64   `json:"rr_ratio"`
	PriceAtDecision  float64   `json:"close_price_at_pred"`
	NewsSentiment    float64   `json:"news_sentiment"`
	NewsHighImpact   bool      `json:"news_high_impact"`
	NewsEvent        string    `json:"news_event"`
	NewsImpactLevel  string    `json:"news_impact_level"`
	NewsCooldownMin  int       `json:"news_cooldown_minutes"`
	NewsBlockUntil   string    `json:"news_block_until"`
	NewsClass        string    `json:"news_classification"`
	CacheAgeMinutes  float64   `json:"cache_age_minutes"`
}
