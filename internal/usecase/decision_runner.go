package usecase

import (
	"context"
	"sync"
	"time"

	"GoldGate/internal/domain/models"
	domrepo "GoldGate/internal/domain/repository"
	domsvc "GoldGate/internal/domain/service"
	"GoldGate/internal/services/decision"
	"GoldGate/internal/services/news"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

// DecisionRunner drives one full evaluation pass per interval: refresh news,
// then walk the timeframe hierarchy from slowest to fastest so every child
// sees its parents' finished decisions, and finally ship the audit records.
type DecisionRunner struct {
	cfg     *config.Config
	log     *logger.Logger
	store   domrepo.FeatureStore
	pred    domsvc.Predictor
	calib   domsvc.Calibrator
	source  domsvc.NewsSource
	blocker *decision.NewsEventBlocker
	arbiter *decision.DecisionArbiter
	router  *AuditRouter
	balance domrepo.BalanceProvider
	metrics domrepo.Metrics
	now     func() time.Time

	mu        sync.RWMutex
	lastCycle map[string]*models.Decision
	lastRun   time.Time
}

func NewDecisionRunner(
	cfg *config.Config,
	log *logger.Logger,
	store domrepo.FeatureStore,
	pred domsvc.Predictor,
	calib domsvc.Calibrator,
	source domsvc.NewsSource,
	blocker *decision.NewsEventBlocker,
	arbiter *decision.DecisionArbiter,
	router *AuditRouter,
	balance domrepo.BalanceProvider,
	metrics domrepo.Metrics,
) *DecisionRunner {
	return &DecisionRunner{
		cfg:       cfg,
		log:       log.With(logger.String("component", "runner")),
		store:     store,
		pred:      pred,
		calib:     calib,
		source:    source,
		blocker:   blocker,
		arbiter:   arbiter,
		router:    router,
		balance:   balance,
		metrics:   metrics,
		now:       time.Now,
		lastCycle: make(map[string]*models.Decision),
	}
}

// Run evaluates cycles at the configured interval until the context ends.
func (r *DecisionRunner) Run(ctx context.Context) {
	interval := r.cfg.Decision.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunCycle(ctx)
		}
	}
}

// RunCycle performs one full pass over the hierarchy.
func (r *DecisionRunner) RunCycle(ctx context.Context) {
	start := r.now()
	symbol := r.cfg.Symbol

	sentiment, sentimentLabel, cacheAge := r.refreshNews(ctx)

	balance := r.resolveBalance(ctx)
	cycle := make(map[string]*models.Decision, len(r.cfg.Decision.Timeframes))
	ordered := make([]*models.Decision, 0, len(r.cfg.Decision.Timeframes))

	for _, tf := range domrepo.Hierarchy {
		if !r.configured(string(tf)) {
			continue
		}
		d := r.evaluate(ctx, symbol, string(tf), cycle, balance)
		if d == nil {
			continue
		}
		d.News.Sentiment = sentiment
		d.News.SentimentLabel = sentimentLabel
		d.News.CacheAgeMinutes = cacheAge
		cycle[string(tf)] = d
		ordered = append(ordered, d)

		r.metrics.RecordDecision(string(tf), string(d.Outcome))
		if d.Outcome == models.NoTrade && d.Rejection != "" {
			r.metrics.RecordRejection(d.Rejection)
		}
		r.metrics.RecordRiskMultiplier(string(tf), d.CombinedRiskMultiplier)
	}

	r.metrics.RecordActiveBlocks(r.blocker.ActiveBlockCount())

	recs := make([]*models.AuditRecord, 0, len(ordered))
	for _, d := range ordered {
		recs = append(recs, ToAuditRecord(d))
	}
	if err := r.router.RecordBatch(ctx, recs); err != nil {
		r.log.Error("audit delivery failed", logger.Error(err))
	}

	r.mu.Lock()
	r.lastCycle = cycle
	r.lastRun = start
	r.mu.Unlock()

	r.metrics.RecordLatency("cycle", time.Since(start).Seconds())
	r.log.Info("cycle complete",
		logger.Int("decisions", len(ordered)),
		logger.Duration("took", time.Since(start)),
	)
}

func (r *DecisionRunner) evaluate(ctx context.Context, symbol, tf string, cycle map[string]*models.Decision, balance float64) *models.Decision {
	candles, err := r.store.GetLatestNCandles(ctx, symbol, r.cfg.Decision.Lookback, domrepo.Timeframe(tf))
	if err != nil {
		r.metrics.RecordError("candle_fetch")
		r.log.Error("candle fetch failed", logger.String("tf", tf), logger.Error(err))
		return nil
	}
	now := r.now()

	if len(candles) < r.cfg.Decision.MinBars {
		return r.failSafe(now, symbol, tf, decision.CodeInsufficientData, candles)
	}
	last := candles[len(candles)-1]

	rawProb, err := r.pred.PredictUp(ctx, symbol, tf, candles)
	if err != nil {
		// The model being down must never stall the cycle or leak a stale
		// signal; the timeframe fails safe and the audit trail records it.
		r.metrics.RecordError("predict")
		r.log.Error("prediction failed", logger.String("tf", tf), logger.Error(err))
		return r.failSafe(now, symbol, tf, decision.CodeModelUnavailable, candles)
	}

	calibProb, warn, err := r.calib.Calibrate(ctx, tf, rawProb)
	if err != nil {
		// A dead calibrator must not kill the cycle; the raw value passes
		// through and the drift gate sees the warning flag.
		r.metrics.RecordError("calibrate")
		calibProb, warn = rawProb, true
	}

	sig := buildSignal(tf, rawProb, calibProb, warn, last)
	return r.arbiter.Decide(now, symbol, sig, candles, cycle, balance)
}

// failSafe synthesizes a NO_TRADE decision without consulting the model.
func (r *DecisionRunner) failSafe(now time.Time, symbol, tf, code string, candles []models.Candle) *models.Decision {
	d := &models.Decision{
		Timestamp: now,
		Symbol:    symbol,
		Timeframe: tf,
		Outcome:   models.NoTrade,
		Rejection: code,
	}
	d.Signal.Timeframe = tf
	if len(candles) > 0 {
		d.Signal.Price = candles[len(candles)-1].Close
	}
	d.Regime.Label = models.RegimeUnknown
	d.Regime.Timeframe = tf
	d.Setup = models.TradeSetup{Decision: models.NoTrade, Rejection: code}
	return d
}

// buildSignal derives direction and per-direction confidence from the model's
// P(up). A DOWN prediction's confidence is the complement.
func buildSignal(tf string, rawProb, calibProb float64, warn bool, last models.Candle) models.TimeframeSignal {
	dir := models.DirectionUp
	rawConf, calibConf := rawProb, calibProb
	if rawProb <= 0.5 {
		dir = models.DirectionDown
		rawConf = 1 - rawProb
		calibConf = 1 - calibProb
	}
	drift := calibConf - rawConf
	if drift < 0 {
		drift = -drift
	}
	return models.TimeframeSignal{
		Timeframe:        tf,
		Direction:        dir,
		RawProbability:   rawProb,
		CalibProbability: calibProb,
		RawConfidence:    rawConf,
		CalibConfidence:  calibConf,
		Drift:            drift,
		DriftWarning:     warn,
		Price:            last.Close,
		CandleTime:       last.Bucket,
	}
}

func (r *DecisionRunner) refreshNews(ctx context.Context) (float64, string, float64) {
	if !r.cfg.News.Enabled || r.source == nil {
		return 0, "NEUTRAL", 0
	}
	items, err := r.source.Fetch(ctx)
	if err != nil {
		r.metrics.RecordError("news_fetch")
		r.log.Error("news fetch failed", logger.Error(err))
		return 0, "NEUTRAL", 0
	}
	if opened := r.blocker.Ingest(items); opened > 0 {
		r.log.Warn("news blocks opened", logger.Int("count", opened))
	}
	var cacheAge float64
	if ager, ok := r.source.(interface {
		FeedAge(context.Context) (time.Duration, bool)
	}); ok {
		if age, cached := ager.FeedAge(ctx); cached {
			cacheAge = age.Minutes()
		}
	}
	sentiment, label := news.Sentiment(items)
	return sentiment, label, cacheAge
}

func (r *DecisionRunner) resolveBalance(ctx context.Context) float64 {
	if r.balance == nil {
		return r.cfg.Risk.AccountBalance
	}
	b, err := r.balance.Balance(ctx)
	if err != nil || b <= 0 {
		return r.cfg.Risk.AccountBalance
	}
	return b
}

func (r *DecisionRunner) configured(tf string) bool {
	for _, t := range r.cfg.Decision.Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}

// Latest returns the most recent cycle's decisions keyed by timeframe.
func (r *DecisionRunner) Latest() (map[string]*models.Decision, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*models.Decision, len(r.lastCycle))
	for k, v := range r.lastCycle {
		out[k] = v
	}
	return out, r.lastRun
}

// ToAuditRecord flattens a decision into the schema-stable audit row.
func ToAuditRecord(d *models.Decision) *models.AuditRecord {
	rec := &models.AuditRecord{
		Timestamp:       d.Timestamp,
		Symbol:          d.Symbol,
		Timeframe:       d.Timeframe,
		Direction:       string(d.Signal.Direction),
		RawConf:         d.Signal.RawConfidence,
		CalibConf:       d.Signal.CalibConfidence,
		CalibDrift:      d.Signal.Drift,
		Regime:          string(d.Regime.Label),
		HTFStatus:       string(d.HTF.Status),
		HTFParent:       d.HTF.Parent,
		Decision:        string(d.Outcome),
		Reason:          d.Rejection,
		Entry:           d.Setup.Entry,
		Stop:            d.Setup.Stop,
		Target:          d.Setup.Target,
		Lots:            d.Setup.Lots,
		RiskPct:         d.Setup.RiskPct,
		RiskAmount:      d.Setup.RiskAmount,
		RewardRisk:      d.Setup.RewardRisk,
		PriceAtDecision: d.Signal.Price,
		NewsSentiment:   d.News.Sentiment,
		NewsHighImpact:  d.News.HighImpact,
		NewsClass:       string(d.News.Classification),
		CacheAgeMinutes: d.News.CacheAgeMinutes,
	}
	if b := d.News.Block; b != nil {
		rec.NewsEvent = b.EventType
		rec.NewsImpactLevel = b.ImpactLevel
		rec.NewsCooldownMin = b.CooldownMinutes
		rec.NewsBlockUntil = b.BlockUntil.UTC().Format(time.RFC3339)
	}
	return rec
}
