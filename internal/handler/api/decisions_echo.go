package api

import (
	"encoding/json"
	"time"

	models "GoldGate/internal/domain/models"
	domrepo "GoldGate/internal/domain/repository"
	icache "GoldGate/internal/service/cache"
	"GoldGate/internal/service/metrics"
	"GoldGate/internal/service/ratelimit"
	"GoldGate/internal/services/decision"
	"GoldGate/internal/usecase"
	xhttp "GoldGate/pkg/http"
	xlogger "GoldGate/pkg/logger"
	xutil "GoldGate/pkg/util"

	"github.com/labstack/echo/v4"
)

// StreamProbe reports market stream liveness for the health endpoint.
type StreamProbe interface {
	IsConnected() bool
}

// DecisionsEchoHandler exposes the decision core over HTTP.
type DecisionsEchoHandler struct {
	logger  *xlogger.Logger
	symbol  string
	runner  *usecase.DecisionRunner
	candles *usecase.CandlesUseCase
	blocker *decision.NewsEventBlocker
	sink    domrepo.AuditSink
	stream  StreamProbe
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
}

func NewDecisionsEchoHandler(
	logger *xlogger.Logger,
	symbol string,
	runner *usecase.DecisionRunner,
	candles *usecase.CandlesUseCase,
	blocker *decision.NewsEventBlocker,
	sink domrepo.AuditSink,
) *DecisionsEchoHandler {
	metrics.Register()
	return &DecisionsEchoHandler{
		logger:  logger,
		symbol:  symbol,
		runner:  runner,
		candles: candles,
		blocker: blocker,
		sink:    sink,
		rl:      ratelimit.New(),
	}
}

// SetCache injects a response cache for the candle endpoint.
func (h *DecisionsEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetStreamProbe injects the market stream liveness probe.
func (h *DecisionsEchoHandler) SetStreamProbe(p StreamProbe) { h.stream = p }

func (h *DecisionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/decisions", h.Decisions)
	g.GET("/candles", h.Candles)
	g.GET("/news/blocks", h.NewsBlocks)
	g.GET("/audit", h.Audit)
	e.GET("/healthz", h.Health)
}

// Decisions returns the latest cycle, or a single timeframe when tf is set.
func (h *DecisionsEchoHandler) Decisions(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("decisions").Observe(time.Since(start).Seconds()) }()

	req := &models.DecisionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":decisions", 10, 5) {
		metrics.APIRateLimited.WithLabelValues("decisions").Inc()
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", 429))
	}

	cycle, runAt := h.runner.Latest()
	if runAt.IsZero() {
		return xhttp.NotFoundResponse(c, "no cycle evaluated yet")
	}
	if req.TF != "" {
		d, ok := cycle[req.TF]
		if !ok {
			return xhttp.NotFoundResponse(c, "timeframe not evaluated")
		}
		return xhttp.SuccessResponse(c, newDecisionView(d))
	}

	views := make(map[string]*models.DecisionView, len(cycle))
	for tf, d := range cycle {
		views[tf] = newDecisionView(d)
	}
	return xhttp.SuccessResponse(c, &models.CycleView{
		Symbol:    h.symbol,
		RunAt:     runAt,
		Decisions: views,
	})
}

// Candles returns OHLCV bars for a symbol and timeframe.
func (h *DecisionsEchoHandler) Candles(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("candles").Observe(time.Since(start).Seconds()) }()

	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":candles", 5, 2) {
		metrics.APIRateLimited.WithLabelValues("candles").Inc()
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", 429))
	}

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)
	from, to = xutil.AlignFromTo(from, to, req.TF)

	cacheKey := "candles:" + req.Symbol + ":" + req.TF + ":" + from.Format(time.RFC3339) + ":" + to.Format(time.RFC3339)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("candles cache_get_error", xlogger.Error(err))
		} else if ok {
			return c.JSONBlob(200, b)
		}
	}

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: domrepo.Timeframe(req.TF),
		Limit:     req.Limit,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues("candles").Inc()
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(xhttp.APIResponse{Status: 200, Message: "OK", Data: res}); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, 15*time.Second); err != nil {
				h.logger.Warn("candles cache_set_error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}

// NewsBlocks returns the currently held high-impact cooldown windows.
func (h *DecisionsEchoHandler) NewsBlocks(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("news_blocks").Observe(time.Since(start).Seconds()) }()

	now := time.Now().UTC()
	blocks := h.blocker.Blocks()
	views := make([]models.NewsBlockView, 0, len(blocks))
	for _, b := range blocks {
		views = append(views, models.NewsBlockView{
			EventType:        b.EventType,
			Headline:         b.Headline,
			Source:           b.Source,
			ImpactLevel:      b.ImpactLevel,
			Classification:   string(b.Classification),
			OriginTimestamp:  b.OriginTimestamp,
			BlockUntil:       b.BlockUntil,
			MinutesRemaining: b.MinutesRemaining(now),
		})
	}
	return xhttp.ListResponse(c, views, int64(len(views)))
}

// Audit returns recent audit rows from the system of record.
func (h *DecisionsEchoHandler) Audit(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("audit").Observe(time.Since(start).Seconds()) }()

	if h.sink == nil {
		return xhttp.NotFoundResponse(c, "audit backend is not queryable")
	}
	req := &models.AuditQueryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":audit", 3, 1) {
		metrics.APIRateLimited.WithLabelValues("audit").Inc()
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", 429))
	}

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)

	recs, err := h.sink.Recent(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		metrics.APIErrors.WithLabelValues("audit").Inc()
		h.logger.Error("audit query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

// Health reports stream, sink, and cycle liveness.
func (h *DecisionsEchoHandler) Health(c echo.Context) error {
	_, runAt := h.runner.Latest()
	view := &models.HealthView{
		Status:       "ok",
		ActiveBlocks: h.blocker.ActiveBlockCount(),
		LastCycle:    runAt,
	}
	if h.stream != nil {
		view.StreamUp = h.stream.IsConnected()
	}
	if h.sink != nil {
		view.SinkUp = h.sink.Health(c.Request().Context()) == nil
	}
	if h.stream != nil && !view.StreamUp {
		view.Status = "degraded"
	}
	return xhttp.SuccessResponse(c, view)
}

// newDecisionView flattens a decision for API consumers.
func newDecisionView(d *models.Decision) *models.DecisionView {
	v := &models.DecisionView{
		Timestamp:       d.Timestamp,
		Symbol:          d.Symbol,
		Timeframe:       d.Timeframe,
		Direction:       string(d.Signal.Direction),
		RawConfidence:   d.Signal.RawConfidence,
		CalibConfidence: d.Signal.CalibConfidence,
		Drift:           d.Signal.Drift,
		DriftLevel:      string(d.DriftLevel),
		Regime:          string(d.Regime.Label),
		TrendDirection:  string(d.Regime.TrendDirection),
		ADX:             d.Regime.ADX,
		ATRRatio:        d.Regime.ATRRatio,
		HTFStatus:       string(d.HTF.Status),
		HTFParent:       d.HTF.Parent,
		NewsBlocked:     d.News.Blocked,
		NewsSentiment:   d.News.Sentiment,
		RiskMultiplier:  d.CombinedRiskMultiplier,
		Decision:        string(d.Outcome),
		Rejection:       d.Rejection,
		Price:           d.Signal.Price,
	}
	if d.Rejection != "" {
		v.RejectionDetail = decision.RejectionMessage(d.Rejection)
	}
	if d.Outcome == models.Trade {
		v.Entry = d.Setup.Entry
		v.Stop = d.Setup.Stop
		v.Target = d.Setup.Target
		v.Lots = d.Setup.Lots
		v.RiskPct = d.Setup.RiskPct
		v.RiskAmount = d.Setup.RiskAmount
		v.RewardRisk = d.Setup.RewardRisk
	}
	return v
}
