package usecase

import (
	"context"
	"fmt"
	"time"

	"GoldGate/internal/domain/models"
	domrepo "GoldGate/internal/domain/repository"
	"GoldGate/internal/repository"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

// CandlePersister stores closed candles durably. The memory store always
// receives candles; durable storage is optional.
type CandlePersister interface {
	StoreCandle(ctx context.Context, tf domrepo.Timeframe, c models.Candle) error
}

// TickAggregator folds the live tick stream into OHLCV candles for every
// configured timeframe. The forming candle is upserted on every tick so the
// decision loop always sees the latest bar.
type TickAggregator struct {
	store      *repository.MemoryCandleStore
	persister  CandlePersister
	metrics    domrepo.Metrics
	log        *logger.Logger
	timeframes []domrepo.Timeframe
	forming    map[string]*models.Candle // key: symbol|tf
}

func NewTickAggregator(
	cfg *config.Config,
	store *repository.MemoryCandleStore,
	persister CandlePersister,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *TickAggregator {
	tfs := make([]domrepo.Timeframe, 0, len(cfg.Decision.Timeframes))
	for _, tf := range cfg.Decision.Timeframes {
		tfs = append(tfs, domrepo.Timeframe(tf))
	}
	return &TickAggregator{
		store:      store,
		persister:  persister,
		metrics:    metrics,
		log:        log.With(logger.String("component", "aggregator")),
		timeframes: tfs,
		forming:    make(map[string]*models.Candle),
	}
}

// Process folds one tick into every timeframe's forming candle.
func (a *TickAggregator) Process(ctx context.Context, t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}
	at := time.Unix(t.Timestamp, 0).UTC()
	for _, tf := range a.timeframes {
		a.fold(ctx, tf, t, at)
	}
	a.metrics.RecordLastPrice(t.Symbol, t.Price)
	return nil
}

func (a *TickAggregator) fold(ctx context.Context, tf domrepo.Timeframe, t *models.Tick, at time.Time) {
	bucket := at.Truncate(time.Duration(tf.Minutes()) * time.Minute)
	key := t.Symbol + "|" + string(tf)

	cur := a.forming[key]
	if cur == nil || !cur.Bucket.Equal(bucket) {
		if cur != nil {
			// Previous bar closed.
			a.persist(ctx, tf, *cur)
		}
		cur = &models.Candle{
			Bucket: bucket,
			Symbol: t.Symbol,
			Open:   t.Price,
			High:   t.Price,
			Low:    t.Price,
			Close:  t.Price,
			Volume: t.Volume,
		}
		a.forming[key] = cur
	} else {
		if t.Price > cur.High {
			cur.High = t.Price
		}
		if t.Price < cur.Low {
			cur.Low = t.Price
		}
		cur.Close = t.Price
		cur.Volume += t.Volume
	}
	a.store.Upsert(t.Symbol, tf, *cur)
}

func (a *TickAggregator) persist(ctx context.Context, tf domrepo.Timeframe, c models.Candle) {
	if a.persister == nil {
		return
	}
	start := time.Now()
	if err := a.persister.StoreCandle(ctx, tf, c); err != nil {
		a.metrics.RecordError("candle_persist")
		a.log.Error("candle persist failed",
			logger.String("tf", string(tf)),
			logger.Error(err),
		)
		return
	}
	a.metrics.RecordLatency("candle_persist", time.Since(start).Seconds())
}
