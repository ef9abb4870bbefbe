package decision

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"GoldGate/internal/domain/models"
	"GoldGate/internal/services/features"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

const (
	dedupWindow      = time.Hour
	signatureMaxLen  = 100
	hardExpiryFactor = 2
)

type eventMatcher struct {
	name     string
	cooldown time.Duration
	keywords []string
	patterns []*regexp.Regexp
}

// NewsEventBlocker maintains the set of active high-impact cooldown windows.
// It is the single writer of its own state; ingestion and evaluation take the
// same lock.
type NewsEventBlocker struct {
	mu       sync.Mutex
	cfg      *config.Config
	log      *logger.Logger
	now      func() time.Time
	events   []eventMatcher
	comments []*regexp.Regexp
	blocks   []models.NewsBlock
	seen     map[string]time.Time // dedup signature -> origin time
}

// BlockerOption configures a NewsEventBlocker.
type BlockerOption func(*NewsEventBlocker)

// WithClock overrides the time source. Tests use it; production keeps
// time.Now.
func WithClock(now func() time.Time) BlockerOption {
	return func(b *NewsEventBlocker) { b.now = now }
}

func NewNewsEventBlocker(cfg *config.Config, log *logger.Logger, opts ...BlockerOption) *NewsEventBlocker {
	b := &NewsEventBlocker{
		cfg:  cfg,
		log:  log.With(logger.String("component", "news_blocker")),
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
	for name, ev := range cfg.News.Events {
		m := eventMatcher{
			name:     name,
			cooldown: time.Duration(ev.CooldownMinutes) * time.Minute,
		}
		for _, kw := range ev.Keywords {
			m.keywords = append(m.keywords, strings.ToLower(kw))
		}
		for _, p := range ev.Patterns {
			if re, err := regexp.Compile("(?i)" + p); err == nil {
				m.patterns = append(m.patterns, re)
			} else {
				log.Warn("invalid news pattern", logger.String("event", name), logger.String("pattern", p), logger.Error(err))
			}
		}
		b.events = append(b.events, m)
	}
	for _, p := range cfg.News.CommentaryPatterns {
		if re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(p)); err == nil {
			b.comments = append(b.comments, re)
		}
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Classify bands a news item's freshness. Items without a parseable origin
// timestamp can never justify a block.
func (b *NewsEventBlocker) Classify(item models.NewsItem) models.NewsClassification {
	now := b.now()
	if !item.HasOrigin {
		return models.NewsUnverified
	}
	fetchAge := now.Sub(item.FetchTimestamp)
	if fetchAge > time.Duration(b.cfg.News.MaxNewsAgeMinutes)*time.Minute {
		return models.NewsExpired
	}
	originAge := now.Sub(item.OriginTimestamp)
	if originAge > time.Duration(b.cfg.News.RelevanceWindowMinutes)*time.Minute {
		return models.NewsStaleContext
	}
	return models.NewsLiveEvent
}

// Ingest scans fetched news for live high-impact events and opens cooldown
// windows. Re-ingesting the same headlines is idempotent. Returns the number
// of new blocks opened.
func (b *NewsEventBlocker) Ingest(items []models.NewsItem) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	opened := 0
	for _, item := range items {
		if b.Classify(item) != models.NewsLiveEvent {
			continue
		}
		originAge := now.Sub(item.OriginTimestamp)
		if originAge > time.Duration(b.cfg.News.HighImpactBlockMinutes)*time.Minute {
			continue
		}
		if b.isCommentary(item.Headline) {
			continue
		}
		ev, ok := b.matchEvent(item.Headline, item.Summary)
		if !ok {
			continue
		}

		sig := dedupSignature(ev.name, item.Headline)
		if prev, dup := b.seen[sig]; dup && item.OriginTimestamp.Sub(prev).Abs() < dedupWindow {
			continue
		}
		b.seen[sig] = item.OriginTimestamp

		block := models.NewsBlock{
			EventType:       ev.name,
			Headline:        item.Headline,
			Source:          item.Source,
			ImpactLevel:     "HIGH",
			Classification:  models.NewsLiveEvent,
			OriginTimestamp: item.OriginTimestamp,
			FetchTimestamp:  item.FetchTimestamp,
			CooldownMinutes: int(ev.cooldown / time.Minute),
			BlockUntil:      item.OriginTimestamp.Add(ev.cooldown),
		}
		b.blocks = append(b.blocks, block)
		opened++
		b.log.Warn("high impact news block opened",
			logger.String("event", ev.name),
			logger.String("headline", item.Headline),
			logger.Time("block_until", block.BlockUntil),
		)
	}
	return opened
}

// Evaluate returns the blocker verdict for the current cycle. A lapsed
// cooldown does not release the block until volatility has settled: ATR
// ratio at or under the resume threshold and a regime other than the
// volatility-spike one.
func (b *NewsEventBlocker) Evaluate(snap features.Snapshot, regime models.RegimeState) models.NewsStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	calm := snap.ATRRatio <= b.cfg.News.ResumeMaxATRRatio && regime.Label != models.RegimeHighVolNoTrade

	kept := b.blocks[:0]
	for _, blk := range b.blocks {
		originAge := now.Sub(blk.OriginTimestamp)
		hardExpired := originAge > hardExpiryFactor*time.Duration(b.cfg.News.RelevanceWindowMinutes)*time.Minute
		if hardExpired || (!blk.Active(now) && calm) {
			b.log.Info("news block released",
				logger.String("event", blk.EventType),
				logger.Bool("hard_expired", hardExpired),
			)
			continue
		}
		kept = append(kept, blk)
	}
	b.blocks = kept

	status := models.NewsStatus{RiskMultiplier: 1.0, Classification: models.NewsUnverified}
	for i := range b.blocks {
		blk := &b.blocks[i]
		status.Blocked = true
		status.RiskMultiplier = 0
		status.Block = blk
		status.HighImpact = true
		status.Classification = blk.Classification
		if blk.Active(now) {
			break
		}
		// Lapsed but volatility has not settled; keep scanning in case an
		// active window exists to report instead.
	}
	return status
}

// ActiveBlockCount reports how many cooldown windows are currently held.
func (b *NewsEventBlocker) ActiveBlockCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blocks)
}

// Blocks returns a snapshot of the currently held cooldown windows.
func (b *NewsEventBlocker) Blocks() []models.NewsBlock {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.NewsBlock, len(b.blocks))
	copy(out, b.blocks)
	return out
}

func (b *NewsEventBlocker) matchEvent(headline, summary string) (eventMatcher, bool) {
	text := strings.ToLower(headline + " " + summary)
	for _, ev := range b.events {
		for _, re := range ev.patterns {
			if re.MatchString(headline) || re.MatchString(summary) {
				return ev, true
			}
		}
		for _, kw := range ev.keywords {
			if strings.Contains(text, kw) {
				return ev, true
			}
		}
	}
	return eventMatcher{}, false
}

// isCommentary filters analyst chatter that mentions an event without being
// the event: "Fed signals potential cut" is commentary, "Fed cuts rates" is
// not.
func (b *NewsEventBlocker) isCommentary(headline string) bool {
	for _, re := range b.comments {
		if re.MatchString(headline) {
			return true
		}
	}
	return false
}

func dedupSignature(event, headline string) string {
	h := strings.ToLower(strings.Join(strings.Fields(headline), " "))
	if len(h) > signatureMaxLen {
		h = h[:signatureMaxLen]
	}
	return event + ":" + h
}
