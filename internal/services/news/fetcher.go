package news

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"GoldGate/internal/domain/models"
	domsvc "GoldGate/internal/domain/service"
	"GoldGate/internal/service/ratelimit"
	"GoldGate/pkg/cache"
	"GoldGate/pkg/config"
	xhttp "GoldGate/pkg/http"
	"GoldGate/pkg/logger"
)

const (
	cacheKey        = "news:forex"
	limiterKey      = "finnhub:news"
	limiterCapacity = 10
	limiterRefill   = 0.5 // finnhub free tier tolerates ~30 calls/min
)

// usdKeywords filters the forex feed down to items that can move dollar
// pairs. Everything else is noise for this instrument.
var usdKeywords = []string{
	"fed", "fomc", "federal reserve", "powell", "cpi", "inflation",
	"nonfarm", "non-farm", "payrolls", "jobs report", "unemployment",
	"pce", "gdp", "treasury", "interest rate", "rate decision",
	"dollar", "usd", "gold", "xau",
}

var positiveWords = []string{
	"beats", "strong", "surges", "rallies", "gains", "optimism",
	"growth", "record", "upbeat", "soars",
}

var negativeWords = []string{
	"misses", "weak", "falls", "drops", "fears", "recession",
	"crisis", "selloff", "plunges", "cuts", "slowdown",
}

// Fetcher pulls market news from the Finnhub REST feed. Responses are cached
// so the decision loop never hammers the API; a token bucket guards the
// upstream calls that do go out.
type Fetcher struct {
	cfg     *config.Config
	log     *logger.Logger
	client  *xhttp.Client
	cache   cache.Service
	limiter *ratelimit.Limiter
	now     func() time.Time
}

func NewFetcher(cfg *config.Config, log *logger.Logger, c cache.Service, limiter *ratelimit.Limiter) *Fetcher {
	return &Fetcher{
		cfg:     cfg,
		log:     log.With(logger.String("component", "news_fetcher")),
		client:  xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		cache:   c,
		limiter: limiter,
		now:     time.Now,
	}
}

type finnhubNewsItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

type cachedFeed struct {
	FetchedAt time.Time         `json:"fetched_at"`
	Items     []models.NewsItem `json:"items"`
}

// Fetch returns the relevant news items, from cache when fresh. A rate-limit
// hit with a cold cache returns an empty slice rather than an error: no news
// is safer than stale news treated as live.
func (f *Fetcher) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	feed, cached := f.cachedFeed(ctx)
	if cached && f.now().Sub(feed.FetchedAt) < f.cfg.News.CacheTTL {
		return feed.Items, nil
	}

	if !f.limiter.Allow(limiterKey, limiterCapacity, limiterRefill) {
		if cached && f.feedExpired(feed) {
			_ = f.ClearCache(ctx)
			f.log.Warn("news cache expired while rate limited, treating as no news")
			return nil, nil
		}
		f.log.Warn("news fetch rate limited, serving stale cache")
		return feed.Items, nil
	}

	items, err := f.fetchRemote(ctx)
	if err != nil {
		if cached && f.feedExpired(feed) {
			_ = f.ClearCache(ctx)
			f.log.Error("news fetch failed and cache expired, treating as no news", logger.Error(err))
			return nil, nil
		}
		if len(feed.Items) > 0 {
			f.log.Error("news fetch failed, serving stale cache", logger.Error(err))
			return feed.Items, nil
		}
		return nil, err
	}

	f.storeFeed(ctx, cachedFeed{FetchedAt: f.now(), Items: items})
	return items, nil
}

// Feed entries go through the cache as JSON strings so memory and Redis
// backends behave identically.
func (f *Fetcher) cachedFeed(ctx context.Context) (cachedFeed, bool) {
	var raw string
	if err := f.cache.Get(ctx, cacheKey, &raw); err != nil {
		return cachedFeed{}, false
	}
	var feed cachedFeed
	if err := json.Unmarshal([]byte(raw), &feed); err != nil {
		return cachedFeed{}, false
	}
	return feed, true
}

func (f *Fetcher) storeFeed(ctx context.Context, feed cachedFeed) {
	data, err := json.Marshal(feed)
	if err != nil {
		f.log.Warn("news cache marshal failed", logger.Error(err))
		return
	}
	if err := f.cache.Set(ctx, cacheKey, string(data), f.cfg.News.CacheTTL); err != nil {
		f.log.Warn("news cache write failed", logger.Error(err))
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context) ([]models.NewsItem, error) {
	url := f.cfg.Finnhub.NewsURL
	if url == "" {
		url = "https://finnhub.io/api/v1/news"
	}

	var raw []finnhubNewsItem
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
		QueryParams: map[string][]string{
			"category": {"forex"},
			"token":    {f.cfg.Finnhub.APIKey},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch finnhub news: %w", err)
	}

	now := f.now()
	items := make([]models.NewsItem, 0, len(raw))
	for _, n := range raw {
		if !relevantToUSD(n.Headline, n.Summary) {
			continue
		}
		item := models.NewsItem{
			Headline:       n.Headline,
			Summary:        n.Summary,
			Source:         n.Source,
			FetchTimestamp: now,
		}
		if n.Datetime > 0 {
			item.OriginTimestamp = time.Unix(n.Datetime, 0).UTC()
			item.HasOrigin = true
		}
		items = append(items, item)
	}
	f.log.Info("news fetched",
		logger.Int("total", len(raw)),
		logger.Int("relevant", len(items)),
	)
	return items, nil
}

// feedExpired reports whether the cached feed is older than the hard ceiling
// beyond which stale news must not inform decisions.
func (f *Fetcher) feedExpired(feed cachedFeed) bool {
	maxAge := time.Duration(f.cfg.News.MaxNewsAgeMinutes) * time.Minute
	return maxAge > 0 && f.now().Sub(feed.FetchedAt) > maxAge
}

// FeedAge returns how long ago the cached feed was fetched.
func (f *Fetcher) FeedAge(ctx context.Context) (time.Duration, bool) {
	feed, cached := f.cachedFeed(ctx)
	if !cached {
		return 0, false
	}
	return f.now().Sub(feed.FetchedAt), true
}

// ClearCache drops the cached feed, forcing the next Fetch to hit the API.
func (f *Fetcher) ClearCache(ctx context.Context) error {
	return f.cache.Delete(ctx, cacheKey)
}

// Sentiment scores a headline set in [-1, 1] with a coarse label. It informs
// the audit trail only; blocking is driven by event classification.
func Sentiment(items []models.NewsItem) (float64, string) {
	if len(items) == 0 {
		return 0, "NEUTRAL"
	}
	score := 0
	for _, item := range items {
		text := strings.ToLower(item.Headline + " " + item.Summary)
		for _, w := range positiveWords {
			if strings.Contains(text, w) {
				score++
			}
		}
		for _, w := range negativeWords {
			if strings.Contains(text, w) {
				score--
			}
		}
	}
	n := float64(len(items) * 2)
	norm := float64(score) / n
	if norm > 1 {
		norm = 1
	}
	if norm < -1 {
		norm = -1
	}
	switch {
	case norm > 0.1:
		return norm, "POSITIVE"
	case norm < -0.1:
		return norm, "NEGATIVE"
	default:
		return norm, "NEUTRAL"
	}
}

func relevantToUSD(headline, summary string) bool {
	text := strings.ToLower(headline + " " + summary)
	for _, kw := range usdKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

var _ domsvc.NewsSource = (*Fetcher)(nil)
