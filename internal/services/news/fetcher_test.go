package news

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"GoldGate/internal/domain/models"
	"GoldGate/internal/service/ratelimit"
	"GoldGate/pkg/cache"
	"GoldGate/pkg/config"
	"GoldGate/pkg/logger"
)

func testFetcher(t *testing.T) (*Fetcher, cache.Service) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cfg := &config.Config{}
	cfg.News.CacheTTL = 15 * time.Minute
	cfg.Finnhub.APIKey = "test"
	mem := cache.NewMemoryCache()
	return NewFetcher(cfg, log, mem, ratelimit.New()), mem
}

func seedFeed(t *testing.T, c cache.Service, feed cachedFeed) {
	t.Helper()
	data, err := json.Marshal(feed)
	if err != nil {
		t.Fatalf("marshal feed: %v", err)
	}
	if err := c.Set(context.Background(), cacheKey, string(data), time.Hour); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
}

func TestFetchServesFreshCache(t *testing.T) {
	f, mem := testFetcher(t)
	want := []models.NewsItem{{Headline: "Fed holds rates steady", Source: "wire", HasOrigin: true}}
	seedFeed(t, mem, cachedFeed{FetchedAt: time.Now(), Items: want})

	got, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got[0].Headline != want[0].Headline {
		t.Fatalf("got %+v, want cached items", got)
	}
}

func TestClearCacheForcesMiss(t *testing.T) {
	f, mem := testFetcher(t)
	seedFeed(t, mem, cachedFeed{FetchedAt: time.Now(), Items: []models.NewsItem{{Headline: "x"}}})
	if err := f.ClearCache(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	var out string
	if err := mem.Get(context.Background(), cacheKey, &out); err == nil {
		t.Fatal("cache entry should be gone")
	}
}

func TestFetchDropsExpiredCacheWhenRateLimited(t *testing.T) {
	f, mem := testFetcher(t)
	f.cfg.News.MaxNewsAgeMinutes = 60
	seedFeed(t, mem, cachedFeed{
		FetchedAt: time.Now().Add(-2 * time.Hour),
		Items:     []models.NewsItem{{Headline: "Fed raises interest rates"}},
	})
	// Drain the token bucket so Fetch takes the rate-limited path.
	for f.limiter.Allow(limiterKey, limiterCapacity, limiterRefill) {
	}

	got, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d items, want none from an expired cache", len(got))
	}
	var out string
	if err := mem.Get(context.Background(), cacheKey, &out); err == nil {
		t.Fatal("expired cache entry should have been cleared")
	}
}

func TestFeedAge(t *testing.T) {
	f, mem := testFetcher(t)
	if _, cached := f.FeedAge(context.Background()); cached {
		t.Fatal("empty cache should report no age")
	}
	seedFeed(t, mem, cachedFeed{FetchedAt: time.Now().Add(-10 * time.Minute)})
	age, cached := f.FeedAge(context.Background())
	if !cached || age < 9*time.Minute || age > 11*time.Minute {
		t.Fatalf("age = %v cached=%v, want ~10m", age, cached)
	}
}

func TestRelevanceFilter(t *testing.T) {
	cases := []struct {
		headline string
		want     bool
	}{
		{"Fed raises interest rates", true},
		{"Nonfarm payrolls beat expectations", true},
		{"Gold climbs on dollar weakness", true},
		{"Tokyo stocks close higher on tech earnings", false},
	}
	for _, tc := range cases {
		if got := relevantToUSD(tc.headline, ""); got != tc.want {
			t.Fatalf("relevantToUSD(%q) = %v, want %v", tc.headline, got, tc.want)
		}
	}
}

func TestSentimentLabels(t *testing.T) {
	pos, label := Sentiment([]models.NewsItem{{Headline: "Jobs report beats, markets rally on strong growth"}})
	if label != "POSITIVE" || pos <= 0 {
		t.Fatalf("sentiment = %v %q, want positive", pos, label)
	}

	neg, label := Sentiment([]models.NewsItem{{Headline: "Recession fears deepen as payrolls misses badly"}})
	if label != "NEGATIVE" || neg >= 0 {
		t.Fatalf("sentiment = %v %q, want negative", neg, label)
	}

	if v, label := Sentiment(nil); v != 0 || label != "NEUTRAL" {
		t.Fatalf("empty sentiment = %v %q, want 0 NEUTRAL", v, label)
	}
}
