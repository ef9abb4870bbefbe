package decision

import (
	"testing"
	"time"

	"GoldGate/internal/domain/models"
	"GoldGate/internal/services/features"
)

var newsNow = time.Date(2026, 3, 18, 14, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func newsItem(headline string, originAgo, fetchAgo time.Duration) models.NewsItem {
	return models.NewsItem{
		Headline:        headline,
		Source:          "newswire",
		OriginTimestamp: newsNow.Add(-originAgo),
		FetchTimestamp:  newsNow.Add(-fetchAgo),
		HasOrigin:       true,
	}
}

func calmSnapshot() features.Snapshot {
	return features.Snapshot{Bars: 120, ATRRatio: 1.0, ATR: 5}
}

func calmRegime() models.RegimeState {
	return models.RegimeState{Label: models.RegimeStrongTrend}
}

func TestNewsClassification(t *testing.T) {
	b := NewNewsEventBlocker(testConfig(), testLogger(t), WithClock(fixedClock(newsNow)))

	noOrigin := newsItem("whatever", 0, 0)
	noOrigin.HasOrigin = false
	if got := b.Classify(noOrigin); got != models.NewsUnverified {
		t.Fatalf("class = %s, want UNVERIFIED", got)
	}
	if got := b.Classify(newsItem("x", 10*time.Minute, 90*time.Minute)); got != models.NewsExpired {
		t.Fatalf("class = %s, want EXPIRED for old fetch", got)
	}
	if got := b.Classify(newsItem("x", 4*time.Hour, 5*time.Minute)); got != models.NewsStaleContext {
		t.Fatalf("class = %s, want STALE_CONTEXT for old origin", got)
	}
	if got := b.Classify(newsItem("x", 10*time.Minute, 5*time.Minute)); got != models.NewsLiveEvent {
		t.Fatalf("class = %s, want LIVE_EVENT", got)
	}
}

func TestNewsBlockOpensAndBlocks(t *testing.T) {
	b := NewNewsEventBlocker(testConfig(), testLogger(t), WithClock(fixedClock(newsNow)))
	opened := b.Ingest([]models.NewsItem{
		newsItem("Federal Reserve raises interest rates by 25 basis points", 10*time.Minute, 2*time.Minute),
	})
	if opened != 1 {
		t.Fatalf("opened = %d, want 1", opened)
	}

	st := b.Evaluate(calmSnapshot(), calmRegime())
	if !st.Blocked || st.RiskMultiplier != 0 {
		t.Fatalf("blocked = %v mult %v, want blocked with 0", st.Blocked, st.RiskMultiplier)
	}
	if st.Block == nil || st.Block.EventType != "FOMC_DECISION" {
		t.Fatalf("block = %+v, want FOMC_DECISION", st.Block)
	}
	wantUntil := newsNow.Add(-10 * time.Minute).Add(150 * time.Minute)
	if !st.Block.BlockUntil.Equal(wantUntil) {
		t.Fatalf("block until = %v, want %v", st.Block.BlockUntil, wantUntil)
	}
}

func TestNewsIngestIsIdempotent(t *testing.T) {
	b := NewNewsEventBlocker(testConfig(), testLogger(t), WithClock(fixedClock(newsNow)))
	item := newsItem("CPI comes in hot at 3.4 percent", 5*time.Minute, time.Minute)

	if opened := b.Ingest([]models.NewsItem{item}); opened != 1 {
		t.Fatalf("first ingest opened %d, want 1", opened)
	}
	if opened := b.Ingest([]models.NewsItem{item}); opened != 0 {
		t.Fatalf("second ingest opened %d, want 0", opened)
	}
	if n := b.ActiveBlockCount(); n != 1 {
		t.Fatalf("active blocks = %d, want 1", n)
	}
}

func TestNewsCommentaryDoesNotBlock(t *testing.T) {
	b := NewNewsEventBlocker(testConfig(), testLogger(t), WithClock(fixedClock(newsNow)))
	opened := b.Ingest([]models.NewsItem{
		newsItem("Fed signals potential rate cut as inflation cools", 5*time.Minute, time.Minute),
	})
	if opened != 0 {
		t.Fatalf("opened = %d, commentary must not block", opened)
	}
}

func TestNewsStaleOriginDoesNotBlock(t *testing.T) {
	b := NewNewsEventBlocker(testConfig(), testLogger(t), WithClock(fixedClock(newsNow)))
	opened := b.Ingest([]models.NewsItem{
		newsItem("FOMC raises interest rates", 4*time.Hour, 5*time.Minute),
	})
	if opened != 0 {
		t.Fatalf("opened = %d, stale origin must not block", opened)
	}
}

func TestNewsUnrelatedHeadlineDoesNotBlock(t *testing.T) {
	b := NewNewsEventBlocker(testConfig(), testLogger(t), WithClock(fixedClock(newsNow)))
	opened := b.Ingest([]models.NewsItem{
		newsItem("Gold miners report record quarterly output", 5*time.Minute, time.Minute),
	})
	if opened != 0 {
		t.Fatalf("opened = %d, want 0 for unrelated news", opened)
	}
}

func TestNewsResumeGateHoldsUnderVolatility(t *testing.T) {
	now := newsNow
	clock := func() time.Time { return now }
	b := NewNewsEventBlocker(testConfig(), testLogger(t), WithClock(clock))
	b.Ingest([]models.NewsItem{
		newsItem("Federal Reserve raises interest rates", 10*time.Minute, time.Minute),
	})

	// Cooldown (150m from origin) has lapsed.
	now = newsNow.Add(160 * time.Minute)

	hot := calmSnapshot()
	hot.ATRRatio = 2.0
	st := b.Evaluate(hot, calmRegime())
	if !st.Blocked {
		t.Fatal("lapsed cooldown must keep blocking while volatility is elevated")
	}

	st = b.Evaluate(calmSnapshot(), calmRegime())
	if st.Blocked {
		t.Fatal("calm market after lapsed cooldown must release the block")
	}
	if n := b.ActiveBlockCount(); n != 0 {
		t.Fatalf("active blocks = %d, want 0 after release", n)
	}
}

func TestNewsHighVolRegimeHoldsResume(t *testing.T) {
	now := newsNow
	clock := func() time.Time { return now }
	b := NewNewsEventBlocker(testConfig(), testLogger(t), WithClock(clock))
	b.Ingest([]models.NewsItem{
		newsItem("Nonfarm payrolls smash expectations", 10*time.Minute, time.Minute),
	})

	now = newsNow.Add(80 * time.Minute) // NFP cooldown is 75m
	st := b.Evaluate(calmSnapshot(), models.RegimeState{Label: models.RegimeHighVolNoTrade})
	if !st.Blocked {
		t.Fatal("volatility-spike regime must hold the block after cooldown")
	}
}
