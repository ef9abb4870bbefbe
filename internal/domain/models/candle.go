package models

import "time"

// Candle represents an OHLCV record used for indicator computation.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Tick is a single trade print from the market stream.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// NewsItem is one classified-news input as consumed by the decision core.
// OriginTimestamp is when the event occurred/published; FetchTimestamp is
// when the system observed it.
type NewsItem struct {
	Headline        string
	Summary         string
	Source          string
	OriginTimestamp time.Time
	FetchTimestamp  time.Time
	HasOrigin       bool // false when the publish timestamp could not be parsed
}
