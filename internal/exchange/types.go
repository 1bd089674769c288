package exchange

import "time"

const (
	// Timeframe1h 为摘要主周期。
	Timeframe1h = "1h"
	// Timeframe4h 为趋势过滤周期。
	Timeframe4h = "4h"
)

// Candle 代表单根K线。
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// MarketSnapshot 为单个交易对的多周期K线快照。
type MarketSnapshot struct {
	Symbol      string
	Candles1H   []Candle
	Candles4H   []Candle
	RetrievedAt time.Time
}

// SnapshotRequest 控制一次快照采集的参数。
type SnapshotRequest struct {
	Limit1H int
	Limit4H int
}

// DefaultSnapshotRequest 返回默认快照参数。
func DefaultSnapshotRequest() SnapshotRequest {
	return SnapshotRequest{
		Limit1H: 200,
		Limit4H: 200,
	}
}
