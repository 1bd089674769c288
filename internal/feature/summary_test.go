package feature

import (
	"testing"
	"time"

	"futures-ai/internal/exchange"
)

func risingCandles(n int, start float64, step time.Duration) []exchange.Candle {
	candles := make([]exchange.Candle, 0, n)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	price := start
	for i := 0; i < n; i++ {
		candles = append(candles, exchange.Candle{
			Timestamp: base.Add(time.Duration(i) * step),
			Open:      price,
			High:      price + 5,
			Low:       price - 5,
			Close:     price + 2,
			Volume:    100 + float64(i),
		})
		price += 10
	}
	return candles
}

func TestBuild_RisingMarket(t *testing.T) {
	snapshot := exchange.MarketSnapshot{
		Symbol:      "BTC/USDT:USDT",
		Candles1H:   risingCandles(200, 80000, time.Hour),
		Candles4H:   risingCandles(60, 79000, 4*time.Hour),
		RetrievedAt: time.Now().UTC(),
	}

	summary, err := NewExtractor(nil).Build(snapshot)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if summary.Symbol != "BTC/USDT:USDT" {
		t.Errorf("symbol = %q", summary.Symbol)
	}
	if summary.LastClose <= 0 {
		t.Errorf("last close = %f", summary.LastClose)
	}
	// 单调上涨序列：短期均线在上，高周期趋势向多
	if summary.EMARank != "bullish_alignment" {
		t.Errorf("ema rank = %q", summary.EMARank)
	}
	if summary.HigherTrend != "bullish" {
		t.Errorf("higher trend = %q", summary.HigherTrend)
	}
	if summary.RSIState != "overbought" {
		t.Errorf("rsi state = %q, rsi = %f", summary.RSIState, summary.RSI)
	}
	if summary.Change24hPct <= 0 {
		t.Errorf("24h change = %f", summary.Change24hPct)
	}
	if summary.SupportLevel <= 0 || summary.ResistanceLevel <= summary.SupportLevel {
		t.Errorf("support/resistance = %f/%f", summary.SupportLevel, summary.ResistanceLevel)
	}
	if summary.ATRRelative <= 0 {
		t.Errorf("atr relative = %f", summary.ATRRelative)
	}
}

func TestBuild_RejectsShortHistory(t *testing.T) {
	snapshot := exchange.MarketSnapshot{
		Symbol:    "ETH/USDT:USDT",
		Candles1H: risingCandles(10, 1900, time.Hour),
		Candles4H: risingCandles(60, 1900, 4*time.Hour),
	}

	if _, err := NewExtractor(nil).Build(snapshot); err == nil {
		t.Fatal("expected error for insufficient candles")
	}
}

func TestBuildAll_SkipsFailingSymbols(t *testing.T) {
	snapshots := []exchange.MarketSnapshot{
		{
			Symbol:    "BTC/USDT:USDT",
			Candles1H: risingCandles(200, 80000, time.Hour),
			Candles4H: risingCandles(60, 79000, 4*time.Hour),
		},
		{
			Symbol:    "ETH/USDT:USDT",
			Candles1H: risingCandles(3, 1900, time.Hour),
			Candles4H: risingCandles(3, 1900, 4*time.Hour),
		},
	}

	summaries := NewExtractor(nil).BuildAll(snapshots)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].Symbol != "BTC/USDT:USDT" {
		t.Errorf("symbol = %q", summaries[0].Symbol)
	}
}
