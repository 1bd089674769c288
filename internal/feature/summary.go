package feature

import (
	"fmt"

	talib "github.com/markcheno/go-talib"
	"go.uber.org/zap"

	"futures-ai/internal/exchange"
)

const (
	minCandles1H = 60
	minCandles4H = 30
)

// Summary 为单个交易对的紧凑行情摘要，字段直接序列化进
// 机会分析提示词，命名保持模型易读。
type Summary struct {
	Symbol          string  `json:"symbol"`
	LastClose       float64 `json:"last_close"`
	Change24hPct    float64 `json:"change_24h_pct"`
	EMA12           float64 `json:"ema_12"`
	EMA26           float64 `json:"ema_26"`
	EMA50           float64 `json:"ema_50"`
	EMARank         string  `json:"ema_rank"`
	RSI             float64 `json:"rsi"`
	RSIState        string  `json:"rsi_state"`
	ATRRelative     float64 `json:"atr_relative"`
	VolumeRatio     float64 `json:"volume_ratio"`
	HigherTrend     string  `json:"higher_timeframe_trend"`
	SupportLevel    float64 `json:"support_level"`
	ResistanceLevel float64 `json:"resistance_level"`
}

// Extractor 根据市场快照计算摘要。
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor 创建摘要提取器。
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Build 计算单个快照的摘要。
func (e *Extractor) Build(snapshot exchange.MarketSnapshot) (Summary, error) {
	if len(snapshot.Candles1H) < minCandles1H {
		return Summary{}, fmt.Errorf("1小时K线数量不足，至少需要 %d 根，当前 %d", minCandles1H, len(snapshot.Candles1H))
	}
	if len(snapshot.Candles4H) < minCandles4H {
		return Summary{}, fmt.Errorf("4小时K线数量不足，至少需要 %d 根，当前 %d", minCandles4H, len(snapshot.Candles4H))
	}

	series1h := NewSeries(snapshot.Candles1H)
	series4h := NewSeries(snapshot.Candles4H)

	closes := series1h.Close
	ema12 := Last(talib.Ema(closes, 12))
	ema26 := Last(talib.Ema(closes, 26))
	ema50 := Last(talib.Ema(closes, 50))
	rsi := Last(talib.Rsi(closes, 14))
	atr := Last(talib.Atr(series1h.High, series1h.Low, closes, 14))

	lastClose := Last(closes)
	volumeAvg20 := average(SliceTail(series1h.Volume, 20))
	volumeRatio := SafeDivide(Last(series1h.Volume), volumeAvg20)

	support, resistance := supportResistance(series1h)

	ema12of4h := Last(talib.Ema(series4h.Close, 12))
	ema26of4h := Last(talib.Ema(series4h.Close, 26))

	summary := Summary{
		Symbol:          snapshot.Symbol,
		LastClose:       clean(lastClose),
		Change24hPct:    clean(change24h(closes)),
		EMA12:           clean(ema12),
		EMA26:           clean(ema26),
		EMA50:           clean(ema50),
		EMARank:         emaRank(ema12, ema26, ema50),
		RSI:             clean(rsi),
		RSIState:        rsiState(rsi),
		ATRRelative:     clean(SafeDivide(atr, lastClose)),
		VolumeRatio:     clean(volumeRatio),
		HigherTrend:     higherTimeframeTrend(ema12of4h, ema26of4h),
		SupportLevel:    clean(support),
		ResistanceLevel: clean(resistance),
	}

	e.logger.Debug("行情摘要计算完成",
		zap.String("symbol", summary.Symbol),
		zap.Float64("last_close", summary.LastClose),
		zap.String("ema_rank", summary.EMARank),
	)

	return summary, nil
}

// BuildAll 逐个计算摘要，单个交易对失败只跳过该交易对。
func (e *Extractor) BuildAll(snapshots []exchange.MarketSnapshot) []Summary {
	summaries := make([]Summary, 0, len(snapshots))
	for _, snapshot := range snapshots {
		summary, err := e.Build(snapshot)
		if err != nil {
			e.logger.Warn("跳过摘要计算失败的交易对",
				zap.String("symbol", snapshot.Symbol),
				zap.Error(err),
			)
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func change24h(closes []float64) float64 {
	// 1小时周期下回看24根
	if len(closes) < 25 {
		return 0
	}
	prev := closes[len(closes)-25]
	return SafeDivide(Last(closes)-prev, prev) * 100
}

func emaRank(ema12, ema26, ema50 float64) string {
	switch {
	case ema12 > ema26 && ema26 > ema50:
		return "bullish_alignment"
	case ema12 < ema26 && ema26 < ema50:
		return "bearish_alignment"
	default:
		return "mixed_alignment"
	}
}

func rsiState(rsi float64) string {
	rsi = clean(rsi)
	switch {
	case rsi >= 70:
		return "overbought"
	case rsi <= 30:
		return "oversold"
	default:
		return "neutral"
	}
}

func higherTimeframeTrend(ema12, ema26 float64) string {
	ema12 = clean(ema12)
	ema26 = clean(ema26)

	switch {
	case ema12 == 0 && ema26 == 0:
		return "unknown"
	case ema12 > ema26:
		return "bullish"
	case ema12 < ema26:
		return "bearish"
	default:
		return "neutral"
	}
}

func supportResistance(series Series) (float64, float64) {
	window := min(50, series.Len())
	if window == 0 {
		return 0, 0
	}

	highs := series.High[series.Len()-window:]
	lows := series.Low[series.Len()-window:]

	resistance := highs[0]
	for _, v := range highs {
		if v > resistance {
			resistance = v
		}
	}

	support := lows[0]
	for _, v := range lows {
		if v < support {
			support = v
		}
	}

	return support, resistance
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
