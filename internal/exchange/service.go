package exchange

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CandleFetcher 抽象K线获取，便于在测试中替换真实客户端。
type CandleFetcher interface {
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int64) ([]Candle, error)
}

// MarketDataService 按交易对聚合多周期K线快照。
type MarketDataService struct {
	client CandleFetcher
	logger *zap.Logger
}

// NewMarketDataService 创建市场数据服务。
func NewMarketDataService(client CandleFetcher, logger *zap.Logger) *MarketDataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketDataService{
		client: client,
		logger: logger,
	}
}

// GetSnapshot 拉取单个交易对的1小时与4小时K线快照。
func (s *MarketDataService) GetSnapshot(ctx context.Context, symbol string, req SnapshotRequest) (MarketSnapshot, error) {
	defaultReq := DefaultSnapshotRequest()
	if req.Limit1H <= 0 {
		req.Limit1H = defaultReq.Limit1H
	}
	if req.Limit4H <= 0 {
		req.Limit4H = defaultReq.Limit4H
	}

	var (
		candles1H []Candle
		candles4H []Candle
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		data, err := s.client.FetchCandles(groupCtx, symbol, Timeframe1h, int64(req.Limit1H))
		if err != nil {
			return err
		}
		candles1H = data
		return nil
	})

	group.Go(func() error {
		data, err := s.client.FetchCandles(groupCtx, symbol, Timeframe4h, int64(req.Limit4H))
		if err != nil {
			return err
		}
		candles4H = data
		return nil
	})

	if err := group.Wait(); err != nil {
		return MarketSnapshot{}, err
	}

	snapshot := MarketSnapshot{
		Symbol:      symbol,
		Candles1H:   candles1H,
		Candles4H:   candles4H,
		RetrievedAt: time.Now().UTC(),
	}

	s.logger.Debug("市场数据快照获取完成",
		zap.String("symbol", snapshot.Symbol),
		zap.Time("retrieved_at", snapshot.RetrievedAt),
		zap.Int("candle_1h_count", len(snapshot.Candles1H)),
		zap.Int("candle_4h_count", len(snapshot.Candles4H)),
	)

	return snapshot, nil
}

// GetSnapshots 并发拉取多个交易对的快照，任一失败即整体失败。
func (s *MarketDataService) GetSnapshots(ctx context.Context, symbols []string, req SnapshotRequest) ([]MarketSnapshot, error) {
	snapshots := make([]MarketSnapshot, len(symbols))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		group.Go(func() error {
			snapshot, err := s.GetSnapshot(groupCtx, symbol, req)
			if err != nil {
				return err
			}
			snapshots[i] = snapshot
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return snapshots, nil
}
