package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"futures-ai/internal/config"
	"futures-ai/internal/contract"
	"futures-ai/internal/draft"
	"futures-ai/internal/exchange"
	"futures-ai/internal/feature"
	"futures-ai/internal/journal"
	"futures-ai/internal/lifecycle"
	"futures-ai/internal/oracle"
	"futures-ai/internal/signer"
	"futures-ai/internal/store"
	"futures-ai/internal/venue"
)

// App 聚合核心依赖并驱动两种工作模式：
// 指令模式把一条自然语言指令走完整生命周期；
// 扫描模式先汇总行情摘要，再由模型给出机会叙述并逐条落地。
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	executor  *venue.Executor
	oracle    oracle.Oracle
	engine    *lifecycle.Engine
	confirmer *CLIConfirmer
	markets   *exchange.MarketDataService
	features  *feature.Extractor
}

// New 创建 App 实例并完成全部依赖装配。
func New(cfg *config.Config, logger *zap.Logger, sqliteStore *store.Store) (*App, error) {
	sg, err := loadSigner(cfg.Venue)
	if err != nil {
		return nil, err
	}

	executor, err := venue.NewExecutor(cfg.Venue, sg, logger)
	if err != nil {
		return nil, err
	}

	ai, err := oracle.NewOpenAI(cfg.OpenAI, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化模型客户端失败: %w", err)
	}

	confirmer := NewCLIConfirmer(os.Stdin, os.Stdout)

	engine := lifecycle.NewEngine(executor, confirmer, cfg.Venue.RecvWindow, logger)
	engine.SetDryRun(cfg.Execution.DryRun)

	if sqliteStore != nil {
		orderJournal, journalErr := journal.New(sqliteStore, logger)
		if journalErr != nil {
			return nil, journalErr
		}
		engine.SetJournal(orderJournal)
	}

	marketClient, err := exchange.NewClient(cfg.Exchange, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化行情客户端失败: %w", err)
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		executor:  executor,
		oracle:    ai,
		engine:    engine,
		confirmer: confirmer,
		markets:   exchange.NewMarketDataService(marketClient, logger),
		features:  feature.NewExtractor(logger),
	}, nil
}

func loadSigner(cfg config.VenueConfig) (*signer.Signer, error) {
	if cfg.PrivateKey != "" {
		sg, err := signer.Load(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("加载签名私钥失败: %w", err)
		}
		return sg, nil
	}

	sg, err := signer.LoadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("加载签名私钥文件失败: %w", err)
	}
	return sg, nil
}

// RunInstruction 把一条自然语言交易指令走完整委托生命周期。
func (a *App) RunInstruction(ctx context.Context, instruction string) error {
	dir, err := a.executor.FetchContracts(ctx)
	if err != nil {
		return err
	}

	a.logger.Info("合约目录已加载", zap.Int("contracts", dir.Len()))

	d, err := draft.FromInstruction(ctx, a.oracle, instruction, dir)
	if err != nil {
		return err
	}

	d, proceed, err := a.completeDraft(ctx, d)
	if err != nil {
		return err
	}
	if !proceed {
		a.logger.Info("操作者放弃该草稿", zap.String("contract", d.Contract.Symbol))
		return nil
	}

	outcome := a.engine.Run(ctx, d)
	a.reportOutcome(d, outcome)
	return outcome.Err
}

// RunScan 执行一轮机会扫描：行情摘要 -> 模型叙述 -> 候选落地。
func (a *App) RunScan(ctx context.Context) error {
	var (
		dir     contract.Directory
		account venue.Account
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		fetched, err := a.executor.FetchContracts(groupCtx)
		if err != nil {
			return err
		}
		dir = fetched
		return nil
	})
	group.Go(func() error {
		fetched, err := a.executor.FetchAccount(groupCtx)
		if err != nil {
			return err
		}
		account = fetched
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	snapshots, err := a.markets.GetSnapshots(ctx, a.cfg.Exchange.Markets, exchange.DefaultSnapshotRequest())
	if err != nil {
		return fmt.Errorf("拉取行情快照失败: %w", err)
	}

	summaries := a.features.BuildAll(snapshots)
	if len(summaries) == 0 {
		a.logger.Warn("所有交易对的摘要计算均失败, 本轮扫描结束")
		return nil
	}

	prompt, err := oracle.BuildNarrativePrompt(summaries)
	if err != nil {
		return err
	}

	narrativeText, err := a.oracle.Interpret(ctx, prompt)
	if err != nil {
		return fmt.Errorf("机会分析失败: %w", err)
	}

	candidates := draft.FromNarrative(narrativeText)
	if len(candidates) == 0 {
		a.logger.Info("模型未给出交易机会")
		return nil
	}

	a.logger.Info("机会候选已提取",
		zap.Int("candidates", len(candidates)),
		zap.String("equity", account.Equity.String()),
	)

	for _, candidate := range candidates {
		d, convErr := draft.ToDraft(candidate, dir, account.Equity)
		if convErr != nil {
			a.logger.Warn("机会候选无法落地",
				zap.Int("index", candidate.Index),
				zap.String("symbol_hint", candidate.SymbolHint),
				zap.Error(convErr),
			)
			continue
		}

		a.logger.Info("处理机会候选",
			zap.Int("index", candidate.Index),
			zap.String("contract", d.Contract.Symbol),
			zap.String("rationale", candidate.Rationale),
		)

		d, proceed, askErr := a.completeDraft(ctx, d)
		if askErr != nil {
			return askErr
		}
		if !proceed {
			a.logger.Info("操作者放弃该候选", zap.Int("index", candidate.Index))
			continue
		}

		outcome := a.engine.Run(ctx, d)
		a.reportOutcome(d, outcome)
	}

	return nil
}

// completeDraft 对缺失的方向与数量发起补问。
// 提取层绝不虚构这两个字段, 放行前必须由操作者亲自补齐。
func (a *App) completeDraft(ctx context.Context, d draft.Draft) (draft.Draft, bool, error) {
	if d.Provenance.Side == draft.ConfidenceMissing {
		side, ok, err := a.confirmer.AskSide(ctx, d)
		if err != nil {
			return d, false, err
		}
		if !ok {
			return d, false, nil
		}
		d.Side = side
		d.Provenance.Side = draft.ConfidenceExplicit
	}

	if d.Provenance.Quantity == draft.ConfidenceMissing {
		quantity, ok, err := a.confirmer.AskQuantity(ctx, d)
		if err != nil {
			return d, false, err
		}
		if !ok {
			return d, false, nil
		}
		d.Quantity = draft.Quantity{Contracts: quantity}
		d.Provenance.Quantity = draft.ConfidenceExplicit
	}

	return d, true, nil
}

func (a *App) reportOutcome(d draft.Draft, outcome lifecycle.Outcome) {
	fields := []zap.Field{
		zap.String("contract", d.Contract.Symbol),
		zap.String("state", string(outcome.State)),
	}

	switch outcome.State {
	case lifecycle.StateDraft:
		for _, ve := range outcome.ValidationErrors {
			a.logger.Warn("草稿校验失败",
				zap.String("contract", d.Contract.Symbol),
				zap.String("field", ve.Field),
				zap.String("reason", ve.Reason),
			)
		}
	case lifecycle.StateEstimationRejected:
		a.logger.Warn("场所拒绝预估", append(fields, zap.String("error", outcome.Estimate.Error))...)
	case lifecycle.StateCancelled:
		a.logger.Info("委托已取消", fields...)
	case lifecycle.StateAccepted:
		a.logger.Info("委托已被场所接受", append(fields,
			zap.String("customer_order_id", outcome.CustomerOrderID),
			zap.String("transaction_hash", outcome.Result.TransactionHash),
		)...)
	case lifecycle.StateRejected:
		a.logger.Warn("委托被场所拒绝", append(fields,
			zap.Int("code", outcome.Result.Code),
			zap.String("message", outcome.Result.Message),
		)...)
	case lifecycle.StateSubmitted:
		a.logger.Info("干跑完成, 未真实提交", fields...)
	default:
		if outcome.Err != nil {
			a.logger.Error("委托流程异常", append(fields, zap.Error(outcome.Err))...)
		}
	}
}
