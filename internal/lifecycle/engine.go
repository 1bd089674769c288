package lifecycle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"futures-ai/internal/draft"
	"futures-ai/internal/signer"
	"futures-ai/internal/venue"
)

// VenueAPI 为状态机依赖的场所接口子集。
type VenueAPI interface {
	EstimateOrder(ctx context.Context, sub venue.OrderSubmission) (venue.OrderEstimate, error)
	SubmitOrder(ctx context.Context, sub venue.OrderSubmission) (venue.SubmitResult, error)
}

// Confirmer 在提交前向操作者出示草稿与成本预估并征求放行决定。
type Confirmer interface {
	Confirm(ctx context.Context, d draft.Draft, estimate venue.OrderEstimate) (bool, error)
}

// Journal 接收状态变迁流水。实现必须自行吞掉写入失败，
// 流水记录永远不阻断交易流程。
type Journal interface {
	Record(ctx context.Context, e Event)
}

// Engine 驱动委托生命周期。now 与 newOrderID 可注入，便于测试。
type Engine struct {
	api        VenueAPI
	confirmer  Confirmer
	journal    Journal
	logger     *zap.Logger
	recvWindow int64
	dryRun     bool

	now        func() time.Time
	newOrderID func() string
}

// NewEngine 创建生命周期引擎。
func NewEngine(api VenueAPI, confirmer Confirmer, recvWindow int64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		api:        api,
		confirmer:  confirmer,
		logger:     logger,
		recvWindow: recvWindow,
		now:        time.Now,
		newOrderID: uuid.NewString,
	}
}

// SetJournal 挂载流水记录器。
func (e *Engine) SetJournal(j Journal) {
	e.journal = j
}

// SetDryRun 开启干跑模式：确认之后不再真实提交。
func (e *Engine) SetDryRun(enabled bool) {
	e.dryRun = enabled
}

// Lifecycle 为单笔委托的状态机实例。
// 草稿只能通过 SetDraft 替换，任何替换都会把状态拉回 draft，
// 使旧的预估结果失效。
type Lifecycle struct {
	engine *Engine

	d                draft.Draft
	state            State
	validationErrors []ValidationError
	estimate         venue.OrderEstimate
	estimateDigest   string
	result           venue.SubmitResult
	customerOrderID  string
}

// NewLifecycle 以草稿初始化一个状态机实例。
func (e *Engine) NewLifecycle(d draft.Draft) *Lifecycle {
	return &Lifecycle{engine: e, d: d, state: StateDraft}
}

// State 返回当前状态。
func (lc *Lifecycle) State() State {
	return lc.state
}

// Draft 返回当前草稿副本。
func (lc *Lifecycle) Draft() draft.Draft {
	return lc.d
}

// EstimateResult 返回最近一次成本预估。
func (lc *Lifecycle) EstimateResult() venue.OrderEstimate {
	return lc.estimate
}

// Result 返回场所的提交响应。
func (lc *Lifecycle) Result() venue.SubmitResult {
	return lc.result
}

// CustomerOrderID 返回最近一次提交使用的幂等令牌。
func (lc *Lifecycle) CustomerOrderID() string {
	return lc.customerOrderID
}

// SetDraft 替换草稿并把状态拉回 draft。
func (lc *Lifecycle) SetDraft(d draft.Draft) error {
	if lc.state.Terminal() && lc.state != StateEstimationRejected {
		return fmt.Errorf("状态 %s 下不允许修改草稿", lc.state)
	}
	lc.d = d
	lc.state = StateDraft
	lc.validationErrors = nil
	lc.estimate = venue.OrderEstimate{}
	lc.estimateDigest = ""
	return nil
}

// Validate 对草稿做完整性校验，一次收集全部问题。
// 全部通过时推进到 validated，否则停留在 draft。
func (lc *Lifecycle) Validate() []ValidationError {
	errs := make([]ValidationError, 0)

	if !lc.d.Resolved {
		errs = append(errs, ValidationError{Field: "contract", Reason: "合约未解析"})
	}
	if lc.d.Side != draft.SideBuy && lc.d.Side != draft.SideSell {
		errs = append(errs, ValidationError{Field: "side", Reason: "方向缺失"})
	}

	units := lc.d.Quantity.Units()
	switch {
	case len(units) == 0:
		errs = append(errs, ValidationError{Field: "quantity", Reason: "数量缺失"})
	case len(units) > 1:
		errs = append(errs, ValidationError{Field: "quantity", Reason: fmt.Sprintf("数量单位冲突: %v", units)})
	default:
		if value, _, _ := lc.d.Quantity.Value(); !value.IsPositive() {
			errs = append(errs, ValidationError{Field: "quantity", Reason: "数量必须为正"})
		}
	}

	switch lc.d.Type {
	case draft.TypeLimit:
		if !lc.d.LimitPrice.IsPositive() {
			errs = append(errs, ValidationError{Field: "limit_price", Reason: "限价单必须给出正的限价"})
		}
	case draft.TypeMarket:
		if !lc.d.LimitPrice.IsZero() {
			errs = append(errs, ValidationError{Field: "limit_price", Reason: "市价单不接受限价"})
		}
	default:
		errs = append(errs, ValidationError{Field: "order_type", Reason: fmt.Sprintf("未知订单类型 %q", lc.d.Type)})
	}

	if !lc.d.TimeInForce.Valid() {
		errs = append(errs, ValidationError{Field: "time_in_force", Reason: fmt.Sprintf("未知有效期策略 %q", lc.d.TimeInForce)})
	}

	lc.validationErrors = errs
	if len(errs) > 0 {
		lc.state = StateDraft
		return errs
	}

	lc.state = StateValidated
	return nil
}

// buildSubmission 把草稿折叠为请求体：方向并入数量符号，
// 三种数量单位只填充其一。
func (lc *Lifecycle) buildSubmission(customerOrderID string, timestamp int64) (venue.OrderSubmission, error) {
	value, unit, ok := lc.d.Quantity.Value()
	if !ok {
		return venue.OrderSubmission{}, fmt.Errorf("数量必须恰好填充一个单位, 当前: %v", lc.d.Quantity.Units())
	}
	if lc.d.Side == draft.SideSell {
		value = value.Neg()
	}

	sub := venue.OrderSubmission{
		CustomerOrderID: customerOrderID,
		ContractID:      lc.d.Contract.ID,
		OrderType:       string(lc.d.Type),
		TimeInForce:     string(lc.d.TimeInForce),
		ReduceOnly:      lc.d.ReduceOnly,
		Timestamp:       timestamp,
		RecvWindow:      lc.engine.recvWindow,
	}

	switch unit {
	case "steps":
		sub.QuantitySteps = &value
	case "contracts":
		sub.QuantityContracts = &value
	default:
		sub.QuantityAssets = &value
	}

	if lc.d.Type == draft.TypeLimit {
		price := lc.d.LimitPrice
		sub.LimitPrice = &price
	}

	return sub, nil
}

// draftDigest 计算草稿的请求体指纹，用于检测预估之后的改动。
// 指纹不含幂等令牌与时间戳。
func (lc *Lifecycle) draftDigest() string {
	sub, err := lc.buildSubmission("", 0)
	if err != nil {
		return ""
	}
	raw, err := json.Marshal(sub)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Estimate 请求场所做成本预估。传输失败保持原状态可重试；
// 场所在 2xx 中报告业务拒绝时推进到 estimation_rejected。
func (lc *Lifecycle) Estimate(ctx context.Context) error {
	if lc.state != StateValidated && lc.state != StateEstimated {
		return fmt.Errorf("状态 %s 下不允许预估", lc.state)
	}

	sub, err := lc.buildSubmission("", lc.engine.now().UnixMilli())
	if err != nil {
		return err
	}

	estimate, err := lc.engine.api.EstimateOrder(ctx, sub)
	if err != nil {
		return fmt.Errorf("成本预估失败: %w", err)
	}

	lc.estimate = estimate
	if estimate.Error != "" {
		lc.state = StateEstimationRejected
		lc.record(ctx, "场所拒绝预估: "+estimate.Error)
		return nil
	}

	lc.state = StateEstimated
	lc.estimateDigest = lc.draftDigest()
	lc.record(ctx, "成本预估完成")
	return nil
}

// Confirm 向操作者出示草稿与预估并征求决定。
// 预估之后草稿发生过改动时拒绝确认并回退到 validated，要求重新预估。
func (lc *Lifecycle) Confirm(ctx context.Context) error {
	if lc.state != StateEstimated {
		return fmt.Errorf("状态 %s 下不允许确认", lc.state)
	}
	if lc.draftDigest() != lc.estimateDigest {
		lc.state = StateValidated
		return fmt.Errorf("草稿在预估后被修改, 需要重新预估")
	}
	if lc.engine.confirmer == nil {
		return fmt.Errorf("未配置确认器, 无法放行提交")
	}

	approved, err := lc.engine.confirmer.Confirm(ctx, lc.d, lc.estimate)
	if err != nil {
		return fmt.Errorf("确认流程失败: %w", err)
	}
	if !approved {
		lc.state = StateCancelled
		lc.record(ctx, "操作者取消提交")
		return nil
	}

	lc.state = StateConfirmed
	lc.record(ctx, "操作者确认提交")
	return nil
}

// Submit 提交委托。幂等令牌与时间戳在此刻生成，
// 每次提交尝试都使用全新令牌，绝不复用。
func (lc *Lifecycle) Submit(ctx context.Context) error {
	if lc.state != StateConfirmed {
		return fmt.Errorf("状态 %s 下不允许提交", lc.state)
	}
	if lc.draftDigest() != lc.estimateDigest {
		lc.state = StateValidated
		return fmt.Errorf("草稿在预估后被修改, 需要重新预估")
	}

	lc.customerOrderID = lc.engine.newOrderID()

	if lc.engine.dryRun {
		lc.state = StateSubmitted
		lc.result = venue.SubmitResult{Status: "dry-run"}
		lc.engine.logger.Info("干跑模式, 跳过真实提交",
			zap.String("contract", lc.d.Contract.Symbol),
			zap.String("customer_order_id", lc.customerOrderID))
		lc.record(ctx, "干跑模式, 未提交")
		return nil
	}

	sub, err := lc.buildSubmission(lc.customerOrderID, lc.engine.now().UnixMilli())
	if err != nil {
		return err
	}

	lc.state = StateSubmitted
	result, err := lc.engine.api.SubmitOrder(ctx, sub)
	if err != nil {
		// 签名失败发生在任何字节发出之前，停留在 confirmed 可直接重试；
		// 传输失败则可能已有副作用，终止于 errored。
		if errors.Is(err, signer.ErrKeyFormat) || errors.Is(err, signer.ErrKeyUnavailable) {
			lc.state = StateConfirmed
			return fmt.Errorf("签名失败, 委托未发出: %w", err)
		}
		lc.state = StateErrored
		lc.record(ctx, "提交失败: "+err.Error())
		return fmt.Errorf("提交委托失败: %w", err)
	}

	lc.result = result
	if result.Accepted() {
		lc.state = StateAccepted
		lc.record(ctx, "场所已接受")
	} else {
		lc.state = StateRejected
		lc.record(ctx, "场所拒绝: "+result.Message)
	}
	return nil
}

func (lc *Lifecycle) record(ctx context.Context, detail string) {
	if lc.engine.journal == nil {
		return
	}
	lc.engine.journal.Record(ctx, Event{
		Time:            lc.engine.now(),
		Origin:          lc.d.Origin,
		ContractSymbol:  lc.d.Contract.Symbol,
		CustomerOrderID: lc.customerOrderID,
		State:           lc.state,
		Detail:          detail,
	})
}

// Run 从草稿开始驱动完整生命周期，任一环节失败即携带当前状态返回。
func (e *Engine) Run(ctx context.Context, d draft.Draft) Outcome {
	lc := e.NewLifecycle(d)

	if errs := lc.Validate(); len(errs) > 0 {
		return Outcome{State: lc.state, ValidationErrors: errs}
	}

	if err := lc.Estimate(ctx); err != nil {
		return Outcome{State: lc.state, Err: err}
	}
	if lc.state == StateEstimationRejected {
		return Outcome{State: lc.state, Estimate: lc.estimate}
	}

	e.logger.Info("成本预估完成",
		zap.String("contract", d.Contract.Symbol),
		zap.String("new_equity", lc.estimate.NewEquity.String()),
		zap.String("new_leverage", lc.estimate.NewLeverage.String()))

	if err := lc.Confirm(ctx); err != nil {
		return Outcome{State: lc.state, Estimate: lc.estimate, Err: err}
	}
	if lc.state == StateCancelled {
		return Outcome{State: lc.state, Estimate: lc.estimate}
	}

	err := lc.Submit(ctx)
	return Outcome{
		State:           lc.state,
		Estimate:        lc.estimate,
		Result:          lc.result,
		CustomerOrderID: lc.customerOrderID,
		Err:             err,
	}
}
