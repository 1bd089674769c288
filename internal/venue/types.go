package venue

import (
	"github.com/shopspring/decimal"
)

// OrderSubmission 为提交/预估接口的请求体。
// 数量字段三选一：quantity_steps / quantity_contracts / quantity_assets
// 同一时刻只允许出现一个；方向折叠进数量的符号（正买负卖）。
// CustomerOrderID 为每次提交独立生成的幂等令牌，预估时留空。
type OrderSubmission struct {
	CustomerOrderID   string           `json:"customer_order_id,omitempty"`
	ContractID        int64            `json:"contract_id"`
	OrderType         string           `json:"order_type"`
	LimitPrice        *decimal.Decimal `json:"limit_price,omitempty"`
	TimeInForce       string           `json:"time_in_force"`
	ReduceOnly        bool             `json:"reduce_only"`
	QuantitySteps     *decimal.Decimal `json:"quantity_steps,omitempty"`
	QuantityContracts *decimal.Decimal `json:"quantity_contracts,omitempty"`
	QuantityAssets    *decimal.Decimal `json:"quantity_assets,omitempty"`
	Timestamp         int64            `json:"timestamp"`
	RecvWindow        int64            `json:"recv_window"`
}

// OrderEstimate 为场所计算的成本预估快照。
// Error 非空时表示场所在 2xx 响应中报告了业务拒绝。
type OrderEstimate struct {
	TradingFee                decimal.Decimal `json:"trading_fee"`
	OperationalFee            decimal.Decimal `json:"operational_fee"`
	RealizedProfit            decimal.Decimal `json:"realized_profit"`
	TakerBaseAmount           decimal.Decimal `json:"taker_base_amount"`
	TakerQuoteAmount          decimal.Decimal `json:"taker_quote_amount"`
	CurrentEquity             decimal.Decimal `json:"current_equity"`
	NewEquity                 decimal.Decimal `json:"new_equity"`
	CurrentLeverage           decimal.Decimal `json:"current_leverage"`
	NewLeverage               decimal.Decimal `json:"new_leverage"`
	EstimatedLiquidationPrice decimal.Decimal `json:"estimated_liquidation_price"`
	Error                     string          `json:"error,omitempty"`
}

// SubmitResult 为订单提交接口的响应。
type SubmitResult struct {
	Status          string `json:"status"`
	Code            int    `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	TransactionHash string `json:"transaction_hash,omitempty"`
}

// Accepted 判断场所是否已接受该笔提交。
func (r SubmitResult) Accepted() bool {
	return r.Status == "success" || r.TransactionHash != ""
}

// Account 为账户概览，draft 构建时取 Equity 折算仓位大小。
type Account struct {
	Equity        decimal.Decimal `json:"equity"`
	Balance       decimal.Decimal `json:"balance"`
	MarginUsed    decimal.Decimal `json:"margin_used"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
}
