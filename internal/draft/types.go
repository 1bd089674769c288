package draft

import (
	"github.com/shopspring/decimal"

	"futures-ai/internal/contract"
)

// Side 表示买卖方向。
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType 表示订单类型。
type OrderType string

const (
	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
)

// TimeInForce 表示订单有效期策略。
type TimeInForce string

const (
	TIFGoodTillCancel TimeInForce = "GTC"
	TIFImmediate      TimeInForce = "IOC"
	TIFFillOrKill     TimeInForce = "FOK"
	TIFPostOnly       TimeInForce = "PO"
)

// ParseTimeInForce 解析有效期策略，大小写不敏感。
func ParseTimeInForce(s string) (TimeInForce, bool) {
	switch TimeInForce(normalizeUpper(s)) {
	case TIFGoodTillCancel:
		return TIFGoodTillCancel, true
	case TIFImmediate:
		return TIFImmediate, true
	case TIFFillOrKill:
		return TIFFillOrKill, true
	case TIFPostOnly:
		return TIFPostOnly, true
	default:
		return "", false
	}
}

// Valid 判断取值是否位于固定枚举内。
func (t TimeInForce) Valid() bool {
	_, ok := ParseTimeInForce(string(t))
	return ok
}

// Confidence 标记字段的来源可信度。
type Confidence string

const (
	// ConfidenceExplicit 字段由输入明确给出。
	ConfidenceExplicit Confidence = "explicit"
	// ConfidenceInferred 字段由线索推导得出。
	ConfidenceInferred Confidence = "inferred"
	// ConfidenceDefault 字段取了安全默认值。
	ConfidenceDefault Confidence = "default"
	// ConfidenceMissing 字段缺失，提交前必须由操作者补齐。
	ConfidenceMissing Confidence = "missing"
)

// Provenance 记录草稿各字段的来源。
type Provenance struct {
	Contract    Confidence
	Side        Confidence
	Type        Confidence
	Quantity    Confidence
	LimitPrice  Confidence
	TimeInForce Confidence
	ReduceOnly  Confidence
}

// Quantity 以三种单位之一表示委托数量。
// 合法草稿任一时刻只允许一个单位非零，校验阶段强制该约束。
type Quantity struct {
	Steps     decimal.Decimal
	Contracts decimal.Decimal
	Assets    decimal.Decimal
}

// Units 返回已填充的单位名列表。
func (q Quantity) Units() []string {
	units := make([]string, 0, 1)
	if !q.Steps.IsZero() {
		units = append(units, "steps")
	}
	if !q.Contracts.IsZero() {
		units = append(units, "contracts")
	}
	if !q.Assets.IsZero() {
		units = append(units, "assets")
	}
	return units
}

// Value 返回唯一填充单位的数值；未填充或多单位时 ok 为假。
func (q Quantity) Value() (decimal.Decimal, string, bool) {
	units := q.Units()
	if len(units) != 1 {
		return decimal.Decimal{}, "", false
	}
	switch units[0] {
	case "steps":
		return q.Steps, "steps", true
	case "contracts":
		return q.Contracts, "contracts", true
	default:
		return q.Assets, "assets", true
	}
}

// Draft 为一笔待确认的委托草稿，可能来自结构化指令、
// 自然语言指令或机会叙述。
type Draft struct {
	Contract    contract.Contract
	Resolved    bool
	Side        Side
	Type        OrderType
	LimitPrice  decimal.Decimal
	TimeInForce TimeInForce
	ReduceOnly  bool
	Quantity    Quantity
	Provenance  Provenance
	Origin      string
}

// Opportunity 为从叙述文本中提取的弱结构化交易机会，
// 价格线索保留原始文本形式，解析推迟到 ToDraft。
// 它只在构建草稿时消费一次，不做持久化。
type Opportunity struct {
	Index        int
	SymbolHint   string
	Action       string
	EntryPrice   string
	StopLoss     string
	TakeProfit   string
	PositionSize string
	RiskLevel    string
	Rationale    string
}
