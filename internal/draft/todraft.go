package draft

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"futures-ai/internal/contract"
)

// 仓位大小线索到净值占比的固定映射。
var sizeFractions = map[string]decimal.Decimal{
	"small":  decimal.NewFromFloat(0.01),
	"medium": decimal.NewFromFloat(0.05),
	"large":  decimal.NewFromFloat(0.10),
}

// marketThreshold 为市价/限价分类阈值：入场价与参考价偏离 1% 以内视为市价单。
var marketThreshold = decimal.NewFromFloat(0.01)

var priceCleanRe = regexp.MustCompile(`[^\d.]`)

// ParsePriceHint 把价格线索解析为数值，容忍千分位逗号与货币符号。
// 解析失败返回零值，调用方据此退回参考价。
func ParsePriceHint(hint string) decimal.Decimal {
	cleaned := priceCleanRe.ReplaceAllString(strings.TrimSpace(hint), "")
	if cleaned == "" {
		return decimal.Decimal{}
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}
	}
	return value
}

// ToDraft 把机会候选落地为委托草稿。
// 符号线索先精确后模糊解析；数量由仓位大小线索折算净值占比、
// 再按入场价换算，且不低于合约最小下单量；入场价贴近参考价时
// 默认市价单，否则以入场价挂限价——这只是便捷默认，
// 提交前仍需操作者确认或改写。
func ToDraft(c Opportunity, dir contract.Directory, equity decimal.Decimal) (Draft, error) {
	resolved, err := dir.ResolveFuzzy(c.SymbolHint)
	if err != nil {
		return Draft{}, fmt.Errorf("机会候选 %d 无法落地: %w", c.Index, err)
	}

	d := Draft{
		Origin:      "narrative",
		Contract:    resolved,
		Resolved:    true,
		Type:        TypeMarket,
		TimeInForce: TIFGoodTillCancel,
		Provenance: Provenance{
			Contract:    ConfidenceInferred,
			Side:        ConfidenceMissing,
			Type:        ConfidenceInferred,
			Quantity:    ConfidenceInferred,
			LimitPrice:  ConfidenceInferred,
			TimeInForce: ConfidenceDefault,
			ReduceOnly:  ConfidenceDefault,
		},
	}

	switch c.Action {
	case "buy":
		d.Side = SideBuy
		d.Provenance.Side = ConfidenceExplicit
	case "sell":
		d.Side = SideSell
		d.Provenance.Side = ConfidenceExplicit
	}

	reference := resolved.ReferencePrice()
	entry := ParsePriceHint(c.EntryPrice)
	if !entry.IsPositive() {
		entry = reference
	}

	fraction, ok := sizeFractions[strings.ToLower(strings.TrimSpace(c.PositionSize))]
	if !ok {
		fraction = sizeFractions[defaultPositionSize]
	}

	if entry.IsPositive() && equity.IsPositive() {
		quantity := equity.Mul(fraction).Div(entry)
		if quantity.LessThan(resolved.MinOrderSize) {
			quantity = resolved.MinOrderSize
		}
		d.Quantity.Contracts = quantity
	} else {
		d.Provenance.Quantity = ConfidenceMissing
	}

	if entry.IsPositive() && reference.IsPositive() {
		deviation := entry.Sub(reference).Abs().Div(reference)
		if deviation.GreaterThan(marketThreshold) {
			d.Type = TypeLimit
			d.LimitPrice = entry
		}
	}

	return d, nil
}
