package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"futures-ai/internal/contract"
	"futures-ai/internal/oracle"
)

// instructionFields 为指令解析神谕的输出契约，全部字段可空。
type instructionFields struct {
	Contract    *string `json:"contract"`
	OrderSide   *string `json:"order_side"`
	OrderType   *string `json:"order_type"`
	Quantity    *string `json:"quantity"`
	LimitPrice  *string `json:"limit_price"`
	TimeInForce *string `json:"time_in_force"`
	ReduceOnly  *bool   `json:"reduce_only"`
}

// FromInstruction 把一条自然语言交易指令翻译为委托草稿。
// 字段级翻译交给神谕完成；这里负责合约解析、安全默认值与来源标注。
// 方向与数量若指令未给出则保持 missing——提取流程绝不替操作者
// 虚构一笔交易的方向或大小。
func FromInstruction(ctx context.Context, o oracle.Oracle, text string, dir contract.Directory) (Draft, error) {
	prompt, err := oracle.BuildInstructionPrompt(text, dir)
	if err != nil {
		return Draft{}, err
	}

	raw, err := o.Interpret(ctx, prompt)
	if err != nil {
		return Draft{}, fmt.Errorf("指令解析失败: %w", err)
	}

	payload, err := oracle.ExtractJSON(raw)
	if err != nil {
		return Draft{}, err
	}

	var fields instructionFields
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Draft{}, fmt.Errorf("解析指令字段失败: %w", err)
	}

	d := Draft{
		Origin:      "instruction",
		Type:        TypeMarket,
		TimeInForce: TIFGoodTillCancel,
		Provenance: Provenance{
			Contract:    ConfidenceMissing,
			Side:        ConfidenceMissing,
			Type:        ConfidenceDefault,
			Quantity:    ConfidenceMissing,
			LimitPrice:  ConfidenceDefault,
			TimeInForce: ConfidenceDefault,
			ReduceOnly:  ConfidenceDefault,
		},
	}

	ref := stringValue(fields.Contract)
	if ref == "" {
		return Draft{}, fmt.Errorf("指令未指明合约: %w", contract.ErrUnresolvedContract)
	}
	resolved, err := dir.Resolve(ref)
	if err != nil {
		return Draft{}, err
	}
	d.Contract = resolved
	d.Resolved = true
	d.Provenance.Contract = ConfidenceExplicit

	switch strings.ToLower(stringValue(fields.OrderSide)) {
	case "buy":
		d.Side = SideBuy
		d.Provenance.Side = ConfidenceExplicit
	case "sell":
		d.Side = SideSell
		d.Provenance.Side = ConfidenceExplicit
	}

	switch strings.ToLower(stringValue(fields.OrderType)) {
	case "limit":
		d.Type = TypeLimit
		d.Provenance.Type = ConfidenceExplicit
	case "market":
		d.Type = TypeMarket
		d.Provenance.Type = ConfidenceExplicit
	}

	if qty := stringValue(fields.Quantity); qty != "" {
		if value, parseErr := decimal.NewFromString(qty); parseErr == nil && value.IsPositive() {
			d.Quantity.Contracts = value
			d.Provenance.Quantity = ConfidenceExplicit
		}
	}

	if price := stringValue(fields.LimitPrice); price != "" {
		if value, parseErr := decimal.NewFromString(price); parseErr == nil && value.IsPositive() {
			d.LimitPrice = value
			d.Provenance.LimitPrice = ConfidenceExplicit
		}
	}

	if tif := stringValue(fields.TimeInForce); tif != "" {
		if parsed, ok := ParseTimeInForce(tif); ok {
			d.TimeInForce = parsed
			d.Provenance.TimeInForce = ConfidenceExplicit
		}
	}

	if fields.ReduceOnly != nil {
		d.ReduceOnly = *fields.ReduceOnly
		d.Provenance.ReduceOnly = ConfidenceExplicit
	}

	return d, nil
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func normalizeUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
