package contract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnresolvedContract 表示给定引用无法匹配到任何合约。
var ErrUnresolvedContract = errors.New("contract: unresolved contract")

// Contract 描述场所提供的单个期货合约。
type Contract struct {
	ID           int64           `json:"id"`
	Symbol       string          `json:"symbol"`
	Index        string          `json:"index"`
	MinOrderSize decimal.Decimal `json:"min_order_size"`
	MarkPrice    decimal.Decimal `json:"mark_price"`
	LastPrice    decimal.Decimal `json:"last_price"`
}

// ReferencePrice 返回标记价，标记价缺失时退回最新成交价。
func (c Contract) ReferencePrice() decimal.Decimal {
	if c.MarkPrice.IsPositive() {
		return c.MarkPrice
	}
	return c.LastPrice
}

// Directory 为合约目录的只读快照，提供符号解析能力。
type Directory struct {
	contracts []Contract
}

// NewDirectory 构造目录。
func NewDirectory(contracts []Contract) Directory {
	return Directory{contracts: contracts}
}

// All 返回全部合约。
func (d Directory) All() []Contract {
	return d.contracts
}

// Len 返回合约数量。
func (d Directory) Len() int {
	return len(d.contracts)
}

// Resolve 按精确规则解析引用：纯数字视为合约 ID，
// 否则对符号与标的指数做大小写不敏感的全等匹配。
func (d Directory) Resolve(ref string) (Contract, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return Contract{}, fmt.Errorf("合约引用为空: %w", ErrUnresolvedContract)
	}

	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		for _, c := range d.contracts {
			if c.ID == id {
				return c, nil
			}
		}
		return Contract{}, fmt.Errorf("未找到 ID 为 %d 的合约: %w", id, ErrUnresolvedContract)
	}

	for _, c := range d.contracts {
		if strings.EqualFold(c.Symbol, trimmed) || strings.EqualFold(c.Index, trimmed) {
			return c, nil
		}
	}

	return Contract{}, fmt.Errorf("未找到符号 %q 对应的合约: %w", trimmed, ErrUnresolvedContract)
}

// ResolveFuzzy 先做精确匹配，失败后退化为双向子串包含匹配，
// 用于解析叙述文本中的符号线索。
func (d Directory) ResolveFuzzy(hint string) (Contract, error) {
	if c, err := d.Resolve(hint); err == nil {
		return c, nil
	}

	needle := strings.ToUpper(strings.TrimSpace(hint))
	if needle == "" {
		return Contract{}, fmt.Errorf("符号线索为空: %w", ErrUnresolvedContract)
	}

	for _, c := range d.contracts {
		symbol := strings.ToUpper(c.Symbol)
		index := strings.ToUpper(c.Index)
		if strings.Contains(symbol, needle) || strings.Contains(needle, symbol) ||
			(index != "" && (strings.Contains(index, needle) || strings.Contains(needle, index))) {
			return c, nil
		}
	}

	return Contract{}, fmt.Errorf("未找到与 %q 近似的合约: %w", hint, ErrUnresolvedContract)
}
