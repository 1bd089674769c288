package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"futures-ai/internal/draft"
	"futures-ai/internal/venue"
)

// CLIConfirmer 在终端上出示草稿与成本预估，并征求操作者放行决定。
// 同一时刻只允许一次交互，扫描模式下多个候选串行确认。
type CLIConfirmer struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewCLIConfirmer 创建终端确认器。
func NewCLIConfirmer(in io.Reader, out io.Writer) *CLIConfirmer {
	return &CLIConfirmer{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm 渲染草稿与预估并读取决定，只有明确的肯定回答才放行。
func (c *CLIConfirmer) Confirm(ctx context.Context, d draft.Draft, estimate venue.OrderEstimate) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.renderDraft(d)
	c.renderEstimate(estimate)

	fmt.Fprint(c.out, "确认提交该委托? [y/N]: ")
	answer, err := c.readLine()
	if err != nil {
		return false, fmt.Errorf("读取确认输入失败: %w", err)
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// AskSide 向操作者补问买卖方向，空行表示放弃该草稿。
func (c *CLIConfirmer) AskSide(ctx context.Context, d draft.Draft) (draft.Side, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	for {
		fmt.Fprintf(c.out, "合约 %s 的买卖方向未给出, 请输入 (buy/sell, 空行放弃): ", d.Contract.Symbol)
		answer, err := c.readLine()
		if err != nil {
			return "", false, fmt.Errorf("读取方向输入失败: %w", err)
		}

		switch strings.ToLower(answer) {
		case "":
			return "", false, nil
		case "buy", "b", "long":
			return draft.SideBuy, true, nil
		case "sell", "s", "short":
			return draft.SideSell, true, nil
		default:
			fmt.Fprintln(c.out, "无法识别的方向, 请重新输入")
		}
	}
}

// AskQuantity 向操作者补问数量（张数），空行表示放弃该草稿。
func (c *CLIConfirmer) AskQuantity(ctx context.Context, d draft.Draft) (decimal.Decimal, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return decimal.Decimal{}, false, err
	}

	for {
		fmt.Fprintf(c.out, "合约 %s 的数量未给出, 请输入张数 (空行放弃): ", d.Contract.Symbol)
		answer, err := c.readLine()
		if err != nil {
			return decimal.Decimal{}, false, fmt.Errorf("读取数量输入失败: %w", err)
		}

		if answer == "" {
			return decimal.Decimal{}, false, nil
		}

		value, parseErr := decimal.NewFromString(answer)
		if parseErr != nil || !value.IsPositive() {
			fmt.Fprintln(c.out, "数量必须为正数, 请重新输入")
			continue
		}
		return value, true, nil
	}
}

func (c *CLIConfirmer) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *CLIConfirmer) renderDraft(d draft.Draft) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "====== 待确认委托 ======")
	fmt.Fprintf(c.out, "合约:     %s (ID %d)\n", d.Contract.Symbol, d.Contract.ID)
	fmt.Fprintf(c.out, "方向:     %s\n", d.Side)
	fmt.Fprintf(c.out, "类型:     %s\n", d.Type)
	if d.Type == draft.TypeLimit {
		fmt.Fprintf(c.out, "限价:     %s\n", d.LimitPrice)
	}
	if value, unit, ok := d.Quantity.Value(); ok {
		fmt.Fprintf(c.out, "数量:     %s (%s)\n", value, unit)
	}
	fmt.Fprintf(c.out, "有效期:   %s\n", d.TimeInForce)
	fmt.Fprintf(c.out, "只减仓:   %v\n", d.ReduceOnly)
	fmt.Fprintf(c.out, "来源:     %s\n", d.Origin)
}

func (c *CLIConfirmer) renderEstimate(estimate venue.OrderEstimate) {
	fmt.Fprintln(c.out, "------ 成本预估 ------")
	fmt.Fprintf(c.out, "交易费:   %s\n", estimate.TradingFee)
	fmt.Fprintf(c.out, "操作费:   %s\n", estimate.OperationalFee)
	fmt.Fprintf(c.out, "当前净值: %s -> %s\n", estimate.CurrentEquity, estimate.NewEquity)
	fmt.Fprintf(c.out, "当前杠杆: %s -> %s\n", estimate.CurrentLeverage, estimate.NewLeverage)
	if !estimate.EstimatedLiquidationPrice.IsZero() {
		fmt.Fprintf(c.out, "预估强平价: %s\n", estimate.EstimatedLiquidationPrice)
	}
}
