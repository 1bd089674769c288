package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"futures-ai/internal/contract"
)

const instructionTemplate = `
你是一个期货交易指令解析器。给定一条自然语言交易指令和可选合约列表，
请把指令翻译为结构化字段。无法从指令中确定的字段必须返回 null，
绝对不要凭空编造方向或数量。

可选合约列表：
{{ .ContractsJSON }}

交易指令：
{{ .Instruction }}

请严格输出唯一的 JSON 对象，格式如下：
{
  "contract": "...",        // 合约 ID（数字字符串）或符号，无法确定填 null
  "order_side": "buy|sell", // 买卖方向，指令未说明填 null
  "order_type": "market|limit", // 订单类型，未说明填 null
  "quantity": "...",        // 数量（数值字符串），未说明填 null
  "limit_price": "...",     // 限价（数值字符串），非限价单或未说明填 null
  "time_in_force": "GTC|IOC|FOK|PO", // 有效期策略，未说明填 null
  "reduce_only": true|false // 是否只减仓，未说明填 null
}

注意：只输出 JSON，不要附加任何解释。
`

const narrativeTemplate = `
你是一个专业的加密货币期货分析师。请根据以下市场摘要，找出当前值得关注的
交易机会（最多 3 个），并用固定格式逐条描述。

市场摘要：
{{ .SummaryJSON }}

每个机会必须使用如下格式（字段名与顺序保持一致）：

Opportunity N:
Contract: <合约符号>
Action: <Buy|Sell>
Entry Price: <建议入场价>
Stop Loss: <止损价>
Take Profit: <止盈价>
Position Size: <small|medium|large>
Risk Level: <low|medium|high>
Rationale: <一句话理由>

若没有值得交易的机会，请直接回复 "No opportunities."。
`

var (
	instructionTmpl = template.Must(template.New("instruction").Parse(instructionTemplate))
	narrativeTmpl   = template.Must(template.New("narrative").Parse(narrativeTemplate))
)

type instructionPromptContext struct {
	Instruction   string
	ContractsJSON string
}

type narrativePromptContext struct {
	SummaryJSON string
}

// contractBrief 为提示词里呈现的合约摘要，避免把全部行情字段塞进上下文。
type contractBrief struct {
	ID     int64  `json:"id"`
	Symbol string `json:"symbol"`
	Index  string `json:"index"`
}

// BuildInstructionPrompt 渲染指令解析提示词。
func BuildInstructionPrompt(instruction string, dir contract.Directory) (string, error) {
	briefs := make([]contractBrief, 0, dir.Len())
	for _, c := range dir.All() {
		briefs = append(briefs, contractBrief{ID: c.ID, Symbol: c.Symbol, Index: c.Index})
	}

	contractsJSON, err := json.MarshalIndent(briefs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化合约列表失败: %w", err)
	}

	var buf bytes.Buffer
	if err := instructionTmpl.Execute(&buf, instructionPromptContext{
		Instruction:   instruction,
		ContractsJSON: string(contractsJSON),
	}); err != nil {
		return "", fmt.Errorf("渲染指令提示词失败: %w", err)
	}

	return buf.String(), nil
}

// BuildNarrativePrompt 渲染机会分析提示词。summary 为任意可序列化的市场摘要。
func BuildNarrativePrompt(summary interface{}) (string, error) {
	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化市场摘要失败: %w", err)
	}

	var buf bytes.Buffer
	if err := narrativeTmpl.Execute(&buf, narrativePromptContext{
		SummaryJSON: string(summaryJSON),
	}); err != nil {
		return "", fmt.Errorf("渲染分析提示词失败: %w", err)
	}

	return buf.String(), nil
}
