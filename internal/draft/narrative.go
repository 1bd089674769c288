package draft

import (
	"regexp"
	"strconv"
	"strings"
)

// 叙述解析使用的固定模式。块内字段提取彼此独立：
// 任何一个字段解析失败只会让该字段退化为安全默认值，
// 绝不会丢弃整个候选或中断扫描。
var (
	opportunityHeaderRe = regexp.MustCompile(`(?mi)^[ \t]*opportunity[ \t]+(\d+)[ \t]*:`)

	contractLabelRe  = regexp.MustCompile(`(?mi)^[ \t]*(?:contract|symbol)[ \t]*:[ \t]*(.+)`)
	actionLabelRe    = regexp.MustCompile(`(?mi)^[ \t]*action[ \t]*:[ \t]*(.+)`)
	entryLabelRe     = regexp.MustCompile(`(?mi)^[ \t]*entry(?:[ \t]+price)?[ \t]*:[ \t]*(.+)`)
	stopLabelRe      = regexp.MustCompile(`(?mi)^[ \t]*stop(?:[ \t]+loss)?[ \t]*:[ \t]*(.+)`)
	targetLabelRe    = regexp.MustCompile(`(?mi)^[ \t]*(?:take[ \t]+profit|target)[ \t]*:[ \t]*(.+)`)
	sizeLabelRe      = regexp.MustCompile(`(?mi)^[ \t]*position[ \t]+size[ \t]*:[ \t]*(.+)`)
	riskLabelRe      = regexp.MustCompile(`(?mi)^[ \t]*risk(?:[ \t]+level)?[ \t]*:[ \t]*(.+)`)
	rationaleLabelRe = regexp.MustCompile(`(?mi)^[ \t]*rationale[ \t]*:[ \t]*(.+)`)

	symbolTokenRe = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,9}-[A-Z0-9]{2,10}\b`)
	buyKeywordRe  = regexp.MustCompile(`(?i)\b(?:buy|long)\b`)
	sellKeywordRe = regexp.MustCompile(`(?i)\b(?:sell|short)\b`)
	numberRe      = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

	relaxedTripleRe = regexp.MustCompile(`\b([A-Z][A-Z0-9]{1,9}(?:-[A-Z0-9]{2,10})?)\b[^.\n]*?\b((?i:buy|sell|long|short))\b[^.\n]*?(\d[\d,]*(?:\.\d+)?)`)
)

const (
	defaultPositionSize = "small"
	defaultRiskLevel    = "medium"
)

// FromNarrative 从自由格式的分析叙述中提取交易机会候选。
// 文本先按 "Opportunity N:" 头部切块逐块提取；一个头部都找不到时
// 退化为一次宽松扫描，对每个 "符号 … buy|sell … 数值" 三元组
// 产出一个候选。该函数是纯函数且全函数：任何输入都返回一个
// （可能为空的）列表，永不报错。
func FromNarrative(text string) []Opportunity {
	headers := opportunityHeaderRe.FindAllStringSubmatchIndex(text, -1)
	if len(headers) == 0 {
		return relaxedScan(text)
	}

	candidates := make([]Opportunity, 0, len(headers))
	for i, header := range headers {
		blockStart := header[1]
		blockEnd := len(text)
		if i+1 < len(headers) {
			blockEnd = headers[i+1][0]
		}

		index := i + 1
		if parsed, err := strconv.Atoi(text[header[2]:header[3]]); err == nil {
			index = parsed
		}

		candidates = append(candidates, parseBlock(index, text[blockStart:blockEnd]))
	}

	return candidates
}

// parseBlock 对单个机会块做字段级提取，每个字段独立失败、独立降级。
func parseBlock(index int, block string) Opportunity {
	c := Opportunity{
		Index:        index,
		PositionSize: defaultPositionSize,
		RiskLevel:    defaultRiskLevel,
	}

	c.SymbolHint = labelValue(contractLabelRe, block)
	if c.SymbolHint == "" {
		c.SymbolHint = symbolTokenRe.FindString(block)
	}

	c.Action = normalizeAction(labelValue(actionLabelRe, block))
	if c.Action == "" {
		c.Action = firstActionKeyword(block)
	}

	c.EntryPrice = labelValue(entryLabelRe, block)
	if c.EntryPrice == "" {
		c.EntryPrice = numberNearKeyword(block, "entry", "price")
	}

	c.StopLoss = labelValue(stopLabelRe, block)
	if c.StopLoss == "" {
		c.StopLoss = numberNearKeyword(block, "stop")
	}

	c.TakeProfit = labelValue(targetLabelRe, block)
	if c.TakeProfit == "" {
		c.TakeProfit = numberNearKeyword(block, "target", "profit")
	}

	if size := strings.ToLower(labelValue(sizeLabelRe, block)); size == "small" || size == "medium" || size == "large" {
		c.PositionSize = size
	}
	if risk := strings.ToLower(labelValue(riskLabelRe, block)); risk == "low" || risk == "medium" || risk == "high" {
		c.RiskLevel = risk
	}

	c.Rationale = strings.TrimSuffix(labelValue(rationaleLabelRe, block), ".")
	if c.Rationale == "" {
		c.Rationale = lastSentence(block)
	}

	return c
}

// relaxedScan 为无标签文本的兜底扫描，候选按出现顺序编号。
func relaxedScan(text string) []Opportunity {
	matches := relaxedTripleRe.FindAllStringSubmatch(text, -1)
	candidates := make([]Opportunity, 0, len(matches))

	for i, m := range matches {
		candidates = append(candidates, Opportunity{
			Index:        i + 1,
			SymbolHint:   m[1],
			Action:       normalizeAction(m[2]),
			EntryPrice:   m[3],
			PositionSize: defaultPositionSize,
			RiskLevel:    defaultRiskLevel,
			Rationale:    strings.TrimSpace(m[0]),
		})
	}

	return candidates
}

func labelValue(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func normalizeAction(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long":
		return "buy"
	case "sell", "short":
		return "sell"
	default:
		return ""
	}
}

// firstActionKeyword 返回块内最先出现的方向关键词。
func firstActionKeyword(block string) string {
	buyLoc := buyKeywordRe.FindStringIndex(block)
	sellLoc := sellKeywordRe.FindStringIndex(block)

	switch {
	case buyLoc == nil && sellLoc == nil:
		return ""
	case sellLoc == nil:
		return "buy"
	case buyLoc == nil:
		return "sell"
	case buyLoc[0] < sellLoc[0]:
		return "buy"
	default:
		return "sell"
	}
}

// numberNearKeyword 在任一关键词之后就近查找一个数值 token。
func numberNearKeyword(block string, keywords ...string) string {
	lower := strings.ToLower(block)
	for _, keyword := range keywords {
		idx := strings.Index(lower, keyword)
		if idx < 0 {
			continue
		}
		if num := numberRe.FindString(block[idx:]); num != "" {
			return num
		}
	}
	return ""
}

func lastSentence(block string) string {
	parts := strings.Split(block, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(parts[i]); s != "" {
			return s
		}
	}
	return ""
}
