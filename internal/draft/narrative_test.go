package draft

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromNarrative_SingleLabeledBlock(t *testing.T) {
	text := "Opportunity 1:\nContract: BTC-28MAR25\nAction: Sell\nEntry Price: 82,000\nStop Loss: 83,500\nTake Profit: 80,000\nPosition Size: small\nRisk Level: medium\nRationale: reversal signal."

	candidates := FromNarrative(text)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Index != 1 {
		t.Errorf("index = %d, want 1", c.Index)
	}
	if c.SymbolHint != "BTC-28MAR25" {
		t.Errorf("symbol = %q, want BTC-28MAR25", c.SymbolHint)
	}
	if c.Action != "sell" {
		t.Errorf("action = %q, want sell", c.Action)
	}
	if c.EntryPrice != "82,000" {
		t.Errorf("entry price = %q, want 82,000", c.EntryPrice)
	}
	if c.StopLoss != "83,500" {
		t.Errorf("stop loss = %q, want 83,500", c.StopLoss)
	}
	if c.TakeProfit != "80,000" {
		t.Errorf("take profit = %q, want 80,000", c.TakeProfit)
	}
	if c.PositionSize != "small" || c.RiskLevel != "medium" {
		t.Errorf("size/risk = %q/%q", c.PositionSize, c.RiskLevel)
	}
	if c.Rationale != "reversal signal" {
		t.Errorf("rationale = %q", c.Rationale)
	}
}

func TestFromNarrative_MultipleBlocks(t *testing.T) {
	text := strings.Join([]string{
		"Some preamble from the analyst.",
		"Opportunity 1:",
		"Symbol: ETH-28MAR25",
		"Action: Buy",
		"Entry: 1900",
		"Rationale: breakout above resistance.",
		"Opportunity 2:",
		"Contract: SOL-28MAR25",
		"Action: Short",
		"Entry Price: 145.5",
	}, "\n")

	candidates := FromNarrative(text)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	if candidates[0].SymbolHint != "ETH-28MAR25" || candidates[0].Action != "buy" {
		t.Errorf("first candidate = %+v", candidates[0])
	}
	if candidates[0].EntryPrice != "1900" {
		t.Errorf("first entry = %q", candidates[0].EntryPrice)
	}
	if candidates[1].Action != "sell" {
		t.Errorf("short must normalize to sell, got %q", candidates[1].Action)
	}
	if candidates[1].Index != 2 {
		t.Errorf("second index = %d", candidates[1].Index)
	}
}

func TestFromNarrative_FieldFailureDegradesNotAborts(t *testing.T) {
	// 缺失标签与无法解析的字段只降级该字段，候选仍然产出
	text := "Opportunity 1:\nAction: Buy\nEntry Price: not-a-number\nsupport held on the retest."

	candidates := FromNarrative(text)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Action != "buy" {
		t.Errorf("action = %q", c.Action)
	}
	if c.PositionSize != "small" {
		t.Errorf("position size must default to small, got %q", c.PositionSize)
	}
	if c.RiskLevel != "medium" {
		t.Errorf("risk level must default to medium, got %q", c.RiskLevel)
	}
	if c.Rationale == "" {
		t.Errorf("rationale should fall back to the last sentence")
	}
}

func TestFromNarrative_ActionFallbackFirstKeyword(t *testing.T) {
	text := "Opportunity 1:\nContract: BTC-28MAR25\nMomentum favors a long entry before sellers return at 85,000."

	candidates := FromNarrative(text)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Action != "buy" {
		t.Errorf("first keyword is long, action = %q", candidates[0].Action)
	}
}

func TestFromNarrative_RelaxedFallback(t *testing.T) {
	text := "BTC-28MAR25 looks like a buy around 81000, while SOL-28MAR25 is a sell near 150."

	candidates := FromNarrative(text)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 relaxed candidates, got %d", len(candidates))
	}
	if candidates[0].SymbolHint != "BTC-28MAR25" || candidates[0].Action != "buy" || candidates[0].Index != 1 {
		t.Errorf("first relaxed candidate = %+v", candidates[0])
	}
	if candidates[0].EntryPrice != "81000" {
		t.Errorf("first relaxed entry = %q", candidates[0].EntryPrice)
	}
	if candidates[1].SymbolHint != "SOL-28MAR25" || candidates[1].Action != "sell" {
		t.Errorf("second relaxed candidate = %+v", candidates[1])
	}
}

func TestFromNarrative_NoSignalReturnsEmpty(t *testing.T) {
	for _, text := range []string{
		"",
		"The market looks quiet today. Nothing stands out.",
		"No opportunities.",
	} {
		if got := FromNarrative(text); len(got) != 0 {
			t.Errorf("FromNarrative(%q) = %d candidates, want 0", text, len(got))
		}
	}
}

func TestParsePriceHint(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"82,000", "82000"},
		{"$1,900.50", "1900.5"},
		{"145.5", "145.5"},
		{"not-a-number", "0"},
		{"", "0"},
	}

	for _, tc := range cases {
		got := ParsePriceHint(tc.in)
		want := decimal.RequireFromString(tc.want)
		if !got.Equal(want) {
			t.Errorf("ParsePriceHint(%q) = %s, want %s", tc.in, got, want)
		}
	}
}
