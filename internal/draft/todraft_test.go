package draft

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"futures-ai/internal/contract"
)

func opportunityDirectory() contract.Directory {
	return contract.NewDirectory([]contract.Contract{
		{
			ID:           1,
			Symbol:       "BTC-28MAR25",
			Index:        "BTC",
			MinOrderSize: decimal.RequireFromString("0.001"),
			MarkPrice:    decimal.RequireFromString("82000"),
		},
		{
			ID:           2,
			Symbol:       "SOL-28MAR25",
			Index:        "SOL",
			MinOrderSize: decimal.RequireFromString("0.1"),
			LastPrice:    decimal.RequireFromString("150"),
		},
	})
}

func TestToDraft_SizeFractionAndMarketClassification(t *testing.T) {
	c := Opportunity{
		Index:        1,
		SymbolHint:   "BTC-28MAR25",
		Action:       "sell",
		EntryPrice:   "82,000",
		PositionSize: "small",
	}

	d, err := ToDraft(c, opportunityDirectory(), decimal.RequireFromString("100000"))
	if err != nil {
		t.Fatalf("ToDraft returned error: %v", err)
	}

	if d.Side != SideSell || d.Provenance.Side != ConfidenceExplicit {
		t.Errorf("side = %s (%s)", d.Side, d.Provenance.Side)
	}
	// 入场价等于参考价：市价单
	if d.Type != TypeMarket {
		t.Errorf("type = %s, want market", d.Type)
	}
	// 100000 * 0.01 / 82000
	want := decimal.RequireFromString("100000").Mul(decimal.NewFromFloat(0.01)).Div(decimal.RequireFromString("82000"))
	if !d.Quantity.Contracts.Equal(want) {
		t.Errorf("quantity = %s, want %s", d.Quantity.Contracts, want)
	}
	if d.Provenance.Quantity != ConfidenceInferred {
		t.Errorf("quantity provenance = %s", d.Provenance.Quantity)
	}
}

func TestToDraft_SizeFractions(t *testing.T) {
	cases := []struct {
		size     string
		fraction string
	}{
		{"small", "0.01"},
		{"medium", "0.05"},
		{"large", "0.1"},
		{"whatever", "0.01"},
		{"", "0.01"},
	}

	equity := decimal.RequireFromString("82000")
	for _, tc := range cases {
		c := Opportunity{SymbolHint: "BTC", Action: "buy", EntryPrice: "82000", PositionSize: tc.size}
		d, err := ToDraft(c, opportunityDirectory(), equity)
		if err != nil {
			t.Fatalf("size %q: %v", tc.size, err)
		}
		if want := decimal.RequireFromString(tc.fraction); !d.Quantity.Contracts.Equal(want) {
			t.Errorf("size %q: quantity = %s, want %s", tc.size, d.Quantity.Contracts, want)
		}
	}
}

func TestToDraft_MinOrderSizeFloor(t *testing.T) {
	c := Opportunity{SymbolHint: "BTC", Action: "buy", EntryPrice: "82000", PositionSize: "small"}

	d, err := ToDraft(c, opportunityDirectory(), decimal.RequireFromString("100"))
	if err != nil {
		t.Fatalf("ToDraft returned error: %v", err)
	}
	if !d.Quantity.Contracts.Equal(decimal.RequireFromString("0.001")) {
		t.Errorf("quantity = %s, want floor 0.001", d.Quantity.Contracts)
	}
}

func TestToDraft_LimitWhenEntryDeviatesFromReference(t *testing.T) {
	// 80000 对 82000 偏离约 2.4%，超过 1% 阈值
	c := Opportunity{SymbolHint: "BTC", Action: "buy", EntryPrice: "80,000", PositionSize: "medium"}

	d, err := ToDraft(c, opportunityDirectory(), decimal.RequireFromString("100000"))
	if err != nil {
		t.Fatalf("ToDraft returned error: %v", err)
	}
	if d.Type != TypeLimit {
		t.Fatalf("type = %s, want limit", d.Type)
	}
	if !d.LimitPrice.Equal(decimal.RequireFromString("80000")) {
		t.Errorf("limit price = %s, want 80000", d.LimitPrice)
	}
}

func TestToDraft_ReferenceFallbackWhenEntryMissing(t *testing.T) {
	// 无入场价线索：数量按最新成交价折算，订单保持市价
	c := Opportunity{SymbolHint: "SOL-28MAR25", Action: "sell", PositionSize: "large"}

	d, err := ToDraft(c, opportunityDirectory(), decimal.RequireFromString("1500"))
	if err != nil {
		t.Fatalf("ToDraft returned error: %v", err)
	}
	if d.Type != TypeMarket {
		t.Errorf("type = %s, want market", d.Type)
	}
	// 1500 * 0.10 / 150 = 1
	if !d.Quantity.Contracts.Equal(decimal.RequireFromString("1")) {
		t.Errorf("quantity = %s, want 1", d.Quantity.Contracts)
	}
}

func TestToDraft_QuantityMissingWithoutEquity(t *testing.T) {
	c := Opportunity{SymbolHint: "BTC", Action: "buy", EntryPrice: "82000"}

	d, err := ToDraft(c, opportunityDirectory(), decimal.Decimal{})
	if err != nil {
		t.Fatalf("ToDraft returned error: %v", err)
	}
	if len(d.Quantity.Units()) != 0 {
		t.Errorf("quantity must stay empty, got %v", d.Quantity.Units())
	}
	if d.Provenance.Quantity != ConfidenceMissing {
		t.Errorf("quantity provenance = %s", d.Provenance.Quantity)
	}
}

func TestToDraft_UnresolvedSymbol(t *testing.T) {
	c := Opportunity{Index: 3, SymbolHint: "DOGE-28MAR25", Action: "buy"}

	_, err := ToDraft(c, opportunityDirectory(), decimal.RequireFromString("1000"))
	if !errors.Is(err, contract.ErrUnresolvedContract) {
		t.Fatalf("error = %v, want ErrUnresolvedContract", err)
	}
}
