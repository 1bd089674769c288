package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"futures-ai/internal/contract"
	"futures-ai/internal/draft"
	"futures-ai/internal/venue"
)

func confirmDraft() draft.Draft {
	return draft.Draft{
		Contract:    contract.Contract{ID: 1, Symbol: "BTC-28MAR25"},
		Resolved:    true,
		Side:        draft.SideBuy,
		Type:        draft.TypeLimit,
		LimitPrice:  decimal.RequireFromString("80000"),
		TimeInForce: draft.TIFGoodTillCancel,
		Quantity:    draft.Quantity{Contracts: decimal.RequireFromString("2")},
		Origin:      "instruction",
	}
}

func TestConfirm_OnlyAffirmativeApproves(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
	}

	for _, tc := range cases {
		out := &bytes.Buffer{}
		c := NewCLIConfirmer(strings.NewReader(tc.input), out)

		got, err := c.Confirm(context.Background(), confirmDraft(), venue.OrderEstimate{})
		if err != nil {
			t.Fatalf("input %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("input %q: approved = %v, want %v", tc.input, got, tc.want)
		}
		if !strings.Contains(out.String(), "BTC-28MAR25") {
			t.Errorf("input %q: rendered draft must name the contract", tc.input)
		}
	}
}

func TestAskSide_RetriesUntilRecognized(t *testing.T) {
	out := &bytes.Buffer{}
	c := NewCLIConfirmer(strings.NewReader("hold\nshort\n"), out)

	side, ok, err := c.AskSide(context.Background(), confirmDraft())
	if err != nil {
		t.Fatalf("AskSide: %v", err)
	}
	if !ok || side != draft.SideSell {
		t.Errorf("side = %s, ok = %v", side, ok)
	}
}

func TestAskSide_EmptyLineAborts(t *testing.T) {
	c := NewCLIConfirmer(strings.NewReader("\n"), &bytes.Buffer{})

	_, ok, err := c.AskSide(context.Background(), confirmDraft())
	if err != nil {
		t.Fatalf("AskSide: %v", err)
	}
	if ok {
		t.Error("empty line must abort")
	}
}

func TestAskQuantity_RejectsNonPositive(t *testing.T) {
	c := NewCLIConfirmer(strings.NewReader("-5\nabc\n2.5\n"), &bytes.Buffer{})

	quantity, ok, err := c.AskQuantity(context.Background(), confirmDraft())
	if err != nil {
		t.Fatalf("AskQuantity: %v", err)
	}
	if !ok || !quantity.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("quantity = %s, ok = %v", quantity, ok)
	}
}
