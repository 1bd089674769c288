package draft

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"futures-ai/internal/contract"
)

// stubOracle 返回预置文本，并记录收到的提示词。
type stubOracle struct {
	response string
	err      error
	prompts  []string
}

func (s *stubOracle) Interpret(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func instructionDirectory() contract.Directory {
	return contract.NewDirectory([]contract.Contract{
		{ID: 1, Symbol: "BTC-28MAR25", Index: "BTC", MinOrderSize: decimal.RequireFromString("0.001")},
		{ID: 2, Symbol: "ETH-28MAR25", Index: "ETH", MinOrderSize: decimal.RequireFromString("0.01")},
	})
}

func TestFromInstruction_FullFields(t *testing.T) {
	o := &stubOracle{response: `{
		"contract": "BTC-28MAR25",
		"order_side": "sell",
		"order_type": "limit",
		"quantity": "2.5",
		"limit_price": "82000",
		"time_in_force": "IOC",
		"reduce_only": true
	}`}

	d, err := FromInstruction(context.Background(), o, "limit sell 2.5 BTC at 82000 ioc reduce only", instructionDirectory())
	if err != nil {
		t.Fatalf("FromInstruction returned error: %v", err)
	}

	if d.Contract.ID != 1 || !d.Resolved {
		t.Errorf("contract not resolved: %+v", d.Contract)
	}
	if d.Side != SideSell || d.Provenance.Side != ConfidenceExplicit {
		t.Errorf("side = %s (%s)", d.Side, d.Provenance.Side)
	}
	if d.Type != TypeLimit {
		t.Errorf("type = %s", d.Type)
	}
	if !d.LimitPrice.Equal(decimal.RequireFromString("82000")) {
		t.Errorf("limit price = %s", d.LimitPrice)
	}
	if d.TimeInForce != TIFImmediate {
		t.Errorf("time in force = %s", d.TimeInForce)
	}
	if !d.ReduceOnly {
		t.Errorf("reduce only not set")
	}
	if !d.Quantity.Contracts.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("quantity = %s", d.Quantity.Contracts)
	}

	if len(o.prompts) != 1 || !strings.Contains(o.prompts[0], "BTC-28MAR25") {
		t.Errorf("prompt must include the contract directory")
	}
}

func TestFromInstruction_NullFieldsGetDefaultsOrStayMissing(t *testing.T) {
	o := &stubOracle{response: `{
		"contract": "2",
		"order_side": null,
		"order_type": null,
		"quantity": null,
		"limit_price": null,
		"time_in_force": null,
		"reduce_only": null
	}`}

	d, err := FromInstruction(context.Background(), o, "do something with ETH", instructionDirectory())
	if err != nil {
		t.Fatalf("FromInstruction returned error: %v", err)
	}

	if d.Contract.ID != 2 {
		t.Errorf("numeric contract reference not resolved: %+v", d.Contract)
	}
	if d.Type != TypeMarket || d.Provenance.Type != ConfidenceDefault {
		t.Errorf("order type must default to market, got %s (%s)", d.Type, d.Provenance.Type)
	}
	if d.TimeInForce != TIFGoodTillCancel || d.Provenance.TimeInForce != ConfidenceDefault {
		t.Errorf("time in force must default to GTC, got %s", d.TimeInForce)
	}
	if d.ReduceOnly {
		t.Errorf("reduce only must default to false")
	}
	// 提取绝不虚构方向与数量
	if d.Provenance.Side != ConfidenceMissing {
		t.Errorf("side must stay missing, got %s", d.Provenance.Side)
	}
	if d.Provenance.Quantity != ConfidenceMissing {
		t.Errorf("quantity must stay missing, got %s", d.Provenance.Quantity)
	}
}

func TestFromInstruction_ToleratesProseAroundJSON(t *testing.T) {
	o := &stubOracle{response: "Sure, here is the parsed order:\n{\"contract\":\"BTC\",\"order_side\":\"buy\",\"quantity\":\"1\"}\nLet me know if you need anything else."}

	d, err := FromInstruction(context.Background(), o, "buy one bitcoin contract", instructionDirectory())
	if err != nil {
		t.Fatalf("FromInstruction returned error: %v", err)
	}
	if d.Contract.ID != 1 || d.Side != SideBuy {
		t.Errorf("draft = %+v", d)
	}
}

func TestFromInstruction_UnresolvedContract(t *testing.T) {
	cases := []string{
		`{"contract":"DOGE-28MAR25","order_side":"buy","quantity":"1"}`,
		`{"contract":null,"order_side":"buy","quantity":"1"}`,
	}

	for _, response := range cases {
		o := &stubOracle{response: response}
		_, err := FromInstruction(context.Background(), o, "buy some doge", instructionDirectory())
		if !errors.Is(err, contract.ErrUnresolvedContract) {
			t.Errorf("response %s: error = %v, want ErrUnresolvedContract", response, err)
		}
	}
}

func TestFromInstruction_OracleFailurePropagates(t *testing.T) {
	o := &stubOracle{err: errors.New("model unavailable")}
	if _, err := FromInstruction(context.Background(), o, "buy btc", instructionDirectory()); err == nil {
		t.Fatal("expected error when the oracle fails")
	}
}

func TestFromInstruction_MalformedQuantityStaysMissing(t *testing.T) {
	o := &stubOracle{response: `{"contract":"BTC","order_side":"buy","quantity":"a lot"}`}

	d, err := FromInstruction(context.Background(), o, "buy a lot of btc", instructionDirectory())
	if err != nil {
		t.Fatalf("FromInstruction returned error: %v", err)
	}
	if d.Provenance.Quantity != ConfidenceMissing {
		t.Errorf("unparseable quantity must stay missing, got %s", d.Provenance.Quantity)
	}
}
