package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"futures-ai/internal/contract"
)

const (
	pathContracts     = "/api/v1/contracts"
	pathAccount       = "/api/v1/account"
	pathOrderEstimate = "/api/v1/orders/estimate"
	pathOrders        = "/api/v1/orders"
)

// FetchContracts 拉取合约目录（只读，无签名）。
func (e *Executor) FetchContracts(ctx context.Context) (contract.Directory, error) {
	body, err := e.Do(ctx, http.MethodGet, pathContracts, nil, false)
	if err != nil {
		return contract.Directory{}, fmt.Errorf("拉取合约目录失败: %w", err)
	}

	var contracts []contract.Contract
	if err := json.Unmarshal(body, &contracts); err != nil {
		return contract.Directory{}, fmt.Errorf("解析合约目录失败: %w", err)
	}

	return contract.NewDirectory(contracts), nil
}

// FetchAccount 拉取账户概览（只读，无签名）。
func (e *Executor) FetchAccount(ctx context.Context) (Account, error) {
	body, err := e.Do(ctx, http.MethodGet, pathAccount, nil, false)
	if err != nil {
		return Account{}, fmt.Errorf("拉取账户信息失败: %w", err)
	}

	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		return Account{}, fmt.Errorf("解析账户信息失败: %w", err)
	}

	return account, nil
}

// EstimateOrder 请求场所对委托做成本预估（非变更类，无签名）。
// 2xx 响应中的 error 字段由调用方处理，这里不视为失败。
func (e *Executor) EstimateOrder(ctx context.Context, sub OrderSubmission) (OrderEstimate, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return OrderEstimate{}, fmt.Errorf("序列化预估请求失败: %w", err)
	}

	body, err := e.Do(ctx, http.MethodPost, pathOrderEstimate, payload, false)
	if err != nil {
		return OrderEstimate{}, err
	}

	var estimate OrderEstimate
	if err := json.Unmarshal(body, &estimate); err != nil {
		return OrderEstimate{}, fmt.Errorf("解析预估响应失败: %w", err)
	}

	return estimate, nil
}

// SubmitOrder 提交委托（变更类，签名请求）。
// 请求体只序列化一次，签名覆盖的正是实际发送的字节。
func (e *Executor) SubmitOrder(ctx context.Context, sub OrderSubmission) (SubmitResult, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("序列化委托失败: %w", err)
	}

	body, err := e.Do(ctx, http.MethodPost, pathOrders, payload, true)
	if err != nil {
		return SubmitResult{}, err
	}

	var result SubmitResult
	if err := json.Unmarshal(body, &result); err != nil {
		return SubmitResult{}, fmt.Errorf("解析提交响应失败: %w", err)
	}

	return result, nil
}
