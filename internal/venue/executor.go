package venue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"futures-ai/internal/config"
	"futures-ai/internal/signer"
)

// 与场所约定的请求头。变更类请求携带账户标识与签名，
// 只读请求携带静态 API Key。
const (
	HeaderAccount   = "X-Account"
	HeaderSignature = "X-Signature"
	HeaderAPIKey    = "X-Api-Key"
)

// Executor 负责向场所发送请求并归一化传输与 HTTP 层错误。
// 它不做任何自动重试，重试策略由调用方掌握。
type Executor struct {
	baseURL    string
	apiKey     string
	signer     *signer.Signer
	httpClient *http.Client
	logger     *zap.Logger
}

// NewExecutor 创建执行器。sg 允许为 nil，此时仅只读接口可用。
func NewExecutor(cfg config.VenueConfig, sg *signer.Signer, logger *zap.Logger) (*Executor, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("venue: base_url 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Executor{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		signer:     sg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Do 发送一次请求并返回响应体。
// signed 为真时对 "{METHOD} {URL}\n{BODY}" 签名，body 即实际发送的
// 字节序列，中途不做任何重新序列化。非 2xx 响应归一化为 *APIError，
// 传输失败归一化为 *NetworkError。
func (e *Executor) Do(ctx context.Context, method, path string, body []byte, signed bool) ([]byte, error) {
	url := e.baseURL + path

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("venue: 构造请求失败: %w", err)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	if signed {
		if e.signer == nil {
			return nil, fmt.Errorf("venue: 变更类请求需要签名私钥: %w", signer.ErrKeyUnavailable)
		}
		sig, signErr := e.signer.Sign(method, url, body)
		if signErr != nil {
			return nil, fmt.Errorf("venue: 请求签名失败: %w", signErr)
		}
		req.Header.Set(HeaderAccount, e.signer.IdentityHex())
		req.Header.Set(HeaderSignature, sig)
	} else {
		req.Header.Set(HeaderAPIKey, e.apiKey)
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: fmt.Sprintf("%s %s", method, path), Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: fmt.Sprintf("read %s %s", method, path), Cause: err}
	}

	e.logger.Debug("场所请求完成",
		zap.String("method", method),
		zap.String("path", path),
		zap.Bool("signed", signed),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
