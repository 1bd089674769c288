package venue

import (
	"errors"
	"fmt"
)

// NetworkError 表示请求未能到达场所或响应未能读取。
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("venue: 网络错误 (%s): %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// APIError 表示场所返回了非 2xx 状态码。
// 4xx 为调用方输入问题，不应重试；5xx 可由调用方决定是否重试。
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("venue: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable 判断错误是否适合由调用方发起重试。
// 执行器本身绝不自动重试：已签名的变更请求在没有新幂等令牌的情况下
// 重发可能造成重复成交。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}

	return false
}
