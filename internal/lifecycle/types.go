package lifecycle

import (
	"fmt"
	"time"

	"futures-ai/internal/venue"
)

// State 表示委托在生命周期状态机中的位置。
// 推进只能沿 draft → validated → estimated → confirmed → submitted
// 单向进行，terminal 状态之后不再变迁。
type State string

const (
	StateDraft              State = "draft"
	StateValidated          State = "validated"
	StateEstimated          State = "estimated"
	StateEstimationRejected State = "estimation_rejected"
	StateConfirmed          State = "confirmed"
	StateCancelled          State = "cancelled"
	StateSubmitted          State = "submitted"
	StateAccepted           State = "accepted"
	StateRejected           State = "rejected"
	StateErrored            State = "errored"
)

// Terminal 判断状态是否为终态。
func (s State) Terminal() bool {
	switch s {
	case StateAccepted, StateRejected, StateErrored, StateCancelled, StateEstimationRejected:
		return true
	default:
		return false
	}
}

// ValidationError 描述草稿上的单个校验失败，校验阶段一次性收集全部问题。
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("字段 %s 校验失败: %s", e.Field, e.Reason)
}

// Event 为生命周期状态变迁的一条流水记录。
type Event struct {
	Time            time.Time
	Origin          string
	ContractSymbol  string
	CustomerOrderID string
	State           State
	Detail          string
}

// Outcome 汇总一次完整流水线运行的结果。
// 场所的拒绝信息逐字保留在 Result 中，不做改写。
type Outcome struct {
	State            State
	ValidationErrors []ValidationError
	Estimate         venue.OrderEstimate
	Result           venue.SubmitResult
	CustomerOrderID  string
	Err              error
}
