package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"futures-ai/internal/lifecycle"
	"futures-ai/internal/store"
)

// Journal 把委托状态变迁落盘到 SQLite，供事后审计与排障。
// 写入失败只记日志，绝不反向影响交易流程。
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

// New 初始化流水记录器，创建所需表结构。
func New(store *store.Store, logger *zap.Logger) (*Journal, error) {
	if store == nil {
		return nil, fmt.Errorf("journal: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &Journal{
		db:     store.DB(),
		logger: logger,
	}

	if err := j.initSchema(); err != nil {
		return nil, err
	}

	return j, nil
}

func (j *Journal) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS order_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	origin TEXT NOT NULL,
	contract_symbol TEXT NOT NULL,
	customer_order_id TEXT NOT NULL,
	state TEXT NOT NULL,
	detail TEXT NOT NULL,
	occurred_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_events_state ON order_events(state);
CREATE INDEX IF NOT EXISTS idx_order_events_contract ON order_events(contract_symbol);
`
	if _, err := j.db.Exec(stmt); err != nil {
		return fmt.Errorf("journal: 初始化表失败: %w", err)
	}
	return nil
}

// Record 写入单条状态变迁。
func (j *Journal) Record(ctx context.Context, e lifecycle.Event) {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO order_events (origin, contract_symbol, customer_order_id, state, detail, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Origin, e.ContractSymbol, e.CustomerOrderID, string(e.State), e.Detail,
		ts.UTC().Format(time.RFC3339),
	)
	if err != nil {
		j.logger.Warn("记录委托流水失败",
			zap.String("state", string(e.State)),
			zap.String("contract", e.ContractSymbol),
			zap.Error(err),
		)
	}
}

// ListEvents 按状态检索最近流水，state 为空时返回全部。
func (j *Journal) ListEvents(ctx context.Context, state lifecycle.State, limit int) ([]lifecycle.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT origin, contract_symbol, customer_order_id, state, detail, occurred_at FROM order_events`
	args := make([]interface{}, 0, 2)
	if state != "" {
		query += ` WHERE state = ?`
		args = append(args, string(state))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: 查询流水失败: %w", err)
	}
	defer rows.Close()

	events := make([]lifecycle.Event, 0, limit)
	for rows.Next() {
		var (
			e       lifecycle.Event
			stateS  string
			created string
		)
		if scanErr := rows.Scan(&e.Origin, &e.ContractSymbol, &e.CustomerOrderID, &stateS, &e.Detail, &created); scanErr != nil {
			return nil, fmt.Errorf("journal: 解析流水失败: %w", scanErr)
		}

		e.State = lifecycle.State(stateS)
		if ts, parseErr := time.Parse(time.RFC3339, created); parseErr == nil {
			e.Time = ts
		}

		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: 读取流水失败: %w", err)
	}

	return events, nil
}
