package repository

import (
	"context"
	"database/sql"
)

// Queryer 事务内外通用的查询执行接口
// *sql.DB 和 *sql.Tx 都满足该接口；参与采集事务的仓库方法
// 显式接收 Queryer，由调用方决定跑在裸连接还是事务上
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
