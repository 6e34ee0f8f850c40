package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"sced-data/internal/domain"
)

// TxRunner 事务执行器
// 把一个工作单元闭包跑在单个事务里：闭包内任何错误整体回滚；
// 暂时性存储错误（死锁/序列化冲突/断连）重开事务重放整个闭包，
// 其余错误（NotFound、参数校验等）立即返回，绝不重试。
// 闭包除存储端口外不得有副作用，保证重放安全。
type TxRunner struct {
	db          *sql.DB
	logger      *zap.Logger
	maxAttempts int
	backoff     time.Duration
	onRetry     func()
}

// NewTxRunner 创建事务执行器（默认最多 3 次尝试，退避 100ms 起倍增）
func NewTxRunner(db *sql.DB, logger *zap.Logger) *TxRunner {
	return &TxRunner{
		db:          db,
		logger:      logger,
		maxAttempts: 3,
		backoff:     100 * time.Millisecond,
	}
}

// OnRetry 注册重试回调（指标计数用），可选
func (r *TxRunner) OnRetry(fn func()) {
	r.onRetry = fn
}

// WithinTx 在单个事务内执行 fn；提交成功才返回 nil
func (r *TxRunner) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error
	backoff := r.backoff

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}

		if !IsTransient(err) {
			return err
		}

		lastErr = err
		if attempt < r.maxAttempts {
			if r.onRetry != nil {
				r.onRetry()
			}
			r.logger.Warn("transient failure, retrying transaction",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if !sleepWithContext(ctx, backoff) {
				return fmt.Errorf("transaction cancelled: %w", ctx.Err())
			}
			backoff *= 2
		}
	}

	return fmt.Errorf("transaction failed after %d attempts: %w", r.maxAttempts, lastErr)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			r.logger.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsTransient 暂时性错误分类器
// PostgreSQL SQLSTATE class 40（事务回滚：序列化失败 40001、死锁 40P01）
// 和 class 08（连接异常）视为暂时性；driver.ErrBadConn 和网络错误同理
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrTransient) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := pqErr.Code.Class()
		return class == "40" || class == "08"
	}
	return false
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
