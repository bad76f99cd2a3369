package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
	ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
	// ErrStoreUnavailable 存储层不可用或事务无法提交，调用方可稍后重试
	ErrStoreUnavailable = errors.New("存储服务暂不可用")
)

// PostgreSQL SQLSTATE
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// SQLState 提取 PostgreSQL 错误码，兼容 pgx 与 lib/pq 两种驱动
func SQLState(err error) (code, constraint string, ok bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code, pgxErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

func hasCode(err error, want string) bool {
	code, _, ok := SQLState(err)
	return ok && code == want
}

// IsUniqueViolation 唯一约束冲突
func IsUniqueViolation(err error) bool { return hasCode(err, codeUniqueViolation) }

// IsForeignKeyViolation 外键引用不存在
func IsForeignKeyViolation(err error) bool { return hasCode(err, codeForeignKeyViolation) }

// IsCheckViolation CHECK 约束不满足
func IsCheckViolation(err error) bool { return hasCode(err, codeCheckViolation) }

// IsExclusionViolation 排他约束冲突（时间段重叠）
func IsExclusionViolation(err error) bool { return hasCode(err, codeExclusionViolation) }

// IsConstraint 判断错误是否由指定名称的约束触发
func IsConstraint(err error, name string) bool {
	_, constraint, ok := SQLState(err)
	return ok && constraint == name
}

// IsRetryable 可串行化冲突或死锁，整个事务可安全重试
func IsRetryable(err error) bool {
	code, _, ok := SQLState(err)
	return ok && (code == codeSerializationFailure || code == codeDeadlockDetected)
}
