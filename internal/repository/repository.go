package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	pkgerrors "campus-timetable/backend/pkg/errors"
)

// DefaultTxMaxRetries 可串行化事务冲突时的默认最大尝试次数
const DefaultTxMaxRetries = 3

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	// TxMaxRetries 串行化失败（40001）或死锁（40P01）时整个事务的最大尝试次数
	TxMaxRetries int

	Classroom     ClassroomRepository
	Course        CourseRepository
	Lecture       LectureRepository
	Timetable     TimetableRepository
	TimetableLink TimetableLinkRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	r := newRepositoryOn(db)
	r.TxMaxRetries = DefaultTxMaxRetries
	return r
}

func newRepositoryOn(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		Classroom:     NewClassroomRepo(db),
		Course:        NewCourseRepo(db),
		Lecture:       NewLectureRepo(db),
		Timetable:     NewTimetableRepo(db),
		TimetableLink: NewTimetableLinkRepo(db),
	}
}

// BeginTx 开启可串行化事务；未绑定数据库（单元测试中的 mock 聚合）时返回 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelSerializable})
	return tx, tx.Error
}

// WithTx 返回绑定到指定事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	txRepo := newRepositoryOn(tx)
	txRepo.TxMaxRetries = r.TxMaxRetries
	return txRepo
}

// Transaction 在可串行化事务中执行 fn，fn 返回错误或 panic 时整体回滚
// 遇到串行化冲突时整个 fn 重新执行，因此 fn 内不得有事务外的副作用
// 开启或提交事务失败时返回包装了 ErrStoreUnavailable 的错误；fn 的错误原样返回
// 未绑定数据库时直接以自身执行 fn（供 mock 聚合使用）
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}

	attempts := r.TxMaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = r.runTx(ctx, fn)
		if err == nil || !pkgerrors.IsRetryable(err) || attempt == attempts {
			return err
		}

		// 线性退避，避免并发请求同时重放
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 20 * time.Millisecond):
		}
	}
	return err
}

func (r *Repository) runTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: 开启事务失败: %w", pkgerrors.ErrStoreUnavailable, err)
	}

	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%w: 提交事务失败: %w", pkgerrors.ErrStoreUnavailable, err)
	}
	committed = true
	return nil
}

// Ping 数据库健康检查
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
