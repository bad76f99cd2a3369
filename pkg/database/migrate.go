package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsTable 与业务表分开命名，便于和其他服务共用同一个库
const migrationsTable = "timetable_schema_migrations"

// RunMigrations 把排课库结构升级到内嵌 SQL 的最新版本。
// 排他约束依赖 btree_gist 扩展，由首个迁移创建；
// 上次迁移中断留下 dirty 标记时拒绝启动，需人工 force 后重试。
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	before, dirty, err := schemaVersion(m)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("排课库结构停在未完成的版本 %d，请人工修复后执行 migrate force", before)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("排课库结构已是最新", zap.Uint("schema_version", before))
		return nil
	case err != nil:
		return fmt.Errorf("从版本 %d 升级排课库结构失败: %w", before, err)
	}

	after, _, err := schemaVersion(m)
	if err != nil {
		return err
	}
	logger.Info("排课库结构已升级",
		zap.Uint("from_version", before),
		zap.Uint("to_version", after),
	)
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("读取内嵌迁移脚本失败: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("连接迁移目标库失败: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("创建迁移器失败: %w", err)
	}
	return m, nil
}

// schemaVersion 空库返回版本 0
func schemaVersion(m *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("读取排课库结构版本失败: %w", err)
	}
	return v, dirty, nil
}
