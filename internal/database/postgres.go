package database

import (
	"database/sql"
	"fmt"

	"prawncare-monitor/internal/config"

	_ "github.com/lib/pq"
)

// NewPostgresDB 打开池塘数据库连接
// 监控端的读写都很轻（喂食计划、阈值、归档），连接池按配置收紧即可；
// ResilientDB 重连时也通过这里重新建连
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	// 建连即探活，坏配置在启动时暴露而不是第一个扫描周期
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
