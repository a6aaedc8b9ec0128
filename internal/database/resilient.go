package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"

	"prawncare-monitor/internal/config"

	"go.uber.org/zap"
)

// StoreError 重连失败后的致命存储错误
// 调度器的下一个定时周期会自然重试，本次调用不再继续
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ResilientDB 带自动重连的数据库连接封装
// 连接丢失类错误触发一次重连后重试；其它错误原样透传
// 所有 Repository 共享同一个实例
type ResilientDB struct {
	mu     sync.Mutex
	db     *sql.DB
	open   func() (*sql.DB, error)
	logger *zap.Logger
}

// NewResilientDB 创建连接封装
// open 为重连工厂，重连时调用它获取新连接
func NewResilientDB(db *sql.DB, open func() (*sql.DB, error), logger *zap.Logger) *ResilientDB {
	return &ResilientDB{
		db:     db,
		open:   open,
		logger: logger,
	}
}

// NewResilientDBFromConfig 按配置建立连接并返回封装
func NewResilientDBFromConfig(cfg *config.DatabaseConfig, logger *zap.Logger) (*ResilientDB, error) {
	db, err := NewPostgresDB(cfg)
	if err != nil {
		return nil, err
	}
	open := func() (*sql.DB, error) {
		return NewPostgresDB(cfg)
	}
	return NewResilientDB(db, open, logger), nil
}

// QueryContext 执行查询，连接丢失时重连一次后重试
func (r *ResilientDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := r.do(ctx, "query", func(db *sql.DB) error {
		var err error
		rows, err = db.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// ExecContext 执行写入，连接丢失时重连一次后重试
func (r *ResilientDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := r.do(ctx, "exec", func(db *sql.DB) error {
		var err error
		res, err = db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// PingContext 探活
func (r *ResilientDB) PingContext(ctx context.Context) error {
	return r.do(ctx, "ping", func(db *sql.DB) error {
		return db.PingContext(ctx)
	})
}

// Close 关闭底层连接
func (r *ResilientDB) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// do 执行一次操作；连接类错误只做一次重连尝试
func (r *ResilientDB) do(ctx context.Context, op string, fn func(db *sql.DB) error) error {
	r.mu.Lock()
	db := r.db
	r.mu.Unlock()

	err := fn(db)
	if err == nil || !isConnError(err) {
		return err
	}

	r.logger.Warn("Database connection lost, attempting reconnect",
		zap.String("op", op),
		zap.Error(err),
	)

	if rerr := r.reconnect(ctx, db); rerr != nil {
		return &StoreError{Op: op, Err: fmt.Errorf("reconnect failed: %w (original: %v)", rerr, err)}
	}

	r.mu.Lock()
	db = r.db
	r.mu.Unlock()

	return fn(db)
}

// reconnect 建立新连接并替换旧连接
// 并发调用时只有第一个到达的会真正重开
func (r *ResilientDB) reconnect(ctx context.Context, stale *sql.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 其它调用方已经重连过了
	if r.db != stale {
		return nil
	}

	if r.open == nil {
		return errors.New("no reconnect factory configured")
	}

	newDB, err := r.open()
	if err != nil {
		return err
	}
	if err := newDB.PingContext(ctx); err != nil {
		newDB.Close()
		return err
	}

	stale.Close()
	r.db = newDB

	r.logger.Info("Database reconnected")
	return nil
}

// isConnError 判断是否为连接丢失/重置类错误
func isConnError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"the database system is shutting down",
		"terminating connection",
		"unexpected EOF",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
