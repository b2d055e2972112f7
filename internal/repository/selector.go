package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medimate-backend/internal/config"
	"medimate-backend/internal/database"
)

// 后端名称（日志与健康检查使用）
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

const defaultProbeTimeout = 5 * time.Second

// Selection 启动时选定的存储后端，进程生命周期内不再改变
type Selection struct {
	Store   Store
	Backend string
	db      *sql.DB
}

// DB 远程后端的连接池；本地后端返回 nil
func (s *Selection) DB() *sql.DB { return s.db }

// Close 释放远程连接池；本地后端无操作
func (s *Selection) Close() error {
	return database.Close(s.db)
}

// Connector 打开托管数据库连接池
type Connector func(ctx context.Context, cfg config.SupabaseConfig) (*sql.DB, error)

type selectorOptions struct {
	connect Connector
	memory  []MemoryOption
}

// SelectorOption 配置 Open
type SelectorOption func(*selectorOptions)

// WithConnector 替换默认的 database.NewPostgresDB
func WithConnector(c Connector) SelectorOption {
	return func(o *selectorOptions) { o.connect = c }
}

// WithMemoryOptions 回落到本地存储时使用的选项
func WithMemoryOptions(opts ...MemoryOption) SelectorOption {
	return func(o *selectorOptions) { o.memory = append(o.memory, opts...) }
}

// Open 选择存储后端：URL 与 Key 齐全且探测成功时使用 PostgresStore，否则回落到 MemoryStore
// 探测失败不会返回错误，只记录 Warn
func Open(ctx context.Context, cfg config.SupabaseConfig, logger *zap.Logger, opts ...SelectorOption) *Selection {
	o := selectorOptions{connect: database.NewPostgresDB}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Configured() {
		logger.Warn("hosted database not configured, using in-memory store",
			zap.Bool("url_set", cfg.URL != ""),
			zap.Bool("key_set", cfg.Key != ""),
		)
		return local(logger, o.memory)
	}

	db, err := probe(ctx, cfg, o.connect)
	if err != nil {
		logger.Warn("hosted database probe failed, using in-memory store", zap.Error(err))
		return local(logger, o.memory)
	}

	logger.Info("store backend selected", zap.String("backend", BackendRemote))
	return &Selection{Store: NewPostgresStore(db), Backend: BackendRemote, db: db}
}

func local(logger *zap.Logger, opts []MemoryOption) *Selection {
	logger.Info("store backend selected", zap.String("backend", BackendLocal))
	return &Selection{Store: NewMemoryStore(opts...), Backend: BackendLocal}
}

// probe 连接并确认 users 表可读；缺表同样视为失败
func probe(ctx context.Context, cfg config.SupabaseConfig, connect Connector) (*sql.DB, error) {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM users LIMIT 1`).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		_ = db.Close()
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return db, nil
}
