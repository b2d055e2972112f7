package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PostgresStore 托管数据库上的 Store 实现（database/sql + lib/pq）
// 过滤、排序和软删除条件都写在 SQL 里；不做重试
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore 创建 PostgresStore，db 由调用方负责关闭
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// 确保实现了接口
var _ Store = (*PostgresStore)(nil)

// pq SQLSTATE 码
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// wrapErr 唯一约束冲突映射为 ErrDuplicate，外键冲突映射为 ErrInvalidReference，其余包装为 BackendError
func wrapErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrDuplicate
		case pqForeignKeyViolation:
			return ErrInvalidReference
		}
	}
	return &BackendError{Op: op, Err: fmt.Errorf("failed to %s: %w", op, err)}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// setClause 构建 UPDATE ... SET 片段，占位符从 $1 开始递增
type setClause struct {
	sets []string
	args []any
}

func (c *setClause) add(column string, value any) {
	c.args = append(c.args, value)
	c.sets = append(c.sets, fmt.Sprintf("%s = $%d", column, len(c.args)))
}

// where 追加一个参数并返回它的占位符
func (c *setClause) where(value any) string {
	c.args = append(c.args, value)
	return fmt.Sprintf("$%d", len(c.args))
}

func (c *setClause) String() string {
	return strings.Join(c.sets, ", ")
}
