package repository

import (
	"errors"
	"fmt"
)

// ErrDuplicate 唯一约束冲突（phone / token / invite_code）
var ErrDuplicate = errors.New("duplicate record")

// ErrInvalidReference 外键指向的用户或用药不存在
var ErrInvalidReference = errors.New("referenced record does not exist")

// BackendError 后端传输或约束错误；对外只暴露操作名，不暴露驱动细节
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("store: %s failed", e.Op)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsBackendError 判断是否为后端错误（路由层据此返回 500）
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
