package service

import "errors"

// ErrUserNotFound 引用的用户不存在
var ErrUserNotFound = errors.New("user not found")
