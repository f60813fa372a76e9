package data

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindIO     Kind = iota + 1 // 路径不存在, 不可读, 无权限
	KindParse                  // 行格式错误, 时间戳无法解析
	KindSchema                 // 缺少预期的列
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// 用于 errors.Is 判断类别
var (
	ErrIO     = &Error{Kind: KindIO}
	ErrParse  = &Error{Kind: KindParse}
	ErrSchema = &Error{Kind: KindSchema}
)

// Error 加载失败
type Error struct {
	Kind Kind
	Op   string // 加载器名称
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error", e.Kind)
	}
	return fmt.Sprintf("%s %s: %s error: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同类别的 *Error 视为匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Err == nil
}

// KindOf 返回错误类别, 非 *Error 返回 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, op, path string, err error) error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
