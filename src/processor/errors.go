package processor

import (
	"errors"
	"fmt"
)

// 错误分类
var (
	ErrSchema          = errors.New("schema error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrMalformedInput  = errors.New("malformed input")
)

// SchemaError 输入表缺少必需列
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: table %s is missing required column %q", e.Table, e.Column)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// DuplicateKeyError 合并时某一侧聚合结果出现重复的 (航线, 年, 月)
type DuplicateKeyError struct {
	Side string
	Key  RouteMonthKey
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key in %s aggregates: %s %04d-%02d", e.Side, e.Key.Route, e.Key.Year, e.Key.Month)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
