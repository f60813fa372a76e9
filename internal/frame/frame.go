// Package frame 提供列式数据表: 有序的行, 按名称寻址的列, 以及可选的时间索引.
//
// Frame 不可变, 所有变换都返回新的 Frame, 访问器返回副本.
package frame

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrDuplicateName  = errors.New("duplicate column name")
	ErrLengthMismatch = errors.New("column length mismatch")
	ErrRowOutOfRange  = errors.New("row out of range")
)

// Frame 列式数据表
type Frame struct {
	indexName string
	index     []time.Time
	columns   []string
	data      [][]any
	rows      int
}

// New 创建数据表, data[i] 是第 i 列的值
//
// index 为 nil 表示未设置索引.
func New(indexName string, index []time.Time, columns []string, data [][]any) (*Frame, error) {
	if len(columns) != len(data) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrLengthMismatch, len(columns), len(data))
	}

	rows := -1
	if index != nil {
		rows = len(index)
	}
	seen := make(map[string]bool, len(columns))
	for i, name := range columns {
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seen[name] = true
		if rows < 0 {
			rows = len(data[i])
		}
		if len(data[i]) != rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrLengthMismatch, name, len(data[i]), rows)
		}
	}
	if rows < 0 {
		rows = 0
	}

	f := &Frame{
		indexName: indexName,
		columns:   append([]string(nil), columns...),
		data:      make([][]any, len(data)),
		rows:      rows,
	}
	if index != nil {
		f.index = append([]time.Time(nil), index...)
	}
	for i := range data {
		f.data[i] = append([]any(nil), data[i]...)
	}
	return f, nil
}

// FromRecords 由表头和字符串行构造未设置索引的数据表, 单元格原样保留
func FromRecords(header []string, records [][]string) (*Frame, error) {
	data := make([][]any, len(header))
	for i := range data {
		data[i] = make([]any, len(records))
	}
	for r, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrLengthMismatch, r+1, len(rec), len(header))
		}
		for c, cell := range rec {
			data[c][r] = cell
		}
	}
	f, err := New("", nil, header, data)
	if err != nil {
		return nil, err
	}
	f.rows = len(records)
	return f, nil
}

// Len 返回行数
func (f *Frame) Len() int {
	return f.rows
}

// IndexName 返回索引列名
func (f *Frame) IndexName() string {
	return f.indexName
}

// HasIndex 是否已设置索引
func (f *Frame) HasIndex() bool {
	return f.index != nil
}

// Index 返回索引副本
func (f *Frame) Index() []time.Time {
	return append([]time.Time(nil), f.index...)
}

// Columns 返回列名副本, 保持列顺序
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// HasColumn 是否存在指定列
func (f *Frame) HasColumn(name string) bool {
	return f.position(name) >= 0
}

func (f *Frame) position(name string) int {
	for i, c := range f.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column 返回指定列的值副本
func (f *Frame) Column(name string) ([]any, error) {
	pos := f.position(name)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return append([]any(nil), f.data[pos]...), nil
}

// Value 返回单元格的值
func (f *Frame) Value(name string, row int) (any, error) {
	pos := f.position(name)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	if row < 0 || row >= f.rows {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	return f.data[pos][row], nil
}

// Rename 按映射重命名列, 映射中不存在的列名被忽略
func (f *Frame) Rename(mapping map[string]string) (*Frame, error) {
	columns := make([]string, len(f.columns))
	for i, c := range f.columns {
		if to, ok := mapping[c]; ok {
			columns[i] = to
		} else {
			columns[i] = c
		}
	}
	return f.derive(columns, f.data)
}

// Select 按给定顺序投影列, 其余列被丢弃
func (f *Frame) Select(names ...string) (*Frame, error) {
	data := make([][]any, len(names))
	for i, name := range names {
		pos := f.position(name)
		if pos < 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		data[i] = f.data[pos]
	}
	return f.derive(names, data)
}

// Apply 对指定列逐值变换
func (f *Frame) Apply(name string, fn func(v any) (any, error)) (*Frame, error) {
	pos := f.position(name)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	out := make([]any, f.rows)
	for r, v := range f.data[pos] {
		nv, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, r+1, err)
		}
		out[r] = nv
	}
	data := append([][]any(nil), f.data...)
	data[pos] = out
	return f.derive(f.columns, data)
}

// SetIndex 将指定列解析为时间并提升为索引, 该列从数据列中移除
//
// 行顺序保持不变.
func (f *Frame) SetIndex(name string, parse func(v any) (time.Time, error)) (*Frame, error) {
	pos := f.position(name)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	index := make([]time.Time, f.rows)
	for r, v := range f.data[pos] {
		t, err := parse(v)
		if err != nil {
			return nil, fmt.Errorf("index %q row %d: %w", name, r+1, err)
		}
		index[r] = t
	}

	columns := make([]string, 0, len(f.columns)-1)
	data := make([][]any, 0, len(f.columns)-1)
	for i, c := range f.columns {
		if i == pos {
			continue
		}
		columns = append(columns, c)
		data = append(data, f.data[i])
	}
	return &Frame{
		indexName: name,
		index:     index,
		columns:   columns,
		data:      data,
		rows:      f.rows,
	}, nil
}

func (f *Frame) derive(columns []string, data [][]any) (*Frame, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, c)
		}
		seen[c] = true
	}
	return &Frame{
		indexName: f.indexName,
		index:     f.index,
		columns:   append([]string(nil), columns...),
		data:      data,
		rows:      f.rows,
	}, nil
}

// Equal 逐元素比较两个数据表
func (f *Frame) Equal(o *Frame) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.rows != o.rows || f.indexName != o.indexName || len(f.columns) != len(o.columns) {
		return false
	}
	if (f.index == nil) != (o.index == nil) {
		return false
	}
	for i := range f.index {
		if !f.index[i].Equal(o.index[i]) {
			return false
		}
	}
	for c := range f.columns {
		if f.columns[c] != o.columns[c] {
			return false
		}
		for r := 0; r < f.rows; r++ {
			if !valueEqual(f.data[c][r], o.data[c][r]) {
				return false
			}
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		return ok && av.Equal(bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}
