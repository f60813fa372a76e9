package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"

	"github.com/opsxjacky/marketdata-loader/pkg/types"
)

type formatMode int

const (
	modeISO8601 formatMode = iota
	modeInferred
	modeFixed
)

// TimestampFormat 时间戳列的解析方式
//
// 零值为 ISO8601.
type TimestampFormat struct {
	mode   formatMode
	layout string
}

// ISO8601 严格模式: 接受 ISO 8601 系列格式, 但整列必须与首个值使用同一格式
func ISO8601() TimestampFormat {
	return TimestampFormat{mode: modeISO8601}
}

// Inferred 宽松模式: 逐值推断格式, 同一列可混用多种格式
//
// 逐值尝试候选格式, 比固定格式慢, 且只是尽力而为.
func Inferred() TimestampFormat {
	return TimestampFormat{mode: modeInferred}
}

// Fixed 固定格式: Go 时间布局 (2006-01-02) 或 strftime 格式 (%Y-%m-%d)
func Fixed(layout string) TimestampFormat {
	return TimestampFormat{mode: modeFixed, layout: layout}
}

// ParseTimestampFormat 解析配置中的格式名
func ParseTimestampFormat(s string) TimestampFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "iso8601", "iso":
		return ISO8601()
	case "inferred", "mixed":
		return Inferred()
	}
	return Fixed(s)
}

func (f TimestampFormat) String() string {
	switch f.mode {
	case modeInferred:
		return "inferred"
	case modeFixed:
		return f.layout
	default:
		return "iso8601"
	}
}

// 按具体程度排序, 带小数秒的布局同样匹配无小数秒的输入
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var inferredLayouts = append(append([]string(nil), isoLayouts...),
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006/01/02 15:04:05.999999999",
	"2006/01/02 15:04",
	"2006/01/02",
	"01/02/2006 15:04:05.999999999",
	"01/02/2006",
	"01-02-2006 15:04:05.999999999",
	"01-02-2006",
	"20060102 15:04:05.999999999",
	"20060102",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
)

// parser 返回单列使用的解析函数
//
// ISO8601 模式的解析函数会记住首个值的布局, 不可跨列复用.
func (f TimestampFormat) parser() func(v any) (time.Time, error) {
	switch f.mode {
	case modeInferred:
		return cellParser(func(s string) (time.Time, error) {
			t, _, err := parseAny(s, inferredLayouts)
			return t, err
		})
	case modeFixed:
		layout := f.layout
		return cellParser(func(s string) (time.Time, error) {
			var (
				t   time.Time
				err error
			)
			if strings.Contains(layout, "%") {
				t, err = timefmt.Parse(s, layout)
			} else {
				t, err = time.Parse(layout, s)
			}
			if err != nil {
				return time.Time{}, fmt.Errorf("parse %q with format %q: %w", s, layout, err)
			}
			return t.UTC(), nil
		})
	default:
		first := ""
		return cellParser(func(s string) (time.Time, error) {
			if first != "" {
				t, err := time.Parse(first, s)
				if err != nil {
					return time.Time{}, fmt.Errorf("value %q does not match layout %q of the first value", s, first)
				}
				return t.UTC(), nil
			}
			t, layout, err := parseAny(s, isoLayouts)
			if err != nil {
				return time.Time{}, err
			}
			first = layout
			return t, nil
		})
	}
}

func cellParser(parse func(s string) (time.Time, error)) func(v any) (time.Time, error) {
	return func(v any) (time.Time, error) {
		switch x := v.(type) {
		case string:
			return parse(strings.TrimSpace(x))
		case time.Time:
			return x.UTC(), nil
		default:
			return time.Time{}, fmt.Errorf("unsupported timestamp value %v (%T)", v, v)
		}
	}
}

func parseAny(s string, layouts []string) (time.Time, string, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), layout, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unable to parse date: %q", s)
}

// parseEpochMicros 将整数微秒时间戳转换为 UTC 时间
//
// 只接受整数, 不生成微秒以下的精度.
func parseEpochMicros(v any) (time.Time, error) {
	switch x := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp %q is not an integer microsecond value", x)
		}
		return time.UnixMicro(n).UTC(), nil
	case int64:
		return time.UnixMicro(x).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp value %v (%T)", v, v)
	}
}

// parseIndexValue 二进制文件中的时间戳列: 时间原样, 整数按纳秒, 字符串逐值推断, 空值为零值时间
func parseIndexValue(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return x.UTC(), nil
	case int64:
		return types.UnixNanos(x).Time(), nil
	case string:
		t, _, err := parseAny(strings.TrimSpace(x), inferredLayouts)
		return t, err
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp value %v (%T)", v, v)
	}
}
