package data

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/opsxjacky/marketdata-loader/internal/frame"
)

// Tardis CSV 的本地接收时间戳列, 整数微秒
const tardisIndexColumn = "local_timestamp"

// canonicalSchema 标准输出格式: 源列重命名表, 输出列顺序, 以及逐列的归一化规则
type canonicalSchema struct {
	rename   map[string]string // 源列名 -> 标准列名
	columns  []string          // 输出列, 按顺序
	decimals []string
	upper    []string
}

var tardisTradeSchema = canonicalSchema{
	rename: map[string]string{
		"id":     "trade_id",
		"amount": "quantity",
	},
	columns:  []string{"symbol", "trade_id", "price", "quantity", "side"},
	decimals: []string{"price", "quantity"},
	upper:    []string{"side"},
}

var tardisQuoteSchema = canonicalSchema{
	rename: map[string]string{
		"ask_amount": "ask_size",
		"bid_amount": "bid_size",
	},
	columns:  []string{"bid_price", "ask_price", "bid_size", "ask_size"},
	decimals: []string{"bid_price", "ask_price", "bid_size", "ask_size"},
}

// sourceColumns 返回源文件中必须存在的列名
func (s canonicalSchema) sourceColumns() []string {
	reverse := make(map[string]string, len(s.rename))
	for from, to := range s.rename {
		reverse[to] = from
	}
	out := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		if from, ok := reverse[c]; ok {
			out = append(out, from)
		} else {
			out = append(out, c)
		}
	}
	return out
}

func (s canonicalSchema) normalize(f *frame.Frame) (*frame.Frame, error) {
	var missing []string
	for _, c := range s.sourceColumns() {
		if !f.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", frame.ErrColumnNotFound, strings.Join(missing, ", "))
	}

	f, err := f.Rename(s.rename)
	if err != nil {
		return nil, err
	}
	for _, c := range s.upper {
		if f, err = f.Apply(c, upperCell); err != nil {
			return nil, err
		}
	}
	for _, c := range s.decimals {
		if f, err = f.Apply(c, decimalCell); err != nil {
			return nil, err
		}
	}
	return f.Select(s.columns...)
}

func upperCell(v any) (any, error) {
	if s, ok := v.(string); ok {
		return strings.ToUpper(s), nil
	}
	return v, nil
}

// decimalCell 空单元格转为 nil
func decimalCell(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q", x)
		}
		return d, nil
	case decimal.Decimal:
		return x, nil
	default:
		return nil, fmt.Errorf("unsupported decimal value %v (%T)", v, v)
	}
}

// TardisTradeLoader Tardis 逐笔成交 CSV 加载器
//
// 输出列固定为 symbol, trade_id, price, quantity, side, 以 local_timestamp 为索引.
type TardisTradeLoader struct{}

// SourceType 返回数据源类型
func (TardisTradeLoader) SourceType() string {
	return SourceTardisTrades
}

// Load 加载成交数据
func (l TardisTradeLoader) Load(path string) (*frame.Frame, error) {
	return loadTardis(l.SourceType(), path, tardisTradeSchema)
}

// TardisQuoteLoader Tardis 报价 CSV 加载器
//
// 输出列固定为 bid_price, ask_price, bid_size, ask_size, 以 local_timestamp 为索引.
type TardisQuoteLoader struct{}

// SourceType 返回数据源类型
func (TardisQuoteLoader) SourceType() string {
	return SourceTardisQuotes
}

// Load 加载报价数据
func (l TardisQuoteLoader) Load(path string) (*frame.Frame, error) {
	return loadTardis(l.SourceType(), path, tardisQuoteSchema)
}

func loadTardis(op, path string, schema canonicalSchema) (*frame.Frame, error) {
	raw, err := readCSVFile(op, path)
	if err != nil {
		return nil, err
	}
	f, err := raw.SetIndex(tardisIndexColumn, parseEpochMicros)
	if err != nil {
		return nil, newError(KindParse, op, path, err)
	}
	f, err = schema.normalize(f)
	if err != nil {
		return nil, newError(KindParse, op, path, err)
	}
	return f, nil
}
