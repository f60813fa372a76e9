package data

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/opsxjacky/marketdata-loader/internal/frame"
	"github.com/opsxjacky/marketdata-loader/pkg/types"
)

// ErrNoIndex 数据表未设置时间索引
var ErrNoIndex = errors.New("frame has no time index")

// Trades 将标准成交数据表转换为成交记录
func Trades(f *frame.Frame) ([]types.TradeTick, error) {
	cols, err := columnsOf(f, tardisTradeSchema.columns)
	if err != nil {
		return nil, err
	}
	index := f.Index()

	out := make([]types.TradeTick, f.Len())
	for i := range out {
		price, _, err := toDecimal(cols["price"][i])
		if err != nil {
			return nil, fmt.Errorf("row %d price: %w", i+1, err)
		}
		qty, _, err := toDecimal(cols["quantity"][i])
		if err != nil {
			return nil, fmt.Errorf("row %d quantity: %w", i+1, err)
		}
		out[i] = types.TradeTick{
			Timestamp: index[i],
			Symbol:    frame.FormatValue(cols["symbol"][i]),
			TradeID:   frame.FormatValue(cols["trade_id"][i]),
			Price:     price,
			Quantity:  qty,
			Side:      types.ParseSide(frame.FormatValue(cols["side"][i])),
		}
	}
	return out, nil
}

// Quotes 将标准报价数据表转换为报价记录
func Quotes(f *frame.Frame) ([]types.QuoteTick, error) {
	cols, err := columnsOf(f, tardisQuoteSchema.columns)
	if err != nil {
		return nil, err
	}
	index := f.Index()

	out := make([]types.QuoteTick, f.Len())
	for i := range out {
		q := types.QuoteTick{Timestamp: index[i]}
		var bidPx, bidSz, askPx, askSz bool
		if q.BidPrice, bidPx, err = toDecimal(cols["bid_price"][i]); err != nil {
			return nil, fmt.Errorf("row %d bid_price: %w", i+1, err)
		}
		if q.BidSize, bidSz, err = toDecimal(cols["bid_size"][i]); err != nil {
			return nil, fmt.Errorf("row %d bid_size: %w", i+1, err)
		}
		if q.AskPrice, askPx, err = toDecimal(cols["ask_price"][i]); err != nil {
			return nil, fmt.Errorf("row %d ask_price: %w", i+1, err)
		}
		if q.AskSize, askSz, err = toDecimal(cols["ask_size"][i]); err != nil {
			return nil, fmt.Errorf("row %d ask_size: %w", i+1, err)
		}
		q.BidValid = bidPx && bidSz
		q.AskValid = askPx && askSz
		out[i] = q
	}
	return out, nil
}

// Bars 将K线数据表转换为K线记录
//
// open, high, low, close 必须存在; volume 可缺省; adj_close 缺省时使用收盘价.
func Bars(f *frame.Frame) ([]types.Bar, error) {
	if !f.HasIndex() {
		return nil, ErrNoIndex
	}
	colIndex := parseBarHeader(f.Columns())
	for _, name := range []string{"open", "high", "low", "close"} {
		if _, ok := colIndex[name]; !ok {
			return nil, fmt.Errorf("%w: %s", frame.ErrColumnNotFound, name)
		}
	}

	cols := make(map[string][]any, len(colIndex))
	for canonical, source := range colIndex {
		values, err := f.Column(source)
		if err != nil {
			return nil, err
		}
		cols[canonical] = values
	}
	index := f.Index()

	out := make([]types.Bar, f.Len())
	for i := range out {
		bar := types.Bar{Timestamp: index[i]}
		fields := []struct {
			name string
			dst  *decimal.Decimal
		}{
			{"open", &bar.Open},
			{"high", &bar.High},
			{"low", &bar.Low},
			{"close", &bar.Close},
			{"volume", &bar.Volume},
			{"adj_close", &bar.AdjClose},
		}
		for _, fd := range fields {
			values, ok := cols[fd.name]
			if !ok {
				continue
			}
			d, _, err := toDecimal(values[i])
			if err != nil {
				return nil, fmt.Errorf("row %d %s: %w", i+1, fd.name, err)
			}
			*fd.dst = d
		}
		if _, ok := cols["adj_close"]; !ok {
			bar.AdjClose = bar.Close
		}
		out[i] = bar
	}
	return out, nil
}

// parseBarHeader 常见表头写法映射到标准列名
func parseBarHeader(header []string) map[string]string {
	colIndex := make(map[string]string)
	for _, col := range header {
		switch col {
		case "Open", "open", "OPEN":
			colIndex["open"] = col
		case "High", "high", "HIGH":
			colIndex["high"] = col
		case "Low", "low", "LOW":
			colIndex["low"] = col
		case "Close", "close", "CLOSE":
			colIndex["close"] = col
		case "Volume", "volume", "VOLUME":
			colIndex["volume"] = col
		case "Adj Close", "adj_close", "AdjClose", "Adj_Close":
			colIndex["adj_close"] = col
		}
	}
	return colIndex
}

func columnsOf(f *frame.Frame, names []string) (map[string][]any, error) {
	if !f.HasIndex() {
		return nil, ErrNoIndex
	}
	cols := make(map[string][]any, len(names))
	for _, name := range names {
		values, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols[name] = values
	}
	return cols, nil
}

// toDecimal 第二个返回值表示是否有值
func toDecimal(v any) (decimal.Decimal, bool, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case decimal.Decimal:
		return x, true, nil
	case int64:
		return decimal.NewFromInt(x), true, nil
	case float64:
		return decimal.NewFromFloat(x), true, nil
	case string:
		if x == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(x)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("invalid decimal %s", strconv.Quote(x))
		}
		return d, true, nil
	default:
		return decimal.Zero, false, fmt.Errorf("unsupported numeric value %v (%T)", v, v)
	}
}
