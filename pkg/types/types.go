package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnixNanos 自 Unix 纪元起的纳秒数
type UnixNanos int64

// Time 转换为 UTC 时间
func (n UnixNanos) Time() time.Time {
	return time.Unix(0, int64(n)).UTC()
}

// NanosFromTime 时间转换为纳秒时间戳
func NanosFromTime(t time.Time) UnixNanos {
	return UnixNanos(t.UnixNano())
}

// Side 主动成交方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideNone Side = "NONE"
)

// ParseSide 解析成交方向, 不区分大小写
func ParseSide(s string) Side {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B":
		return SideBuy
	case "SELL", "S":
		return SideSell
	default:
		return SideNone
	}
}

// TradeTick 逐笔成交 (标准字段)
type TradeTick struct {
	Timestamp time.Time // local_timestamp
	Symbol    string
	TradeID   string
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Side      Side
}

// QuoteTick 逐笔报价 (标准字段)
//
// 某一侧无报价时对应的 Valid 标志为 false.
type QuoteTick struct {
	Timestamp time.Time // local_timestamp
	BidPrice  decimal.Decimal
	AskPrice  decimal.Decimal
	BidSize   decimal.Decimal
	AskSize   decimal.Decimal
	BidValid  bool
	AskValid  bool
}

// Bar K线数据
type Bar struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	AdjClose  decimal.Decimal
}
