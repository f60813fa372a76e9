package data

import (
	"fmt"

	"github.com/opsxjacky/marketdata-loader/internal/frame"
)

// Loader 数据加载器接口
type Loader interface {
	// Load 读取文件并返回以时间为索引的数据表
	Load(path string) (*frame.Frame, error)

	// SourceType 数据源类型
	SourceType() string
}

// 数据源类型
const (
	SourceCSVTicks     = "csv_ticks"
	SourceCSVBars      = "csv_bars"
	SourceTardisTrades = "tardis_trades"
	SourceTardisQuotes = "tardis_quotes"
	SourceParquetTicks = "parquet_ticks"
	SourceParquetBars  = "parquet_bars"
)

// DefaultTimestampColumn 通用数据的默认时间戳列名
const DefaultTimestampColumn = "timestamp"

// SourceTypes 所有支持的数据源类型
func SourceTypes() []string {
	return []string{
		SourceCSVTicks,
		SourceCSVBars,
		SourceTardisTrades,
		SourceTardisQuotes,
		SourceParquetTicks,
		SourceParquetBars,
	}
}

// Options 加载参数, 只对支持该参数的数据源生效
type Options struct {
	IndexColumn string          // csv_ticks, parquet_ticks
	Format      TimestampFormat // csv_ticks
}

// NewLoader 按数据源类型创建加载器
func NewLoader(sourceType string, opts Options) (Loader, error) {
	switch sourceType {
	case SourceCSVTicks:
		return CSVTickLoader{IndexColumn: opts.IndexColumn, Format: opts.Format}, nil
	case SourceCSVBars:
		return CSVBarLoader{}, nil
	case SourceTardisTrades:
		return TardisTradeLoader{}, nil
	case SourceTardisQuotes:
		return TardisQuoteLoader{}, nil
	case SourceParquetTicks:
		return ParquetTickLoader{TimestampColumn: opts.IndexColumn}, nil
	case SourceParquetBars:
		return ParquetBarLoader{}, nil
	default:
		return nil, fmt.Errorf("unknown source type %q", sourceType)
	}
}

func orDefault(name string) string {
	if name == "" {
		return DefaultTimestampColumn
	}
	return name
}
