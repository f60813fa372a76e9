package data

import (
	"errors"
	"io/fs"
	"os"

	"github.com/opsxjacky/marketdata-loader/internal/frame"
)

// CSVTickLoader 通用逐笔数据 CSV 加载器
//
// 索引列按 Format 解析为时间, 其余列原样保留并保持源顺序.
type CSVTickLoader struct {
	IndexColumn string          // 默认 timestamp
	Format      TimestampFormat // 默认 ISO8601
}

// SourceType 返回数据源类型
func (l CSVTickLoader) SourceType() string {
	return SourceCSVTicks
}

// Load 加载逐笔数据
func (l CSVTickLoader) Load(path string) (*frame.Frame, error) {
	return loadCSVIndexed(l.SourceType(), path, orDefault(l.IndexColumn), l.Format)
}

// CSVBarLoader 通用K线 CSV 加载器, 索引列固定为 timestamp, 逐值推断时间格式
type CSVBarLoader struct{}

// SourceType 返回数据源类型
func (CSVBarLoader) SourceType() string {
	return SourceCSVBars
}

// Load 加载K线数据
func (l CSVBarLoader) Load(path string) (*frame.Frame, error) {
	return loadCSVIndexed(l.SourceType(), path, DefaultTimestampColumn, Inferred())
}

func loadCSVIndexed(op, path, indexColumn string, format TimestampFormat) (*frame.Frame, error) {
	raw, err := readCSVFile(op, path)
	if err != nil {
		return nil, err
	}
	f, err := raw.SetIndex(indexColumn, format.parser())
	if err != nil {
		return nil, newError(KindParse, op, path, err)
	}
	return f, nil
}

// readCSVFile 读取整个 CSV 文件, 文件句柄在返回前关闭
func readCSVFile(op, path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, newError(KindIO, op, path, err)
	}
	defer file.Close()

	f, err := frame.ReadCSV(file)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, newError(KindIO, op, path, err)
		}
		return nil, newError(KindParse, op, path, err)
	}
	return f, nil
}
