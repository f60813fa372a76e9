package data

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/opsxjacky/marketdata-loader/internal/frame"
)

const parquetReadBatch = 256

// ParquetTickLoader 通用逐笔数据 Parquet 加载器
//
// 列类型由文件自身的 schema 决定, 只将 TimestampColumn 提升为索引.
type ParquetTickLoader struct {
	TimestampColumn string // 默认 timestamp
}

// SourceType 返回数据源类型
func (ParquetTickLoader) SourceType() string {
	return SourceParquetTicks
}

// Load 加载逐笔数据
func (l ParquetTickLoader) Load(path string) (*frame.Frame, error) {
	return loadParquetIndexed(l.SourceType(), path, orDefault(l.TimestampColumn))
}

// ParquetBarLoader 通用K线 Parquet 加载器, 索引列固定为 timestamp
type ParquetBarLoader struct{}

// SourceType 返回数据源类型
func (ParquetBarLoader) SourceType() string {
	return SourceParquetBars
}

// Load 加载K线数据
func (l ParquetBarLoader) Load(path string) (*frame.Frame, error) {
	return loadParquetIndexed(l.SourceType(), path, DefaultTimestampColumn)
}

func loadParquetIndexed(op, path, column string) (*frame.Frame, error) {
	raw, err := readParquetFile(op, path)
	if err != nil {
		return nil, err
	}
	if !raw.HasColumn(column) {
		return nil, newError(KindSchema, op, path, fmt.Errorf("%w: %q", frame.ErrColumnNotFound, column))
	}
	f, err := raw.SetIndex(column, parseIndexValue)
	if err != nil {
		return nil, newError(KindParse, op, path, err)
	}
	return f, nil
}

type decodeFunc func(v parquet.Value) (any, error)

// readParquetFile 读取整个 Parquet 文件, 只支持扁平 schema
func readParquetFile(op, path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, newError(KindIO, op, path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, newError(KindIO, op, path, err)
	}
	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, newError(KindParse, op, path, err)
	}

	fields := pf.Schema().Fields()
	columns := make([]string, len(fields))
	decoders := make([]decodeFunc, len(fields))
	for i, field := range fields {
		if !field.Leaf() || field.Repeated() {
			return nil, newError(KindParse, op, path, fmt.Errorf("nested or repeated column %q is not supported", field.Name()))
		}
		columns[i] = field.Name()
		decoders[i] = valueDecoder(field.Type())
	}

	data := make([][]any, len(fields))
	buf := make([]parquet.Row, parquetReadBatch)
	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(rg, buf, decoders, data); err != nil {
			return nil, newError(KindParse, op, path, err)
		}
	}

	f, err := frame.New("", nil, columns, data)
	if err != nil {
		return nil, newError(KindParse, op, path, err)
	}
	return f, nil
}

func readRowGroup(rg parquet.RowGroup, buf []parquet.Row, decoders []decodeFunc, data [][]any) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			values := make([]any, len(decoders))
			for _, v := range row {
				c := v.Column()
				if c < 0 || c >= len(decoders) || v.IsNull() {
					continue
				}
				decoded, derr := decoders[c](v)
				if derr != nil {
					return derr
				}
				values[c] = decoded
			}
			for c := range data {
				data[c] = append(data[c], values[c])
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// valueDecoder 按逻辑类型选择解码方式, 无逻辑类型时按物理类型
func valueDecoder(t parquet.Type) decodeFunc {
	lt := t.LogicalType()
	switch {
	case lt != nil && lt.Timestamp != nil:
		unit := lt.Timestamp.Unit
		return func(v parquet.Value) (any, error) {
			n := v.Int64()
			switch {
			case unit.Millis != nil:
				return time.UnixMilli(n).UTC(), nil
			case unit.Micros != nil:
				return time.UnixMicro(n).UTC(), nil
			default:
				return time.Unix(0, n).UTC(), nil
			}
		}
	case lt != nil && lt.Date != nil:
		return func(v parquet.Value) (any, error) {
			return time.Unix(int64(v.Int32())*86400, 0).UTC(), nil
		}
	case lt != nil && lt.Decimal != nil:
		scale := lt.Decimal.Scale
		return func(v parquet.Value) (any, error) {
			switch v.Kind() {
			case parquet.Int32:
				return decimal.New(int64(v.Int32()), -scale), nil
			case parquet.Int64:
				return decimal.New(v.Int64(), -scale), nil
			default:
				return decimal.NewFromBigInt(signedBigInt(v.ByteArray()), -scale), nil
			}
		}
	}
	return plainValue
}

func plainValue(v parquet.Value) (any, error) {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean(), nil
	case parquet.Int32:
		return int64(v.Int32()), nil
	case parquet.Int64:
		return v.Int64(), nil
	case parquet.Float:
		return float64(v.Float()), nil
	case parquet.Double:
		return v.Double(), nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray()), nil
	default:
		return nil, fmt.Errorf("unsupported parquet value kind %s", v.Kind())
	}
}

// signedBigInt 大端补码
func signedBigInt(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return n
}
