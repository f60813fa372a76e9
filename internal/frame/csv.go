package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoHeader 输入为空, 没有表头行
var ErrNoHeader = errors.New("csv has no header row")

// ReadCSV 读取带表头的 CSV, 返回未设置索引的数据表
//
// 每行字段数必须与表头一致.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		records = append(records, rec)
	}

	return FromRecords(header, records)
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}

// WriteCSV 将数据表写为 CSV, 索引列在首列
func WriteCSV(w io.Writer, f *Frame) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(f.columns)+1)
	if f.HasIndex() {
		header = append(header, f.indexName)
	}
	header = append(header, f.columns...)
	if err := writer.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for r := 0; r < f.rows; r++ {
		i := 0
		if f.HasIndex() {
			row[0] = f.index[r].Format(time.RFC3339Nano)
			i = 1
		}
		for c := range f.columns {
			row[i+c] = FormatValue(f.data[c][r])
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// FormatValue 单元格值的文本形式, nil 为空串
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// WriteCSVFile 写入临时文件后重命名, 失败时不留下半个文件
func WriteCSVFile(path string, f *Frame) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, f); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
