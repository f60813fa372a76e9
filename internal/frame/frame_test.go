package frame

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDay(v any) (time.Time, error) {
	return time.Parse("2006-01-02", v.(string))
}

func TestReadCSVKeepsCellsVerbatim(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("timestamp,open,close\n2021-01-01,1,1.50\n2021-01-02,2,2\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, f.Len())
	assert.False(t, f.HasIndex())
	assert.Equal(t, []string{"timestamp", "open", "close"}, f.Columns())

	v, err := f.Value("close", 0)
	require.NoError(t, err)
	assert.Equal(t, "1.50", v)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2\n3\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("a,a\n1,2\n"))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestReadCSVHeaderOnly(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("\ufefftimestamp,price\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, []string{"timestamp", "price"}, f.Columns())
}

func TestSetIndexKeepsRowOrder(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("timestamp,v\n2021-01-03,a\n2021-01-01,b\n"))
	require.NoError(t, err)

	indexed, err := f.SetIndex("timestamp", parseDay)
	require.NoError(t, err)

	assert.Equal(t, "timestamp", indexed.IndexName())
	assert.Equal(t, []string{"v"}, indexed.Columns())
	idx := indexed.Index()
	require.Len(t, idx, 2)
	assert.Equal(t, 3, idx[0].Day())
	assert.Equal(t, 1, idx[1].Day())

	// source frame untouched
	assert.True(t, f.HasColumn("timestamp"))
	assert.False(t, f.HasIndex())
}

func TestSetIndexMissingColumn(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("ts,v\n2021-01-01,a\n"))
	require.NoError(t, err)

	_, err = f.SetIndex("timestamp", parseDay)
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestRenameSelectApply(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("id,amount,side,extra\n7,0.5,buy,x\n"))
	require.NoError(t, err)

	f, err = f.Rename(map[string]string{"id": "trade_id", "amount": "quantity", "missing": "ignored"})
	require.NoError(t, err)
	f, err = f.Apply("side", func(v any) (any, error) { return strings.ToUpper(v.(string)), nil })
	require.NoError(t, err)
	f, err = f.Select("side", "trade_id", "quantity")
	require.NoError(t, err)

	assert.Equal(t, []string{"side", "trade_id", "quantity"}, f.Columns())
	side, err := f.Value("side", 0)
	require.NoError(t, err)
	assert.Equal(t, "BUY", side)

	_, err = f.Select("extra")
	assert.ErrorIs(t, err, ErrColumnNotFound)

	_, err = f.Rename(map[string]string{"side": "trade_id"})
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestEqual(t *testing.T) {
	day := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	build := func(price string) *Frame {
		f, err := New("ts", []time.Time{day}, []string{"price"}, [][]any{{decimal.RequireFromString(price)}})
		require.NoError(t, err)
		return f
	}

	assert.True(t, build("1.5").Equal(build("1.50")))
	assert.False(t, build("1.5").Equal(build("1.6")))
	assert.False(t, build("1.5").Equal(nil))
}

func TestNewLengthMismatch(t *testing.T) {
	_, err := New("ts", []time.Time{{}}, []string{"a"}, [][]any{{1, 2}})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestWriteCSV(t *testing.T) {
	day := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	f, err := New("local_timestamp", []time.Time{day}, []string{"symbol", "price", "size"},
		[][]any{{"BTCUSDT"}, {decimal.RequireFromString("29000.5")}, {nil}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))
	assert.Equal(t, "local_timestamp,symbol,price,size\n2021-01-01T00:00:00Z,BTCUSDT,29000.5,\n", buf.String())
}

func TestWriteCSVFile(t *testing.T) {
	dir := t.TempDir()
	f, err := New("timestamp", []time.Time{time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}, []string{"close"}, [][]any{{"1.5"}})
	require.NoError(t, err)

	path := filepath.Join(dir, "bars.csv")
	require.NoError(t, WriteCSVFile(path, f))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,close\n2021-01-01T00:00:00Z,1.5\n", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteCSVFileMissingDir(t *testing.T) {
	f, err := New("timestamp", []time.Time{}, nil, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "missing", "bars.csv")
	assert.Error(t, WriteCSVFile(path, f))
	assert.NoFileExists(t, path)
}
