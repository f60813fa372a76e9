package data

import (
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsxjacky/marketdata-loader/internal/frame"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCSVBarLoader(t *testing.T) {
	path := writeFile(t, "bars.csv", "timestamp,open,high,low,close\n2021-01-01,1,2,0.5,1.5\n2021-01-02,2,3,1,2\n")

	f, err := CSVBarLoader{}.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "timestamp", f.IndexName())
	assert.Equal(t, []time.Time{day(2021, 1, 1), day(2021, 1, 2)}, f.Index())
	assert.Equal(t, []string{"open", "high", "low", "close"}, f.Columns())

	want := map[string][]any{
		"open":  {"1", "2"},
		"high":  {"2", "3"},
		"low":   {"0.5", "1"},
		"close": {"1.5", "2"},
	}
	for name, values := range want {
		got, err := f.Column(name)
		require.NoError(t, err)
		assert.Equal(t, values, got, name)
	}
}

func TestCSVBarLoaderMixedFormats(t *testing.T) {
	path := writeFile(t, "bars.csv", "timestamp,close\n2021-01-01,1\n2021/01/02,2\n2021-01-03 12:30:00,3\n")

	f, err := CSVBarLoader{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		day(2021, 1, 1),
		day(2021, 1, 2),
		time.Date(2021, 1, 3, 12, 30, 0, 0, time.UTC),
	}, f.Index())
}

func TestCSVTickLoader(t *testing.T) {
	tests := []struct {
		name    string
		loader  CSVTickLoader
		content string
		want    []time.Time
		wantErr error
	}{
		{
			name:    "default column strict iso",
			loader:  CSVTickLoader{},
			content: "timestamp,bid,ask\n2021-01-01T00:00:00.5Z,1,2\n2021-01-01T00:00:01Z,1,2\n",
			want: []time.Time{
				time.Date(2021, 1, 1, 0, 0, 0, 500_000_000, time.UTC),
				time.Date(2021, 1, 1, 0, 0, 1, 0, time.UTC),
			},
		},
		{
			name:    "strict rejects mixed layouts",
			loader:  CSVTickLoader{},
			content: "timestamp,bid\n2021-01-01T00:00:00Z,1\n2021-01-02,2\n",
			wantErr: ErrParse,
		},
		{
			name:    "inferred accepts mixed layouts",
			loader:  CSVTickLoader{Format: Inferred()},
			content: "timestamp,bid\n2021-01-01T00:00:00Z,1\n2021-01-02,2\n",
			want:    []time.Time{day(2021, 1, 1), day(2021, 1, 2)},
		},
		{
			name:    "custom column with strftime format",
			loader:  CSVTickLoader{IndexColumn: "time", Format: Fixed("%Y%m%d %H:%M:%S")},
			content: "time,price\n20210101 09:30:00,10\n",
			want:    []time.Time{time.Date(2021, 1, 1, 9, 30, 0, 0, time.UTC)},
		},
		{
			name:    "custom column with go layout",
			loader:  CSVTickLoader{IndexColumn: "time", Format: Fixed("02.01.2006 15:04")},
			content: "time,price\n31.12.2020 23:59,10\n",
			want:    []time.Time{time.Date(2020, 12, 31, 23, 59, 0, 0, time.UTC)},
		},
		{
			name:    "fixed format mismatch",
			loader:  CSVTickLoader{Format: Fixed("%Y-%m-%d")},
			content: "timestamp,price\n01/02/2021,10\n",
			wantErr: ErrParse,
		},
		{
			name:    "missing index column",
			loader:  CSVTickLoader{IndexColumn: "ts"},
			content: "timestamp,price\n2021-01-01,10\n",
			wantErr: frame.ErrColumnNotFound,
		},
		{
			name:    "ragged row",
			loader:  CSVTickLoader{},
			content: "timestamp,price\n2021-01-01,10\n2021-01-02\n",
			wantErr: ErrParse,
		},
		{
			name:    "empty file",
			loader:  CSVTickLoader{},
			content: "",
			wantErr: frame.ErrNoHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "ticks.csv", tt.content)
			f, err := tt.loader.Load(path)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrParse)
				assert.Nil(t, f)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Index())
			assert.Equal(t, len(tt.want), f.Len())
		})
	}
}

func TestCSVTickLoaderPreservesColumns(t *testing.T) {
	path := writeFile(t, "ticks.csv", "price,timestamp,size,venue\n10.10,2021-01-01,3,XNAS\n")

	f, err := CSVTickLoader{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"price", "size", "venue"}, f.Columns())

	v, err := f.Value("price", 0)
	require.NoError(t, err)
	assert.Equal(t, "10.10", v)
}

func TestLoadersNonexistentPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")

	for _, sourceType := range SourceTypes() {
		t.Run(sourceType, func(t *testing.T) {
			loader, err := NewLoader(sourceType, Options{})
			require.NoError(t, err)
			assert.Equal(t, sourceType, loader.SourceType())

			f, err := loader.Load(path)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, ErrIO)
			assert.ErrorIs(t, err, fs.ErrNotExist)
			assert.Equal(t, KindIO, KindOf(err))
		})
	}
}

func TestCSVLoadersIdempotent(t *testing.T) {
	path := writeFile(t, "bars.csv", "timestamp,open,close\n2021-01-01,1,2\n2021-01-02,2,3\n")

	a, err := CSVBarLoader{}.Load(path)
	require.NoError(t, err)
	b, err := CSVBarLoader{}.Load(path)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.NotSame(t, a, b)
}

func TestNewLoaderUnknownSource(t *testing.T) {
	_, err := NewLoader("xlsx", Options{})
	assert.Error(t, err)
}
