package reader

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemRow struct {
	ID   int64  `parquet:"id"`
	Name string `parquet:"name"`
}

type keyRow struct {
	ID    [16]byte `parquet:"id,uuid"`
	Fixed [16]byte `parquet:"fixed"`
	Raw   []byte   `parquet:"raw"`
}

type amountRow struct {
	ID     int32   `parquet:"id"`
	Amount int64   `parquet:"amount,decimal(2:18)"`
	Note   *string `parquet:"note,optional"`
}

func writeParquet[T any](t *testing.T, path string, rows []T) string {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	w := parquet.NewGenericWriter[T](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return path
}

func TestReader_ReadAll(t *testing.T) {
	path := writeParquet(t, filepath.Join(t.TempDir(), "items.parquet"), []itemRow{
		{ID: 1, Name: "Alice"},
		{ID: 2, Name: "Bob"},
	})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	assert.Equal(t, int64(2), r.NumRows())
	assert.Equal(t, []string{"id", "name"}, r.ColumnNames())

	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "Bob", rows[1]["name"])
}

func TestReader_Decimal(t *testing.T) {
	note := "gift"
	path := writeParquet(t, filepath.Join(t.TempDir(), "amounts.parquet"), []amountRow{
		{ID: 1, Amount: 12345, Note: &note},
		{ID: 2, Amount: -50},
	})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 123.45, rows[0]["amount"], 1e-9)
	assert.InDelta(t, -0.5, rows[1]["amount"], 1e-9)
	assert.Equal(t, "gift", rows[0]["note"])
	assert.Nil(t, rows[1]["note"])
}

func TestReader_UUIDColumns(t *testing.T) {
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	raw := []byte("0123456789abcdef")
	path := writeParquet(t, filepath.Join(t.TempDir(), "keys.parquet"), []keyRow{
		{ID: u, Fixed: u, Raw: raw},
	})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, u, rows[0]["id"])
	assert.Equal(t, u, rows[0]["fixed"])
	// A plain byte array of the same length stays raw bytes.
	assert.Equal(t, raw, rows[0]["raw"])
}

func TestReader_RequireColumns(t *testing.T) {
	path := writeParquet(t, filepath.Join(t.TempDir(), "items.parquet"), []itemRow{{ID: 1, Name: "A"}})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	require.NoError(t, r.RequireColumns("id", "name"))

	err = r.RequireColumns("id", "price", "sku")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "price, sku")
}

func TestReader_MissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "nope.parquet"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReader_CloseTwice(t *testing.T) {
	path := writeParquet(t, filepath.Join(t.TempDir(), "items.parquet"), []itemRow{{ID: 1, Name: "A"}})

	r, err := NewReader(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestNewReaderFrom(t *testing.T) {
	path := writeParquet(t, filepath.Join(t.TempDir(), "items.parquet"), []itemRow{{ID: 7, Name: "Zed"}})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r, err := NewReaderFrom(bytes.NewReader(data), int64(len(data)), "s3://bucket/items.parquet")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/items.parquet", r.Name())

	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Zed", rows[0]["name"])
	require.NoError(t, r.Close())
}

func TestNewReaderFrom_NotParquet(t *testing.T) {
	data := []byte("order_id,total\n1,2\n")
	_, err := NewReaderFrom(bytes.NewReader(data), int64(len(data)), "orders.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders.csv")
}

func TestGlob_ReadFile(t *testing.T) {
	dir := t.TempDir()
	writeParquet(t, filepath.Join(dir, "part-0002.parquet"), []itemRow{{ID: 3, Name: "C"}})
	writeParquet(t, filepath.Join(dir, "part-0001.parquet"), []itemRow{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}})

	tests := []struct {
		name    string
		pattern string
		wantIDs []int64
		wantErr error
	}{
		{
			name:    "single file",
			pattern: filepath.Join(dir, "part-0002.parquet"),
			wantIDs: []int64{3},
		},
		{
			name:    "glob in lexical order",
			pattern: filepath.Join(dir, "part-*.parquet"),
			wantIDs: []int64{1, 2, 3},
		},
		{
			name:    "glob without matches",
			pattern: filepath.Join(dir, "other-*.parquet"),
			wantErr: fs.ErrNotExist,
		},
		{
			name:    "missing single file",
			pattern: filepath.Join(dir, "missing.parquet"),
			wantErr: fs.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []int64
			paths, err := Glob(tt.pattern)
			for _, path := range paths {
				var rows []map[string]interface{}
				if rows, err = ReadFile(path); err != nil {
					break
				}
				for _, row := range rows {
					ids = append(ids, row["id"].(int64))
				}
			}
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestReadFile_NoGlobExpansion(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snap[1]")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := writeParquet(t, filepath.Join(dir, "part-*.parquet"), []itemRow{{ID: 5, Name: "E"}})

	rows, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(5), rows[0]["id"])
}

func TestSchemaInfo(t *testing.T) {
	path := writeParquet(t, filepath.Join(t.TempDir(), "amounts.parquet"), []amountRow{{ID: 1, Amount: 1}})

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	infos := r.SchemaInfo()
	require.Len(t, infos, 3)

	byName := make(map[string]SchemaInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}

	assert.Equal(t, "INT32", byName["id"].PhysicalType)
	assert.False(t, byName["id"].Optional)
	assert.Equal(t, "INT64", byName["amount"].PhysicalType)
	assert.Contains(t, byName["amount"].LogicalType, "DECIMAL")
	assert.Equal(t, "STRING", byName["note"].Type)
	assert.True(t, byName["note"].Optional)
}

func TestIsGlob(t *testing.T) {
	assert.True(t, IsGlob("data/*.parquet"))
	assert.True(t, IsGlob("data/part-?.parquet"))
	assert.False(t, IsGlob("data/orders.parquet"))
}
