package reader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// ErrMissingColumn is returned by RequireColumns when the file schema lacks
// a column the caller depends on.
var ErrMissingColumn = errors.New("missing column")

// maxFiles bounds glob expansion.
const maxFiles = 1000

// Reader reads parquet data and returns rows as maps.
//
// It keeps the underlying handle (an *os.File for local paths) so that Close
// can release it; readers built over an in-memory io.ReaderAt have nothing
// to close.
type Reader struct {
	name   string
	closer io.Closer
	pqFile *parquet.File
}

// NewReader opens the parquet file at path.
//
// Returns an error wrapping fs.ErrNotExist if the file is absent, so callers
// can use os.IsNotExist / errors.Is on the result.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	r, err := NewReaderFrom(file, stat.Size(), path)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReaderFrom opens parquet data from any random-access source, such as
// an object fetched from S3 into memory. name is only used in errors.
func NewReaderFrom(ra io.ReaderAt, size int64, name string) (*Reader, error) {
	pqFile, err := parquet.OpenFile(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", name, err)
	}
	return &Reader{name: name, pqFile: pqFile}, nil
}

// Name returns the path or URI the reader was opened from.
func (r *Reader) Name() string {
	return r.name
}

// ReadAll reads all rows into memory.
//
// DECIMAL columns are scaled to float64. UUID columns, and
// FIXED_LEN_BYTE_ARRAY(16) columns without another logical type, come back
// as uuid.UUID. Other byte arrays are returned as []byte; everything else is
// passed through as decoded by parquet-go.
func (r *Reader) ReadAll() ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0, r.pqFile.NumRows())
	decimals := decimalScales(r.pqFile.Schema())
	uuids := uuidColumns(r.pqFile.Schema())

	pr := parquet.NewReader(r.pqFile)
	defer func() { _ = pr.Close() }()

	for {
		row := make(map[string]interface{})
		err := pr.Read(&row)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row %d of %s: %w", len(rows), r.name, err)
		}
		for col, v := range row {
			if scale, ok := decimals[col]; ok {
				row[col] = decimalValue(v, scale)
				continue
			}
			b, ok := asBytes(v)
			if !ok {
				continue
			}
			row[col] = b
			if uuids[col] {
				if u, err := uuid.FromBytes(b); err == nil {
					row[col] = u
				}
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Schema returns the parquet file schema.
func (r *Reader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// NumRows returns the row count recorded in the file metadata.
func (r *Reader) NumRows() int64 {
	return r.pqFile.NumRows()
}

// ColumnNames returns the top-level column names in schema order.
func (r *Reader) ColumnNames() []string {
	fields := r.pqFile.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}
	return names
}

// RequireColumns checks that every named column is present at the top
// level of the schema.
func (r *Reader) RequireColumns(columns ...string) error {
	present := make(map[string]bool)
	for _, name := range r.ColumnNames() {
		present[name] = true
	}
	var missing []string
	for _, col := range columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w in %s: %s", ErrMissingColumn, r.name, strings.Join(missing, ", "))
	}
	return nil
}

// Close releases the underlying file handle. It is safe to call Close
// multiple times.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// IsGlob reports whether the location contains glob wildcards.
func IsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[]")
}

// Glob expands pattern to the matching files in lexical order. A pattern
// without wildcards is returned as is.
//
// Returns an error wrapping fs.ErrNotExist if no files match.
func Glob(pattern string) ([]string, error) {
	if !IsGlob(pattern) {
		return []string{pattern}, nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern %s: %w", pattern, os.ErrNotExist)
	}
	if len(matches) > maxFiles {
		return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxFiles)
	}
	return matches, nil
}

// ReadFile reads all rows of the single file at path. The path is never
// expanded as a glob.
func ReadFile(path string) ([]map[string]interface{}, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}

	rows, readErr := r.ReadAll()
	closeErr := r.Close()
	if readErr != nil {
		return nil, readErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	return rows, nil
}

// decimalScales maps top-level DECIMAL columns to their scale.
func decimalScales(schema *parquet.Schema) map[string]int {
	scales := make(map[string]int)
	for _, field := range schema.Fields() {
		if field.Type() == nil || !field.Leaf() {
			continue
		}
		lt := field.Type().LogicalType()
		if lt != nil && lt.Decimal != nil {
			scales[field.Name()] = int(lt.Decimal.Scale)
		}
	}
	return scales
}

// uuidColumns lists the top-level columns holding UUIDs.
func uuidColumns(schema *parquet.Schema) map[string]bool {
	cols := make(map[string]bool)
	for _, field := range schema.Fields() {
		if field.Type() == nil || !field.Leaf() {
			continue
		}
		typ := field.Type()
		lt := typ.LogicalType()
		switch {
		case lt != nil && lt.UUID != nil:
			cols[field.Name()] = true
		case lt == nil && typ.Kind() == parquet.FixedLenByteArray && typ.Length() == 16:
			cols[field.Name()] = true
		}
	}
	return cols
}

// decimalValue converts an unscaled DECIMAL value to float64.
func decimalValue(v interface{}, scale int) interface{} {
	var unscaled *big.Int
	switch val := v.(type) {
	case nil:
		return nil
	case int32:
		unscaled = big.NewInt(int64(val))
	case int64:
		unscaled = big.NewInt(val)
	case string:
		unscaled = twosComplement([]byte(val))
	default:
		b, ok := asBytes(v)
		if !ok {
			return v
		}
		unscaled = twosComplement(b)
	}
	f, _ := new(big.Float).SetInt(unscaled).Float64()
	return f / math.Pow10(scale)
}

// twosComplement decodes a big-endian two's complement integer.
func twosComplement(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return n
}

func asBytes(v interface{}) ([]byte, bool) {
	if b, ok := v.([]byte); ok {
		return b, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return b, true
	}
	return nil, false
}
