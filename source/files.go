package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vegasq/shopstats/reader"
	"github.com/vegasq/shopstats/shop"
)

// ErrMissingInput is returned when a table's source file does not exist.
// It is always joined with fs.ErrNotExist.
var ErrMissingInput = errors.New("missing input")

// DefaultDir is where the input files are looked up by default.
const DefaultDir = "archive/parquet"

func missing(location string, err error) error {
	if !errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w: %w", err, fs.ErrNotExist)
	}
	return fmt.Errorf("%w: %s: %w", ErrMissingInput, location, err)
}

// Layout maps each table to a location: a local path, a glob of part
// files or an s3://bucket/key URI.
type Layout map[shop.Table]string

// DefaultLayout places every table at <dir>/<table>.parquet.
func DefaultLayout(dir string) Layout {
	l := make(Layout, len(shop.Tables))
	for _, t := range shop.Tables {
		l[t] = filepath.Join(dir, string(t)+".parquet")
	}
	return l
}

// Location returns where t lives.
func (l Layout) Location(t shop.Table) (string, error) {
	loc, ok := l[t]
	if !ok || loc == "" {
		return "", fmt.Errorf("no location configured for table %s", t)
	}
	return loc, nil
}

// Files resolves tables to Parquet files according to a Layout. It reads
// files directly and keeps no state between calls.
type Files struct {
	layout Layout
	s3     *S3
}

// NewFiles creates a resolver. s3 may be nil when no location is an S3
// URI.
func NewFiles(layout Layout, s3 *S3) *Files {
	return &Files{layout: layout, s3: s3}
}

// Layout returns the resolver's layout.
func (f *Files) Layout() Layout {
	return f.layout
}

// Rows reads all rows of t, checking that the required columns exist.
func (f *Files) Rows(ctx context.Context, t shop.Table) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := f.each(ctx, t, func(r *reader.Reader) error {
		if err := r.RequireColumns(t.Columns()...); err != nil {
			return fmt.Errorf("%w: %w", shop.ErrMalformedInput, err)
		}
		part, err := r.ReadAll()
		if err != nil {
			return fmt.Errorf("%w: %w", shop.ErrMalformedInput, err)
		}
		rows = append(rows, part...)
		return nil
	})
	return rows, err
}

// Describe returns the schema of every file backing t.
func (f *Files) Describe(ctx context.Context, t shop.Table) (map[string][]reader.SchemaInfo, error) {
	out := make(map[string][]reader.SchemaInfo)
	err := f.each(ctx, t, func(r *reader.Reader) error {
		out[r.Name()] = r.SchemaInfo()
		return nil
	})
	return out, err
}

// Exists reports whether t's source is present.
func (f *Files) Exists(ctx context.Context, t shop.Table) (bool, error) {
	loc, err := f.layout.Location(t)
	if err != nil {
		return false, err
	}
	return f.exists(ctx, loc)
}

func (f *Files) exists(ctx context.Context, loc string) (bool, error) {
	if IsS3(loc) {
		if f.s3 == nil {
			return false, fmt.Errorf("location %s needs S3 access but none is configured", loc)
		}
		return f.s3.Exists(ctx, loc)
	}
	if reader.IsGlob(loc) {
		matches, err := filepath.Glob(loc)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern %s: %w", loc, err)
		}
		return len(matches) > 0, nil
	}
	_, err := os.Stat(loc)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", loc, err)
	}
	return true, nil
}

// each opens every file behind t in order and hands it to fn.
func (f *Files) each(ctx context.Context, t shop.Table, fn func(*reader.Reader) error) error {
	loc, err := f.layout.Location(t)
	if err != nil {
		return err
	}
	paths, err := f.expand(loc)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := f.open(ctx, path)
		if err != nil {
			return err
		}
		fnErr := fn(r)
		closeErr := r.Close()
		if fnErr != nil {
			return fnErr
		}
		if closeErr != nil {
			return fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}
	return nil
}

func (f *Files) expand(loc string) ([]string, error) {
	if IsS3(loc) {
		return []string{loc}, nil
	}
	paths, err := reader.Glob(loc)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, missing(loc, err)
	}
	return paths, err
}

func (f *Files) open(ctx context.Context, loc string) (*reader.Reader, error) {
	if IsS3(loc) {
		if f.s3 == nil {
			return nil, fmt.Errorf("location %s needs S3 access but none is configured", loc)
		}
		data, err := f.s3.Fetch(ctx, loc)
		if err != nil {
			return nil, err
		}
		return reader.NewReaderFrom(bytes.NewReader(data), int64(len(data)), loc)
	}

	r, err := reader.NewReader(loc)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, missing(loc, err)
	}
	return r, err
}
