package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	_ "modernc.org/sqlite"

	"github.com/vegasq/shopstats/reader"
	"github.com/vegasq/shopstats/shop"
	"github.com/vegasq/shopstats/source"
)

// ErrTableNotFound is returned for a table the catalog does not hold.
var ErrTableNotFound = errors.New("table not found")

const (
	DefaultMetadataPath = "metadata.sqlite"
	DefaultName         = "my_ducklake"
	DefaultDataDir      = "data_files"
	DefaultCompression  = "snappy"
)

var codecs = map[string]compress.Codec{
	"snappy": &parquet.Snappy,
	"zstd":   &parquet.Zstd,
	"gzip":   &parquet.Gzip,
	"lz4":    &parquet.Lz4Raw,
	"brotli": &parquet.Brotli,
	"none":   &parquet.Uncompressed,
}

// Config locates the catalog's metadata database and data directory.
type Config struct {
	MetadataPath string `yaml:"metadata_path"`
	// Name is the alias the catalog is attached under. It is recorded with
	// every table.
	Name        string `yaml:"name"`
	DataDir     string `yaml:"data_dir"`
	Compression string `yaml:"compression"`
}

// DefaultConfig returns the catalog settings of a local run.
func DefaultConfig() Config {
	return Config{
		MetadataPath: DefaultMetadataPath,
		Name:         DefaultName,
		DataDir:      DefaultDataDir,
		Compression:  DefaultCompression,
	}
}

// Validate checks that every field is set and the codec is known.
func (c Config) Validate() error {
	if c.MetadataPath == "" {
		return errors.New("catalog metadata_path is required")
	}
	if c.Name == "" {
		return errors.New("catalog name is required")
	}
	if c.DataDir == "" {
		return errors.New("catalog data_dir is required")
	}
	if _, err := codec(c.Compression); err != nil {
		return err
	}
	return nil
}

func codec(name string) (compress.Codec, error) {
	if name == "" {
		name = DefaultCompression
	}
	c, ok := codecs[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown compression %q", name)
	}
	return c, nil
}

// TableInfo describes one registered table.
type TableInfo struct {
	Name       shop.Table
	Catalog    string
	DataFile   string
	Source     string
	RowCount   int64
	SnapshotID uuid.UUID
	CreatedAt  time.Time
}

// Catalog keeps table metadata in SQLite and table data as Parquet files
// under the data directory.
type Catalog struct {
	db     *sql.DB
	cfg    Config
	codec  compress.Codec
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Open attaches the catalog, creating the metadata database, its schema
// and the data directory when they do not exist yet.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cc, err := codec(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", cfg.DataDir, err)
	}
	if dir := filepath.Dir(cfg.MetadataPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create metadata dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.MetadataPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog metadata: %w", err)
	}
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db, cfg: cfg, codec: cc, logger: logger}
	if err := c.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logger.Debug("catalog attached", "name", cfg.Name, "metadata", cfg.MetadataPath, "data_dir", cfg.DataDir)
	return c, nil
}

func (c *Catalog) initSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS catalog_tables (
			name TEXT PRIMARY KEY,
			catalog TEXT NOT NULL,
			data_file TEXT NOT NULL,
			source TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			snapshot_id TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Name returns the catalog alias.
func (c *Catalog) Name() string {
	return c.cfg.Name
}

func (c *Catalog) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("catalog is closed")
	}
	return nil
}

// TableExists reports whether t is registered.
func (c *Catalog) TableExists(ctx context.Context, t shop.Table) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM catalog_tables WHERE name = ?`, string(t)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", t, err)
	}
	return n > 0, nil
}

// Table returns the metadata of t.
func (c *Catalog) Table(ctx context.Context, t shop.Table) (TableInfo, error) {
	if err := c.check(); err != nil {
		return TableInfo{}, err
	}
	row := c.db.QueryRowContext(ctx, `
		SELECT name, catalog, data_file, source, row_count, snapshot_id, created_at
		FROM catalog_tables WHERE name = ?`, string(t))
	info, err := scanTable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TableInfo{}, fmt.Errorf("%w: %s", ErrTableNotFound, t)
	}
	if err != nil {
		return TableInfo{}, fmt.Errorf("failed to read table %s: %w", t, err)
	}
	return info, nil
}

// Tables lists the registered tables by name.
func (c *Catalog) Tables(ctx context.Context) ([]TableInfo, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, catalog, data_file, source, row_count, snapshot_id, created_at
		FROM catalog_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var out []TableInfo
	for rows.Next() {
		info, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTable(s scanner) (TableInfo, error) {
	var (
		info      TableInfo
		name      string
		snapshot  string
		createdAt int64
	)
	if err := s.Scan(&name, &info.Catalog, &info.DataFile, &info.Source, &info.RowCount, &snapshot, &createdAt); err != nil {
		return TableInfo{}, err
	}
	id, err := uuid.Parse(snapshot)
	if err != nil {
		return TableInfo{}, fmt.Errorf("invalid snapshot id %q: %w", snapshot, err)
	}
	info.Name = shop.Table(name)
	info.SnapshotID = id
	info.CreatedAt = time.Unix(0, createdAt).UTC()
	return info, nil
}

// CreateTableFromFile creates or replaces t from the Parquet file (or glob
// of part files) at location.
func (c *Catalog) CreateTableFromFile(ctx context.Context, t shop.Table, location string) (TableInfo, error) {
	return c.CreateTable(ctx, t, source.NewFiles(source.Layout{t: location}, nil))
}

// CreateTable creates or replaces t with the rows src resolves for it. The
// rows are written to a fresh data file; the metadata row is swapped in a
// single transaction and the replaced data file removed afterwards.
func (c *Catalog) CreateTable(ctx context.Context, t shop.Table, src shop.Resolver) (TableInfo, error) {
	if err := c.check(); err != nil {
		return TableInfo{}, err
	}
	if _, err := shop.ParseTable(string(t)); err != nil {
		return TableInfo{}, err
	}

	rows, err := src.Rows(ctx, t)
	if err != nil {
		return TableInfo{}, fmt.Errorf("failed to read source of %s: %w", t, err)
	}

	snapshot := uuid.New()
	dir := filepath.Join(c.cfg.DataDir, string(t))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return TableInfo{}, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	dataFile := filepath.Join(dir, snapshot.String()+".parquet")

	n, err := shop.WriteTable(dataFile, t, rows, parquet.Compression(c.codec))
	if err != nil {
		_ = os.Remove(dataFile)
		return TableInfo{}, fmt.Errorf("failed to write table %s: %w", t, err)
	}

	info := TableInfo{
		Name:       t,
		Catalog:    c.cfg.Name,
		DataFile:   dataFile,
		Source:     sourceOf(src, t),
		RowCount:   int64(n),
		SnapshotID: snapshot,
		CreatedAt:  time.Now().UTC(),
	}
	previous, err := c.swap(ctx, info)
	if err != nil {
		_ = os.Remove(dataFile)
		return TableInfo{}, err
	}

	if previous != "" && previous != dataFile {
		if err := os.Remove(previous); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("failed to remove replaced data file", "table", string(t), "file", previous, "error", err)
		}
	}
	c.logger.Info("table created", "table", string(t), "rows", n, "data_file", dataFile)
	return info, nil
}

func sourceOf(src shop.Resolver, t shop.Table) string {
	if files, ok := src.(*source.Files); ok {
		if loc, err := files.Layout().Location(t); err == nil {
			return loc
		}
	}
	return fmt.Sprintf("%T", src)
}

// swap registers info and returns the data file it replaces, if any.
func (c *Catalog) swap(ctx context.Context, info TableInfo) (string, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var previous string
	err = tx.QueryRowContext(ctx,
		`SELECT data_file FROM catalog_tables WHERE name = ?`, string(info.Name)).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to look up table %s: %w", info.Name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO catalog_tables (name, catalog, data_file, source, row_count, snapshot_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			catalog = excluded.catalog,
			data_file = excluded.data_file,
			source = excluded.source,
			row_count = excluded.row_count,
			snapshot_id = excluded.snapshot_id,
			created_at = excluded.created_at
	`, string(info.Name), info.Catalog, info.DataFile, info.Source, info.RowCount,
		info.SnapshotID.String(), info.CreatedAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to register table %s: %w", info.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit table %s: %w", info.Name, err)
	}
	return previous, nil
}

// Rows reads t from its registered data file.
func (c *Catalog) Rows(ctx context.Context, t shop.Table) ([]map[string]interface{}, error) {
	info, err := c.Table(ctx, t)
	if err != nil {
		return nil, err
	}

	rows, err := reader.ReadFile(info.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file of %s: %w", t, err)
	}
	return rows, nil
}

// Close detaches the catalog. Calling it again is a no-op.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}
