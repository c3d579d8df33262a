package catalog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/shopstats/shop"
	"github.com/vegasq/shopstats/shop/sample"
	"github.com/vegasq/shopstats/source"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		MetadataPath: filepath.Join(dir, "meta", "metadata.sqlite"),
		Name:         "test_lake",
		DataDir:      filepath.Join(dir, "data_files"),
		Compression:  "zstd",
	}
}

func openCatalog(t *testing.T, cfg Config) *Catalog {
	t.Helper()
	c, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleFiles(t *testing.T) (*source.Files, map[shop.Table]string) {
	t.Helper()
	dir := t.TempDir()
	paths, err := sample.WriteParquet(dir, sample.Generate(3, sample.Config{
		Countries: 4, Products: 6, Customers: 8, Orders: 25, MaxItemsPerOrder: 3, ReviewsPerProduct: 3,
	}))
	require.NoError(t, err)
	return source.NewFiles(source.DefaultLayout(dir), nil), paths
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no metadata path", func(c *Config) { c.MetadataPath = "" }},
		{"no name", func(c *Config) { c.Name = "" }},
		{"no data dir", func(c *Config) { c.DataDir = "" }},
		{"unknown codec", func(c *Config) { c.Compression = "lzo" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.Compression = "ZSTD"
	assert.NoError(t, cfg.Validate())
}

func TestOpen_CreatesLayout(t *testing.T) {
	cfg := testConfig(t)
	c := openCatalog(t, cfg)

	assert.DirExists(t, cfg.DataDir)
	assert.FileExists(t, cfg.MetadataPath)
	assert.Equal(t, "test_lake", c.Name())

	tables, err := c.Tables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestCreateTableFromFile(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	c := openCatalog(t, cfg)
	_, paths := sampleFiles(t)

	ok, err := c.TableExists(ctx, shop.Orders)
	require.NoError(t, err)
	assert.False(t, ok)

	info, err := c.CreateTableFromFile(ctx, shop.Orders, paths[shop.Orders])
	require.NoError(t, err)
	assert.Equal(t, shop.Orders, info.Name)
	assert.Equal(t, "test_lake", info.Catalog)
	assert.Equal(t, paths[shop.Orders], info.Source)
	assert.EqualValues(t, 25, info.RowCount)
	assert.Equal(t, filepath.Join(cfg.DataDir, "orders", info.SnapshotID.String()+".parquet"), info.DataFile)
	assert.FileExists(t, info.DataFile)

	ok, err = c.TableExists(ctx, shop.Orders)
	require.NoError(t, err)
	assert.True(t, ok)

	rows, err := c.Rows(ctx, shop.Orders)
	require.NoError(t, err)
	orders, err := shop.DecodeOrders(rows)
	require.NoError(t, err)

	want := sample.Generate(3, sample.Config{
		Countries: 4, Products: 6, Customers: 8, Orders: 25, MaxItemsPerOrder: 3, ReviewsPerProduct: 3,
	}).Orders
	assert.Equal(t, want, orders)
}

func TestCreateTable_Replace(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t, testConfig(t))
	_, paths := sampleFiles(t)

	first, err := c.CreateTableFromFile(ctx, shop.Products, paths[shop.Products])
	require.NoError(t, err)

	replacement := filepath.Join(t.TempDir(), "products.parquet")
	require.NoError(t, shop.WriteRows(replacement, []shop.Product{{ProductID: "99", ProductName: "Kettle"}}))

	second, err := c.CreateTableFromFile(ctx, shop.Products, replacement)
	require.NoError(t, err)
	assert.NotEqual(t, first.SnapshotID, second.SnapshotID)
	assert.NoFileExists(t, first.DataFile)
	assert.FileExists(t, second.DataFile)

	tables, err := c.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, second.DataFile, tables[0].DataFile)
	assert.EqualValues(t, 1, tables[0].RowCount)

	rows, err := c.Rows(ctx, shop.Products)
	require.NoError(t, err)
	products, err := shop.DecodeProducts(rows)
	require.NoError(t, err)
	assert.Equal(t, []shop.Product{{ProductID: "99", ProductName: "Kettle"}}, products)
}

func TestCreateTable_Failures(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	c := openCatalog(t, cfg)

	_, err := c.CreateTableFromFile(ctx, shop.Orders, filepath.Join(t.TempDir(), "missing.parquet"))
	require.ErrorIs(t, err, source.ErrMissingInput)

	_, err = c.CreateTableFromFile(ctx, shop.Table("refunds"), "refunds.parquet")
	require.ErrorIs(t, err, shop.ErrUnknownTable)

	entries, err := os.ReadDir(cfg.DataDir)
	require.NoError(t, err)
	for _, e := range entries {
		files, err := os.ReadDir(filepath.Join(cfg.DataDir, e.Name()))
		require.NoError(t, err)
		assert.Empty(t, files)
	}
}

func TestRows_DataDirWithGlobCharacters(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.DataDir = filepath.Join(t.TempDir(), "lake[2024]*?")
	c := openCatalog(t, cfg)

	src := filepath.Join(t.TempDir(), "products.parquet")
	require.NoError(t, shop.WriteRows(src, []shop.Product{{ProductID: "7", ProductName: "Lamp"}}))

	info, err := c.CreateTableFromFile(ctx, shop.Products, src)
	require.NoError(t, err)
	assert.Contains(t, info.DataFile, "lake[2024]*?")

	rows, err := c.Rows(ctx, shop.Products)
	require.NoError(t, err)
	products, err := shop.DecodeProducts(rows)
	require.NoError(t, err)
	assert.Equal(t, []shop.Product{{ProductID: "7", ProductName: "Lamp"}}, products)
}

func TestRows_TableNotFound(t *testing.T) {
	c := openCatalog(t, testConfig(t))

	_, err := c.Rows(context.Background(), shop.Customers)
	require.ErrorIs(t, err, ErrTableNotFound)

	_, err = c.Table(context.Background(), shop.Customers)
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	_, paths := sampleFiles(t)

	c, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	created, err := c.CreateTableFromFile(ctx, shop.Customers, paths[shop.Customers])
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c = openCatalog(t, cfg)
	info, err := c.Table(ctx, shop.Customers)
	require.NoError(t, err)
	assert.Equal(t, created.SnapshotID, info.SnapshotID)
	assert.Equal(t, created.DataFile, info.DataFile)
	assert.Equal(t, created.CreatedAt.UnixNano(), info.CreatedAt.UnixNano())
}

func TestClose(t *testing.T) {
	c, err := Open(context.Background(), testConfig(t), nil)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.TableExists(context.Background(), shop.Orders)
	require.Error(t, err)
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t, testConfig(t))
	files, _ := sampleFiles(t)

	report, err := Bootstrap(ctx, c, files, nil)
	require.NoError(t, err)
	assert.Equal(t, shop.Tables, report.Created)
	assert.Empty(t, report.Skipped)
	assert.False(t, report.UpToDate())

	before, err := c.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, before, len(shop.Tables))

	report, err = Bootstrap(ctx, c, files, nil)
	require.NoError(t, err)
	assert.True(t, report.UpToDate())
	assert.Equal(t, shop.Tables, report.Existing)

	after, err := c.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	ds, err := shop.Load(ctx, c)
	require.NoError(t, err)
	assert.Len(t, ds.Orders, 25)
	assert.Len(t, ds.Customers, 8)
}

func TestBootstrap_MissingSource(t *testing.T) {
	ctx := context.Background()
	c := openCatalog(t, testConfig(t))
	files, paths := sampleFiles(t)
	require.NoError(t, os.Remove(paths[shop.ProductReviews]))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	report, err := Bootstrap(ctx, c, files, logger)
	require.NoError(t, err)
	assert.Equal(t, []shop.Table{shop.ProductReviews}, report.Skipped)
	assert.Len(t, report.Created, 4)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "table=product_reviews")

	ok, err := c.TableExists(ctx, shop.ProductReviews)
	require.NoError(t, err)
	assert.False(t, ok)

	// A later run with the source restored fills the gap.
	require.NoError(t, shop.WriteRows(paths[shop.ProductReviews], []shop.ProductReview{{ProductID: "1", Rating: 4}}))
	report, err = Bootstrap(ctx, c, files, logger)
	require.NoError(t, err)
	assert.Equal(t, shop.Tables, report.Created)

	ok, err = c.TableExists(ctx, shop.ProductReviews)
	require.NoError(t, err)
	assert.True(t, ok)
}
