package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vegasq/shopstats/shop"
	"github.com/vegasq/shopstats/source"
)

// Report is the outcome of Bootstrap.
type Report struct {
	Created  []shop.Table
	Skipped  []shop.Table
	Existing []shop.Table
}

// UpToDate reports whether every table was already registered.
func (r Report) UpToDate() bool {
	return len(r.Created) == 0 && len(r.Skipped) == 0
}

// Bootstrap makes sure the catalog holds the five tables. When all of them
// are registered it does nothing. Otherwise every table whose source file
// is present is created or replaced from it; a missing source is logged
// and skipped.
func Bootstrap(ctx context.Context, c *Catalog, files *source.Files, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var (
		report  Report
		missing bool
	)
	for _, t := range shop.Tables {
		ok, err := c.TableExists(ctx, t)
		if err != nil {
			return Report{}, err
		}
		if ok {
			report.Existing = append(report.Existing, t)
		} else {
			missing = true
		}
	}
	if !missing {
		logger.Debug("catalog up to date", "catalog", c.Name())
		return report, nil
	}

	report = Report{}
	for _, t := range shop.Tables {
		present, err := files.Exists(ctx, t)
		if err != nil {
			return Report{}, fmt.Errorf("failed to check source of %s: %w", t, err)
		}
		if !present {
			loc, _ := files.Layout().Location(t)
			logger.Warn("source file not found, skipping table", "table", string(t), "location", loc)
			report.Skipped = append(report.Skipped, t)
			continue
		}

		if _, err := c.CreateTable(ctx, t, files); err != nil {
			return Report{}, err
		}
		report.Created = append(report.Created, t)
	}
	return report, nil
}
