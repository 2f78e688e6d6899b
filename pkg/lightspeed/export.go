package lightspeed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/wiebekaai/ecommerce-skills/pkg/pipeline"
)

// DefaultPageSize is how many categories one page requests. The shop
// API caps limit at 250.
const DefaultPageSize = 250

// DefaultResolveWorkers caps how many categories resolve their
// product links concurrently within one page.
const DefaultResolveWorkers = 4

// ExporterConfig holds the per-run settings of an Exporter.
type ExporterConfig struct {
	// PageSize per category page (default 250)
	PageSize int

	// Workers caps concurrent product-link fetches per page (default 4)
	Workers int

	// SkipProducts leaves the product links out of every category.
	SkipProducts bool
}

// Exporter streams every category to the emitter, one JSON line per
// category, enriched with its product links unless skipped.
type Exporter struct {
	client       *Client
	emitter      *pipeline.Emitter
	tally        *pipeline.Tally
	pageSize     int
	workers      int
	skipProducts bool
	logger       zerolog.Logger
}

// NewExporter creates a category exporter writing through emitter.
func NewExporter(client *Client, emitter *pipeline.Emitter, cfg ExporterConfig) *Exporter {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultResolveWorkers
	}

	return &Exporter{
		client:       client,
		emitter:      emitter,
		tally:        &pipeline.Tally{},
		pageSize:     pageSize,
		workers:      workers,
		skipProducts: cfg.SkipProducts,
		logger:       log.With().Str("component", "lightspeed").Logger(),
	}
}

// Run walks the category pages sequentially, resolving and emitting
// each page before requesting the next.
func (e *Exporter) Run(ctx context.Context) (pipeline.Totals, error) {
	err := e.client.EachPage(ctx, e.pageSize, func(page, limit int) (int, error) {
		categories, err := e.client.categoriesPage(ctx, page, limit)
		if err != nil {
			return 0, err
		}

		if len(categories) == 0 {
			return 0, nil
		}

		if err := e.exportPage(ctx, page, categories); err != nil {
			return 0, err
		}

		return len(categories), nil
	})
	if err != nil {
		return e.tally.Snapshot(), err
	}

	totals := e.tally.Snapshot()
	e.logger.Info().
		Int64("pages", totals.Pages).
		Int64("categories", totals.Records).
		Msg("Export complete")

	return totals, nil
}

// exportPage resolves one page of categories concurrently, then emits
// the page in source order.
func (e *Exporter) exportPage(ctx context.Context, page int, categories []Category) error {
	records := make([]*ExportedCategory, len(categories))

	var g errgroup.Group
	g.SetLimit(e.workers)

	for i := range categories {
		i := i
		g.Go(func() error {
			record, err := e.resolve(ctx, categories[i])
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, record := range records {
		if err := e.emitter.Emit(record); err != nil {
			return err
		}
	}

	e.tally.Add(pipeline.Totals{Pages: 1, Records: int64(len(categories))})

	e.logger.Info().
		Int("page", page).
		Int("categories", len(categories)).
		Msg("Page exported")

	return nil
}

// resolve attaches a category's product links.
func (e *Exporter) resolve(ctx context.Context, category Category) (*ExportedCategory, error) {
	record := &ExportedCategory{
		Category: category,
		Products: make([]CategoryProduct, 0),
	}

	if e.skipProducts {
		return record, nil
	}

	products, err := e.client.CategoryProducts(ctx, category.ID, e.pageSize)
	if err != nil {
		return nil, fmt.Errorf("resolve category %d: %w", category.ID, err)
	}
	record.Products = products

	return record, nil
}
