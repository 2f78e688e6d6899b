package sanity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wiebekaai/ecommerce-skills/pkg/pipeline"
)

// DefaultPageSize is how many documents one slice window requests.
const DefaultPageSize = 100

// ExporterConfig holds the per-run settings of an Exporter.
type ExporterConfig struct {
	// Type is the _type of the documents to export (REQUIRED)
	Type string

	// PageSize per slice window (default 100)
	PageSize int
}

// Exporter streams every document of one type to the emitter, in _id
// order, one JSON line per document.
type Exporter struct {
	client   *Client
	emitter  *pipeline.Emitter
	tally    *pipeline.Tally
	docType  string
	pageSize int
	logger   zerolog.Logger
}

// NewExporter creates a document exporter writing through emitter.
func NewExporter(client *Client, emitter *pipeline.Emitter, cfg ExporterConfig) (*Exporter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("document type is required")
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Exporter{
		client:   client,
		emitter:  emitter,
		tally:    &pipeline.Tally{},
		docType:  cfg.Type,
		pageSize: pageSize,
		logger:   log.With().Str("component", "sanity").Logger(),
	}, nil
}

// Run fetches slice windows until one comes back short, emitting each
// document as it arrives. Ordering by _id keeps the windows stable
// while the export walks the dataset.
func (e *Exporter) Run(ctx context.Context) (pipeline.Totals, error) {
	for from := 0; ; from += e.pageSize {
		groq := fmt.Sprintf("*[_type == $type] | order(_id) [%d...%d]", from, from+e.pageSize)

		raw, err := e.client.Query(ctx, groq, map[string]any{"type": e.docType})
		if err != nil {
			return e.tally.Snapshot(), err
		}

		var docs []json.RawMessage
		if err := json.Unmarshal(raw, &docs); err != nil {
			return e.tally.Snapshot(), fmt.Errorf("decode %s documents: %w", e.docType, err)
		}

		for _, doc := range docs {
			if err := e.emitter.Emit(doc); err != nil {
				return e.tally.Snapshot(), err
			}
		}

		e.tally.Add(pipeline.Totals{Pages: 1, Requests: 1, Records: int64(len(docs))})

		e.logger.Info().
			Str("type", e.docType).
			Int("from", from).
			Int("documents", len(docs)).
			Msg("Window exported")

		if len(docs) < e.pageSize {
			break
		}
	}

	totals := e.tally.Snapshot()
	e.logger.Info().
		Str("type", e.docType).
		Int64("windows", totals.Pages).
		Int64("documents", totals.Records).
		Msg("Export complete")

	return totals, nil
}
