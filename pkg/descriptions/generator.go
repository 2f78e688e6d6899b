// Package descriptions turns a stream of product records into
// AI-written copy. It reads NDJSON records from a reader, skips the
// ones that already carry copy, groups the rest into fixed-size
// batches and sends each batch through one schema-constrained
// generation call, emitting one output line per generated record.
package descriptions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/wiebekaai/ecommerce-skills/pkg/agent"
	"github.com/wiebekaai/ecommerce-skills/pkg/pipeline"
)

// Prometheus metrics for the generation pipeline.
var (
	descriptionsRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "descriptions_records_total",
		Help: "Input records by disposition",
	}, []string{"disposition"})

	descriptionsBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "descriptions_batches_total",
		Help: "Generation batches dispatched",
	})
)

// DefaultBatchSize is how many records share one generation call.
const DefaultBatchSize = 20

// GeneratorConfig holds the per-run settings of a Generator.
type GeneratorConfig struct {
	// BatchSize per generation call (default 20)
	BatchSize int

	// Force regenerates records that already carry copy.
	Force bool
}

// Generator wires the line reader, eligibility filter, batcher and
// generation client together for one run.
type Generator struct {
	client    *agent.Client
	emitter   *pipeline.Emitter
	tally     *pipeline.Tally
	batchSize int
	force     bool
	logger    zerolog.Logger
}

// NewGenerator creates a generator writing output lines through
// emitter.
func NewGenerator(client *agent.Client, emitter *pipeline.Emitter, cfg GeneratorConfig) *Generator {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Generator{
		client:    client,
		emitter:   emitter,
		tally:     &pipeline.Tally{},
		batchSize: batchSize,
		force:     cfg.Force,
		logger:    log.With().Str("component", "descriptions").Logger(),
	}
}

// Run consumes records from r until EOF and returns the run totals.
// Batches are dispatched as soon as they fill, without waiting for
// earlier ones; a dispatched batch always runs to completion, and the
// first failure surfaces only after every in-flight batch has been
// observed.
func (g *Generator) Run(ctx context.Context, r io.Reader) (pipeline.Totals, error) {
	reader := pipeline.NewLineReader(r)
	batcher := pipeline.NewBatcher[Record](g.batchSize)

	var group errgroup.Group

	for {
		line, lineNum, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			group.Wait()
			return g.tally.Snapshot(), err
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			group.Wait()
			return g.tally.Snapshot(), &InputError{Line: lineNum, Err: err}
		}

		if !Eligible(rec, g.force) {
			g.tally.Add(pipeline.Totals{Skipped: 1})
			descriptionsRecordsTotal.WithLabelValues("skipped").Inc()
			g.logger.Debug().Str("handle", rec.Handle).Msg("Record already described, skipped")
			continue
		}

		if batch, full := batcher.Add(rec); full {
			g.dispatch(ctx, &group, batch)
		}
	}

	if rest, ok := batcher.Flush(); ok {
		g.dispatch(ctx, &group, rest)
	}

	err := group.Wait()
	totals := g.tally.Snapshot()

	if err != nil {
		return totals, err
	}

	g.logger.Info().
		Int64("completed", totals.Records).
		Int64("skipped", totals.Skipped).
		Int64("batches", totals.Batches).
		Int64("input_tokens", totals.InputTokens).
		Int64("output_tokens", totals.OutputTokens).
		Float64("cost_usd", totals.CostUSD).
		Msg("Generation complete")

	return totals, nil
}

// dispatch sends one batch off on its own goroutine. Concurrency is
// deliberately uncapped; the generation service applies its own
// limits.
func (g *Generator) dispatch(ctx context.Context, group *errgroup.Group, batch []Record) {
	g.tally.Add(pipeline.Totals{Batches: 1})
	descriptionsBatchesTotal.Inc()

	g.logger.Debug().
		Int("batch_size", len(batch)).
		Msg("Batch dispatched")

	group.Go(func() error {
		return g.generate(ctx, batch)
	})
}

// generate runs one batch's generation call and emits its results as
// a contiguous block, in input order.
func (g *Generator) generate(ctx context.Context, batch []Record) error {
	result, err := g.client.Generate(ctx, agent.Request{
		Prompt:       BuildPrompt(batch),
		System:       systemInstruction,
		OutputSchema: ResultSchema(len(batch)),
	})
	if err != nil {
		return err
	}

	var payload struct {
		Products []struct {
			Description     string `json:"description"`
			LongDescription string `json:"longDescription"`
		} `json:"products"`
	}
	if err := json.Unmarshal(result.Result, &payload); err != nil {
		return fmt.Errorf("decode generation payload: %w", err)
	}

	if len(payload.Products) != len(batch) {
		return &CountError{Want: len(batch), Got: len(payload.Products)}
	}

	out := make([]Generated, len(batch))
	for i, rec := range batch {
		out[i] = Generated{
			ID:              rec.ID,
			Handle:          rec.Handle,
			Title:           rec.Title,
			Description:     payload.Products[i].Description,
			LongDescription: payload.Products[i].LongDescription,
		}
	}

	if err := pipeline.EmitAll(g.emitter, out); err != nil {
		return err
	}

	g.tally.Add(pipeline.Totals{
		Records:      int64(len(batch)),
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
		CostUSD:      result.TotalCostUSD,
	})
	descriptionsRecordsTotal.WithLabelValues("generated").Add(float64(len(batch)))

	totals := g.tally.Snapshot()
	g.logger.Info().
		Int("batch_size", len(batch)).
		Int64("completed", totals.Records).
		Int64("skipped", totals.Skipped).
		Float64("cost_usd", totals.CostUSD).
		Msg("Batch completed")

	return nil
}
