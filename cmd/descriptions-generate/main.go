// Command descriptions-generate reads product records as NDJSON on
// stdin, batches the ones missing copy, and has a generation service
// write a description and longDescription for each. One generated
// record per product goes to stdout; already-described products are
// skipped unless -force is set.
//
// Environment:
//
//	AGENT_API_URL  base URL of the generation service
//	AGENT_API_KEY  bearer token for the generation service
//
// Diagnostics go to stderr; see pkg/logging for LOG_LEVEL and
// LOG_FORMAT. A .env file in the working directory is loaded first.
//
// Usage:
//
//	products-export | descriptions-generate [-force] [-batch-size n] > copy.ndjson
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/wiebekaai/ecommerce-skills/pkg/agent"
	"github.com/wiebekaai/ecommerce-skills/pkg/config"
	"github.com/wiebekaai/ecommerce-skills/pkg/descriptions"
	"github.com/wiebekaai/ecommerce-skills/pkg/logging"
	"github.com/wiebekaai/ecommerce-skills/pkg/pipeline"
)

func main() {
	force := flag.Bool("force", false, "regenerate copy for products that already have it")
	batchSize := flag.Int("batch-size", descriptions.DefaultBatchSize, "products per generation call")
	maxTurns := flag.Int("max-turns", agent.DefaultMaxTurns, "reasoning turns allowed per generation call")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address while the run lasts")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *batchSize, *maxTurns, *force, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "\x1b[31mError: %v\x1b[0m\n", err)
		os.Exit(1)
	}
}

func run(stdin io.Reader, stdout io.Writer, batchSize, maxTurns int, force bool, metricsAddr string) error {
	logging.Setup(logging.FromEnv())
	logger := logging.NewRunLogger("descriptions-generate")

	if err := config.Load(); err != nil {
		return err
	}
	env, err := config.RequireAll("AGENT_API_URL", "AGENT_API_KEY")
	if err != nil {
		return err
	}

	client, err := agent.New(agent.Config{
		BaseURL:  env["AGENT_API_URL"],
		APIKey:   env["AGENT_API_KEY"],
		MaxTurns: maxTurns,
	})
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		serveMetrics(metricsAddr, logger)
	}

	generator := descriptions.NewGenerator(client, pipeline.NewEmitter(stdout), descriptions.GeneratorConfig{
		BatchSize: batchSize,
		Force:     force,
	})

	logger.Info().
		Int("batch_size", batchSize).
		Bool("force", force).
		Msg("starting description generation")

	totals, err := generator.Run(context.Background(), stdin)
	if err != nil {
		return err
	}

	logger.Info().
		Int64("generated", totals.Records).
		Int64("skipped", totals.Skipped).
		Int64("batches", totals.Batches).
		Float64("cost_usd", totals.CostUSD).
		Msg("description generation finished")
	return nil
}

// serveMetrics exposes the Prometheus registry for the lifetime of the
// run. The listener dies with the process; runs are one-shot.
func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn().Err(err).Str("addr", addr).Msg("metrics listener stopped")
		}
	}()
}
