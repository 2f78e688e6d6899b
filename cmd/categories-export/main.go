// Command categories-export streams every category in a Lightspeed
// eCom shop to stdout as NDJSON, one category per line, enriched with
// its product links unless -skip-products is set.
//
// Environment:
//
//	LIGHTSPEED_API_KEY     API key
//	LIGHTSPEED_API_SECRET  API secret
//	LIGHTSPEED_LANGUAGE    shop language segment, default nl (optional)
//	LIGHTSPEED_API_URL     API host override (optional)
//
// Diagnostics go to stderr; see pkg/logging for LOG_LEVEL and
// LOG_FORMAT. A .env file in the working directory is loaded first.
//
// Usage:
//
//	categories-export [-skip-products] [-page-size n] > categories.ndjson
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

	"github.com/wiebekaai/ecommerce-skills/pkg/config"
	"github.com/wiebekaai/ecommerce-skills/pkg/lightspeed"
	"github.com/wiebekaai/ecommerce-skills/pkg/logging"
	"github.com/wiebekaai/ecommerce-skills/pkg/pipeline"
)

func main() {
	pageSize := flag.Int("page-size", lightspeed.DefaultPageSize, "categories per page")
	resolvers := flag.Int("resolvers", lightspeed.DefaultResolveWorkers, "concurrent product-link fetches per page")
	skipProducts := flag.Bool("skip-products", false, "leave product links out of every category")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address while the export runs")
	flag.Parse()

	if err := run(os.Stdout, *pageSize, *resolvers, *skipProducts, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "\x1b[31mError: %v\x1b[0m\n", err)
		os.Exit(1)
	}
}

func run(stdout io.Writer, pageSize, resolvers int, skipProducts bool, metricsAddr string) error {
	logging.Setup(logging.FromEnv())
	logger := logging.NewRunLogger("categories-export")

	if err := config.Load(); err != nil {
		return err
	}
	env, err := config.RequireAll("LIGHTSPEED_API_KEY", "LIGHTSPEED_API_SECRET")
	if err != nil {
		return err
	}

	client, err := lightspeed.New(lightspeed.Config{
		Key:      env["LIGHTSPEED_API_KEY"],
		Secret:   env["LIGHTSPEED_API_SECRET"],
		Language: os.Getenv("LIGHTSPEED_LANGUAGE"),
		BaseURL:  os.Getenv("LIGHTSPEED_API_URL"),
	})
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		serveMetrics(metricsAddr, logger)
	}

	exporter := lightspeed.NewExporter(client, pipeline.NewEmitter(stdout), lightspeed.ExporterConfig{
		PageSize:     pageSize,
		Workers:      resolvers,
		SkipProducts: skipProducts,
	})

	logger.Info().
		Bool("skip_products", skipProducts).
		Int("page_size", pageSize).
		Msg("starting category export")

	totals, err := exporter.Run(context.Background())
	if err != nil {
		return err
	}

	logger.Info().
		Int64("pages", totals.Pages).
		Int64("categories", totals.Records).
		Msg("category export finished")
	return nil
}

// serveMetrics exposes the Prometheus registry for the lifetime of the
// run. The listener dies with the process; exports are one-shot.
func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn().Err(err).Str("addr", addr).Msg("metrics listener stopped")
		}
	}()
}
