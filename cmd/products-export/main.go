// Command products-export streams every product in a Shopify store to
// stdout as NDJSON, one product per line, enriched with its variants,
// media and metafields.
//
// Environment:
//
//	SHOPIFY_STORE_DOMAIN  store hostname, e.g. my-store.myshopify.com
//	SHOPIFY_ADMIN_TOKEN   Admin API access token
//	SHOPIFY_API_VERSION   Admin API version, e.g. 2024-07
//	SHOPIFY_API_URL       full GraphQL endpoint override (optional)
//
// Diagnostics go to stderr; see pkg/logging for LOG_LEVEL and
// LOG_FORMAT. A .env file in the working directory is loaded first.
//
// Usage:
//
//	products-export [-page-size n] [-resolvers n] > products.ndjson
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
	"github.com/wiebekaai/ecommerce-skills/pkg/logging"
	"github.com/wiebekaai/ecommerce-skills/pkg/pipeline"
	"github.com/wiebekaai/ecommerce-skills/pkg/shopify"
)

func main() {
	pageSize := flag.Int("page-size", shopify.DefaultPageSize, "products per page")
	resolvers := flag.Int("resolvers", shopify.DefaultResolveWorkers, "concurrent nested-resource fetches per page")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address while the export runs")
	flag.Parse()

	if err := run(os.Stdout, *pageSize, *resolvers, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "\x1b[31mError: %v\x1b[0m\n", err)
		os.Exit(1)
	}
}

func run(stdout io.Writer, pageSize, resolvers int, metricsAddr string) error {
	logging.Setup(logging.FromEnv())
	logger := logging.NewRunLogger("products-export")

	if err := config.Load(); err != nil {
		return err
	}
	env, err := config.RequireAll("SHOPIFY_STORE_DOMAIN", "SHOPIFY_ADMIN_TOKEN", "SHOPIFY_API_VERSION")
	if err != nil {
		return err
	}

	cfg := shopify.DefaultConfig(env["SHOPIFY_STORE_DOMAIN"], env["SHOPIFY_ADMIN_TOKEN"], env["SHOPIFY_API_VERSION"])
	cfg.BaseURL = os.Getenv("SHOPIFY_API_URL")
	client, err := shopify.New(cfg)
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		serveMetrics(metricsAddr, logger)
	}

	exporter := shopify.NewExporter(client, pipeline.NewEmitter(stdout), shopify.ExporterConfig{
		PageSize: pageSize,
		Workers:  resolvers,
	})

	logger.Info().
		Str("store", env["SHOPIFY_STORE_DOMAIN"]).
		Int("page_size", pageSize).
		Msg("starting product export")

	totals, err := exporter.Run(context.Background())
	if err != nil {
		return err
	}

	logger.Info().
		Int64("pages", totals.Pages).
		Int64("products", totals.Records).
		Msg("product export finished")
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
