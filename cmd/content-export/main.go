// Command content-export streams every Sanity document of one type to
// stdout as NDJSON, one document per line, in _id order.
//
// Environment:
//
//	SANITY_PROJECT_ID   project identifier, e.g. zq9xr2ab
//	SANITY_DATASET      dataset name, e.g. production
//	SANITY_API_VERSION  query API version date, e.g. 2024-01-01
//	SANITY_TOKEN        API token with read access
//	SANITY_API_URL      project host override (optional)
//
// Diagnostics go to stderr; see pkg/logging for LOG_LEVEL and
// LOG_FORMAT. A .env file in the working directory is loaded first.
//
// Usage:
//
//	content-export -type post [-page-size n] > posts.ndjson
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
	"github.com/wiebekaai/ecommerce-skills/pkg/sanity"
)

func main() {
	docType := flag.String("type", "", "document _type to export (required)")
	pageSize := flag.Int("page-size", sanity.DefaultPageSize, "documents per slice window")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address while the export runs")
	flag.Parse()

	if err := run(os.Stdout, *docType, *pageSize, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "\x1b[31mError: %v\x1b[0m\n", err)
		os.Exit(1)
	}
}

func run(stdout io.Writer, docType string, pageSize int, metricsAddr string) error {
	logging.Setup(logging.FromEnv())
	logger := logging.NewRunLogger("content-export")

	if err := config.Load(); err != nil {
		return err
	}
	env, err := config.RequireAll("SANITY_PROJECT_ID", "SANITY_DATASET", "SANITY_API_VERSION", "SANITY_TOKEN")
	if err != nil {
		return err
	}

	client, err := sanity.New(sanity.Config{
		ProjectID: env["SANITY_PROJECT_ID"],
		Dataset:   env["SANITY_DATASET"],
		Version:   env["SANITY_API_VERSION"],
		Token:     env["SANITY_TOKEN"],
		BaseURL:   os.Getenv("SANITY_API_URL"),
	})
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		serveMetrics(metricsAddr, logger)
	}

	exporter, err := sanity.NewExporter(client, pipeline.NewEmitter(stdout), sanity.ExporterConfig{
		Type:     docType,
		PageSize: pageSize,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("dataset", env["SANITY_DATASET"]).
		Str("type", docType).
		Msg("starting content export")

	totals, err := exporter.Run(context.Background())
	if err != nil {
		return err
	}

	logger.Info().
		Int64("pages", totals.Pages).
		Int64("documents", totals.Records).
		Msg("content export finished")
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
