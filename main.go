package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"viz-query-service/config"
	"viz-query-service/logger"
	"viz-query-service/models"
	"viz-query-service/router"
	"viz-query-service/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:          "vizq",
		Short:        "vizq turns dashboard views into search queries",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file, ./config.yaml when empty")
	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the query API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, ".")
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Logging); err != nil {
				return errors.Wrap(err, "init logger")
			}
			return serve(cmd.Context(), cfg)
		},
	})
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	l := logger.GetLogger("main")

	schema, err := services.LoadSchemaFromFile(cfg.SchemaFile)
	if err != nil {
		l.Warn().Err(err).Str("file", cfg.SchemaFile).Msg("starting with an empty schema")
		schema = &models.SchemaTable{}
	}

	var transport services.Transport
	var mappings map[string]models.FieldMapping
	resolver := services.IndexResolver{Indices: cfg.Indices, Default: cfg.DefaultEndpoint, ReadAlias: cfg.ReadAlias}
	switch cfg.Transport {
	case config.TransportHTTP:
		transport = services.NewRestTransport(nil)
	default:
		esClient, err := services.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			return err
		}
		if cfg.InferSchema {
			mappings = inferSchema(ctx, l, esClient, schema, cfg)
		}
		transport = esClient
	}

	reg := prometheus.NewRegistry()
	d := services.NewDashboard(services.DashboardConfig{
		Schema:     schema,
		Transport:  transport,
		Resolver:   resolver,
		Hooks:      services.NewLogHooks(),
		NestedPath: cfg.NestedPath,
		JoinKey:    cfg.JoinKey,
		Registerer: reg,

		FieldMappings: mappings,
	})

	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router.NewRouter(d, reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("addr", cfg.Listen).Msg("server is running")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// inferSchema completes the schema's field types from the index mappings and
// returns the mappings of every index it could read.
func inferSchema(ctx context.Context, l *logger.Logger, es *services.ElasticsearchClient, schema *models.SchemaTable, cfg config.Config) map[string]models.FieldMapping {
	all := make(map[string]models.FieldMapping)
	for _, dataType := range models.SortedKeys(cfg.Indices) {
		index, ok := cfg.IndexFor(dataType)
		if !ok {
			continue
		}
		mappings, err := es.InferFieldMappings(ctx, index)
		if err != nil {
			l.Warn().Err(err).Str("data_type", dataType).Msg("cannot infer field types")
			continue
		}
		n := services.ApplyMappings(schema, dataType, mappings)
		l.Info().Str("data_type", dataType).Int("fields", n).Msg("inferred field types")
		for field, m := range mappings {
			if _, seen := all[field]; !seen {
				all[field] = m
			}
		}
	}
	return all
}
