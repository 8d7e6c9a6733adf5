// Command termgraph loads a SNOMED CT RF2 release into memory, builds the
// transitive closure, and serves the query surface over NATS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/c360/termgraph/closure"
	"github.com/c360/termgraph/config"
	"github.com/c360/termgraph/ecl"
	"github.com/c360/termgraph/metric"
	"github.com/c360/termgraph/natsclient"
	"github.com/c360/termgraph/rf2"
	"github.com/c360/termgraph/service"
	"github.com/c360/termgraph/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("termgraph failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML configuration")
	releaseDir := flag.String("release", "", "RF2 release directory (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	if *releaseDir != "" {
		os.Setenv("TERMGRAPH_RELEASE_DIR", *releaseDir)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metric.NewMetricsRegistry()

	s, err := loadStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	evaluator, err := ecl.NewEvaluator(ecl.Deps{Store: s, Logger: logger})
	if err != nil {
		return err
	}
	handler, err := service.NewHandler(service.HandlerDeps{
		Store:        s,
		Evaluator:    evaluator,
		CacheSize:    cfg.Query.CacheSize,
		DefaultLimit: cfg.Query.DefaultLimit,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	client, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithName("termgraph"),
		natsclient.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err != nil {
		return err
	}

	svc, err := service.New(service.Deps{
		Config:   cfg,
		Handler:  handler,
		Client:   client,
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           registry.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logger.Info("termgraph ready",
		"nats", cfg.NATS.URL,
		"metrics", cfg.HTTPAddr,
		"concepts", s.ConceptCount())

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := svc.Stop(5 * time.Second); err != nil {
		logger.Warn("service stop", "error", err)
	}
	if err := client.Close(shutdownCtx); err != nil {
		logger.Warn("nats close", "error", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	return nil
}

// loadStore discovers the release, loads it, installs the closure (from
// the on-disk cache when valid), and publishes the store.
func loadStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store.Store, error) {
	catalog, err := rf2.Discover(cfg.ReleaseDir)
	if err != nil {
		return nil, err
	}
	logger.Info("release discovered",
		"release_date", catalog.ReleaseDate,
		"concept_file", catalog.ConceptFile)

	loaderConfig := store.LoaderConfig{
		Parallel:               cfg.Load.Parallel,
		IncludeStated:          cfg.Load.IncludeStated,
		IncludeTextDefinitions: cfg.Load.IncludeTextDefinitions,
	}
	loaderConfig.SetDefaults()
	loaderConfig.Concept.ActiveOnly = cfg.Load.ActiveOnly
	loaderConfig.Description.Base.ActiveOnly = cfg.Load.ActiveOnly
	loaderConfig.Description.LanguageCodes = cfg.Load.Languages
	loaderConfig.Relationship.Base.ActiveOnly = cfg.Load.ActiveOnly

	loader, err := store.NewLoader(loaderConfig, logger)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	s, err := loader.Load(ctx, catalog)
	if err != nil {
		return nil, err
	}

	c, err := obtainClosure(s, catalog, cfg.ClosureCachePath, logger)
	if err != nil {
		return nil, err
	}
	if err := s.BeginServing(c); err != nil {
		return nil, err
	}

	logger.Info("store published", "elapsed", time.Since(started))
	return s, nil
}

// obtainClosure loads a cached closure when its tag matches the current
// release, rebuilding and re-persisting otherwise.
func obtainClosure(s *store.Store, catalog rf2.Catalog, cachePath string, logger *slog.Logger) (*closure.Closure, error) {
	if cachePath == "" {
		return closure.Build(s, logger), nil
	}

	tag, err := closureTag(catalog)
	if err != nil {
		return nil, err
	}

	if cached, err := closure.LoadFile(cachePath, tag); err == nil {
		logger.Info("closure cache hit", "path", cachePath)
		return cached, nil
	} else if !os.IsNotExist(err) && !errors.Is(err, closure.ErrTagMismatch) && !errors.Is(err, closure.ErrBadFormat) {
		return nil, err
	}

	logger.Info("closure cache miss, rebuilding", "path", cachePath)
	c := closure.Build(s, logger)
	if err := c.Save(cachePath, tag); err != nil {
		logger.Warn("closure cache write failed", "path", cachePath, "error", err)
	}
	return c, nil
}

func closureTag(catalog rf2.Catalog) (closure.Tag, error) {
	hashes := make(map[string]string)
	for name, path := range map[string]string{
		"concept":      catalog.ConceptFile,
		"relationship": catalog.RelationshipFile,
	} {
		hash, err := closure.HashFile(path)
		if err != nil {
			return closure.Tag{}, fmt.Errorf("hashing %s: %w", path, err)
		}
		hashes[name] = hash
	}
	return closure.Tag{ReleaseDate: catalog.ReleaseDate, SourceHashes: hashes}, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
