package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-writing-system/internal/adapter/basex"
	"github.com/heartmarshall/dictionary-writing-system/internal/adapter/basex/entry"
	"github.com/heartmarshall/dictionary-writing-system/internal/adapter/basex/ranges"
	"github.com/heartmarshall/dictionary-writing-system/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-writing-system/internal/adapter/postgres/audit"
	"github.com/heartmarshall/dictionary-writing-system/internal/config"
	"github.com/heartmarshall/dictionary-writing-system/internal/corpus"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
	"github.com/heartmarshall/dictionary-writing-system/internal/lift"
	"github.com/heartmarshall/dictionary-writing-system/internal/service/dictionary"
	"github.com/heartmarshall/dictionary-writing-system/internal/transport/middleware"
	"github.com/heartmarshall/dictionary-writing-system/internal/transport/rest"
)

const producer = "dws"

// components holds everything built from configuration. close releases
// the connections in reverse order of creation.
type components struct {
	cfg       *config.Config
	log       *slog.Logger
	connector *basex.Connector
	pool      *pgxpool.Pool
	service   *dictionary.Service
}

func (c *components) close() {
	if c.pool != nil {
		c.pool.Close()
	}
	if c.connector != nil {
		if err := c.connector.Close(); err != nil {
			c.log.Warn("close basex connection", slog.String("error", err.Error()))
		}
	}
}

// build connects to BaseX (creating the database when missing), opens the
// optional audit pool and assembles the dictionary service.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	c := &components{cfg: cfg, log: logger}

	c.connector = basex.NewConnector(logger, basex.Config{
		Host:         cfg.BaseX.Host,
		Port:         cfg.BaseX.Port,
		Username:     cfg.BaseX.Username,
		Password:     cfg.BaseX.Password,
		Database:     cfg.BaseX.EffectiveDatabase(),
		DialTimeout:  cfg.BaseX.DialTimeout,
		QueryTimeout: cfg.BaseX.QueryTimeout,
		MaxRetries:   cfg.BaseX.MaxRetries,
		RetryBase:    cfg.BaseX.RetryBase,
	})

	empty, err := lift.MarshalDocument(producer, nil)
	if err != nil {
		return nil, err
	}
	if err := c.connector.EnsureDatabase(ctx, string(empty)); err != nil {
		c.close()
		return nil, fmt.Errorf("ensure basex database: %w", err)
	}
	logger.Info("connected to basex",
		slog.String("addr", net.JoinHostPort(cfg.BaseX.Host, strconv.Itoa(cfg.BaseX.Port))),
		slog.String("database", c.connector.Database()),
	)

	var auditRepo *audit.Repo
	if cfg.Audit.Enabled() {
		c.pool, err = postgres.NewPool(ctx, cfg.Audit)
		if err != nil {
			c.close()
			return nil, fmt.Errorf("connect audit database: %w", err)
		}
		if cfg.Audit.Migrate {
			if err := postgres.MigratePool(ctx, logger, c.pool); err != nil {
				c.close()
				return nil, fmt.Errorf("migrate audit database: %w", err)
			}
		}
		auditRepo = audit.New(c.pool)
		logger.Info("audit trail enabled")
	} else {
		logger.Info("audit trail disabled")
	}

	processor, err := corpus.NewProcessor(logger, corpus.Config{
		Workers:   cfg.Corpus.Workers,
		BatchSize: cfg.Corpus.BatchSize,
		CacheSize: cfg.Corpus.CacheSize,
		TopN:      cfg.Corpus.TopTokens,
	})
	if err != nil {
		c.close()
		return nil, err
	}

	// A nil *audit.Repo must not reach the service as a non-nil interface.
	var auditLog interface {
		Log(context.Context, domain.AuditRecord) error
		LogBatch(context.Context, []domain.AuditRecord) error
		ListByEntry(context.Context, string, int) ([]domain.AuditRecord, error)
	}
	if auditRepo != nil {
		auditLog = auditRepo
	}

	c.service = dictionary.NewService(
		logger,
		entry.New(c.connector),
		ranges.New(c.connector),
		auditLog,
		processor,
		cfg.Dictionary,
	)
	return c, nil
}

// Run loads configuration from configPath (see config.LoadFrom), wires the
// application and serves HTTP until ctx is cancelled, then shuts the server
// down gracefully.
func Run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	c, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	checks := []rest.Check{{Name: "basex", Pinger: c.connector}}
	if c.pool != nil {
		checks = append(checks, rest.Check{Name: "audit", Pinger: c.pool, Optional: true})
	}

	mux := rest.NewRouter(
		rest.NewDictionaryHandler(c.service, logger, cfg.Server.MaxUploadBytes),
		rest.NewHealthHandler(logger, Version, checks...),
		c.service,
	)

	var limit middleware.Middleware
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit)
		defer limiter.Stop()
		limit = limiter.Limit()
	}

	// Metrics wraps the mux directly so the matched pattern is visible to it.
	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		limit,
		middleware.Editor(),
	)(middleware.Metrics()(mux))

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}

// ImportOptions configures Import.
type ImportOptions struct {
	ConfigPath string
	Path       string
	RangesPath string
	Mode       domain.ImportMode
}

// Import streams a LIFT file (and optionally a .lift-ranges file) into the
// configured database.
func Import(ctx context.Context, opts ImportOptions) (*dictionary.ImportResult, error) {
	cfg, err := config.LoadFrom(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg.Log)

	c, err := build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer c.close()

	if opts.RangesPath != "" {
		f, err := os.Open(opts.RangesPath)
		if err != nil {
			return nil, fmt.Errorf("open ranges file: %w", err)
		}
		n, err := c.service.ImportRanges(ctx, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		logger.Info("ranges stored", slog.Int("count", n), slog.String("file", opts.RangesPath))
	}

	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open lift file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	res, err := c.service.ImportLIFT(ctx, f, dictionary.ImportInput{Mode: opts.Mode})
	if err != nil {
		return nil, err
	}
	logger.Info("import finished",
		slog.String("file", opts.Path),
		slog.Int("total", res.Total),
		slog.Int("imported", res.Imported),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", res.Skipped),
		slog.Int("stored", res.Stored),
		slog.Duration("duration", time.Since(start)),
	)
	return res, nil
}
