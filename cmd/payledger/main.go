package main

import (
	"PayLedger/internal/config"
	"PayLedger/internal/engine"
	"PayLedger/internal/event"
	"PayLedger/internal/observability"
	"PayLedger/internal/persistence"
	"PayLedger/internal/processor"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type options struct {
	output      string
	logLevel    string
	natsURL     string
	postgresDSN string
	metricsAddr string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "payledger: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "payledger <input.csv>",
		Short: "Apply a transaction stream to per-client account balances",
		Long: `payledger reads a CSV stream of deposits, withdrawals, disputes,
resolves and chargebacks, applies them in order to per-client accounts,
and writes the final account summary as CSV.

Rejected records are reported on stderr, one line each; processing
always continues to the end of the input.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the summary to a file instead of stdout")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides PAY_LOG_LEVEL)")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "publish applied events to this NATS server (overrides PAY_NATS_URL)")
	cmd.Flags().StringVar(&opts.postgresDSN, "postgres-dsn", "", "write the final snapshot to this Postgres database (overrides PAY_POSTGRES_DSN)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run (overrides PAY_METRICS_ADDR)")

	return cmd
}

func run(parent context.Context, opts *options, inputPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyOverrides(&cfg, opts)

	runID := uuid.New()
	logger := observability.
		NewLoggerWithLevel("payledger", observability.ParseLogLevel(cfg.LogLevel)).
		With().Str("run_id", runID.String()).Logger()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}

	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer input.Close()

	var publisher processor.AppliedPublisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Drain()

		js, err := jetstream.New(nc)
		if err != nil {
			return fmt.Errorf("init jetstream: %w", err)
		}
		if err := event.EnsureStream(ctx, js); err != nil {
			return err
		}
		publisher = event.NewPublisher(js)
		logger.Info().Str("url", cfg.NATSURL).Msg("publishing applied events")
	}

	proc := processor.New(engine.New(), logger, metrics, publisher)

	stats, err := proc.Process(ctx, input, os.Stderr)
	if err != nil {
		return err
	}

	out := os.Stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := proc.Export(out); err != nil {
		return err
	}

	if cfg.PostgresDSN != "" {
		if err := writeSnapshot(ctx, cfg.PostgresDSN, runID, proc); err != nil {
			return err
		}
		logger.Info().Msg("snapshot written to postgres")
	}

	logger.Info().
		Int64("applied", stats.Applied).
		Int64("rejected", stats.Rejected).
		Msg("run complete")

	return nil
}

func writeSnapshot(ctx context.Context, dsn string, runID uuid.UUID, proc *processor.Processor) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	w := persistence.NewSnapshotWriter(db)
	if err := w.EnsureSchema(ctx); err != nil {
		return err
	}
	return w.WriteSnapshot(ctx, runID, proc.Snapshot())
}

func applyOverrides(cfg *config.Config, opts *options) {
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.natsURL != "" {
		cfg.NATSURL = opts.natsURL
	}
	if opts.postgresDSN != "" {
		cfg.PostgresDSN = opts.postgresDSN
	}
	if opts.metricsAddr != "" {
		cfg.MetricsAddr = opts.metricsAddr
	}
}
