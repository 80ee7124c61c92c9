package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/divvy"
	"github.com/arloliu/divvy/comm"
	"github.com/arloliu/divvy/internal/logging"
	"github.com/arloliu/divvy/internal/metrics"
	"github.com/arloliu/divvy/partition"
	"github.com/arloliu/divvy/printer"
	"github.com/arloliu/divvy/source"
	"github.com/arloliu/divvy/timekeeper"
	"github.com/arloliu/divvy/transport/natstransport"
	"github.com/arloliu/divvy/types"
)

const (
	clockRead  = "read"
	clockJoin  = "join"
	clockTotal = "total"
)

// pureRank stands in for a communicator in pure mode.
type pureRank struct{ index, size int }

func (p pureRank) Rank() int { return p.index }
func (p pureRank) Size() int { return p.size }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	logger := logging.NewSlogText(stderr, logging.LevelForVerbosity(cfg.Verbosity))
	cfg.ValidateWithWarnings(logger)

	reg := prometheus.NewRegistry()
	collector := metrics.NewPrometheus(reg, cfg.Metrics.Namespace)
	if f.metricsAddr != "" {
		stopServer := serveMetrics(f.metricsAddr, reg, logger)
		defer stopServer()
	}

	tk := timekeeper.New()
	tk.Start(clockTotal)

	var (
		share  []string
		header printer.Ranked
	)
	if cfg.NATS.Enabled() {
		share, header, err = runNATS(ctx, f, &cfg, logger, collector, tk)
	} else {
		share, header, err = runPure(ctx, f, &cfg, collector, tk)
	}
	tk.Stop(clockTotal)
	if err != nil {
		return err
	}

	out := printer.ForComm(stdout, header, cfg.Verbosity)
	for _, item := range share {
		// Level -1 always prints, even at verbosity 0.
		out.Print(-1, false, item)
	}
	out.Print(1, true, len(share), " items, policy ", cfg.Policy)
	for _, timing := range tk.AllTimes() {
		out.Printf(2, true, "%s: %s", timing.Name, timing.Elapsed.Round(time.Microsecond))
	}

	return nil
}

func loadConfig(f *flags) (divvy.Config, error) {
	cfg := divvy.DefaultConfig()
	if f.configPath != "" {
		loaded, err := divvy.LoadConfig(f.configPath)
		if err != nil {
			return divvy.Config{}, err
		}
		cfg = loaded
	}

	if f.policy != "" {
		cfg.Policy = f.policy
	}
	if f.natsURL != "" {
		cfg.NATS.URL = f.natsURL
	}
	if f.verbosity >= 0 {
		cfg.Verbosity = f.verbosity
	}
	if err := cfg.Validate(); err != nil {
		return divvy.Config{}, err
	}

	return cfg, nil
}

func readInput(ctx context.Context, path string, tk *timekeeper.TimeKeeper) (source.Items, error) {
	tk.Start(clockRead)
	defer tk.Stop(clockRead)

	return source.File{Path: path}.Items(ctx)
}

// runPure computes one worker's share with no communication.
func runPure(ctx context.Context, f *flags, cfg *divvy.Config, collector types.MetricsCollector, tk *timekeeper.TimeKeeper) ([]string, printer.Ranked, error) {
	kind, err := cfg.Kind()
	if err != nil {
		return nil, nil, err
	}

	items, err := readInput(ctx, f.inputPath, tk)
	if err != nil {
		return nil, nil, err
	}

	tk.Start(divvy.ClockShare)
	defer tk.Stop(divvy.ClockShare)
	start := time.Now()

	var share types.Sequence[string]
	if items.HasWeights() {
		rows, err := items.Weighted()
		if err != nil {
			return nil, nil, err
		}
		policy, err := partition.ForWeighted[string, float64](kind)
		if err != nil {
			return nil, nil, err
		}
		share, err = policy.Share(rows, f.index, f.size)
		if err != nil {
			collector.RecordShareError(kind.String(), "policy")
			return nil, nil, err
		}
	} else {
		policy, err := partition.For[string](kind)
		if err != nil {
			return nil, nil, err
		}
		share, err = policy.Share(items.Plain(), f.index, f.size)
		if err != nil {
			collector.RecordShareError(kind.String(), "policy")
			return nil, nil, err
		}
	}
	collector.RecordShare(kind.String(), share.Len(), time.Since(start).Seconds())

	return types.Collect(share), pureRank{index: f.index, size: f.size}, nil
}

// runNATS joins the configured group and shares or scatters the input.
func runNATS(ctx context.Context, f *flags, cfg *divvy.Config, logger types.Logger, collector types.MetricsCollector, tk *timekeeper.TimeKeeper) ([]string, printer.Ranked, error) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("divvy-"+cfg.NATS.Group))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	tk.Start(clockJoin)
	tr, err := natstransport.Join(ctx, nc, cfg.NATS.Transport(), natstransport.WithLogger(logger))
	tk.Stop(clockJoin)
	if err != nil {
		return nil, nil, err
	}

	c := comm.New(tr, comm.WithLogger(logger), comm.WithMetrics(collector))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.NATS.OperationTimeout)
		defer cancel()
		if err := c.Close(closeCtx); err != nil {
			logger.Warn("failed to leave group cleanly", "error", err)
		}
	}()

	job, err := divvy.NewJobFromConfig(c, cfg,
		divvy.WithLogger(logger),
		divvy.WithMetrics(collector),
		divvy.WithTimeKeeper(tk),
	)
	if err != nil {
		return nil, nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, cfg.NATS.OperationTimeout)
	defer cancel()

	share, err := shareNATS(opCtx, f, job, tk)
	if err != nil {
		return nil, nil, err
	}

	return types.Collect(share), c, nil
}

func shareNATS(ctx context.Context, f *flags, job *divvy.Job, tk *timekeeper.TimeKeeper) (types.Sequence[string], error) {
	involved := !f.exclusive

	// Scatter only needs the input on the manager; the others just receive.
	// If the manager cannot read it, they wait out the operation timeout.
	if f.scatter && !job.Comm().IsManager() {
		return divvy.Scatter[string](ctx, job, nil, involved)
	}

	items, err := readInput(ctx, f.inputPath, tk)
	if err != nil {
		return nil, err
	}

	if items.HasWeights() {
		rows, err := items.Weighted()
		if err != nil {
			return nil, err
		}
		if f.scatter {
			return divvy.ScatterWeighted(ctx, job, rows, involved)
		}

		return divvy.ShareWeighted(ctx, job, rows)
	}

	if f.scatter {
		return divvy.Scatter(ctx, job, items.Plain(), involved)
	}

	return divvy.Share(ctx, job, items.Plain())
}

// serveMetrics serves reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger types.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
