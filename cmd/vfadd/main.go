package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/23skdu/longbow-vfadd/internal/config"
	"github.com/23skdu/longbow-vfadd/internal/corpus"
	"github.com/23skdu/longbow-vfadd/internal/harness"
	"github.com/23skdu/longbow-vfadd/internal/logger"
	"github.com/23skdu/longbow-vfadd/internal/monitoring"
	"github.com/23skdu/longbow-vfadd/internal/report"
	"github.com/23skdu/longbow-vfadd/internal/sim"
	"github.com/23skdu/longbow-vfadd/internal/suite"
	"github.com/23skdu/longbow-vfadd/internal/transport"
	"github.com/23skdu/longbow-vfadd/internal/vector"
)

const flightScheme = "flight://"

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	cfg       config.Config
	modes     string
	tolerance string
	loadPath  string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	opts := options{cfg: config.Default()}
	cfg := &opts.cfg

	fs := flag.NewFlagSet("vfadd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for random vector generation")
	fs.IntVar(&cfg.RandomCount, "count", cfg.RandomCount, "Random vectors per band")
	fs.StringVar(&opts.modes, "modes", "all", "Comma-separated modes (fp32,fp16,bf16,fp16_widen,bf16_widen) or all")
	fs.StringVar(&opts.tolerance, "tolerance", cfg.Tolerance.String(), "Policy for random vectors: precise, ulp, relative_error, ulp_or_relative_error")
	fs.BoolVar(&cfg.StopOnFailure, "stop-on-failure", cfg.StopOnFailure, "Stop at the first failing vector")
	fs.IntVar(&cfg.TimeoutCycles, "timeout", cfg.TimeoutCycles, "Simulated cycles to wait for a result")
	fs.IntVar(&cfg.Latency, "latency", cfg.Latency, "Simulated DUT latency in cycles")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console or json")
	fs.StringVar(&cfg.MetricsAddr, "metrics", "", "Address to serve Prometheus metrics (disabled when empty)")
	fs.StringVar(&cfg.ExportPath, "export", "", "Write the corpus as an Arrow IPC file")
	fs.StringVar(&cfg.ReportPath, "report", "", "Write per-vector diagnostics (.jsonl for JSON Lines, .zst to compress)")
	fs.StringVar(&cfg.ServeAddr, "serve", "", "Serve the corpus over Arrow Flight after the run")
	fs.StringVar(&opts.loadPath, "load", "", "Replay a corpus file, or flight://host:port, instead of generating one")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	// replayed vectors keep their stored operands and policy
	if opts.loadPath != "" {
		var ignored []string
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "seed", "count", "tolerance":
				ignored = append(ignored, "-"+f.Name)
			}
		})
		if len(ignored) > 0 {
			return opts, fmt.Errorf("invalid flags: %s (no effect with -load)", strings.Join(ignored, ", "))
		}
	}

	modes, err := config.ParseModes(opts.modes)
	if err != nil {
		return opts, err
	}
	cfg.Modes = modes
	if cfg.Tolerance, err = vector.ParseTolerance(opts.tolerance); err != nil {
		return opts, err
	}
	return opts, cfg.Validate()
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	cfg := opts.cfg
	logger.SetOutput(stderr)
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	monitor := monitoring.NewHealthMonitor()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := monitor.Start(cfg.MetricsAddr); err != nil {
				logger.Log.Error("Metrics server error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = monitor.Stop(ctx)
		}()
	}

	vectors, err := load(ctx, opts)
	if err != nil {
		logger.Log.Error("Failed to prepare vectors", err)
		return exitFailed
	}

	if cfg.ExportPath != "" {
		if err := corpus.WriteFile(cfg.ExportPath, vectors); err != nil {
			logger.Log.Error("Failed to export corpus", err, "path", cfg.ExportPath)
			return exitFailed
		}
		logger.Log.Info("Corpus exported", "path", cfg.ExportPath, "vectors", len(vectors))
	}

	runner := harness.Runner{
		Sim:           &sim.Model{Latency: cfg.Latency, TimeoutCycles: cfg.TimeoutCycles},
		StopOnFailure: cfg.StopOnFailure,
		Report:        monitor,
	}
	var rw *report.Writer
	if cfg.ReportPath != "" {
		if rw, err = report.Create(cfg.ReportPath); err != nil {
			logger.Log.Error("Failed to open report", err, "path", cfg.ReportPath)
			return exitFailed
		}
		monitor.Next = rw
	}

	monitor.Begin(len(vectors))
	sum, runErr := runner.Run(ctx, vectors)
	monitor.Finish()
	if rw != nil {
		if err := rw.Close(); err != nil {
			logger.Log.Error("Failed to close report", err)
		}
	}
	if runErr != nil {
		logger.Log.Error("Run failed", runErr)
		return exitFailed
	}

	if cfg.ServeAddr != "" {
		srv := transport.NewServer(vectors)
		if err := srv.Start(cfg.ServeAddr); err != nil {
			logger.Log.Error("Failed to start Flight server", err)
			return exitFailed
		}
		<-ctx.Done()
		logger.Log.Info("Interrupt received, shutting down...")
		srv.Shutdown()
	}

	if !sum.OK() {
		return exitFailed
	}
	return exitOK
}

func load(ctx context.Context, opts options) ([]*vector.Vector, error) {
	if opts.loadPath == "" {
		b := suite.Builder{Config: opts.cfg}
		return b.Build(ctx)
	}

	rows, err := readRows(ctx, opts.loadPath)
	if err != nil {
		return nil, err
	}
	all, err := corpus.Vectors(rows, nil)
	if err != nil {
		return nil, err
	}
	var vectors []*vector.Vector
	for _, v := range all {
		if opts.cfg.Selected(v.Mode()) {
			vectors = append(vectors, v)
		}
	}
	logger.Log.Info("Corpus loaded", "path", opts.loadPath, "vectors", len(vectors), "of", len(all))
	return vectors, nil
}

// readRows loads a corpus file, or pulls the whole corpus from a Flight
// server when path is flight://host:port.
func readRows(ctx context.Context, path string) ([]corpus.Row, error) {
	addr, ok := strings.CutPrefix(path, flightScheme)
	if !ok {
		return corpus.ReadFile(path)
	}

	c, err := transport.Dial(addr)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Fetch(ctx, transport.TicketAll)
}
