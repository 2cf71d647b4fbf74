package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xrbtree/observability"
	"github.com/benz9527/xrbtree/stress"
	"github.com/benz9527/xrbtree/xlog"
)

type banner struct{}

func (banner) JSON() string {
	return `{"app":"xrbtree","desc":"red-black tree stress runner"}`
}

func (banner) PlainText() string {
	return "xrbtree, red-black tree stress runner"
}

func newLogger(opts *cliOptions) xlog.XLogger {
	xopts := []xlog.XLoggerOption{
		xlog.WithXLoggerContextFieldExtract(stress.ContextKeySeed, "seed"),
	}
	if len(os.Getenv("XLOG_LVL")) == 0 {
		xopts = append(xopts, xlog.WithXLoggerLevel(xlog.LogLevelInfo))
	}
	if opts.plainText {
		xopts = append(xopts, xlog.WithXLoggerEncoder(xlog.PlainText))
	}
	if opts.logWriter != nil {
		xopts = append(xopts, xlog.WithXLoggerWriter(opts.logWriter))
	}
	return xlog.NewXLogger(xopts...)
}

func newStressMetrics(lc fx.Lifecycle, opts *cliOptions, logger xlog.XLogger) (*observability.StressMetrics, error) {
	switch opts.metrics {
	case metricsConsole:
		shutdown, err := observability.NewConsoleMetricsExporter(5*time.Second, 3*time.Second, stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: shutdown})
	case metricsPrometheus:
		handler, promShutdown, err := observability.NewPrometheusMetricsExporter()
		if err != nil {
			return nil, err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		srv := &http.Server{Addr: opts.metricsAddr, Handler: mux, ReadHeaderTimeout: 3 * time.Second}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				ln, err := net.Listen("tcp", opts.metricsAddr)
				if err != nil {
					return err
				}
				logger.Info("prometheus metrics serving", zap.String("addr", ln.Addr().String()))
				go func() {
					if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error(err, "prometheus metrics server stopped")
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return multierr.Combine(srv.Shutdown(ctx), promShutdown(ctx))
			},
		})
	default:
		return nil, nil
	}

	statsCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		cancel()
		return nil
	}})
	observability.InitAppStats(statsCtx, "xrbtree")
	return observability.NewStressMetrics(otel.Meter("xrbtree/stress"))
}

func newRunner(opts *cliOptions, logger xlog.XLogger, metrics *observability.StressMetrics) (*stress.Runner, error) {
	return stress.NewRunner(opts.stressOptions(logger, metrics)...)
}

func reportFields(report *stress.Report) []zap.Field {
	if report == nil {
		return nil
	}
	return []zap.Field{
		zap.Int("seeds", len(report.Results)),
		zap.Int("failed", report.Failed),
		zap.Int64("adds", report.Adds),
		zap.Int64("removes", report.Removes),
		zap.Int64("violations", report.Violations),
		zap.Duration("elapsed", report.Elapsed),
	}
}

// runStress runs the stress once in background and shuts the app down
// with exit code 1 if any seed failed.
func runStress(lc fx.Lifecycle, shutdowner fx.Shutdowner, runner *stress.Runner, logger xlog.XLogger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Banner(banner{})
			go func() {
				defer close(done)
				code := 0
				report, err := runner.Run(ctx)
				if err != nil {
					code = 1
					logger.ErrorStack(err, "stress failed", reportFields(report)...)
				} else {
					logger.Info("stress passed", reportFields(report)...)
				}
				_ = logger.Sync()
				if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					logger.Error(err, "shutdown failed")
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func newApp(opts *cliOptions) *fx.App {
	return fx.New(
		fx.Supply(opts),
		fx.Provide(
			newLogger,
			newStressMetrics,
			newRunner,
		),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Invoke(runStress),
	)
}

func run(args []string) int {
	opts, err := parseFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return runApp(opts)
}

func runApp(opts *cliOptions) int {
	app := newApp(opts)
	// Subscribe before start, a short run may shut down inside OnStart.
	wait := app.Wait()
	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return 1
	}
	sig := <-wait

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil && sig.ExitCode == 0 {
		return 1
	}
	return sig.ExitCode
}

func main() {
	os.Exit(run(os.Args[1:]))
}
