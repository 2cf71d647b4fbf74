package main

import (
	"fmt"
	"runtime"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xrbtree/observability"
	"github.com/benz9527/xrbtree/stress"
	"github.com/benz9527/xrbtree/xlog"
)

const (
	metricsNone       = "none"
	metricsConsole    = "console"
	metricsPrometheus = "prometheus"
)

type cliOptions struct {
	seeds       []uint
	ops         int
	valueRange  int64
	removeRatio float64
	workers     int
	checkEvery  int
	metrics     string
	metricsAddr string
	plainText   bool
	// logWriter replaces the stdout, no flag.
	logWriter zapcore.WriteSyncer
}

func parseFlags(args []string) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet("xrbtree", flag.ContinueOnError)
	fs.UintSliceVar(&opts.seeds, "seeds", []uint{1}, "seeds to run, one tree per seed")
	fs.IntVar(&opts.ops, "ops", 10000, "random operations per seed")
	fs.Int64Var(&opts.valueRange, "range", 10000, "values are drawn from [-range/2, range/2)")
	fs.Float64Var(&opts.removeRatio, "remove-ratio", 0.4, "probability of a remove operation")
	fs.IntVar(&opts.workers, "workers", runtime.GOMAXPROCS(0), "seeds running at the same time")
	fs.IntVar(&opts.checkEvery, "check-every", 100, "operations between two validations")
	fs.StringVar(&opts.metrics, "metrics", metricsNone, "metrics exporter: none, console or prometheus")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "127.0.0.1:9527", "prometheus metrics listen address")
	fs.BoolVar(&opts.plainText, "plain-text", false, "plain text logs instead of JSON")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if len(fs.Args()) > 0 {
		return nil, fmt.Errorf("unexpected arguments %v", fs.Args())
	}
	switch opts.metrics {
	case metricsNone, metricsConsole, metricsPrometheus:
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", opts.metrics)
	}
	return opts, nil
}

func (opts *cliOptions) stressOptions(logger xlog.XLogger, metrics *observability.StressMetrics) []stress.Option {
	seeds := make([]uint64, 0, len(opts.seeds))
	for _, seed := range opts.seeds {
		seeds = append(seeds, uint64(seed))
	}
	return []stress.Option{
		stress.WithStressSeeds(seeds...),
		stress.WithStressOps(opts.ops),
		stress.WithStressValueRange(opts.valueRange),
		stress.WithStressRemoveRatio(opts.removeRatio),
		stress.WithStressWorkers(opts.workers),
		stress.WithStressCheckEvery(opts.checkEvery),
		stress.WithStressLogger(logger),
		stress.WithStressMetrics(metrics),
	}
}
