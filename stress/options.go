package stress

import (
	"errors"
	"runtime"

	"github.com/benz9527/xrbtree/lib/infra"
	"github.com/benz9527/xrbtree/observability"
	"github.com/benz9527/xrbtree/xlog"
)

var ErrInvalidStressOption = errors.New("[stress] invalid option")

const (
	defaultStressOps         = 10000
	defaultStressValueRange  = 10000
	defaultStressRemoveRatio = 0.4
	defaultStressCheckEvery  = 100
)

type stressCfg struct {
	workers     int
	seeds       []uint64
	ops         int
	valueRange  int64
	removeRatio float64
	checkEvery  int
	logger      xlog.XLogger
	metrics     *observability.StressMetrics
}

func defaultStressCfg() *stressCfg {
	return &stressCfg{
		workers:     runtime.GOMAXPROCS(0),
		seeds:       []uint64{1},
		ops:         defaultStressOps,
		valueRange:  defaultStressValueRange,
		removeRatio: defaultStressRemoveRatio,
		checkEvery:  defaultStressCheckEvery,
	}
}

type Option func(cfg *stressCfg) error

func WithStressWorkers(workers int) Option {
	return func(cfg *stressCfg) error {
		if workers <= 0 {
			return infra.WrapErrorStackf(ErrInvalidStressOption, "workers %d", workers)
		}
		cfg.workers = workers
		return nil
	}
}

// WithStressSeeds sets the seeds, each seed runs on its own tree.
func WithStressSeeds(seeds ...uint64) Option {
	return func(cfg *stressCfg) error {
		if len(seeds) == 0 {
			return infra.WrapErrorStack(ErrInvalidStressOption, "empty seeds")
		}
		cfg.seeds = append(make([]uint64, 0, len(seeds)), seeds...)
		return nil
	}
}

func WithStressOps(ops int) Option {
	return func(cfg *stressCfg) error {
		if ops <= 0 {
			return infra.WrapErrorStackf(ErrInvalidStressOption, "ops %d", ops)
		}
		cfg.ops = ops
		return nil
	}
}

// WithStressValueRange sets the values drawn from [-r/2, r/2).
// A small range makes more duplicates and remove hits.
func WithStressValueRange(r int64) Option {
	return func(cfg *stressCfg) error {
		if r <= 0 {
			return infra.WrapErrorStackf(ErrInvalidStressOption, "value range %d", r)
		}
		cfg.valueRange = r
		return nil
	}
}

func WithStressRemoveRatio(ratio float64) Option {
	return func(cfg *stressCfg) error {
		if ratio < 0 || ratio > 1 {
			return infra.WrapErrorStackf(ErrInvalidStressOption, "remove ratio %f", ratio)
		}
		cfg.removeRatio = ratio
		return nil
	}
}

func WithStressCheckEvery(n int) Option {
	return func(cfg *stressCfg) error {
		if n <= 0 {
			return infra.WrapErrorStackf(ErrInvalidStressOption, "check every %d", n)
		}
		cfg.checkEvery = n
		return nil
	}
}

func WithStressLogger(logger xlog.XLogger) Option {
	return func(cfg *stressCfg) error {
		cfg.logger = logger
		return nil
	}
}

func WithStressMetrics(metrics *observability.StressMetrics) Option {
	return func(cfg *stressCfg) error {
		cfg.metrics = metrics
		return nil
	}
}
