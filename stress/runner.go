package stress

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xrbtree/lib/id"
	"github.com/benz9527/xrbtree/lib/infra"
	"github.com/benz9527/xrbtree/lib/oracle"
	"github.com/benz9527/xrbtree/lib/tree"
	"github.com/benz9527/xrbtree/observability"
	"github.com/benz9527/xrbtree/xlog"
)

var ErrStressOracleMismatch = errors.New("[stress] oracle mismatch")

type contextKey string

// ContextKeySeed carries the running seed, extract it into the log
// fields by xlog.WithXLoggerContextFieldExtract.
const ContextKeySeed contextKey = "stressSeed"

// random query targets per check point besides the boundaries.
const stressTargets = 8

type SeedResult struct {
	Seed         uint64
	TaskID       uint64
	Adds         int64
	Removes      int64
	RemoveMisses int64
	Checks       int64
	Violations   int64
	FinalSize    int64
	Elapsed      time.Duration
	Err          error
}

type Report struct {
	Results    []*SeedResult
	Adds       int64
	Removes    int64
	Violations int64
	Failed     int
	Elapsed    time.Duration
}

// Runner applies seeded random operations to independent trees and
// checks each of them against a sorted-slice oracle.
// A tree is never shared between the pool workers.
type Runner struct {
	cfg *stressCfg
	ids id.Generator
}

func NewRunner(opts ...Option) (*Runner, error) {
	cfg := defaultStressCfg()
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.logger == nil {
		cfg.logger = xlog.NewXLogger(xlog.WithXLoggerLevel(xlog.LogLevelInfo))
	}
	return &Runner{cfg: cfg, ids: id.NewSequence(0)}, nil
}

func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	pool, err := ants.NewPool(
		r.cfg.workers,
		ants.WithLogger(xlog.NewAntsXLogger(r.cfg.logger)),
	)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[stress] new pool")
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		results = make([]*SeedResult, len(r.cfg.seeds))
		errs    error
	)
	for i, seed := range r.cfg.seeds {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i] = r.runSeed(ctx, seed)
		}); err != nil {
			wg.Done()
			results[i] = &SeedResult{
				Seed: seed,
				Err:  infra.WrapErrorStackf(err, "[stress] submit seed %d", seed),
			}
		}
	}
	wg.Wait()

	report := &Report{
		Results: lo.Filter(results, func(res *SeedResult, _ int) bool {
			return res != nil
		}),
	}
	report.Adds = lo.SumBy(report.Results, func(res *SeedResult) int64 { return res.Adds })
	report.Removes = lo.SumBy(report.Results, func(res *SeedResult) int64 { return res.Removes })
	report.Violations = lo.SumBy(report.Results, func(res *SeedResult) int64 { return res.Violations })
	for _, res := range report.Results {
		if res.Err != nil {
			report.Failed++
			errs = multierr.Append(errs, res.Err)
		}
	}
	if err := ctx.Err(); err != nil && len(report.Results) < len(r.cfg.seeds) {
		errs = multierr.Append(errs, infra.WrapErrorStackf(err, "[stress] %d seeds not started",
			len(r.cfg.seeds)-len(report.Results)))
	}
	report.Elapsed = time.Since(start)
	return report, errs
}

func (r *Runner) runSeed(ctx context.Context, seed uint64) (res *SeedResult) {
	start := time.Now()
	ctx = context.WithValue(ctx, ContextKeySeed, seed)
	res = &SeedResult{Seed: seed, TaskID: r.ids.Number()}
	defer func() {
		if p := recover(); p != nil {
			res.Err = infra.NewErrorStack(fmt.Sprintf("[stress] seed %d panic: %v", seed, p))
			res.Violations++
		}
		res.Elapsed = time.Since(start)
		r.seedDone(ctx, res)
	}()

	var (
		rng  = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		t    = tree.NewRBTree[int64]()
		ref  = &oracle.SortedSlice[int64]{}
		half = r.cfg.valueRange / 2
	)
	for i := 1; i <= r.cfg.ops; i++ {
		v := rng.Int64N(r.cfg.valueRange) - half
		if rng.Float64() < r.cfg.removeRatio {
			res.Removes++
			removed, expected := t.Remove(v), ref.Remove(v)
			if !removed {
				res.RemoveMisses++
			}
			if removed != expected {
				res.Violations++
				res.Err = infra.WrapErrorStackf(
					fmt.Errorf("%w, remove %d got %v, expected %v", ErrStressOracleMismatch, v, removed, expected),
					"[stress] seed %d op %d", seed, i,
				)
				break
			}
		} else {
			res.Adds++
			t.Add(v)
			ref.Add(v)
		}

		if i%r.cfg.checkEvery != 0 && i != r.cfg.ops {
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Err = infra.WrapErrorStackf(err, "[stress] seed %d canceled at op %d", seed, i)
			break
		}
		res.Checks++
		if err := check(t, *ref, rng); err != nil {
			res.Violations += int64(len(multierr.Errors(err)))
			res.Err = infra.WrapErrorStackf(err, "[stress] seed %d op %d", seed, i)
			break
		}
	}
	res.FinalSize = t.Size()
	return res
}

func (r *Runner) seedDone(ctx context.Context, res *SeedResult) {
	r.cfg.metrics.AddOps(ctx, observability.StressOpAdd, res.Adds)
	r.cfg.metrics.AddOps(ctx, observability.StressOpRemove, res.Removes)
	r.cfg.metrics.AddViolations(ctx, res.Violations)
	r.cfg.metrics.SeedDone(ctx, res.Err != nil)

	fields := []zap.Field{
		zap.Uint64("taskId", res.TaskID),
		zap.Int64("adds", res.Adds),
		zap.Int64("removes", res.Removes),
		zap.Int64("checks", res.Checks),
		zap.Int64("size", res.FinalSize),
		zap.Duration("elapsed", res.Elapsed),
	}
	if res.Err != nil {
		r.cfg.logger.ErrorStackContext(ctx, res.Err, "stress seed failed", fields...)
		return
	}
	r.cfg.logger.InfoContext(ctx, "stress seed done", fields...)
}

// check validates the red-black rules and compares the queries
// with the oracle on the boundaries and random targets.
func check(t tree.RBTree[int64], ref oracle.SortedSlice[int64], rng *rand.Rand) error {
	errs := tree.Validate[int64](t)
	mismatch := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w, "+format, append([]any{ErrStressOracleMismatch}, args...)...))
	}

	if size, expected := t.Size(), ref.Len(); size != expected {
		mismatch("size %d, expected %d", size, expected)
	}
	if t.IsEmpty() != (len(ref) == 0) {
		mismatch("empty %v, expected %v", t.IsEmpty(), len(ref) == 0)
	}
	if v, ok := t.First(); !sameResult(v, ok)(ref.First()) {
		mismatch("first %d(%v)", v, ok)
	}
	if v, ok := t.Last(); !sameResult(v, ok)(ref.Last()) {
		mismatch("last %d(%v)", v, ok)
	}

	targets := make([]int64, 0, stressTargets+4)
	if first, ok := ref.First(); ok {
		last, _ := ref.Last()
		targets = append(targets, first, first-1, last, last+1)
		for i := 0; i < stressTargets; i++ {
			targets = append(targets, first-1+rng.Int64N(last-first+3))
		}
	} else {
		targets = append(targets, rng.Int64())
	}
	for _, p := range targets {
		if got, expected := t.Contains(p), ref.Contains(p); got != expected {
			mismatch("contains %d %v, expected %v", p, got, expected)
		}
		if v, ok := t.Ceiling(p); !sameResult(v, ok)(ref.Ceiling(p)) {
			mismatch("ceiling %d got %d(%v)", p, v, ok)
		}
		if v, ok := t.Higher(p); !sameResult(v, ok)(ref.Higher(p)) {
			mismatch("higher %d got %d(%v)", p, v, ok)
		}
	}
	return errs
}

func sameResult(v int64, ok bool) func(int64, bool) bool {
	return func(expected int64, expectedOK bool) bool {
		if ok != expectedOK {
			return false
		}
		return !ok || v == expected
	}
}
