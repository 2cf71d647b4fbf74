package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	StressOpAdd    = "add"
	StressOpRemove = "remove"
)

// StressMetrics records the stress runner progress. A nil
// StressMetrics records nothing.
type StressMetrics struct {
	ops        metric.Int64Counter
	violations metric.Int64Counter
	seeds      metric.Int64Counter
}

func NewStressMetrics(meter metric.Meter) (*StressMetrics, error) {
	ops, err := meter.Int64Counter(
		"xrbtree.stress.ops",
		metric.WithDescription("The tree operations applied by the stress runner."),
	)
	if err != nil {
		return nil, err
	}
	violations, err := meter.Int64Counter(
		"xrbtree.stress.violations",
		metric.WithDescription("The invariant or oracle mismatches found by the stress runner."),
	)
	if err != nil {
		return nil, err
	}
	seeds, err := meter.Int64Counter(
		"xrbtree.stress.seeds",
		metric.WithDescription("The finished stress seeds."),
	)
	if err != nil {
		return nil, err
	}
	return &StressMetrics{
		ops:        ops,
		violations: violations,
		seeds:      seeds,
	}, nil
}

func (m *StressMetrics) AddOps(ctx context.Context, op string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ops.Add(ctx, n, metric.WithAttributes(attribute.String("op", op)))
}

func (m *StressMetrics) AddViolations(ctx context.Context, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.violations.Add(ctx, n)
}

func (m *StressMetrics) SeedDone(ctx context.Context, failed bool) {
	if m == nil {
		return
	}
	m.seeds.Add(ctx, 1, metric.WithAttributes(attribute.Bool("failed", failed)))
}
