package query

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	lookups         metric.Int64Counter
	fallbacks       metric.Int64Counter
	retrievalErrors metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter("engine/query")

	lookups, err := meter.Int64Counter("cocktails.query.lookups",
		metric.WithDescription("Exact name lookups by kind and outcome."))
	if err != nil {
		return nil, err
	}
	fallbacks, err := meter.Int64Counter("cocktails.query.fallbacks",
		metric.WithDescription("Queries answered through retrieval."))
	if err != nil {
		return nil, err
	}
	retrievalErrors, err := meter.Int64Counter("cocktails.query.retrieval_errors",
		metric.WithDescription("Retrieval failures surfaced to callers."))
	if err != nil {
		return nil, err
	}
	return &metrics{lookups: lookups, fallbacks: fallbacks, retrievalErrors: retrievalErrors}, nil
}

func (m *metrics) lookup(ctx context.Context, kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind), attribute.String("outcome", outcome)))
}

func (m *metrics) fallback(ctx context.Context, kind string) {
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *metrics) retrievalError(ctx context.Context, kind string) {
	m.retrievalErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
