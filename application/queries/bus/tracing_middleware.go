package bus

import (
	"context"
	"reflect"

	"go.opentelemetry.io/otel/attribute"

	"kgexplorer/pkg/observability"
)

// TracingMiddleware wraps every query in a span named after its type
type TracingMiddleware struct {
	tracer *observability.Tracer
}

// NewTracingMiddleware creates a new tracing middleware
func NewTracingMiddleware(tracer *observability.Tracer) *TracingMiddleware {
	return &TracingMiddleware{tracer: tracer}
}

// Wrap wraps a query handler with a span
func (m *TracingMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		queryType := reflect.TypeOf(query).Name()
		ctx, span := m.tracer.Start(ctx, queryType, attribute.String("query.type", queryType))
		defer span.End()

		if cacheable, ok := query.(Cacheable); ok {
			span.SetAttributes(attribute.String("query.key", cacheable.CacheKey()))
		}

		result, err := next.Handle(ctx, query)
		if err != nil {
			observability.RecordError(span, err)
		}
		return result, err
	})
}
