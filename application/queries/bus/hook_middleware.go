package bus

import (
	"context"
	"reflect"

	"kgexplorer/pkg/extensions"
)

// HookMiddleware runs extension hooks around query execution.
// A failing before-hook aborts the query with that error.
type HookMiddleware struct {
	hooks *extensions.HookManager
}

// NewHookMiddleware creates a new hook middleware
func NewHookMiddleware(hooks *extensions.HookManager) *HookMiddleware {
	return &HookMiddleware{hooks: hooks}
}

// Wrap wraps a query handler with hook execution
func (m *HookMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		data := &extensions.HookData{
			Operation: reflect.TypeOf(query).Name(),
			Before:    query,
		}

		if err := m.hooks.Execute(ctx, extensions.HookBeforeQueryExecute, data); err != nil {
			return nil, err
		}

		result, err := next.Handle(ctx, query)
		if err != nil {
			data.Err = err
			m.hooks.ExecuteAsync(ctx, extensions.HookQueryFailed, data)
			return nil, err
		}

		data.After = result
		m.hooks.ExecuteAsync(ctx, extensions.HookAfterQueryExecute, data)
		return result, nil
	})
}
