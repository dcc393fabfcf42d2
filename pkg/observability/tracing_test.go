package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestTracer_TraceFunction(t *testing.T) {
	tests := []struct {
		name    string
		fnErr   error
		wantErr bool
	}{
		{name: "success"},
		{name: "failure", fnErr: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			tracer := NewTracer("kgexplorer-test")
			called := false

			// Act
			err := tracer.TraceFunction(context.Background(), "op", func(ctx context.Context) error {
				called = true
				AddAttributes(ctx, attribute.String("k", "v"))
				return tt.fnErr
			})

			// Assert
			assert.True(t, called)
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.fnErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
