package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("subtract: %w", &InsufficientStockError{BoxID: "b1", Color: "blue", Available: 5, Requested: 8})

	require.True(t, errors.Is(err, ErrInsufficientStock))

	var ins *InsufficientStockError
	require.True(t, errors.As(err, &ins))
	assert.Equal(t, 5, ins.Available)
	assert.Equal(t, 8, ins.Requested)
	assert.Equal(t, "blue", ins.Color)
}

func TestConflictKeepsCause(t *testing.T) {
	cause := errors.New("serialization failure")
	err := fmt.Errorf("issue challan: %w", Conflict("increment counter", cause))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRetryable(err))
	assert.False(t, IsRetryable(Validation("quantity", "must be positive")))
}

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
		http int
	}{
		{"validation", Validation("color", "must not be empty"), codes.InvalidArgument, http.StatusBadRequest},
		{"not found", NotFound("box", "b1"), codes.NotFound, http.StatusNotFound},
		{"insufficient", &InsufficientStockError{}, codes.FailedPrecondition, http.StatusBadRequest},
		{"consumed", &AlreadyConsumedError{IDs: []string{"a1"}}, codes.AlreadyExists, http.StatusConflict},
		{"conflict", Conflict("op", nil), codes.Aborted, http.StatusConflict},
		{"cancelled", ErrAlreadyCancelled, codes.FailedPrecondition, http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), codes.Internal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GRPCCode(tt.err))
			assert.Equal(t, tt.http, HTTPStatus(tt.err))
		})
	}
}

func TestResponseDoesNotLeakInternals(t *testing.T) {
	body := Response(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal error", body["message"])
	assert.NotContains(t, body, "details")
}

func TestResponseCarriesShortfall(t *testing.T) {
	body := Response(&InsufficientStockError{BoxID: "b1", Color: "blue", Available: 5, Requested: 8})
	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 5, details["available"])
	assert.Equal(t, 8, details["requested"])
	assert.Equal(t, "blue", details["color"])
}
