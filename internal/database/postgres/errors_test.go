package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"serialization", codeSerializationFailure, apperror.ErrConflict},
		{"deadlock", codeDeadlockDetected, apperror.ErrConflict},
		{"lock timeout", codeLockNotAvailable, apperror.ErrConflict},
		{"stock check", codeCheckViolation, apperror.ErrInsufficientStock},
		{"duplicate", codeUniqueViolation, apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("exec: %w", &pgconn.PgError{Code: tt.code})
			assert.ErrorIs(t, Classify("op", err), tt.want)
		})
	}

	plain := errors.New("connection reset")
	assert.Equal(t, plain, Classify("op", plain))
	assert.NoError(t, Classify("op", nil))
}
