package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("dial tcp 10.0.0.1:5432: i/o timeout")
	wrapped := fmt.Errorf("primary: %w", NewError(KindConnectTimeout, "find", base))

	assert.Equal(t, KindConnectTimeout, KindOf(wrapped))
	assert.Equal(t, KindStoreUnavailable, KindOf(base))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.True(t, errors.Is(wrapped, base))
}

func TestStoreError_SanitizedHidesDriverText(t *testing.T) {
	err := NewError(KindAuthFailure, "connect", errors.New(`password authentication failed for user "shop"`))
	assert.NotContains(t, err.Sanitized(), "password")
	assert.Equal(t, KindAuthFailure.Describe(), err.Sanitized())
}

func TestStoreError_ClientMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *StoreError
		expected string
	}{
		{
			name:     "driver cause is hidden",
			err:      NewError(KindValidation, "insert", errors.New(`null value in column "email" of relation "contacts" violates not-null constraint`)),
			expected: KindValidation.Describe(),
		},
		{
			name:     "message written for clients is kept",
			err:      Errorf(KindValidation, "validate", "update requires a document id"),
			expected: "update requires a document id",
		},
		{
			name:     "no cause",
			err:      NewError(KindValidation, "insert", nil),
			expected: KindValidation.Describe(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.ClientMessage())
		})
	}
}

func TestErrorKind_IsConnectivity(t *testing.T) {
	assert.True(t, KindConnectTimeout.IsConnectivity())
	assert.True(t, KindStaleHandle.IsConnectivity())
	assert.False(t, KindValidation.IsConnectivity())
	assert.False(t, KindNotFound.IsConnectivity())
}
