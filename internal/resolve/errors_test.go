package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolutionError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ResolutionError
		want string
	}{
		{
			name: "code and message",
			err:  &ResolutionError{Code: ErrCodeInvalidQuery, Message: "query failed validation"},
			want: "INVALID_QUERY: query failed validation",
		},
		{
			name: "with path",
			err:  &ResolutionError{Code: ErrCodeDepthExceeded, Message: "too deep", Path: []string{"a", "b"}},
			want: "DEPTH_EXCEEDED: too deep (path=a/b)",
		},
		{
			name: "with cause",
			err:  &ResolutionError{Code: ErrCodeCancelled, Message: "resolution abandoned", Path: []string{"a"}, Err: context.Canceled},
			want: "CANCELLED: resolution abandoned (path=a): context canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestResolutionError_Helpers(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", &ResolutionError{Code: ErrCodeReadFailed})

	assert.True(t, IsReadFailed(wrapped))
	assert.False(t, IsInvalidQuery(wrapped))
	assert.False(t, IsCancelled(wrapped))
	assert.False(t, IsDepthExceeded(wrapped))
	assert.False(t, IsReadFailed(errors.New("plain")))
	assert.False(t, IsReadFailed(nil))
}

func TestMutationError(t *testing.T) {
	cause := errors.New("quota")
	err := fmt.Errorf("wrap: %w", &MutationError{Name: "save!", Err: cause})

	assert.True(t, IsMutationError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "wrap: mutation save! failed: quota", err.Error())
	assert.False(t, IsMutationError(cause))
}
