package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		remoteErr error
		want      int
	}{
		{"remote succeeds", nil, 1},
		{"remote fails", boom, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := 0
			err := Run(context.Background(), Command{
				Apply:  func() { state++ },
				Remote: func(context.Context) error { return tt.remoteErr },
				Revert: func() { state-- },
			})
			assert.ErrorIs(t, err, tt.remoteErr)
			if tt.remoteErr == nil {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestRunWithoutRemote(t *testing.T) {
	applied := false
	err := Run(context.Background(), Command{Apply: func() { applied = true }})
	assert.ErrorIs(t, err, ErrNoRemote)
	assert.False(t, applied)
}
