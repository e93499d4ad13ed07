package pool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gwPoolID = "ocid1.instancepool.oc1..gateway"

func newTestGateway(size int) (*Gateway, *FakeController) {
	controller := NewFakeController()
	controller.SetSize(gwPoolID, size)
	return NewGateway(controller), controller
}

func TestResizeToward(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		target      int
		wantSize    int
		wantChanged bool
	}{
		{"scales up to target", 3, 5, 5, true},
		{"scales down to target", 8, 2, 2, true},
		{"already at target", 5, 5, 5, false},
		{"target above max dropped whole", 3, 15, 3, false},
		{"target below min dropped whole", 5, 0, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, controller := newTestGateway(tt.size)

			previous, updated, changed, err := gw.ResizeToward(context.Background(), gwPoolID, tt.target, 1, 10)
			require.NoError(t, err)

			assert.Equal(t, tt.size, previous)
			assert.Equal(t, tt.wantSize, updated)
			assert.Equal(t, tt.wantChanged, changed)

			size, err := controller.GetSize(context.Background(), gwPoolID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}

func TestResizeToward_UnknownPool(t *testing.T) {
	gw := NewGateway(NewFakeController())

	_, _, changed, err := gw.ResizeToward(context.Background(), "missing", 5, 1, 10)
	assert.ErrorIs(t, err, ErrPoolNotFound)
	assert.False(t, changed)
}
