package session

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webterm/internal/shared/id"
)

func TestRegistryAcquireRelease(t *testing.T) {
	reg := NewRegistry()
	h := newHarness(t)

	release, err := reg.Acquire(h.session)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	got, ok := reg.Get(h.session.ID())
	require.True(t, ok)
	assert.Same(t, h.session, got)

	_, err = reg.Acquire(h.session)
	assert.ErrorIs(t, err, ErrDuplicateSession)

	release()
	release()
	assert.Equal(t, 0, reg.Len())

	_, ok = reg.Get(h.session.ID())
	assert.False(t, ok)
}

func TestRegistryListOrdered(t *testing.T) {
	reg := NewRegistry()
	gen := id.NewGeneratorWithEntropy(ulid.Monotonic(rand.New(rand.NewSource(1)), 0))

	ids := make([]id.SessionID, 3)
	for i := range ids {
		ids[i] = gen.NewSessionID()
	}

	// acquire newest first; List still reports creation order
	for i := len(ids) - 1; i >= 0; i-- {
		_, err := reg.Acquire(newHarnessWithID(t, ids[i]).session)
		require.NoError(t, err)
	}

	infos := reg.List()
	require.Len(t, infos, 3)
	for i, info := range infos {
		assert.Equal(t, ids[i], info.ID)
		assert.Equal(t, "starting", info.State)
	}
}

func TestRegistryCloseAll(t *testing.T) {
	reg := NewRegistry()

	var harnesses []*harness
	for i := 0; i < 3; i++ {
		h := newHarness(t)
		release, err := reg.Acquire(h.session)
		require.NoError(t, err)

		go func() {
			defer release()
			h.result <- h.session.Run(context.Background())
		}()
		h.waitActive(t)
		harnesses = append(harnesses, h)
	}

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, reg.CloseAll(ctx))
	assert.Equal(t, 0, reg.Len())

	for _, h := range harnesses {
		require.NoError(t, h.wait(t))
		assert.Equal(t, ReasonShutdown, h.session.Reason())
		assert.Equal(t, int32(1), h.term.terminateCalls.Load())
		assert.Equal(t, int32(1), h.endpoint.closeCalls.Load())
	}

	_, err := reg.Acquire(newHarness(t).session)
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestRegistryCloseAllDeadline(t *testing.T) {
	reg := NewRegistry()
	h := newHarness(t)

	// acquired but never run, so nothing will release it
	_, err := reg.Acquire(h.session)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, reg.CloseAll(ctx), context.DeadlineExceeded)
}

func TestRegistryCloseAllEmpty(t *testing.T) {
	assert.NoError(t, NewRegistry().CloseAll(context.Background()))
}
