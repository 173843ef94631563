package shutdownqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The queue is process-wide, so these tests do not run in parallel.

func resetQueue(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		q.mu.Lock()
		q.tasks = nil
		q.closed = false
		q.mu.Unlock()
	})
}

func recordInto(order *[]string, name string) Task {
	return func(context.Context) error {
		*order = append(*order, name)
		return nil
	}
}

//nolint:paralleltest
func TestShutdown_ReverseRegistrationOrder(t *testing.T) {
	resetQueue(t)

	var order []string
	Add("postgres", recordInto(&order, "postgres"))
	Add("nil task", nil)
	Add("http server", recordInto(&order, "http server"))

	require.NoError(t, Shutdown(t.Context()))
	assert.Equal(t, []string{"http server", "postgres"}, order)
}

//nolint:paralleltest
func TestShutdown_NoTasks(t *testing.T) {
	resetQueue(t)

	require.NoError(t, Shutdown(t.Context()))
}

//nolint:paralleltest
func TestShutdown_JoinsErrorsAndRecoversPanics(t *testing.T) {
	resetQueue(t)

	errClose := errors.New("close failed")

	var order []string
	Add("postgres", func(context.Context) error { return errClose })
	Add("metrics", recordInto(&order, "metrics"))
	Add("http server", func(context.Context) error { panic("boom") })

	err := Shutdown(t.Context())
	require.Error(t, err)
	require.ErrorIs(t, err, errClose)
	assert.Contains(t, err.Error(), `panic in shutdown task "http server": boom`)
	assert.Contains(t, err.Error(), "postgres: close failed")
	assert.Equal(t, []string{"metrics"}, order, "tasks after a panic still run")
}

//nolint:paralleltest
func TestShutdown_StopsWhenContextCanceled(t *testing.T) {
	resetQueue(t)

	ctx, cancel := context.WithCancel(t.Context())

	var ran atomic.Int32
	Add("postgres", func(context.Context) error {
		ran.Add(1)
		return nil
	})
	Add("http server", func(context.Context) error {
		ran.Add(1)
		cancel()
		return nil
	})

	err := Shutdown(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), `before "postgres"`)
	assert.Equal(t, int32(1), ran.Load())
}

//nolint:paralleltest
func TestShutdown_RunsOnceAndIgnoresLateAdds(t *testing.T) {
	resetQueue(t)

	var runs atomic.Int32
	Add("http server", func(context.Context) error {
		runs.Add(1)
		return nil
	})

	require.NoError(t, Shutdown(t.Context()))

	Add("late", func(context.Context) error {
		runs.Add(100)
		return nil
	})

	require.NoError(t, Shutdown(t.Context()))
	assert.Equal(t, int32(1), runs.Load())
}
