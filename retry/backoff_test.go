package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchmate/researchmate/types"
)

func fastPolicy(maxRetries int) *Policy {
	return &Policy{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       false,
	}
}

func TestBackoffRetryer_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	r := NewBackoffRetryer(fastPolicy(3), nil)
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, r.Attempts())
}

func TestBackoffRetryer_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	r := NewBackoffRetryer(fastPolicy(2), nil)
	boom := errors.New("boom")
	err := r.Do(context.Background(), func() error { return boom })
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, r.Attempts())
}

func TestBackoffRetryer_NonRetryableStopsImmediately(t *testing.T) {
	t.Parallel()

	r := NewBackoffRetryer(fastPolicy(5), nil)
	notFound := types.NewError(types.ErrHTTPStatus, "not found").WithHTTPStatus(404)
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return notFound
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffRetryer_RetryableStructuredError(t *testing.T) {
	t.Parallel()

	r := NewBackoffRetryer(fastPolicy(2), nil)
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return types.NewError(types.ErrTimeout, "deadline exceeded").WithRetryable(true)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBackoffRetryer_ContextCancelDuringWait(t *testing.T) {
	t.Parallel()

	r := NewBackoffRetryer(&Policy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func() error { return errors.New("transient") })
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffRetryer_RetryableErrorsList(t *testing.T) {
	t.Parallel()

	transient := errors.New("transient")
	r := NewBackoffRetryer(&Policy{
		MaxRetries:      2,
		InitialDelay:    time.Millisecond,
		MaxDelay:        time.Millisecond,
		Multiplier:      2.0,
		RetryableErrors: []error{transient},
	}, nil)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errors.New("something else")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "errors outside the list must not be retried")
}

func TestCalculateDelay_CappedAndGrowing(t *testing.T) {
	t.Parallel()

	r := &backoffRetryer{policy: &Policy{
		MaxRetries:   5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     400 * time.Millisecond,
		Multiplier:   2.0,
	}}

	assert.Equal(t, 100*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 400*time.Millisecond, r.calculateDelay(3))
	assert.Equal(t, 400*time.Millisecond, r.calculateDelay(4), "delay is capped at MaxDelay")
}
