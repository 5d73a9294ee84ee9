package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsEventually(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, time.Millisecond, time.Second)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_TimesOut(t *testing.T) {
	sentinel := errors.New("down")
	err := Retry(context.Background(), func() error { return sentinel }, time.Millisecond, 5*time.Millisecond)
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorContains(t, err, "retry timeout")
}

func TestRetry_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, func() error { return errors.New("down") }, time.Hour, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryIncreasing_CapsDelay(t *testing.T) {
	calls := 0
	start := time.Now()
	err := RetryIncreasing(context.Background(), func() error {
		calls++
		if calls < 4 {
			return errors.New("not yet")
		}
		return nil
	}, time.Millisecond, 5*time.Millisecond, time.Second)

	require.NoError(t, err)
	// 1ms + 5ms + 5ms
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
