package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRetryTx_RetriesSerializationFailure(t *testing.T) {
	calls := 0
	err := RetryTx(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.Wrap(&pgconn.PgError{Code: pgerrcode.SerializationFailure}, "commit")
		}
		return nil
	}, WithBaseDelay(time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryTx_GivesUp(t *testing.T) {
	calls := 0
	deadlock := &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	err := RetryTx(context.Background(), func(context.Context) error {
		calls++
		return deadlock
	}, WithMaxAttempts(2), WithBaseDelay(time.Millisecond))
	require.ErrorIs(t, err, deadlock)
	require.Equal(t, 2, calls)
}

func TestRetryTx_DomainErrorFailsFast(t *testing.T) {
	calls := 0
	err := RetryTx(context.Background(), func(context.Context) error {
		calls++
		return ErrItemUnavailable
	})
	require.ErrorIs(t, err, ErrItemUnavailable)
	require.Equal(t, 1, calls)
}

func TestRetryTx_InvalidOptions(t *testing.T) {
	fn := func(context.Context) error { return nil }
	require.ErrorIs(t, RetryTx(context.Background(), fn, WithMaxAttempts(0)), ErrInvalidMaxAttempts)
	require.ErrorIs(t, RetryTx(context.Background(), fn, WithBaseDelay(-time.Second)), ErrNegativeBaseDelay)
}

func TestRetryTx_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryTx(ctx, func(context.Context) error {
		calls++
		cancel()
		return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	}, WithBaseDelay(time.Second))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	require.False(t, IsRetryable(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	require.False(t, IsRetryable(errors.New("boom")))
	require.False(t, IsRetryable(nil))
}
