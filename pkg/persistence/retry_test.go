// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
)

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()
	scope := envelope.NewRootScope(context.Background(), "test", "")
	defer scope.Finish()

	calls := 0
	err := WithRetry(scope, "op", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()
	scope := envelope.NewRootScope(context.Background(), "test", "")
	defer scope.Finish()

	calls := 0
	err := WithRetry(scope, "op", func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_GivesUpAfterThreeAttempts(t *testing.T) {
	t.Parallel()
	scope := envelope.NewRootScope(context.Background(), "test", "")
	defer scope.Finish()

	permanent := errors.New("permanent")
	calls := 0
	err := WithRetry(scope, "op", func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	scope := envelope.NewRootScope(ctx, "test", "")
	defer scope.Finish()

	calls := 0
	err := WithRetry(scope, "op", func() error {
		calls++
		cancel()
		return errors.New("failing")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
