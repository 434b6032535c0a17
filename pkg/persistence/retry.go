// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package persistence

import (
	"time"

	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
)

const (
	retryAttempts    = 3
	retryBaseBackoff = 1 * time.Second
)

// WithRetry runs op up to 3 times with exponential backoff (1s base) and
// gives up on context cancellation. Used for critical mirror writes.
func WithRetry(scope *envelope.Scope, name string, op func() error) error {
	var err error
	backoff := retryBaseBackoff
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		scope.Log.WithField("operation", name).
			WithField("attempt", attempt).
			Warnf("persistence operation failed: %s", err)

		if attempt == retryAttempts {
			break
		}
		select {
		case <-scope.Ctx.Done():
			return scope.Ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return err
}
