// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/AccelByte/tournament-matchmaker/pkg/storage"
)

// NewMiniredisStore spins up an in-process store for tests and returns
// the wrapped client plus the miniredis handle for clock control.
func NewMiniredisStore(t *testing.T) (*storage.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client := storage.NewClientFromRedis(rdb)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, mr
}
