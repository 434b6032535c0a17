// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package lockservice provides the named distributed lock that serializes
// pair attempts within a round. The TTL is the safety net against crashed
// holders; normal release is explicit and owner-checked.
package lockservice

import (
	"math/rand"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/storage"
)

type Service struct {
	store *storage.Client

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

func New(store *storage.Client) *Service {
	return &Service{
		store:   store,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// NewOwnerToken mints a fresh token identifying one pair attempt.
func (s *Service) NewOwnerToken() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Acquire takes the lock iff the key is absent. Non-acquisition is not an
// error; the caller yields and retries on its next tick.
func (s *Service) Acquire(scope *envelope.Scope, key, ownerToken string, ttl time.Duration) (bool, error) {
	return s.store.SetNX(scope.Ctx, key, ownerToken, ttl)
}

// Release deletes the lock only when still held by ownerToken. Returns
// whether a deletion occurred; false means the TTL already reaped it or
// another owner holds the key.
func (s *Service) Release(scope *envelope.Scope, key, ownerToken string) (bool, error) {
	return s.store.CompareAndDelete(scope.Ctx, key, ownerToken)
}
