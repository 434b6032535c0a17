// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package matchmaker orchestrates the participant search lifecycle:
// enqueue, an opportunistic immediate pair attempt, a periodic re-scan,
// and a bounded-time AI fallback. Pair-critical sections run under the
// per-round distributed lock so concurrent attempts on one round are
// serialized across server instances.
package matchmaker

import (
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
)

/*
MatchObserver is the narrow port through which the engine announces a
produced match without knowing the transport. The push dispatcher
implements it and materializes the per-peer views.

MatchFound may be invoked from the request goroutine (immediate pair),
from the continuous scanner, or from the AI-fallback timer; observers
must be safe for concurrent use.
*/
type MatchObserver interface {
	MatchFound(scope *envelope.Scope, match models.Match)
}

// MatchObserverFunc adapts a function to the MatchObserver interface.
type MatchObserverFunc func(scope *envelope.Scope, match models.Match)

func (f MatchObserverFunc) MatchFound(scope *envelope.Scope, match models.Match) {
	f(scope, match)
}
