// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import "errors"

var (
	// ErrAlreadyMatched rejects an enqueue for a participant whose status
	// flipped to matched between start-search and the queue write.
	ErrAlreadyMatched = errors.New("participant already matched")

	// ErrQueueFull rejects an enqueue above the configured queue size.
	ErrQueueFull = errors.New("round queue is full")

	// ErrSelfMatch guards createHumanMatch against pairing a participant
	// with itself. Integrity violation, fatal for the attempt.
	ErrSelfMatch = errors.New("cannot match participant with itself")

	// ErrLockNotAcquired signals that another pair attempt holds the
	// round lock. Recoverable, the scanner retries on the next tick.
	ErrLockNotAcquired = errors.New("round match lock held elsewhere")

	// ErrNoCandidate means the queue had no eligible opponent.
	ErrNoCandidate = errors.New("no eligible opponent in queue")

	// ErrInvalidParticipantID rejects ids that are not UUID v1-v5.
	ErrInvalidParticipantID = errors.New("participant id must be a valid uuid")

	// ErrInvalidRoundNumber rejects rounds outside [1, 10].
	ErrInvalidRoundNumber = errors.New("round number must be an integer between 1 and 10")

	// ErrInvalidSkillLevel rejects skill levels outside [1, 10].
	ErrInvalidSkillLevel = errors.New("skill level must be between 1 and 10")

	// ErrInvalidTreatmentGroup rejects unrecognized treatment groups.
	ErrInvalidTreatmentGroup = errors.New("unrecognized treatment group")

	// ErrMatchNotFound means the referenced match record does not exist
	// or has expired.
	ErrMatchNotFound = errors.New("match not found")
)
