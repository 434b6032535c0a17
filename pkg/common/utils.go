// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID generates a canonical (hyphenated) random uuid.
func GenerateUUID() string {
	id, _ := uuid.NewRandom()

	return id.String()
}

// ShortID returns the last 4 characters of an id, used to derive
// placeholder display names for anonymous participants.
func ShortID(id string) string {
	if len(id) <= 4 {
		return id
	}

	return id[len(id)-4:]
}

// DisplayNameOrPlaceholder falls back to a deterministic bot-style name
// derived from the participant id when no registered name exists.
func DisplayNameOrPlaceholder(name, participantID string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}

	return "Player " + ShortID(participantID)
}
