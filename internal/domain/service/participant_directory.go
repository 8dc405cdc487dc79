package service

import (
	"context"

	"tailorchat/internal/domain/entity"
)

// ParticipantDirectory resolves display metadata for a user id. It is backed by the
// identity provider; the chat core never stores profiles of its own.
type ParticipantDirectory interface {
	Lookup(ctx context.Context, userID string) (entity.Participant, error)
}
