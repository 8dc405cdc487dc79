package devauth

import (
	"context"
	"sync"

	"tailorchat/internal/domain/entity"
)

// Directory is an in-process participant directory for development. Unknown users
// resolve to a customer named after their id.
type Directory struct {
	mu    sync.RWMutex
	users map[string]entity.Participant
}

func NewDirectory() *Directory {
	return &Directory{users: make(map[string]entity.Participant)}
}

// Register adds or replaces a participant.
func (d *Directory) Register(p entity.Participant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[p.ID] = p
}

func (d *Directory) Lookup(ctx context.Context, userID string) (entity.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if p, ok := d.users[userID]; ok {
		return p, nil
	}
	return entity.Participant{ID: userID, Name: userID, Role: entity.RoleCustomer}, nil
}
