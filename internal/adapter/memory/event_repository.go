package memory

import (
	"context"
	"sync"

	"github.com/campusmess/emess/internal/interfaces"
)

type eventRepository struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewEventRepository() interfaces.EventRepository {
	return &eventRepository{seen: make(map[string]struct{})}
}

func (r *eventRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, dup := r.seen[eventID]
	return dup, nil
}

func (r *eventRepository) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seen[eventID]; dup {
		return false, nil
	}
	r.seen[eventID] = struct{}{}
	return true, nil
}
