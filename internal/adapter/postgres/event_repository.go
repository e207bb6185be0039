package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmess/emess/internal/interfaces"
)

type eventRepository struct {
	db DB
}

func NewEventRepository(db DB) interfaces.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return exists, nil
}

func (r *eventRepository) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	// ON CONFLICT DO NOTHING makes the first writer win; a redelivered event
	// affects zero rows and is reported as already processed.
	query := `
		INSERT INTO processed_events (event_id, processed_at)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, eventID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
