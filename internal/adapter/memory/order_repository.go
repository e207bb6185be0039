package memory

import (
	"context"
	"sync"
	"time"

	"github.com/campusmess/emess/internal/domain"
	"github.com/campusmess/emess/internal/interfaces"
)

type orderRepository struct {
	mu     sync.RWMutex
	orders []*domain.FulfilledOrder
	nextID int
}

func NewOrderRepository() interfaces.OrderRepository {
	return &orderRepository{nextID: 1}
}

func (r *orderRepository) Record(ctx context.Context, order *domain.FulfilledOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *order
	cp.ID = r.nextID
	cp.Date = domain.DateOnly(order.Date)
	r.nextID++
	r.orders = append(r.orders, &cp)
	order.ID = cp.ID
	return nil
}

func (r *orderRepository) ListFulfilledSince(ctx context.Context, since time.Time) ([]*domain.FulfilledOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := domain.DateOnly(since)
	var out []*domain.FulfilledOrder
	for _, o := range r.orders {
		if o.Date.Before(day) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}
