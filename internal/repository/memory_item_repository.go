package repository

import (
	"context"
	"sync"

	"item-catalog/internal/domain"
)

// memoryItemRepository keeps items in process memory. Ids come from a
// counter that only moves forward, so deleted ids are never handed out again.
type memoryItemRepository struct {
	mu     sync.RWMutex
	items  map[int64]domain.Item
	nextID int64
}

// NewMemoryItemRepository creates an empty in-memory ItemRepository
func NewMemoryItemRepository() ItemRepository {
	return &memoryItemRepository{
		items:  make(map[int64]domain.Item),
		nextID: 1,
	}
}

func (r *memoryItemRepository) Create(ctx context.Context, item *domain.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = *item
	return nil
}

func (r *memoryItemRepository) Update(ctx context.Context, item *domain.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[item.ID]
	if !ok {
		return domain.ErrItemNotFound
	}

	stored.Name = item.Name
	stored.Description = item.Description
	stored.Category = item.Category
	stored.Price = item.Price
	stored.UpdatedAt = item.UpdatedAt
	r.items[item.ID] = stored
	return nil
}

func (r *memoryItemRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryItemRepository) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (r *memoryItemRepository) List(ctx context.Context, q domain.ItemQuery) ([]*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	items := []*domain.Item{}
	for _, stored := range r.items {
		item := stored
		if q.Matches(&item) {
			items = append(items, &item)
		}
	}
	r.mu.RUnlock()

	q.Sort(items)
	return items, nil
}
