package service

import (
	"context"
	"fmt"
	"time"

	"item-catalog/internal/domain"
	"item-catalog/internal/repository"
)

// timestampPrecision matches the resolution of PostgreSQL timestamps
const timestampPrecision = time.Microsecond

// ItemService defines the interface for item business logic
type ItemService interface {
	Create(ctx context.Context, fields domain.ItemFields) (*domain.Item, error)
	Get(ctx context.Context, id int64) (*domain.Item, error)
	List(ctx context.Context, query domain.ItemQuery) ([]*domain.Item, error)
	Update(ctx context.Context, id int64, fields domain.ItemFields, partial bool) (*domain.Item, error)
	Delete(ctx context.Context, id int64) error
}

// Clock returns the current time
type Clock func() time.Time

type itemService struct {
	itemRepo repository.ItemRepository
	now      Clock
}

// NewItemService creates a new instance of ItemService
func NewItemService(itemRepo repository.ItemRepository) ItemService {
	return NewItemServiceWithClock(itemRepo, time.Now)
}

// NewItemServiceWithClock creates an ItemService that stamps records using now
func NewItemServiceWithClock(itemRepo repository.ItemRepository, now Clock) ItemService {
	return &itemService{
		itemRepo: itemRepo,
		now:      now,
	}
}

func (s *itemService) timestamp() time.Time {
	return s.now().UTC().Truncate(timestampPrecision)
}

// Create validates the fields and stores a new item
func (s *itemService) Create(ctx context.Context, fields domain.ItemFields) (*domain.Item, error) {
	fields.Normalize()

	if err := fields.RequireAll().Err(); err != nil {
		return nil, err
	}

	item := &domain.Item{}
	fields.Apply(item)

	if err := domain.Validate(item); err != nil {
		return nil, err
	}

	now := s.timestamp()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return item, nil
}

// Get retrieves an item by id
func (s *itemService) Get(ctx context.Context, id int64) (*domain.Item, error) {
	return s.itemRepo.FindByID(ctx, id)
}

// List retrieves items for the query, applying the default ordering when
// none is given
func (s *itemService) List(ctx context.Context, query domain.ItemQuery) ([]*domain.Item, error) {
	if len(query.Ordering) == 0 {
		query.Ordering = domain.DefaultOrdering()
	}

	items, err := s.itemRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return items, nil
}

// Update applies the supplied fields to an existing item. A full update
// requires every required field; fields that are not supplied keep their
// stored value in both modes.
func (s *itemService) Update(ctx context.Context, id int64, fields domain.ItemFields, partial bool) (*domain.Item, error) {
	fields.Normalize()

	// Read past any cache so omitted fields keep their stored values
	item, err := repository.Uncached(s.itemRepo).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !partial {
		if err := fields.RequireAll().Err(); err != nil {
			return nil, err
		}
	}

	fields.Apply(item)

	if err := domain.Validate(item); err != nil {
		return nil, err
	}

	now := s.timestamp()
	if !now.After(item.UpdatedAt) {
		now = item.UpdatedAt.Add(timestampPrecision)
	}
	item.UpdatedAt = now

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return item, nil
}

// Delete removes an item
func (s *itemService) Delete(ctx context.Context, id int64) error {
	return s.itemRepo.Delete(ctx, id)
}
