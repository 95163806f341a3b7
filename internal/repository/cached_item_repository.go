package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"item-catalog/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheConfig holds item cache configuration
type CacheConfig struct {
	TTL       time.Duration // Lifetime of a cached item
	KeyPrefix string        // Redis key prefix
}

// cachedItemRepository is a read-through Redis cache in front of another
// ItemRepository. Cache failures fall back to the wrapped repository.
type cachedItemRepository struct {
	next   ItemRepository
	client *redis.Client
	config CacheConfig
	logger *zap.Logger
}

// NewCachedItemRepository wraps next with a Redis cache for single item reads
func NewCachedItemRepository(next ItemRepository, client *redis.Client, config CacheConfig, logger *zap.Logger) ItemRepository {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "item"
	}
	return &cachedItemRepository{
		next:   next,
		client: client,
		config: config,
		logger: logger,
	}
}

func (r *cachedItemRepository) key(id int64) string {
	return fmt.Sprintf("%s:%d", r.config.KeyPrefix, id)
}

// versionKey counts writes to an item. A read only fills the cache when no
// write happened since it started.
func (r *cachedItemRepository) versionKey(id int64) string {
	return r.key(id) + ":version"
}

// Uncached returns the wrapped repository, for reads that must see the store.
func (r *cachedItemRepository) Uncached() ItemRepository {
	return r.next
}

func (r *cachedItemRepository) Create(ctx context.Context, item *domain.Item) error {
	return r.next.Create(ctx, item)
}

func (r *cachedItemRepository) Update(ctx context.Context, item *domain.Item) error {
	r.invalidate(ctx, item.ID)
	if err := r.next.Update(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item.ID)
	return nil
}

func (r *cachedItemRepository) Delete(ctx context.Context, id int64) error {
	r.invalidate(ctx, id)
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedItemRepository) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	key := r.key(id)

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		item := &domain.Item{}
		if err := json.Unmarshal(data, item); err == nil {
			return item, nil
		}
		r.logger.Warn("Discarding undecodable cached item", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("Item cache read failed", zap.Error(err), zap.String("key", key))
	}

	version, versionErr := r.client.Get(ctx, r.versionKey(id)).Result()
	if versionErr != nil && !errors.Is(versionErr, redis.Nil) {
		r.logger.Warn("Item cache version read failed", zap.Error(versionErr), zap.String("key", key))
	}

	item, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if versionErr == nil || errors.Is(versionErr, redis.Nil) {
		r.fill(ctx, id, version, item)
	}

	return item, nil
}

func (r *cachedItemRepository) List(ctx context.Context, q domain.ItemQuery) ([]*domain.Item, error) {
	return r.next.List(ctx, q)
}

var errItemChanged = errors.New("item changed during read")

// fill caches item unless its version moved away from seen
func (r *cachedItemRepository) fill(ctx context.Context, id int64, seen string, item *domain.Item) {
	data, err := json.Marshal(item)
	if err != nil {
		return
	}

	key, versionKey := r.key(id), r.versionKey(id)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != seen {
			return errItemChanged
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.config.TTL)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
	case errors.Is(err, errItemChanged), errors.Is(err, redis.TxFailedErr):
		r.logger.Debug("Skipped caching item written during read", zap.String("key", key))
	default:
		r.logger.Warn("Item cache write failed", zap.Error(err), zap.String("key", key))
	}
}

// invalidate drops the cached copy and bumps the version so in-flight reads
// do not put it back. The version outlives any entry cached before it.
func (r *cachedItemRepository) invalidate(ctx context.Context, id int64) {
	versionKey := r.versionKey(id)
	versionTTL := 2 * r.config.TTL
	if versionTTL <= 0 {
		versionTTL = time.Hour
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, versionTTL)
		pipe.Del(ctx, r.key(id))
		return nil
	})
	if err != nil {
		r.logger.Warn("Item cache invalidation failed", zap.Error(err), zap.Int64("id", id))
	}
}

// Uncached unwraps caching decorators so reads go to the backing store.
func Uncached(repo ItemRepository) ItemRepository {
	if c, ok := repo.(interface{ Uncached() ItemRepository }); ok {
		return c.Uncached()
	}
	return repo
}
