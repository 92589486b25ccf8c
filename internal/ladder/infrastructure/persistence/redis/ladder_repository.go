package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wyfcoding/dexladder/internal/ladder/domain"
	"github.com/wyfcoding/dexladder/pkg/cache"
)

// LadderRedisRepository 梯级读模型的 Redis 实现
type LadderRedisRepository struct {
	cache     *cache.RedisCache
	prefix    string
	symbolSet string
	ttl       time.Duration
}

// NewLadderRedisRepository 创建 Redis 读模型
func NewLadderRedisRepository(c *cache.RedisCache) *LadderRedisRepository {
	return &LadderRedisRepository{
		cache:     c,
		prefix:    "ladder:state:",
		symbolSet: "ladder:symbols",
		ttl:       24 * time.Hour,
	}
}

func (r *LadderRedisRepository) Save(ctx context.Context, view *domain.LadderView) error {
	if view == nil {
		return nil
	}
	if err := r.cache.SetJSON(ctx, r.prefix+view.Symbol, view, r.ttl); err != nil {
		return fmt.Errorf("failed to save ladder view: %w", err)
	}
	return r.cache.SAdd(ctx, r.symbolSet, view.Symbol)
}

func (r *LadderRedisRepository) Get(ctx context.Context, symbol string) (*domain.LadderView, error) {
	var view domain.LadderView
	found, err := r.cache.GetJSON(ctx, r.prefix+symbol, &view)
	if err != nil {
		return nil, fmt.Errorf("failed to get ladder view from redis: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &view, nil
}

func (r *LadderRedisRepository) List(ctx context.Context) ([]*domain.LadderView, error) {
	symbols, err := r.cache.SMembers(ctx, r.symbolSet)
	if err != nil {
		return nil, fmt.Errorf("failed to list ladder symbols: %w", err)
	}
	sort.Strings(symbols)
	out := make([]*domain.LadderView, 0, len(symbols))
	for _, sym := range symbols {
		view, err := r.Get(ctx, sym)
		if err != nil {
			return nil, err
		}
		// 过期的条目跳过
		if view != nil {
			out = append(out, view)
		}
	}
	return out, nil
}
