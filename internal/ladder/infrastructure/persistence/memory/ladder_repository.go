// Package memory 提供未启用 Redis 时使用的进程内读模型
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

// LadderRepository 进程内梯级读模型，保存的是副本
type LadderRepository struct {
	mu    sync.RWMutex
	views map[string]domain.LadderView
}

// NewLadderRepository 创建进程内读模型
func NewLadderRepository() *LadderRepository {
	return &LadderRepository{views: make(map[string]domain.LadderView)}
}

func (r *LadderRepository) Save(_ context.Context, view *domain.LadderView) error {
	if view == nil {
		return nil
	}
	v := *view
	v.Rungs = append([]domain.DesiredOrder(nil), view.Rungs...)
	r.mu.Lock()
	r.views[v.Symbol] = v
	r.mu.Unlock()
	return nil
}

func (r *LadderRepository) Get(_ context.Context, symbol string) (*domain.LadderView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[symbol]
	if !ok {
		return nil, nil
	}
	v.Rungs = append([]domain.DesiredOrder(nil), v.Rungs...)
	return &v, nil
}

func (r *LadderRepository) List(_ context.Context) ([]*domain.LadderView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.LadderView, 0, len(r.views))
	for _, v := range r.views {
		v.Rungs = append([]domain.DesiredOrder(nil), v.Rungs...)
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
