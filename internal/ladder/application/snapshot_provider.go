package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

// LoadMarketRegistry 启动时拉取市场表
func LoadMarketRegistry(ctx context.Context, client domain.MarketDataClient) (*domain.MarketRegistry, error) {
	markets, err := client.ListMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("list markets: exchange returned no markets")
	}
	return domain.NewMarketRegistry(markets), nil
}

// SnapshotProvider 组合最新成交价与一档盘口生成行情快照
type SnapshotProvider struct {
	registry *domain.MarketRegistry
	client   domain.MarketDataClient
	depth    int
	now      func() time.Time
}

// NewSnapshotProvider 创建快照提供者
func NewSnapshotProvider(registry *domain.MarketRegistry, client domain.MarketDataClient) *SnapshotProvider {
	return &SnapshotProvider{
		registry: registry,
		client:   client,
		depth:    1,
		now:      time.Now,
	}
}

// Snapshot 获取某交易对的行情快照
func (p *SnapshotProvider) Snapshot(ctx context.Context, symbol string) (domain.MarketSnapshot, error) {
	m, err := p.registry.BySymbol(symbol)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	last, err := p.client.FetchLatestPrice(ctx, symbol)
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("fetch latest price for %s: %w", symbol, err)
	}
	book, err := p.client.FetchOrderBook(ctx, symbol, p.depth)
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("fetch order book for %s: %w", symbol, err)
	}
	return domain.NewMarketSnapshot(m, last, book, p.now()), nil
}
