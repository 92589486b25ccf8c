package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wyfcoding/dexladder/internal/ladder/domain"
	"golang.org/x/sync/errgroup"
)

const defaultHistoryLimit = 100

// ErrAccountStatusUnavailable 尚未生成账户概览
var ErrAccountStatusUnavailable = errors.New("account status is not available yet")

// AccountReporterConfig 账户概览参数
type AccountReporterConfig struct {
	Account  string
	Interval time.Duration
	// 历史委托条数
	HistoryLimit int
}

// AccountReporter 定期拉取余额、当前挂单与最近委托，发布 ladder.account.status 并缓存最近一次结果
type AccountReporter struct {
	cfg       AccountReporterConfig
	client    domain.AccountReportClient
	publisher domain.EventPublisher
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	latest *domain.AccountStatusEvent
}

// NewAccountReporter 创建账户概览，publisher 可为空
func NewAccountReporter(cfg AccountReporterConfig, client domain.AccountReportClient, publisher domain.EventPublisher, logger *slog.Logger) *AccountReporter {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &AccountReporter{
		cfg:       cfg,
		client:    client,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Run 按间隔生成概览直到 ctx 结束，单次失败只记日志
func (r *AccountReporter) Run(ctx context.Context) error {
	if r.cfg.Interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := r.Report(ctx); err != nil && ctx.Err() == nil {
			r.logger.WarnContext(ctx, "account status report failed", "account", r.cfg.Account, "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Report 拉取一次概览并发布
func (r *AccountReporter) Report(ctx context.Context) (*domain.AccountStatusEvent, error) {
	ev := &domain.AccountStatusEvent{Account: r.cfg.Account}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := r.client.FetchBalances(gctx, r.cfg.Account)
		if err != nil {
			return fmt.Errorf("fetch balances: %w", err)
		}
		ev.Balances = b
		return nil
	})
	g.Go(func() error {
		o, err := r.client.FetchOpenOrders(gctx, r.cfg.Account)
		if err != nil {
			return fmt.Errorf("fetch open orders: %w", err)
		}
		ev.OpenOrders = o
		return nil
	})
	g.Go(func() error {
		h, err := r.client.FetchOrderHistory(gctx, r.cfg.Account, r.cfg.HistoryLimit)
		if err != nil {
			return fmt.Errorf("fetch order history: %w", err)
		}
		ev.RecentOrders = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ev.Timestamp = r.now()

	r.mu.Lock()
	r.latest = ev
	r.mu.Unlock()

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, domain.TopicAccountStatus, r.cfg.Account, ev); err != nil {
			r.logger.WarnContext(ctx, "failed to publish account status", "error", err)
		}
	}
	r.logger.InfoContext(ctx, "account status reported",
		"account", r.cfg.Account,
		"balances", len(ev.Balances),
		"open_orders", len(ev.OpenOrders),
	)
	return ev, nil
}

// Latest 最近一次成功的概览
func (r *AccountReporter) Latest() (*domain.AccountStatusEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil, ErrAccountStatusUnavailable
	}
	return r.latest, nil
}
