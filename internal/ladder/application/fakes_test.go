package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleep(context.Context, time.Duration) error { return nil }

func testMarket() *domain.Market {
	return &domain.Market{
		ID:       1,
		Symbol:   "XPR_XMD",
		BidToken: domain.NewToken("XPR", "eosio.token", 4),
		AskToken: domain.NewToken("XMD", "xmd.token", 6),
		OrderMin: 1_000_000,
	}
}

type fakeMarketData struct {
	markets []*domain.Market
	last    map[string]decimal.Decimal
	book    domain.OrderBook
	err     error
}

func (f *fakeMarketData) ListMarkets(context.Context) ([]*domain.Market, error) {
	return f.markets, f.err
}

func (f *fakeMarketData) FetchLatestPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	p, ok := f.last[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no trades for %s", symbol)
	}
	return p, nil
}

func (f *fakeMarketData) FetchOrderBook(context.Context, string, int) (domain.OrderBook, error) {
	return f.book, f.err
}

type fakeAccounts struct {
	mu        sync.Mutex
	open      []domain.OpenOrder
	balances  map[string]decimal.Decimal
	openCalls int
	openErr   error
}

func (f *fakeAccounts) FetchOpenOrders(context.Context, string) ([]domain.OpenOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls++
	if f.openErr != nil {
		return nil, f.openErr
	}
	out := make([]domain.OpenOrder, len(f.open))
	copy(out, f.open)
	return out, nil
}

func (f *fakeAccounts) FetchBalance(_ context.Context, _, _, code string) (decimal.Decimal, error) {
	b, ok := f.balances[code]
	if !ok {
		return decimal.Zero, errors.New("unknown token " + code)
	}
	return b, nil
}

type fakeTx struct {
	mu      sync.Mutex
	batches [][]domain.Action
	// failAt 第几次调用失败（从 1 开始），0 表示不失败
	failAt int
	err    error
	calls  int
}

func (f *fakeTx) SubmitActions(_ context.Context, actions []domain.Action) (*domain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return nil, f.err
	}
	f.batches = append(f.batches, actions)
	return &domain.Receipt{TransactionID: fmt.Sprintf("tx-%d", f.calls)}, nil
}

func (f *fakeTx) actionNames(batch int) []string {
	names := make([]string, 0, len(f.batches[batch]))
	for _, a := range f.batches[batch] {
		names = append(names, a.Name)
	}
	return names
}

type fakePlacements struct {
	mu   sync.Mutex
	rows []domain.Placement
}

func (f *fakePlacements) SavePlacements(_ context.Context, p []domain.Placement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, p...)
	return nil
}

func (f *fakePlacements) ListPlacements(_ context.Context, symbol string, limit int) ([]domain.Placement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Placement
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].Symbol == symbol {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakePlacements) kinds() map[domain.PlacementKind]int {
	out := map[domain.PlacementKind]int{}
	for _, r := range f.rows {
		out[r.Kind]++
	}
	return out
}

type fakeReadModel struct {
	mu    sync.Mutex
	views map[string]*domain.LadderView
}

func newFakeReadModel() *fakeReadModel {
	return &fakeReadModel{views: map[string]*domain.LadderView{}}
}

func (f *fakeReadModel) Save(_ context.Context, v *domain.LadderView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *v
	f.views[v.Symbol] = &c
	return nil
}

func (f *fakeReadModel) Get(_ context.Context, symbol string) (*domain.LadderView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.views[symbol]
	if !ok {
		return nil, nil
	}
	c := *v
	return &c, nil
}

func (f *fakeReadModel) List(context.Context) ([]*domain.LadderView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.LadderView, 0, len(f.views))
	for _, v := range f.views {
		c := *v
		out = append(out, &c)
	}
	return out, nil
}

type publishedEvent struct {
	topic string
	key   string
	event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

func (f *fakePublisher) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.topic)
	}
	return out
}
