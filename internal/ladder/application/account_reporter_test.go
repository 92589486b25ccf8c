package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

type fakeAccountReports struct {
	balances   []domain.TokenBalance
	open       []domain.OpenOrder
	history    []domain.OpenOrder
	historyErr error
	limit      int
}

func (f *fakeAccountReports) FetchBalances(context.Context, string) ([]domain.TokenBalance, error) {
	return f.balances, nil
}

func (f *fakeAccountReports) FetchOpenOrders(context.Context, string) ([]domain.OpenOrder, error) {
	return f.open, nil
}

func (f *fakeAccountReports) FetchOrderHistory(_ context.Context, _ string, limit int) ([]domain.OpenOrder, error) {
	f.limit = limit
	return f.history, f.historyErr
}

func newFakeAccountReports() *fakeAccountReports {
	return &fakeAccountReports{
		balances: []domain.TokenBalance{{Currency: "XPR", Contract: "eosio.token", Amount: decimal.RequireFromString("10.5"), Decimals: 4}},
		open: []domain.OpenOrder{
			{ID: "1", MarketID: 1, Side: domain.SideBuy, Price: decimal.RequireFromString("0.12"), Quantity: decimal.NewFromInt(80)},
		},
		history: []domain.OpenOrder{
			{ID: "9", MarketID: 1, Side: domain.SideSell, Price: decimal.RequireFromString("0.17"), Quantity: decimal.NewFromInt(60)},
		},
	}
}

func TestAccountReporterPublishesStatus(t *testing.T) {
	client := newFakeAccountReports()
	pub := &fakePublisher{}
	r := NewAccountReporter(AccountReporterConfig{Account: "ladderbot"}, client, pub, discardLogger())
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return at }

	if _, err := r.Latest(); !errors.Is(err, ErrAccountStatusUnavailable) {
		t.Fatalf("Latest() before report error = %v", err)
	}

	ev, err := r.Report(context.Background())
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if client.limit != defaultHistoryLimit {
		t.Errorf("history limit = %d, want %d", client.limit, defaultHistoryLimit)
	}
	if ev.Account != "ladderbot" || len(ev.Balances) != 1 || len(ev.OpenOrders) != 1 || len(ev.RecentOrders) != 1 || !ev.Timestamp.Equal(at) {
		t.Errorf("event = %+v", ev)
	}
	if len(pub.events) != 1 || pub.events[0].topic != domain.TopicAccountStatus || pub.events[0].key != "ladderbot" {
		t.Fatalf("published = %+v", pub.events)
	}
	latest, err := r.Latest()
	if err != nil || latest != ev {
		t.Errorf("Latest() = %v, %v", latest, err)
	}
}

func TestAccountReporterKeepsLastGoodReport(t *testing.T) {
	client := newFakeAccountReports()
	pub := &fakePublisher{}
	r := NewAccountReporter(AccountReporterConfig{Account: "ladderbot", HistoryLimit: 20}, client, pub, discardLogger())

	first, err := r.Report(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if client.limit != 20 {
		t.Errorf("history limit = %d, want 20", client.limit)
	}

	client.historyErr = errors.New("history unavailable")
	if _, err := r.Report(context.Background()); err == nil {
		t.Fatal("expected error when history fetch fails")
	}
	if len(pub.events) != 1 {
		t.Errorf("published %d events, want 1", len(pub.events))
	}
	latest, err := r.Latest()
	if err != nil || latest != first {
		t.Errorf("Latest() = %v, %v, want first report", latest, err)
	}
}

func TestAccountReporterRunDisabled(t *testing.T) {
	client := newFakeAccountReports()
	pub := &fakePublisher{}
	r := NewAccountReporter(AccountReporterConfig{Account: "ladderbot"}, client, pub, discardLogger())

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("published %d events with reporting disabled", len(pub.events))
	}
}

func TestAccountReporterRunReportsUntilCancelled(t *testing.T) {
	client := newFakeAccountReports()
	pub := &fakePublisher{}
	r := NewAccountReporter(AccountReporterConfig{Account: "ladderbot", Interval: time.Hour}, client, pub, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		if _, err := r.Latest(); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no report produced")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 1 {
		t.Errorf("published %d events, want 1", len(pub.events))
	}
}
