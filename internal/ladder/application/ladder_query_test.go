package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

func TestLadderQueryService(t *testing.T) {
	ctx := context.Background()
	rm := newFakeReadModel()
	_ = rm.Save(ctx, &domain.LadderView{
		Symbol:   "XPR_XMD",
		Strategy: domain.StrategyGrid,
		Phase:    domain.PhaseSeeded,
		Rungs: []domain.DesiredOrder{{
			Symbol: "XPR_XMD", Side: domain.SideBuy,
			Price: decimal.RequireFromString("0.1"), Quantity: decimal.NewFromInt(100),
		}},
		Buys:  1,
		Ticks: 3,
	})
	placements := &fakePlacements{}
	now := time.Unix(1700000000, 0)
	for i := 0; i < 3; i++ {
		_ = placements.SavePlacements(ctx, []domain.Placement{{
			TickID: "t", Symbol: "XPR_XMD", Kind: domain.PlacementSeed, Side: domain.SideSell,
			Price: decimal.RequireFromString("0.2"), Quantity: decimal.NewFromInt(50), CreatedAt: now,
		}})
	}
	svc := NewLadderQueryService(rm, placements)

	ladders, err := svc.ListLadders(ctx)
	if err != nil || len(ladders) != 1 {
		t.Fatalf("ListLadders() = %v, %v", ladders, err)
	}
	got, err := svc.GetLadder(ctx, "XPR_XMD")
	if err != nil || got == nil {
		t.Fatalf("GetLadder() = %v, %v", got, err)
	}
	if got.Phase != "SEEDED" || got.Strategy != "gridBot" || len(got.Rungs) != 1 || got.Rungs[0].Price != "0.1" {
		t.Errorf("ladder dto = %+v", got)
	}
	if missing, err := svc.GetLadder(ctx, "DOGE_XMD"); err != nil || missing != nil {
		t.Errorf("GetLadder(unknown) = %v, %v", missing, err)
	}

	rows, err := svc.ListPlacements(ctx, "XPR_XMD", 2)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListPlacements() = %v, %v", rows, err)
	}
	if rows[0].Kind != "SEED" || rows[0].Quantity != "50" {
		t.Errorf("placement dto = %+v", rows[0])
	}
	if rows, _ := svc.ListPlacements(ctx, "XPR_XMD", 0); len(rows) != 3 {
		t.Errorf("default limit returned %d rows", len(rows))
	}
}

func TestLadderQueryWithoutJournal(t *testing.T) {
	svc := NewLadderQueryService(newFakeReadModel(), nil)
	if _, err := svc.ListPlacements(context.Background(), "XPR_XMD", 10); !errors.Is(err, ErrPlacementsUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestLadderQueryAccount(t *testing.T) {
	svc := NewLadderQueryService(newFakeReadModel(), nil)
	if _, err := svc.GetAccount(); !errors.Is(err, ErrAccountStatusUnavailable) {
		t.Fatalf("GetAccount() without reporter err = %v", err)
	}

	r := NewAccountReporter(AccountReporterConfig{Account: "ladderbot"}, newFakeAccountReports(), nil, discardLogger())
	svc.WithAccountReporter(r)
	if _, err := svc.GetAccount(); !errors.Is(err, ErrAccountStatusUnavailable) {
		t.Fatalf("GetAccount() before report err = %v", err)
	}
	if _, err := r.Report(context.Background()); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetAccount()
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.Balances[0].Amount != "10.5" || got.OpenOrders[0].Price != "0.12" || got.RecentOrders[0].Side != "SELL" {
		t.Errorf("account dto = %+v", got)
	}
}
