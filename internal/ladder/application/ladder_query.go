package application

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

const (
	defaultPlacementLimit = 50
	maxPlacementLimit     = 500
)

// ErrPlacementsUnavailable 未配置流水存储
var ErrPlacementsUnavailable = errors.New("placement journal is not configured")

// RungDTO 梯级
type RungDTO struct {
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// LadderDTO 梯级状态
type LadderDTO struct {
	Symbol    string    `json:"symbol"`
	Strategy  string    `json:"strategy"`
	Phase     string    `json:"phase"`
	Buys      int       `json:"buys"`
	Sells     int       `json:"sells"`
	Ticks     uint64    `json:"ticks"`
	Rungs     []RungDTO `json:"rungs"`
	LastError string    `json:"last_error,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlacementDTO 挂单流水
type PlacementDTO struct {
	TickID        string    `json:"tick_id"`
	Symbol        string    `json:"symbol"`
	Kind          string    `json:"kind"`
	Side          string    `json:"side"`
	Price         string    `json:"price"`
	Quantity      string    `json:"quantity"`
	TransactionID string    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// BalanceDTO 币种余额
type BalanceDTO struct {
	Currency string `json:"currency"`
	Contract string `json:"contract"`
	Amount   string `json:"amount"`
}

// OrderDTO 委托
type OrderDTO struct {
	OrderID  string `json:"order_id"`
	MarketID int64  `json:"market_id"`
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// AccountDTO 账户概览
type AccountDTO struct {
	Account      string       `json:"account"`
	Balances     []BalanceDTO `json:"balances"`
	OpenOrders   []OrderDTO   `json:"open_orders"`
	RecentOrders []OrderDTO   `json:"recent_orders"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// LadderQueryService 梯级状态查询服务，只读读模型与流水
type LadderQueryService struct {
	readModel  domain.LadderReadRepository
	placements domain.PlacementRepository
	accounts   *AccountReporter
}

// NewLadderQueryService 创建查询服务，placements 可为空
func NewLadderQueryService(readModel domain.LadderReadRepository, placements domain.PlacementRepository) *LadderQueryService {
	return &LadderQueryService{readModel: readModel, placements: placements}
}

// WithAccountReporter 挂接账户概览来源
func (s *LadderQueryService) WithAccountReporter(r *AccountReporter) *LadderQueryService {
	s.accounts = r
	return s
}

// GetAccount 最近一次账户概览
func (s *LadderQueryService) GetAccount() (*AccountDTO, error) {
	if s.accounts == nil {
		return nil, ErrAccountStatusUnavailable
	}
	ev, err := s.accounts.Latest()
	if err != nil {
		return nil, err
	}
	balances := make([]BalanceDTO, 0, len(ev.Balances))
	for _, b := range ev.Balances {
		balances = append(balances, BalanceDTO{Currency: b.Currency, Contract: b.Contract, Amount: b.Amount.String()})
	}
	return &AccountDTO{
		Account:      ev.Account,
		Balances:     balances,
		OpenOrders:   toOrderDTOs(ev.OpenOrders),
		RecentOrders: toOrderDTOs(ev.RecentOrders),
		UpdatedAt:    ev.Timestamp,
	}, nil
}

// ListLadders 全部交易对
func (s *LadderQueryService) ListLadders(ctx context.Context) ([]*LadderDTO, error) {
	views, err := s.readModel.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*LadderDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toLadderDTO(v))
	}
	return out, nil
}

// GetLadder 单个交易对，不存在时返回 nil
func (s *LadderQueryService) GetLadder(ctx context.Context, symbol string) (*LadderDTO, error) {
	view, err := s.readModel.Get(ctx, symbol)
	if err != nil || view == nil {
		return nil, err
	}
	return toLadderDTO(view), nil
}

// ListPlacements 最近的挂单流水，limit 超出范围时截断
func (s *LadderQueryService) ListPlacements(ctx context.Context, symbol string, limit int) ([]*PlacementDTO, error) {
	if s.placements == nil {
		return nil, ErrPlacementsUnavailable
	}
	if limit <= 0 {
		limit = defaultPlacementLimit
	}
	limit = min(limit, maxPlacementLimit)
	rows, err := s.placements.ListPlacements(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*PlacementDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, &PlacementDTO{
			TickID:        p.TickID,
			Symbol:        p.Symbol,
			Kind:          string(p.Kind),
			Side:          string(p.Side),
			Price:         p.Price.String(),
			Quantity:      p.Quantity.String(),
			TransactionID: p.TransactionID,
			CreatedAt:     p.CreatedAt,
		})
	}
	return out, nil
}

func toLadderDTO(v *domain.LadderView) *LadderDTO {
	rungs := make([]RungDTO, 0, len(v.Rungs))
	for _, r := range v.Rungs {
		rungs = append(rungs, RungDTO{Side: string(r.Side), Price: r.Price.String(), Quantity: r.Quantity.String()})
	}
	return &LadderDTO{
		Symbol:    v.Symbol,
		Strategy:  string(v.Strategy),
		Phase:     string(v.Phase),
		Buys:      v.Buys,
		Sells:     v.Sells,
		Ticks:     v.Ticks,
		Rungs:     rungs,
		LastError: v.LastError,
		ErrorKind: v.ErrorKind,
		UpdatedAt: v.UpdatedAt,
	}
}

func toOrderDTOs(orders []domain.OpenOrder) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderDTO{
			OrderID:  o.ID,
			MarketID: o.MarketID,
			Side:     string(o.Side),
			Price:    o.Price.String(),
			Quantity: o.Quantity.String(),
		})
	}
	return out
}
