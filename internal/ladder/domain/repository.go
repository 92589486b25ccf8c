package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PlacementKind 流水类型
type PlacementKind string

const (
	PlacementSeed    PlacementKind = "SEED"
	PlacementCounter PlacementKind = "COUNTER"
	PlacementFill    PlacementKind = "FILL"
	PlacementCancel  PlacementKind = "CANCEL"
)

// Placement 挂单流水
type Placement struct {
	ID            uint            `json:"id"`
	TickID        string          `json:"tick_id"`
	Symbol        string          `json:"symbol"`
	Kind          PlacementKind   `json:"kind"`
	Side          Side            `json:"side"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	TransactionID string          `json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PlacementRepository 挂单流水存储
type PlacementRepository interface {
	SavePlacements(ctx context.Context, placements []Placement) error
	ListPlacements(ctx context.Context, symbol string, limit int) ([]Placement, error)
}

// LadderView 梯级状态读模型
type LadderView struct {
	Symbol    string         `json:"symbol"`
	Strategy  StrategyKind   `json:"strategy"`
	Phase     Phase          `json:"phase"`
	Rungs     []DesiredOrder `json:"rungs"`
	Buys      int            `json:"buys"`
	Sells     int            `json:"sells"`
	Ticks     uint64         `json:"ticks"`
	LastError string         `json:"last_error,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// LadderReadRepository 梯级读模型存储
type LadderReadRepository interface {
	Save(ctx context.Context, view *LadderView) error
	Get(ctx context.Context, symbol string) (*LadderView, error)
	List(ctx context.Context) ([]*LadderView, error)
}

// EventPublisher 领域事件发布
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
