package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

// PlacementModel 挂单流水表映射
type PlacementModel struct {
	ID            uint            `gorm:"primaryKey"`
	TickID        string          `gorm:"column:tick_id;type:varchar(64);index;not null"`
	Symbol        string          `gorm:"column:symbol;type:varchar(32);index:idx_symbol_created,priority:1;not null"`
	Kind          string          `gorm:"column:kind;type:varchar(16);not null"`
	Side          string          `gorm:"column:side;type:varchar(8);not null"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(32,18);not null"`
	Quantity      decimal.Decimal `gorm:"column:quantity;type:decimal(32,18);not null"`
	TransactionID string          `gorm:"column:transaction_id;type:varchar(128)"`
	CreatedAt     time.Time       `gorm:"column:created_at;index:idx_symbol_created,priority:2"`
}

func (PlacementModel) TableName() string { return "ladder_placements" }

func toPlacementModel(p domain.Placement) PlacementModel {
	return PlacementModel{
		ID:            p.ID,
		TickID:        p.TickID,
		Symbol:        p.Symbol,
		Kind:          string(p.Kind),
		Side:          string(p.Side),
		Price:         p.Price,
		Quantity:      p.Quantity,
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
}

func toPlacement(m *PlacementModel) domain.Placement {
	return domain.Placement{
		ID:            m.ID,
		TickID:        m.TickID,
		Symbol:        m.Symbol,
		Kind:          domain.PlacementKind(m.Kind),
		Side:          domain.Side(m.Side),
		Price:         m.Price,
		Quantity:      m.Quantity,
		TransactionID: m.TransactionID,
		CreatedAt:     m.CreatedAt,
	}
}
