package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// StrategyKind 策略类型
type StrategyKind string

const (
	StrategyGrid        StrategyKind = "gridBot"
	StrategyMarketMaker StrategyKind = "marketMaker"
)

// MaxGridLevels 单个交易对允许的最大档位数
const MaxGridLevels = 500

// ParseStrategyKind 解析策略名称，只接受 gridBot 与 marketMaker
func ParseStrategyKind(name string) (StrategyKind, error) {
	switch k := StrategyKind(strings.TrimSpace(name)); k {
	case StrategyGrid, StrategyMarketMaker:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, name)
}

// ReferenceBase 做市参考价来源
type ReferenceBase string

const (
	ReferenceBid     ReferenceBase = "BID"
	ReferenceAsk     ReferenceBase = "ASK"
	ReferenceLast    ReferenceBase = "LAST"
	ReferenceAverage ReferenceBase = "AVERAGE"
)

// SidePolicy 做市挂单方向限制
type SidePolicy string

const (
	SidePolicyBuy  SidePolicy = "BUY"
	SidePolicySell SidePolicy = "SELL"
	SidePolicyBoth SidePolicy = "BOTH"
)

// Allows 判断该方向是否允许挂单
func (p SidePolicy) Allows(side Side) bool {
	switch p {
	case SidePolicyBoth:
		return true
	case SidePolicyBuy:
		return side == SideBuy
	case SidePolicySell:
		return side == SideSell
	}
	return false
}

// PairConfig 交易对策略参数，取值为 GridPairConfig 或 MarketMakerPairConfig
type PairConfig interface {
	PairSymbol() string
	Kind() StrategyKind
	pairConfig()
}

// GridPairConfig 网格策略参数
type GridPairConfig struct {
	Symbol            string          `json:"symbol"`
	UpperLimit        decimal.Decimal `json:"upper_limit"`
	LowerLimit        decimal.Decimal `json:"lower_limit"`
	GridLevels        int             `json:"grid_levels"`
	BidAmountPerLevel decimal.Decimal `json:"bid_amount_per_level"`
}

func (c GridPairConfig) PairSymbol() string { return c.Symbol }
func (c GridPairConfig) Kind() StrategyKind { return StrategyGrid }
func (GridPairConfig) pairConfig()          {}

// MarketMakerPairConfig 做市策略参数
type MarketMakerPairConfig struct {
	Symbol            string          `json:"symbol"`
	GridLevels        int             `json:"grid_levels"`
	GridInterval      decimal.Decimal `json:"grid_interval"`
	Base              ReferenceBase   `json:"base"`
	OrderSide         SidePolicy      `json:"order_side"`
	BidAmountPerLevel decimal.Decimal `json:"bid_amount_per_level"`
}

func (c MarketMakerPairConfig) PairSymbol() string { return c.Symbol }
func (c MarketMakerPairConfig) Kind() StrategyKind { return StrategyMarketMaker }
func (MarketMakerPairConfig) pairConfig()          {}

// RawPair 配置文件中的原始交易对表，值可以是数字或数字字符串
type RawPair map[string]any

// lookup 忽略大小写和下划线查找字段，upperLimit 与 upper_limit 等价
func (r RawPair) lookup(field string) (any, bool) {
	want := normalizeKey(field)
	for k, v := range r {
		if normalizeKey(k) == want {
			return v, true
		}
	}
	return nil, false
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "_", ""))
}

// ParsePairConfigs 把原始配置解析为策略参数。所有交易对的所有字段错误一次性返回。
func ParsePairConfigs(kind StrategyKind, raw []RawPair) ([]PairConfig, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no pairs configured for %s", ErrConfiguration, kind)
	}
	var errs []error
	out := make([]PairConfig, 0, len(raw))
	seen := make(map[string]int, len(raw))

	for idx, r := range raw {
		p := pairParser{index: idx, raw: r}
		p.symbol = p.str("symbol")
		if prev, dup := seen[p.symbol]; dup && p.symbol != "" {
			p.fail("symbol", fmt.Sprintf("duplicates pair %d", prev))
		}
		seen[p.symbol] = idx

		var cfg PairConfig
		switch kind {
		case StrategyGrid:
			cfg = p.grid()
		case StrategyMarketMaker:
			cfg = p.marketMaker()
		default:
			return nil, fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, kind)
		}
		if len(p.errs) > 0 {
			errs = append(errs, p.errs...)
			continue
		}
		out = append(out, cfg)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

type pairParser struct {
	index  int
	symbol string
	raw    RawPair
	errs   []error
}

func (p *pairParser) fail(field, reason string) {
	p.errs = append(p.errs, &FieldError{Index: p.index, Symbol: p.symbol, Field: field, Reason: reason})
}

func (p *pairParser) str(field string) string {
	v, ok := p.raw.lookup(field)
	if !ok || v == nil {
		p.fail(field, "is missing")
		return ""
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		p.fail(field, "is empty")
	}
	return s
}

func (p *pairParser) number(field string) (decimal.Decimal, bool) {
	v, ok := p.raw.lookup(field)
	if !ok || v == nil {
		p.fail(field, "is missing")
		return decimal.Zero, false
	}
	d, err := toDecimal(v)
	if err != nil {
		p.fail(field, "is not numeric")
		return decimal.Zero, false
	}
	return d, true
}

func (p *pairParser) positive(field string) decimal.Decimal {
	d, ok := p.number(field)
	if ok && !d.IsPositive() {
		p.fail(field, "must be positive")
	}
	return d
}

func (p *pairParser) levels(field string) int {
	d, ok := p.number(field)
	if !ok {
		return 0
	}
	if !d.IsInteger() || d.LessThan(decimal.NewFromInt(1)) {
		p.fail(field, "must be a positive integer")
		return 0
	}
	if d.GreaterThan(decimal.NewFromInt(MaxGridLevels)) {
		p.fail(field, fmt.Sprintf("must not exceed %d", MaxGridLevels))
		return 0
	}
	return int(d.IntPart())
}

func (p *pairParser) grid() GridPairConfig {
	cfg := GridPairConfig{
		Symbol:            p.symbol,
		UpperLimit:        p.positive("upperLimit"),
		LowerLimit:        p.positive("lowerLimit"),
		GridLevels:        p.levels("gridLevels"),
		BidAmountPerLevel: p.positive("bidAmountPerLevel"),
	}
	if cfg.UpperLimit.IsPositive() && cfg.LowerLimit.IsPositive() && !cfg.UpperLimit.GreaterThan(cfg.LowerLimit) {
		p.fail("upperLimit", "must be greater than lowerLimit")
	}
	return cfg
}

func (p *pairParser) marketMaker() MarketMakerPairConfig {
	cfg := MarketMakerPairConfig{
		Symbol:            p.symbol,
		GridLevels:        p.levels("gridLevels"),
		GridInterval:      p.positive("gridInterval"),
		BidAmountPerLevel: p.positive("bidAmountPerLevel"),
	}
	switch base := ReferenceBase(strings.ToUpper(p.str("base"))); base {
	case ReferenceBid, ReferenceAsk, ReferenceLast, ReferenceAverage:
		cfg.Base = base
	case "":
	default:
		p.fail("base", "must be one of BID, ASK, LAST, AVERAGE")
	}
	switch side := SidePolicy(strings.ToUpper(p.str("orderSide"))); side {
	case SidePolicyBuy, SidePolicySell, SidePolicyBoth:
		cfg.OrderSide = side
	case "":
	default:
		p.fail("orderSide", "must be one of BUY, SELL, BOTH")
	}
	// 最深一档买价必须为正
	if cfg.GridLevels > 0 && cfg.GridInterval.IsPositive() &&
		cfg.GridInterval.Mul(decimal.NewFromInt(int64(cfg.GridLevels))).GreaterThanOrEqual(decimal.NewFromInt(1)) {
		p.fail("gridInterval", "times gridLevels must be below 1")
	}
	return cfg
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, fmt.Errorf("non-finite value")
		}
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	}
	return decimal.Zero, fmt.Errorf("unsupported type %T", v)
}

