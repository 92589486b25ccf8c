package domain

import "time"

// Phase 交易对梯级状态
type Phase string

const (
	PhaseUnseeded  Phase = "UNSEEDED"
	PhaseSeeded    Phase = "SEEDED"
	PhaseCancelled Phase = "CANCELLED"
)

// LadderState 某交易对上一次成功提交后的梯级
type LadderState struct {
	Symbol    string         `json:"symbol"`
	Phase     Phase          `json:"phase"`
	Rungs     []DesiredOrder `json:"rungs"`
	Ticks     uint64         `json:"ticks"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Seed UNSEEDED -> SEEDED
func (s *LadderState) Seed(rungs []DesiredOrder, at time.Time) {
	s.Phase = PhaseSeeded
	s.Rungs = cloneOrders(rungs)
	s.UpdatedAt = at
}

// Advance 在 SEEDED 状态下替换梯级
func (s *LadderState) Advance(rungs []DesiredOrder, at time.Time) {
	s.Rungs = cloneOrders(rungs)
	s.UpdatedAt = at
}

// Cancel 撤单后清空梯级
func (s *LadderState) Cancel(at time.Time) {
	s.Phase = PhaseCancelled
	s.Rungs = nil
	s.UpdatedAt = at
}

// Count 按方向统计梯级数
func (s *LadderState) Count() (buys, sells int) {
	for _, r := range s.Rungs {
		if r.Side == SideBuy {
			buys++
		} else {
			sells++
		}
	}
	return buys, sells
}

// Clone 深拷贝
func (s *LadderState) Clone() LadderState {
	c := *s
	c.Rungs = cloneOrders(s.Rungs)
	return c
}

// LadderBook 交易对符号到梯级状态的映射，按配置顺序遍历。
// 只由当前 tick 读写，不加锁。
type LadderBook struct {
	states  map[string]*LadderState
	symbols []string
}

// NewLadderBook 为每个交易对创建 UNSEEDED 状态
func NewLadderBook(symbols []string) *LadderBook {
	b := &LadderBook{
		states:  make(map[string]*LadderState, len(symbols)),
		symbols: make([]string, 0, len(symbols)),
	}
	for _, sym := range symbols {
		if _, ok := b.states[sym]; ok {
			continue
		}
		b.states[sym] = &LadderState{Symbol: sym, Phase: PhaseUnseeded}
		b.symbols = append(b.symbols, sym)
	}
	return b
}

// State 返回交易对的状态句柄
func (b *LadderBook) State(symbol string) (*LadderState, bool) {
	s, ok := b.states[symbol]
	return s, ok
}

// Symbols 按配置顺序返回交易对
func (b *LadderBook) Symbols() []string {
	out := make([]string, len(b.symbols))
	copy(out, b.symbols)
	return out
}

// CancelAll 把所有交易对置为 CANCELLED
func (b *LadderBook) CancelAll(at time.Time) {
	for _, s := range b.states {
		s.Cancel(at)
	}
}
