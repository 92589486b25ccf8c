package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/dexladder/internal/ladder/domain"
	"github.com/wyfcoding/dexladder/pkg/logger"
	"github.com/wyfcoding/dexladder/pkg/metrics"
)

const defaultShutdownTimeout = 2 * time.Minute

// EngineConfig 轮询引擎参数
type EngineConfig struct {
	// 交易账户
	Account string
	// 策略类型
	Strategy domain.StrategyKind
	// 轮询间隔
	Interval time.Duration
	// 退出时撤销全部挂单
	CancelOnExit bool
	// 撤单最长耗时
	ShutdownTimeout time.Duration
}

// EngineDeps 引擎依赖，Placements/ReadModel/Publisher/Metrics 可为空
type EngineDeps struct {
	Snapshots  *SnapshotProvider
	Accounts   domain.AccountClient
	Submitter  *BatchSubmitter
	Placements domain.PlacementRepository
	ReadModel  domain.LadderReadRepository
	Publisher  domain.EventPublisher
	Metrics    *metrics.Metrics
	NewTickID  func() string
	Now        func() time.Time
}

// PairOutcome 单个交易对在一轮中的处理结果
type PairOutcome struct {
	Symbol string
	Placed int
	Filled int
	Err    error
}

// TickReport 一轮处理结果
type TickReport struct {
	TickID string
	Pairs  []PairOutcome
}

// Engine 挂单轮询引擎
// 每轮按配置顺序逐个处理交易对；梯级状态只由当前轮读写。
type Engine struct {
	cfg        EngineConfig
	strategies []domain.Strategy
	book       *domain.LadderBook
	deps       EngineDeps
	logger     *slog.Logger
}

// NewEngine 创建引擎
func NewEngine(cfg EngineConfig, strategies []domain.Strategy, deps EngineDeps, logger *slog.Logger) (*Engine, error) {
	if cfg.Account == "" {
		return nil, fmt.Errorf("%w: account is required", domain.ErrConfiguration)
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("%w: no trading pairs configured", domain.ErrConfiguration)
	}
	if deps.Snapshots == nil || deps.Accounts == nil || deps.Submitter == nil {
		return nil, errors.New("engine requires snapshot provider, account client and submitter")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if deps.NewTickID == nil {
		deps.NewTickID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	symbols := make([]string, 0, len(strategies))
	for _, s := range strategies {
		symbols = append(symbols, s.Symbol())
	}
	return &Engine{
		cfg:        cfg,
		strategies: strategies,
		book:       domain.NewLadderBook(symbols),
		deps:       deps,
		logger:     logger,
	}, nil
}

// Book 返回引擎持有的梯级状态，仅供同一 goroutine 使用
func (e *Engine) Book() *domain.LadderBook { return e.book }

// Run 按固定间隔轮询直到 ctx 结束。信号只在两轮之间生效，每轮使用与取消解耦的 context。
func (e *Engine) Run(ctx context.Context) error {
	interval := e.cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.InfoContext(ctx, "ladder engine started",
		"account", e.cfg.Account,
		"strategy", e.cfg.Strategy,
		"pairs", len(e.strategies),
		"interval", interval,
	)

	for {
		e.Tick(context.WithoutCancel(ctx))
		select {
		case <-ctx.Done():
			e.Shutdown(ctx)
			return nil
		case <-ticker.C:
		}
		// 本轮结束时已收到信号则不再开始下一轮
		if ctx.Err() != nil {
			e.Shutdown(ctx)
			return nil
		}
	}
}

// Tick 执行一轮：逐个交易对获取快照、生成或对账梯级、准入检查并提交
func (e *Engine) Tick(ctx context.Context) TickReport {
	tickID := e.deps.NewTickID()
	ctx = logger.WithTick(ctx, tickID)
	start := e.deps.Now()

	scope := &tickScope{}
	report := TickReport{TickID: tickID, Pairs: make([]PairOutcome, 0, len(e.strategies))}
	for _, strat := range e.strategies {
		pctx := logger.WithSymbol(ctx, strat.Symbol())
		outcome := e.processPair(pctx, tickID, strat, scope)
		if outcome.Err != nil {
			kind := domain.ErrorKind(outcome.Err)
			logger.With(e.logger, pctx).WarnContext(pctx, "pair skipped this tick", "kind", kind, "error", outcome.Err)
			if e.deps.Metrics != nil {
				e.deps.Metrics.PairErrors.WithLabelValues(strat.Symbol(), kind).Inc()
			}
			e.publish(pctx, domain.TopicPairRejected, strat.Symbol(), domain.PairRejectedEvent{
				TickID:    tickID,
				Symbol:    strat.Symbol(),
				Kind:      kind,
				Reason:    outcome.Err.Error(),
				Timestamp: e.deps.Now(),
			})
		}
		e.project(pctx, strat.Symbol(), outcome.Err)
		report.Pairs = append(report.Pairs, outcome)
	}

	if e.deps.Metrics != nil {
		e.deps.Metrics.TicksTotal.Inc()
		e.deps.Metrics.TickDuration.Observe(e.deps.Now().Sub(start).Seconds())
	}
	logger.With(e.logger, ctx).DebugContext(ctx, "tick completed", "duration", e.deps.Now().Sub(start))
	return report
}

// tickScope 一轮内共享的账户挂单快照，首次需要时获取
type tickScope struct {
	open   []domain.OpenOrder
	loaded bool
}

func (e *Engine) openOrders(ctx context.Context, scope *tickScope) ([]domain.OpenOrder, error) {
	if scope.loaded {
		return scope.open, nil
	}
	open, err := e.deps.Accounts.FetchOpenOrders(ctx, e.cfg.Account)
	if err != nil {
		return nil, fmt.Errorf("fetch open orders: %w", err)
	}
	scope.open, scope.loaded = open, true
	return open, nil
}

func (e *Engine) processPair(ctx context.Context, tickID string, strat domain.Strategy, scope *tickScope) PairOutcome {
	symbol := strat.Symbol()
	out := PairOutcome{Symbol: symbol}
	state, ok := e.book.State(symbol)
	if !ok {
		out.Err = fmt.Errorf("%w: %s has no ladder state", domain.ErrConfiguration, symbol)
		return out
	}

	snap, err := e.deps.Snapshots.Snapshot(ctx, symbol)
	if err != nil {
		out.Err = err
		return out
	}
	m := snap.Market

	var (
		orders []domain.DesiredOrder
		next   []domain.DesiredOrder
		filled []domain.DesiredOrder
		kind   = domain.PlacementSeed
	)
	if state.Phase == domain.PhaseSeeded {
		all, err := e.openOrders(ctx, scope)
		if err != nil {
			out.Err = err
			return out
		}
		open := domain.FilterByMarket(all, m.ID)
		if len(open) == 0 {
			logger.With(e.logger, ctx).WarnContext(ctx, "no open orders reported for seeded ladder", "rungs", len(state.Rungs))
		}
		rec, err := strat.Reconcile(snap, state.Rungs, open)
		if err != nil {
			out.Err = err
			return out
		}
		orders, next, filled, kind = rec.Placed, rec.Next(), rec.Filled, domain.PlacementCounter
	} else {
		orders, err = strat.Seed(snap)
		if err != nil {
			out.Err = err
			return out
		}
		next = orders
	}

	if len(orders) == 0 {
		if state.Phase == domain.PhaseSeeded {
			e.commit(ctx, tickID, m, state, kind, next, filled, nil, nil)
			out.Filled = len(filled)
		} else {
			logger.With(e.logger, ctx).WarnContext(ctx, "strategy produced an empty ladder", "last_price", snap.LastPrice.String())
		}
		return out
	}

	balances, err := e.balances(ctx, m)
	if err != nil {
		out.Err = err
		return out
	}
	exposure, err := domain.Admit(m, orders, balances)
	if err != nil {
		out.Err = err
		return out
	}

	res, err := e.deps.Submitter.Submit(ctx, m, orders)
	if err != nil {
		if e.deps.Metrics != nil {
			e.deps.Metrics.Batches.WithLabelValues("failed").Inc()
		}
		e.recordPartial(ctx, tickID, kind, res)
		out.Err = err
		return out
	}

	e.commit(ctx, tickID, m, state, kind, next, filled, orders, res)
	logger.With(e.logger, ctx).InfoContext(ctx, "ladder orders placed",
		"kind", kind,
		"orders", len(orders),
		"filled", len(filled),
		"buy_notional", m.AskToken.Format(exposure.BuyNotional),
		"sell_quantity", m.BidToken.Format(exposure.SellQuantity),
	)
	out.Placed, out.Filled = len(orders), len(filled)
	return out
}

func (e *Engine) balances(ctx context.Context, m *domain.Market) (domain.Balances, error) {
	base, err := e.deps.Accounts.FetchBalance(ctx, e.cfg.Account, m.BidToken.Contract, m.BidToken.Code)
	if err != nil {
		return domain.Balances{}, fmt.Errorf("fetch %s balance: %w", m.BidToken.Code, err)
	}
	quote, err := e.deps.Accounts.FetchBalance(ctx, e.cfg.Account, m.AskToken.Contract, m.AskToken.Code)
	if err != nil {
		return domain.Balances{}, fmt.Errorf("fetch %s balance: %w", m.AskToken.Code, err)
	}
	return domain.Balances{Base: base, Quote: quote}, nil
}

// commit 提交成功后更新梯级状态，并写流水、发事件、更新指标
func (e *Engine) commit(ctx context.Context, tickID string, m *domain.Market, state *domain.LadderState,
	kind domain.PlacementKind, next, filled, placed []domain.DesiredOrder, res *BatchResult) {
	now := e.deps.Now()
	if state.Phase == domain.PhaseSeeded {
		state.Advance(next, now)
	} else {
		state.Seed(next, now)
	}
	state.Ticks++

	txID := ""
	if res != nil {
		if ids := res.TransactionIDs(); len(ids) > 0 {
			txID = ids[len(ids)-1]
		}
	}

	placements := make([]domain.Placement, 0, len(filled)+len(placed))
	for _, f := range filled {
		placements = append(placements, toPlacement(tickID, domain.PlacementFill, f, "", now))
		e.publish(ctx, domain.TopicFillDetected, m.Symbol, domain.FillDetectedEvent{
			TickID:    tickID,
			Symbol:    m.Symbol,
			Rung:      domain.ToRungEvents(m, []domain.DesiredOrder{f})[0],
			Timestamp: now,
		})
	}
	for _, p := range placed {
		placements = append(placements, toPlacement(tickID, kind, p, txID, now))
	}
	if len(placed) > 0 {
		topic := domain.TopicCounterPlaced
		var event any = domain.CounterPlacedEvent{TickID: tickID, Symbol: m.Symbol, Rungs: domain.ToRungEvents(m, placed), TransactionID: txID, Timestamp: now}
		if kind == domain.PlacementSeed {
			topic = domain.TopicLadderSeeded
			event = domain.LadderSeededEvent{TickID: tickID, Symbol: m.Symbol, Rungs: domain.ToRungEvents(m, placed), TransactionID: txID, Timestamp: now}
		}
		e.publish(ctx, topic, m.Symbol, event)
	}

	if e.deps.Placements != nil && len(placements) > 0 {
		if err := e.deps.Placements.SavePlacements(ctx, placements); err != nil {
			logger.With(e.logger, ctx).ErrorContext(ctx, "failed to journal placements", "error", err)
		}
	}

	if mt := e.deps.Metrics; mt != nil {
		for _, p := range placed {
			mt.OrdersSubmitted.WithLabelValues(m.Symbol, string(p.Side)).Inc()
		}
		for _, f := range filled {
			mt.FillsDetected.WithLabelValues(m.Symbol, string(f.Side)).Inc()
		}
		if res != nil {
			mt.Batches.WithLabelValues("ok").Add(float64(len(res.Receipts)))
		}
		mt.RestingRungs.WithLabelValues(m.Symbol).Set(float64(len(state.Rungs)))
	}
}

// recordPartial 某批失败前已上链的挂单只记日志与流水，梯级状态保持不变
func (e *Engine) recordPartial(ctx context.Context, tickID string, kind domain.PlacementKind, res *BatchResult) {
	if res == nil || len(res.Submitted) == 0 {
		return
	}
	ids := res.TransactionIDs()
	logger.With(e.logger, ctx).WarnContext(ctx, "batches submitted before failure are resting but not tracked",
		"kind", kind,
		"orders", len(res.Submitted),
		"transaction_ids", ids,
	)
	if e.deps.Metrics != nil {
		e.deps.Metrics.Batches.WithLabelValues("ok").Add(float64(len(res.Receipts)))
	}
	if e.deps.Placements == nil {
		return
	}
	txID := ""
	if len(ids) > 0 {
		txID = ids[len(ids)-1]
	}
	now := e.deps.Now()
	placements := make([]domain.Placement, 0, len(res.Submitted))
	for _, o := range res.Submitted {
		placements = append(placements, toPlacement(tickID, kind, o, txID, now))
	}
	if err := e.deps.Placements.SavePlacements(ctx, placements); err != nil {
		logger.With(e.logger, ctx).ErrorContext(ctx, "failed to journal partial placements", "error", err)
	}
}

// Shutdown 打断轮询后调用：按配置撤销全部挂单，失败只记录日志
func (e *Engine) Shutdown(ctx context.Context) {
	if !e.cfg.CancelOnExit {
		e.logger.InfoContext(ctx, "ladder engine stopped, open orders left on book")
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.ShutdownTimeout)
	defer cancel()

	n, err := e.CancelAll(cctx)
	event := domain.LadderCancelledEvent{Account: e.cfg.Account, Orders: n, Timestamp: e.deps.Now()}
	if err != nil {
		event.Error = err.Error()
		e.logger.ErrorContext(cctx, "cancel-all sweep failed", "cancelled", n, "error", err)
	} else {
		e.logger.InfoContext(cctx, "cancel-all sweep completed", "cancelled", n)
	}
	e.book.CancelAll(e.deps.Now())
	for _, sym := range e.book.Symbols() {
		e.project(cctx, sym, nil)
	}
	e.publish(cctx, domain.TopicCancelled, e.cfg.Account, event)
}

// CancelAll 撤销账户在所有市场上的挂单
func (e *Engine) CancelAll(ctx context.Context) (int, error) {
	return CancelAccountOrders(ctx, e.deps.Accounts, e.deps.Submitter, e.cfg.Account)
}

// CancelAccountOrders 拉取账户挂单并分批撤销
func CancelAccountOrders(ctx context.Context, accounts domain.AccountClient, submitter *BatchSubmitter, account string) (int, error) {
	open, err := accounts.FetchOpenOrders(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("fetch open orders: %w", err)
	}
	if len(open) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(open))
	for _, o := range open {
		ids = append(ids, o.ID)
	}
	return submitter.Cancel(ctx, ids)
}

func (e *Engine) project(ctx context.Context, symbol string, tickErr error) {
	if e.deps.ReadModel == nil {
		return
	}
	state, ok := e.book.State(symbol)
	if !ok {
		return
	}
	snapshot := state.Clone()
	buys, sells := snapshot.Count()
	view := &domain.LadderView{
		Symbol:    symbol,
		Strategy:  e.cfg.Strategy,
		Phase:     snapshot.Phase,
		Rungs:     snapshot.Rungs,
		Buys:      buys,
		Sells:     sells,
		Ticks:     snapshot.Ticks,
		UpdatedAt: e.deps.Now(),
	}
	if tickErr != nil {
		view.LastError = tickErr.Error()
		view.ErrorKind = domain.ErrorKind(tickErr)
	}
	if err := e.deps.ReadModel.Save(ctx, view); err != nil {
		logger.With(e.logger, ctx).WarnContext(ctx, "failed to update ladder read model", "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, topic, key string, event any) {
	if e.deps.Publisher == nil {
		return
	}
	if err := e.deps.Publisher.Publish(ctx, topic, key, event); err != nil {
		logger.With(e.logger, ctx).WarnContext(ctx, "failed to publish ladder event", "topic", topic, "error", err)
	}
}

func toPlacement(tickID string, kind domain.PlacementKind, o domain.DesiredOrder, txID string, at time.Time) domain.Placement {
	return domain.Placement{
		TickID:        tickID,
		Symbol:        o.Symbol,
		Kind:          kind,
		Side:          o.Side,
		Price:         o.Price,
		Quantity:      o.Quantity,
		TransactionID: txID,
		CreatedAt:     at,
	}
}
