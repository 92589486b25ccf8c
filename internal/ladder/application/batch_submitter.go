package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

const (
	defaultBatchSize   = 30
	defaultBatchPacing = 2 * time.Second
)

// BatchConfig 批量提交参数
type BatchConfig struct {
	// 每批挂单数
	Size int
	// 批次之间的间隔
	Pacing time.Duration
}

// BatchResult 已成功提交的批次
type BatchResult struct {
	Submitted []domain.DesiredOrder
	Receipts  []*domain.Receipt
}

// TransactionIDs 各批次的交易 ID
func (r *BatchResult) TransactionIDs() []string {
	ids := make([]string, 0, len(r.Receipts))
	for _, rc := range r.Receipts {
		if rc != nil {
			ids = append(ids, rc.TransactionID)
		}
	}
	return ids
}

// BatchSubmitter 把挂单按固定大小分批提交，每批以撮合队列处理动作结尾，批次间按间隔等待。
// 不做重试，错误原样返回。
type BatchSubmitter struct {
	tx      domain.TransactionSubmitter
	builder *domain.ActionBuilder
	size    int
	pacing  time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	logger  *slog.Logger
}

// NewBatchSubmitter 创建批量提交器
func NewBatchSubmitter(tx domain.TransactionSubmitter, builder *domain.ActionBuilder, cfg BatchConfig, logger *slog.Logger) *BatchSubmitter {
	if cfg.Size <= 0 {
		cfg.Size = defaultBatchSize
	}
	if cfg.Pacing <= 0 {
		cfg.Pacing = defaultBatchPacing
	}
	return &BatchSubmitter{
		tx:      tx,
		builder: builder,
		size:    cfg.Size,
		pacing:  cfg.Pacing,
		sleep:   sleepContext,
		logger:  logger,
	}
}

// Submit 提交一个交易对的挂单。某批失败时返回 SubmissionError，之前成功的批次保留在结果中。
func (s *BatchSubmitter) Submit(ctx context.Context, m *domain.Market, orders []domain.DesiredOrder) (*BatchResult, error) {
	res := &BatchResult{}
	for batch, start := 0, 0; start < len(orders); batch, start = batch+1, start+s.size {
		if batch > 0 {
			if err := s.sleep(ctx, s.pacing); err != nil {
				return res, &domain.SubmissionError{Symbol: m.Symbol, Batch: batch, Err: err}
			}
		}
		end := min(start+s.size, len(orders))
		chunk := orders[start:end]

		actions := make([]domain.Action, 0, 2*len(chunk)+1)
		for _, o := range chunk {
			acts, err := s.builder.PlaceOrder(m, o)
			if err != nil {
				return res, err
			}
			actions = append(actions, acts...)
		}
		actions = append(actions, s.builder.Process())

		receipt, err := s.tx.SubmitActions(ctx, actions)
		if err != nil {
			return res, &domain.SubmissionError{Symbol: m.Symbol, Batch: batch, Err: err}
		}
		res.Submitted = append(res.Submitted, chunk...)
		res.Receipts = append(res.Receipts, receipt)

		s.logger.InfoContext(ctx, "order batch submitted",
			"symbol", m.Symbol,
			"batch", batch,
			"orders", len(chunk),
			"transaction_id", transactionID(receipt),
		)
	}
	return res, nil
}

// Cancel 按批次撤销挂单，返回成功撤销的数量
func (s *BatchSubmitter) Cancel(ctx context.Context, orderIDs []string) (int, error) {
	cancelled := 0
	for batch, start := 0, 0; start < len(orderIDs); batch, start = batch+1, start+s.size {
		if batch > 0 {
			if err := s.sleep(ctx, s.pacing); err != nil {
				return cancelled, &domain.SubmissionError{Symbol: "*", Batch: batch, Err: err}
			}
		}
		end := min(start+s.size, len(orderIDs))
		actions := make([]domain.Action, 0, end-start)
		for _, id := range orderIDs[start:end] {
			actions = append(actions, s.builder.CancelOrder(id))
		}
		if _, err := s.tx.SubmitActions(ctx, actions); err != nil {
			return cancelled, &domain.SubmissionError{Symbol: "*", Batch: batch, Err: err}
		}
		cancelled += end - start
	}
	return cancelled, nil
}

func transactionID(r *domain.Receipt) string {
	if r == nil {
		return ""
	}
	return r.TransactionID
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
