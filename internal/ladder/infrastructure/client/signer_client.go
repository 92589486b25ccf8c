package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/dexladder/internal/ladder/domain"
	"github.com/wyfcoding/dexladder/pkg/utils"
)

const transactPath = "/v1/transact"

// SignerConfig 签名中继配置
type SignerConfig struct {
	Endpoint   string
	Account    string
	Permission string
	Timeout    time.Duration
	MaxRetries int
	// 首次重试前的等待
	RetryDelay      time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// SignerClient 把未签名动作交给签名中继，由中继签名并广播
type SignerClient struct {
	http       *resty.Client
	auth       domain.Authorization
	maxRetries int
	retryDelay time.Duration
	cb         *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

var _ domain.TransactionSubmitter = (*SignerClient)(nil)

type transactRequest struct {
	Actions []domain.Action `json:"actions"`
}

type transactResponse struct {
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error,omitempty"`
}

// NewSignerClient 创建签名中继客户端
func NewSignerClient(cfg SignerConfig, logger *slog.Logger) (*SignerClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: signer endpoint is required", domain.ErrConfiguration)
	}
	if cfg.Account == "" {
		return nil, fmt.Errorf("%w: signer account is required", domain.ErrConfiguration)
	}
	if cfg.Permission == "" {
		cfg.Permission = "active"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	return &SignerClient{
		http: resty.New().
			SetBaseURL(cfg.Endpoint).
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json"),
		auth:       domain.Authorization{Actor: cfg.Account, Permission: cfg.Permission},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		cb:         newBreaker("signer", cfg.BreakerFailures, cfg.BreakerTimeout, logger),
		logger:     logger,
	}, nil
}

// SubmitActions 提交一个原子批次，传输错误与 5xx 按退避重试
func (c *SignerClient) SubmitActions(ctx context.Context, actions []domain.Action) (*domain.Receipt, error) {
	if len(actions) == 0 {
		return nil, errors.New("submit actions: empty batch")
	}
	signed := make([]domain.Action, len(actions))
	for i, a := range actions {
		a.Authorization = []domain.Authorization{c.auth}
		signed[i] = a
	}
	payload := transactRequest{Actions: signed}

	var receipt *domain.Receipt
	attempt := 0
	err := utils.RetryWithBackoff(ctx, c.maxRetries, c.retryDelay, 10*c.retryDelay, func() error {
		attempt++
		r, err := c.transact(ctx, payload)
		if err != nil {
			c.logger.WarnContext(ctx, "transact attempt failed", "attempt", attempt, "actions", len(signed), "error", err)
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit actions: %w", err)
	}
	return receipt, nil
}

func (c *SignerClient) transact(ctx context.Context, payload transactRequest) (*domain.Receipt, error) {
	body, err := c.cb.Execute(func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).SetBody(payload).Post(transactPath)
		if err != nil {
			return nil, fmt.Errorf("POST %s: %w", transactPath, err)
		}
		if resp.StatusCode() >= 500 {
			return nil, fmt.Errorf("%w: POST %s returned %d", ErrUnexpectedStatus, transactPath, resp.StatusCode())
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, utils.Permanent(err)
		}
		return nil, err
	}
	resp := body.(*resty.Response)
	var out transactResponse
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &out); err != nil && resp.IsSuccess() {
			return nil, utils.Permanent(fmt.Errorf("decode transact response: %w", err))
		}
	}
	if resp.IsError() {
		msg := out.Error
		if msg == "" {
			msg = resp.String()
		}
		return nil, utils.Permanent(fmt.Errorf("%w: POST %s returned %d: %s", ErrUnexpectedStatus, transactPath, resp.StatusCode(), msg))
	}
	if out.TransactionID == "" {
		return nil, utils.Permanent(errors.New("transact response carries no transaction_id"))
	}
	return &domain.Receipt{TransactionID: out.TransactionID}, nil
}
