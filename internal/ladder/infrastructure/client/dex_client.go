// Package client 实现交易所 REST 行情、账户与签名服务的 HTTP 客户端
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/dexladder/internal/ladder/domain"
	"github.com/wyfcoding/dexladder/pkg/ratelimit"
)

const (
	defaultPageSize  = 150
	defaultDepthStep = 100000
	defaultTimeout   = 10 * time.Second
)

// ErrUnexpectedStatus 交易所返回非 2xx
var ErrUnexpectedStatus = errors.New("unexpected http status")

// DexConfig 交易所 REST 客户端配置
type DexConfig struct {
	APIRoot      string
	LightAPIRoot string
	Chain        string
	Timeout      time.Duration
	RateLimit    ratelimit.Limit
	// 连续失败多少次后熔断
	BreakerFailures uint32
	// 熔断后多久进入半开
	BreakerTimeout time.Duration
	PageSize       int
	DepthStep      int
}

// DexClient 交易所 REST 客户端，实现 MarketDataClient 与 AccountClient
type DexClient struct {
	api     *resty.Client
	light   *resty.Client
	chain   string
	limiter ratelimit.Limiter
	cb      *gobreaker.CircuitBreaker
	page    int
	step    int
	logger  *slog.Logger
}

var (
	_ domain.MarketDataClient    = (*DexClient)(nil)
	_ domain.AccountClient       = (*DexClient)(nil)
	_ domain.AccountReportClient = (*DexClient)(nil)
)

// NewDexClient 创建交易所客户端
func NewDexClient(cfg DexConfig, logger *slog.Logger) (*DexClient, error) {
	if cfg.APIRoot == "" {
		return nil, fmt.Errorf("%w: exchange api_root is required", domain.ErrConfiguration)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.DepthStep <= 0 {
		cfg.DepthStep = defaultDepthStep
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	c := &DexClient{
		api:     resty.New().SetBaseURL(cfg.APIRoot).SetTimeout(cfg.Timeout).SetHeader("Accept", "application/json"),
		chain:   cfg.Chain,
		limiter: ratelimit.New(cfg.RateLimit),
		page:    cfg.PageSize,
		step:    cfg.DepthStep,
		logger:  logger,
	}
	if cfg.LightAPIRoot != "" {
		c.light = resty.New().SetBaseURL(cfg.LightAPIRoot).SetTimeout(cfg.Timeout).SetHeader("Accept", "application/json")
	}
	c.cb = newBreaker("dex-api", cfg.BreakerFailures, cfg.BreakerTimeout, logger)
	return c, nil
}

func newBreaker(name string, failures uint32, timeout time.Duration, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// get 限流、熔断后发起 GET 并把响应体解析进 out
func (c *DexClient) get(ctx context.Context, rc *resty.Client, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	body, err := c.cb.Execute(func() (any, error) {
		resp, err := rc.R().SetContext(ctx).SetQueryParamsFromValues(query).Get(path)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", path, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%w: GET %s returned %d", ErrUnexpectedStatus, path, resp.StatusCode())
		}
		return resp.Body(), nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// ListMarkets 获取全部市场
func (c *DexClient) ListMarkets(ctx context.Context) ([]*domain.Market, error) {
	var resp envelope[[]marketDTO]
	if err := c.get(ctx, c.api, "/v1/markets/all", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*domain.Market, 0, len(resp.Data))
	for _, m := range resp.Data {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// FetchLatestPrice 最近一笔成交价
func (c *DexClient) FetchLatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", "1")
	q.Set("offset", "0")
	var resp envelope[[]tradeDTO]
	if err := c.get(ctx, c.api, "/v1/trades/recent", q, &resp); err != nil {
		return decimal.Zero, err
	}
	if len(resp.Data) == 0 {
		return decimal.Zero, fmt.Errorf("no recent trades for %s", symbol)
	}
	return resp.Data[0].Price.Decimal, nil
}

// FetchOrderBook 聚合盘口
func (c *DexClient) FetchOrderBook(ctx context.Context, symbol string, depth int) (domain.OrderBook, error) {
	if depth <= 0 {
		depth = 1
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(depth))
	q.Set("step", strconv.Itoa(c.step))
	var resp envelope[bookDTO]
	if err := c.get(ctx, c.api, "/v1/orders/depth", q, &resp); err != nil {
		return domain.OrderBook{}, err
	}
	return resp.Data.toDomain(), nil
}

// FetchOpenOrders 分页拉取账户全部挂单
func (c *DexClient) FetchOpenOrders(ctx context.Context, account string) ([]domain.OpenOrder, error) {
	return c.pagedOrders(ctx, "/v1/orders/open", account)
}

// FetchOrderHistory 账户最近 limit 条历史委托，limit 不超过分页大小
func (c *DexClient) FetchOrderHistory(ctx context.Context, account string, limit int) ([]domain.OpenOrder, error) {
	if limit <= 0 || limit > c.page {
		limit = c.page
	}
	orders, _, err := c.orderPage(ctx, "/v1/orders/history", account, limit, 0)
	return orders, err
}

func (c *DexClient) pagedOrders(ctx context.Context, path, account string) ([]domain.OpenOrder, error) {
	var out []domain.OpenOrder
	for offset := 0; ; offset += c.page {
		page, n, err := c.orderPage(ctx, path, account, c.page, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if n < c.page {
			return out, nil
		}
	}
}

// orderPage 拉取一页委托，n 为本页原始条数
func (c *DexClient) orderPage(ctx context.Context, path, account string, limit, offset int) ([]domain.OpenOrder, int, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("account", account)
	var resp envelope[[]orderDTO]
	if err := c.get(ctx, c.api, path, q, &resp); err != nil {
		return nil, 0, err
	}
	out := make([]domain.OpenOrder, 0, len(resp.Data))
	for _, o := range resp.Data {
		order, err := o.toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("order %s: %w", o.OrderID, err)
		}
		out = append(out, order)
	}
	return out, len(resp.Data), nil
}

// FetchBalance 单币种余额，走轻量 API
func (c *DexClient) FetchBalance(ctx context.Context, account, contract, code string) (decimal.Decimal, error) {
	if c.light == nil {
		return decimal.Zero, fmt.Errorf("%w: exchange light_api_root is required for balances", domain.ErrConfiguration)
	}
	path := fmt.Sprintf("/tokenbalance/%s/%s/%s/%s",
		url.PathEscape(c.chain), url.PathEscape(account), url.PathEscape(contract), url.PathEscape(code))
	var n number
	if err := c.get(ctx, c.light, path, nil, &n); err != nil {
		return decimal.Zero, err
	}
	return n.Decimal, nil
}

// FetchBalances 账户全部余额
func (c *DexClient) FetchBalances(ctx context.Context, account string) ([]domain.TokenBalance, error) {
	if c.light == nil {
		return nil, fmt.Errorf("%w: exchange light_api_root is required for balances", domain.ErrConfiguration)
	}
	path := fmt.Sprintf("/balances/%s/%s", url.PathEscape(c.chain), url.PathEscape(account))
	var resp struct {
		Balances []balanceDTO `json:"balances"`
	}
	if err := c.get(ctx, c.light, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.TokenBalance, 0, len(resp.Balances))
	for _, b := range resp.Balances {
		out = append(out, domain.TokenBalance{
			Currency: b.Currency,
			Contract: b.Contract,
			Amount:   b.Amount.Decimal,
			Decimals: int32(b.Decimals.IntPart()),
		})
	}
	return out, nil
}
