// Package ratelimit 提供出站请求的令牌桶限流
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter 出站调用限流接口
type Limiter interface {
	// Wait 阻塞直到获得令牌或 context 结束
	Wait(ctx context.Context) error
}

// Limit 限流规则
type Limit struct {
	// 每秒请求数，<= 0 表示不限流
	QPS float64
	// 突发容量
	Burst int
}

// TokenBucket 基于 x/time/rate 的本地令牌桶
type TokenBucket struct {
	limiter *rate.Limiter
}

// New 按规则创建限流器
func New(limit Limit) Limiter {
	if limit.QPS <= 0 {
		return unlimited{}
	}
	burst := limit.Burst
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(limit.QPS), burst)}
}

// Wait 实现 Limiter
func (t *TokenBucket) Wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

type unlimited struct{}

func (unlimited) Wait(context.Context) error { return nil }
