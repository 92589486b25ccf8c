package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// 错误类别，使用 errors.Is 判断
var (
	ErrConfiguration       = errors.New("configuration error")
	ErrMarketNotFound      = errors.New("market not found")
	ErrArithmetic          = errors.New("arithmetic error")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSubmission          = errors.New("submission failure")
)

// FieldError 单个交易对配置字段缺失或非法
type FieldError struct {
	Index  int
	Symbol string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("pair %d (%s): %s %s", e.Index, e.Symbol, e.Field, e.Reason)
	}
	return fmt.Sprintf("pair %d: %s %s", e.Index, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrConfiguration }

// ArithmeticError 精度运算输入非法（负数、非有限值、无法解析）
type ArithmeticError struct {
	Op    string
	Value string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("%s: invalid value %q", e.Op, e.Value)
}

func (e *ArithmeticError) Unwrap() error { return ErrArithmetic }

// InsufficientBalanceError 准入检查失败
type InsufficientBalanceError struct {
	Symbol    string
	Token     string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: need %s %s, have %s", e.Symbol, e.Required.String(), e.Token, e.Available.String())
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// SubmissionError 外部提交方拒绝某一批次
type SubmissionError struct {
	Symbol string
	Batch  int
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s: batch %d rejected: %v", e.Symbol, e.Batch, e.Err)
}

// Unwrap 同时暴露类别与原始错误
func (e *SubmissionError) Unwrap() []error { return []error{ErrSubmission, e.Err} }

// ErrorKind 把错误归类为日志和指标里使用的名称
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	case errors.Is(err, ErrMarketNotFound):
		return "MarketNotFound"
	case errors.Is(err, ErrArithmetic):
		return "ArithmeticError"
	case errors.Is(err, ErrInsufficientBalance):
		return "InsufficientBalance"
	case errors.Is(err, ErrSubmission):
		return "SubmissionFailure"
	default:
		return "FetchFailure"
	}
}
