package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Rounding 舍入方向
type Rounding int

const (
	// RoundDown 向下舍入，用于买单价格
	RoundDown Rounding = iota
	// RoundUp 向上舍入，用于卖单价格与数量
	RoundUp
)

// RoundTo 把非负数值舍入到 precision 位小数
func RoundTo(v decimal.Decimal, precision int32, mode Rounding) (decimal.Decimal, error) {
	if v.IsNegative() {
		return decimal.Zero, &ArithmeticError{Op: "round", Value: v.String()}
	}
	if mode == RoundUp {
		return v.RoundCeil(precision), nil
	}
	return v.RoundFloor(precision), nil
}

// DivideRoundUp 计算 a/b 并向上舍入到 precision 位小数，结果精确不经过中间截断
func DivideRoundUp(a, b decimal.Decimal, precision int32) (decimal.Decimal, error) {
	if a.IsNegative() {
		return decimal.Zero, &ArithmeticError{Op: "divide", Value: a.String()}
	}
	if !b.IsPositive() {
		return decimal.Zero, &ArithmeticError{Op: "divide", Value: b.String()}
	}
	q, r := a.QuoRem(b, precision)
	if r.IsPositive() {
		q = q.Add(decimal.New(1, -precision))
	}
	return q, nil
}

// ParseAmount 解析十进制字符串，拒绝负数与非法输入
func ParseAmount(op, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, &ArithmeticError{Op: op, Value: s}
	}
	return d, nil
}

// Token 交易对的一侧币种
type Token struct {
	Code       string `json:"code"`
	Contract   string `json:"contract"`
	Precision  int32  `json:"precision"`
	Multiplier int64  `json:"multiplier"`
}

// NewToken 按精度推导整数倍数
func NewToken(code, contract string, precision int32) Token {
	return Token{
		Code:       code,
		Contract:   contract,
		Precision:  precision,
		Multiplier: decimal.New(1, precision).IntPart(),
	}
}

func (t Token) multiplier() decimal.Decimal {
	if t.Multiplier > 0 {
		return decimal.NewFromInt(t.Multiplier)
	}
	return decimal.New(1, t.Precision)
}

// Round 舍入到该币种精度
func (t Token) Round(v decimal.Decimal, mode Rounding) (decimal.Decimal, error) {
	return RoundTo(v, t.Precision, mode)
}

// Format 以固定小数位输出
func (t Token) Format(v decimal.Decimal) string {
	return v.StringFixed(t.Precision)
}

// Asset 输出链上资产文本，如 "12.5000 XPR"
func (t Token) Asset(v decimal.Decimal) string {
	return t.Format(v) + " " + t.Code
}

// Symbol 输出链上符号，如 "4,XPR"
func (t Token) Symbol() string {
	return strconv.Itoa(int(t.Precision)) + "," + t.Code
}

// ToUnits 转换为链上整数单位：乘以倍数后截断小数
func (t Token) ToUnits(v decimal.Decimal) (int64, error) {
	if v.IsNegative() {
		return 0, &ArithmeticError{Op: "normalize", Value: v.String()}
	}
	units := v.Mul(t.multiplier()).Truncate(0)
	if !units.BigInt().IsInt64() {
		return 0, &ArithmeticError{Op: "normalize", Value: v.String()}
	}
	return units.IntPart(), nil
}

// FromUnits 把链上整数单位还原为十进制数量
func (t Token) FromUnits(units int64) decimal.Decimal {
	return decimal.NewFromInt(units).Div(t.multiplier())
}
