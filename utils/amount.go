package utils

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

const (
	// LamportsPerSOL 1 SOL = 10^9 lamports
	LamportsPerSOL uint64 = 1_000_000_000
	// SOLDecimals SOL 的小数位数
	SOLDecimals = 9
)

// ParseSOL 将十进制 SOL 字符串精确换算为 lamports
//
// **规则**：
// - 不使用浮点数，避免 0.1 * 1e9 之类的舍入误差
// - 负数、非数字、超过 9 位小数、超出 uint64 范围均返回 INVALID_AMOUNT
// - 结果为 0 时同样返回 INVALID_AMOUNT（转账与空投都要求金额 > 0）
func ParseSOL(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, types.NewError(types.ErrorCodeInvalidAmount, "empty amount", nil)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, types.NewError(types.ErrorCodeInvalidAmount, "not a decimal number: "+s, err)
	}
	if d.Sign() <= 0 {
		return 0, types.Errorf(types.ErrorCodeInvalidAmount, "amount must be greater than 0, got %s", s)
	}

	lamports := d.Shift(SOLDecimals)
	if !lamports.IsInteger() {
		return 0, types.Errorf(types.ErrorCodeInvalidAmount, "more than %d decimal places: %s", SOLDecimals, s)
	}
	if lamports.GreaterThan(decimal.NewFromUint64(math.MaxUint64)) {
		return 0, types.Errorf(types.ErrorCodeInvalidAmount, "amount overflows: %s", s)
	}

	return lamports.BigInt().Uint64(), nil
}

// FormatSOL 将 lamports 格式化为保留 4 位小数的 SOL 字符串
func FormatSOL(lamports uint64) string {
	return decimal.NewFromUint64(lamports).Shift(-SOLDecimals).StringFixed(4)
}

// FormatSOLExact 将 lamports 格式化为不丢精度的 SOL 字符串
func FormatSOLExact(lamports uint64) string {
	return decimal.NewFromUint64(lamports).Shift(-SOLDecimals).String()
}
