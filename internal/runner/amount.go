package runner

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrAmountNotComputable = errors.New("amount not computable")

// CalcAmount: размер ордера: assets * leverage * pct / price / 100, 4 знака.
func CalcAmount(assets, leverage, pct, price float64) (string, error) {
	if assets <= 0 || leverage <= 0 || pct <= 0 || price <= 0 {
		return "", fmt.Errorf("%w: assets=%v leverage=%v pct=%v price=%v",
			ErrAmountNotComputable, assets, leverage, pct, price)
	}
	v := decimal.NewFromFloat(assets).
		Mul(decimal.NewFromFloat(leverage)).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromFloat(price)).
		Div(decimal.NewFromInt(100))
	return v.StringFixed(4), nil
}
