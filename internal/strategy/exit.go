package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"macro_trader/internal/models"
)

// Engine: проверка SL, затем TP выбранного типа.
type Engine struct {
	StopLossPct float64 // 0 — стоп выключен
}

// Precision: знаков после запятой для цены входа такой величины.
func Precision(entry float64) int32 {
	switch {
	case entry < 1:
		return 6
	case entry < 100:
		return 4
	}
	return 2
}

// RoundPrice: округление цены по точности цены входа.
func RoundPrice(v, entry float64) float64 {
	return decimal.NewFromFloat(v).Round(Precision(entry)).InexactFloat64()
}

// FormatPrice: строка с нужным числом знаков.
func FormatPrice(v, entry float64) string {
	return decimal.NewFromFloat(v).StringFixed(Precision(entry))
}

// StopLossPrice: entry*(1-pct/100) для long, entry*(1+pct/100) для short.
func StopLossPrice(t models.MacroType, entry, pct float64) float64 {
	e := decimal.NewFromFloat(entry)
	k := decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))
	var sl decimal.Decimal
	if t == models.MacroShort {
		sl = e.Mul(decimal.NewFromInt(1).Add(k))
	} else {
		sl = e.Mul(decimal.NewFromInt(1).Sub(k))
	}
	return sl.Round(Precision(entry)).InexactFloat64()
}

// StopLossHit: цена дошла до стопа.
func StopLossHit(t models.MacroType, price, sl float64) bool {
	if t == models.MacroShort {
		return price >= sl
	}
	return price <= sl
}

// ProfitPct: прибыль в % со знаком.
func ProfitPct(t models.MacroType, entry, price float64) float64 {
	if entry == 0 {
		return 0
	}
	if t == models.MacroShort {
		return (entry - price) / entry * 100
	}
	return (price - entry) / entry * 100
}

// UpdateBest: лучшая цена с момента входа: максимум для long, минимум для short.
// Отсчёт начинается с цены входа.
func UpdateBest(t models.MacroType, st *models.ExitStrategyState, entry, price float64) float64 {
	if st.MaxPrice == nil {
		p := entry
		st.MaxPrice = &p
	}
	best := *st.MaxPrice
	if (t == models.MacroShort && price < best) || (t != models.MacroShort && price > best) {
		best = price
		*st.MaxPrice = best
	}
	return best
}

// Evaluate: одно решение на тик. Обновляет трекинг лучшей цены.
// Отметку сработавшего уровня split TP ставит вызывающий после выхода.
func (e Engine) Evaluate(pos models.Position, st *models.ExitStrategyState, price float64) Decision {
	if !pos.IsActive || pos.EntryPrice <= 0 || price <= 0 {
		return none(price, 0)
	}
	profit := ProfitPct(pos.Type, pos.EntryPrice, price)
	best := UpdateBest(pos.Type, st, pos.EntryPrice, price)

	if e.StopLossPct > 0 {
		sl := StopLossPrice(pos.Type, pos.EntryPrice, e.StopLossPct)
		if StopLossHit(pos.Type, price, sl) {
			return Decision{
				Kind: KindStopLoss, Exit: true, Full: true, Level: -1,
				Price: price, TriggerPrice: sl, ProfitPct: profit,
				Reason: fmt.Sprintf("price %s reached stop %s", FormatPrice(price, pos.EntryPrice), FormatPrice(sl, pos.EntryPrice)),
			}
		}
	}

	switch st.Type {
	case models.ExitSimple:
		return e.simple(st, price, profit)
	case models.ExitTrailing:
		return e.trailing(pos, st, price, best, profit)
	case models.ExitSplit:
		return e.split(st, price, profit)
	}
	return none(price, profit)
}

func (e Engine) simple(st *models.ExitStrategyState, price, profit float64) Decision {
	if st.SimpleTp <= 0 || profit < st.SimpleTp {
		return none(price, profit)
	}
	return Decision{
		Kind: KindSimpleTP, Exit: true, Full: true, Level: -1,
		Price: price, ProfitPct: profit,
		Reason: fmt.Sprintf("profit %.2f%% >= %.2f%%", profit, st.SimpleTp),
	}
}

func (e Engine) trailing(pos models.Position, st *models.ExitStrategyState, price, best, profit float64) Decision {
	if st.TrailingDistance <= 0 {
		return none(price, profit)
	}
	stop := best - st.TrailingDistance
	hit := price <= stop
	if pos.Type == models.MacroShort {
		stop = best + st.TrailingDistance
		hit = price >= stop
	}
	st.TrailingStopPrice = &stop

	if !hit {
		return none(price, profit)
	}
	return Decision{
		Kind: KindTrailingTP, Exit: true, Full: true, Level: -1,
		Price: price, TriggerPrice: stop, ProfitPct: profit,
		Reason: fmt.Sprintf("retraced %s from best %s",
			FormatPrice(st.TrailingDistance, pos.EntryPrice), FormatPrice(best, pos.EntryPrice)),
	}
}

func (e Engine) split(st *models.ExitStrategyState, price, profit float64) Decision {
	active := ActiveLevels(st.SplitTp)
	if len(active) == 0 {
		return none(price, profit)
	}
	sizes := SplitSizes(len(active))
	last := active[len(active)-1]

	for k, i := range active {
		if st.SplitExecutedTps[i] || profit < st.SplitTp[i] {
			continue
		}
		return Decision{
			Kind: KindSplitTP, Exit: true, Full: i == last,
			Level: i, SizePct: sizes[k],
			Price: price, ProfitPct: profit,
			Reason: fmt.Sprintf("TP%d %.2f%% reached (%.2f%% of position)", i+1, st.SplitTp[i], sizes[k]),
		}
	}
	return none(price, profit)
}
