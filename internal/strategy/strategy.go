// Package strategy — решения по выходу из позиции: стоп-лосс и три вида
// тейк-профита. Только числа, без DOM и без побочных эффектов кроме трекинга
// лучшей цены в ExitStrategyState.
package strategy

// Kind: что сработало.
type Kind string

const (
	KindNone       Kind = ""
	KindStopLoss   Kind = "stop_loss"
	KindSimpleTP   Kind = "simple_tp"
	KindTrailingTP Kind = "trailing_tp"
	KindSplitTP    Kind = "split_tp"
)

// Decision: ответ Evaluate. Exit=true — запускать close-макрос.
type Decision struct {
	Kind Kind
	Exit bool
	Full bool // позиция закрывается целиком (сброс Position/SplitEntryState)

	Level   int     // индекс уровня split TP, иначе -1
	SizePct float64 // доля уровня split TP

	Price        float64 // текущая цена
	TriggerPrice float64 // SL / трейлинг-стоп
	ProfitPct    float64
	Reason       string
}

func none(price, profit float64) Decision {
	return Decision{Level: -1, Price: price, ProfitPct: profit}
}
