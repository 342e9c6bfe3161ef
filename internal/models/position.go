package models

import "time"

// Position: текущая открытая сделка (одна на процесс).
type Position struct {
	Type       MacroType `json:"type"` // long/short или ""
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
	IsActive   bool      `json:"is_active"`
}

// Open активирует позицию; все поля меняются вместе.
func (p *Position) Open(t MacroType, entry float64, at time.Time) {
	p.Type = t
	p.EntryPrice = entry
	p.EntryTime = at
	p.IsActive = true
}

// Clear сбрасывает позицию целиком.
func (p *Position) Clear() { *p = Position{} }

const SplitLevels = 3

// SplitEntryState: вход частями по процентам.
// EntryPrices[i] выставляется только вместе с ExecutedEntries[i].
type SplitEntryState struct {
	Positions       [SplitLevels]float64  `json:"positions"`
	EntryPrices     [SplitLevels]*float64 `json:"entry_prices"`
	ExecutedEntries [SplitLevels]bool     `json:"executed_entries"`
}

// MarkExecuted фиксирует исполненный слайс и цену входа по нему.
func (s *SplitEntryState) MarkExecuted(i int, price float64) {
	p := price
	s.ExecutedEntries[i] = true
	s.EntryPrices[i] = &p
}

// Pending: индексы слайсов с положительной долей, которые ещё не исполнены.
func (s *SplitEntryState) Pending() []int {
	var out []int
	for i, pct := range s.Positions {
		if pct > 0 && !s.ExecutedEntries[i] {
			out = append(out, i)
		}
	}
	return out
}

// Completed: все положительные слайсы исполнены.
func (s *SplitEntryState) Completed() bool {
	has := false
	for i, pct := range s.Positions {
		if pct <= 0 {
			continue
		}
		has = true
		if !s.ExecutedEntries[i] {
			return false
		}
	}
	return has
}

func (s *SplitEntryState) Reset() {
	s.EntryPrices = [SplitLevels]*float64{}
	s.ExecutedEntries = [SplitLevels]bool{}
}

type ExitType string

const (
	ExitSimple   ExitType = "simple"
	ExitTrailing ExitType = "trailing"
	ExitSplit    ExitType = "split"
)

// ExitStrategyState: настройки TP и трекинг лучшей цены с момента входа.
type ExitStrategyState struct {
	Type             ExitType             `json:"type"`
	SimpleTp         float64              `json:"simple_tp"`         // %
	TrailingDistance float64              `json:"trailing_distance"` // в единицах цены
	SplitTp          [SplitLevels]float64 `json:"split_tp"`          // %

	MaxPrice          *float64 `json:"max_price"`
	TrailingStopPrice *float64 `json:"trailing_stop_price"`

	SplitExecutedTps [SplitLevels]bool `json:"split_executed_tps"`
}

// ResetTracking: при закрытии позиции.
func (s *ExitStrategyState) ResetTracking() {
	s.MaxPrice = nil
	s.TrailingStopPrice = nil
	s.SplitExecutedTps = [SplitLevels]bool{}
}
