package runner

import (
	"sync"

	"macro_trader/internal/metrics"
	"macro_trader/internal/models"
)

// State: позиция, вход частями и трекинг выхода. Один экземпляр на процесс,
// общий для оркестратора, exit-воркера и команд.
type State struct {
	mu    sync.Mutex
	pos   models.Position
	split models.SplitEntryState
	exit  models.ExitStrategyState
}

func NewState(split models.SplitEntryState, exit models.ExitStrategyState) *State {
	return &State{split: split, exit: exit}
}

// Snapshot: копии всех трёх частей.
type Snapshot struct {
	Position   models.Position          `json:"position"`
	SplitEntry models.SplitEntryState   `json:"split_entry"`
	Exit       models.ExitStrategyState `json:"exit_strategy"`
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Position: s.pos, SplitEntry: s.split, Exit: s.exit}
}

func (s *State) Position() models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Update: изменение под мьютексом; fn не должна блокироваться.
func (s *State) Update(fn func(pos *models.Position, split *models.SplitEntryState, exit *models.ExitStrategyState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.pos, &s.split, &s.exit)
	metrics.PositionActive.Set(boolGauge(s.pos.IsActive))
}

// ClearPosition: полный выход: позиция, слайсы входа и трекинг TP.
func (s *State) ClearPosition() {
	s.Update(func(pos *models.Position, split *models.SplitEntryState, exit *models.ExitStrategyState) {
		pos.Clear()
		split.Reset()
		exit.ResetTracking()
	})
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
