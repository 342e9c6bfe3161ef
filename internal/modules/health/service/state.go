package service

import (
	"sync/atomic"
	"time"
)

// State: то, что отдают пробы. Пишут сюда модули по мере старта.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	// браузер обязателен только если включён в конфиге
	browserWanted atomic.Bool
	browserUp     atomic.Bool

	priceConnected atomic.Bool
	lastPriceMs    atomic.Int64
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }

// Ready: процесс поднят и вкладка доступна, если она нужна.
func (s *State) Ready() bool {
	if !s.ready.Load() {
		return false
	}
	return !s.browserWanted.Load() || s.browserUp.Load()
}

// WantBrowser: готовность теперь зависит от вкладки.
func (s *State) WantBrowser() { s.browserWanted.Store(true) }

func (s *State) SetBrowserUp(v bool) { s.browserUp.Store(v) }
func (s *State) BrowserUp() bool     { return s.browserUp.Load() }

// SetWSConnected и TouchTick — от стрима цены.
func (s *State) SetWSConnected(v bool) { s.priceConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.priceConnected.Load() }

func (s *State) TouchTick(t time.Time) { s.lastPriceMs.Store(t.UnixMilli()) }

func (s *State) LastTick() time.Time {
	ms := s.lastPriceMs.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
