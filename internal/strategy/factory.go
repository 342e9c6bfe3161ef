package strategy

import (
	"macro_trader/internal/models"
	"macro_trader/internal/modules/config"
)

func NewEngine(cfg config.TradingConfig) Engine {
	return Engine{StopLossPct: cfg.StopLossPct}
}

// NewExitState: настройки выхода из конфига, трекинг пустой.
func NewExitState(cfg config.TradingConfig) models.ExitStrategyState {
	st := models.ExitStrategyState{
		Type:             models.ExitType(cfg.Exit.Type),
		SimpleTp:         cfg.Exit.SimpleTp,
		TrailingDistance: cfg.Exit.TrailingDistance,
	}
	if st.Type == "" {
		st.Type = models.ExitSimple
	}
	for i := 0; i < len(cfg.Exit.SplitTp) && i < models.SplitLevels; i++ {
		st.SplitTp[i] = cfg.Exit.SplitTp[i]
	}
	return st
}

// NewSplitEntry: доли входа из конфига.
func NewSplitEntry(cfg config.TradingConfig) models.SplitEntryState {
	var s models.SplitEntryState
	for i := 0; i < len(cfg.Positions) && i < models.SplitLevels; i++ {
		s.Positions[i] = cfg.Positions[i]
	}
	return s
}
