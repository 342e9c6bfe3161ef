package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"macro_trader/internal/metrics"
	"macro_trader/internal/models"
	"macro_trader/internal/strategy"
)

// ExitWorker: опрос цены и выход из позиции по SL/TP через close-макрос.
// Один флаг на все виды выхода: пока идёт выход, тики игнорируются.
type ExitWorker struct {
	orch  *Orchestrator
	grace time.Duration
	log   *zap.Logger

	exiting atomic.Bool
}

func NewExitWorker(orch *Orchestrator, grace time.Duration, log *zap.Logger) *ExitWorker {
	return &ExitWorker{orch: orch, grace: grace, log: log}
}

func (w *ExitWorker) Exiting() bool { return w.exiting.Load() }

// Tick: один опрос. Возвращает принятое решение (Exit=false — ничего не делали).
func (w *ExitWorker) Tick(ctx context.Context) strategy.Decision {
	o := w.orch
	if !o.state.Position().IsActive || w.exiting.Load() {
		return strategy.Decision{Level: -1}
	}
	if o.market == nil {
		return strategy.Decision{Level: -1}
	}
	price, err := o.market.Price(ctx)
	if err != nil {
		w.log.Debug("[EXIT] no price", zap.Error(err))
		return strategy.Decision{Level: -1}
	}

	var d strategy.Decision
	o.state.Update(func(pos *models.Position, _ *models.SplitEntryState, exit *models.ExitStrategyState) {
		d = o.engine.Evaluate(*pos, exit, price)
	})
	if !d.Exit {
		return d
	}
	if !w.exiting.CompareAndSwap(false, true) {
		return strategy.Decision{Level: -1}
	}
	defer func() {
		// короткая пауза, чтобы тот же тик не запустил второй выход
		_ = o.sleep(ctx, w.grace)
		w.exiting.Store(false)
	}()

	metrics.ExitTriggers.WithLabelValues(string(d.Kind)).Inc()
	w.log.Info("[EXIT] triggered", zap.String("kind", string(d.Kind)), zap.String("reason", d.Reason),
		zap.Float64("price", d.Price), zap.Float64("profit_pct", d.ProfitPct))

	if _, err := o.executeTrade(ctx, models.MacroClose, "", false); err != nil {
		if errors.Is(err, ErrAlreadyExecuting) || errors.Is(err, ErrCooldown) {
			w.log.Info("[EXIT] close postponed", zap.Error(err))
		} else {
			w.log.Error("[EXIT] close failed", zap.Error(err))
			o.notifier.Sendf("❗️ %s: close failed: %v", d.Kind, err)
		}
		d.Exit = false
		return d
	}

	if d.Kind == strategy.KindSplitTP {
		o.state.Update(func(_ *models.Position, _ *models.SplitEntryState, exit *models.ExitStrategyState) {
			exit.SplitExecutedTps[d.Level] = true
		})
	}
	if d.Full {
		o.state.ClearPosition()
	}
	o.notifier.Sendf("🏁 %s: %s (profit %.2f%%)", d.Kind, d.Reason, d.ProfitPct)
	return d
}
