package runner

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"macro_trader/internal/metrics"
	"macro_trader/internal/models"
	"macro_trader/internal/strategy"
)

// ExecuteSplitEntry: вход частями: каждый ещё не исполненный слайс с
// положительной долей проигрывает макрос t на свою долю баланса.
// Первая ошибка останавливает вход, исполненные слайсы не откатываются.
func (o *Orchestrator) ExecuteSplitEntry(ctx context.Context, t models.MacroType) (reps []Report, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "runner.ExecuteSplitEntry")
	span.SetTag("macro.type", string(t))
	defer func() {
		result := "ok"
		if err != nil {
			result = resultLabel(err)
			span.LogKV("error", err.Error())
		}
		metrics.Trades.WithLabelValues(string(t), result).Inc()
		span.Finish()
	}()

	if t == models.MacroClose {
		return nil, fmt.Errorf("split entry: %s is not an entry direction", t)
	}
	if err = o.lock.Acquire(t); err != nil {
		o.log.Warn("[LOCK] split entry rejected", zap.String("type", string(t)), zap.Error(err))
		return nil, err
	}
	attempted := false
	defer func() { o.lock.Release(attempted) }()

	macro, err := o.loadMacro(ctx, t)
	if err != nil {
		return nil, err
	}

	var pending []int
	var pcts [models.SplitLevels]float64
	o.state.Update(func(_ *models.Position, split *models.SplitEntryState, _ *models.ExitStrategyState) {
		if split.Completed() {
			split.Reset()
		}
		pending = split.Pending()
		pcts = split.Positions
	})
	if len(pending) == 0 {
		return nil, fmt.Errorf("%w: no positive split positions", ErrAmountNotComputable)
	}

	if o.market == nil {
		return nil, fmt.Errorf("%w: no market data", ErrAmountNotComputable)
	}
	balance, err := o.market.Balance(ctx)
	if err != nil {
		return nil, err
	}
	// цена до первой сделки — цена входа позиции
	entryPrice, err := o.market.Price(ctx)
	if err != nil {
		return nil, err
	}

	for _, i := range pending {
		price, err := o.market.Price(ctx)
		if err != nil {
			return reps, err
		}
		amount, err := CalcAmount(balance, o.cfg.Leverage, pcts[i], price)
		if err != nil {
			return reps, err
		}

		rep := Report{ID: fmt.Sprintf("%s-split%d", t, i+1), Type: t}
		o.log.Info("[SPLIT] slice start", zap.Int("slice", i+1), zap.Float64("pct", pcts[i]), zap.String("amount", amount))
		attempted = true
		if err := o.runMacro(ctx, macro, amount, true, &rep); err != nil {
			reps = append(reps, rep)
			return reps, fmt.Errorf("split slice %d: %w", i+1, err)
		}
		reps = append(reps, rep)

		opened := false
		o.state.Update(func(pos *models.Position, split *models.SplitEntryState, exit *models.ExitStrategyState) {
			split.MarkExecuted(i, price)
			if !pos.IsActive {
				pos.Open(t, entryPrice, o.now())
				exit.ResetTracking()
				opened = true
			}
		})
		if opened {
			o.announceStopLoss(t, entryPrice)
		}
	}
	return reps, nil
}

// announceStopLoss: только расчёт и сообщение, ордер не ставится.
func (o *Orchestrator) announceStopLoss(t models.MacroType, entry float64) {
	if o.engine.StopLossPct <= 0 {
		return
	}
	sl := strategy.StopLossPrice(t, entry, o.engine.StopLossPct)
	o.log.Info("[SL] position opened",
		zap.String("type", string(t)), zap.Float64("entry", entry), zap.Float64("stop_loss", sl))
	o.notifier.Sendf("📍 %s @ %s, SL %s (-%.2f%%)",
		t, strategy.FormatPrice(entry, entry), strategy.FormatPrice(sl, entry), o.engine.StopLossPct)
}
