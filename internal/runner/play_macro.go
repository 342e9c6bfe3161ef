package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"macro_trader/internal/models"
	"macro_trader/internal/replay"
)

const minPlayDelay = 100 * time.Millisecond

// PlayMacro: простой плеер: только локатор, паузы как при записи (не меньше 100ms).
// Ошибки шагов пишутся в лог, лок не берётся. Исполненный close сбрасывает позицию.
func (o *Orchestrator) PlayMacro(ctx context.Context, t models.MacroType, amount string) (Report, error) {
	rep := Report{ID: "play-" + string(t), Type: t}
	macro, err := o.loadMacro(ctx, t)
	if err != nil {
		return rep, err
	}
	rep.Steps = len(macro.Actions)

	for i, a := range macro.Actions {
		if err := o.playStep(ctx, a, amount); err != nil {
			rep.Failed++
			o.log.Warn("[PLAY] step failed", zap.Int("step", i+1), zap.String("type", string(a.Type)), zap.Error(err))
		} else {
			rep.Executed++
		}

		if i+1 < len(macro.Actions) {
			delay := time.Duration(macro.Actions[i+1].Timestamp-a.Timestamp) * time.Millisecond
			if delay < minPlayDelay {
				delay = minPlayDelay
			}
			if err := o.sleep(ctx, delay); err != nil {
				return rep, err
			}
		}
	}
	if t == models.MacroClose && rep.Executed > 0 {
		o.state.ClearPosition()
	}
	o.log.Info("[PLAY] done", zap.String("result", rep.String()))
	return rep, nil
}

func (o *Orchestrator) playStep(ctx context.Context, a models.MacroAction, amount string) error {
	doc, err := o.pages.Document(ctx)
	if err != nil {
		return err
	}
	el, err := doc.QuerySelector(a.Fingerprint.Locator)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("%q: %w", a.Fingerprint.Locator, replay.ErrElementNotFound)
	}
	return o.exec.Execute(el, a, amount)
}
