package runner

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"macro_trader/internal/models"
)

// HandleSignal: вход по сигналу из чата. При split_entry — частями,
// иначе весь макрос на position_pct баланса. Позиция открывается по цене до сделки.
func (o *Orchestrator) HandleSignal(ctx context.Context, sig models.Signal) (string, error) {
	t := sig.Side.MacroType()
	o.log.Info("[SIGNAL] executing", zap.String("symbol", sig.Symbol), zap.String("side", string(sig.Side)),
		zap.Int("message_id", sig.MessageID))

	if o.cfg.SplitEntry {
		reps, err := o.ExecuteSplitEntry(ctx, t)
		if err != nil {
			return "", err
		}
		parts := make([]string, 0, len(reps))
		for _, r := range reps {
			parts = append(parts, r.String())
		}
		return strings.Join(parts, "\n"), nil
	}

	var entry float64
	if o.market != nil {
		if px, err := o.market.Price(ctx); err == nil {
			entry = px
		} else {
			o.log.Warn("[SIGNAL] entry price unavailable", zap.Error(err))
		}
	}

	rep, err := o.ExecuteTrade(ctx, t, "")
	if err != nil {
		return "", err
	}
	if entry > 0 {
		o.state.Update(func(pos *models.Position, _ *models.SplitEntryState, exit *models.ExitStrategyState) {
			pos.Open(t, entry, o.now())
			exit.ResetTracking()
		})
		o.announceStopLoss(t, entry)
	}
	return fmt.Sprintf("%s %s: %s", sig.Symbol, sig.Side, rep), nil
}
