package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/models"
	"macro_trader/internal/replay"
)

// smartTrade: сделка без макроса: кнопка стороны, количество, market.
// touched: был ли хоть один клик по странице.
func (o *Orchestrator) smartTrade(ctx context.Context, t models.MacroType, amount string) (touched bool, err error) {
	doc, err := o.pages.Document(ctx)
	if err != nil {
		return false, fmt.Errorf("page document: %w", err)
	}
	found := o.detector.Find(doc)

	btn := found.Button(t == models.MacroShort)
	if btn == nil {
		return false, fmt.Errorf("%s button: %w", t, replay.ErrElementNotFound)
	}
	o.log.Info("[SMART] detected", zap.String("type", string(t)),
		zap.Bool("amount", found.Amount != nil), zap.Bool("market", found.Market != nil))

	if err := safeClick(btn); err != nil {
		return true, fmt.Errorf("%s button click: %w", t, err)
	}
	if err := o.sleep(ctx, o.cfg.SettleDelay); err != nil {
		return true, err
	}

	if found.Amount != nil && amount != "" {
		fill := models.MacroAction{Type: models.ActionAmountField}
		if err := o.exec.Execute(found.Amount, fill, amount); err != nil {
			return true, fmt.Errorf("amount input: %w", err)
		}
	}
	if found.Market != nil {
		if err := safeClick(found.Market); err != nil {
			return true, fmt.Errorf("market click: %w", err)
		}
	}
	// следующий вызов должен видеть свежий DOM
	o.detector.Reset()
	return true, nil
}

func safeClick(el dom.Element) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return el.Click()
}
