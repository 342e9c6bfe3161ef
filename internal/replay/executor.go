package replay

import (
	"fmt"

	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/models"
)

type Executor struct {
	log *zap.Logger
}

func NewExecutor(log *zap.Logger) *Executor { return &Executor{log: log} }

// Execute выполняет шаг над найденным элементом. amount подставляется только
// в amountField. Паника из DOM возвращается ошибкой.
func (e *Executor) Execute(el dom.Element, a models.MacroAction, amount string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("replay.Execute %s: panic: %v", a.Type, r)
		}
		if err != nil {
			e.log.Error("[REPLAY] action failed", zap.String("type", string(a.Type)), zap.Error(err))
		}
	}()

	switch a.Type {
	case models.ActionClick:
		if err = el.Click(); err != nil {
			return err
		}
		switch a.Role() {
		case models.RoleLongButton, models.RoleShortButton, models.RoleOpenTab, models.RoleCloseTab:
			e.log.Info("[REPLAY] important click", zap.String("role", string(a.Role())))
		}
		return nil

	case models.ActionAmountField:
		return fill(el, amount)

	case models.ActionInput:
		return fill(el, a.Value)

	case models.ActionChange:
		if err = el.SetValue(a.Value); err != nil {
			return err
		}
		return el.Dispatch(dom.NewEvent(dom.EventChange))

	case models.ActionKeydown:
		return el.Dispatch(dom.NewKeyEvent(a.Key))
	}
	return fmt.Errorf("replay.Execute: unknown action type %q", a.Type)
}

// fill: focus, value, затем input и change: биржи слушают то одно, то другое.
func fill(el dom.Element, value string) error {
	if err := el.Focus(); err != nil {
		return err
	}
	if err := el.SetValue(value); err != nil {
		return err
	}
	if err := el.Dispatch(dom.NewEvent(dom.EventInput)); err != nil {
		return err
	}
	return el.Dispatch(dom.NewEvent(dom.EventChange))
}
