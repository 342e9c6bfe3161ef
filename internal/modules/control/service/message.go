package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"macro_trader/internal/models"
	store "macro_trader/internal/modules/macro_store/service"
	"macro_trader/internal/recorder"
	"macro_trader/internal/runner"
)

// Действия, которые принимает POST /message.
const (
	ActionPing                  = "ping"
	ActionGetExchangeInfo       = "getExchangeInfo"
	ActionGetBalance            = "getBalance"
	ActionGetPrice              = "getPrice"
	ActionStartElementSelection = "startElementSelection"
	ActionStopElementSelection  = "stopElementSelection"
	ActionStartMacroRecording   = "startMacroRecording"
	ActionStopMacroRecording    = "stopMacroRecording"
	ActionPlayMacro             = "playMacro"
	ActionExecuteSmartTrade     = "executeSmartTrade"
)

var ErrUnknownAction = errors.New("unknown action")

// Message: запрос хоста.
type Message struct {
	Action    string `json:"action"`
	MacroType string `json:"macroType,omitempty"`
	Amount    string `json:"amount,omitempty"`
	TradeType string `json:"tradeType,omitempty"`
	Type      string `json:"type,omitempty"` // balance | price для выбора элемента
}

// Response: ответ на Message. Для executeSmartTrade это {success, message|error}.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Status  string   `json:"status,omitempty"`
	URL     string   `json:"url,omitempty"`
	Balance *float64 `json:"balance,omitempty"`
	Price   *float64 `json:"price,omitempty"`
	Actions int      `json:"actions,omitempty"`
}

func (a *API) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	var msg Message
	if err := sonic.Unmarshal(body, &msg); err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Errorf("bad message: %w", err))
		return
	}

	// сделка не должна обрываться вместе с запросом
	resp, err := a.Dispatch(context.WithoutCancel(r.Context()), msg)
	if errors.Is(err, ErrUnknownAction) {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		a.writeJSON(w, http.StatusOK, Response{Success: false, Error: err.Error()})
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

// Dispatch: одно сообщение хоста. Ошибка исполнения возвращается как error,
// протокольный ответ собирает handleMessage.
func (a *API) Dispatch(ctx context.Context, msg Message) (Response, error) {
	switch msg.Action {
	case ActionPing:
		return Response{Success: true, Status: "ready"}, nil

	case ActionGetExchangeInfo:
		resp := Response{Success: true}
		if a.Page != nil {
			resp.URL = a.Page.URL()
		}
		return resp, nil

	case ActionGetBalance:
		v, err := a.Market.Balance(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{Success: true, Balance: &v}, nil

	case ActionGetPrice:
		v, err := a.Market.Price(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{Success: true, Price: &v}, nil

	case ActionStartElementSelection:
		key, err := selectionKey(msg.Type)
		if err != nil {
			return Response{}, err
		}
		a.Selector.Start(func(sel recorder.Selected) {
			if key == "" {
				return
			}
			if err := a.Store.SaveSetting(a.bg, key, sel.Selector); err != nil {
				a.log.Error("[SELECT] save selector", zap.String("key", key), zap.Error(err))
			}
		})
		return Response{Success: true}, nil

	case ActionStopElementSelection:
		a.Selector.Stop()
		return Response{Success: true}, nil

	case ActionStartMacroRecording:
		t, err := models.ParseMacroType(msg.MacroType)
		if err != nil {
			return Response{}, err
		}
		if err := a.Recorder.Start(t); err != nil {
			return Response{}, err
		}
		return Response{Success: true}, nil

	case ActionStopMacroRecording:
		m, err := a.Recorder.Stop(ctx)
		if err != nil {
			return Response{}, err
		}
		resp := Response{Success: true}
		if m != nil {
			resp.Actions = len(m.Actions)
		}
		return resp, nil

	case ActionPlayMacro:
		t, err := models.ParseMacroType(msg.MacroType)
		if err != nil {
			return Response{}, err
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if _, err := a.Trader.PlayMacro(a.bg, t, msg.Amount); err != nil {
				a.log.Warn("[PLAY] failed", zap.String("type", string(t)), zap.Error(err))
			}
		}()
		return Response{Success: true}, nil

	case ActionExecuteSmartTrade:
		t, err := models.ParseMacroType(msg.TradeType)
		if err != nil {
			return Response{}, err
		}
		rep, err := a.Trader.ExecuteTrade(ctx, t, msg.Amount)
		if err != nil {
			return Response{}, err
		}
		return Response{Success: true, Message: rep.String()}, nil
	}
	return Response{}, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
}

func selectionKey(kind string) (string, error) {
	switch kind {
	case "":
		return "", nil
	case "balance":
		return store.KeyBalanceSelector, nil
	case "price":
		return store.KeyPriceSelector, nil
	}
	return "", fmt.Errorf("unknown selection type %q", kind)
}

var _ Trader = (*runner.Orchestrator)(nil)
