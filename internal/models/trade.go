package models

import "time"

// TradeLock: снимок single-flight замка исполнения.
type TradeLock struct {
	IsExecuting   bool      `json:"is_executing"`
	ExecutingType MacroType `json:"executing_type"`
	StartedAt     time.Time `json:"started_at"`
	LastTradeAt   time.Time `json:"last_trade_at"`
}

// TradeResult: ответ executeTrade/executeSmartTrade.
type TradeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func TradeOK(msg string) TradeResult { return TradeResult{Success: true, Message: msg} }

func TradeFailed(err error) TradeResult {
	return TradeResult{Success: false, Error: err.Error()}
}
