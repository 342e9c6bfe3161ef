package models

import "time"

// Side: нормализованное действие сигнала.
type Side string

const (
	SideNone  Side = ""
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// MacroType для входа по сигналу.
func (s Side) MacroType() MacroType {
	if s == SideShort {
		return MacroShort
	}
	return MacroLong
}

// Signal: распарсенное сообщение из чата.
type Signal struct {
	MessageID int       `json:"message_id"`
	Original  string    `json:"original_message"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"action"`
	At        time.Time `json:"timestamp"`
}
