package models

import "time"

// Исходящие сообщения ядра к хосту.
const (
	MsgElementSelected     = "elementSelected"
	MsgMacroRecorded       = "macroRecorded"
	MsgContentScriptLoaded = "contentScriptLoaded"
)

// OutboundMessage: то, что ядро отправляет наружу (UI, лог, /events).
type OutboundMessage struct {
	Seq       int64         `json:"seq"`
	Action    string        `json:"action"`
	MacroType MacroType     `json:"macroType,omitempty"`
	Actions   []MacroAction `json:"actions,omitempty"`
	Selector  string        `json:"selector,omitempty"`
	Text      string        `json:"text,omitempty"`
	URL       string        `json:"url,omitempty"`
	At        time.Time     `json:"at"`
}
