package models

import "fmt"

// MacroType: long / short / close.
type MacroType string

const (
	MacroLong  MacroType = "long"
	MacroShort MacroType = "short"
	MacroClose MacroType = "close"
)

// MacroTypes: все типы, которые может хранить стор.
var MacroTypes = []MacroType{MacroLong, MacroShort, MacroClose}

func ParseMacroType(raw string) (MacroType, error) {
	switch MacroType(raw) {
	case MacroLong, MacroShort, MacroClose:
		return MacroType(raw), nil
	}
	return "", fmt.Errorf("unknown macro type: %q", raw)
}

// StorageKey: ключ записи в сторе: "longMacro", "shortMacro", "closeMacro".
func (t MacroType) StorageKey() string { return string(t) + "Macro" }

// ActionType: тип шага макроса.
type ActionType string

const (
	ActionClick       ActionType = "click"
	ActionAmountField ActionType = "amountField"
	ActionInput       ActionType = "input"
	ActionChange      ActionType = "change"
	ActionKeydown     ActionType = "keydown"
)

// Role: классификация кликнутого элемента на момент записи.
type Role string

const (
	RoleLongButton   Role = "LONG_BUTTON"
	RoleShortButton  Role = "SHORT_BUTTON"
	RoleOpenTab      Role = "OPEN_TAB"
	RoleCloseTab     Role = "CLOSE_TAB"
	RoleMarketOrder  Role = "MARKET_ORDER"
	RoleLimitOrder   Role = "LIMIT_ORDER"
	RoleOrderSubmit  Role = "ORDER_SUBMIT"
	RoleTabSwitch    Role = "TAB_SWITCH"
	RoleGeneralClick Role = "GENERAL_CLICK"

	// для input-шагов роль неявная
	RoleAmountField Role = "AMOUNT_FIELD"
	RoleInput       Role = "INPUT"
)

// Position: центр bounding box и размер, px.
type ElementPosition struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// ElementFingerprint: избыточный "отпечаток" элемента: локатор + ключевые слова + позиция + роль.
type ElementFingerprint struct {
	Locator  string          `json:"selector" yaml:"selector"`
	Keywords []string        `json:"keywords" yaml:"keywords"`
	Position ElementPosition `json:"position" yaml:"position"`
	Role     Role            `json:"role,omitempty" yaml:"role,omitempty"`

	// для логов
	Text    string `json:"elementText,omitempty" yaml:"element_text,omitempty"`
	TagName string `json:"elementType,omitempty" yaml:"element_type,omitempty"`
}

// MacroAction: один шаг макроса.
type MacroAction struct {
	Type        ActionType         `json:"type" yaml:"type"`
	Fingerprint ElementFingerprint `json:"fingerprint" yaml:"fingerprint"`
	Timestamp   int64              `json:"timestamp" yaml:"timestamp"` // ms от старта записи

	Value string `json:"value,omitempty" yaml:"value,omitempty"` // input / change
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`     // keydown
}

// Role клика; для input-шагов — неявная.
func (a MacroAction) Role() Role {
	switch a.Type {
	case ActionClick:
		return a.Fingerprint.Role
	case ActionAmountField:
		return RoleAmountField
	case ActionInput:
		return RoleInput
	}
	return ""
}

// Macro: записанная последовательность, целиком перезаписывается новой записью того же типа.
type Macro struct {
	Type    MacroType     `json:"type" yaml:"type"`
	Actions []MacroAction `json:"actions" yaml:"actions"`
}
