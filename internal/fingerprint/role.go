package fingerprint

import (
	"strings"

	"macro_trader/internal/dom"
	"macro_trader/internal/models"
)

// clickContext: то, по чему классифицируем клик.
type clickContext struct {
	text string // свой текст, lower
	all  string // текст + id + class, lower
}

type roleRule struct {
	role  models.Role
	match func(c clickContext) bool
}

func textHas(words ...string) func(clickContext) bool {
	return func(c clickContext) bool { return containsAny(c.text, words) }
}

func allHas(words ...string) func(clickContext) bool {
	return func(c clickContext) bool { return containsAny(c.all, words) }
}

// ClickRules: порядок важен: первое совпадение побеждает.
var clickRules = []roleRule{
	{models.RoleOpenTab, textHas("open")},
	{models.RoleCloseTab, textHas("close")},
	{models.RoleLongButton, textHas("long", "매수", "buy")},
	{models.RoleShortButton, textHas("short", "매도", "sell")},
	{models.RoleMarketOrder, textHas("market", "시장가")},
	{models.RoleLimitOrder, textHas("limit", "지정가")},
	{models.RoleOrderSubmit, textHas("submit", "확인", "주문")},
	{models.RoleTabSwitch, allHas("tab", "open", "close")},
}

// ClassifyClick: роль кликнутого элемента.
func ClassifyClick(el dom.Element) models.Role {
	return ClassifyText(strings.TrimSpace(el.Text()), el.ID(), el.ClassName())
}

// ClassifyText: то же по сохранённым полям.
func ClassifyText(text, id, className string) models.Role {
	c := clickContext{
		text: strings.ToLower(text),
		all:  strings.ToLower(text + " " + id + " " + className),
	}
	for _, r := range clickRules {
		if r.match(c) {
			return r.role
		}
	}
	return models.RoleGeneralClick
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
