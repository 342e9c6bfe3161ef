// Package locator строит CSS-селектор, который по возможности однозначно
// находит элемент на живой странице. Каждый кандидат проверяется через
// QuerySelectorAll: синтаксически неверный отбрасывается.
package locator

import (
	"fmt"
	"regexp"
	"strings"

	"macro_trader/internal/dom"
)

// HighlightClass: маркер подсветки режима выбора элемента, в селектор не попадает.
const HighlightClass = "element-selector-highlight"

const (
	maxAncestors    = 4
	earlyStopLen    = 100
	maxSelectorLen  = 300
	truncateToParts = 3
)

var (
	// идентификатор CSS без экранирования
	identRe = regexp.MustCompile(`^-?[_a-zA-Z\x{00A0}-\x{10FFFF}][_a-zA-Z0-9\x{00A0}-\x{10FFFF}-]*$`)
	// хэш-подобные токены css-modules: "80d6b0c8", "c1f4796"
	hashRe = regexp.MustCompile(`[0-9a-f]*[0-9][0-9a-f]*`)
)

// PlatformClassPrefixes: префиксы классов конкретных бирж (Gate.io: gui_).
var PlatformClassPrefixes = []string{"gui_"}

// PairButtonSelector: кнопки, среди которых ищем пару Long/Short.
const PairButtonSelector = `button, [role="button"]`

// Generate возвращает селектор для el. Пустой строки не бывает: в худшем
// случае — имя тега.
func Generate(doc dom.Document, el dom.Element) string {
	if sel, ok := byID(doc, el); ok {
		return sel
	}
	if sel, ok := byPairText(doc, el); ok {
		return sel
	}
	if sel, ok := byClasses(doc, el); ok {
		return sel
	}
	if sel, ok := byAncestors(doc, el); ok {
		return sel
	}
	return el.TagName()
}

// Valid: селектор разбирается движком документа.
func Valid(doc dom.Document, selector string) bool {
	if selector == "" {
		return false
	}
	_, err := doc.QuerySelectorAll(selector)
	return err == nil
}

// IsIdent: можно ли использовать строку как голый CSS-идентификатор.
func IsIdent(s string) bool { return identRe.MatchString(s) }

func byID(doc dom.Document, el dom.Element) (string, bool) {
	id := el.ID()
	if id == "" || !IsIdent(id) {
		return "", false
	}
	sel := "#" + id
	return sel, matches(doc, sel, el)
}

// CleanClasses: классы элемента без подсветки и без токенов, ломающих селектор.
func CleanClasses(el dom.Element) []string {
	var out []string
	for _, c := range el.ClassList() {
		if c == "" || strings.Contains(c, HighlightClass) || !IsIdent(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func classSelector(classes []string) string {
	if len(classes) == 0 {
		return ""
	}
	return "." + strings.Join(classes, ".")
}

// byPairText: Long/Short-кнопки часто одного класса и различаются только текстом.
func byPairText(doc dom.Document, el dom.Element) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(el.Text()))
	if text == "" || !(strings.Contains(text, "long") || strings.Contains(text, "short")) {
		return "", false
	}
	classes := CleanClasses(el)
	if len(classes) == 0 {
		return "", false
	}

	buttons, err := doc.QuerySelectorAll(PairButtonSelector)
	if err != nil {
		return "", false
	}
	var same []dom.Element
	for _, b := range buttons {
		if b.ClassName() == el.ClassName() && strings.TrimSpace(b.Text()) != "" {
			same = append(same, b)
		}
	}
	if len(same) <= 1 {
		return "", false
	}
	idx := dom.IndexOf(same, el)
	if idx < 0 {
		return "", false
	}

	base := classSelector(classes)
	sel := fmt.Sprintf("%s:nth-child(%d)", base, idx+1)
	if matches(doc, sel, el) {
		return sel, true
	}
	// индекс в наборе не совпал с позицией среди соседей — берём реальную
	sel = fmt.Sprintf("%s:nth-child(%d)", base, siblingIndex(el, false))
	if matches(doc, sel, el) {
		return sel, true
	}
	return "", false
}

func byClasses(doc dom.Document, el dom.Element) (string, bool) {
	sel := classSelector(CleanClasses(el))
	if sel == "" {
		return "", false
	}
	found, err := doc.QuerySelectorAll(sel)
	if err != nil {
		return "", false
	}
	idx := dom.IndexOf(found, el)
	if idx < 0 {
		// селектор не находит сам элемент
		return "", false
	}
	if len(found) == 1 {
		return sel, true
	}
	cand := fmt.Sprintf("%s:nth-of-type(%d)", sel, idx+1)
	if matches(doc, cand, el) {
		return cand, true
	}
	cand = fmt.Sprintf("%s:nth-of-type(%d)", sel, siblingIndex(el, true))
	if matches(doc, cand, el) {
		return cand, true
	}
	return sel, true
}

// importantClass: классы, по которым обычно различаются соседние кнопки.
func importantClass(c string) bool {
	lc := strings.ToLower(c)
	if strings.Contains(lc, "button") || strings.Contains(lc, "btn") {
		return true
	}
	for _, p := range PlatformClassPrefixes {
		if strings.Contains(c, p) {
			return true
		}
	}
	for _, m := range hashRe.FindAllString(lc, -1) {
		if len(m) >= 6 {
			return true
		}
	}
	return len(c) > 5 && len(c) < 20
}

func ancestorPart(el dom.Element) string {
	part := el.TagName()
	classes := CleanClasses(el)
	var important []string
	for _, c := range classes {
		if importantClass(c) {
			important = append(important, c)
		}
	}
	switch {
	case len(important) > 0:
		part += classSelector(important)
	case len(classes) > 3:
		part += classSelector(classes[:3])
	case len(classes) > 0:
		part += classSelector(classes)
	}
	return part
}

func byAncestors(doc dom.Document, el dom.Element) (string, bool) {
	var parts []string
	cur := el
	for i := 0; i < maxAncestors && cur != nil; i++ {
		if id := cur.ID(); id != "" && IsIdent(id) {
			parts = append([]string{"#" + id}, parts...)
			break
		}
		parts = append([]string{ancestorPart(cur)}, parts...)
		cur = cur.Parent()
		if len(strings.Join(parts, " > ")) > earlyStopLen {
			break
		}
	}

	sel := strings.Join(parts, " > ")
	if len(sel) > maxSelectorLen && len(parts) > truncateToParts {
		sel = strings.Join(parts[len(parts)-truncateToParts:], " > ")
	}
	return sel, matches(doc, sel, el)
}

func matches(doc dom.Document, selector string, el dom.Element) bool {
	found, err := doc.QuerySelectorAll(selector)
	if err != nil {
		return false
	}
	return dom.Contains(found, el)
}

// siblingIndex: 1-based позиция среди соседей (всех или того же тега).
func siblingIndex(el dom.Element, sameTag bool) int {
	parent := el.Parent()
	if parent == nil {
		return 1
	}
	idx := 0
	for _, c := range parent.Children() {
		if sameTag && c.TagName() != el.TagName() {
			continue
		}
		idx++
		if c == el {
			return idx
		}
	}
	return 1
}
