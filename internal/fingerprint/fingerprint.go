// Package fingerprint снимает с элемента избыточный отпечаток для последующего
// повторного поиска: локатор, ключевые слова, позицию и роль.
package fingerprint

import (
	"math"
	"strings"

	"macro_trader/internal/dom"
	"macro_trader/internal/locator"
	"macro_trader/internal/models"
)

const (
	minClassKeywordLen = 3  // классы длиной > 2
	maxParentTextLen   = 50 // текст родителя берём только короткий
	maxStoredTextLen   = 50
)

// Extract: отпечаток без роли (роль выставляет вызывающий для кликов).
func Extract(doc dom.Document, el dom.Element) models.ElementFingerprint {
	text := strings.TrimSpace(el.Text())
	return models.ElementFingerprint{
		Locator:  locator.Generate(doc, el),
		Keywords: Keywords(el),
		Position: Position(el),
		Text:     truncate(text, maxStoredTextLen),
		TagName:  el.TagName(),
	}
}

// ExtractClick: отпечаток клика с ролью.
func ExtractClick(doc dom.Document, el dom.Element) models.ElementFingerprint {
	fp := Extract(doc, el)
	fp.Role = ClassifyClick(el)
	return fp
}

// Keywords: уникальные слова в порядке добавления: текст, id, классы, name,
// placeholder, короткий текст родителя.
func Keywords(el dom.Element) []string {
	set := newOrderedSet()

	text := strings.TrimSpace(el.Text())
	set.add(text)
	set.add(el.ID())
	for _, c := range strings.Split(el.ClassName(), " ") {
		if len(c) >= minClassKeywordLen {
			set.add(c)
		}
	}
	set.add(el.Attr("name"))
	set.add(el.Attr("placeholder"))

	if parent := el.Parent(); parent != nil {
		pt := strings.TrimSpace(parent.Text())
		if pt != text && len(pt) < maxParentTextLen {
			set.add(pt)
		}
	}
	return set.items
}

// Position: центр и размер bounding box, округлённые до пикселя.
func Position(el dom.Element) models.ElementPosition {
	r := el.BoundingRect()
	cx, cy := r.Center()
	return models.ElementPosition{
		X:      round(cx),
		Y:      round(cy),
		Width:  round(r.Width),
		Height: round(r.Height),
	}
}

// Distance: евклидово расстояние между центрами.
func Distance(a, b models.ElementPosition) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Math.round из JS: половинки вверх.
func round(v float64) int { return int(math.Floor(v + 0.5)) }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet { return &orderedSet{seen: make(map[string]bool)} }

func (s *orderedSet) add(v string) {
	if v == "" || s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}
