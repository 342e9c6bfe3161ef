// Package replay повторно находит записанный элемент на живой странице и
// исполняет над ним шаг макроса.
package replay

import (
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/fingerprint"
	"macro_trader/internal/metrics"
	"macro_trader/internal/models"
)

var ErrElementNotFound = errors.New("element not found")

// CandidateSelector: где ищем по ключевым словам.
const CandidateSelector = `button, input, [role="button"], div[class*="button"]`

// DriftWarnPx: смещение, после которого пишем предупреждение.
const DriftWarnPx = 100

const (
	scoreTextExact       = 10
	scoreTextContains    = 5
	scoreKeywordExact    = 8
	scoreKeywordContains = 3
)

type Strategy string

const (
	StrategyLocator Strategy = "locator"
	StrategyKeyword Strategy = "keyword"
	StrategyNone    Strategy = "none"
)

// Resolution: найденный элемент и как он найден.
type Resolution struct {
	Element  dom.Element
	Strategy Strategy
	Score    int
	Distance float64
}

type Resolver struct {
	log *zap.Logger
}

func NewResolver(log *zap.Logger) *Resolver { return &Resolver{log: log} }

// Resolve: локатор (с проверкой стороны для Long/Short), затем поиск по
// ключевым словам. Не нашли — ErrElementNotFound, шаг пропускается.
func (r *Resolver) Resolve(doc dom.Document, a models.MacroAction) (Resolution, error) {
	fp := a.Fingerprint

	if el := r.byLocator(doc, a); el != nil {
		metrics.Resolutions.WithLabelValues(string(StrategyLocator)).Inc()
		return Resolution{Element: el, Strategy: StrategyLocator}, nil
	}

	if len(fp.Keywords) > 0 {
		if res, ok := r.byKeywords(doc, fp); ok {
			metrics.Resolutions.WithLabelValues(string(StrategyKeyword)).Inc()
			return res, nil
		}
	}

	metrics.Resolutions.WithLabelValues(string(StrategyNone)).Inc()
	r.log.Warn("[REPLAY] element not found", zap.String("selector", fp.Locator), zap.Strings("keywords", fp.Keywords))
	return Resolution{Strategy: StrategyNone}, ErrElementNotFound
}

func (r *Resolver) byLocator(doc dom.Document, a models.MacroAction) dom.Element {
	sel := a.Fingerprint.Locator
	if sel == "" {
		return nil
	}
	el, err := doc.QuerySelector(sel)
	if err != nil {
		r.log.Debug("[REPLAY] locator failed", zap.String("selector", sel), zap.Error(err))
		return nil
	}
	if el == nil {
		return nil
	}
	if want := expectedSide(a.Role()); want != "" {
		text := strings.ToLower(strings.TrimSpace(el.Text()))
		if !strings.Contains(text, want) {
			r.log.Warn("[REPLAY] side mismatch, falling back to keywords",
				zap.String("want", want), zap.String("got", text), zap.String("selector", sel))
			return nil
		}
	}
	return el
}

// expectedSide: текст, который обязан быть у кнопки стороны.
func expectedSide(role models.Role) string {
	switch role {
	case models.RoleLongButton:
		return "long"
	case models.RoleShortButton:
		return "short"
	}
	return ""
}

type candidate struct {
	el       dom.Element
	score    int
	distance float64
	order    int
}

func (r *Resolver) byKeywords(doc dom.Document, fp models.ElementFingerprint) (Resolution, bool) {
	els, err := doc.QuerySelectorAll(CandidateSelector)
	if err != nil {
		r.log.Error("[REPLAY] candidate query failed", zap.Error(err))
		return Resolution{}, false
	}

	var cands []candidate
	for i, el := range els {
		score := Score(fp.Keywords, el)
		if score == 0 {
			continue
		}
		cands = append(cands, candidate{
			el:       el,
			score:    score,
			distance: fingerprint.Distance(fingerprint.Position(el), fp.Position),
			order:    i,
		})
	}
	if len(cands) == 0 {
		return Resolution{}, false
	}

	// очки по убыванию, при равенстве — ближе к записанной позиции, затем порядок в DOM
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		if cands[i].distance != cands[j].distance {
			return cands[i].distance < cands[j].distance
		}
		return cands[i].order < cands[j].order
	})

	best := cands[0]
	if best.distance > DriftWarnPx {
		r.log.Warn("[REPLAY] element moved", zap.Float64("distance_px", best.distance), zap.Int("score", best.score))
	}
	r.log.Info("[REPLAY] keyword match",
		zap.Int("score", best.score),
		zap.Int("candidates", len(cands)),
		zap.String("text", strings.TrimSpace(best.el.Text())))

	return Resolution{Element: best.el, Strategy: StrategyKeyword, Score: best.score, Distance: best.distance}, true
}

// Score: сумма совпадений сохранённых слов с текстом и словами кандидата.
func Score(keywords []string, el dom.Element) int {
	text := strings.ToLower(strings.TrimSpace(el.Text()))
	own := fingerprint.Keywords(el)

	score := 0
	for _, kw := range keywords {
		k := strings.ToLower(kw)
		if k == "" {
			continue
		}
		switch {
		case text == k:
			score += scoreTextExact
		case strings.Contains(text, k):
			score += scoreTextContains
		}
		for _, ek := range own {
			e := strings.ToLower(ek)
			switch {
			case e == k:
				score += scoreKeywordExact
			case strings.Contains(e, k):
				score += scoreKeywordContains
			}
		}
	}
	return score
}
