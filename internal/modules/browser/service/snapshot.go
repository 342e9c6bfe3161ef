package service

import (
	"fmt"

	"github.com/bytedance/sonic"

	"macro_trader/internal/dom"
	"macro_trader/internal/dom/htmldom"
)

type snapshotNode struct {
	Path  string     `json:"p"`
	Rect  [4]float64 `json:"r"`
	Value *string    `json:"v,omitempty"`
}

type snapshotPayload struct {
	HTML  string         `json:"html"`
	URL   string         `json:"url"`
	Nodes []snapshotNode `json:"nodes"`
}

type snapshot struct {
	doc   *htmldom.Document
	url   string
	paths map[string]*htmldom.Element
}

// parseSnapshot: разобранная разметка с наложенными прямоугольниками и значениями.
func parseSnapshot(raw []byte) (snap *snapshot, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("parseSnapshot: %w", err)
		}
	}()

	var p snapshotPayload
	if err = sonic.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	doc, err := htmldom.ParseString(p.HTML)
	if err != nil {
		return nil, err
	}

	snap = &snapshot{doc: doc, url: p.URL, paths: make(map[string]*htmldom.Element, len(doc.Elements()))}
	for _, el := range doc.Elements() {
		snap.paths[htmldom.Path(el)] = el
	}

	for _, n := range p.Nodes {
		el, ok := snap.paths[n.Path]
		if !ok {
			continue
		}
		el.SetRect(dom.Rect{Left: n.Rect[0], Top: n.Rect[1], Width: n.Rect[2], Height: n.Rect[3]})
		if n.Value != nil {
			el.SetLiveValue(*n.Value)
		}
	}
	return snap, nil
}

func emptySnapshot() *snapshot {
	return &snapshot{doc: htmldom.MustParse(""), paths: map[string]*htmldom.Element{}}
}
