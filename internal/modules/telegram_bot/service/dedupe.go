package service

import "sync"

const (
	dedupeCap  = 100
	dedupeTrim = 50
)

// dedupe: уже обработанные message_id: последний id + множество,
// при переполнении выкидываем 50 самых старых.
type dedupe struct {
	mu    sync.Mutex
	last  int
	seen  map[int]struct{}
	order []int
}

func newDedupe() *dedupe {
	return &dedupe{seen: make(map[int]struct{})}
}

func (d *dedupe) Seen(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id <= d.last {
		return true
	}
	_, ok := d.seen[id]
	return ok
}

func (d *dedupe) Mark(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id > d.last {
		d.last = id
	}
	if _, ok := d.seen[id]; ok {
		return
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)

	if len(d.order) > dedupeCap {
		for _, old := range d.order[:dedupeTrim] {
			delete(d.seen, old)
		}
		d.order = append([]int(nil), d.order[dedupeTrim:]...)
	}
}

func (d *dedupe) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = 0
	d.seen = make(map[int]struct{})
	d.order = nil
}

func (d *dedupe) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
