package dom

const (
	EventClick   = "click"
	EventInput   = "input"
	EventChange  = "change"
	EventKeydown = "keydown"
)

// RecordedEvents: события, которые слушает запись макроса.
var RecordedEvents = []string{EventClick, EventInput, EventChange, EventKeydown}

// Event: событие DOM. Value — значение target на момент события (если известно).
type Event struct {
	Type    string
	Target  Element
	Key     string
	Value   string
	Bubbles bool
}

func NewEvent(typ string) Event { return Event{Type: typ, Bubbles: true} }

func NewKeyEvent(key string) Event {
	return Event{Type: EventKeydown, Key: key, Bubbles: true}
}

// Contains: есть ли el в списке (сравнение по идентичности).
func Contains(list []Element, el Element) bool {
	return IndexOf(list, el) >= 0
}

// IndexOf: позиция el в списке или -1.
func IndexOf(list []Element, el Element) int {
	for i, e := range list {
		if e == el {
			return i
		}
	}
	return -1
}
