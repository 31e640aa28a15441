package bot

import "sync/atomic"

// Reply is the outcome of answering one message.
type Reply struct {
	Text     string
	Category string
	Matched  bool
}

// Responder answers messages from the current rule table. The table can
// be swapped at runtime (admin edits) without blocking readers.
type Responder struct {
	table    atomic.Pointer[Table]
	selector *Selector
}

func NewResponder(t *Table, sel *Selector) *Responder {
	if t == nil {
		t = EmptyTable()
	}
	if sel == nil {
		sel = NewSelector(nil, nil)
	}
	r := &Responder{selector: sel}
	r.table.Store(t)
	return r
}

// Swap installs a new rule table.
func (r *Responder) Swap(t *Table) {
	if t == nil {
		t = EmptyTable()
	}
	r.table.Store(t)
}

func (r *Responder) Table() *Table { return r.table.Load() }

// Respond matches message and selects a response. message must already be
// known to be non-empty.
func (r *Responder) Respond(message string) (Reply, error) {
	rule, ok := r.table.Load().Match(message)
	if !ok {
		text, err := r.selector.Select(nil)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: text, Category: DefaultCategory}, nil
	}
	text, err := r.selector.Select(&rule)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: text, Category: rule.Category, Matched: true}, nil
}
