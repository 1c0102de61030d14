package dom

import "sync"

// ObserveOptions selects which records an observer receives. Observation
// always covers the whole tree.
type ObserveOptions struct {
	ChildList       bool
	Attributes      bool
	AttributeFilter []string // empty means every attribute
}

// Observer receives batches of records until disconnected.
type Observer struct {
	tree     *Tree
	opts     ObserveOptions
	filter   map[string]struct{}
	callback func([]Record)

	mu        sync.Mutex
	connected bool
}

// Observe registers callback for records selected by opts.
func (t *Tree) Observe(opts ObserveOptions, callback func([]Record)) *Observer {
	o := &Observer{tree: t, opts: opts, callback: callback, connected: true}
	if len(opts.AttributeFilter) > 0 {
		o.filter = make(map[string]struct{}, len(opts.AttributeFilter))
		for _, name := range opts.AttributeFilter {
			o.filter[name] = struct{}{}
		}
	}
	t.mu.Lock()
	t.observers = append(t.observers, o)
	t.mu.Unlock()
	return o
}

// Disconnect stops delivery. It is safe to call more than once and from
// inside the callback.
func (o *Observer) Disconnect() {
	o.mu.Lock()
	o.connected = false
	o.mu.Unlock()

	t := o.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, x := range t.observers {
		if x == o {
			t.observers = append(t.observers[:i:i], t.observers[i+1:]...)
			return
		}
	}
}

func (o *Observer) selectRecords(batch []Record) []Record {
	var out []Record
	for _, r := range batch {
		switch r.Type {
		case ChildList:
			if o.opts.ChildList {
				out = append(out, r)
			}
		case Attributes:
			if !o.opts.Attributes {
				continue
			}
			if o.filter != nil {
				if _, ok := o.filter[r.AttributeName]; !ok {
					continue
				}
			}
			out = append(out, r)
		}
	}
	return out
}

func (o *Observer) deliver(recs []Record) {
	o.mu.Lock()
	connected := o.connected
	o.mu.Unlock()
	if connected {
		o.callback(recs)
	}
}
