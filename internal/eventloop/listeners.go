package eventloop

// Listeners is an ordered set of callbacks owned by the event loop.
// The zero value is ready to use. It is not safe for concurrent use.
type Listeners[F any] struct {
	next int
	fns  []listener[F]
}

type listener[F any] struct {
	id int
	fn F
}

// Add registers fn and returns a func that unregisters it.
func (l *Listeners[F]) Add(fn F) (remove func()) {
	id := l.next
	l.next++
	l.fns = append(l.fns, listener[F]{id: id, fn: fn})
	return func() {
		for i, e := range l.fns {
			if e.id == id {
				l.fns = append(l.fns[:i:i], l.fns[i+1:]...)
				return
			}
		}
	}
}

// Each calls visit with every callback in registration order. Callbacks
// added or removed during the walk do not affect it.
func (l *Listeners[F]) Each(visit func(F)) {
	snapshot := make([]listener[F], len(l.fns))
	copy(snapshot, l.fns)
	for _, e := range snapshot {
		visit(e.fn)
	}
}

// Len returns the number of registered callbacks.
func (l *Listeners[F]) Len() int {
	return len(l.fns)
}
