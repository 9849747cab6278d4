package hashring

// traceRing holds optional callbacks called on ring mutations.
//
// Compose() and the on* helpers below follow the shape of gtrace generated
// code; they are maintained by hand.
//
//gtrace:gen
type traceRing struct {
	OnAdd       func(Node) func(error)
	OnRemove    func(Node) func()
	OnCollision func(prev, next RingPosition)
	OnRestore   func(RingPosition)
}

// Compose returns a new traceRing which calls callbacks of both t and x.
func (t traceRing) Compose(x traceRing) (ret traceRing) {
	switch {
	case t.OnAdd == nil:
		ret.OnAdd = x.OnAdd
	case x.OnAdd == nil:
		ret.OnAdd = t.OnAdd
	default:
		h1, h2 := t.OnAdd, x.OnAdd
		ret.OnAdd = func(n Node) func(error) {
			r1, r2 := h1(n), h2(n)
			return func(err error) {
				if r1 != nil {
					r1(err)
				}
				if r2 != nil {
					r2(err)
				}
			}
		}
	}
	switch {
	case t.OnRemove == nil:
		ret.OnRemove = x.OnRemove
	case x.OnRemove == nil:
		ret.OnRemove = t.OnRemove
	default:
		h1, h2 := t.OnRemove, x.OnRemove
		ret.OnRemove = func(n Node) func() {
			r1, r2 := h1(n), h2(n)
			return func() {
				if r1 != nil {
					r1()
				}
				if r2 != nil {
					r2()
				}
			}
		}
	}
	switch {
	case t.OnCollision == nil:
		ret.OnCollision = x.OnCollision
	case x.OnCollision == nil:
		ret.OnCollision = t.OnCollision
	default:
		h1, h2 := t.OnCollision, x.OnCollision
		ret.OnCollision = func(prev, next RingPosition) {
			h1(prev, next)
			h2(prev, next)
		}
	}
	switch {
	case t.OnRestore == nil:
		ret.OnRestore = x.OnRestore
	case x.OnRestore == nil:
		ret.OnRestore = t.OnRestore
	default:
		h1, h2 := t.OnRestore, x.OnRestore
		ret.OnRestore = func(p RingPosition) {
			h1(p)
			h2(p)
		}
	}
	return ret
}

func (t traceRing) onAdd(n Node) func(error) {
	if t.OnAdd == nil {
		return func(error) {}
	}
	done := t.OnAdd(n)
	if done == nil {
		return func(error) {}
	}
	return done
}

func (t traceRing) onRemove(n Node) func() {
	if t.OnRemove == nil {
		return func() {}
	}
	done := t.OnRemove(n)
	if done == nil {
		return func() {}
	}
	return done
}

func (t traceRing) onCollision(prev, next *point) {
	if t.OnCollision != nil {
		t.OnCollision(prev.entry(), next.entry())
	}
}

func (t traceRing) onRestore(p *point) {
	if t.OnRestore != nil {
		t.OnRestore(p.entry())
	}
}
