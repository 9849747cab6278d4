package hashring

import (
	"fmt"
	"iter"
	"slices"
	"sort"
	"sync"

	"github.com/gobwas/avl"
)

// Ring is a consistent hashing hashring.
// It is goroutine safe. Ring instances must not be copied.
// The zero value for Ring is an empty ring ready to use with Strong hash.
type Ring struct {
	// h is a hash used both for node points and keys.
	// It is set once on construction.
	h Hash

	// mu serializes write operations on the ring and guards the node
	// registry.
	mu sync.Mutex

	// members is a mapping of node id to its registry record.
	// It is protected by r.mu mutex.
	members map[string]*member

	// shadows is a mapping of a position to points which were replaced at
	// that position by later inserted points. Points are stored in order of
	// insertion.
	// It is protected by r.mu mutex.
	shadows map[Position][]*point

	// ringMu serializes read & write operations on the tree root.
	// It's read-end should be held when copying the root.
	// It's write-end should be held when root pointer is being updated.
	ringMu sync.RWMutex

	// ring is an immutable tree holding node points.
	// It's protected by r.mu and r.ringMu mutex.
	// Note that r.mu mutex should be held while preparing new (mutated)
	// version of the tree.
	ring avl.Tree // tree<*point>

	trace traceRing
}

// New returns an empty ring which uses hash strategy with given name.
// It returns *UnsupportedHashFunctionError if name is not known.
func New(hashName string) (*Ring, error) {
	h, err := LookupHash(hashName)
	if err != nil {
		return nil, err
	}
	return NewWithHash(h), nil
}

// NewWithHash returns an empty ring which uses h.
// If h is nil, Strong is used.
func NewWithHash(h Hash) *Ring {
	r := &Ring{h: h}
	setupRingTrace(r)
	return r
}

// Hash returns hash strategy used by the ring.
func (r *Ring) Hash() Hash {
	if r.h == nil {
		return Strong
	}
	return r.h
}

// Add puts node n onto the ring.
//
// It returns *DuplicateNodeError if node with the same id is already on the
// ring, and error wrapping ErrInvalidNode if n is malformed. In both cases
// the ring is left unchanged.
//
// If some point of n has exactly the same position as an existing point, n
// takes that position over. The replaced point is brought back if n is
// removed later.
func (r *Ring) Add(n Node) (err error) {
	done := r.trace.onAdd(n)
	defer func() {
		done(err)
	}()
	if err := n.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, has := r.members[n.ID]; has {
		return &DuplicateNodeError{ID: n.ID}
	}
	m := newMember(n, r.Hash())

	root := r.root()
	for _, p := range m.points {
		root = r.insertPoint(root, p)
	}
	if r.members == nil {
		r.members = make(map[string]*member)
	}
	r.members[n.ID] = m

	assertConsistent(r, root)
	r.swap(root)

	return nil
}

// Remove removes node with given id from the ring.
// It returns removed node and true, or false if there is no such node.
//
// Keys owned by the removed node fall through to the next point clockwise;
// ownership of other keys is not changed.
func (r *Ring) Remove(id string) (_ Node, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, has := r.members[id]
	if !has {
		return Node{}, false
	}
	done := r.trace.onRemove(m.node)
	defer done()

	// Forget shadowed points of m first, so they can not be restored below.
	for _, p := range m.points {
		r.unshadow(p)
	}
	root := r.root()
	for _, p := range m.points {
		root = r.deletePoint(root, p)
	}
	delete(r.members, id)

	assertConsistent(r, root)
	r.swap(root)

	return m.node, true
}

// Get returns id of a node owning the key.
// It returns false only when ring is empty.
//
// The key is owned by the first point strictly greater than the key's hash,
// wrapping around to the lowest point. That is, a point with exactly the
// same value as the key's hash does not own the key.
func (r *Ring) Get(key string) (string, bool) {
	p := lookup(r.root(), r.Hash().Sum([]byte(key)))
	if p == nil {
		return "", false
	}
	return p.owner(), true
}

// GetNode is like Get() but returns the whole node.
func (r *Ring) GetNode(key string) (Node, bool) {
	p := lookup(r.root(), r.Hash().Sum([]byte(key)))
	if p == nil {
		return Node{}, false
	}
	return p.member.node, true
}

// GetN returns ids of up to n distinct nodes found walking clockwise from
// the key. The first one is the key owner as returned by Get().
func (r *Ring) GetN(key string, n int) []string {
	root := r.root()
	if n <= 0 || root.Size() == 0 {
		return nil
	}
	var (
		ret  = make([]string, 0, n)
		seen = make(map[*member]bool, n)
		p    = lookup(root, r.Hash().Sum([]byte(key)))
	)
	for i := root.Size(); i > 0 && len(ret) < n; i-- {
		if !seen[p.member] {
			seen[p.member] = true
			ret = append(ret, p.owner())
		}
		p = next(root, p)
	}
	return ret
}

// Owners returns a sequence of key owners. Every key of keys is yielded
// together with the id of its owner, or with empty string if ring is empty.
//
// All keys are looked up within the same version of the ring: mutations made
// while the sequence is being iterated are not visible to it.
func (r *Ring) Owners(keys iter.Seq[string]) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		var (
			root = r.root()
			h    = r.Hash()
		)
		for key := range keys {
			var owner string
			if p := lookup(root, h.Sum([]byte(key))); p != nil {
				owner = p.owner()
			}
			if !yield(key, owner) {
				return
			}
		}
	}
}

// Distribution returns a snapshot of keys ownership. Keys order (including
// duplicates) is preserved within each node. It returns empty distribution
// if ring is empty.
func (r *Ring) Distribution(keys []string) Distribution {
	d := make(Distribution)
	for key, owner := range r.Owners(slices.Values(keys)) {
		if owner == "" {
			continue
		}
		d[owner] = append(d[owner], key)
	}
	return d
}

// State returns position table of the ring in ascending order.
func (r *Ring) State() []RingPosition {
	root := r.root()
	ret := make([]RingPosition, 0, root.Size())
	root.InOrder(func(x avl.Item) bool {
		ret = append(ret, x.(*point).entry())
		return true
	})
	return ret
}

// Has returns true if node with given id is on the ring.
func (r *Ring) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, has := r.members[id]
	return has
}

// Node returns node with given id.
func (r *Ring) Node(id string) (Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, has := r.members[id]
	if !has {
		return Node{}, false
	}
	return m.node, true
}

// Nodes returns all nodes on the ring ordered by id.
func (r *Ring) Nodes() []Node {
	r.mu.Lock()
	ret := make([]Node, 0, len(r.members))
	for _, m := range r.members {
		ret = append(ret, m.node)
	}
	r.mu.Unlock()

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].ID < ret[j].ID
	})
	return ret
}

// Len returns number of nodes on the ring.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Size returns number of points on the ring.
func (r *Ring) Size() int {
	return r.root().Size()
}

func (r *Ring) String() string {
	n, size := r.Len(), r.Size()
	if n == 0 {
		return "hashring: empty"
	}
	return fmt.Sprintf(
		"hashring: %d nodes and %d points (%s)",
		n, size, r.Hash().Name(),
	)
}

func (r *Ring) root() avl.Tree {
	r.ringMu.RLock()
	defer r.ringMu.RUnlock()
	return r.ring
}

// r.mu must be held.
func (r *Ring) swap(root avl.Tree) {
	r.ringMu.Lock()
	r.ring = root
	r.ringMu.Unlock()
}

// r.mu must be held.
func (r *Ring) insertPoint(tree avl.Tree, p *point) avl.Tree {
	tree, existing := tree.Insert(p)
	if existing == nil {
		return tree
	}
	// Collision detected: p replaces the existing point.
	d := existing.(*point)
	r.trace.onCollision(d, p)

	tree = mustDeleteTree(tree, d)
	tree = mustInsertTree(tree, p)

	if r.shadows == nil {
		r.shadows = make(map[Position][]*point)
	}
	r.shadows[p.pos] = append(r.shadows[p.pos], d)

	return tree
}

// deletePoint removes p from the tree if it is there. If p shadows other
// points, the latest shadowed one takes its position back.
// r.mu must be held.
func (r *Ring) deletePoint(tree avl.Tree, p *point) avl.Tree {
	if x := tree.Search(p); x == nil || x.(*point) != p {
		// Shadowed by another point or deleted already as a twin.
		return tree
	}
	tree = mustDeleteTree(tree, p)

	s := r.shadows[p.pos]
	if len(s) == 0 {
		return tree
	}
	prev := s[len(s)-1]
	if len(s) == 1 {
		delete(r.shadows, p.pos)
	} else {
		r.shadows[p.pos] = s[:len(s)-1]
	}
	r.trace.onRestore(prev)

	return mustInsertTree(tree, prev)
}

// unshadow forgets p if it is shadowed.
// r.mu must be held.
func (r *Ring) unshadow(p *point) {
	s, has := r.shadows[p.pos]
	if !has {
		return
	}
	s = slices.DeleteFunc(s, func(x *point) bool {
		return x == p
	})
	if len(s) == 0 {
		delete(r.shadows, p.pos)
		return
	}
	r.shadows[p.pos] = s
}

// r.mu must be held.
func (r *Ring) isShadowed(p *point) bool {
	return slices.Contains(r.shadows[p.pos], p)
}

// lookup returns a point owning position v.
func lookup(tree avl.Tree, v Position) *point {
	x := tree.Successor(search(v))
	if x == nil {
		// v is not less than any point, so wrap around.
		x = tree.Min()
	}
	if x == nil {
		return nil
	}
	return x.(*point)
}

// next returns a point following p clockwise.
func next(tree avl.Tree, p *point) *point {
	return lookup(tree, p.pos)
}

func mustInsertTree(tree avl.Tree, x avl.Item) avl.Tree {
	tree, existing := tree.Insert(x)
	if existing != nil {
		panic("hashring: internal error: mustInsert failed")
	}
	return tree
}

func mustDeleteTree(tree avl.Tree, x avl.Item) avl.Tree {
	tree, existed := tree.Delete(x)
	if existed == nil {
		panic("hashring: internal error: mustDelete failed")
	}
	return tree
}
