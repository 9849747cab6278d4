package hashring

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fixedHash is a Hash returning predefined values for some inputs and
// xxhash values for the rest.
type fixedHash struct {
	t      testing.TB
	values map[string]uint64
}

func (h *fixedHash) Name() string { return "fixed" }
func (h *fixedHash) Bits() int    { return 64 }

func (h *fixedHash) Sum(p []byte) Position {
	v, has := h.values[string(p)]
	if has {
		h.t.Logf("using fixed hash value for %#q: %d", p, v)
		return PositionFromUint64(v)
	}
	return XX.Sum(p)
}

func fixedRing(t testing.TB, values map[string]uint64) *Ring {
	return NewWithHash(&fixedHash{
		t:      t,
		values: values,
	})
}

// recordHash is a Hash recording all its inputs.
type recordHash struct {
	Hash
	calls []string
}

func (h *recordHash) Sum(p []byte) Position {
	h.calls = append(h.calls, string(p))
	return h.Hash.Sum(p)
}

type ringAction interface {
	apply(*Ring) error
}

type addRingAction struct {
	id       string
	replicas int
}

func addNode(id string, replicas int) *addRingAction {
	return &addRingAction{
		id:       id,
		replicas: replicas,
	}
}

func (a addRingAction) String() string {
	return fmt.Sprintf("add %s*%d", a.id, a.replicas)
}

func (a addRingAction) apply(r *Ring) error {
	return r.Add(NewNode(a.id, a.replicas))
}

type removeRingAction struct {
	id string
}

func removeNode(id string) *removeRingAction {
	return &removeRingAction{id}
}

func (a removeRingAction) String() string {
	return fmt.Sprintf("remove %s", a.id)
}

func (a removeRingAction) apply(r *Ring) error {
	if _, removed := r.Remove(a.id); !removed {
		return fmt.Errorf("node %q not found", a.id)
	}
	return nil
}

func applyActions(t testing.TB, r *Ring, actions ...ringAction) {
	t.Helper()
	for _, a := range actions {
		if err := a.apply(r); err != nil {
			t.Fatalf("can't apply action %s: %v", a, err)
		}
	}
}

func permActions(actions ...ringAction) (ret [][]ringAction) {
	var f func(x ringAction, xs []ringAction) [][]ringAction
	f = func(x ringAction, xs []ringAction) (ret [][]ringAction) {
		if len(xs) == 0 {
			return [][]ringAction{{x}}
		}
		for _, ps := range f(xs[0], xs[1:]) {
			// Append current action to the end of received actions.
			// Below we will swap it with every element in the slice.
			ps = append(ps, x)

			last := len(ps) - 1
			for i := 0; i < len(ps); i++ {
				cp := append(([]ringAction)(nil), ps...)
				cp[i], cp[last] = cp[last], cp[i]
				ret = append(ret, cp)
			}
		}
		return ret
	}
	return f(actions[0], actions[1:])
}

func makeRing(t testing.TB, hash string, nodes map[string]int, actions ...ringAction) *Ring {
	t.Helper()
	r, err := New(hash)
	if err != nil {
		t.Fatal(err)
	}
	for id, replicas := range nodes {
		if err := r.Add(NewNode(id, replicas)); err != nil {
			t.Fatal(err)
		}
	}
	applyActions(t, r, actions...)
	return r
}

func makeKeys(prefix string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = prefix + strconv.Itoa(i)
	}
	return keys
}

func assertRingsEqual(t *testing.T, desc string, r0, r1 *Ring) {
	t.Helper()
	if diff := cmp.Diff(r0.State(), r1.State()); diff != "" {
		t.Fatalf("%s: rings are not equal (-r0 +r1):\n%s", desc, diff)
	}
}

// assertCoverage checks that every point on the ring is one of its owner's
// replica positions and that every node has all of its replicas on the
// ring.
func assertCoverage(t *testing.T, r *Ring) {
	t.Helper()
	state := r.State()
	owned := make(map[string]map[Position]bool)
	for i, p := range state {
		if i > 0 && state[i-1].Position.Compare(p.Position) >= 0 {
			t.Fatalf("position table is not sorted at #%d", i)
		}
		if owned[p.Owner] == nil {
			owned[p.Owner] = make(map[Position]bool)
		}
		owned[p.Owner][p.Position] = true
	}
	nodes := r.Nodes()
	if n, m := len(nodes), len(owned); n != m {
		t.Fatalf("ring has %d nodes but %d owners", n, m)
	}
	for _, n := range nodes {
		ps := n.Positions(r.Hash())
		if act, exp := len(owned[n.ID]), n.Replicas; act != exp {
			t.Errorf("node %q owns %d positions; want %d", n.ID, act, exp)
		}
		for _, rp := range ps {
			if !owned[n.ID][rp.Position] {
				t.Errorf("node %q replica #%d is not on the ring", n.ID, rp.Replica)
			}
		}
	}
}
