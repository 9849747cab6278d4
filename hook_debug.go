//go:build hashring_debug

package hashring

import (
	"fmt"
	"log"
	"strings"

	"github.com/gobwas/avl"
)

const debug = true

// assertConsistent checks that node registry and position table agree.
// r.mu must be held.
func assertConsistent(r *Ring, tree avl.Tree) {
	live := make(map[*point]bool, tree.Size())
	tree.InOrder(func(x avl.Item) bool {
		p := x.(*point)
		if r.members[p.owner()] != p.member {
			panic(fmt.Sprintf(
				"hashring: internal error: orphan point %s owned by %q",
				p.pos.Hex(), p.owner(),
			))
		}
		live[p] = true
		return true
	})
	var n int
	for _, m := range r.members {
		for _, p := range m.points {
			if live[p] {
				n++
				continue
			}
			if !r.isShadowed(p) {
				panic(fmt.Sprintf(
					"hashring: internal error: point %s of %q is lost",
					p.pos.Hex(), p.owner(),
				))
			}
		}
	}
	if n != tree.Size() {
		panic(fmt.Sprintf(
			"hashring: internal error: tree has %d points; registry has %d",
			tree.Size(), n,
		))
	}
}

func setupRingTrace(r *Ring) {
	log.SetFlags(0)

	var depth int
	enter := func() {
		depth++
		log.SetPrefix(strings.Repeat(" ", depth*4))
	}
	leave := func() {
		depth--
		log.SetPrefix(strings.Repeat(" ", depth*4))
	}
	r.trace = r.trace.Compose(traceRing{
		OnAdd: func(n Node) func(error) {
			log.Println("adding:", n)
			enter()
			return func(err error) {
				leave()
				if err != nil {
					log.Println("not added:", err)
				} else {
					log.Println("added")
				}
			}
		},
		OnRemove: func(n Node) func() {
			log.Println("removing:", n)
			enter()
			return func() {
				leave()
				log.Println("removed")
			}
		},
		OnCollision: func(prev, next RingPosition) {
			log.Println("collision:")
			enter()
			log.Println("prev:", positionInfo(prev))
			log.Println("next:", positionInfo(next))
			leave()
		},
		OnRestore: func(p RingPosition) {
			log.Println("restoring shadowed", positionInfo(p))
		},
	})
}

func positionInfo(p RingPosition) string {
	return fmt.Sprintf("%s@%s", p.Owner, p.Position.Hex())
}
