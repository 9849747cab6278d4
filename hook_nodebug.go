//go:build !hashring_debug

package hashring

import "github.com/gobwas/avl"

const debug = false

func assertConsistent(*Ring, avl.Tree) {}
func setupRingTrace(*Ring)             {}
