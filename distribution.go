package hashring

import (
	"math"
	"sort"
)

// Distribution is a snapshot of keys ownership: mapping of node id to keys
// owned by that node.
type Distribution map[string][]string

// Owners returns mapping of a key to the id of its owner.
func (d Distribution) Owners() map[string]string {
	ret := make(map[string]string, d.Keys())
	for id, keys := range d {
		for _, key := range keys {
			ret[key] = id
		}
	}
	return ret
}

// Counts returns number of keys owned by each node.
func (d Distribution) Counts() map[string]int {
	ret := make(map[string]int, len(d))
	for id, keys := range d {
		ret[id] = len(keys)
	}
	return ret
}

// Keys returns total number of keys within d.
func (d Distribution) Keys() (n int) {
	for _, keys := range d {
		n += len(keys)
	}
	return n
}

// Stats holds balance statistics of a distribution.
type Stats struct {
	Nodes  int
	Keys   int
	Min    int
	Max    int
	Mean   float64
	StdDev float64

	// Balance is a ratio of the most loaded node's key count to the mean.
	Balance float64
}

// Stats returns balance statistics of d.
// Only nodes owning at least one key are accounted.
func (d Distribution) Stats() (s Stats) {
	if len(d) == 0 {
		return s
	}
	s.Nodes = len(d)
	s.Min = math.MaxInt
	for _, keys := range d {
		n := len(keys)
		s.Keys += n
		if n < s.Min {
			s.Min = n
		}
		if n > s.Max {
			s.Max = n
		}
	}
	s.Mean = float64(s.Keys) / float64(s.Nodes)

	var variance float64
	for _, keys := range d {
		variance += math.Pow(float64(len(keys))-s.Mean, 2)
	}
	s.StdDev = math.Sqrt(variance / float64(s.Nodes))

	if s.Mean > 0 {
		s.Balance = float64(s.Max) / s.Mean
	}
	return s
}

// MovedKeys returns keys which owner differs between before and after
// snapshots, sorted and without duplicates. A key which is present in only
// one of the snapshots is considered moved.
func MovedKeys(before, after Distribution) []string {
	b := before.Owners()
	a := after.Owners()

	var ret []string
	for key, x := range b {
		if y, has := a[key]; !has || x != y {
			ret = append(ret, key)
		}
	}
	for key := range a {
		if _, has := b[key]; !has {
			ret = append(ret, key)
		}
	}
	sort.Strings(ret)

	return ret
}

// MovementRatio returns fraction of keys moved between before and after
// snapshots relative to the number of distinct keys within both of them.
func MovementRatio(before, after Distribution) float64 {
	keys := before.Owners()
	for key, id := range after.Owners() {
		keys[key] = id
	}
	if len(keys) == 0 {
		return 0
	}
	return float64(len(MovedKeys(before, after))) / float64(len(keys))
}
