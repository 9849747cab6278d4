package hashring

import (
	"fmt"
	"math"
	"strconv"
)

// Node is a member of the ring.
//
// Node is identified by its ID only: two Node values with the same ID are
// the same node for the ring, no matter what other fields contain.
type Node struct {
	// ID is a unique node identifier.
	ID string

	// Replicas is a number of points the node occupies on the ring.
	// Zero means unset and is treated as one, so a node on the ring always
	// has at least one point. Negative values are rejected by Validate().
	Replicas int

	// Weight is an arbitrary non-negative node metadata. It does not affect
	// placement.
	Weight float64
}

// NewNode returns node with given id and number of replicas and weight 1.
func NewNode(id string, replicas int) Node {
	return Node{
		ID:       id,
		Replicas: replicas,
		Weight:   1,
	}
}

// Validate returns non-nil error wrapping ErrInvalidNode if n can not be put
// onto the ring.
func (n Node) Validate() error {
	switch {
	case n.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidNode)
	case n.Replicas < 0:
		return fmt.Errorf("%w: %q: negative replica count %d", ErrInvalidNode, n.ID, n.Replicas)
	case n.Weight < 0 || math.IsNaN(n.Weight) || math.IsInf(n.Weight, 0):
		return fmt.Errorf("%w: %q: malformed weight %v", ErrInvalidNode, n.ID, n.Weight)
	}
	return nil
}

func (n Node) replicas() int {
	if n.Replicas == 0 {
		return 1
	}
	return n.Replicas
}

// ReplicaPosition is a position of a single node replica.
type ReplicaPosition struct {
	Replica  int
	Position Position
}

// Positions returns positions of all node replicas computed with h, ordered
// by replica index. Replica i is placed at h(ID + "-" + i).
func (n Node) Positions(h Hash) []ReplicaPosition {
	ps := make([]ReplicaPosition, n.replicas())
	buf := make([]byte, 0, len(n.ID)+8)
	for i := range ps {
		buf = append(buf[:0], n.ID...)
		buf = append(buf, '-')
		buf = strconv.AppendInt(buf, int64(i), 10)
		ps[i] = ReplicaPosition{
			Replica:  i,
			Position: h.Sum(buf),
		}
	}
	return ps
}

func (n Node) String() string {
	return fmt.Sprintf("Node(%s, replicas=%d, weight=%g)", n.ID, n.replicas(), n.Weight)
}

// member is a registry record of a node put onto the ring.
type member struct {
	node   Node
	points []*point
}

func newMember(n Node, h Hash) *member {
	m := &member{node: n}
	m.node.Replicas = n.replicas()
	rs := n.Positions(h)
	m.points = make([]*point, len(rs))
	for i, rp := range rs {
		m.points[i] = newPoint(m, rp)
	}
	return m
}
