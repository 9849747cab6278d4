package hashring

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"github.com/gobwas/avl"
)

// PositionSize is a size of Position in bytes. It is wide enough to hold
// output of any Hash.
const PositionSize = 32

// Position is a point of the circular hash space. It is an unsigned integer
// stored in big-endian order, so narrower hash values are right-aligned and
// byte order matches numeric order.
type Position [PositionSize]byte

// Compare returns -1, 0 or +1 depending on whether p is less, equal or
// greater than x.
func (p Position) Compare(x Position) int {
	return bytes.Compare(p[:], x[:])
}

// Big returns p as a big integer.
func (p Position) Big() *big.Int {
	return new(big.Int).SetBytes(p[:])
}

// Uint64 returns the lowest 64 bits of p.
func (p Position) Uint64() uint64 {
	return binary.BigEndian.Uint64(p[PositionSize-8:])
}

// Hex returns full-width hexadecimal representation of p.
func (p Position) Hex() string {
	return hex.EncodeToString(p[:])
}

// String returns decimal representation of p.
func (p Position) String() string {
	return p.Big().String()
}

// RingPosition is an entry of the ring's position table.
type RingPosition struct {
	Position Position
	Owner    string
}

// point represents a point on the ring.
type point struct {
	// member is a registry record of the node the point belongs to.
	member *member

	// replica is a constant index of the point within its node.
	replica int

	// pos is the point value. It is never changed after creation.
	pos Position
}

func newPoint(m *member, rp ReplicaPosition) *point {
	return &point{
		member:  m,
		replica: rp.Replica,
		pos:     rp.Position,
	}
}

func (p *point) owner() string {
	return p.member.node.ID
}

func (p *point) entry() RingPosition {
	return RingPosition{
		Position: p.pos,
		Owner:    p.owner(),
	}
}

func (p *point) Compare(x avl.Item) int {
	return p.pos.Compare(x.(*point).pos)
}

type search Position

func (s search) Compare(x avl.Item) int {
	return Position(s).Compare(x.(*point).pos)
}
