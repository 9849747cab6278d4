package hashring

import (
	"crypto/sha256"
	"encoding/binary"
	"hash/fnv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Names of the built-in hash strategies.
const (
	HashStrong = "strong"
	HashFast   = "fast"
	HashXX     = "xxhash"
)

// Hash is a pure and deterministic function which maps arbitrary bytes to a
// point of the circular hash space [0, 2^Bits()).
type Hash interface {
	// Name returns canonical name of the strategy.
	Name() string

	// Bits returns width of the hash space.
	Bits() int

	// Sum returns position of p within the hash space.
	Sum(p []byte) Position
}

// LookupHash returns hash strategy registered with given name.
// Empty name selects the strong strategy. For unknown names it returns
// *UnsupportedHashFunctionError.
func LookupHash(name string) (Hash, error) {
	switch strings.ToLower(name) {
	case "", HashStrong, "sha256":
		return Strong, nil
	case HashFast, "fnv1a":
		return Fast, nil
	case HashXX:
		return XX, nil
	}
	return nil, &UnsupportedHashFunctionError{Name: name}
}

var (
	// Strong is a SHA-256 based hash with 256-bit output.
	Strong Hash = strongHash{}

	// Fast is a 32-bit FNV-1a hash. It is much cheaper than Strong but gives
	// visibly worse uniformity on small rings.
	Fast Hash = fastHash{}

	// XX is a 64-bit xxHash.
	XX Hash = xxHash{}
)

type strongHash struct{}

func (strongHash) Name() string { return HashStrong }
func (strongHash) Bits() int    { return 256 }

func (strongHash) Sum(p []byte) Position {
	return Position(sha256.Sum256(p))
}

// fastHash uses offset basis 2166136261 and prime 16777619, XOR-ing each
// byte before multiplying; that is exactly what hash/fnv's 32a variant does.
type fastHash struct{}

func (fastHash) Name() string { return HashFast }
func (fastHash) Bits() int    { return 32 }

func (fastHash) Sum(p []byte) Position {
	h := fnv.New32a()
	h.Write(p)
	return PositionFromUint64(uint64(h.Sum32()))
}

type xxHash struct{}

func (xxHash) Name() string { return HashXX }
func (xxHash) Bits() int    { return 64 }

func (xxHash) Sum(p []byte) Position {
	return PositionFromUint64(xxhash.Sum64(p))
}

// PositionFromUint64 returns position holding value v.
func PositionFromUint64(v uint64) (p Position) {
	binary.BigEndian.PutUint64(p[len(p)-8:], v)
	return p
}
