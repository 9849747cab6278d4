/*
Package hashring implements consistent hashing hashring data structure.

Consistent hashing maps keys from a very big set of values (e.g. cache keys)
to a quite small set of nodes (e.g. cache servers) so that when a node is
added or removed only a small fraction of keys change their owner. The word
"consistent" means that the same mapping is produced on different machines or
processes without additional state exchange.

Each node occupies one or more points (replicas) on a circular hash space.
Replica i of node "x" is placed at hash("x-i"). A key belongs to the first
point strictly greater than the key's hash, wrapping around past the maximum
value back to the lowest point.

Three hash strategies are available: SHA-256 based "strong" (the default),
32-bit FNV-1a "fast" and 64-bit "xxhash". A ring and all of its nodes always
use the same strategy, chosen when the ring is created.

Ring uses immutable AVL tree internally, so read operations are blocked only
for a tiny amount of time needed to copy the tree root, and every lookup (or
a whole Owners() iteration) sees a consistent version of the ring.

Distribution snapshots taken with Ring.Distribution() can be compared with
MovedKeys() to measure the cost of a topology change.
*/
package hashring
