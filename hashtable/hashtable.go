// Package hashtable implements a generic chained-hash map whose bucket array
// is always sized to 2^i minus a fixed per-i offset, chosen so the size is
// the largest prime below the next power of two. The table grows by
// rehashing to the next index whenever insertion pushes the load factor
// over a configured maximum.
package hashtable

import "errors"

// ErrKeyExists is returned by Insert when the key is already present. The
// table is left unchanged.
var ErrKeyExists = errors.New("key already exists")

// ErrNoSpaceForTable is returned when a rehash would need to grow past the
// largest supported index (31).
var ErrNoSpaceForTable = errors.New("hash table: no space for table")

// delta[i] is the offset from 2^i down to the largest prime below it, for
// i in [0, 31]. delta[4] = 3 gives the initial table size 2^4 - 3 = 13.
var delta = [32]uint32{
	0, 0, 1, 1, 3, 1, 3, 1,
	5, 3, 3, 9, 3, 1, 3, 19,
	15, 1, 5, 1, 3, 9, 3, 15,
	3, 39, 5, 39, 57, 3, 35, 1,
}

const initialIndex = 4

func sizeForIndex(idx int) int {
	return (1 << uint(idx)) - int(delta[idx])
}

// HashFunc computes a key's hash. Implementations should spread bits well;
// the table takes the result modulo the current bucket count.
type HashFunc[K any] func(key K) uint32

// CompareFunc reports whether two keys are equal.
type CompareFunc[K any] func(a, b K) bool

type node[K any, V any] struct {
	key  K
	val  V
	next *node[K, V]
}

// Table is a generic chained hash map.
type Table[K any, V any] struct {
	buckets []*node[K, V]
	idx     int
	count   int
	maxLoad float64
	hash    HashFunc[K]
	cmpKey  CompareFunc[K]
}

// New creates an empty table with the given load factor ceiling, hash
// function, and key-equality comparator.
func New[K any, V any](maxLoad float64, hash HashFunc[K], cmp CompareFunc[K]) *Table[K, V] {
	return &Table[K, V]{
		buckets: make([]*node[K, V], sizeForIndex(initialIndex)),
		idx:     initialIndex,
		maxLoad: maxLoad,
		hash:    hash,
		cmpKey:  cmp,
	}
}

// Len returns the number of entries currently stored.
func (t *Table[K, V]) Len() int {
	return t.count
}

func (t *Table[K, V]) bucketFor(key K) int {
	return int(t.hash(key) % uint32(len(t.buckets)))
}

// Search returns the value associated with key, if present.
func (t *Table[K, V]) Search(key K) (V, bool) {
	var zero V
	b := t.bucketFor(key)
	for n := t.buckets[b]; n != nil; n = n.next {
		if t.cmpKey(n.key, key) {
			return n.val, true
		}
	}
	return zero, false
}

// Insert adds key -> value. If key is already present, the table is
// unchanged and ErrKeyExists is returned. Otherwise the entry is appended at
// the tail of its bucket's chain; if the resulting load factor exceeds
// maxLoad, the table is rehashed to the next size.
func (t *Table[K, V]) Insert(key K, val V) error {
	b := t.bucketFor(key)
	for n := t.buckets[b]; n != nil; n = n.next {
		if t.cmpKey(n.key, key) {
			return ErrKeyExists
		}
	}

	n := &node[K, V]{key: key, val: val}
	if t.buckets[b] == nil {
		t.buckets[b] = n
	} else {
		tail := t.buckets[b]
		for tail.next != nil {
			tail = tail.next
		}
		tail.next = n
	}
	t.count++

	if float64(t.count)/float64(len(t.buckets)) > t.maxLoad {
		return t.rehash()
	}
	return nil
}

// Each calls fn once per stored entry, in unspecified (bucket/chain) order.
// fn must not call Insert or Search in a way that would observe a table
// mutated mid-iteration; Each itself never mutates the table.
func (t *Table[K, V]) Each(fn func(key K, val V)) {
	for _, head := range t.buckets {
		for n := head; n != nil; n = n.next {
			fn(n.key, n.val)
		}
	}
}

// rehash grows the bucket array to the next index and relinks every
// existing node into it directly. It never calls Insert: doing so (as the
// original C implementation did) would re-check the load factor against the
// still-growing table and double-count entries during the very operation
// meant to relieve crowding.
func (t *Table[K, V]) rehash() error {
	if t.idx >= 31 {
		return ErrNoSpaceForTable
	}
	newIdx := t.idx + 1
	newBuckets := make([]*node[K, V], sizeForIndex(newIdx))

	for _, head := range t.buckets {
		for n := head; n != nil; {
			next := n.next
			nb := int(t.hash(n.key) % uint32(len(newBuckets)))
			n.next = newBuckets[nb]
			newBuckets[nb] = n
			n = next
		}
	}

	t.buckets = newBuckets
	t.idx = newIdx
	return nil
}
