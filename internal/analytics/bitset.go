package analytics

// bitset is a fixed-capacity set of component ids. Reachability over the
// condensation is unioned word-wise, which keeps impact computation at
// O(E · words) instead of per-pair BFS.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) set(i int) {
	b[i/64] |= 1 << (uint(i) % 64)
}

func (b bitset) has(i int) bool {
	return b[i/64]&(1<<(uint(i)%64)) != 0
}

func (b bitset) or(other bitset) {
	for i := range other {
		b[i] |= other[i]
	}
}
