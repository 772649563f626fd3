package bplus

// lowerBound returns the first slot whose key is >= target, slotCount if none.
func lowerBound(p nodePage, target []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, p.slotCount()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(p.key(mid), target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// upperBound returns the first slot whose key is > target, slotCount if none.
func upperBound(p nodePage, target []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, p.slotCount()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(p.key(mid), target) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// searchLeaf returns the last slot with a key below target (-1 if none) and
// whether the next slot holds target itself.
func searchLeaf(p nodePage, target []byte, cmp func(a, b []byte) int) (int, bool) {
	lb := lowerBound(p, target, cmp)
	return lb - 1, lb < p.slotCount() && cmp(p.key(lb), target) == 0
}

// searchInternal returns the slot whose child covers target, -1 for p0.
func searchInternal(p nodePage, target []byte, cmp func(a, b []byte) int) int {
	return upperBound(p, target, cmp) - 1
}
