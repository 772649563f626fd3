package bplus

// compact rewrites the entry region so the entries of the live slots sit back to
// back from offset 0 in slot order. The entry of excludeSlot, unless noSlot, is
// moved behind all the others so the caller can grow it in place.
func compact(p nodePage, excludeSlot int) {
	n := p.slotCount()
	if excludeSlot >= n {
		excludeSlot = noSlot
	}

	region := p.region()
	buf := make([]byte, p.free())
	off := 0
	move := func(i int) {
		e := p.entryAt(i)
		copy(buf[off:], e)
		p.setSlot(i, off)
		off += len(e)
	}
	for i := 0; i < n; i++ {
		if i != excludeSlot {
			move(i)
		}
	}
	if excludeSlot != noSlot {
		move(excludeSlot)
	}

	oldFree := p.free()
	copy(region, buf[:off])
	clear(region[off:oldFree])
	p.setFree(off)
	p.setUnused(0)
}

func compactInternalPage(p nodePage, excludeSlot int) {
	compact(p, excludeSlot)
}

func compactLeafPage(p nodePage, excludeSlot int) {
	compact(p, excludeSlot)
}
