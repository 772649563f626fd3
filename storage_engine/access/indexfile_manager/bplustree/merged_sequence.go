package bplus

import "github.com/pkg/errors"

/*
Both splits work on the merged sequence of a full page and the item that did not fit:
original slots 0..high, then the item, then original slots high+1..nSlots-1.
Position i of that sequence is read straight from the page (or the item bytes),
nothing is materialised.
*/

func mergedEntry(src nodePage, high int, item []byte, i int) []byte {
	switch {
	case i <= high:
		return src.entryAt(i)
	case i == high+1:
		return item
	default:
		return src.entryAt(i - 1)
	}
}

// halfFill returns how many merged positions it takes for their entries plus
// slots to reach half the page capacity, at most all of them.
func halfFill(src nodePage, high int, item []byte) int {
	half := src.capacity() / 2
	n := src.slotCount() + 1
	sum := 0
	for i := 0; i < n; i++ {
		sum += len(mergedEntry(src, high, item, i)) + slotSize
		if sum >= half {
			return i + 1
		}
	}
	return n
}

func checkHigh(src nodePage, high int) error {
	if high < -1 || high >= src.slotCount() {
		return errors.Wrapf(ErrSplitInvariant, "insert position %d outside [-1, %d]", high, src.slotCount()-1)
	}
	return nil
}

// appendTo adds e as the last slot of p.
func appendTo(p nodePage, e []byte) error {
	if !p.fits(len(e)) {
		return errors.Wrapf(ErrSplitInvariant, "entry of %d bytes does not fit page %d", len(e), p.pid())
	}
	p.insertSlot(p.slotCount(), p.appendEntry(e))
	return nil
}
