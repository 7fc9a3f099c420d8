package btree

// Locator identifies a tuple in the heap file: a (page_id, slot_id)
// pair. It is opaque to the index — the index only ever copies it in
// and out of leaf entries.
type Locator struct {
	PageID int32
	SlotID int32
}

func readLocator(buf []byte, off int) Locator {
	return Locator{
		PageID: getInt32(buf, off),
		SlotID: getInt32(buf, off+4),
	}
}

func writeLocator(buf []byte, off int, loc Locator) {
	putInt32(buf, off, loc.PageID)
	putInt32(buf, off+4, loc.SlotID)
}
