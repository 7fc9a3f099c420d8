// Package heapfile stores arbitrary-length tuples in slotted pages,
// addressed by the (page_id, slot_id) locators the B+-tree index
// leaves point at. Layout follows the usual cell-pointer-array
// convention for slotted pages: a slot directory grows
// down from the page header while cell content grows up from the
// bottom of the page, so slot ids stay stable as later records are
// appended.
package heapfile

import (
	"fmt"

	"github.com/dbcore/relstore/pagestore"
	"github.com/dbcore/relstore/relerr"
)

const headerPageID pagestore.PageID = 0

const (
	headerLastPageOff = 0
)

// Page layout (1024 bytes):
//
//	offset 0 : slot_count     (4 bytes)
//	offset 4 : cell_content   (4 bytes, offset of the top of the cell area)
//	offset 8 : slot directory, one 4-byte cell offset per slot, growing down
//	...free space...
//	cell content area, growing up from the bottom of the page; each
//	cell is [4-byte key][2-byte value length][value bytes]
const (
	pageSlotCountOff   = 0
	pageCellContentOff = 4
	pageSlotDirOff     = 8
	slotEntrySize      = 4
	cellKeySize        = 4
	cellLenSize        = 2
	cellHeaderSize     = cellKeySize + cellLenSize
)

func slotOffsetOf(i int) int { return pageSlotDirOff + i*slotEntrySize }

// Locator identifies one tuple's storage location.
type Locator struct {
	PageID pagestore.PageID
	SlotID int32
}

// Heap is an append-only, slotted-page tuple store.
type Heap struct {
	store    pagestore.Store
	lastPage pagestore.PageID
}

// Open attaches a Heap to store, initializing a fresh header page if
// store is new, or reading the persisted last-page pointer otherwise.
func Open(store pagestore.Store) (*Heap, error) {
	if store.NextPageID() == 0 {
		h := &Heap{store: store, lastPage: pagestore.NoPage}
		if err := h.writeHeader(); err != nil {
			return nil, err
		}
		return h, nil
	}
	var hdr pagestore.Page
	if err := store.Read(headerPageID, &hdr); err != nil {
		return nil, err
	}
	return &Heap{
		store:    store,
		lastPage: pagestore.GetPageID(hdr[:], headerLastPageOff),
	}, nil
}

func (h *Heap) writeHeader() error {
	var hdr pagestore.Page
	pagestore.PutPageID(hdr[:], headerLastPageOff, h.lastPage)
	return h.store.Write(headerPageID, &hdr)
}

// Close releases the backing store.
func (h *Heap) Close() error { return h.store.Close() }

func newDataPage() *pagestore.Page {
	var p pagestore.Page
	putUint32(p[:], pageSlotCountOff, 0)
	putUint32(p[:], pageCellContentOff, uint32(pagestore.PageSize))
	return &p
}

func slotCount(p *pagestore.Page) int { return int(getUint32(p[:], pageSlotCountOff)) }

func cellContent(p *pagestore.Page) int { return int(getUint32(p[:], pageCellContentOff)) }

func freeSpace(p *pagestore.Page) int {
	return cellContent(p) - (pageSlotDirOff + slotCount(p)*slotEntrySize)
}

// Append adds (key, value) to the heap, allocating a fresh page when
// the current last page has no room. It returns the locator the
// caller should store in the index.
func (h *Heap) Append(key int32, value []byte) (Locator, error) {
	need := cellHeaderSize + len(value) + slotEntrySize
	if need > pagestore.PageSize-pageSlotDirOff {
		return Locator{}, fmt.Errorf("%w: record of %d bytes exceeds page capacity", relerr.ErrFileWriteFailed, len(value))
	}

	pageID := h.lastPage
	var page *pagestore.Page
	if pageID == pagestore.NoPage {
		pageID = h.store.NextPageID()
		page = newDataPage()
	} else {
		page = &pagestore.Page{}
		if err := h.store.Read(pageID, page); err != nil {
			return Locator{}, err
		}
		if freeSpace(page) < need {
			pageID = h.store.NextPageID()
			page = newDataPage()
		}
	}

	n := slotCount(page)
	top := cellContent(page) - cellHeaderSize - len(value)
	putUint32(page[:], top, uint32(key))
	putUint16(page[:], top+cellKeySize, uint16(len(value)))
	copy(page[top+cellHeaderSize:], value)
	putUint32(page[:], slotOffsetOf(n), uint32(top))
	putUint32(page[:], pageSlotCountOff, uint32(n+1))
	putUint32(page[:], pageCellContentOff, uint32(top))

	if err := h.store.Write(pageID, page); err != nil {
		return Locator{}, err
	}
	if pageID != h.lastPage {
		h.lastPage = pageID
		if err := h.writeHeader(); err != nil {
			return Locator{}, err
		}
	}
	return Locator{PageID: pageID, SlotID: int32(n)}, nil
}

// Read returns the key and a copy of the value stored at loc.
func (h *Heap) Read(loc Locator) (int32, []byte, error) {
	var page pagestore.Page
	if err := h.store.Read(loc.PageID, &page); err != nil {
		return 0, nil, err
	}
	n := slotCount(&page)
	if loc.SlotID < 0 || int(loc.SlotID) >= n {
		return 0, nil, fmt.Errorf("%w: slot %d out of range [0,%d)", relerr.ErrInvalidCursor, loc.SlotID, n)
	}
	off := int(getUint32(page[:], slotOffsetOf(int(loc.SlotID))))
	key := int32(getUint32(page[:], off))
	length := int(getUint16(page[:], off+cellKeySize))
	value := make([]byte, length)
	copy(value, page[off+cellHeaderSize:off+cellHeaderSize+length])
	return key, value, nil
}

// Cursor tracks a position in a linear scan over every page of the
// heap, oldest record first.
type Cursor struct {
	PageID pagestore.PageID
	SlotID int32
}

// NewCursor returns a cursor positioned at the first record in the heap.
func (h *Heap) NewCursor() *Cursor {
	if h.lastPage == pagestore.NoPage {
		return &Cursor{PageID: pagestore.NoPage}
	}
	return &Cursor{PageID: headerPageID + 1, SlotID: 0}
}

// Next returns the (key, value) at the cursor and advances it; it
// returns relerr.ErrEndOfTree once every page through lastPage has
// been exhausted.
func (h *Heap) Next(cur *Cursor) (int32, []byte, Locator, error) {
	for {
		if cur.PageID == pagestore.NoPage || cur.PageID > h.lastPage {
			return 0, nil, Locator{}, relerr.ErrEndOfTree
		}
		var page pagestore.Page
		if err := h.store.Read(cur.PageID, &page); err != nil {
			return 0, nil, Locator{}, err
		}
		n := slotCount(&page)
		if int(cur.SlotID) >= n {
			cur.PageID++
			cur.SlotID = 0
			continue
		}
		loc := Locator{PageID: cur.PageID, SlotID: cur.SlotID}
		off := int(getUint32(page[:], slotOffsetOf(int(cur.SlotID))))
		key := int32(getUint32(page[:], off))
		length := int(getUint16(page[:], off+cellKeySize))
		value := make([]byte, length)
		copy(value, page[off+cellHeaderSize:off+cellHeaderSize+length])
		cur.SlotID++
		return key, value, loc, nil
	}
}
