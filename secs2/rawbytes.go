package secs2

import "unsafe"

// BytesToString converts b to a string without copying. The caller must not mutate b
// afterward; this is intended for decoder hot paths that slice into an input buffer
// they fully own for the lifetime of the returned string.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	return unsafe.String(unsafe.SliceData(b), len(b))
}

// NewListItemWithBytes creates a ListItem from already-decoded child items, caching raw
// as the item's pre-rendered wire-format encoding so a subsequent ToBytes() call
// returns it directly instead of re-serializing the list.
func NewListItemWithBytes(raw []byte, values ...Item) Item {
	item := NewListItem(values...)
	if li, ok := item.(*ListItem); ok && li.Error() == nil {
		li.setRawBytes(raw)
	}

	return item
}

// NewASCIIItemWithBytes creates an ASCIIItem from an already-decoded string, caching raw
// as the item's pre-rendered wire-format encoding.
func NewASCIIItemWithBytes(raw []byte, value string) Item {
	item := NewASCIIItem(value)
	if ai, ok := item.(*ASCIIItem); ok && ai.Error() == nil {
		ai.setRawBytes(raw)
	}

	return item
}

// NewBinaryItemWithBytes creates a BinaryItem from already-decoded data, caching raw as
// the item's pre-rendered wire-format encoding.
func NewBinaryItemWithBytes(raw []byte, value []byte) Item {
	item := NewBinaryItem(value)
	if bi, ok := item.(*BinaryItem); ok && bi.Error() == nil {
		bi.setRawBytes(raw)
	}

	return item
}

// NewBooleanItemWithBytes creates a BooleanItem from already-decoded values, caching raw
// as the item's pre-rendered wire-format encoding.
func NewBooleanItemWithBytes(raw []byte, values []bool) Item {
	item := NewBooleanItem(values)
	if bi, ok := item.(*BooleanItem); ok && bi.Error() == nil {
		bi.setRawBytes(raw)
	}

	return item
}

// NewJIS8ItemWithBytes creates a JIS8Item from an already-decoded string, caching raw as
// the item's pre-rendered wire-format encoding.
func NewJIS8ItemWithBytes(raw []byte, value string) Item {
	item := NewJIS8Item(value)
	if ji, ok := item.(*JIS8Item); ok && ji.Error() == nil {
		ji.setRawBytes(raw)
	}

	return item
}

// NewLocalItemWithBytes creates a LocalItem from an already-decoded string, caching raw as
// the item's pre-rendered wire-format encoding.
func NewLocalItemWithBytes(raw []byte, value string) Item {
	item := NewLocalItem(value)
	if li, ok := item.(*LocalItem); ok && li.Error() == nil {
		li.setRawBytes(raw)
	}

	return item
}
