// Package secs2 implements the SECS-II (SEMI E5) data item format: the
// typed, nestable payload that rides inside an HSMS data message.
//
// An Item is the unit of exchange. Concrete kinds cover the SEMI E5 item
// formats — signed/unsigned integers in 1/2/4/8-byte widths, 4/8-byte
// floats, boolean, binary, ASCII, JIS-8, and list (a nested slice of other
// Items). Every concrete type satisfies the Item interface, so callers walk
// a decoded message without caring whether a given node is a leaf or a list.
//
// Item construction is permissive by design: NewIntItem, NewASCIIItem, and
// friends accept a broad set of Go types (ints of any width, strings,
// slices) and convert on the spot. A conversion failure doesn't panic or
// return a bare error from the constructor — it's recorded on the item
// itself and tagged with a CodecErrorKind, and the caller reads it back
// with Error(). This mirrors how a malformed
// wire frame is handled one layer up in package hsms: the fault is scoped
// to the one item/message, not propagated as a panic.
//
// Item values are pooled (see pool.go) to keep allocation pressure down
// under sustained data traffic; callers done with an item should call
// Free() to return it.
//
// SML (SECS Message Language) output is available via ToSML() on every
// item, matching the human-readable log format SEMI-compliant tooling
// expects, e.g. `<A[6] "LOT123">` or `<U4[1] 42>`; a list puts each child on
// its own indented line between `<L[2]` and `>`.
//
// Example:
//
//	listItem := secs2.NewListItem(
//	    secs2.NewASCIIItem("LOT123"),
//	    secs2.NewUintItem(4, 42),
//	)
//	if err := listItem.Error(); err != nil {
//	    log.Fatalf("bad item: %s (kind=%s)", err, secs2.CodecKind(err))
//	}
//	fmt.Println(listItem.ToSML())
package secs2
