package secs2

import (
	"errors"
	"fmt"
)

// MaxByteSize defines the maximum allowed size (in bytes) for an Item's data.
const MaxByteSize = 1<<24 - 1

const (
	EmptyType   = "empty"
	ListType    = "list"
	BinaryType  = "binary"
	BooleanType = "boolean"
	ASCIIType   = "ascii"
	JIS8Type    = "jis8"
	LocalType   = "local"
	Int8Type    = "i1"
	Int16Type   = "i2"
	Int32Type   = "i4"
	Int64Type   = "i8"
	Uint8Type   = "u1"
	Uint16Type  = "u2"
	Uint32Type  = "u4"
	Uint64Type  = "u8"
	Float32Type = "f4"
	Float64Type = "f8"
)

type FormatCode = int

// Format codes follow SEMI E5 §9.2.2, octal notation.
const (
	ListFormatCode    FormatCode = 0o00
	BinaryFormatCode  FormatCode = 0o10
	BooleanFormatCode FormatCode = 0o11
	ASCIIFormatCode   FormatCode = 0o20
	JIS8FormatCode    FormatCode = 0o21
	LocalFormatCode   FormatCode = 0o22
	Int64FormatCode   FormatCode = 0o30
	Int8FormatCode    FormatCode = 0o31
	Int16FormatCode   FormatCode = 0o32
	Int32FormatCode   FormatCode = 0o34
	Float64FormatCode FormatCode = 0o40
	Float32FormatCode FormatCode = 0o44
	Uint64FormatCode  FormatCode = 0o50
	Uint8FormatCode   FormatCode = 0o51
	Uint16FormatCode  FormatCode = 0o52
	Uint32FormatCode  FormatCode = 0o54
)

type ItemType struct {
	FormatCode FormatCode
	Size       int
}

var itemTypeMap = map[string]*ItemType{
	ListType:    {FormatCode: ListFormatCode, Size: 1},
	BinaryType:  {FormatCode: BinaryFormatCode, Size: 1},
	BooleanType: {FormatCode: BooleanFormatCode, Size: 1},
	ASCIIType:   {FormatCode: ASCIIFormatCode, Size: 1},
	JIS8Type:    {FormatCode: JIS8FormatCode, Size: 1},
	LocalType:   {FormatCode: LocalFormatCode, Size: 2},
	Int64Type:   {FormatCode: Int64FormatCode, Size: 8},
	Int8Type:    {FormatCode: Int8FormatCode, Size: 1},
	Int16Type:   {FormatCode: Int16FormatCode, Size: 2},
	Int32Type:   {FormatCode: Int32FormatCode, Size: 4},
	Float64Type: {FormatCode: Float64FormatCode, Size: 8},
	Float32Type: {FormatCode: Float32FormatCode, Size: 4},
	Uint64Type:  {FormatCode: Uint64FormatCode, Size: 8},
	Uint8Type:   {FormatCode: Uint8FormatCode, Size: 1},
	Uint16Type:  {FormatCode: Uint16FormatCode, Size: 2},
	Uint32Type:  {FormatCode: Uint32FormatCode, Size: 4},
}

// Item represents an immutable data item in a SECS-II message.
//
// Items can hold various data types (e.g., binary, boolean, ASCII, integers, floats) and can
// be nested to form complex structures.
//
// There's a limit on the total size of data an Item can contain, as defined by the SEMI standard:
//
//	n * b <= 16,777,215 (3 bytes)
//	- n: number of data values within the Item (for a list, its direct children)
//	- b: byte size to represent each individual data value (varies by Item type)
type Item interface {
	// Get retrieves a nested Item at the specified indices.
	// An error is returned if the item doesn't represent a list or if the indices are invalid.
	Get(indices ...int) (Item, error)

	// ToList retrieves a list of items stored within the item.
	// Only available for ListItem.
	ToList() ([]Item, error)

	// ToBinary retrieves binary data as a byte slice data stored within the item.
	// Only available for BinaryItem.
	ToBinary() ([]byte, error)

	// ToBoolean retrieves a list of boolean data stored within the item.
	// Only available for BooleanItem.
	ToBoolean() ([]bool, error)

	// ToASCII retrieves a nested ASCII string data stored within the item.
	// Only available for ASCIIItem.
	ToASCII() (string, error)

	// ToJIS8 retrieves the JIS-8 string data stored within the item.
	// Only available for JIS8Item.
	ToJIS8() (string, error)

	// ToLocal retrieves the localized 2-byte character string data stored within the item.
	// Only available for LocalItem.
	ToLocal() (string, error)

	// ToInt retrieves a list of signed 64-bit integer data stored within the item.
	// Only available for IntItem.
	ToInt() ([]int64, error)

	// ToUint retrieves a list of unsigned 64-bit integer data stored within the item.
	// Only available for UintItem.
	ToUint() ([]uint64, error)

	// ToFloat retrieves a list of 64-bit float data stored within the item.
	// Only available for FloatItem
	ToFloat() ([]float64, error)

	// Values returns the value(s) held by the Item.
	// The return type is `any`, and the actual type depends on the specific Item implementation.
	// It can be a single value or a list, depending on the item type.
	// Please refer to the documentation of the specific item type for details on the returned value's type.
	//
	// The returned data is the same as Get() without index argument.
	Values() any

	// SetValues sets the value(s) within the Item.
	// The accepted value types and behavior depend on the specific Item implementation.
	// It may return an error if the provided values are invalid.
	SetValues(values ...any) error

	// Size returns the list size of the data item, aka., the number of data items.
	Size() int

	// ToBytes serializes the Item into its byte representation for SECS-II message transmission.
	ToBytes() []byte

	// ToSML converts the Item into its SML (SECS Message Language) representation.
	ToSML() string

	// Clone creates a deep copy of the Item, allowing for safe modification without affecting the original.
	Clone() Item

	// Error returns any error that occurred during the creation or manipulation of the Item.
	Error() error

	// Free releases the item resource and put back to the corresponding pool.
	//
	// After calling Free, the item should not be accessed or used again, as its underlying memory
	// might be reused for other item objects.
	Free()

	Type() string

	IsEmpty() bool
	IsList() bool
	IsBinary() bool
	IsBoolean() bool
	IsASCII() bool
	IsJIS8() bool
	IsLocal() bool
	IsInt8() bool
	IsInt16() bool
	IsInt32() bool
	IsInt64() bool
	IsUint8() bool
	IsUint16() bool
	IsUint32() bool
	IsUint64() bool
	IsFloat32() bool
	IsFloat64() bool
}

// CodecErrorKind classifies why a SECS-II item value or wire encoding was
// rejected. Distinguishing these lets a caller decide whether a failure is
// local to one value (reject it, keep the item usable) or fatal to the
// surrounding frame (truncated/misaligned/oversized input cannot be
// recovered from without discarding the whole message).
type CodecErrorKind int

const (
	// KindUnspecified covers item errors that predate this taxonomy, e.g.
	// calling an accessor the concrete item type does not implement.
	KindUnspecified CodecErrorKind = iota
	// KindTruncatedInput means fewer bytes were available than a length
	// header declared.
	KindTruncatedInput
	// KindInvalidFormat means a format byte, type tag, or input value does
	// not map to a valid SECS-II representation.
	KindInvalidFormat
	// KindInvalidHeader means an item's format/length-byte-count header is
	// malformed (e.g. a zero length-byte count).
	KindInvalidHeader
	// KindMisalignedLength means a byte length is not an integer multiple
	// of the item's element size.
	KindMisalignedLength
	// KindDepthExceeded means list nesting exceeded the configured maximum.
	KindDepthExceeded
	// KindFrameTooLarge means an item's encoded size exceeds MaxByteSize.
	KindFrameTooLarge

	// NumCodecErrorKinds is the number of defined CodecErrorKind values,
	// including KindUnspecified. Callers that keep a metric or table indexed
	// by kind size it with this constant.
	NumCodecErrorKinds
)

// String returns a lower-case, space-separated name for the kind, suitable
// for embedding in log fields and error messages.
func (k CodecErrorKind) String() string {
	switch k {
	case KindTruncatedInput:
		return "truncated input"
	case KindInvalidFormat:
		return "invalid format"
	case KindInvalidHeader:
		return "invalid header"
	case KindMisalignedLength:
		return "misaligned length"
	case KindDepthExceeded:
		return "depth exceeded"
	case KindFrameTooLarge:
		return "frame too large"
	default:
		return "unspecified"
	}
}

// A ItemError records a failed item creation. Kind classifies the failure
// per CodecErrorKind; Offset is the byte position within the buffer being
// decoded where the fault was detected, or -1 when the error did not arise
// from decoding a wire-format buffer.
type ItemError struct {
	err    error
	Kind   CodecErrorKind
	Offset int
}

func newItemErrorWithMsg(errMsg string) *ItemError {
	return &ItemError{err: errors.New(errMsg), Offset: -1}
}

func newKindErrorMsg(kind CodecErrorKind, errMsg string) *ItemError {
	return &ItemError{err: errors.New(errMsg), Kind: kind, Offset: -1}
}

func newItemError(err error) *ItemError {
	var existing *ItemError

	if errors.As(err, &existing) {
		return &ItemError{err: errors.Unwrap(err), Kind: existing.Kind, Offset: existing.Offset}
	}

	return &ItemError{err: err, Offset: -1}
}

// NewItemErrorWithMsg creates an ItemError wrapping a new error built from errMsg.
func NewItemErrorWithMsg(errMsg string) *ItemError {
	return newItemErrorWithMsg(errMsg)
}

// NewItemError wraps err as an ItemError, unwrapping it first if it is already one.
func NewItemError(err error) *ItemError {
	return newItemError(err)
}

// NewCodecError creates an ItemError tagged with kind, for constructing
// taxonomy-classified failures from outside this package (e.g. the HSMS
// frame decoder rejecting a malformed item header).
func NewCodecError(kind CodecErrorKind, errMsg string) *ItemError {
	return newKindErrorMsg(kind, errMsg)
}

// NewCodecErrorAt is like NewCodecError but also records the byte offset
// within the buffer being decoded where the fault was detected.
func NewCodecErrorAt(kind CodecErrorKind, offset int, errMsg string) *ItemError {
	return &ItemError{err: errors.New(errMsg), Kind: kind, Offset: offset}
}

// CodecKind returns the CodecErrorKind carried by err, or KindUnspecified
// if err does not wrap an ItemError.
func CodecKind(err error) CodecErrorKind {
	var ie *ItemError
	if errors.As(err, &ie) {
		return ie.Kind
	}

	return KindUnspecified
}

func (e *ItemError) Error() string {
	if e.Kind == KindUnspecified {
		return e.err.Error()
	}

	return e.Kind.String() + ": " + e.err.Error()
}

func (e *ItemError) Unwrap() error {
	return e.err
}

// EmptyItem is a immutable data type that represents a empty data item item.
// It will be used mostly on error cases.
type EmptyItem struct {
	baseItem
}

type EmptyItemPtr = *EmptyItem

// NewEmptyItem creates a new empty data item item.
func NewEmptyItem() Item {
	return &EmptyItem{}
}

func (item *EmptyItem) Get(indices ...int) (Item, error) {
	if len(indices) != 0 {
		err := newItemError(fmt.Errorf("item is not a list, item is %s, indices is %v", item.ToSML(), indices))
		item.setError(err)
		return nil, err
	}

	return item, nil
}

func (item *EmptyItem) Size() int {
	return 0
}

func (item *EmptyItem) Values() any {
	return []string{}
}

func (item *EmptyItem) SetValues(_ ...any) error {
	return nil
}

func (item *EmptyItem) ToBytes() []byte {
	return []byte{}
}

// ToSML returns the SML representation of the item.
func (item *EmptyItem) ToSML() string {
	return ""
}

func (item *EmptyItem) Clone() Item {
	return &EmptyItem{}
}

func (item *EmptyItem) Type() string {
	return EmptyType
}

func (item *EmptyItem) IsEmpty() bool { return true }

// baseItem provides a partial implementation of the Item interface,
// focusing on optional methods and error handling.
//
// This struct serves as a convenient base for other Item implementations,
// allowing them to inherit default behavior for certain methods and centralizing
// error management.
//
// Note that baseItem does not implement all required Item methods.
// Concrete implementations must provide their own logic for the remaining methods.
type baseItem struct {
	itemErr  error  // Stores any error that occurred during item creation or manipulation
	rawBytes []byte // Cached wire-format bytes, set when the item was produced by decoding; cleared on mutation
}

// setRawBytes caches the wire-format bytes this item was decoded from, so ToBytes() can
// return them directly instead of re-encoding. Callers must pass a slice that won't be
// mutated afterward (e.g. a sub-slice of the decoder's input buffer).
func (item *baseItem) setRawBytes(b []byte) {
	item.rawBytes = b
}

// clearRawBytes invalidates the cached wire-format bytes. Every SetValues implementation
// must call this, since mutating an item's value makes the cached encoding stale.
func (item *baseItem) clearRawBytes() {
	item.rawBytes = nil
}

func (item *baseItem) ToList() ([]Item, error) {
	err := newItemErrorWithMsg("method ToList not implemented")
	item.setError(err)

	return nil, err
}

func (item *baseItem) ToBinary() ([]byte, error) {
	err := newItemErrorWithMsg("method ToBinary not implemented")
	item.setError(err)

	return nil, err
}

func (item *baseItem) ToBoolean() ([]bool, error) {
	err := newItemErrorWithMsg("method ToBoolean not implemented")
	item.setError(err)

	return nil, err
}

func (item *baseItem) ToASCII() (string, error) {
	err := newItemErrorWithMsg("method ToASCII not implemented")
	item.setError(err)

	return "", err
}

func (item *baseItem) ToJIS8() (string, error) {
	err := newItemErrorWithMsg("method ToJIS8 not implemented")
	item.setError(err)

	return "", err
}

func (item *baseItem) ToLocal() (string, error) {
	err := newItemErrorWithMsg("method ToLocal not implemented")
	item.setError(err)

	return "", err
}

func (item *baseItem) ToInt() ([]int64, error) {
	err := newItemErrorWithMsg("method ToInt not implemented")
	item.setError(err)

	return nil, err
}

func (item *baseItem) ToUint() ([]uint64, error) {
	err := newItemErrorWithMsg("method ToUint not implemented")
	item.setError(err)

	return nil, err
}

func (item *baseItem) ToFloat() ([]float64, error) {
	err := newItemErrorWithMsg("method ToFloat not implemented")
	item.setError(err)

	return nil, err
}

func (item *baseItem) Error() error {
	return item.itemErr
}

func (item *baseItem) Free() {
}

func (item *baseItem) IsEmpty() bool   { return false }
func (item *baseItem) IsList() bool    { return false }
func (item *baseItem) IsBinary() bool  { return false }
func (item *baseItem) IsBoolean() bool { return false }
func (item *baseItem) IsASCII() bool   { return false }
func (item *baseItem) IsJIS8() bool    { return false }
func (item *baseItem) IsLocal() bool   { return false }
func (item *baseItem) IsInt8() bool    { return false }
func (item *baseItem) IsInt16() bool   { return false }
func (item *baseItem) IsInt32() bool   { return false }
func (item *baseItem) IsInt64() bool   { return false }
func (item *baseItem) IsUint8() bool   { return false }
func (item *baseItem) IsUint16() bool  { return false }
func (item *baseItem) IsUint32() bool  { return false }
func (item *baseItem) IsUint64() bool  { return false }
func (item *baseItem) IsFloat32() bool { return false }
func (item *baseItem) IsFloat64() bool { return false }

func (item *baseItem) resetError() {
	item.itemErr = nil
}

func (item *baseItem) setError(err error) {
	item.itemErr = errors.Join(item.itemErr, newItemError(err))
}

func (item *baseItem) setErrorMsg(errMsg string) {
	item.itemErr = errors.Join(item.itemErr, newItemErrorWithMsg(errMsg))
}

// setErrorKind records a taxonomy-classified failure, joining it with any
// error already attached to the item rather than replacing it.
func (item *baseItem) setErrorKind(kind CodecErrorKind, errMsg string) {
	item.itemErr = errors.Join(item.itemErr, newKindErrorMsg(kind, errMsg))
}

// getDataByteLength calculates the total number of bytes needed to represent data of a given type and size.
//
// Parameters:
//   - dataType: The type of data. Valid values include:
//   - "list": Represents a list.
//   - "binary": Represents binary data.
//   - "boolean": Represents boolean data.
//   - "ascii": Represents ASCII string data.
//   - "i1", "i2", "i4", "i8": Represents signed integers of various byte sizes.
//   - "u1", "u2", "u4", "u8": Represents unsigned integers of various byte sizes.
//   - "f4", "f8": Represents floating-point numbers of various byte sizes.
//   - size: The number of data values (or elements) in the item item.
//
// Returns:
//   - The total number of bytes required to represent the data.
//   - An error if the `dataType` is invalid.
func getDataByteLength(dataType string, size int) (int, error) {
	itemType, ok := itemTypeMap[dataType]
	if !ok {
		return 0, NewCodecError(KindInvalidFormat, fmt.Sprintf("invalid item type %s", dataType))
	}

	return size * itemType.Size, nil
}

// getHeaderBytes returns the header bytes, which consist of the format byte
// and the length bytes, of a SECS-II data item.
//
// The input argument dataType should be one of "list", "binary", "boolean", "ascii",
// "i8", "i1", "i2", "i4", "f8", "f4", "u8", "u1", "u2", or "u4".
// The input argument size means the number of values in a item item.
// An error is returned when the header bytes cannot be created.
func getHeaderBytes(dataType string, size int, preAlloc int) ([]byte, error) {
	itemType, ok := itemTypeMap[dataType]
	if !ok {
		return []byte{}, NewCodecError(KindInvalidFormat, fmt.Sprintf("invalid item type: %s", dataType))
	}
	formatCode := itemType.FormatCode

	dataByteLength, err := getDataByteLength(dataType, size)
	if err != nil {
		return []byte{}, err
	}

	if dataByteLength > MaxByteSize {
		return []byte{}, NewCodecError(KindFrameTooLarge, "size limit exceeded")
	}

	lenBytes := []byte{
		byte(dataByteLength >> 16),
		byte(dataByteLength >> 8),
		byte(dataByteLength),
	}

	// determine the number of length bytes needed
	lenByteCount := 3
	if lenBytes[0] == 0 {
		lenByteCount--
		if lenBytes[1] == 0 {
			lenByteCount--
		}
	}

	result := make([]byte, 0, 1+lenByteCount+preAlloc)
	result = append(result, byte(formatCode<<2+lenByteCount))
	result = append(result, lenBytes[3-lenByteCount:]...)

	return result, nil
}
