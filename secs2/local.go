package secs2

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

var localQuote = '"'

// UseLocalSingleQuote sets the quoting character for Local items in SML to a single quote (').
func UseLocalSingleQuote() {
	localQuote = '\''
}

// UseLocalDoubleQuote sets the quoting character for Local items in SML to a double quote (").
func UseLocalDoubleQuote() {
	localQuote = '"'
}

// LocalQuote returns the quote of Local items.
func LocalQuote() rune {
	return localQuote
}

// LocalItem represents a localized 2-byte character string in a SECS-II message.
//
// It implements the Item interface, providing methods to interact with and manipulate the Local data.
//
// Each character in the string is encoded on the wire as 2 bytes (big-endian code unit), matching
// the SEMI E5 Local (format code 0o22) item type.
//
// Immutability:
// For operations that should not modify the original item, use the `Clone()` method to create a new,
// independent copy of the item.
type LocalItem struct {
	baseItem
	value string // the Local string literal, stored as Go UTF-8
}

var _ Item = (*LocalItem)(nil)

// NewLocalItem creates a new LocalItem containing the given string.
//
// The newly created LocalItem is returned, potentially with an error attached if the
// resulting 2-byte-per-character encoding would exceed the maximum allowed size.
func NewLocalItem(value string) Item {
	item := getLocalItem()
	_ = item.SetValues(value)
	return item
}

// Free releases the LocalItem back to the pool for reuse.
func (item *LocalItem) Free() {
	putLocalItem(item)
}

// Get implements Item.Get().
//
// It does not accept any index arguments as LocalItem represents a single item, not a list.
func (item *LocalItem) Get(indices ...int) (Item, error) {
	if len(indices) != 0 {
		err := fmt.Errorf("item is not a list, item is %s, indices is %v", item.ToSML(), indices)
		item.setError(err)
		return nil, err
	}

	return item, nil
}

// ToLocal retrieves the Local string data stored within the item.
func (item *LocalItem) ToLocal() (string, error) {
	return item.value, nil
}

// Values retrieves the Local string value stored in the item.
//
// The returned value can be type-asserted to a `string`.
func (item *LocalItem) Values() any {
	return item.value
}

// SetValues sets the Local string for the item.
//
// It accepts one or more values, which must all be of type `string`. All provided string
// values are concatenated and stored within the item.
func (item *LocalItem) SetValues(values ...any) error {
	item.resetError()
	item.clearRawBytes()

	var itemValue string
	for _, value := range values {
		strVal, ok := value.(string)
		if !ok {
			err := NewCodecError(KindInvalidFormat, "the value is not a string")
			item.setError(err)
			return err
		}

		itemValue += strVal
	}

	codeUnits := utf16.Encode([]rune(itemValue))
	dataBytes, _ := getDataByteLength(LocalType, len(codeUnits))
	if dataBytes > MaxByteSize {
		item.setErrorKind(KindFrameTooLarge, "string length limit exceeded")
		return item.Error()
	}

	item.value = itemValue

	return nil
}

// Size implements Item.Size(), returning the number of 2-byte code units the string encodes to.
func (item *LocalItem) Size() int {
	return len(utf16.Encode([]rune(item.value)))
}

// ToBytes serializes the LocalItem into a byte slice conforming to the SECS-II data format.
func (item *LocalItem) ToBytes() []byte {
	if item.rawBytes != nil {
		return item.rawBytes
	}

	codeUnits := utf16.Encode([]rune(item.value))
	result, _ := getHeaderBytes(LocalType, len(codeUnits), len(codeUnits)*2)

	for _, cu := range codeUnits {
		result = binary.BigEndian.AppendUint16(result, cu)
	}

	return result
}

// ToSML converts the LocalItem into its SML representation.
func (item *LocalItem) ToSML() string {
	size := item.Size()
	if size == 0 {
		return fmt.Sprintf("<L2[0] %c%c>", localQuote, localQuote)
	}

	var sb strings.Builder
	sb.Grow(len(item.value) + 12)

	sb.WriteString("<L2[")
	sb.WriteString(strconv.Itoa(size))
	sb.WriteString("] ")
	sb.WriteRune(localQuote)
	sb.WriteString(item.value)
	sb.WriteRune(localQuote)
	sb.WriteByte('>')

	return sb.String()
}

// Clone creates a deep copy of the LocalItem.
func (item *LocalItem) Clone() Item {
	return &LocalItem{value: item.value}
}

// Type returns "local" string.
func (item *LocalItem) Type() string { return LocalType }

// IsLocal returns true, indicating that LocalItem is a Local data item.
func (item *LocalItem) IsLocal() bool { return true }
