package secs2

// SECS2Message represents a SECS-II message, defining a common interface for various SECS-II and HSMS
// message types.
//
// It provides methods for accessing the essential attributes of a SECS-II message:
//   - Stream and Function Codes: 8-bit unsigned integers specifying the message category and function.
//   - Wait Bit: A boolean value indicating whether a reply is expected.
//   - Item: The SECS-II data item carried by the message.
//
// Session ID, system bytes, header and serialization are left to the transport-specific
// message types that implement this interface.
type SECS2Message interface {
	// StreamCode returns the stream code for the SECS-II message.
	StreamCode() uint8

	// FunctionCode returns the function code for the SECS-II message.
	FunctionCode() uint8

	// WaitBit() returns the boolean representation of W-Bit for the SECS-II message.
	WaitBit() bool

	// Item returns the SECS-II data item.
	Item() Item
}

// Message is a minimal SECS2Message implementation carrying just the stream/function/wait-bit
// and data item, with no transport-specific framing. It is the building block higher layers
// wrap with their own header encoding.
type Message struct {
	item Item
	s    uint8
	f    uint8
	w    bool
}

var _ SECS2Message = &Message{}

// NewMessage creates a Message with the given stream code (s), function code (f), wait bit (w),
// and data item.
func NewMessage(s uint8, f uint8, w bool, item Item) *Message {
	return &Message{s: s, f: f, w: w, item: item}
}

// StreamCode returns the stream code for the SECS-II message.
func (msg *Message) StreamCode() uint8 { return msg.s & 0x7F }

// FunctionCode returns the function code for the SECS-II message.
func (msg *Message) FunctionCode() uint8 { return msg.f }

// WaitBit returns the boolean representation of W-Bit for the SECS-II message.
func (msg *Message) WaitBit() bool { return msg.w }

// Item returns the SECS-II data item.
func (msg *Message) Item() Item { return msg.item }
