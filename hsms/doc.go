// Package hsms implements the wire-level framing and control-message
// taxonomy of HSMS (SEMI E37): message encode/decode, the control message
// types (Select, Deselect, Linktest, Separate, Reject), and the generic
// Session interface and ConnStateMgr state machine that hsmsss builds a concrete
// single-session transport on top of.
//
// Messages:
//
// Every HSMS message — control or data — shares a 10-byte header (session
// ID, header bytes 2/3, PType/SType, system bytes) decoded by decode.go.
// DataMsgType carries a SECS-II Item (see package secs2); the control
// types (SelectReqType/SelectRspType, DeselectReqType/DeselectRspType,
// LinkTestReqType/LinkTestRspType, SeparateReqType, RejectReqType) carry no
// body and are constructed directly from their byte layout in
// control_msg.go.
//
// A decoded message that fails its SECS-II body checks is not dropped
// silently: the failure is tagged with a secs2.CodecErrorKind so the caller
// (and, in hsmsss, the connection's metrics) can tell a truncated frame
// apart from one with a malformed item body.
//
// State machine:
//
// ConnStateMgr models the six HSMS connection/selection states
// (NotConnectedState through DeselectInitiatedState), guarding its
// transitions with a github.com/looplab/fsm table; AtomicOpState is a smaller, separate atomic enum tracking whether
// the underlying transport itself is open, used by hsmsss.Connection's
// lifecycle independent of selection status.
//
// Stream/function quoting:
//
// SML output quotes stream/function codes according to the package-level
// setting selected by UseStreamFunctionNoQuote, UseStreamFunctionSingleQuote,
// or UseStreamFunctionDoubleQuote.
package hsms
