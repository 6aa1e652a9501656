package hsmsss

import (
	"errors"
	"fmt"

	"github.com/fabconnect/gosecs/hsms"
)

// ErrRejected wraps a RejectReason code received from the remote entity in a Reject.req
// control message responding to a message this connection sent. Unwrap returns a
// package-level sentinel error for each known reason code, and nil for any other code.
type ErrRejected struct {
	Reason byte
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("message rejected by remote, reason=%d", e.Reason)
}

func (e *ErrRejected) Unwrap() error {
	switch e.Reason {
	case hsms.RejectSTypeNotSupported:
		return errSTypeNotSupported
	case hsms.RejectPTypeNotSupported:
		return errPTypeNotSupported
	case hsms.RejectTransactionNotOpen:
		return errTransactionNotOpen
	case hsms.RejectNotSelected:
		return errEntityNotSelected
	default:
		return nil
	}
}

var (
	errSTypeNotSupported  = errors.New("reject: sType not supported")
	errPTypeNotSupported  = errors.New("reject: pType not supported")
	errTransactionNotOpen = errors.New("reject: transaction not open")
	errEntityNotSelected  = errors.New("reject: entity not selected")
)

// rejectReasonErr converts a RejectReason code received from the remote into an error
// suitable for delivery through a reply channel, per spec §4.4's "Reject.req resolves the
// matching waiter with Rejected(reason)".
func rejectReasonErr(reason byte) error {
	return &ErrRejected{Reason: reason}
}
