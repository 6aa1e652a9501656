package hsms

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/looplab/fsm"

	"github.com/fabconnect/gosecs/logger"
)

// ConnState represents the various stages of an HSMS connection.
type ConnState uint32

// IsNotConnected returns if the current state is not connected.
func (cs ConnState) IsNotConnected() bool { return cs == NotConnectedState }

// IsConnecting returns if the current state is attempting an active TCP connect.
func (cs ConnState) IsConnecting() bool { return cs == ConnectingState }

// IsNotSelected returns if the current state is not selected.
func (cs ConnState) IsNotSelected() bool { return cs == NotSelectedState }

// IsSelected returns if the current state is selected.
func (cs ConnState) IsSelected() bool { return cs == SelectedState }

// IsSelectInitiated returns if a Select.req is outstanding, awaiting Select.rsp.
func (cs ConnState) IsSelectInitiated() bool { return cs == SelectInitiatedState }

// IsDeselectInitiated returns if a Deselect.req is outstanding, awaiting Deselect.rsp.
func (cs ConnState) IsDeselectInitiated() bool { return cs == DeselectInitiatedState }

// String returns string representation of the current state.
func (cs ConnState) String() string {
	switch cs {
	case NotConnectedState:
		return "not-connected"
	case ConnectingState:
		return "connecting"
	case NotSelectedState:
		return "not-selected"
	case SelectedState:
		return "selected"
	case SelectInitiatedState:
		return "select-initiated"
	case DeselectInitiatedState:
		return "deselect-initiated"
	default:
		return "unknown"
	}
}

// HSMS connection states representing the various stages of an HSMS connection.
//
// ConnectingState only applies to the active (initiator) role: it marks the interval
// between a connect attempt being scheduled and the TCP handshake completing. Passive
// (listener) connections move directly from NotConnectedState to NotSelectedState once
// a peer is accepted, per SEMI E37 §6.3.
const (
	// NotConnectedState indicates that the TCP/IP connection is not established.
	NotConnectedState ConnState = iota
	// ConnectingState indicates an active-mode connect attempt is in flight (T5 timer running).
	ConnectingState
	// NotSelectedState indicates that the HSMS connection is established, but not yet ready for data exchange.
	NotSelectedState
	// SelectedState indicates that the HSMS connection is established and ready for data exchange.
	SelectedState
	// SelectInitiatedState indicates a locally-initiated Select.req is outstanding, waiting on
	// Select.rsp (or T6 expiry). Sub-state of NotSelected per SEMI E37's selection-state model.
	SelectInitiatedState
	// DeselectInitiatedState indicates a locally-initiated Deselect.req is outstanding, waiting
	// on Deselect.rsp (or T6 expiry). Sub-state of Selected.
	DeselectInitiatedState
)

// fsm event names for the ConnStateMgr's transition table. Each event's legal source states
// mirror the hand-checked rules the manual To* methods previously enforced; the fsm.FSM is used
// purely as the transition-table guard, the atomic snapshot + sync.Cond below remain the source
// of truth readers observe and block on.
const (
	evStartConnecting   = "startConnecting"   // NotConnected -> Connecting
	evTCPEstablished    = "tcpEstablished"    // NotConnected|Connecting -> NotSelected
	evSelectInitiate    = "selectInitiate"    // NotSelected -> SelectInitiated
	evDeselectInitiate  = "deselectInitiate"  // Selected -> DeselectInitiated
	evSelectSuccess     = "selectSuccess"     // NotSelected|SelectInitiated|DeselectInitiated -> Selected
	evRevertNotSelected = "revertNotSelected" // SelectInitiated|DeselectInitiated -> NotSelected
	evGSDirectDeselect  = "gsDirectDeselect"  // Selected -> NotSelected (HSMS-GS only)
	evDisconnect        = "disconnect"        // any -> NotConnected
)

// newTransitionTable builds the looplab/fsm event table guarding ConnStateMgr's transitions.
func newTransitionTable() *fsm.FSM {
	notConnected := NotConnectedState.String()
	connecting := ConnectingState.String()
	notSelected := NotSelectedState.String()
	selected := SelectedState.String()
	selectInitiated := SelectInitiatedState.String()
	deselectInitiated := DeselectInitiatedState.String()

	return fsm.NewFSM(
		notConnected,
		fsm.Events{
			{Name: evStartConnecting, Src: []string{notConnected}, Dst: connecting},
			{Name: evTCPEstablished, Src: []string{notConnected, connecting}, Dst: notSelected},
			{Name: evSelectInitiate, Src: []string{notSelected}, Dst: selectInitiated},
			{Name: evDeselectInitiate, Src: []string{selected}, Dst: deselectInitiated},
			{Name: evSelectSuccess, Src: []string{notSelected, selectInitiated, deselectInitiated}, Dst: selected},
			{Name: evRevertNotSelected, Src: []string{selectInitiated, deselectInitiated}, Dst: notSelected},
			{Name: evGSDirectDeselect, Src: []string{selected}, Dst: notSelected},
			{Name: evDisconnect, Src: []string{connecting, notSelected, selected, selectInitiated, deselectInitiated}, Dst: notConnected},
		},
		fsm.Callbacks{},
	)
}

// ConnStateChangeHandler is a function type that represents a handler for connection state changes.
// It is invoked when the state of an HSMS connection changes.
//
// Note: the handler will be invoked in a blocking mode. Take care with long-running implementations.
//
// The handler function receives two arguments:
//   - prevState: The previous connection state.
//   - newState: The current connection state.
type ConnStateChangeHandler func(conn Connection, prevState ConnState, newState ConnState)

// ConnStateMgr manages the connection state of an HSMS connection.
//
// It provides methods for managing state transitions and notifying listeners of state changes.
// The state transitions are thread safety in concurrent environments.
type ConnStateMgr struct {
	mu               sync.Mutex
	ctx              context.Context
	cond             *sync.Cond
	state            atomic.Uint32
	machine          *fsm.FSM
	conn             Connection
	logger           logger.Logger
	asyncStateChange chan ConnState
	handlers         []ConnStateChangeHandler
}

// NewConnStateMgr creates a new ConnStateMgr instance, initializing it to the NotConnectedState.
//
// It accepts optional ConnStateChangeHandler functions that will be invoked when the connection state changes.
func NewConnStateMgr(ctx context.Context, conn Connection, handlers ...ConnStateChangeHandler) *ConnStateMgr {
	connState := &ConnStateMgr{
		ctx:              ctx,
		conn:             conn,
		asyncStateChange: make(chan ConnState, 10),
		handlers:         make([]ConnStateChangeHandler, 0, len(handlers)),
	}

	for _, handler := range handlers {
		connState.AddHandler(handler)
	}

	if conn != nil {
		connState.logger = conn.GetLogger()
	} else {
		connState.logger = logger.GetLogger()
	}

	connState.state.Store(uint32(NotConnectedState))
	connState.cond = sync.NewCond(&connState.mu)
	connState.machine = newTransitionTable()

	go connState.asyncStateChangeTask()

	return connState
}

// State returns the current connection state.
func (cs *ConnStateMgr) State() ConnState {
	return ConnState(cs.state.Load())
}

// AddHandler adds one or more ConnStateChangeHandler functions to be invoked on state changes.
func (cs *ConnStateMgr) AddHandler(handlers ...ConnStateChangeHandler) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.handlers = append(cs.handlers, handlers...)
}

// WaitState waits for the connection state to reach the specified state or until the context is done.
// It returns nil if the desired state is reached, or an error if the context is canceled or times out.
func (cs *ConnStateMgr) WaitState(ctx context.Context, state ConnState) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.logger.Debug("wait connection state", "cur_state", cs.State(), "desired_state", state)
	if cs.State() == state {
		return nil
	}

	stopFunc := context.AfterFunc(ctx, func() {
		cs.cond.Broadcast()
	})
	defer stopFunc()

	for cs.State() != state {
		select {
		case <-ctx.Done():
			cs.logger.Debug("wait connection state receive ctx done", "cur_state", cs.State(), "desired_state", state)
			return ctx.Err()
		default:
			cs.logger.Debug("wait connection state CALL WAIT", "cur_state", cs.State(), "desired_state", state)
			cs.cond.Wait()
		}
	}
	cs.logger.Debug("wait connection state finished", "cur_state", cs.State(), "desired_state", state)

	return nil
}

// ToNotConnected transitions the connection state to NotConnectedState.
// This transition is allowed from any state and represents a disconnection or a reset of the connection.
func (cs *ConnStateMgr) ToNotConnected() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if curState == NotConnectedState {
		cs.logger.Debug("Already in NotConnectedState, no need to transition")
		return // Already in NotConnectedState, no need to transition
	}

	if err := cs.fire(evDisconnect); err != nil {
		cs.logger.Debug("disconnect event rejected by transition table", "from", curState, "error", err)
	}

	// change state to not connected BEFORE all handlers finished
	cs.setState(NotConnectedState)

	cs.invokeHandlers(curState, NotConnectedState)
}

// ToNotSelected transitions the connection state to NotSelectedState.
//
// This transition is allowed from NotConnected or Connecting (the TCP handshake just
// completed, HSMS-SS and HSMS-GS), from SelectInitiated or DeselectInitiated (a pending
// Select.req failed, or a Deselect.req completed), or from SelectedState (HSMS-GS only, a
// peer deselected without dropping the TCP connection). If the state is already
// NotSelectedState, the function is a no-op.
//
// Returns nil on success, or ErrInvalidTransition if the current state allows no such move.
func (cs *ConnStateMgr) ToNotSelected() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if curState.IsNotSelected() {
		return nil // Already in NotSelectedState, No-op
	}

	// SelectInitiated reverts to NotSelected on T6 timeout or a non-Ok SelectStatus;
	// DeselectInitiated completes to NotSelected on a successful Deselect.rsp.
	if curState.IsSelectInitiated() || curState.IsDeselectInitiated() {
		if err := cs.fire(evRevertNotSelected); err != nil {
			return err
		}
		cs.invokeHandlers(curState, NotSelectedState)
		cs.setState(NotSelectedState)

		return nil
	}

	fromConnect := curState.IsNotConnected() || curState.IsConnecting()

	if cs.conn != nil && cs.conn.IsSingleSession() && !fromConnect { // HSMS-SS
		return ErrInvalidTransition
	} else if !fromConnect && !curState.IsSelected() { // HSMS-GS
		return ErrInvalidTransition
	}

	event := evTCPEstablished
	if !fromConnect { // HSMS-GS direct deselect from Selected
		event = evGSDirectDeselect
	}
	if err := cs.fire(event); err != nil {
		return err
	}

	cs.invokeHandlers(curState, NotSelectedState)
	// change state after all handlers finished
	cs.setState(NotSelectedState)

	return nil
}

// ToConnecting transitions the connection state to ConnectingState.
//
// This transition only applies to the active (initiator) role and is only allowed from
// NotConnectedState, marking the start of a TCP connect attempt.
//
// Returns nil on success, or ErrInvalidTransition if the current state is not NotConnectedState.
func (cs *ConnStateMgr) ToConnecting() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if curState.IsConnecting() {
		return nil // Already in ConnectingState, No-op
	}

	if !curState.IsNotConnected() {
		return ErrInvalidTransition
	}

	if err := cs.fire(evStartConnecting); err != nil {
		return err
	}

	cs.invokeHandlers(curState, ConnectingState)
	cs.setState(ConnectingState)

	return nil
}

// ToConnectingAsync transitions connection state to ConnectingState asynchronously.
func (cs *ConnStateMgr) ToConnectingAsync() {
	cs.changeStateAsync(ConnectingState)
}

// ToSelected transitions the connection state to SelectedState.
//
// This transition is allowed from NotSelectedState, SelectInitiatedState or DeselectInitiatedState
// and indicates that the HSMS session is established and ready for data exchange.
// If the state is already SelectedState, the function is a no-op.
//
// Returns nil on success, or ErrInvalidTransition if the current state is none of those.
func (cs *ConnStateMgr) ToSelected() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if curState.IsSelected() {
		return nil // Already in SelectedState, No-op
	}

	// Allow transition from NotSelectedState (remote-initiated Select.req accepted directly)
	// or SelectInitiatedState (local Select.req resolved with SelectStatusSuccess), and from
	// DeselectInitiatedState (a locally-initiated Deselect.req was rejected/busy, reverting).
	if !curState.IsNotSelected() && !curState.IsSelectInitiated() && !curState.IsDeselectInitiated() {
		return ErrInvalidTransition
	}

	if err := cs.fire(evSelectSuccess); err != nil {
		return err
	}

	cs.invokeHandlers(curState, SelectedState)
	// change state after all handlers finished
	cs.setState(SelectedState)

	return nil
}

// ToSelectInitiated transitions the connection state to SelectInitiatedState.
//
// This transition is only allowed from NotSelectedState, marking the interval during which a
// locally-initiated Select.req is outstanding. If the state is already SelectInitiatedState,
// the function is a no-op.
func (cs *ConnStateMgr) ToSelectInitiated() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if curState == SelectInitiatedState {
		return nil
	}

	if !curState.IsNotSelected() {
		return ErrInvalidTransition
	}

	if err := cs.fire(evSelectInitiate); err != nil {
		return err
	}

	cs.invokeHandlers(curState, SelectInitiatedState)
	cs.setState(SelectInitiatedState)

	return nil
}

// ToDeselectInitiated transitions the connection state to DeselectInitiatedState.
//
// This transition is only allowed from SelectedState, marking the interval during which a
// locally-initiated Deselect.req is outstanding. If the state is already DeselectInitiatedState,
// the function is a no-op.
func (cs *ConnStateMgr) ToDeselectInitiated() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if curState == DeselectInitiatedState {
		return nil
	}

	if !curState.IsSelected() {
		return ErrInvalidTransition
	}

	if err := cs.fire(evDeselectInitiate); err != nil {
		return err
	}

	cs.invokeHandlers(curState, DeselectInitiatedState)
	cs.setState(DeselectInitiatedState)

	return nil
}

// ToNotConnectedAsync transitions connection state to NotConnectedState asynchronously.
//
// It will notify a goroutine and transite state in the back asynchronously.
//
// If the state is the same as the current state, the function is a no-op.
func (cs *ConnStateMgr) ToNotConnectedAsync() {
	cs.changeStateAsync(NotConnectedState)
}

// ToNotSelectedAsync transitions connection state to NotSelectedState asynchronously.
//
// It will notify a goroutine and transite state in the back asynchronously.
//
// If the state is the same as the current state, the function is a no-op.
func (cs *ConnStateMgr) ToNotSelectedAsync() {
	cs.changeStateAsync(NotSelectedState)
}

// ToSelectedAsync transitions connection state to SelectedState asynchronously.
//
// It will notify a goroutine and transite state in the back asynchronously.
//
// If the state is the same as the current state, the function is a no-op.
func (cs *ConnStateMgr) ToSelectedAsync() {
	cs.changeStateAsync(SelectedState)
}

// IsNotConnected returns if the current state is not connected.
func (cs *ConnStateMgr) IsNotConnected() bool {
	return cs.State().IsNotConnected()
}

// IsNotSelected returns if the current state is not selected.
func (cs *ConnStateMgr) IsNotSelected() bool {
	return cs.State().IsNotSelected()
}

// IsSelected returns if the current state is selected.
func (cs *ConnStateMgr) IsSelected() bool {
	return cs.State().IsSelected()
}

// fire validates and performs the named transition against the fsm transition table, keeping
// the table's notion of the current state in sync with the atomic snapshot. It returns
// ErrInvalidTransition if the event is not legal from the current state.
func (cs *ConnStateMgr) fire(event string) error {
	if err := cs.machine.Event(cs.ctx, event); err != nil {
		return ErrInvalidTransition
	}

	return nil
}

// setState atomically set current state to the newState. It also broadcasts a signal to any waiting goroutines.
func (cs *ConnStateMgr) setState(newState ConnState) {
	cs.state.Store(uint32(newState))
	cs.cond.Broadcast()
}

// invokeHandlers invokes all registered ConnStateChangeHandler functions with the previous and new states.
func (cs *ConnStateMgr) invokeHandlers(prevState ConnState, newState ConnState) {
	for _, handler := range cs.handlers {
		if handler != nil {
			handler(cs.conn, prevState, newState)
		}
	}
}

// changeStateAsync transitions the desired connection state asynchronously.
//
// It will notify a goroutine and transite state in the back asynchronously.
//
// If the state is the same as the current state, the function is a no-op.
func (cs *ConnStateMgr) changeStateAsync(state ConnState) {
	if cs.State() == state {
		return
	}

	cs.asyncStateChange <- state
}

// asyncStateChangeTask handles state changing in the background.
func (cs *ConnStateMgr) asyncStateChangeTask() {
	defer cs.logger.Debug("asyncStateChangeTask terminated")

	for {
		select {
		case <-cs.ctx.Done():
			return

		case desiredState := <-cs.asyncStateChange:
			prevState := cs.State()

			cs.logger.Debug("[start] async connection state",
				"method", "asyncStateChangeTask",
				"prevState", prevState, "curState", cs.State(), "desiredState", desiredState,
			)
			if desiredState == prevState {
				cs.logger.Debug("same state, exit", "method", "asyncStateChangeTask", "state", desiredState)
				break
			}

			var err error
			switch desiredState {
			case NotConnectedState:
				cs.ToNotConnected()
			case ConnectingState:
				err = cs.ToConnecting()
			case NotSelectedState:
				err = cs.ToNotSelected()
			case SelectedState:
				err = cs.ToSelected()
			case SelectInitiatedState:
				err = cs.ToSelectInitiated()
			case DeselectInitiatedState:
				err = cs.ToDeselectInitiated()
			}

			if err != nil {
				cs.logger.Error("[failed] async connection state",
					"method", "asyncStateChangeTask",
					"prevState", prevState, "curState", cs.State(), "desiredState", desiredState,
					"error", err,
				)
				if errors.Is(err, ErrInvalidTransition) {
					cs.asyncStateChange <- NotConnectedState
				}
			}
			cs.logger.Debug("[end] async connection state",
				"method", "asyncStateChangeTask",
				"prevState", prevState, "curState", cs.State(), "desiredState", desiredState,
			)
		}
	}
}
