package hsmsss

import (
	"fmt"

	"github.com/fabconnect/gosecs/hsms"
	"github.com/fabconnect/gosecs/logger"
)

type Session struct {
	hsms.BaseSession
	id       uint16
	hsmsConn *Connection
	cfg      *ConnectionConfig
	logger   logger.Logger

	dataMsgChans    []chan *hsms.DataMessage
	dataMsgHandlers []hsms.DataMessageHandler
}

func NewSession(id uint16, hsmsConn *Connection) *Session {
	session := &Session{
		id:              id,
		hsmsConn:        hsmsConn,
		cfg:             hsmsConn.cfg,
		logger:          hsmsConn.logger,
		dataMsgChans:    make([]chan *hsms.DataMessage, 0),
		dataMsgHandlers: make([]hsms.DataMessageHandler, 0),
	}

	// assign HSMS-SS specific implementations to base session
	session.BaseSession.RegisterIDFunc(session.ID)
	session.BaseSession.RegisterSendMessageFunc(session.SendMessage)
	session.BaseSession.RegisterSendMessageAsyncFunc(session.SendMessageAsync)
	return session
}

func (s *Session) ID() uint16 {
	return s.id
}

func (s *Session) SendMessage(msg hsms.HSMSMessage) (hsms.HSMSMessage, error) {
	return s.hsmsConn.sendMsg(msg)
}

func (s *Session) SendMessageAsync(msg hsms.HSMSMessage) error {
	return s.hsmsConn.sendMsgAsync(msg)
}

func (s *Session) AddConnStateChangeHandler(handlers ...hsms.ConnStateChangeHandler) {
	s.hsmsConn.stateMgr.AddHandler(handlers...)
}

func (s *Session) AddDataMessageHandler(handlers ...hsms.DataMessageHandler) {
	for _, handler := range handlers {
		s.dataMsgChans = append(s.dataMsgChans, make(chan *hsms.DataMessage, s.cfg.dataMsgQueueSize))
		s.dataMsgHandlers = append(s.dataMsgHandlers, handler)
	}
}

func (s *Session) startDataMsgTasks() {
	for i, handler := range s.dataMsgHandlers {
		name := fmt.Sprintf("dataMsgTask-%d", i+1)
		s.hsmsConn.taskMgr.StartRecvDataMsg(name, handler, s, s.dataMsgChans[i])
	}
}

// recvDataMsg broadcast message to all data message handlers' channel
func (s *Session) recvDataMsg(msg *hsms.DataMessage) {
	for _, dataMsgChan := range s.dataMsgChans {
		dataMsgChan <- msg
	}
}

func (s *Session) separateSession() {
	msg := hsms.NewSeparateReq(s.id, hsms.GenerateMsgSystemBytes())
	s.logger.Debug("send separate.req message and wait it to be sent", "method", "separateSession", "id", msg.ID())
	err := s.hsmsConn.sendMsgSync(msg)
	if err != nil {
		s.logger.Debug("failed to send separate control message", "method", "separateSession", "id", msg.ID(), "error", err)
	}
}

func (s *Session) selectSession() error {
	s.logger.Debug("send select.req", "method", "selectSession")

	// enter SelectInitiated: a Select.req is outstanding, awaiting Select.rsp or T6 expiry.
	if err := s.hsmsConn.stateMgr.ToSelectInitiated(); err != nil {
		return err
	}

	// select request
	msg := hsms.NewSelectReq(s.id, hsms.GenerateMsgSystemBytes())
	replyMsg, err := s.hsmsConn.sendControlMsg(msg, true)
	if err != nil {
		// T6 timeout or transport failure: revert to NotSelected and restart T7, since the
		// earlier T7 watchdog fires at most once and this endpoint is still Connected.
		_ = s.hsmsConn.stateMgr.ToNotSelected()
		s.hsmsConn.startT7Watchdog(s.hsmsConn.ctx)
		return err
	}

	if replyMsg == nil || replyMsg.Type() != hsms.SelectRspType {
		_ = s.hsmsConn.stateMgr.ToNotSelected()
		s.hsmsConn.startT7Watchdog(s.hsmsConn.ctx)
		return hsms.ErrInvalidRspMsg
	}

	// read select status
	selectStatus := replyMsg.Header()[3]
	switch selectStatus {
	case hsms.SelectStatusSuccess:
		s.logger.Debug("connection selected", "session_id", replyMsg.SessionID(), "type", replyMsg.Type())
		return nil
	default:
		s.logger.Warn("failed to select session", "session_id", replyMsg.SessionID(), "select_status", selectStatus)
		_ = s.hsmsConn.stateMgr.ToNotSelected()
		s.hsmsConn.startT7Watchdog(s.hsmsConn.ctx)
		return hsms.ErrSelectFailed
	}
}

// Deselect sends a Deselect.req for this session and waits for Deselect.rsp or T6 expiry,
// per §4.4's deselect procedure (valid only while Selected).
func (s *Session) Deselect() error {
	if err := s.hsmsConn.stateMgr.ToDeselectInitiated(); err != nil {
		return err
	}

	msg := hsms.NewDeselectReq(s.id, hsms.GenerateMsgSystemBytes())
	replyMsg, err := s.hsmsConn.sendControlMsg(msg, true)
	if err != nil {
		_ = s.hsmsConn.stateMgr.ToSelected()
		return err
	}

	if replyMsg == nil || replyMsg.Type() != hsms.DeselectRspType {
		_ = s.hsmsConn.stateMgr.ToSelected()
		return hsms.ErrInvalidRspMsg
	}

	deselectStatus := replyMsg.Header()[3]
	if deselectStatus != hsms.DeselectStatusSuccess {
		_ = s.hsmsConn.stateMgr.ToSelected()
		return fmt.Errorf("deselect failed, status=%d", deselectStatus)
	}

	s.hsmsConn.deselected.Store(true)
	s.hsmsConn.stateMgr.ToNotConnectedAsync()

	return nil
}

// Linktest sends a Linktest.req for this session and waits for Linktest.rsp or T6 expiry.
// Valid in any Connected sub-state; it does not alter the selection state.
func (s *Session) Linktest() error {
	msg := hsms.NewLinktestReq(hsms.GenerateMsgSystemBytes())
	replyMsg, err := s.hsmsConn.sendControlMsg(msg, true)
	if err != nil {
		return err
	}

	if replyMsg == nil || replyMsg.Type() != hsms.LinkTestRspType {
		return hsms.ErrInvalidRspMsg
	}

	return nil
}

// Separate sends a Separate.req for this session and immediately tears the connection down
// locally, without waiting for a reply (per §4.4, Separate never carries one).
func (s *Session) Separate() error {
	s.separateSession()
	s.hsmsConn.stateMgr.ToNotConnectedAsync()

	return nil
}
