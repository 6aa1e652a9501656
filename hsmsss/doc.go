// Package hsmsss implements HSMS-SS, the single-session subset of HSMS
// (SEMI E37.1) used between a host and one piece of equipment over one TCP
// connection. It drives the hsms package's state machine and control
// messages through the T3/T5/T6/T7/T8 timer set and the active/passive
// connect-mode split that E37 mandates for an HSMS-SS entity.
//
// A Connection owns exactly one TCP socket and one selection. Active mode
// dials out and retries with backoff (conn_active.go); passive mode
// listens and accepts (conn_passive.go). Either way the connection's own
// AtomicOpState (open/opening/closing/closed) tracks the socket lifecycle
// separately from the hsms-level selection state, since a reconnecting
// active endpoint cycles the socket far more often than it re-selects.
//
// Sessions and messages:
//
//   - NewConnectionConfig + With* options build a ConnectionConfig before
//     connecting; NewConnection creates the Connection.
//   - Connection.AddSession registers a session ID before Open.
//   - Session.SendDataMessage/SendSECS2Message/SendMessage send; a session's
//     AddDataMessageHandler registers the inbound callback.
//   - Connection.Close tears the TCP connection down and cancels the
//     receiver/sender/linktest goroutines started by Open.
//
// Observability:
//
// ConnectionMetrics exposes atomic counters/gauges — link test and data
// message send/recv/error counts, in-flight count, reconnect retry count,
// and a per-secs2.CodecErrorKind breakdown of inbound decode failures —
// suitable for wiring into a Prometheus CounterFunc/GaugeFunc.
//
// Example:
//
//	connCfg, err := hsmsss.NewConnectionConfig("127.0.0.1", 5000,
//	    hsmsss.WithActive(),
//	    hsmsss.WithHostRole(),
//	    hsmsss.WithT3Timeout(30*time.Second),
//	)
//	// ... handle err ...
//	conn, err := hsmsss.NewConnection(ctx, connCfg)
//	// ... handle err ...
//	defer conn.Close()
//
//	session := conn.AddSession(1000)
//	session.AddDataMessageHandler(func(msg *hsms.DataMessage, s hsms.Session) {
//	    _ = s.ReplyDataMessage(msg, msg.Item())
//	})
//
//	if err := conn.Open(true); err != nil {
//	    // ... handle err ...
//	}
//	reply, err := session.SendDataMessage(1, 1, true, secs2.NewASCIIItem("test"))
package hsmsss
