package session

import "github.com/recurry/versafix/codec"

// Transport is the session's outbound collaborator: the capability-set
// "send" half of §9's endpoint abstraction. The engine binds a session to a
// transport when connecting; the session never reaches into the transport
// beyond this one method.
type Transport interface {
	Send(payload []byte) error
}

// Application is the callback interface of §4.7, delivered serially per
// session in the order events occur. Implementations MUST NOT block the
// sequencer goroutine that calls them.
type Application interface {
	OnSessionOpened(sessionID string)
	OnSessionLogon(msg *codec.Message)
	OnSessionLogout(msg *codec.Message)
	OnSessionRxAdmMessage(msg *codec.Message)
	OnSessionRxAppMessage(msg *codec.Message)
	OnSessionTxAdmMessage(msg *codec.Message)
	OnSessionTxAppMessage(msg *codec.Message)
	OnSessionTimeout(sessionID string, reason string)
	OnSessionClosed(sessionID string)
}
