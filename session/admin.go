package session

// Tags the session layer itself reads and stamps, beyond the structural
// tags wire.go already knows about (BeginString/BodyLength/MsgType/
// CheckSum). These are ordinary dictionary-resolved tags as far as the
// codec is concerned; the session layer just happens to care about their
// values.
const (
	tagMsgSeqNum     = 34
	tagSenderCompID  = 49
	tagTargetCompID  = 56
	tagSendingTime   = 52
	tagPossDupFlag   = 43
	tagHeartBtInt    = 108
	tagTestReqID     = 112
	tagText          = 58
	tagBeginSeqNo    = 7
	tagEndSeqNo      = 16
	tagNewSeqNo      = 36
	tagGapFillFlag   = 123
)

// Admin MsgType(35) values (§4.7, GLOSSARY "MsgType").
const (
	msgTypeHeartbeat     = "0"
	msgTypeLogon         = "A"
	msgTypeTestRequest   = "1"
	msgTypeResendRequest = "2"
	msgTypeReject        = "3"
	msgTypeSequenceReset = "4"
	msgTypeLogout        = "5"
)

func isAdminMsgType(msgType string) bool {
	switch msgType {
	case msgTypeHeartbeat, msgTypeLogon, msgTypeTestRequest, msgTypeResendRequest, msgTypeReject, msgTypeSequenceReset, msgTypeLogout:
		return true
	default:
		return false
	}
}
