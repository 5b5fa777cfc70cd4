package sessiondb

import (
	"fmt"
	"strings"
)

// Record is the session database record (§3 "Session database record"):
// next outbound/inbound sequence numbers plus the identity pair that forms
// the session id.
type Record struct {
	SessionID    string `xml:"-"`
	TxSequence   int    `xml:"TxSequence"`
	RxSequence   int    `xml:"RxSequence"`
	SenderCompID string `xml:"SenderCompID"`
	TargetCompID string `xml:"TargetCompID"`
}

// IndexEntry is one line of Index.txt: (sequence, byte offset, byte length)
// of a journaled message in Messages.txt.
type IndexEntry struct {
	Seq    int
	Offset int64
	Length int64
}

// splitSessionID parses the canonical "SenderCompID-TargetCompID" form.
func splitSessionID(id string) (sender, target string, err error) {
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("sessiondb: malformed session id %q, want SenderCompID-TargetCompID", id)
	}
	return parts[0], parts[1], nil
}

// freshRecord builds a new record for id with sequence numbers reset to 1,
// per resetSession's documented behavior (§4.6).
func freshRecord(id string) (*Record, error) {
	sender, target, err := splitSessionID(id)
	if err != nil {
		return nil, err
	}
	return &Record{
		SessionID:    id,
		TxSequence:   1,
		RxSequence:   1,
		SenderCompID: sender,
		TargetCompID: target,
	}, nil
}
