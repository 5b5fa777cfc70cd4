package session

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recurry/versafix/dictionary"
	"github.com/recurry/versafix/registry"
)

// buildSessionFixture assembles a minimal dictionary covering every admin
// message type the session layer drives (Logon, Heartbeat, TestRequest,
// ResendRequest, SequenceReset, Logout) plus one application message type,
// the same shape codec_test.go's buildTestDictionary uses for the codec
// layer.
func buildSessionFixture(t *testing.T) (*registry.VxMatcher, *registry.VxMatcher, *registry.DxRegistry, *registry.VersionRecord, *registry.VersionRecord) {
	t.Helper()

	fields := []*dictionary.Field{
		{Tag: 8, Name: "BeginString", Type: dictionary.TypeString},
		{Tag: 9, Name: "BodyLength", Type: dictionary.TypeLength},
		{Tag: 35, Name: "MsgType", Type: dictionary.TypeString},
		{Tag: 34, Name: "MsgSeqNum", Type: dictionary.TypeInt},
		{Tag: 49, Name: "SenderCompID", Type: dictionary.TypeString},
		{Tag: 56, Name: "TargetCompID", Type: dictionary.TypeString},
		{Tag: 52, Name: "SendingTime", Type: dictionary.TypeUTCTimestamp},
		{Tag: 43, Name: "PossDupFlag", Type: dictionary.TypeBoolean},
		{Tag: 98, Name: "EncryptMethod", Type: dictionary.TypeInt},
		{Tag: 108, Name: "HeartBtInt", Type: dictionary.TypeInt},
		{Tag: 112, Name: "TestReqID", Type: dictionary.TypeString},
		{Tag: 7, Name: "BeginSeqNo", Type: dictionary.TypeInt},
		{Tag: 16, Name: "EndSeqNo", Type: dictionary.TypeInt},
		{Tag: 36, Name: "NewSeqNo", Type: dictionary.TypeInt},
		{Tag: 123, Name: "GapFillFlag", Type: dictionary.TypeBoolean},
		{Tag: 58, Name: "Text", Type: dictionary.TypeString},
		{Tag: 11, Name: "ClOrdID", Type: dictionary.TypeString},
		{Tag: 10, Name: "CheckSum", Type: dictionary.TypeString},
	}

	header := []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 8, Required: true},
		{Kind: dictionary.RefField, FieldTag: 9, Required: true},
		{Kind: dictionary.RefField, FieldTag: 35, Required: true},
		{Kind: dictionary.RefField, FieldTag: 34, Required: true},
		{Kind: dictionary.RefField, FieldTag: 49, Required: true},
		{Kind: dictionary.RefField, FieldTag: 56, Required: true},
		{Kind: dictionary.RefField, FieldTag: 52, Required: false},
		{Kind: dictionary.RefField, FieldTag: 43, Required: false},
	}
	trailer := []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 10, Required: true},
	}

	logon := &dictionary.Message{MsgType: "A", Category: dictionary.CategoryAdmin, Body: []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 98, Required: true},
		{Kind: dictionary.RefField, FieldTag: 108, Required: true},
	}}
	heartbeat := &dictionary.Message{MsgType: "0", Category: dictionary.CategoryAdmin, Body: []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 112, Required: false},
	}}
	testRequest := &dictionary.Message{MsgType: "1", Category: dictionary.CategoryAdmin, Body: []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 112, Required: true},
	}}
	resendRequest := &dictionary.Message{MsgType: "2", Category: dictionary.CategoryAdmin, Body: []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 7, Required: true},
		{Kind: dictionary.RefField, FieldTag: 16, Required: true},
	}}
	sequenceReset := &dictionary.Message{MsgType: "4", Category: dictionary.CategoryAdmin, Body: []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 36, Required: true},
		{Kind: dictionary.RefField, FieldTag: 123, Required: false},
	}}
	logout := &dictionary.Message{MsgType: "5", Category: dictionary.CategoryAdmin, Body: []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 58, Required: false},
	}}
	newOrderSingle := &dictionary.Message{MsgType: "D", Category: dictionary.CategoryApp, Body: []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 11, Required: true},
	}}

	d, err := dictionary.NewDictionary("TEST", fields, nil,
		[]*dictionary.Message{logon, heartbeat, testRequest, resendRequest, sequenceReset, logout, newOrderSingle},
		header, trailer)
	require.NoError(t, err)

	dx := registry.NewDxRegistry()
	require.NoError(t, dx.Insert("TEST", d))

	vx := registry.NewVxRegistry()
	sx := &registry.VersionRecord{
		Name: "sx", Layer: registry.LayerSession,
		BeginString:     "FIX.4.2",
		Rules:           []registry.Rule{{Pairs: []registry.MatchPair{{Tag: 8, Value: "FIX.4.2"}}}},
		DictionaryNames: []string{"TEST"},
	}
	require.NoError(t, vx.Insert(sx))

	ax := &registry.VersionRecord{
		Name: "ax", Layer: registry.LayerApplication,
		Rules: []registry.Rule{
			{Pairs: []registry.MatchPair{{Tag: 35, Value: "A"}}},
			{Pairs: []registry.MatchPair{{Tag: 35, Value: "0"}}},
			{Pairs: []registry.MatchPair{{Tag: 35, Value: "1"}}},
			{Pairs: []registry.MatchPair{{Tag: 35, Value: "2"}}},
			{Pairs: []registry.MatchPair{{Tag: 35, Value: "4"}}},
			{Pairs: []registry.MatchPair{{Tag: 35, Value: "5"}}},
			{Pairs: []registry.MatchPair{{Tag: 35, Value: "D"}}},
		},
		DictionaryNames: []string{"TEST"},
	}
	require.NoError(t, vx.Insert(ax))

	return registry.NewVxMatcher(vx), registry.NewVxMatcher(vx), dx, sx, ax
}

func soh(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r == '|' {
			out = append(out, 0x01)
			continue
		}
		out = append(out, byte(r))
	}
	return out
}

func buildFixMessage(body string) []byte {
	b := soh(body)
	full := append([]byte("8=FIX.4.2"), 0x01)
	full = append(full, []byte("9="+strconv.Itoa(len(b)))...)
	full = append(full, 0x01)
	full = append(full, b...)
	sum := 0
	for _, c := range full {
		sum += int(c)
	}
	ck := sum % 256
	digits := [3]byte{byte('0' + (ck/100)%10), byte('0' + (ck/10)%10), byte('0' + ck%10)}
	full = append(full, []byte("10="+string(digits[:]))...)
	full = append(full, 0x01)
	return full
}
