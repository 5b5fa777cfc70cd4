package engine

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recurry/versafix/dictionary"
	"github.com/recurry/versafix/registry"
)

// buildEngineFixture mirrors session/testdict_test.go's fixture, trimmed to
// the one admin message type the engine-level tests exercise (Logon) plus
// Heartbeat for the cleanup-tick test.
func buildEngineFixture(t *testing.T) (*registry.VxMatcher, *registry.VxMatcher, *registry.DxRegistry, *registry.VersionRecord, *registry.VersionRecord) {
	t.Helper()

	fields := []*dictionary.Field{
		{Tag: 8, Name: "BeginString", Type: dictionary.TypeString},
		{Tag: 9, Name: "BodyLength", Type: dictionary.TypeLength},
		{Tag: 35, Name: "MsgType", Type: dictionary.TypeString},
		{Tag: 34, Name: "MsgSeqNum", Type: dictionary.TypeInt},
		{Tag: 49, Name: "SenderCompID", Type: dictionary.TypeString},
		{Tag: 56, Name: "TargetCompID", Type: dictionary.TypeString},
		{Tag: 52, Name: "SendingTime", Type: dictionary.TypeUTCTimestamp},
		{Tag: 98, Name: "EncryptMethod", Type: dictionary.TypeInt},
		{Tag: 108, Name: "HeartBtInt", Type: dictionary.TypeInt},
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
	}
	trailer := []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 10, Required: true},
	}

	logon := &dictionary.Message{MsgType: "A", Category: dictionary.CategoryAdmin, Body: []dictionary.ElementRef{
		{Kind: dictionary.RefField, FieldTag: 98, Required: true},
		{Kind: dictionary.RefField, FieldTag: 108, Required: true},
	}}
	heartbeat := &dictionary.Message{MsgType: "0", Category: dictionary.CategoryAdmin}

	d, err := dictionary.NewDictionary("ENGINE-TEST", fields, nil,
		[]*dictionary.Message{logon, heartbeat}, header, trailer)
	require.NoError(t, err)

	dx := registry.NewDxRegistry()
	require.NoError(t, dx.Insert("ENGINE-TEST", d))

	vx := registry.NewVxRegistry()
	sx := &registry.VersionRecord{
		Name: "sx", Layer: registry.LayerSession,
		BeginString:     "FIX.4.2",
		Rules:           []registry.Rule{{Pairs: []registry.MatchPair{{Tag: 8, Value: "FIX.4.2"}}}},
		DictionaryNames: []string{"ENGINE-TEST"},
	}
	require.NoError(t, vx.Insert(sx))

	ax := &registry.VersionRecord{
		Name: "ax", Layer: registry.LayerApplication,
		Rules: []registry.Rule{
			{Pairs: []registry.MatchPair{{Tag: 35, Value: "A"}}},
			{Pairs: []registry.MatchPair{{Tag: 35, Value: "0"}}},
		},
		DictionaryNames: []string{"ENGINE-TEST"},
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
