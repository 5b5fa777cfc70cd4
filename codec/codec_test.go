package codec

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recurry/versafix/dictionary"
	"github.com/recurry/versafix/registry"
)

func buildTestDictionary(t *testing.T) *dictionary.Dictionary {
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
		{Tag: 382, Name: "NoAllocs", Type: dictionary.TypeInt},
		{Tag: 375, Name: "AllocAccount", Type: dictionary.TypeString},
		{Tag: 337, Name: "AllocShares", Type: dictionary.TypeString},
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
	logon := &dictionary.Message{
		MsgType:  "A",
		Category: dictionary.CategoryAdmin,
		Body: []dictionary.ElementRef{
			{Kind: dictionary.RefField, FieldTag: 98, Required: true},
			{Kind: dictionary.RefField, FieldTag: 108, Required: true},
		},
	}
	allocGroup := dictionary.ElementRef{
		Kind: dictionary.RefGroup, GroupTag: 382, GroupName: "NoAllocs",
		Body: []dictionary.ElementRef{
			{Kind: dictionary.RefField, FieldTag: 375, Required: true},
			{Kind: dictionary.RefField, FieldTag: 337, Required: false},
		},
	}
	order := &dictionary.Message{
		MsgType:  "D",
		Category: dictionary.CategoryApp,
		Body:     []dictionary.ElementRef{allocGroup},
	}

	d, err := dictionary.NewDictionary("TEST", fields, nil, []*dictionary.Message{logon, order}, header, trailer)
	require.NoError(t, err)
	return d
}

func buildTestConfig(t *testing.T) ParserConfig {
	t.Helper()
	d := buildTestDictionary(t)
	dx := registry.NewDxRegistry()
	require.NoError(t, dx.Insert("TEST", d))

	vx := registry.NewVxRegistry()
	require.NoError(t, vx.Insert(&registry.VersionRecord{
		Name: "sx", Layer: registry.LayerSession,
		Rules:           []registry.Rule{{Pairs: []registry.MatchPair{{Tag: 8, Value: "FIX.4.2"}}}},
		DictionaryNames: []string{"TEST"},
	}))
	require.NoError(t, vx.Insert(&registry.VersionRecord{
		Name: "ax", Layer: registry.LayerApplication,
		Rules:           []registry.Rule{{Pairs: []registry.MatchPair{{Tag: 35, Value: "A"}}}, {Pairs: []registry.MatchPair{{Tag: 35, Value: "D"}}}},
		DictionaryNames: []string{"TEST"},
	}))

	return ParserConfig{
		SxMatcher: registry.NewVxMatcher(vx),
		AxMatcher: registry.NewVxMatcher(vx),
		Dx:        dx,
	}
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

func buildLogonBytes() []byte {
	body := soh("35=A|34=1|49=CLIENT|56=SERVER|98=0|108=30|")
	full := append([]byte("8=FIX.4.2"), 0x01)
	full = append(full, []byte("9="+strconv.Itoa(len(body)))...)
	full = append(full, 0x01)
	full = append(full, body...)
	ck := checksumOf(full)
	full = append(full, []byte("10="+ck)...)
	full = append(full, 0x01)
	return full
}

func checksumOf(buf []byte) string {
	sum := 0
	for _, b := range buf {
		sum += int(b)
	}
	v := sum % 256
	return string([]byte{byte('0' + v/100%10), byte('0' + v/10%10), byte('0' + v%10)})
}

func TestParseCompleteLogon(t *testing.T) {
	cfg := buildTestConfig(t)
	buf := buildLogonBytes()

	result := Parse(buf, cfg)
	require.Equal(t, ResultComplete, result.Kind)
	require.Equal(t, len(buf), result.BytesConsumed)

	msgType, ok := result.Message.MsgType()
	require.True(t, ok)
	require.Equal(t, "A", msgType)

	v, ok := result.Message.Body.Field(108)
	require.True(t, ok)
	require.Equal(t, "30", v)
}

func TestParseExhaustedOnTruncatedBuffer(t *testing.T) {
	cfg := buildTestConfig(t)
	buf := buildLogonBytes()
	result := Parse(buf[:len(buf)-5], cfg)
	require.Equal(t, ResultExhausted, result.Kind)
}

func TestParseMalformedOnBadChecksum(t *testing.T) {
	cfg := buildTestConfig(t)
	buf := buildLogonBytes()
	// Corrupt the checksum digits (last field, before trailing SOH).
	buf[len(buf)-2] = '9'
	result := Parse(buf, cfg)
	require.Equal(t, ResultMalformed, result.Kind)
	require.Equal(t, ReasonBadChecksum, result.MalformedReason)
}

func TestParseRepeatingGroup(t *testing.T) {
	cfg := buildTestConfig(t)
	body := soh("35=D|34=2|49=CLIENT|56=SERVER|382=2|375=a|337=x|375=b|337=y|")
	full := append([]byte("8=FIX.4.2"), 0x01)
	full = append(full, []byte("9="+strconv.Itoa(len(body)))...)
	full = append(full, 0x01)
	full = append(full, body...)
	ck := checksumOf(full)
	full = append(full, []byte("10="+ck)...)
	full = append(full, 0x01)

	result := Parse(full, cfg)
	require.Equal(t, ResultComplete, result.Kind)

	g, ok := result.Message.Body.Group(382)
	require.True(t, ok)
	require.Len(t, g.Instances, 2)
	v0, _ := g.Instances[0].Field(375)
	v1, _ := g.Instances[1].Field(375)
	require.Equal(t, "a", v0)
	require.Equal(t, "b", v1)
}

func TestSerializeRoundTrip(t *testing.T) {
	cfg := buildTestConfig(t)
	buf := buildLogonBytes()
	result := Parse(buf, cfg)
	require.Equal(t, ResultComplete, result.Kind)

	reserialized := result.Message.Serialize()
	again := Parse(reserialized, cfg)
	require.Equal(t, ResultComplete, again.Kind)
	v1, _ := result.Message.Body.Field(108)
	v2, _ := again.Message.Body.Field(108)
	require.Equal(t, v1, v2)
}

func TestAssemblerCreateMessage(t *testing.T) {
	d := buildTestDictionary(t)
	dx := registry.NewDxRegistry()
	require.NoError(t, dx.Insert("TEST", d))
	sxVersion := &registry.VersionRecord{Name: "sx", Layer: registry.LayerSession, DictionaryNames: []string{"TEST"}}
	axVersion := &registry.VersionRecord{Name: "ax", Layer: registry.LayerApplication, DictionaryNames: []string{"TEST"}}

	a := NewAssembler(dx)
	a.Set(8, "FIX.4.2")
	a.Set(34, "1")
	a.Set(49, "CLIENT")
	a.Set(56, "SERVER")
	a.Set(98, "0")
	a.Set(108, "30")

	msg, err := a.CreateMessage(sxVersion, axVersion, "A")
	require.NoError(t, err)

	out := msg.Serialize()
	cfg := buildTestConfig(t)
	result := Parse(out, cfg)
	require.Equal(t, ResultComplete, result.Kind)
	mt, _ := result.Message.MsgType()
	require.Equal(t, "A", mt)
}
