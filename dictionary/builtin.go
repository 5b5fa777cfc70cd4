package dictionary

import "sync"

// Built-in dictionary names, registered lazily by BuiltinSession/BuiltinApp.
const (
	BuiltinSessionName = "FIX.4.2-ADMIN"
	BuiltinAppName     = "FIX.4.2-ORDERS"
)

var (
	builtinOnce    sync.Once
	builtinSession *Dictionary
	builtinApp     *Dictionary
	builtinErr     error
)

// BuiltinSession returns a trimmed FIX.4.2 admin-only dictionary covering
// Logon, Heartbeat, TestRequest, ResendRequest, Reject, SequenceReset and
// Logout plus the standard header/trailer. Built as a Go literal at first
// use, not parsed from XML: XML loading is the external collaborator per
// spec.md §1/§6, the dictionary model and resolve() are in scope.
func BuiltinSession() (*Dictionary, error) {
	buildBuiltins()
	return builtinSession, builtinErr
}

// BuiltinApp returns a tiny application dictionary with one repeating-group
// message, a NewOrderSingle analog carrying a two-level NoAllocs-style
// group, adequate to exercise repeating-group parsing and the resolver's
// group recursion.
func BuiltinApp() (*Dictionary, error) {
	buildBuiltins()
	return builtinApp, builtinErr
}

func buildBuiltins() {
	builtinOnce.Do(func() {
		builtinSession, builtinErr = buildBuiltinSession()
		if builtinErr != nil {
			return
		}
		builtinApp, builtinErr = buildBuiltinApp()
	})
}

func buildBuiltinSession() (*Dictionary, error) {
	fields := []*Field{
		{Tag: 8, Name: "BeginString", Type: TypeString},
		{Tag: 9, Name: "BodyLength", Type: TypeLength},
		{Tag: 35, Name: "MsgType", Type: TypeString},
		{Tag: 34, Name: "MsgSeqNum", Type: TypeInt},
		{Tag: 49, Name: "SenderCompID", Type: TypeString},
		{Tag: 56, Name: "TargetCompID", Type: TypeString},
		{Tag: 52, Name: "SendingTime", Type: TypeUTCTimestamp},
		{Tag: 43, Name: "PossDupFlag", Type: TypeBoolean},
		{Tag: 97, Name: "PossResend", Type: TypeBoolean},
		{Tag: 98, Name: "EncryptMethod", Type: TypeInt},
		{Tag: 108, Name: "HeartBtInt", Type: TypeInt},
		{Tag: 112, Name: "TestReqID", Type: TypeString},
		{Tag: 123, Name: "GapFillFlag", Type: TypeBoolean},
		{Tag: 36, Name: "NewSeqNo", Type: TypeInt},
		{Tag: 7, Name: "BeginSeqNo", Type: TypeInt},
		{Tag: 16, Name: "EndSeqNo", Type: TypeInt},
		{Tag: 58, Name: "Text", Type: TypeString},
		{Tag: 45, Name: "RefSeqNum", Type: TypeInt},
		{Tag: 371, Name: "RefTagID", Type: TypeInt},
		{Tag: 372, Name: "RefMsgType", Type: TypeString},
		{Tag: 373, Name: "SessionRejectReason", Type: TypeInt},
		{Tag: 789, Name: "NextExpectedMsgSeqNum", Type: TypeInt},
		{Tag: 10, Name: "CheckSum", Type: TypeString},
	}

	header := []ElementRef{
		{Kind: RefField, FieldTag: 8, Required: true},
		{Kind: RefField, FieldTag: 9, Required: true},
		{Kind: RefField, FieldTag: 35, Required: true},
		{Kind: RefField, FieldTag: 49, Required: true},
		{Kind: RefField, FieldTag: 56, Required: true},
		{Kind: RefField, FieldTag: 34, Required: true},
		{Kind: RefField, FieldTag: 52, Required: true},
		{Kind: RefField, FieldTag: 43, Required: false},
		{Kind: RefField, FieldTag: 97, Required: false},
	}
	trailer := []ElementRef{
		{Kind: RefField, FieldTag: 10, Required: true},
	}

	messages := []*Message{
		{MsgType: "A", Category: CategoryAdmin, Body: []ElementRef{
			{Kind: RefField, FieldTag: 98, Required: true},
			{Kind: RefField, FieldTag: 108, Required: true},
		}},
		{MsgType: "0", Category: CategoryAdmin, Body: []ElementRef{
			{Kind: RefField, FieldTag: 112, Required: false},
		}},
		{MsgType: "1", Category: CategoryAdmin, Body: []ElementRef{
			{Kind: RefField, FieldTag: 112, Required: true},
		}},
		{MsgType: "2", Category: CategoryAdmin, Body: []ElementRef{
			{Kind: RefField, FieldTag: 7, Required: true},
			{Kind: RefField, FieldTag: 16, Required: true},
		}},
		{MsgType: "3", Category: CategoryAdmin, Body: []ElementRef{
			{Kind: RefField, FieldTag: 45, Required: true},
			{Kind: RefField, FieldTag: 371, Required: false},
			{Kind: RefField, FieldTag: 372, Required: false},
			{Kind: RefField, FieldTag: 373, Required: false},
			{Kind: RefField, FieldTag: 58, Required: false},
		}},
		{MsgType: "4", Category: CategoryAdmin, Body: []ElementRef{
			{Kind: RefField, FieldTag: 36, Required: true},
			{Kind: RefField, FieldTag: 123, Required: false},
		}},
		{MsgType: "5", Category: CategoryAdmin, Body: []ElementRef{
			{Kind: RefField, FieldTag: 58, Required: false},
			{Kind: RefField, FieldTag: 789, Required: false},
		}},
	}

	return NewDictionary(BuiltinSessionName, fields, nil, messages, header, trailer)
}

// buildBuiltinApp defines a NewOrderSingle analog (MsgType "D") with a
// two-level repeating group: NoAllocs(78) of AllocAccount(79), each carrying
// a nested NoNestedPartyIDs(539)-style single-field group so the resolver's
// group-within-group recursion has something to walk.
func buildBuiltinApp() (*Dictionary, error) {
	fields := []*Field{
		{Tag: 8, Name: "BeginString", Type: TypeString},
		{Tag: 9, Name: "BodyLength", Type: TypeLength},
		{Tag: 35, Name: "MsgType", Type: TypeString},
		{Tag: 34, Name: "MsgSeqNum", Type: TypeInt},
		{Tag: 49, Name: "SenderCompID", Type: TypeString},
		{Tag: 56, Name: "TargetCompID", Type: TypeString},
		{Tag: 52, Name: "SendingTime", Type: TypeUTCTimestamp},
		{Tag: 11, Name: "ClOrdID", Type: TypeString},
		{Tag: 55, Name: "Symbol", Type: TypeString},
		{Tag: 54, Name: "Side", Type: TypeChar, Enums: []Enum{
			{Value: "1", Label: "Buy"}, {Value: "2", Label: "Sell"},
		}},
		{Tag: 38, Name: "OrderQty", Type: TypeFloat},
		{Tag: 40, Name: "OrdType", Type: TypeChar},
		{Tag: 78, Name: "NoAllocs", Type: TypeInt},
		{Tag: 79, Name: "AllocAccount", Type: TypeString},
		{Tag: 539, Name: "NoNestedPartyIDs", Type: TypeInt},
		{Tag: 524, Name: "NestedPartyID", Type: TypeString},
		{Tag: 10, Name: "CheckSum", Type: TypeString},
	}

	header := []ElementRef{
		{Kind: RefField, FieldTag: 8, Required: true},
		{Kind: RefField, FieldTag: 9, Required: true},
		{Kind: RefField, FieldTag: 35, Required: true},
		{Kind: RefField, FieldTag: 49, Required: true},
		{Kind: RefField, FieldTag: 56, Required: true},
		{Kind: RefField, FieldTag: 34, Required: true},
		{Kind: RefField, FieldTag: 52, Required: true},
	}
	trailer := []ElementRef{
		{Kind: RefField, FieldTag: 10, Required: true},
	}

	nestedPartyGroup := ElementRef{
		Kind: RefGroup, GroupTag: 539, GroupName: "NoNestedPartyIDs", Required: false,
		Body: []ElementRef{
			{Kind: RefField, FieldTag: 524, Required: true},
		},
	}

	allocsGroup := ElementRef{
		Kind: RefGroup, GroupTag: 78, GroupName: "NoAllocs", Required: false,
		Body: []ElementRef{
			{Kind: RefField, FieldTag: 79, Required: true},
			nestedPartyGroup,
		},
	}

	newOrderSingle := &Message{MsgType: "D", Category: CategoryApp, Body: []ElementRef{
		{Kind: RefField, FieldTag: 11, Required: true},
		{Kind: RefField, FieldTag: 55, Required: true},
		{Kind: RefField, FieldTag: 54, Required: true},
		{Kind: RefField, FieldTag: 38, Required: true},
		{Kind: RefField, FieldTag: 40, Required: true},
		allocsGroup,
	}}

	return NewDictionary(BuiltinAppName, fields, nil, []*Message{newOrderSingle}, header, trailer)
}
