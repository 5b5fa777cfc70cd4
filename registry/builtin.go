package registry

import "github.com/recurry/versafix/dictionary"

// NewBuiltinRegistry builds a DxRegistry and VxRegistry pre-populated from
// dictionary's built-in session and application dictionaries, for tests and
// examples that need a working registry pair without authoring XML.
func NewBuiltinRegistry() (*DxRegistry, *VxRegistry, error) {
	sessionDict, err := dictionary.BuiltinSession()
	if err != nil {
		return nil, nil, err
	}
	appDict, err := dictionary.BuiltinApp()
	if err != nil {
		return nil, nil, err
	}

	dx := NewDxRegistry()
	if err := dx.Insert(dictionary.BuiltinSessionName, sessionDict); err != nil {
		return nil, nil, err
	}
	if err := dx.Insert(dictionary.BuiltinAppName, appDict); err != nil {
		return nil, nil, err
	}

	vx := NewVxRegistry()
	sx := &VersionRecord{
		Name:        "FIX.4.2-SX",
		Layer:       LayerSession,
		BeginString: "FIX.4.2",
		Rules: []Rule{
			{Name: "begin-string", Pairs: []MatchPair{{Tag: 8, Value: "FIX.4.2"}}},
		},
		DictionaryNames: []string{dictionary.BuiltinSessionName},
	}
	if err := vx.Insert(sx); err != nil {
		return nil, nil, err
	}

	ax := &VersionRecord{
		Name:  "FIX.4.2-AX",
		Layer: LayerApplication,
		Rules: []Rule{
			{Name: "new-order-single", Pairs: []MatchPair{{Tag: 35, Value: "D"}}},
		},
		DictionaryNames: []string{dictionary.BuiltinAppName},
	}
	if err := vx.Insert(ax); err != nil {
		return nil, nil, err
	}

	return dx, vx, nil
}
