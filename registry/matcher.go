package registry

// FieldLookup is the minimal view of a parsed message the matcher needs:
// look up a field's string value by tag, across header and body. The codec's
// runtime Message type implements this; registry never imports codec, so the
// matcher takes the interface instead of a concrete message type.
type FieldLookup interface {
	FieldValue(tag int) (string, bool)
}

// VxMatcher selects the best-matching version record at a requested layer.
// Construct with NewVxMatcher(registry); it reads the registry's records for
// the requested layer on every call, so records inserted later are seen.
type VxMatcher struct {
	registry *VxRegistry
}

// NewVxMatcher builds a matcher over registry.
func NewVxMatcher(registry *VxRegistry) *VxMatcher {
	return &VxMatcher{registry: registry}
}

// satisfies reports whether every pair of rule appears verbatim in msg.
func satisfies(rule Rule, msg FieldLookup) bool {
	for _, pair := range rule.Pairs {
		v, ok := msg.FieldValue(pair.Tag)
		if !ok || v != pair.Value {
			return false
		}
	}
	return true
}

// matches reports whether at least one of record's rules is satisfied.
// A record with no rules never matches (an empty rule set can't express
// "always match"; callers that want an unconditional fallback register a
// record with a rule of trivially-always-present pairs, e.g. BeginString).
func matches(record *VersionRecord, msg FieldLookup) bool {
	for _, rule := range record.Rules {
		if satisfies(rule, msg) {
			return true
		}
	}
	return false
}

// GetVersion scans layer's records in registration order and returns the
// first whose rule set is satisfied by msg. Ties are broken by registration
// order (first match wins).
func (m *VxMatcher) GetVersion(msg FieldLookup, layer Layer) (*VersionRecord, bool) {
	for _, record := range m.registry.byLayer(layer) {
		if matches(record, msg) {
			return record, true
		}
	}
	return nil, false
}

// GetSxVersion is GetVersion(msg, LayerSession).
func (m *VxMatcher) GetSxVersion(msg FieldLookup) (*VersionRecord, bool) {
	return m.GetVersion(msg, LayerSession)
}

// GetAxVersion tries application, then combined, then session, in that
// order, returning the first layer with a satisfied record.
func (m *VxMatcher) GetAxVersion(msg FieldLookup) (*VersionRecord, bool) {
	for _, layer := range []Layer{LayerApplication, LayerCombined, LayerSession} {
		if v, ok := m.GetVersion(msg, layer); ok {
			return v, true
		}
	}
	return nil, false
}
