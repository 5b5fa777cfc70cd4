package codec

import (
	"github.com/recurry/versafix/dictionary"
	"github.com/recurry/versafix/fixerrors"
	"github.com/recurry/versafix/registry"
	"github.com/recurry/versafix/wire"
)

// Assembler builds messages from user-supplied fields plus header/trailer
// templates drawn from dictionaries (§4.4). It holds a scratch map from
// tag -> value (and tag -> group) that populateHeader/populateTrailer/
// populateMessageBody read from, mirroring the spec's "scratch map" design.
type Assembler struct {
	Dx *registry.DxRegistry

	scratchFields map[int]string
	scratchGroups map[int]*GroupInstance
}

// NewAssembler returns an assembler with an empty scratch map.
func NewAssembler(dx *registry.DxRegistry) *Assembler {
	return &Assembler{Dx: dx, scratchFields: map[int]string{}, scratchGroups: map[int]*GroupInstance{}}
}

// Set stages a field value in the scratch map for the next createMessage or
// populate* call.
func (a *Assembler) Set(tag int, value string) {
	a.scratchFields[tag] = value
}

// SetGroup stages a group instance in the scratch map.
func (a *Assembler) SetGroup(tag int, g *GroupInstance) {
	a.scratchGroups[tag] = g
}

// Reset clears the scratch maps. Callers that build many messages from one
// Assembler (e.g. a session emitting several outbound messages in sequence)
// must call this between messages so a field staged for one message doesn't
// leak into the next.
func (a *Assembler) Reset() {
	a.scratchFields = map[int]string{}
	a.scratchGroups = map[int]*GroupInstance{}
}

func (a *Assembler) populate(dict *dictionary.Dictionary, resolved []dictionary.ResolvedElement, dst *Collection) {
	order := make([]int, 0, len(resolved))
	for _, el := range resolved {
		tag := el.Tag()
		order = append(order, tag)
		if el.IsField() {
			if v, ok := a.scratchFields[tag]; ok {
				dst.SetField(tag, v)
			}
			continue
		}
		if g, ok := a.scratchGroups[tag]; ok {
			dst.SetGroup(tag, g)
		}
	}
	dst.Reorder(order)
}

// PopulateHeader resolves sxVersion's primary dictionary, walks its header
// elements, copies matching scratch values into msg.Header, and installs the
// resolved ordering.
func (a *Assembler) PopulateHeader(sxVersion *registry.VersionRecord, msg *Message) error {
	dict, err := a.Dx.Get(sxVersion.PrimaryDictionary())
	if err != nil {
		return err
	}
	a.populate(dict, dict.ResolveHeader(), msg.Header)
	return nil
}

// PopulateTrailer is PopulateHeader's trailer analog.
func (a *Assembler) PopulateTrailer(sxVersion *registry.VersionRecord, msg *Message) error {
	dict, err := a.Dx.Get(sxVersion.PrimaryDictionary())
	if err != nil {
		return err
	}
	a.populate(dict, dict.ResolveTrailer(), msg.Trailer)
	return nil
}

// PopulateMessageBody resolves axVersion's primary dictionary's msgType
// message, walks its body elements, copies matching scratch values into
// msg.Body, and installs the resolved ordering. MsgType(35) is auto-set in
// the scratch for the duration of this call and restored to its prior value
// (or cleared) afterward, matching createMessage's documented behavior.
func (a *Assembler) PopulateMessageBody(axVersion *registry.VersionRecord, msgType string, msg *Message) error {
	dict, err := a.Dx.Get(axVersion.PrimaryDictionary())
	if err != nil {
		return err
	}
	resolved, ok := dict.ResolveMessage(msgType)
	if !ok {
		return fixerrors.NewUnknownMsgTypeError(msgType)
	}

	prior, hadPrior := a.scratchFields[wire.TagMsgType]
	a.scratchFields[wire.TagMsgType] = msgType
	a.populate(dict, resolved, msg.Body)
	if hadPrior {
		a.scratchFields[wire.TagMsgType] = prior
	} else {
		delete(a.scratchFields, wire.TagMsgType)
	}
	return nil
}

// CreateMessage builds a full message (header, body, trailer, in order) for
// msgType under the given session/application versions.
func (a *Assembler) CreateMessage(sxVersion, axVersion *registry.VersionRecord, msgType string) (*Message, error) {
	if sxVersion == nil {
		return nil, fixerrors.NewUnknownVersionError()
	}
	if axVersion == nil {
		return nil, fixerrors.NewUnknownVersionError()
	}
	msg := NewMessage()
	if err := a.PopulateHeader(sxVersion, msg); err != nil {
		return nil, err
	}
	if err := a.PopulateMessageBody(axVersion, msgType, msg); err != nil {
		return nil, err
	}
	if err := a.PopulateTrailer(sxVersion, msg); err != nil {
		return nil, err
	}
	msg.Header.SetField(wire.TagMsgType, msgType)
	return msg, nil
}
