// Package codec implements the Codec component: the runtime Message/Field/
// Group model, the Parser (bytes -> Message), and the Assembler/Serializer
// (fields -> Message -> bytes).
//
// Grounded on the teacher's coreengine/envelope/generic.go generic tagged
// envelope (an ordered, mutable field collection addressed by key) and on
// commbus/messages.go's message-shape conventions, adapted from JSON-tagged
// struct fields to FIX's dynamic, dictionary-driven tag/value pairs.
package codec

import (
	"strconv"

	"github.com/recurry/versafix/wire"
)

// FieldInstance is (tag, content-as-string): §3's Field instance.
type FieldInstance struct {
	Tag   int
	Value string
}

// GroupInstance is (count-tag, ordered list of inner collections, one per
// repetition): §3's Group instance.
type GroupInstance struct {
	CountTag  int
	Instances []*Collection
}

// Collection is an ordered field/group collection: used for a message's
// header, body, trailer, and for the body of each group repetition. Order is
// carried explicitly as a tag sequence so serialization is deterministic.
type Collection struct {
	order  []int
	fields map[int]*FieldInstance
	groups map[int]*GroupInstance
}

// NewCollection returns an empty, ready-to-use Collection.
func NewCollection() *Collection {
	return &Collection{fields: map[int]*FieldInstance{}, groups: map[int]*GroupInstance{}}
}

// SetField inserts or overwrites a field in wire/insertion order.
func (c *Collection) SetField(tag int, value string) {
	if !c.has(tag) {
		c.order = append(c.order, tag)
	}
	c.fields[tag] = &FieldInstance{Tag: tag, Value: value}
}

// SetGroup inserts or overwrites a group in wire/insertion order.
func (c *Collection) SetGroup(tag int, g *GroupInstance) {
	if !c.has(tag) {
		c.order = append(c.order, tag)
	}
	c.groups[tag] = g
}

func (c *Collection) has(tag int) bool {
	if _, ok := c.fields[tag]; ok {
		return true
	}
	_, ok := c.groups[tag]
	return ok
}

// Field returns a field's string value.
func (c *Collection) Field(tag int) (string, bool) {
	f, ok := c.fields[tag]
	if !ok {
		return "", false
	}
	return f.Value, true
}

// Group returns a group's instances.
func (c *Collection) Group(tag int) (*GroupInstance, bool) {
	g, ok := c.groups[tag]
	return g, ok
}

// Tags returns the container's tags in their current order.
func (c *Collection) Tags() []int {
	out := make([]int, len(c.order))
	copy(out, c.order)
	return out
}

// Reorder installs order as the container's tag order: tags named in order
// that are present in the container come first (in that sequence); any tag
// already present but not named in order is appended afterward, in its
// previous relative position. Used by the assembler to install a resolved
// dictionary ordering (§4.4); unknown/user-defined tags end up at the tail.
func (c *Collection) Reorder(order []int) {
	installed := make([]int, 0, len(c.order))
	placed := make(map[int]bool, len(c.order))
	for _, tag := range order {
		if c.has(tag) && !placed[tag] {
			installed = append(installed, tag)
			placed[tag] = true
		}
	}
	for _, tag := range c.order {
		if !placed[tag] {
			installed = append(installed, tag)
			placed[tag] = true
		}
	}
	c.order = installed
}

// Serialize appends this container's fields/groups, in order, to dst.
func (c *Collection) Serialize(dst []byte) []byte {
	for _, tag := range c.order {
		if f, ok := c.fields[tag]; ok {
			dst = wire.AppendField(dst, tag, f.Value)
			continue
		}
		if g, ok := c.groups[tag]; ok {
			dst = wire.AppendField(dst, tag, strconv.Itoa(len(g.Instances)))
			for _, inst := range g.Instances {
				dst = inst.Serialize(dst)
			}
		}
	}
	return dst
}

// Message is the runtime FIX message: ordered header, body, trailer
// collections (§3 Message (runtime)).
type Message struct {
	Header  *Collection
	Body    *Collection
	Trailer *Collection
}

// NewMessage returns an empty message with initialized containers.
func NewMessage() *Message {
	return &Message{Header: NewCollection(), Body: NewCollection(), Trailer: NewCollection()}
}

// FieldValue looks up a field across header then body, the view the version
// matcher uses (§4.2: "the message's header+body fields"). It implements
// registry.FieldLookup without this package importing registry.
func (m *Message) FieldValue(tag int) (string, bool) {
	if v, ok := m.Header.Field(tag); ok {
		return v, true
	}
	if v, ok := m.Body.Field(tag); ok {
		return v, true
	}
	return "", false
}

// MsgType returns the header's MsgType(35) value, if set.
func (m *Message) MsgType() (string, bool) {
	return m.Header.Field(wire.TagMsgType)
}

// Serialize renders the message to wire bytes, recomputing BodyLength(9) and
// CheckSum(10) regardless of any values already present in those fields
// (§4.4: "BodyLength(9) and CheckSum(10) are recomputed on serialize; caller-
// supplied values are overridden").
func (m *Message) Serialize() []byte {
	begin, _ := m.Header.Field(wire.TagBeginString)

	var body []byte
	for _, tag := range m.Header.order {
		if tag == wire.TagBeginString || tag == wire.TagBodyLength {
			continue
		}
		body = serializeOne(body, m.Header, tag)
	}
	body = m.Body.Serialize(body)
	for _, tag := range m.Trailer.order {
		if tag == wire.TagCheckSum {
			continue
		}
		body = serializeOne(body, m.Trailer, tag)
	}

	out := wire.AppendField(nil, wire.TagBeginString, begin)
	out = wire.AppendField(out, wire.TagBodyLength, strconv.Itoa(len(body)))
	out = append(out, body...)

	cksum := wire.CheckSum(out)
	out = wire.AppendField(out, wire.TagCheckSum, cksum)
	return out
}

func serializeOne(dst []byte, c *Collection, tag int) []byte {
	if f, ok := c.fields[tag]; ok {
		return wire.AppendField(dst, tag, f.Value)
	}
	if g, ok := c.groups[tag]; ok {
		dst = wire.AppendField(dst, tag, strconv.Itoa(len(g.Instances)))
		for _, inst := range g.Instances {
			dst = inst.Serialize(dst)
		}
		return dst
	}
	return dst
}
