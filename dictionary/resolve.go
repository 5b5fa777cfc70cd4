package dictionary

import (
	"sync"

	"github.com/recurry/versafix/fixerrors"
)

// Dictionary is {fields, components, messages, header, trailer}. Construct
// with NewDictionary, which validates invariants and eagerly resolves every
// container so that DictionaryError surfaces at load time rather than on
// first use.
type Dictionary struct {
	Name       string
	fields     map[int]*Field
	components map[string]*Component
	messages   map[string]*Message
	header     []ElementRef
	trailer    []ElementRef

	mu            sync.RWMutex
	resolvedCache map[string][]ResolvedElement
}

// NewDictionary validates the dictionary's invariants (§3):
//   - every element reference resolves to a defined field or component
//   - tags are unique within any single container
//   - header starts with BeginString(8), BodyLength(9), MsgType(35)
//   - trailer ends with CheckSum(10)
//   - component references are acyclic
//
// and eagerly resolves header, trailer, every component and every message so
// that a DictionaryError is returned here instead of surfacing lazily from
// Resolve.
func NewDictionary(name string, fields []*Field, components []*Component, messages []*Message, header, trailer []ElementRef) (*Dictionary, error) {
	d := &Dictionary{
		Name:          name,
		fields:        make(map[int]*Field, len(fields)),
		components:    make(map[string]*Component, len(components)),
		messages:      make(map[string]*Message, len(messages)),
		header:        header,
		trailer:       trailer,
		resolvedCache: make(map[string][]ResolvedElement),
	}
	for _, f := range fields {
		d.fields[f.Tag] = f
	}
	for _, c := range components {
		d.components[c.Name] = c
	}
	for _, m := range messages {
		d.messages[m.MsgType] = m
	}

	if err := requireHeaderPrefix(header); err != nil {
		return nil, err
	}
	if err := requireTrailerSuffix(trailer); err != nil {
		return nil, err
	}
	if err := checkDuplicateTags("header", header); err != nil {
		return nil, err
	}
	if err := checkDuplicateTags("trailer", trailer); err != nil {
		return nil, err
	}
	for _, c := range components {
		if err := checkDuplicateTags("component:"+c.Name, c.Body); err != nil {
			return nil, err
		}
	}
	for _, m := range messages {
		if err := checkDuplicateTags("message:"+m.MsgType, m.Body); err != nil {
			return nil, err
		}
	}

	// Eagerly resolve everything so unknown references and cycles are
	// reported now, not on first parse.
	if _, err := d.resolveRefs("header", header, map[string]bool{}, false); err != nil {
		return nil, err
	}
	if _, err := d.resolveRefs("trailer", trailer, map[string]bool{}, false); err != nil {
		return nil, err
	}
	for _, c := range components {
		if _, err := d.resolveComponent(c.Name, map[string]bool{}); err != nil {
			return nil, err
		}
	}
	for _, m := range messages {
		if _, err := d.resolveRefs("message:"+m.MsgType, m.Body, map[string]bool{}, false); err != nil {
			return nil, err
		}
	}
	// Clear the cache: later Resolve* calls re-walk each container once and
	// cache that result.
	d.resolvedCache = map[string][]ResolvedElement{}
	return d, nil
}

func requireHeaderPrefix(header []ElementRef) error {
	want := []int{8, 9, 35}
	if len(header) < len(want) {
		return fixerrors.NewMissingMandatoryError("header", want[len(header)])
	}
	for i, tag := range want {
		if header[i].Kind != RefField || header[i].FieldTag != tag {
			return fixerrors.NewMissingMandatoryError("header", tag)
		}
	}
	return nil
}

func requireTrailerSuffix(trailer []ElementRef) error {
	if len(trailer) == 0 {
		return fixerrors.NewMissingMandatoryError("trailer", 10)
	}
	last := trailer[len(trailer)-1]
	if last.Kind != RefField || last.FieldTag != 10 {
		return fixerrors.NewMissingMandatoryError("trailer", 10)
	}
	return nil
}

func checkDuplicateTags(container string, refs []ElementRef) error {
	seen := map[int]bool{}
	for _, r := range refs {
		var tag int
		switch r.Kind {
		case RefField:
			tag = r.FieldTag
		case RefGroup:
			tag = r.GroupTag
		default:
			continue
		}
		if seen[tag] {
			return fixerrors.NewDuplicateTagError(container, tag)
		}
		seen[tag] = true
	}
	return nil
}

// GetField looks up a field definition by tag. O(1).
func (d *Dictionary) GetField(tag int) (*Field, bool) {
	f, ok := d.fields[tag]
	return f, ok
}

// GetMessageByType looks up a message definition by MsgType(35) value. O(1).
func (d *Dictionary) GetMessageByType(msgType string) (*Message, bool) {
	m, ok := d.messages[msgType]
	return m, ok
}

// ResolveHeader returns the dictionary's resolved header element list.
func (d *Dictionary) ResolveHeader() []ResolvedElement {
	return d.resolveCached("header", func() []ResolvedElement {
		r, _ := d.resolveRefs("header", d.header, map[string]bool{}, false)
		return r
	})
}

// ResolveTrailer returns the dictionary's resolved trailer element list.
func (d *Dictionary) ResolveTrailer() []ResolvedElement {
	return d.resolveCached("trailer", func() []ResolvedElement {
		r, _ := d.resolveRefs("trailer", d.trailer, map[string]bool{}, false)
		return r
	})
}

// ResolveMessage returns the resolved body element list for msgType, or
// ok=false if no such message is defined.
func (d *Dictionary) ResolveMessage(msgType string) ([]ResolvedElement, bool) {
	m, ok := d.messages[msgType]
	if !ok {
		return nil, false
	}
	key := "message:" + msgType
	return d.resolveCached(key, func() []ResolvedElement {
		r, _ := d.resolveRefs(key, m.Body, map[string]bool{}, false)
		return r
	}), true
}

func (d *Dictionary) resolveCached(key string, compute func() []ResolvedElement) []ResolvedElement {
	d.mu.RLock()
	if r, ok := d.resolvedCache[key]; ok {
		d.mu.RUnlock()
		return r
	}
	d.mu.RUnlock()

	r := compute()

	d.mu.Lock()
	d.resolvedCache[key] = r
	d.mu.Unlock()
	return r
}

func (d *Dictionary) resolveComponent(name string, stack map[string]bool) ([]ResolvedElement, error) {
	key := "component:" + name
	d.mu.RLock()
	if r, ok := d.resolvedCache[key]; ok {
		d.mu.RUnlock()
		return r, nil
	}
	d.mu.RUnlock()

	c, ok := d.components[name]
	if !ok {
		return nil, fixerrors.NewUnknownReferenceError("component-ref", 0)
	}
	r, err := d.resolveRefs(key, c.Body, stack, true)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.resolvedCache[key] = r
	d.mu.Unlock()
	return r, nil
}

// resolveRefs expands refs in order for the given container, inlining
// component references and recursing into group bodies (without flattening
// the group itself). stack tracks component names currently being expanded,
// on this call chain, to detect cycles. inComponent is true when refs is a
// component's body: its elements then start with ContainerRequired=true, and
// each enclosing component reference ANDs in its own flag via cascadeRequired.
func (d *Dictionary) resolveRefs(container string, refs []ElementRef, stack map[string]bool, inComponent bool) ([]ResolvedElement, error) {
	out := make([]ResolvedElement, 0, len(refs))
	for _, ref := range refs {
		switch ref.Kind {
		case RefField:
			f, ok := d.fields[ref.FieldTag]
			if !ok {
				return nil, fixerrors.NewUnknownReferenceError(container, ref.FieldTag)
			}
			out = append(out, ResolvedElement{Field: &ResolvedField{
				Tag:               f.Tag,
				Name:              f.Name,
				Type:              f.Type,
				Required:          ref.Required,
				ContainerRequired: ref.Required || inComponent,
			}})

		case RefGroup:
			if len(ref.Body) == 0 || ref.Body[0].Kind != RefField {
				return nil, fixerrors.NewUnknownReferenceError(container, ref.GroupTag)
			}
			body, err := d.resolveRefs(container, ref.Body, stack, false)
			if err != nil {
				return nil, err
			}
			out = append(out, ResolvedElement{Group: &ResolvedGroup{
				Tag:               ref.GroupTag,
				Name:              ref.GroupName,
				Required:          ref.Required,
				ContainerRequired: ref.Required || inComponent,
				DelimiterTag:      ref.Body[0].FieldTag,
				Body:              body,
			}})

		case RefComponent:
			if stack[ref.ComponentName] {
				path := make([]string, 0, len(stack)+1)
				for name := range stack {
					path = append(path, name)
				}
				path = append(path, ref.ComponentName)
				return nil, fixerrors.NewCycleError(path)
			}
			if _, ok := d.components[ref.ComponentName]; !ok {
				return nil, fixerrors.NewUnknownReferenceError(container, 0)
			}
			stack[ref.ComponentName] = true
			inlined, err := d.resolveComponent(ref.ComponentName, stack)
			delete(stack, ref.ComponentName)
			if err != nil {
				return nil, err
			}
			for _, el := range inlined {
				out = append(out, cascadeRequired(el, ref.Required))
			}
		}
	}
	return out, nil
}

// cascadeRequired applies a component reference's Required flag to an
// already-resolved element's ContainerRequired, preserving the element's own
// intrinsic Required flag untouched.
func cascadeRequired(el ResolvedElement, outerRequired bool) ResolvedElement {
	if el.Field != nil {
		f := *el.Field
		f.ContainerRequired = f.ContainerRequired && outerRequired
		return ResolvedElement{Field: &f}
	}
	g := *el.Group
	g.ContainerRequired = g.ContainerRequired && outerRequired
	return ResolvedElement{Group: &g}
}
