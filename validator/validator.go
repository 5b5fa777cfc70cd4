// Package validator implements the Validator component: it compares a parsed
// message against the resolved element layout of its matched message type
// and produces a per-field result tree (present, missing, out-of-sequence,
// user-defined, group present/invalid).
//
// The queue-driven walk mirrors the teacher's state-machine idiom in
// coreengine/kernel/lifecycle.go (an ordered pass over expected states,
// falling back to an explicit "unexpected" outcome rather than failing the
// whole walk), adapted here to a three-phase expected-element queue.
package validator

import (
	"github.com/recurry/versafix/codec"
	"github.com/recurry/versafix/dictionary"
)

// FieldCode enumerates the outcome of a single expected field against the
// source message (§4.5).
type FieldCode string

const (
	FieldPresent       FieldCode = "present"
	FieldMissing       FieldCode = "missing"
	FieldOutOfSequence FieldCode = "out_of_sequence"
	FieldUserDefined   FieldCode = "user_defined"
	FieldInvalid       FieldCode = "invalid"
)

// GroupCode enumerates the outcome of an expected group against the source
// message.
type GroupCode string

const (
	GroupPresent GroupCode = "present"
	GroupMissing GroupCode = "missing"
	GroupInvalid GroupCode = "invalid"
)

// FieldResult is one leaf of the validation tree: an expected (or
// user-defined) field and its outcome.
type FieldResult struct {
	Tag      int
	Name     string
	Required bool
	Code     FieldCode
	Value    string
}

// GroupResult is one group node of the validation tree: the group's own
// outcome plus one result-list per decoded repetition.
type GroupResult struct {
	Tag       int
	Name      string
	Required  bool
	Code      GroupCode
	Instances [][]Result
}

// Result is a tagged union over FieldResult/GroupResult, preserving source
// order at the leaves (§4.5 "Output: a tree of results").
type Result struct {
	Field *FieldResult
	Group *GroupResult
}

func fieldResult(r *FieldResult) Result { return Result{Field: r} }
func groupResult(r *GroupResult) Result { return Result{Group: r} }

// expectedItem is one slot in the phase queue: either a resolved field or a
// resolved group, not yet matched against the source.
type expectedItem struct {
	field *dictionary.ResolvedField
	group *dictionary.ResolvedGroup
}

func (e expectedItem) tag() int {
	if e.field != nil {
		return e.field.Tag
	}
	return e.group.Tag
}

func (e expectedItem) name() string {
	if e.field != nil {
		return e.field.Name
	}
	return e.group.Name
}

func (e expectedItem) required() bool {
	if e.field != nil {
		return e.field.Required || e.field.ContainerRequired
	}
	return e.group.Required || e.group.ContainerRequired
}

// Validate compares msg against headerDict/bodyDict/trailerDict's resolved
// layouts for msgType and returns header, body, trailer result lists.
func Validate(msg *codec.Message, headerDict *dictionary.Dictionary, bodyDict *dictionary.Dictionary, msgType string, trailerDict *dictionary.Dictionary) (header, body, trailer []Result, ok bool) {
	bodyElements, found := bodyDict.ResolveMessage(msgType)
	if !found {
		return nil, nil, nil, false
	}
	header = walkContainer(msg.Header, headerDict.ResolveHeader())
	body = walkContainer(msg.Body, bodyElements)
	trailer = walkContainer(msg.Trailer, trailerDict.ResolveTrailer())
	return header, body, trailer, true
}

// walkContainer runs the §4.5 queue algorithm for one container (header,
// body, or trailer) against its resolved expected-element list.
func walkContainer(src *codec.Collection, expected []dictionary.ResolvedElement) []Result {
	queue := make([]expectedItem, 0, len(expected))
	for _, el := range expected {
		if el.IsField() {
			queue = append(queue, expectedItem{field: el.Field})
		} else {
			queue = append(queue, expectedItem{group: el.Group})
		}
	}

	results := make([]Result, 0, len(queue))
	placeholderIdx := make(map[int]int)           // tag -> index into results, for already-emitted Missing placeholders
	placeholderItem := make(map[int]expectedItem) // tag -> the expected element that placeholder stands for
	qi := 0

	for _, tag := range src.Tags() {
		if idx, ok := placeholderIdx[tag]; ok {
			earlierRequiredMissing := false
			for t, i := range placeholderIdx {
				if i < idx && placeholderItem[t].required() {
					earlierRequiredMissing = true
				}
			}
			results[idx] = fillPlaceholder(placeholderItem[tag], src, tag, earlierRequiredMissing)
			delete(placeholderIdx, tag)
			delete(placeholderItem, tag)
			continue
		}

		matched := false
		for qi < len(queue) {
			item := queue[qi]
			qi++
			if item.tag() == tag {
				results = append(results, matchedResult(item, src, tag))
				matched = true
				break
			}
			idx := len(results)
			results = append(results, missingResult(item))
			placeholderIdx[item.tag()] = idx
			placeholderItem[item.tag()] = item
		}
		if matched {
			continue
		}

		// Tag exhausted the expected queue entirely: not in the layout.
		if _, ok := src.Field(tag); ok {
			v, _ := src.Field(tag)
			results = append(results, fieldResult(&FieldResult{Tag: tag, Code: FieldUserDefined, Value: v}))
		} else {
			results = append(results, fieldResult(&FieldResult{Tag: tag, Code: FieldUserDefined}))
		}
	}

	// Any remaining queue items never appeared in the source at all.
	for ; qi < len(queue); qi++ {
		results = append(results, missingResult(queue[qi]))
	}

	return results
}

func matchedResult(item expectedItem, src *codec.Collection, tag int) Result {
	if item.field != nil {
		v, _ := src.Field(tag)
		return fieldResult(&FieldResult{Tag: tag, Name: item.field.Name, Required: item.required(), Code: FieldPresent, Value: v})
	}
	g, _ := src.Group(tag)
	return groupResult(validateGroup(item.group, g))
}

func missingResult(item expectedItem) Result {
	if item.field != nil {
		return fieldResult(&FieldResult{Tag: item.field.Tag, Name: item.field.Name, Required: item.required(), Code: FieldMissing})
	}
	return groupResult(&GroupResult{Tag: item.group.Tag, Name: item.group.Name, Required: item.required(), Code: GroupMissing})
}

// fillPlaceholder fills a previously-emitted Missing placeholder in place;
// if any earlier required placeholder is still Missing, the fill is marked
// OutOfSequence rather than Present (§4.5).
func fillPlaceholder(item expectedItem, src *codec.Collection, tag int, anyRequiredMissing bool) Result {
	if item.field != nil {
		code := FieldPresent
		if anyRequiredMissing {
			code = FieldOutOfSequence
		}
		v, _ := src.Field(tag)
		return fieldResult(&FieldResult{Tag: tag, Name: item.field.Name, Required: item.required(), Code: code, Value: v})
	}
	g, _ := src.Group(tag)
	return groupResult(validateGroup(item.group, g))
}

// validateGroup clones the group's body as a template for each decoded
// repetition and recurses (§4.5). The count itself was already decoded by
// the parser when it built inst; a non-integer count never reaches here
// because the parser rejects it as MsgMalformed/GroupCountMismatch before a
// Message (and therefore a GroupInstance) exists.
func validateGroup(group *dictionary.ResolvedGroup, inst *codec.GroupInstance) *GroupResult {
	if inst == nil {
		return &GroupResult{Tag: group.Tag, Name: group.Name, Required: group.Required || group.ContainerRequired, Code: GroupMissing}
	}

	instances := make([][]Result, 0, len(inst.Instances))
	for _, rep := range inst.Instances {
		instances = append(instances, walkContainer(rep, group.Body))
	}
	return &GroupResult{
		Tag:       group.Tag,
		Name:      group.Name,
		Required:  group.Required || group.ContainerRequired,
		Code:      GroupPresent,
		Instances: instances,
	}
}
