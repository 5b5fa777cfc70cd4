package codec

import (
	"strconv"

	"github.com/recurry/versafix/dictionary"
	"github.com/recurry/versafix/registry"
	"github.com/recurry/versafix/wire"
)

// ResultKind discriminates the parser's output (§4.3). Go has no sum types,
// so the parser returns one ParseResult struct tagged by Kind rather than a
// variant; callers switch on Kind the way the rest of this codebase switches
// on string-enum fields (see dictionary.Category, registry.Layer).
type ResultKind string

const (
	ResultComplete      ResultKind = "complete"
	ResultExhausted     ResultKind = "exhausted"
	ResultMalformed     ResultKind = "malformed"
	ResultIncomplete    ResultKind = "incomplete"
	ResultUnkSxProtocol ResultKind = "unknown_session_protocol"
	ResultUnkAxProtocol ResultKind = "unknown_application_protocol"
)

// MalformedReason enumerates structural parse failures.
type MalformedReason string

const (
	ReasonBadBeginString     MalformedReason = "bad_begin_string"
	ReasonBadBodyLength      MalformedReason = "bad_body_length"
	ReasonBadChecksum        MalformedReason = "bad_checksum"
	ReasonBadSOH             MalformedReason = "bad_soh"
	ReasonGroupCountMismatch MalformedReason = "group_count_mismatch"
)

// IncompleteReason enumerates protocol-invariant violations in an otherwise
// structurally sound message.
type IncompleteReason string

const (
	ReasonMissingMsgType   IncompleteReason = "missing_msg_type"
	ReasonMissingCheckSum  IncompleteReason = "missing_checksum"
	ReasonMissingMandatory IncompleteReason = "missing_mandatory_header"
)

// ParseResult is the parser's output for one attempt starting at offset 0 of
// the buffer handed to Parse.
type ParseResult struct {
	Kind             ResultKind
	Message          *Message
	BytesConsumed    int
	MalformedReason  MalformedReason
	IncompleteReason IncompleteReason
	Detail           string
}

// ParserConfig configures one Parse call: the session-layer matcher resolves
// BeginString to a session dictionary; the application-layer matcher resolves
// MsgType/ApplVerID to an application dictionary, per §4.2's getSxVersion/
// getAxVersion split. Dx resolves the dictionary names either matcher's
// version records carry.
type ParserConfig struct {
	SxMatcher               *registry.VxMatcher
	AxMatcher                *registry.VxMatcher
	Dx                       *registry.DxRegistry
	StrictGroupTermination   bool
}

// singleFieldLookup is a registry.FieldLookup exposing only BeginString, used to
// resolve the session version before anything else has been parsed.
type singleFieldLookup struct {
	tag   int
	value string
}

func (s singleFieldLookup) FieldValue(tag int) (string, bool) {
	if tag == s.tag {
		return s.value, true
	}
	return "", false
}

// Parse decodes one message starting at buf[0]. It never reads past a
// preceding call's BytesConsumed; callers resubmit the unconsumed remainder
// on ResultExhausted.
func Parse(buf []byte, cfg ParserConfig) ParseResult {
	begin, afterBegin, ok := wire.ScanField(buf, 0)
	if !ok {
		return ParseResult{Kind: ResultExhausted}
	}
	if begin.Tag != wire.TagBeginString {
		return ParseResult{Kind: ResultMalformed, MalformedReason: ReasonBadBeginString, Detail: "first field is not tag 8"}
	}

	sxVersion, ok := cfg.SxMatcher.GetSxVersion(singleFieldLookup{wire.TagBeginString, begin.Value})
	if !ok {
		return ParseResult{Kind: ResultUnkSxProtocol, Detail: begin.Value}
	}
	sessionDict, err := cfg.Dx.Get(sxVersion.PrimaryDictionary())
	if err != nil {
		return ParseResult{Kind: ResultUnkSxProtocol, Detail: err.Error()}
	}

	bodyLenField, afterBodyLen, ok := wire.ScanField(buf, afterBegin)
	if !ok {
		return ParseResult{Kind: ResultExhausted}
	}
	if bodyLenField.Tag != wire.TagBodyLength {
		return ParseResult{Kind: ResultMalformed, MalformedReason: ReasonBadBodyLength, Detail: "field 9 did not immediately follow field 8"}
	}
	bodyLen, convErr := strconv.Atoi(bodyLenField.Value)
	if convErr != nil || bodyLen < 0 {
		return ParseResult{Kind: ResultMalformed, MalformedReason: ReasonBadBodyLength, Detail: bodyLenField.Value}
	}

	bodyEnd := afterBodyLen + bodyLen
	if bodyEnd > len(buf) {
		return ParseResult{Kind: ResultExhausted}
	}
	cksumField, afterCksum, ok := wire.ScanField(buf, bodyEnd)
	if !ok {
		return ParseResult{Kind: ResultExhausted}
	}
	if cksumField.Tag != wire.TagCheckSum {
		return ParseResult{Kind: ResultMalformed, MalformedReason: ReasonBadChecksum, Detail: "field after body is not tag 10"}
	}

	computed := wire.CheckSum(buf[:bodyEnd])
	if computed != cksumField.Value {
		return ParseResult{Kind: ResultMalformed, MalformedReason: ReasonBadChecksum, Detail: "expected " + computed + " got " + cksumField.Value}
	}

	msg := NewMessage()
	headerResolved := sessionDict.ResolveHeader()

	headerBodyBoundary := []int{}
	for _, el := range headerResolved {
		headerBodyBoundary = append(headerBodyBoundary, el.Tag())
	}

	pos := afterBodyLen
	msg.Header.SetField(wire.TagBeginString, begin.Value)
	msg.Header.SetField(wire.TagBodyLength, bodyLenField.Value)

	// Walk header (minus the two fields already installed above).
	remainingHeader := headerResolved[2:] // skip BeginString, BodyLength entries
	newPos, mal, reason, detail := scanElements(buf, pos, bodyEnd, remainingHeader, msg.Header, nil, false, cfg.StrictGroupTermination)
	if mal {
		return ParseResult{Kind: ResultMalformed, MalformedReason: reason, Detail: detail}
	}
	pos = newPos

	msgType, ok := msg.Header.Field(wire.TagMsgType)
	if !ok {
		return ParseResult{Kind: ResultIncomplete, IncompleteReason: ReasonMissingMsgType}
	}

	axVersion, ok := cfg.AxMatcher.GetAxVersion(msg)
	if !ok {
		return ParseResult{Kind: ResultUnkAxProtocol, Detail: msgType}
	}
	appDict, err := cfg.Dx.Get(axVersion.PrimaryDictionary())
	if err != nil {
		return ParseResult{Kind: ResultUnkAxProtocol, Detail: err.Error()}
	}
	bodyResolved, ok := appDict.ResolveMessage(msgType)
	if !ok {
		return ParseResult{Kind: ResultUnkAxProtocol, Detail: "no message definition for " + msgType}
	}
	trailerResolved := sessionDict.ResolveTrailer()
	trailerMinusChecksum := trailerResolved
	if n := len(trailerResolved); n > 0 && trailerResolved[n-1].Tag() == wire.TagCheckSum {
		trailerMinusChecksum = trailerResolved[:n-1]
	}

	pos, mal, reason, detail = scanElements(buf, pos, bodyEnd, bodyResolved, msg.Body, tagSet(trailerMinusChecksum), false, cfg.StrictGroupTermination)
	if mal {
		return ParseResult{Kind: ResultMalformed, MalformedReason: reason, Detail: detail}
	}

	pos, mal, reason, detail = scanElements(buf, pos, bodyEnd, trailerMinusChecksum, msg.Trailer, nil, true, cfg.StrictGroupTermination)
	if mal {
		return ParseResult{Kind: ResultMalformed, MalformedReason: reason, Detail: detail}
	}
	_ = pos
	msg.Trailer.SetField(wire.TagCheckSum, cksumField.Value)

	return ParseResult{Kind: ResultComplete, Message: msg, BytesConsumed: afterCksum}
}

// tagSet collects the top-level tags of a resolved element list, for use as
// an explicit phase-boundary hint passed to a later scanElements call.
func tagSet(resolved []dictionary.ResolvedElement) map[int]bool {
	out := make(map[int]bool, len(resolved))
	for _, el := range resolved {
		out[el.Tag()] = true
	}
	return out
}

// scanElements walks resolved (the ordered, dictionary-derived element list
// of one container phase: header, body, trailer, or a group repetition's
// body) against the wire, matching each scanned tag to the next-compatible
// resolved position and skipping optional elements that aren't present.
// laterPhaseTags, when supplied, is an explicit set of tags known to belong
// to a later phase the caller has already resolved (e.g. the trailer's tags,
// passed to the body call); a scanned tag in that set ends this phase
// immediately. Independently of that hint, a tag that doesn't appear
// anywhere in resolved — not just from the current position onward, but
// anywhere in the container's own element list — can't belong to this phase
// either, since optional elements may simply be absent rather than present
// later in the wire order; that also ends the phase, except when terminal
// is true (this is the last phase, trailer, and there is nowhere else for
// an unrecognized tag to go), in which case it is attached as a
// user-defined field and scanning continues (§4.3 step 4). It stops,
// without consuming the next field, exactly when it judges a tag to belong
// to a later phase — that is how control returns to the caller to begin
// that phase.
func scanElements(buf []byte, pos, end int, resolved []dictionary.ResolvedElement, dst *Collection, laterPhaseTags map[int]bool, terminal bool, strict bool) (newPos int, malformed bool, reason MalformedReason, detail string) {
	idx := 0
	for pos < end {
		rf, next, ok := wire.ScanField(buf, pos)
		if !ok {
			return pos, true, ReasonBadSOH, "truncated field in container"
		}

		matchIdx := -1
		for j := idx; j < len(resolved); j++ {
			if resolved[j].Tag() == rf.Tag {
				matchIdx = j
				break
			}
		}
		if matchIdx == -1 {
			if laterPhaseTags != nil && laterPhaseTags[rf.Tag] {
				return pos, false, "", ""
			}
			existsInPhase := false
			for j := 0; j < len(resolved); j++ {
				if resolved[j].Tag() == rf.Tag {
					existsInPhase = true
					break
				}
			}
			if !existsInPhase {
				if terminal {
					// Nowhere else for this tag to go: attach as a
					// user-defined field and keep scanning.
					dst.SetField(rf.Tag, rf.Value)
					pos = next
					continue
				}
				// Not part of this phase's dictionary at all: stop here,
				// the next phase's scanElements call will pick this tag up.
				return pos, false, "", ""
			}
			// Belongs to this phase but already matched or skipped earlier
			// (out-of-order or repeated): attach as user-defined at its
			// wire position and keep scanning this phase.
			dst.SetField(rf.Tag, rf.Value)
			pos = next
			continue
		}

		el := resolved[matchIdx]
		if el.IsField() {
			dst.SetField(rf.Tag, rf.Value)
			pos = next
			idx = matchIdx + 1
			continue
		}

		count, convErr := strconv.Atoi(rf.Value)
		if convErr != nil {
			return pos, true, ReasonGroupCountMismatch, "non-integer group count for tag " + strconv.Itoa(rf.Tag)
		}
		instances, gPos, gMalformed, gReason, gDetail := scanGroup(buf, next, end, el.Group, count, strict)
		if gMalformed {
			return pos, true, gReason, gDetail
		}
		dst.SetGroup(rf.Tag, &GroupInstance{CountTag: rf.Tag, Instances: instances})
		pos = gPos
		idx = matchIdx + 1
	}
	return pos, false, "", ""
}

// scanGroup parses up to count repetitions of group's body, applying the
// tie-break rules of §4.3: a repetition ends when the next tag is the outer
// group's delimiter (a new repetition begins), when count is exhausted, or
// when the next tag is neither the delimiter nor a body member (the group
// terminates early even if count is not exhausted). The third case is
// reported as a malformed-but-recoverable discrepancy unless strict is set,
// in which case it is a hard MsgMalformed.
func scanGroup(buf []byte, pos, end int, group *dictionary.ResolvedGroup, count int, strict bool) (instances []*Collection, newPos int, malformed bool, reason MalformedReason, detail string) {
	for rep := 0; rep < count; rep++ {
		if pos >= end {
			if strict {
				return instances, pos, true, ReasonGroupCountMismatch, "buffer ended mid-group"
			}
			return instances, pos, false, "", ""
		}
		rf, next, ok := wire.ScanField(buf, pos)
		if !ok {
			return instances, pos, true, ReasonBadSOH, "truncated field in group"
		}
		if rf.Tag != group.DelimiterTag {
			if strict {
				return instances, pos, true, ReasonGroupCountMismatch, "repetition did not start with delimiter tag"
			}
			return instances, pos, false, "", ""
		}

		inst := NewCollection()
		inst.SetField(rf.Tag, rf.Value)
		pos = next
		bodyIdx := 1 // delimiter (body[0]) already consumed

		for pos < end {
			rf2, next2, ok2 := wire.ScanField(buf, pos)
			if !ok2 {
				return instances, pos, true, ReasonBadSOH, "truncated field in group body"
			}
			if rf2.Tag == group.DelimiterTag {
				break // next repetition
			}
			matchIdx := -1
			for j := bodyIdx; j < len(group.Body); j++ {
				if group.Body[j].Tag() == rf2.Tag {
					matchIdx = j
					break
				}
			}
			if matchIdx == -1 {
				existsEarlier := false
				for j := 0; j < bodyIdx; j++ {
					if group.Body[j].Tag() == rf2.Tag {
						existsEarlier = true
						break
					}
				}
				if !existsEarlier {
					// Rule (c): neither delimiter nor body member -> group
					// terminates early.
					instances = append(instances, inst)
					if strict {
						return instances, pos, true, ReasonGroupCountMismatch, "unexpected tag terminated group early"
					}
					return instances, pos, false, "", ""
				}
				inst.SetField(rf2.Tag, rf2.Value)
				pos = next2
				continue
			}
			el := group.Body[matchIdx]
			if el.IsField() {
				inst.SetField(rf2.Tag, rf2.Value)
			} else {
				nestedCount, convErr := strconv.Atoi(rf2.Value)
				if convErr != nil {
					return instances, pos, true, ReasonGroupCountMismatch, "non-integer nested group count"
				}
				nestedInstances, nPos, nMal, nReason, nDetail := scanGroup(buf, next2, end, el.Group, nestedCount, strict)
				if nMal {
					return instances, pos, true, nReason, nDetail
				}
				inst.SetGroup(rf2.Tag, &GroupInstance{CountTag: rf2.Tag, Instances: nestedInstances})
				pos = nPos
				bodyIdx = matchIdx + 1
				continue
			}
			pos = next2
			bodyIdx = matchIdx + 1
		}
		instances = append(instances, inst)
	}
	return instances, pos, false, "", ""
}
