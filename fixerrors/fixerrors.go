// Package fixerrors defines the shared error-kind taxonomy used across the
// engine: dictionary load errors, registry errors, and assembler errors.
// Parser outcomes are reported as codec.ResultKind values, not errors.
// Package-local error kinds (session database, session protocol) live beside
// the code that raises them so the tagged-struct-plus-constructor shape stays
// close to its call sites; this package holds only the kinds shared by more
// than one layer.
package fixerrors

import "fmt"

// DictionaryError is raised while loading or resolving a dictionary.
type DictionaryError struct {
	Kind      DictionaryErrorKind
	Container string
	Tag       int
	Path      []string
	Cause     error
}

// DictionaryErrorKind enumerates dictionary load/resolve failures.
type DictionaryErrorKind string

const (
	DictionaryUnknownReference DictionaryErrorKind = "unknown_reference"
	DictionaryCycle            DictionaryErrorKind = "cycle"
	DictionaryDuplicateTag     DictionaryErrorKind = "duplicate_tag"
	DictionaryMissingMandatory DictionaryErrorKind = "missing_mandatory"
)

func (e *DictionaryError) Error() string {
	switch e.Kind {
	case DictionaryCycle:
		return fmt.Sprintf("dictionary: cycle detected: %v", e.Path)
	case DictionaryUnknownReference:
		return fmt.Sprintf("dictionary: unknown reference tag %d in %q", e.Tag, e.Container)
	case DictionaryDuplicateTag:
		return fmt.Sprintf("dictionary: duplicate tag %d in %q", e.Tag, e.Container)
	case DictionaryMissingMandatory:
		return fmt.Sprintf("dictionary: missing mandatory tag %d in %q", e.Tag, e.Container)
	default:
		return fmt.Sprintf("dictionary: %s", e.Kind)
	}
}

func (e *DictionaryError) Unwrap() error { return e.Cause }

// NewUnknownReferenceError reports an element reference to an undefined tag.
func NewUnknownReferenceError(container string, tag int) *DictionaryError {
	return &DictionaryError{Kind: DictionaryUnknownReference, Container: container, Tag: tag}
}

// NewCycleError reports a circular component reference, path is the chain of
// component names that closed the cycle.
func NewCycleError(path []string) *DictionaryError {
	return &DictionaryError{Kind: DictionaryCycle, Path: path}
}

// NewDuplicateTagError reports the same tag defined twice within one container.
func NewDuplicateTagError(container string, tag int) *DictionaryError {
	return &DictionaryError{Kind: DictionaryDuplicateTag, Container: container, Tag: tag}
}

// NewMissingMandatoryError reports a required header/trailer tag absent from
// its container (BeginString/BodyLength/MsgType in header, CheckSum in trailer).
func NewMissingMandatoryError(container string, tag int) *DictionaryError {
	return &DictionaryError{Kind: DictionaryMissingMandatory, Container: container, Tag: tag}
}

// RegistryError is raised by DxRegistry/VxRegistry name lookups.
type RegistryError struct {
	Kind RegistryErrorKind
	Name string
}

// RegistryErrorKind enumerates registry failures.
type RegistryErrorKind string

const (
	RegistryUnknownName   RegistryErrorKind = "unknown_name"
	RegistryDuplicateName RegistryErrorKind = "duplicate_name"
)

func (e *RegistryError) Error() string {
	switch e.Kind {
	case RegistryUnknownName:
		return fmt.Sprintf("registry: unknown name %q", e.Name)
	case RegistryDuplicateName:
		return fmt.Sprintf("registry: duplicate name %q", e.Name)
	default:
		return fmt.Sprintf("registry: %s %q", e.Kind, e.Name)
	}
}

// NewUnknownNameError reports a get/remove of a name that was never registered.
func NewUnknownNameError(name string) *RegistryError {
	return &RegistryError{Kind: RegistryUnknownName, Name: name}
}

// NewDuplicateNameError reports an insert of a name that already exists.
func NewDuplicateNameError(name string) *RegistryError {
	return &RegistryError{Kind: RegistryDuplicateName, Name: name}
}

// AssemblerError is raised by createMessage/populate* when a caller-supplied
// version or message type cannot be resolved against a dictionary (§4.4).
type AssemblerError struct {
	Kind    AssemblerErrorKind
	MsgType string
}

// AssemblerErrorKind enumerates assembler failures.
type AssemblerErrorKind string

const (
	AssemblerUnknownVersion AssemblerErrorKind = "unknown_version"
	AssemblerUnknownMsgType AssemblerErrorKind = "unknown_message_type"
)

func (e *AssemblerError) Error() string {
	switch e.Kind {
	case AssemblerUnknownVersion:
		return "assembler: unknown version"
	case AssemblerUnknownMsgType:
		return fmt.Sprintf("assembler: unknown message type %q", e.MsgType)
	default:
		return fmt.Sprintf("assembler: %s", e.Kind)
	}
}

// NewUnknownVersionError reports a nil or unresolved session/application version.
func NewUnknownVersionError() *AssemblerError {
	return &AssemblerError{Kind: AssemblerUnknownVersion}
}

// NewUnknownMsgTypeError reports a msgType absent from the resolved dictionary.
func NewUnknownMsgTypeError(msgType string) *AssemblerError {
	return &AssemblerError{Kind: AssemblerUnknownMsgType, MsgType: msgType}
}
