// Package rustast extracts a normalized entity model from Rust source files
// using the tree-sitter Rust grammar.
package rustast

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityKind identifies the kind of a top-level code entity.
type EntityKind int

// Entity kind constants. The set is closed; comparison code matches
// exhaustively over it.
const (
	KindFunction EntityKind = iota
	KindType
	KindTrait
	KindMethod
)

func (k EntityKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindType:
		return "type"
	case KindTrait:
		return "trait"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its string form.
func (k EntityKind) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(k.String())), nil
}

// UnmarshalJSON decodes the string form produced by MarshalJSON.
func (k *EntityKind) UnmarshalJSON(data []byte) error {
	text, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("entity kind: %w", err)
	}

	switch text {
	case "function":
		*k = KindFunction
	case "type":
		*k = KindType
	case "trait":
		*k = KindTrait
	case "method":
		*k = KindMethod
	default:
		return fmt.Errorf("entity kind: unknown value %q", text)
	}

	return nil
}

// TypeKind is the sub-tag carried by KindType records.
type TypeKind int

// Type kind constants. TypeNone is used for non-type entities.
const (
	TypeNone TypeKind = iota
	TypeStruct
	TypeEnum
	TypeAlias
)

func (tk TypeKind) String() string {
	switch tk {
	case TypeStruct:
		return "struct"
	case TypeEnum:
		return "enum"
	case TypeAlias:
		return "alias"
	default:
		return ""
	}
}

// MarshalJSON encodes the type kind as its string form.
func (tk TypeKind) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(tk.String())), nil
}

// UnmarshalJSON decodes the string form produced by MarshalJSON.
func (tk *TypeKind) UnmarshalJSON(data []byte) error {
	text, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("type kind: %w", err)
	}

	switch text {
	case "struct":
		*tk = TypeStruct
	case "enum":
		*tk = TypeEnum
	case "alias":
		*tk = TypeAlias
	case "":
		*tk = TypeNone
	default:
		return fmt.Errorf("type kind: unknown value %q", text)
	}

	return nil
}

// EntityKey is the identity used for cross-snapshot matching. Two entities
// match iff their keys are equal. Keys are stable under reformatting and
// item reordering, but not under renames.
type EntityKey struct {
	Module string     `json:"module"`
	Kind   EntityKind `json:"kind"`
	Name   string     `json:"name"`
	// Owner is the owning type or trait name. Set for KindMethod only.
	Owner string `json:"owner,omitempty"`
}

// String renders the key in a stable human-readable form.
func (k EntityKey) String() string {
	if k.Owner != "" {
		return fmt.Sprintf("%s/%s %s.%s", k.Module, k.Kind, k.Owner, k.Name)
	}

	return fmt.Sprintf("%s/%s %s", k.Module, k.Kind, k.Name)
}

// Less imposes a total deterministic order on keys: module, owner, name.
// Kind grouping is handled one level up by the differ.
func (k EntityKey) Less(other EntityKey) bool {
	if k.Module != other.Module {
		return k.Module < other.Module
	}

	if k.Owner != other.Owner {
		return k.Owner < other.Owner
	}

	return k.Name < other.Name
}

// Span captures the source position of a declaration.
type Span struct {
	File      string `json:"file"`
	StartLine uint32 `json:"startLine"`
	StartCol  uint32 `json:"startCol"`
	EndLine   uint32 `json:"endLine"`
	EndCol    uint32 `json:"endCol"`
}

// CallSite is one call expression extracted from a function body.
// Duplicates are preserved in extraction order.
type CallSite struct {
	Callee string `json:"callee"`
	Args   int    `json:"args"`
}

// Identity returns the multiset identity of the call site.
func (c CallSite) Identity() string {
	return fmt.Sprintf("%s/%d", c.Callee, c.Args)
}

// LiteralKind classifies an extracted literal value.
type LiteralKind int

// Literal kind constants. Byte and byte-string forms are carried in
// addition to the five scalar kinds so byte-level changes surface too.
const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
	LiteralBool
	LiteralChar
	LiteralByte
	LiteralByteString
)

func (lk LiteralKind) String() string {
	switch lk {
	case LiteralInt:
		return "INT"
	case LiteralFloat:
		return "FLOAT"
	case LiteralString:
		return "STRING"
	case LiteralBool:
		return "BOOL"
	case LiteralChar:
		return "CHAR"
	case LiteralByte:
		return "BYTE"
	case LiteralByteString:
		return "BYTE_STR"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the literal kind as its tag form.
func (lk LiteralKind) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(lk.String())), nil
}

// UnmarshalJSON decodes the tag form produced by MarshalJSON.
func (lk *LiteralKind) UnmarshalJSON(data []byte) error {
	text, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("literal kind: %w", err)
	}

	switch text {
	case "INT":
		*lk = LiteralInt
	case "FLOAT":
		*lk = LiteralFloat
	case "STRING":
		*lk = LiteralString
	case "BOOL":
		*lk = LiteralBool
	case "CHAR":
		*lk = LiteralChar
	case "BYTE":
		*lk = LiteralByte
	case "BYTE_STR":
		*lk = LiteralByteString
	default:
		return fmt.Errorf("literal kind: unknown value %q", text)
	}

	return nil
}

// LiteralValue is one literal expression extracted from a function body.
type LiteralValue struct {
	Kind  LiteralKind `json:"kind"`
	Value string      `json:"value"`
}

// Identity returns the multiset identity of the literal.
func (l LiteralValue) Identity() string {
	return l.Kind.String() + ":" + l.Value
}

// EntityRecord is one extracted entity. Records are immutable after
// construction; they are owned by the Snapshot they were built into.
type EntityRecord struct {
	Key       EntityKey `json:"key"`
	TypeKind  TypeKind  `json:"typeKind,omitempty"`
	Signature string    `json:"signature"`
	// Fingerprint is a structural hash of the body token stream.
	// Empty for entities without a body (types, traits, trait method
	// signatures without a default body).
	Fingerprint string `json:"fingerprint,omitempty"`
	Span        Span   `json:"span"`
	// Calls and Literals are populated for functions and methods only,
	// in depth-first source order with duplicates preserved.
	Calls    []CallSite     `json:"calls,omitempty"`
	Literals []LiteralValue `json:"literals,omitempty"`
}

// HasBody reports whether the record kind carries a body fingerprint.
func (r *EntityRecord) HasBody() bool {
	return r.Key.Kind == KindFunction || r.Key.Kind == KindMethod
}

// FileEntities is the extraction result for one source file.
type FileEntities struct {
	Path    string
	Module  string
	Records []*EntityRecord
}

// moduleFromPath derives a module name from the file path when the file
// declares no top-level mod item: parent directory name, else "unknown".
func moduleFromPath(path string) string {
	trimmed := strings.TrimSuffix(path, "/")

	idx := strings.LastIndexByte(trimmed, '/')
	if idx <= 0 {
		return "unknown"
	}

	parent := trimmed[:idx]
	if j := strings.LastIndexByte(parent, '/'); j >= 0 {
		parent = parent[j+1:]
	}

	if parent == "" {
		return "unknown"
	}

	return parent
}
