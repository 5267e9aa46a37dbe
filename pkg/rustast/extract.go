package rustast

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Tree-sitter Rust grammar node types consumed by extraction.
const (
	nodeFunctionItem    = "function_item"
	nodeFunctionSigItem = "function_signature_item"
	nodeStructItem      = "struct_item"
	nodeEnumItem        = "enum_item"
	nodeTypeItem        = "type_item"
	nodeTraitItem       = "trait_item"
	nodeImplItem        = "impl_item"
	nodeModItem         = "mod_item"
	nodeLineComment     = "line_comment"
	nodeBlockComment    = "block_comment"
	fieldName           = "name"
	fieldBody           = "body"
	fieldType           = "type"
)

// extractor walks one parsed file and collects entity records.
type extractor struct {
	path   string
	source []byte
	module string
	out    []*EntityRecord
}

// extract processes all items declared directly at file scope. Nested
// function-local items are not recursed into.
func (x *extractor) extract(root sitter.Node) *FileEntities {
	x.module = x.resolveModule(root)

	for i := range root.NamedChildCount() {
		item := root.NamedChild(i)

		switch item.Type() {
		case nodeFunctionItem:
			x.addFunction(item)
		case nodeStructItem:
			x.addType(item, TypeStruct)
		case nodeEnumItem:
			x.addType(item, TypeEnum)
		case nodeTypeItem:
			x.addType(item, TypeAlias)
		case nodeTraitItem:
			x.addTrait(item)
		case nodeImplItem:
			x.addImplMethods(item)
		}
	}

	return &FileEntities{
		Path:    x.path,
		Module:  x.module,
		Records: x.out,
	}
}

// resolveModule returns the name of the first top-level mod item, falling
// back to the parent directory name of the file path.
func (x *extractor) resolveModule(root sitter.Node) string {
	for i := range root.NamedChildCount() {
		item := root.NamedChild(i)
		if item.Type() != nodeModItem {
			continue
		}

		name := item.ChildByFieldName(fieldName)
		if !name.IsNull() {
			return name.Content(x.source)
		}
	}

	return moduleFromPath(x.path)
}

func (x *extractor) addFunction(item sitter.Node) {
	name := item.ChildByFieldName(fieldName)
	if name.IsNull() {
		return
	}

	body := item.ChildByFieldName(fieldBody)

	rec := &EntityRecord{
		Key: EntityKey{
			Module: x.module,
			Kind:   KindFunction,
			Name:   name.Content(x.source),
		},
		Signature: x.normalizeSignature(item, body),
		Span:      x.span(item),
	}

	if !body.IsNull() {
		rec.Fingerprint = x.fingerprint(body)
		rec.Calls, rec.Literals = x.extractBody(body)
	}

	x.out = append(x.out, rec)
}

func (x *extractor) addType(item sitter.Node, tk TypeKind) {
	name := item.ChildByFieldName(fieldName)
	if name.IsNull() {
		return
	}

	// The full declaration, fields and variants included, is the
	// signature of a type. Types carry no body fingerprint.
	x.out = append(x.out, &EntityRecord{
		Key: EntityKey{
			Module: x.module,
			Kind:   KindType,
			Name:   name.Content(x.source),
		},
		TypeKind:  tk,
		Signature: x.normalizeSignature(item, sitter.Node{}),
		Span:      x.span(item),
	})
}

// addTrait records the trait header as a trait entity and every function
// declared inside the trait as a method entity owned by the trait. Adding
// a method to a trait therefore surfaces as an added method, not as a
// modification of the trait itself.
func (x *extractor) addTrait(item sitter.Node) {
	name := item.ChildByFieldName(fieldName)
	if name.IsNull() {
		return
	}

	traitName := name.Content(x.source)
	body := item.ChildByFieldName(fieldBody)

	x.out = append(x.out, &EntityRecord{
		Key: EntityKey{
			Module: x.module,
			Kind:   KindTrait,
			Name:   traitName,
		},
		Signature: x.normalizeSignature(item, body),
		Span:      x.span(item),
	})

	if body.IsNull() {
		return
	}

	for i := range body.NamedChildCount() {
		member := body.NamedChild(i)

		switch member.Type() {
		case nodeFunctionItem, nodeFunctionSigItem:
			x.addMethod(member, traitName)
		}
	}
}

// addImplMethods records every function inside an impl block as a method
// owned by the impl's self type.
func (x *extractor) addImplMethods(item sitter.Node) {
	owner := implOwner(item, x.source)
	if owner == "" {
		return
	}

	body := item.ChildByFieldName(fieldBody)
	if body.IsNull() {
		return
	}

	for i := range body.NamedChildCount() {
		member := body.NamedChild(i)
		if member.Type() == nodeFunctionItem {
			x.addMethod(member, owner)
		}
	}
}

func (x *extractor) addMethod(item sitter.Node, owner string) {
	name := item.ChildByFieldName(fieldName)
	if name.IsNull() {
		return
	}

	body := item.ChildByFieldName(fieldBody)

	rec := &EntityRecord{
		Key: EntityKey{
			Module: x.module,
			Kind:   KindMethod,
			Name:   name.Content(x.source),
			Owner:  owner,
		},
		Signature: x.normalizeSignature(item, body),
		Span:      x.span(item),
	}

	// Trait method signatures have no body; default trait methods and
	// impl methods do.
	if !body.IsNull() {
		rec.Fingerprint = x.fingerprint(body)
		rec.Calls, rec.Literals = x.extractBody(body)
	}

	x.out = append(x.out, rec)
}

// implOwner resolves the self type name of an impl block: the last path
// segment of the type field, with generic arguments stripped.
func implOwner(item sitter.Node, source []byte) string {
	typeNode := item.ChildByFieldName(fieldType)
	if typeNode.IsNull() {
		return ""
	}

	text := typeNode.Content(source)

	if idx := strings.IndexByte(text, '<'); idx >= 0 {
		text = text[:idx]
	}

	if idx := strings.LastIndex(text, "::"); idx >= 0 {
		text = text[idx+2:]
	}

	return strings.TrimSpace(text)
}

func (x *extractor) span(item sitter.Node) Span {
	start := item.StartPoint()
	end := item.EndPoint()

	return Span{
		File:      x.path,
		StartLine: uint32(start.Row + 1),
		StartCol:  uint32(start.Column + 1),
		EndLine:   uint32(end.Row + 1),
		EndCol:    uint32(end.Column + 1),
	}
}
