package rustast

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Expression node types consumed by body extraction.
const (
	nodeCallExpr        = "call_expression"
	nodeMacroInvocation = "macro_invocation"
	nodeFieldExpr       = "field_expression"
	nodeGenericFunction = "generic_function"
	nodeIdentifier      = "identifier"
	nodeScopedIdent     = "scoped_identifier"
	nodeSelf            = "self"
	fieldFunction       = "function"
	fieldArguments      = "arguments"
	fieldField          = "field"
	fieldValue          = "value"
	fieldMacro          = "macro"

	// calleeComplex is recorded when the call target is an expression
	// form with no stable textual name.
	calleeComplex = "complex_call"
)

// Literal node types and their kinds.
var literalKinds = map[string]LiteralKind{
	"integer_literal":     LiteralInt,
	"float_literal":       LiteralFloat,
	"string_literal":      LiteralString,
	"raw_string_literal":  LiteralString,
	"boolean_literal":     LiteralBool,
	"char_literal":        LiteralChar,
	"byte_literal":        LiteralByte,
	"byte_string_literal": LiteralByteString,
}

// bodyWalker accumulates call sites and literals from one function body.
type bodyWalker struct {
	source   []byte
	calls    []CallSite
	literals []LiteralValue
}

// extractBody traverses a function body depth first and returns every call
// expression and literal expression found, in source order with duplicates
// preserved. Calls inside closures and nested control flow are included.
// Macro invocations are recorded as a call to the macro itself and their
// token trees are not descended into.
func (x *extractor) extractBody(body sitter.Node) ([]CallSite, []LiteralValue) {
	walker := &bodyWalker{source: x.source}
	walker.walk(body)

	return walker.calls, walker.literals
}

func (w *bodyWalker) walk(node sitter.Node) {
	if node.IsNull() {
		return
	}

	nodeType := node.Type()

	if kind, ok := literalKinds[nodeType]; ok {
		w.literals = append(w.literals, LiteralValue{
			Kind:  kind,
			Value: normalizeLiteral(kind, node.Content(w.source)),
		})

		return
	}

	switch nodeType {
	case nodeCallExpr:
		w.walkCall(node)
	case nodeMacroInvocation:
		w.walkMacro(node)
	case nodeLineComment, nodeBlockComment:
	default:
		for i := range node.NamedChildCount() {
			w.walk(node.NamedChild(i))
		}
	}
}

// walkCall records the call and then descends into the receiver chain and
// the argument list, so nested calls are seen exactly once each.
func (w *bodyWalker) walkCall(node sitter.Node) {
	fn := node.ChildByFieldName(fieldFunction)
	args := node.ChildByFieldName(fieldArguments)

	w.calls = append(w.calls, CallSite{
		Callee: w.calleeName(fn),
		Args:   argCount(args),
	})

	// The receiver of a method call can itself contain calls.
	if !fn.IsNull() && fn.Type() == nodeFieldExpr {
		w.walk(fn.ChildByFieldName(fieldValue))
	}

	if !args.IsNull() {
		for i := range args.NamedChildCount() {
			w.walk(args.NamedChild(i))
		}
	}
}

// walkMacro records a macro invocation as an opaque call to the macro.
// The invocation's token tree is not expanded or recorded.
func (w *bodyWalker) walkMacro(node sitter.Node) {
	macro := node.ChildByFieldName(fieldMacro)
	if macro.IsNull() {
		return
	}

	w.calls = append(w.calls, CallSite{
		Callee: macro.Content(w.source) + "!",
		Args:   0,
	})
}

// calleeName resolves the textual identity of a call target. Method calls
// collapse their receiver to a short prefix so harmless receiver renames
// deep in a chain do not explode into distinct identities.
func (w *bodyWalker) calleeName(fn sitter.Node) string {
	if fn.IsNull() {
		return calleeComplex
	}

	switch fn.Type() {
	case nodeIdentifier, nodeScopedIdent:
		return compactText(fn.Content(w.source))
	case nodeGenericFunction:
		return w.calleeName(fn.ChildByFieldName(fieldFunction))
	case nodeFieldExpr:
		return w.methodName(fn)
	default:
		return calleeComplex
	}
}

func (w *bodyWalker) methodName(fn sitter.Node) string {
	field := fn.ChildByFieldName(fieldField)
	if field.IsNull() {
		return calleeComplex
	}

	method := field.Content(w.source)

	value := fn.ChildByFieldName(fieldValue)
	if value.IsNull() {
		return "expr." + method
	}

	switch value.Type() {
	case nodeIdentifier, nodeSelf:
		return value.Content(w.source) + "." + method
	case nodeFieldExpr:
		member := value.ChildByFieldName(fieldField)
		if member.IsNull() {
			return "expr." + method
		}

		return "field." + member.Content(w.source) + "." + method
	case nodeCallExpr:
		inner := value.ChildByFieldName(fieldFunction)
		if !inner.IsNull() && inner.Type() == nodeFieldExpr {
			if innerField := inner.ChildByFieldName(fieldField); !innerField.IsNull() {
				return "chain." + innerField.Content(w.source) + "." + method
			}
		}

		return "expr." + method
	default:
		return "expr." + method
	}
}

// argCount counts the named children of an argument list. Commas and
// parentheses are anonymous nodes and do not contribute.
func argCount(args sitter.Node) int {
	if args.IsNull() {
		return 0
	}

	return int(args.NamedChildCount())
}

// compactText strips all whitespace from a path expression so formatting
// like "foo :: bar" and "foo::bar" yield one identity.
func compactText(text string) string {
	return strings.Join(strings.Fields(text), "")
}

// numericSuffixes that Rust permits on integer and float literals.
var numericSuffixes = []string{
	"i8", "i16", "i32", "i64", "i128", "isize",
	"u8", "u16", "u32", "u64", "u128", "usize",
	"f32", "f64",
}

// normalizeLiteral canonicalizes a literal's textual value: quotes and
// prefixes stripped, digit separators and type suffixes removed. Formatting
// variants of the same value therefore share one identity.
func normalizeLiteral(kind LiteralKind, text string) string {
	switch kind {
	case LiteralInt, LiteralFloat:
		return normalizeNumeric(text)
	case LiteralString:
		return stripStringQuotes(text)
	case LiteralChar:
		return strings.Trim(text, "'")
	case LiteralByte:
		return strings.Trim(strings.TrimPrefix(text, "b"), "'")
	case LiteralByteString:
		return stripStringQuotes(strings.TrimPrefix(text, "b"))
	case LiteralBool:
		return text
	default:
		return text
	}
}

func normalizeNumeric(text string) string {
	text = strings.ReplaceAll(text, "_", "")

	for _, suffix := range numericSuffixes {
		if len(text) > len(suffix) && strings.HasSuffix(text, suffix) {
			return text[:len(text)-len(suffix)]
		}
	}

	return text
}

func stripStringQuotes(text string) string {
	// Raw strings: r"..." or r#"..."# with any number of hashes.
	if strings.HasPrefix(text, "r") {
		text = strings.TrimPrefix(text, "r")
		text = strings.Trim(text, "#")
	}

	return strings.Trim(text, `"`)
}
