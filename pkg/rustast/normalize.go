package rustast

import (
	"crypto/sha1" //nolint:gosec // content fingerprinting, not security.
	"encoding/hex"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// normalizeSignature renders the declaration header of an item as a
// whitespace and comment insensitive token string. The body subtree (when
// non-null) is excluded, so reformatting a body never perturbs the
// signature, and a body-only edit is caught by the fingerprint instead.
func (x *extractor) normalizeSignature(item, body sitter.Node) string {
	var tokens []string

	collectTokens(item, body, x.source, &tokens)

	return strings.Join(tokens, " ")
}

// fingerprint hashes the body's token stream. Two bodies that differ only
// in whitespace or comments hash identically.
func (x *extractor) fingerprint(body sitter.Node) string {
	var tokens []string

	collectTokens(body, sitter.Node{}, x.source, &tokens)

	hasher := sha1.New() //nolint:gosec // content fingerprinting, not security.
	for _, tok := range tokens {
		hasher.Write([]byte(tok))
		hasher.Write([]byte{0})
	}

	return hex.EncodeToString(hasher.Sum(nil))
}

// collectTokens appends the leaf token texts of node in source order,
// skipping comments and the excluded subtree.
func collectTokens(node, exclude sitter.Node, source []byte, out *[]string) {
	if node.IsNull() {
		return
	}

	if !exclude.IsNull() && node.StartByte() == exclude.StartByte() && node.EndByte() == exclude.EndByte() {
		return
	}

	switch node.Type() {
	case nodeLineComment, nodeBlockComment:
		return
	}

	count := node.ChildCount()
	if count == 0 {
		text := strings.TrimSpace(node.Content(source))
		if text != "" {
			*out = append(*out, text)
		}

		return
	}

	for i := range count {
		collectTokens(node.Child(i), exclude, source, out)
	}
}
