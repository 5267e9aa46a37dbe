package rustast

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexaandru/go-sitter-forest/rust"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for parser operations.
var (
	ErrParseFailure = errors.New("source file could not be parsed")
	errNoRootNode   = errors.New("no root node")
	errPoolType     = errors.New("unexpected type in parser pool")
)

// Parser turns Rust source files into extraction results. It is safe for
// concurrent use; tree-sitter parsers are pooled per goroutine.
type Parser struct {
	language *sitter.Language
	pool     sync.Pool
}

// NewParser creates a Parser backed by the tree-sitter Rust grammar.
func NewParser() *Parser {
	lang := sitter.NewLanguage(rust.GetLanguage())

	parser := &Parser{language: lang}
	parser.pool = sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}

	return parser
}

// ExtractFile parses one file's contents and extracts every top-level
// function, type, trait, and impl/trait method declared directly in it.
// A file whose syntax tree contains errors yields ErrParseFailure; the
// caller records the failure and continues with other files.
func (p *Parser) ExtractFile(ctx context.Context, path string, content []byte) (*FileEntities, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFailure, path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFailure, path, errNoRootNode)
	}

	if root.HasError() {
		return nil, fmt.Errorf("%w: %s: syntax errors in tree", ErrParseFailure, path)
	}

	ext := &extractor{
		path:   path,
		source: content,
	}

	return ext.extract(root), nil
}
