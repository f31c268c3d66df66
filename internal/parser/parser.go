// Package parser extracts documentation models from Rust and Python
// source files using tree-sitter. It produces raw modules with item
// names, signatures, spans, binding metadata, and unparsed doc text;
// docstring parsing and cross-referencing happen downstream.
package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

// Parser parses source files for both sides of the bridge. It is not
// safe for concurrent use; create one per worker.
type Parser struct {
	rustParser *sitter.Parser
	pyParser   *sitter.Parser
	proj       *modpath.Projector
}

// New returns a parser sharing the run's path projector.
func New(proj *modpath.Projector) *Parser {
	rp := sitter.NewParser()
	rp.SetLanguage(rust.GetLanguage())
	pp := sitter.NewParser()
	pp.SetLanguage(python.GetLanguage())
	return &Parser{rustParser: rp, pyParser: pp, proj: proj}
}

func (p *Parser) parseTree(ctx context.Context, parser *sitter.Parser, rel string, source []byte) (*sitter.Node, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rel, err)
	}
	return tree.RootNode(), nil
}

// span builds a SourceSpan for a node, converting tree-sitter's
// zero-based rows to one-based lines.
func span(file string, node *sitter.Node, source []byte) model.SourceSpan {
	return model.SourceSpan{
		Location: model.SourceLocation{
			File:      file,
			LineStart: int(node.StartPoint().Row) + 1,
			LineEnd:   int(node.EndPoint().Row) + 1,
		},
		Source: node.Content(source),
	}
}

// fileSpan covers the whole file without duplicating its source text.
func fileSpan(file string, node *sitter.Node) model.SourceSpan {
	return model.SourceSpan{
		Location: model.SourceLocation{
			File:      file,
			LineStart: 1,
			LineEnd:   int(node.EndPoint().Row) + 1,
		},
	}
}

func fieldContent(node *sitter.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(source)
}
