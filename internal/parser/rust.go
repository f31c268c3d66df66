package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/bridgedoc/bridgedoc/internal/model"
)

// ParseRustFile parses one Rust source file into a module. rel is the
// path relative to the Rust source root and determines the module path.
func (p *Parser) ParseRustFile(ctx context.Context, rel string, source []byte) (*model.RustModule, error) {
	path, err := p.proj.RustPath(rel)
	if err != nil {
		return nil, err
	}
	root, err := p.parseTree(ctx, p.rustParser, rel, source)
	if err != nil {
		return nil, err
	}

	mod := &model.RustModule{
		Path:   path,
		Source: fileSpan(rel, root),
	}

	var innerDoc []string
	var pending docAccum
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "line_comment":
			text := child.Content(source)
			if line, ok := strings.CutPrefix(text, "//!"); ok {
				innerDoc = append(innerDoc, strings.TrimPrefix(line, " "))
			} else {
				pending.addComment(text)
			}
		case "block_comment":
			pending.addComment(child.Content(source))
		case "attribute_item":
			pending.attrs.parseAttr(child.Content(source))
		case "struct_item":
			mod.Items = append(mod.Items, p.rustStruct(child, rel, source, pending.take()))
		case "enum_item":
			mod.Items = append(mod.Items, p.rustEnum(child, rel, source, pending.take()))
		case "function_item":
			fn, acc := p.rustFunction(child, rel, source, pending.take())
			// The #[pymodule] init function describes registration,
			// not API surface.
			if !acc.attrs.pymodule {
				mod.Items = append(mod.Items, fn)
			}
		case "trait_item":
			mod.Items = append(mod.Items, p.rustTrait(child, rel, source, pending.take()))
		case "impl_item":
			mod.Items = append(mod.Items, p.rustImpl(child, rel, source, pending.take()))
		case "const_item", "static_item":
			mod.Items = append(mod.Items, p.rustConst(child, rel, source, pending.take()))
		case "type_item":
			mod.Items = append(mod.Items, p.rustTypeAlias(child, rel, source, pending.take()))
		default:
			pending.reset()
		}
	}

	mod.Doc = strings.TrimSpace(strings.Join(innerDoc, "\n"))
	return mod, nil
}

// docAccum gathers the doc comment lines and attributes that precede
// an item.
type docAccum struct {
	doc   []string
	attrs attrs
}

func (d *docAccum) addComment(text string) {
	if line, ok := strings.CutPrefix(text, "///"); ok {
		d.doc = append(d.doc, strings.TrimPrefix(line, " "))
		return
	}
	if inner, ok := strings.CutPrefix(text, "/**"); ok {
		inner = strings.TrimSuffix(inner, "*/")
		for _, line := range strings.Split(inner, "\n") {
			d.doc = append(d.doc, strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*")), " "))
		}
	}
}

func (d *docAccum) take() docAccum {
	out := *d
	d.reset()
	return out
}

func (d *docAccum) reset() {
	*d = docAccum{}
}

func (d docAccum) docText() string {
	return strings.TrimSpace(strings.Join(d.doc, "\n"))
}

func (d docAccum) binding(kind string) *model.BindingMeta {
	switch kind {
	case "class":
		if !d.attrs.pyclass {
			return nil
		}
	case "function":
		if !d.attrs.pyfunction {
			return nil
		}
	case "method":
		if d.attrs.renamed == "" {
			return nil
		}
		return &model.BindingMeta{Name: d.attrs.renamed}
	}
	return &model.BindingMeta{Name: d.attrs.name, Module: d.attrs.module}
}

func visibility(node *sitter.Node, source []byte) model.Visibility {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "visibility_modifier" {
			continue
		}
		switch text := child.Content(source); {
		case strings.Contains(text, "crate"):
			return model.VisCrate
		case strings.Contains(text, "super"):
			return model.VisSuper
		default:
			return model.VisPublic
		}
	}
	return model.VisPrivate
}

func (p *Parser) rustStruct(node *sitter.Node, rel string, source []byte, acc docAccum) *model.RustStruct {
	s := &model.RustStruct{
		Name:     fieldContent(node, "name", source),
		Vis:      visibility(node, source),
		Doc:      acc.docText(),
		Generics: fieldContent(node, "type_parameters", source),
		Derives:  acc.attrs.derives,
		Binding:  acc.binding("class"),
		Src:      span(rel, node, source),
	}

	if body := node.ChildByFieldName("body"); body != nil && body.Type() == "field_declaration_list" {
		var fieldDoc docAccum
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			switch child.Type() {
			case "line_comment", "block_comment":
				fieldDoc.addComment(child.Content(source))
			case "attribute_item":
				fieldDoc.attrs.parseAttr(child.Content(source))
			case "field_declaration":
				s.Fields = append(s.Fields, model.RustField{
					Name: fieldContent(child, "name", source),
					Type: fieldContent(child, "type", source),
					Vis:  visibility(child, source),
					Doc:  fieldDoc.take().docText(),
				})
			}
		}
	}
	return s
}

func (p *Parser) rustEnum(node *sitter.Node, rel string, source []byte, acc docAccum) *model.RustEnum {
	e := &model.RustEnum{
		Name:     fieldContent(node, "name", source),
		Vis:      visibility(node, source),
		Doc:      acc.docText(),
		Generics: fieldContent(node, "type_parameters", source),
		Binding:  acc.binding("class"),
		Src:      span(rel, node, source),
	}

	if body := node.ChildByFieldName("body"); body != nil {
		var variantDoc docAccum
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			switch child.Type() {
			case "line_comment", "block_comment":
				variantDoc.addComment(child.Content(source))
			case "enum_variant":
				variant := model.RustVariant{
					Name: fieldContent(child, "name", source),
					Doc:  variantDoc.take().docText(),
				}
				if vbody := child.ChildByFieldName("body"); vbody != nil && vbody.Type() == "field_declaration_list" {
					for j := 0; j < int(vbody.ChildCount()); j++ {
						f := vbody.Child(j)
						if f.Type() == "field_declaration" {
							variant.Fields = append(variant.Fields, model.RustField{
								Name: fieldContent(f, "name", source),
								Type: fieldContent(f, "type", source),
								Vis:  visibility(f, source),
							})
						}
					}
				}
				e.Variants = append(e.Variants, variant)
			}
		}
	}
	return e
}

func (p *Parser) rustFunction(node *sitter.Node, rel string, source []byte, acc docAccum) (*model.RustFunction, docAccum) {
	fn := &model.RustFunction{
		Name:       fieldContent(node, "name", source),
		Vis:        visibility(node, source),
		Doc:        acc.docText(),
		Generics:   fieldContent(node, "type_parameters", source),
		Signature:  rustSignature(node, source),
		ReturnType: fieldContent(node, "return_type", source),
		Binding:    acc.binding("function"),
		Src:        span(rel, node, source),
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.ChildCount()); i++ {
			child := params.Child(i)
			switch child.Type() {
			case "self_parameter":
				fn.Params = append(fn.Params, model.Param{Name: "self"})
			case "parameter":
				fn.Params = append(fn.Params, model.Param{
					Name: fieldContent(child, "pattern", source),
					Type: fieldContent(child, "type", source),
				})
			}
		}
	}

	sig := fn.Signature
	fn.IsAsync = strings.Contains(sig, "async fn ")
	fn.IsUnsafe = strings.Contains(sig, "unsafe fn ")
	fn.IsConst = strings.Contains(sig, "const fn ")
	return fn, acc
}

// rustSignature is the item text up to the body, on one line.
func rustSignature(node *sitter.Node, source []byte) string {
	end := node.EndByte()
	if body := node.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	sig := string(source[node.StartByte():end])
	return strings.Join(strings.Fields(sig), " ")
}

func (p *Parser) rustImpl(node *sitter.Node, rel string, source []byte, acc docAccum) *model.RustImpl {
	imp := &model.RustImpl{
		Target:    fieldContent(node, "type", source),
		Trait:     fieldContent(node, "trait", source),
		Generics:  fieldContent(node, "type_parameters", source),
		PyMethods: acc.attrs.pymethods,
		Src:       span(rel, node, source),
	}

	if body := node.ChildByFieldName("body"); body != nil {
		var pending docAccum
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			switch child.Type() {
			case "line_comment", "block_comment":
				pending.addComment(child.Content(source))
			case "attribute_item":
				pending.attrs.parseAttr(child.Content(source))
			case "function_item":
				methodAcc := pending.take()
				fn, _ := p.rustFunction(child, rel, source, methodAcc)
				fn.Binding = methodAcc.binding("method")
				imp.Methods = append(imp.Methods, *fn)
			default:
				pending.reset()
			}
		}
	}
	return imp
}

func (p *Parser) rustConst(node *sitter.Node, rel string, source []byte, acc docAccum) *model.RustConst {
	return &model.RustConst{
		Name:  fieldContent(node, "name", source),
		Vis:   visibility(node, source),
		Doc:   acc.docText(),
		Type:  fieldContent(node, "type", source),
		Value: fieldContent(node, "value", source),
		Src:   span(rel, node, source),
	}
}

func (p *Parser) rustTypeAlias(node *sitter.Node, rel string, source []byte, acc docAccum) *model.RustTypeAlias {
	return &model.RustTypeAlias{
		Name:     fieldContent(node, "name", source),
		Vis:      visibility(node, source),
		Doc:      acc.docText(),
		Generics: fieldContent(node, "type_parameters", source),
		Type:     fieldContent(node, "type", source),
		Src:      span(rel, node, source),
	}
}

func (p *Parser) rustTrait(node *sitter.Node, rel string, source []byte, acc docAccum) *model.RustTrait {
	t := &model.RustTrait{
		Name:     fieldContent(node, "name", source),
		Vis:      visibility(node, source),
		Doc:      acc.docText(),
		Generics: fieldContent(node, "type_parameters", source),
		Bounds:   fieldContent(node, "bounds", source),
		Src:      span(rel, node, source),
	}
	if body := node.ChildByFieldName("body"); body != nil {
		var pending docAccum
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			switch child.Type() {
			case "line_comment", "block_comment":
				pending.addComment(child.Content(source))
			case "function_item", "function_signature_item":
				fn, _ := p.rustFunction(child, rel, source, pending.take())
				t.Methods = append(t.Methods, *fn)
			default:
				pending.reset()
			}
		}
	}
	return t
}
