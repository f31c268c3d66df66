package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/bridgedoc/bridgedoc/internal/model"
)

// ParsePythonFile parses one Python source or stub file into a module.
// rel is the path relative to the Python source root.
func (p *Parser) ParsePythonFile(ctx context.Context, rel string, source []byte, origin model.ModuleOrigin) (*model.PythonModule, error) {
	path, err := p.proj.PythonPath(rel)
	if err != nil {
		return nil, err
	}
	root, err := p.parseTree(ctx, p.pyParser, rel, source)
	if err != nil {
		return nil, err
	}

	mod := &model.PythonModule{
		Path:   path,
		Origin: origin,
		Source: fileSpan(rel, root),
	}

	var lastVar *model.PyVariable
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "expression_statement":
			expr := child.NamedChild(0)
			if expr == nil {
				continue
			}
			switch expr.Type() {
			case "string":
				text := stringValue(expr.Content(source))
				// The first string is the module docstring; later
				// bare strings document the assignment above them.
				if mod.Doc == "" && len(mod.Items) == 0 {
					mod.Doc = text
				} else if lastVar != nil {
					lastVar.Doc = text
				}
				lastVar = nil
			case "assignment":
				v := p.pyVariable(expr, rel, source)
				if v != nil {
					mod.Items = append(mod.Items, v)
					lastVar = v
				}
			default:
				lastVar = nil
			}
		case "class_definition":
			mod.Items = append(mod.Items, p.pyClass(child, rel, source, nil))
			lastVar = nil
		case "function_definition":
			mod.Items = append(mod.Items, p.pyFunction(child, rel, source, nil))
			lastVar = nil
		case "decorated_definition":
			if item := p.pyDecorated(child, rel, source); item != nil {
				mod.Items = append(mod.Items, item)
			}
			lastVar = nil
		}
	}
	return mod, nil
}

func (p *Parser) pyDecorated(node *sitter.Node, rel string, source []byte) model.PyItem {
	var decorators []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "decorator" {
			decorators = append(decorators, strings.TrimPrefix(child.Content(source), "@"))
		}
	}
	def := node.ChildByFieldName("definition")
	if def == nil {
		return nil
	}
	switch def.Type() {
	case "class_definition":
		return p.pyClass(def, rel, source, decorators)
	case "function_definition":
		return p.pyFunction(def, rel, source, decorators)
	}
	return nil
}

func (p *Parser) pyClass(node *sitter.Node, rel string, source []byte, decorators []string) *model.PyClass {
	class := &model.PyClass{
		Name:       fieldContent(node, "name", source),
		Decorators: decorators,
		Src:        span(rel, node, source),
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			class.Bases = append(class.Bases, supers.NamedChild(i).Content(source))
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return class
	}
	var lastAttr *model.PyVariable
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "expression_statement":
			expr := child.NamedChild(0)
			if expr == nil {
				continue
			}
			switch expr.Type() {
			case "string":
				text := stringValue(expr.Content(source))
				if class.Doc == "" && len(class.Methods) == 0 && len(class.Attributes) == 0 {
					class.Doc = text
				} else if lastAttr != nil {
					lastAttr.Doc = text
				}
				lastAttr = nil
			case "assignment":
				if v := p.pyVariable(expr, rel, source); v != nil {
					class.Attributes = append(class.Attributes, *v)
					lastAttr = &class.Attributes[len(class.Attributes)-1]
				}
			default:
				lastAttr = nil
			}
		case "function_definition":
			class.Methods = append(class.Methods, *p.pyFunction(child, rel, source, nil))
			lastAttr = nil
		case "decorated_definition":
			if item := p.pyDecorated(child, rel, source); item != nil {
				if fn, ok := item.(*model.PyFunction); ok {
					class.Methods = append(class.Methods, *fn)
				}
			}
			lastAttr = nil
		}
	}
	return class
}

func (p *Parser) pyFunction(node *sitter.Node, rel string, source []byte, decorators []string) *model.PyFunction {
	name := fieldContent(node, "name", source)
	paramsText := fieldContent(node, "parameters", source)
	returnType := fieldContent(node, "return_type", source)

	sig := "def " + name + paramsText
	if returnType != "" {
		sig += " -> " + returnType
	}

	fn := &model.PyFunction{
		Name:       name,
		Signature:  sig,
		ReturnType: returnType,
		Decorators: decorators,
		Src:        span(rel, node, source),
	}
	for _, d := range decorators {
		switch strings.SplitN(d, "(", 2)[0] {
		case "staticmethod":
			fn.IsStaticM = true
		case "classmethod":
			fn.IsClassMethod = true
		case "property":
			fn.IsProperty = true
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "async" {
			fn.IsAsync = true
		}
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			if param, ok := p.pyParam(params.NamedChild(i), source); ok {
				fn.Params = append(fn.Params, param)
			}
		}
	}
	fn.Doc = firstDocstring(node.ChildByFieldName("body"), source)
	return fn
}

// firstDocstring returns the leading string literal of a block, if any.
func firstDocstring(body *sitter.Node, source []byte) string {
	if body == nil {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Type() != "expression_statement" {
		return ""
	}
	expr := first.NamedChild(0)
	if expr == nil || expr.Type() != "string" {
		return ""
	}
	return stringValue(expr.Content(source))
}

func (p *Parser) pyParam(node *sitter.Node, source []byte) (model.Param, bool) {
	switch node.Type() {
	case "identifier":
		return model.Param{Name: node.Content(source)}, true
	case "typed_parameter":
		name := ""
		if pat := node.NamedChild(0); pat != nil {
			name = pat.Content(source)
		}
		return model.Param{Name: name, Type: fieldContent(node, "type", source)}, true
	case "default_parameter":
		return model.Param{
			Name:    fieldContent(node, "name", source),
			Default: fieldContent(node, "value", source),
		}, true
	case "typed_default_parameter":
		return model.Param{
			Name:    fieldContent(node, "name", source),
			Type:    fieldContent(node, "type", source),
			Default: fieldContent(node, "value", source),
		}, true
	case "list_splat_pattern", "dictionary_splat_pattern":
		return model.Param{Name: node.Content(source)}, true
	}
	return model.Param{}, false
}

func (p *Parser) pyVariable(node *sitter.Node, rel string, source []byte) *model.PyVariable {
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return nil
	}
	return &model.PyVariable{
		Name:  left.Content(source),
		Type:  fieldContent(node, "type", source),
		Value: fieldContent(node, "right", source),
		Src:   span(rel, node, source),
	}
}

// stringValue strips quotes and prefixes from a Python string literal.
func stringValue(text string) string {
	text = strings.TrimLeft(text, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return strings.TrimSpace(text[len(q) : len(text)-len(q)])
		}
	}
	return strings.TrimSpace(text)
}
