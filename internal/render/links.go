package render

import (
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"

	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/modpath"
)

// linkMap builds the destinations for intra-doc links: module and item
// display paths written in documentation map to generated page
// addresses, and bare crate paths without a local page fall back to
// docs.rs.
func (r *Renderer) linkMap(m *model.DocModel) map[string]string {
	links := make(map[string]string)

	for i := range m.RustModules {
		mod := &m.RustModules[i]
		page := pagePath(mod.Path, model.LangRust)
		links[modpath.Display(mod.Path, model.LangRust)] = page
		for _, item := range mod.Items {
			if name := rustItemName(item); name != "" {
				links[modpath.ItemPath(mod.Path, name, model.LangRust)] = page + "#" + anchor(name)
			}
		}
	}
	for i := range m.PythonModules {
		mod := &m.PythonModules[i]
		page := pagePath(mod.Path, model.LangPython)
		links[modpath.Display(mod.Path, model.LangPython)] = page
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *model.PyClass:
				links[modpath.ItemPath(mod.Path, it.Name, model.LangPython)] = page + "#" + anchor(it.Name)
			case *model.PyFunction:
				links[modpath.ItemPath(mod.Path, it.Name, model.LangPython)] = page + "#" + anchor(it.Name)
			}
		}
	}
	return links
}

func rustItemName(item model.RustItem) string {
	switch it := item.(type) {
	case *model.RustStruct:
		return it.Name
	case *model.RustEnum:
		return it.Name
	case *model.RustFunction:
		return it.Name
	case *model.RustTrait:
		return it.Name
	case *model.RustConst:
		return it.Name
	case *model.RustTypeAlias:
		return it.Name
	}
	return ""
}

// pageLinks rebases the root-relative link map onto one page's
// directory and adds the docs.rs fallback for rust paths that have no
// local page.
func (r *Renderer) pageLinks(links map[string]string, fromPage string) map[string]string {
	rebased := make(map[string]string, len(links))
	for dest, target := range links {
		page, frag, _ := strings.Cut(target, "#")
		rel := relLink(fromPage, page)
		if frag != "" {
			rel += "#" + frag
		}
		rebased[dest] = rel
	}
	return rebased
}

// externalDocsLink resolves a rust item path with no local page to its
// docs.rs crate root.
func (r *Renderer) externalDocsLink(dest string) (string, bool) {
	if r.docsRsBase == "" || !strings.Contains(dest, "::") {
		return "", false
	}
	crate := dest[:strings.Index(dest, "::")]
	if crate == "" || r.localCrates[crate] {
		return "", false
	}
	return r.docsRsBase + "/" + crate + "/latest/" + strings.ReplaceAll(dest, "::", "/") + "/", true
}

// BrokenLinks scans rendered pages for item-path link destinations
// that survived rewriting: references to the project's own crates that
// resolved to no page. Returns deduplicated destinations in order of
// first appearance.
func (r *Renderer) BrokenLinks(pages []Page) []string {
	seen := make(map[string]bool)
	var broken []string
	for _, page := range pages {
		doc := gm.Parse([]byte(page.Content), gmparser.NewWithExtensions(
			gmparser.CommonExtensions|gmparser.Autolink,
		))
		ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
			if !entering {
				return ast.GoToNext
			}
			if link, ok := node.(*ast.Link); ok {
				dest := string(link.Destination)
				if strings.Contains(dest, "::") && !strings.Contains(dest, "://") && !seen[dest] {
					seen[dest] = true
					broken = append(broken, dest)
				}
			}
			return ast.GoToNext
		})
	}
	return broken
}

// rewriteLinks rewrites markdown link destinations using the link map,
// falling back to resolve when a destination is not mapped. The
// markdown is parsed to AST to find destinations, then targeted string
// replacements preserve the original formatting.
func rewriteLinks(src string, links map[string]string, resolve func(string) (string, bool)) string {
	if len(links) == 0 && resolve == nil {
		return src
	}

	doc := gm.Parse([]byte(src), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))

	seen := make(map[string]bool)
	type replacement struct {
		oldDest string
		newDest string
	}
	var replacements []replacement

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			dest := string(link.Destination)
			if seen[dest] {
				return ast.GoToNext
			}
			if newDest, ok := links[dest]; ok {
				seen[dest] = true
				replacements = append(replacements, replacement{dest, newDest})
			} else if resolve != nil {
				if newDest, ok := resolve(dest); ok {
					seen[dest] = true
					replacements = append(replacements, replacement{dest, newDest})
				}
			}
		}
		return ast.GoToNext
	})

	if len(replacements) == 0 {
		return src
	}

	result := src
	for _, r := range replacements {
		result = strings.ReplaceAll(result, "]("+r.oldDest+")", "]("+r.newDest+")")
	}

	// Reference-style definitions: [ref]: destination
	refMap := make(map[string]string, len(replacements))
	for _, r := range replacements {
		refMap["]: "+r.oldDest] = "]: " + r.newDest
	}
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for oldSuffix, newSuffix := range refMap {
			if strings.HasSuffix(trimmed, oldSuffix) {
				lines[i] = strings.Replace(line, oldSuffix, newSuffix, 1)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
