// Package docstring parses documentation comments into the structured
// form used by the model. Python docstrings in Google, NumPy, and plain
// style are handled here; Rust doc comments are handled in rust.go.
//
// Parsing never fails. Input that matches no known grammar degrades to
// a plain summary/description split, and the unmodified text is always
// retained on the result.
package docstring

import (
	"strings"

	"github.com/bridgedoc/bridgedoc/internal/model"
)

type style int

const (
	stylePlain style = iota
	styleGoogle
	styleNumPy
)

// Parse parses a Python docstring. It returns nil when the input is
// empty after trimming.
func Parse(text string) *model.ParsedDocstring {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var doc *model.ParsedDocstring
	switch detectStyle(trimmed) {
	case styleNumPy:
		doc = parseNumPy(trimmed)
	case styleGoogle:
		doc = parseGoogle(trimmed)
	default:
		doc = parsePlain(trimmed)
	}
	doc.Original = trimmed
	tagExamples(doc, "python")
	return doc
}

// detectStyle picks the grammar from section markers. NumPy underlines
// are checked first so that a NumPy doc mentioning "Returns:" in prose
// is not misread as Google style.
func detectStyle(text string) style {
	for _, underline := range []string{"\n----------", "\n---------", "\n--------"} {
		if strings.Contains(text, underline) {
			return styleNumPy
		}
	}
	markers := []string{
		"Args:", "Arguments:", "Parameters:", "Returns:", "Raises:",
		"Example:", "Examples:", "Attributes:", "Note:", "Notes:", "Yields:",
	}
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return styleGoogle
		}
	}
	return stylePlain
}

var knownSections = map[string]bool{
	"args": true, "arguments": true, "parameters": true, "params": true,
	"returns": true, "return": true,
	"raises": true, "raise": true, "exceptions": true, "except": true,
	"example": true, "examples": true,
	"attributes": true, "note": true, "notes": true,
	"yields": true, "yield": true,
	"see also": true, "references": true, "warnings": true, "warning": true,
}

func isKnownSection(name string) bool {
	return knownSections[strings.ToLower(name)]
}

// googleHeader returns the section name if line is a bare Google-style
// header like "Args:".
func googleHeader(line string) (string, bool) {
	if !strings.HasSuffix(line, ":") || strings.Contains(line, " ") {
		return "", false
	}
	name := strings.TrimSuffix(line, ":")
	if !isKnownSection(name) {
		return "", false
	}
	return strings.ToLower(name), true
}

// numpyHeader reports whether lines[i] is a NumPy section header, which
// is a title line underlined with dashes on the following line.
func numpyHeader(lines []string, i int) (string, bool) {
	if i+1 >= len(lines) {
		return "", false
	}
	next := strings.TrimSpace(lines[i+1])
	if next == "" || strings.Trim(next, "-") != "" {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(lines[i])), true
}

func leadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// extractIntro collects the summary (first paragraph, joined with
// spaces) and description (remaining intro paragraphs, joined with
// newlines), stopping at the first recognized section header. It
// returns the index where section parsing should begin.
func extractIntro(lines []string) (summary, description string, next int) {
	var summaryLines, descLines []string
	inDescription := false
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			if len(summaryLines) > 0 {
				inDescription = true
			}
			continue
		}
		if name, ok := googleHeader(line); ok && isKnownSection(name) {
			break
		}
		if name, ok := numpyHeader(lines, i); ok && isKnownSection(name) {
			break
		}
		if inDescription {
			descLines = append(descLines, line)
		} else {
			summaryLines = append(summaryLines, line)
		}
	}
	return strings.Join(summaryLines, " "), strings.Join(descLines, "\n"), i
}

func parsePlain(text string) *model.ParsedDocstring {
	summary, description, _ := extractIntro(strings.Split(text, "\n"))
	return &model.ParsedDocstring{Summary: summary, Description: description}
}

// ============================================================================
// Google style
// ============================================================================

func parseGoogle(text string) *model.ParsedDocstring {
	lines := strings.Split(text, "\n")
	summary, description, i := extractIntro(lines)
	doc := &model.ParsedDocstring{Summary: summary, Description: description}

	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		name, ok := googleHeader(line)
		if !ok {
			i++
			continue
		}
		switch name {
		case "args", "arguments", "parameters", "params":
			doc.Params, i = parseGoogleParams(lines, i+1)
		case "returns", "return":
			doc.Returns, i = parseGoogleReturns(lines, i+1)
		case "raises", "raise", "exceptions", "except":
			doc.Raises, i = parseGoogleRaises(lines, i+1)
		case "example", "examples":
			var texts []string
			texts, i = parseExampleBlocks(lines, i+1, googleSectionStop)
			doc.Examples = toExamples(texts)
		default:
			i++
		}
	}
	return doc
}

func googleSectionStop(lines []string, i int) bool {
	_, ok := googleHeader(strings.TrimSpace(lines[i]))
	return ok
}

func parseGoogleParams(lines []string, start int) ([]model.ParamDoc, int) {
	var params []model.ParamDoc
	var name string
	var typ *string
	var desc []string

	flush := func() {
		if name != "" {
			params = append(params, model.ParamDoc{
				Name:        name,
				Type:        typ,
				Description: strings.TrimSpace(strings.Join(desc, " ")),
			})
		}
		name, typ, desc = "", nil, nil
	}

	i := start
	for ; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if _, ok := googleHeader(trimmed); ok {
			break
		}
		// New parameter entries sit at shallow indent and carry a colon;
		// anything deeper continues the previous description.
		if leadingSpaces(line) <= 4 && strings.Contains(trimmed, ":") {
			flush()
			var first string
			name, typ, first = parseParamLine(trimmed)
			desc = []string{first}
		} else if name != "" {
			desc = append(desc, trimmed)
		}
	}
	flush()
	return params, i
}

// parseParamLine splits "name (type): description" or "name: description".
func parseParamLine(line string) (string, *string, string) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return strings.TrimSpace(line), nil, ""
	}
	before := line[:colon]
	desc := strings.TrimSpace(line[colon+1:])
	if open := strings.Index(before, "("); open >= 0 {
		if end := strings.LastIndex(before, ")"); end > open {
			name := strings.TrimSpace(before[:open])
			typ := strings.TrimSpace(before[open+1 : end])
			return name, &typ, desc
		}
	}
	return strings.TrimSpace(before), nil, desc
}

func parseGoogleReturns(lines []string, start int) (*model.ReturnDoc, int) {
	var typ *string
	var desc []string

	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			if len(desc) > 0 {
				break
			}
			continue
		}
		if _, ok := googleHeader(trimmed); ok {
			break
		}
		// The first line may lead with a type, as in "int: the count".
		// A chunk with spaces is prose, not a type, unless it carries
		// brackets like "list[str]".
		if len(desc) == 0 && strings.Contains(trimmed, ":") {
			colon := strings.Index(trimmed, ":")
			head := trimmed[:colon]
			if !strings.Contains(head, " ") || strings.Contains(head, "[") {
				t := strings.TrimSpace(head)
				typ = &t
				desc = append(desc, strings.TrimSpace(trimmed[colon+1:]))
				continue
			}
		}
		desc = append(desc, trimmed)
	}

	if len(desc) == 0 {
		return nil, i
	}
	return &model.ReturnDoc{Type: typ, Description: strings.TrimSpace(strings.Join(desc, " "))}, i
}

func parseGoogleRaises(lines []string, start int) ([]model.RaiseDoc, int) {
	var raises []model.RaiseDoc
	var kind string
	var desc []string

	flush := func() {
		if kind != "" {
			raises = append(raises, model.RaiseDoc{
				Kind:        kind,
				Description: strings.TrimSpace(strings.Join(desc, " ")),
			})
		}
		kind, desc = "", nil
	}

	i := start
	for ; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if _, ok := googleHeader(trimmed); ok {
			break
		}
		if leadingSpaces(line) <= 4 && strings.Contains(trimmed, ":") {
			flush()
			colon := strings.Index(trimmed, ":")
			kind = strings.TrimSpace(trimmed[:colon])
			desc = []string{strings.TrimSpace(trimmed[colon+1:])}
		} else if kind != "" {
			desc = append(desc, trimmed)
		}
	}
	flush()
	return raises, i
}

// ============================================================================
// NumPy style
// ============================================================================

func parseNumPy(text string) *model.ParsedDocstring {
	lines := strings.Split(text, "\n")
	summary, description, i := extractIntro(lines)
	doc := &model.ParsedDocstring{Summary: summary, Description: description}

	for i < len(lines) {
		name, ok := numpyHeader(lines, i)
		if !ok {
			i++
			continue
		}
		switch name {
		case "parameters", "params", "arguments":
			doc.Params, i = parseNumPyParams(lines, i+2)
		case "returns":
			doc.Returns, i = parseNumPyReturns(lines, i+2)
		case "raises", "exceptions":
			doc.Raises, i = parseNumPyRaises(lines, i+2)
		case "examples", "example":
			var texts []string
			texts, i = parseExampleBlocks(lines, i+2, numpySectionStop)
			doc.Examples = toExamples(texts)
		default:
			i++
		}
	}
	return doc
}

func numpySectionStop(lines []string, i int) bool {
	_, ok := numpyHeader(lines, i)
	return ok
}

func parseNumPyParams(lines []string, start int) ([]model.ParamDoc, int) {
	var params []model.ParamDoc
	var name string
	var typ *string
	var desc []string

	flush := func() {
		if name != "" {
			params = append(params, model.ParamDoc{
				Name:        name,
				Type:        typ,
				Description: strings.TrimSpace(strings.Join(desc, " ")),
			})
		}
		name, typ, desc = "", nil, nil
	}

	i := start
	for ; i < len(lines); i++ {
		if numpySectionStop(lines, i) {
			break
		}
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		// Entries look like "name : type" at indent zero, with the
		// description indented underneath.
		if leadingSpaces(line) == 0 && strings.Contains(trimmed, ":") {
			flush()
			colon := strings.Index(trimmed, ":")
			name = strings.TrimSpace(trimmed[:colon])
			if t := strings.TrimSpace(trimmed[colon+1:]); t != "" {
				typ = &t
			}
		} else if leadingSpaces(line) > 0 && name != "" {
			desc = append(desc, trimmed)
		}
	}
	flush()
	return params, i
}

func parseNumPyReturns(lines []string, start int) (*model.ReturnDoc, int) {
	var typ *string
	var desc []string

	i := start
	for ; i < len(lines); i++ {
		if numpySectionStop(lines, i) {
			break
		}
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(desc) > 0 || typ != nil {
				break
			}
			continue
		}
		if typ == nil && leadingSpaces(line) == 0 {
			// Either a bare type or "name : type".
			t := trimmed
			if colon := strings.Index(trimmed, ":"); colon >= 0 {
				t = strings.TrimSpace(trimmed[colon+1:])
			}
			typ = &t
		} else if leadingSpaces(line) > 0 {
			desc = append(desc, trimmed)
		}
	}

	if typ == nil && len(desc) == 0 {
		return nil, i
	}
	return &model.ReturnDoc{Type: typ, Description: strings.TrimSpace(strings.Join(desc, " "))}, i
}

func parseNumPyRaises(lines []string, start int) ([]model.RaiseDoc, int) {
	var raises []model.RaiseDoc
	var kind string
	var desc []string

	flush := func() {
		if kind != "" {
			raises = append(raises, model.RaiseDoc{
				Kind:        kind,
				Description: strings.TrimSpace(strings.Join(desc, " ")),
			})
		}
		kind, desc = "", nil
	}

	i := start
	for ; i < len(lines); i++ {
		if numpySectionStop(lines, i) {
			break
		}
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if leadingSpaces(line) == 0 {
			flush()
			kind = trimmed
		} else if kind != "" {
			desc = append(desc, trimmed)
		}
	}
	flush()
	return raises, i
}

// ============================================================================
// Examples
// ============================================================================

// parseExampleBlocks collects example text until the stop predicate
// matches a line. Code fences are honored: blank lines and section
// headers inside a fence never split or terminate a block.
func parseExampleBlocks(lines []string, start int, stop func([]string, int) bool) ([]string, int) {
	var examples []string
	var current []string
	inFence := false

	i := start
	for ; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if !inFence && stop(lines, i) {
			break
		}
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			current = append(current, line)
			continue
		}
		if trimmed == "" && !inFence {
			if len(current) > 0 {
				examples = append(examples, strings.Join(current, "\n"))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		examples = append(examples, strings.Join(current, "\n"))
	}
	return examples, i
}

func toExamples(texts []string) []model.Example {
	examples := make([]model.Example, 0, len(texts))
	for _, text := range texts {
		examples = append(examples, model.Example{Text: text})
	}
	return examples
}

// tagExamples assigns a highlight language to each example: an explicit
// fence info string wins, a doctest prompt means Python, and anything
// else falls back to the document's origin language.
func tagExamples(doc *model.ParsedDocstring, fallback string) {
	for i := range doc.Examples {
		doc.Examples[i].Lang = inferExampleLang(doc.Examples[i].Text, fallback)
	}
}

func inferExampleLang(text, fallback string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if info, ok := strings.CutPrefix(trimmed, "```"); ok {
			info = strings.TrimSpace(info)
			// rustdoc fence attributes like "no_run" or
			// "should_panic" still mean Rust code.
			if comma := strings.Index(info, ","); comma >= 0 {
				info = info[:comma]
			}
			switch info {
			case "", "no_run", "should_panic", "ignore":
				return fallback
			case "py", "python3":
				return "python"
			case "rs":
				return "rust"
			case "text", "plain":
				return ""
			default:
				return info
			}
		}
		if strings.HasPrefix(trimmed, ">>> ") {
			return "python"
		}
	}
	return fallback
}
