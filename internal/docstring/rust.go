package docstring

import (
	"strings"

	"github.com/bridgedoc/bridgedoc/internal/model"
)

// ParseRust parses a Rust doc comment body (/// and //! markers already
// stripped). Conventional markdown sections are recognized:
//
//	# Arguments / # Parameters  parameter list
//	# Returns                   return value
//	# Errors                    error conditions, kind "Error"
//	# Panics                    panic conditions, kind "Panic"
//	# Safety                    appended to the description
//	# Examples                  code examples
//
// It returns nil when the input is empty after trimming.
func ParseRust(text string) *model.ParsedDocstring {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	lines := strings.Split(trimmed, "\n")
	summary, description, i := extractRustIntro(lines)
	doc := &model.ParsedDocstring{Summary: summary, Description: description, Original: trimmed}
	var safety []string

	for i < len(lines) {
		name, ok := markdownHeader(strings.TrimSpace(lines[i]))
		if !ok {
			i++
			continue
		}
		switch strings.ToLower(name) {
		case "arguments", "parameters", "args", "params":
			doc.Params, i = parseRustArguments(lines, i+1)
		case "returns", "return":
			var text string
			text, i = parseRustSectionText(lines, i+1)
			if text != "" {
				doc.Returns = &model.ReturnDoc{Description: text}
			}
		case "errors", "error":
			var parsed []model.RaiseDoc
			parsed, i = parseRustErrors(lines, i+1, "Error")
			doc.Raises = append(doc.Raises, parsed...)
		case "panics", "panic":
			var parsed []model.RaiseDoc
			parsed, i = parseRustErrors(lines, i+1, "Panic")
			doc.Raises = append(doc.Raises, parsed...)
		case "safety":
			var text string
			text, i = parseRustSectionText(lines, i+1)
			safety = append(safety, text)
		case "examples", "example":
			var texts []string
			texts, i = parseExampleBlocks(lines, i+1, rustSectionStop)
			doc.Examples = toExamples(texts)
		default:
			i++
		}
	}

	if len(safety) > 0 {
		note := "# Safety\n" + strings.Join(safety, "\n")
		if doc.Description != "" {
			doc.Description += "\n\n" + note
		} else {
			doc.Description = note
		}
	}

	tagExamples(doc, "rust")
	return doc
}

func extractRustIntro(lines []string) (summary, description string, next int) {
	var summaryLines, descLines []string
	inDescription := false
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if _, ok := markdownHeader(line); ok {
			break
		}
		if line == "" {
			if len(summaryLines) > 0 {
				inDescription = true
			}
			continue
		}
		if inDescription {
			descLines = append(descLines, line)
		} else {
			summaryLines = append(summaryLines, line)
		}
	}
	return strings.Join(summaryLines, " "), strings.Join(descLines, "\n"), i
}

// markdownHeader matches "# Name" through "### Name".
func markdownHeader(line string) (string, bool) {
	for _, prefix := range []string{"### ", "## ", "# "} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

func rustSectionStop(lines []string, i int) bool {
	_, ok := markdownHeader(strings.TrimSpace(lines[i]))
	return ok
}

func parseRustArguments(lines []string, start int) ([]model.ParamDoc, int) {
	var params []model.ParamDoc
	var name string
	var desc []string

	flush := func() {
		if name != "" {
			params = append(params, model.ParamDoc{
				Name:        name,
				Description: strings.TrimSpace(strings.Join(desc, " ")),
			})
		}
		name, desc = "", nil
	}

	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if _, ok := markdownHeader(trimmed); ok {
			break
		}
		if trimmed == "" {
			flush()
			continue
		}
		if entryName, entryDesc, ok := parseRustParamLine(trimmed); ok {
			flush()
			name = entryName
			desc = []string{entryDesc}
		} else if name != "" && !strings.HasPrefix(trimmed, "*") && !strings.HasPrefix(trimmed, "-") {
			desc = append(desc, trimmed)
		}
	}
	flush()
	return params, i
}

// parseRustParamLine matches the list item shapes rustdoc conventions
// use: "* `name` - desc", "- `name`: desc", and the unquoted
// "* name - desc" / "* name: desc" variants.
func parseRustParamLine(line string) (string, string, bool) {
	if !strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "-") {
		return "", "", false
	}
	rest := strings.TrimSpace(line[1:])

	if after, ok := strings.CutPrefix(rest, "`"); ok {
		if end := strings.Index(after, "`"); end >= 0 {
			name := after[:end]
			desc := strings.TrimSpace(after[end+1:])
			desc = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(desc, "-"), ":"))
			return name, desc, true
		}
	}
	if sep := strings.Index(rest, " - "); sep >= 0 {
		return strings.TrimSpace(rest[:sep]), strings.TrimSpace(rest[sep+3:]), true
	}
	if sep := strings.Index(rest, ":"); sep >= 0 {
		return strings.TrimSpace(rest[:sep]), strings.TrimSpace(rest[sep+1:]), true
	}
	return "", "", false
}

func parseRustErrors(lines []string, start int, kind string) ([]model.RaiseDoc, int) {
	var raises []model.RaiseDoc
	var entryKind string
	var desc []string

	flush := func() {
		if entryKind == "" && len(desc) == 0 {
			return
		}
		k := entryKind
		if k == "" {
			k = kind
		}
		raises = append(raises, model.RaiseDoc{
			Kind:        k,
			Description: strings.TrimSpace(strings.Join(desc, " ")),
		})
		entryKind, desc = "", nil
	}

	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if _, ok := markdownHeader(trimmed); ok {
			break
		}
		if trimmed == "" {
			flush()
			continue
		}
		if strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "-") {
			flush()
			rest := strings.TrimSpace(trimmed[1:])
			// A leading backtick names the error type.
			if after, ok := strings.CutPrefix(rest, "`"); ok {
				if end := strings.Index(after, "`"); end >= 0 {
					entryKind = after[:end]
					tail := strings.TrimSpace(after[end+1:])
					tail = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(tail, "-"), ":"))
					desc = []string{tail}
					continue
				}
			}
			entryKind = kind
			desc = []string{rest}
		} else if len(desc) > 0 {
			desc = append(desc, trimmed)
		} else {
			entryKind = kind
			desc = append(desc, trimmed)
		}
	}
	flush()
	return raises, i
}

// parseRustSectionText joins a section's prose into a single line,
// stopping at the next header.
func parseRustSectionText(lines []string, start int) (string, int) {
	var text []string
	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if _, ok := markdownHeader(trimmed); ok {
			break
		}
		if trimmed == "" && len(text) == 0 {
			continue
		}
		text = append(text, trimmed)
	}
	for len(text) > 0 && text[len(text)-1] == "" {
		text = text[:len(text)-1]
	}
	return strings.TrimSpace(strings.Join(text, " ")), i
}
