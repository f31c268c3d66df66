package docstring

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseRustEmpty(t *testing.T) {
	t.Parallel()

	if doc := ParseRust("   "); doc != nil {
		t.Errorf("ParseRust(whitespace) = %+v, want nil", doc)
	}
}

func TestParseRustArgumentsSection(t *testing.T) {
	t.Parallel()

	doc := ParseRust("Spawns a worker.\n\n" +
		"# Arguments\n\n" +
		"* `name` - The worker name.\n" +
		"* `count` - How many tasks to take,\n" +
		"  wrapping at the queue length.\n" +
		"- `mode`: The scheduling mode.\n")
	if doc.Summary != "Spawns a worker." {
		t.Errorf("summary = %q", doc.Summary)
	}
	if len(doc.Params) != 3 {
		t.Fatalf("params = %d, want 3", len(doc.Params))
	}
	if doc.Params[0].Name != "name" || doc.Params[0].Description != "The worker name." {
		t.Errorf("param 0 = %+v", doc.Params[0])
	}
	if doc.Params[1].Description != "How many tasks to take, wrapping at the queue length." {
		t.Errorf("param 1 description = %q", doc.Params[1].Description)
	}
	if doc.Params[2].Name != "mode" || doc.Params[2].Description != "The scheduling mode." {
		t.Errorf("param 2 = %+v", doc.Params[2])
	}
	// Doc section params never carry a type.
	for i, p := range doc.Params {
		if p.Type != nil {
			t.Errorf("param %d type = %q, want absent", i, *p.Type)
		}
	}
}

func TestParseRustUnquotedParams(t *testing.T) {
	t.Parallel()

	doc := ParseRust("Adds.\n\n# Parameters\n\n* lhs - left operand\n* rhs: right operand\n")
	if len(doc.Params) != 2 {
		t.Fatalf("params = %+v", doc.Params)
	}
	if doc.Params[0].Name != "lhs" || doc.Params[1].Name != "rhs" {
		t.Errorf("names = %q, %q", doc.Params[0].Name, doc.Params[1].Name)
	}
}

func TestParseRustReturnsErrorsPanics(t *testing.T) {
	t.Parallel()

	doc := ParseRust(`Reads the config.

# Returns

The parsed configuration.

# Errors

* ` + "`ConfigError`" + ` - when the file is malformed.

Returns an error if the file is missing.

# Panics

Panics if called before initialization.
`)
	if doc.Returns == nil || doc.Returns.Description != "The parsed configuration." {
		t.Fatalf("returns = %+v", doc.Returns)
	}
	if doc.Returns.Type != nil {
		t.Errorf("returns type = %q, want absent", *doc.Returns.Type)
	}
	if len(doc.Raises) != 3 {
		t.Fatalf("raises = %+v", doc.Raises)
	}
	if doc.Raises[0].Kind != "ConfigError" {
		t.Errorf("raises 0 kind = %q", doc.Raises[0].Kind)
	}
	if doc.Raises[1].Kind != "Error" {
		t.Errorf("raises 1 kind = %q", doc.Raises[1].Kind)
	}
	if doc.Raises[2].Kind != "Panic" || !strings.Contains(doc.Raises[2].Description, "before initialization") {
		t.Errorf("raises 2 = %+v", doc.Raises[2])
	}
}

func TestParseRustSafetyAppendsToDescription(t *testing.T) {
	t.Parallel()

	doc := ParseRust("Dereferences the pointer.\n\nLow level access.\n\n# Safety\n\nThe pointer must be valid.\n")
	want := "Low level access.\n\n# Safety\nThe pointer must be valid."
	if doc.Description != want {
		t.Errorf("description = %q, want %q", doc.Description, want)
	}

	// With no description the safety note stands alone.
	doc = ParseRust("Dangerous.\n\n# Safety\n\nCaller checks bounds.\n")
	if doc.Description != "# Safety\nCaller checks bounds." {
		t.Errorf("description = %q", doc.Description)
	}
}

func TestParseRustExamples(t *testing.T) {
	t.Parallel()

	doc := ParseRust("Runs.\n\n# Examples\n\n```no_run\nlet s = Scheduler::new();\ns.run();\n```\n")
	if len(doc.Examples) != 1 {
		t.Fatalf("examples = %+v", doc.Examples)
	}
	if doc.Examples[0].Lang != "rust" {
		t.Errorf("lang = %q, want rust", doc.Examples[0].Lang)
	}
	if !strings.Contains(doc.Examples[0].Text, "Scheduler::new()") {
		t.Errorf("text = %q", doc.Examples[0].Text)
	}
}

func TestParseRustIdempotent(t *testing.T) {
	t.Parallel()

	input := "Does work.\n\n# Arguments\n\n* `x` - the input\n\n# Returns\n\nthe output\n"
	first := ParseRust(input)
	second := ParseRust(first.Original)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parse not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestParseRustHeaderLevels(t *testing.T) {
	t.Parallel()

	doc := ParseRust("Top.\n\n## Arguments\n\n* `a` - first\n\n### Returns\n\nsum\n")
	if len(doc.Params) != 1 || doc.Params[0].Name != "a" {
		t.Fatalf("params = %+v", doc.Params)
	}
	if doc.Returns == nil || doc.Returns.Description != "sum" {
		t.Fatalf("returns = %+v", doc.Returns)
	}
}
