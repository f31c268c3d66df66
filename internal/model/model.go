// Package model defines the unified documentation model shared by the
// parsers, the cross-reference resolver, and the renderer. A DocModel is
// built once per run, frozen after resolution, and handed to rendering
// as an immutable snapshot.
package model

import (
	"encoding/json"
	"fmt"
)

// Language tags the origin language of a module or item.
type Language string

const (
	LangRust   Language = "rust"
	LangPython Language = "python"
)

// ModuleOrigin describes how a Python module came to exist.
type ModuleOrigin string

const (
	// OriginPython is hand-authored Python source.
	OriginPython ModuleOrigin = "python"
	// OriginBinding is a Python module backed by native bindings.
	OriginBinding ModuleOrigin = "pyo3"
)

// Visibility is the access tier of a Rust item.
type Visibility string

const (
	VisPublic  Visibility = "public"
	VisCrate   Visibility = "crate"
	VisSuper   Visibility = "super"
	VisPrivate Visibility = "private"
)

// SourceLocation points at a line range in a source file.
type SourceLocation struct {
	File      string `json:"file"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d-%d", l.File, l.LineStart, l.LineEnd)
}

// SourceSpan is a location plus the source text it covers.
type SourceSpan struct {
	Location SourceLocation `json:"location"`
	Source   string         `json:"source,omitempty"`
}

// BindingMeta is the metadata attached to an item that is explicitly
// exposed across the language boundary. Empty fields mean the exposure
// uses the item's own name and enclosing module.
type BindingMeta struct {
	// Name is the explicit external name, if any.
	Name string `json:"name,omitempty"`
	// Module is the explicit external container, if any.
	Module string `json:"module,omitempty"`
}

// ItemRef is a resolved back-reference to an item on the other side of
// the binding bridge. Path is the display path of the enclosing module
// plus the item name.
type ItemRef struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Param is a callable parameter. Type and Default are opaque source
// strings; empty means not present in the source.
type Param struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default string `json:"default,omitempty"`
}

// ParsedDocstring is the structured form of a documentation comment.
// Original always carries the unmodified input text; rendering may
// prefer either form.
type ParsedDocstring struct {
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Params      []ParamDoc `json:"params,omitempty"`
	Returns     *ReturnDoc `json:"returns,omitempty"`
	Raises      []RaiseDoc `json:"raises,omitempty"`
	Examples    []Example  `json:"examples,omitempty"`
	Original    string     `json:"original"`
}

// IsEmpty reports whether no content at all was extracted.
func (d *ParsedDocstring) IsEmpty() bool {
	return d.Summary == "" && d.Description == "" && len(d.Params) == 0 &&
		d.Returns == nil && len(d.Raises) == 0 && len(d.Examples) == 0
}

// ParamDoc documents one parameter. Type is nil when the docstring did
// not state one; an empty string is never stored.
type ParamDoc struct {
	Name        string  `json:"name"`
	Type        *string `json:"type,omitempty"`
	Description string  `json:"description"`
}

// ReturnDoc documents a return value.
type ReturnDoc struct {
	Type        *string `json:"type,omitempty"`
	Description string  `json:"description"`
}

// RaiseDoc documents one error condition. Kind is the exception name
// for Python-style docs, or "Error"/"Panic" for Rust sections so
// rendering can distinguish the two.
type RaiseDoc struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// Example is one example block with an inferred highlight language.
// Lang is "python", "rust", or "" for no highlighting.
type Example struct {
	Text string `json:"text"`
	Lang string `json:"lang,omitempty"`
}

// ============================================================================
// Rust model
// ============================================================================

// RustItemKind discriminates the closed set of Rust item variants.
type RustItemKind string

const (
	KindRustStruct    RustItemKind = "struct"
	KindRustEnum      RustItemKind = "enum"
	KindRustFunction  RustItemKind = "function"
	KindRustTrait     RustItemKind = "trait"
	KindRustImpl      RustItemKind = "impl"
	KindRustConst     RustItemKind = "const"
	KindRustTypeAlias RustItemKind = "type_alias"
)

// RustItem is the closed union of declarations a Rust module may
// contain. Consumers dispatch on Kind, never on dynamic type checks
// beyond the single switch.
type RustItem interface {
	Kind() RustItemKind
	Span() SourceSpan
}

// RustModule is one parsed Rust source file.
type RustModule struct {
	// Path is the canonical module path as normalized segments,
	// e.g. ["mycrate", "tasks"]. Display form joins with "::".
	Path      []string         `json:"path"`
	Doc       string           `json:"doc,omitempty"`
	ParsedDoc *ParsedDocstring `json:"parsed_doc,omitempty"`
	Items     []RustItem       `json:"-"`
	Source    SourceSpan       `json:"source"`
}

// RustStruct is a struct declaration.
type RustStruct struct {
	Name      string           `json:"name"`
	Vis       Visibility       `json:"visibility"`
	Doc       string           `json:"doc,omitempty"`
	ParsedDoc *ParsedDocstring `json:"parsed_doc,omitempty"`
	Generics  string           `json:"generics,omitempty"`
	Fields    []RustField      `json:"fields,omitempty"`
	Derives   []string         `json:"derives,omitempty"`
	Binding   *BindingMeta     `json:"binding,omitempty"`
	PyRef     *ItemRef         `json:"py_ref,omitempty"`
	Src       SourceSpan       `json:"source"`
}

func (s *RustStruct) Kind() RustItemKind { return KindRustStruct }
func (s *RustStruct) Span() SourceSpan   { return s.Src }

// RustField is a named struct field.
type RustField struct {
	Name string     `json:"name"`
	Type string     `json:"type"`
	Vis  Visibility `json:"visibility"`
	Doc  string     `json:"doc,omitempty"`
}

// RustEnum is an enum declaration.
type RustEnum struct {
	Name      string           `json:"name"`
	Vis       Visibility       `json:"visibility"`
	Doc       string           `json:"doc,omitempty"`
	ParsedDoc *ParsedDocstring `json:"parsed_doc,omitempty"`
	Generics  string           `json:"generics,omitempty"`
	Variants  []RustVariant    `json:"variants,omitempty"`
	Binding   *BindingMeta     `json:"binding,omitempty"`
	PyRef     *ItemRef         `json:"py_ref,omitempty"`
	Src       SourceSpan       `json:"source"`
}

func (e *RustEnum) Kind() RustItemKind { return KindRustEnum }
func (e *RustEnum) Span() SourceSpan   { return e.Src }

// RustVariant is one enum variant with an optional payload description.
type RustVariant struct {
	Name   string      `json:"name"`
	Doc    string      `json:"doc,omitempty"`
	Fields []RustField `json:"fields,omitempty"`
}

// RustFunction is a free function or a method inside an impl or trait.
type RustFunction struct {
	Name       string           `json:"name"`
	Vis        Visibility       `json:"visibility"`
	Doc        string           `json:"doc,omitempty"`
	ParsedDoc  *ParsedDocstring `json:"parsed_doc,omitempty"`
	Generics   string           `json:"generics,omitempty"`
	Signature  string           `json:"signature"`
	Params     []Param          `json:"params,omitempty"`
	ReturnType string           `json:"return_type,omitempty"`
	IsAsync    bool             `json:"is_async,omitempty"`
	IsUnsafe   bool             `json:"is_unsafe,omitempty"`
	IsConst    bool             `json:"is_const,omitempty"`
	Binding    *BindingMeta     `json:"binding,omitempty"`
	PyRef      *ItemRef         `json:"py_ref,omitempty"`
	Src        SourceSpan       `json:"source"`
}

func (f *RustFunction) Kind() RustItemKind { return KindRustFunction }
func (f *RustFunction) Span() SourceSpan   { return f.Src }

// RustTrait is a trait declaration.
type RustTrait struct {
	Name      string           `json:"name"`
	Vis       Visibility       `json:"visibility"`
	Doc       string           `json:"doc,omitempty"`
	ParsedDoc *ParsedDocstring `json:"parsed_doc,omitempty"`
	Generics  string           `json:"generics,omitempty"`
	Bounds    string           `json:"bounds,omitempty"`
	Methods   []RustFunction   `json:"methods,omitempty"`
	Src       SourceSpan       `json:"source"`
}

func (t *RustTrait) Kind() RustItemKind { return KindRustTrait }
func (t *RustTrait) Span() SourceSpan   { return t.Src }

// RustImpl is an impl block. PyMethods marks #[pymethods] blocks whose
// methods are exposed on the bound class.
type RustImpl struct {
	Target    string         `json:"target"`
	Trait     string         `json:"trait,omitempty"`
	Generics  string         `json:"generics,omitempty"`
	Methods   []RustFunction `json:"methods,omitempty"`
	PyMethods bool           `json:"pymethods,omitempty"`
	Src       SourceSpan     `json:"source"`
}

func (i *RustImpl) Kind() RustItemKind { return KindRustImpl }
func (i *RustImpl) Span() SourceSpan   { return i.Src }

// RustConst is a module-level const item.
type RustConst struct {
	Name  string     `json:"name"`
	Vis   Visibility `json:"visibility"`
	Doc   string     `json:"doc,omitempty"`
	Type  string     `json:"type"`
	Value string     `json:"value,omitempty"`
	Src   SourceSpan `json:"source"`
}

func (c *RustConst) Kind() RustItemKind { return KindRustConst }
func (c *RustConst) Span() SourceSpan   { return c.Src }

// RustTypeAlias is a type alias declaration.
type RustTypeAlias struct {
	Name     string     `json:"name"`
	Vis      Visibility `json:"visibility"`
	Doc      string     `json:"doc,omitempty"`
	Generics string     `json:"generics,omitempty"`
	Type     string     `json:"type"`
	Src      SourceSpan `json:"source"`
}

func (t *RustTypeAlias) Kind() RustItemKind { return KindRustTypeAlias }
func (t *RustTypeAlias) Span() SourceSpan   { return t.Src }

// ============================================================================
// Python model
// ============================================================================

// PyItemKind discriminates the closed set of Python item variants.
type PyItemKind string

const (
	KindPyClass    PyItemKind = "class"
	KindPyFunction PyItemKind = "function"
	KindPyVariable PyItemKind = "variable"
)

// PyItem is the closed union of declarations a Python module may contain.
type PyItem interface {
	Kind() PyItemKind
	Span() SourceSpan
}

// PythonModule is one parsed (or synthesized) Python source file.
type PythonModule struct {
	// Path is the canonical module path as normalized segments,
	// e.g. ["mypackage", "utils"]. Display form joins with ".".
	Path        []string         `json:"path"`
	Doc         string           `json:"doc,omitempty"`
	ParsedDoc   *ParsedDocstring `json:"parsed_doc,omitempty"`
	Items       []PyItem         `json:"-"`
	Origin      ModuleOrigin     `json:"origin"`
	Synthesized bool             `json:"synthesized,omitempty"`
	Source      SourceSpan       `json:"source"`
}

// PyClass is a class declaration.
type PyClass struct {
	Name        string           `json:"name"`
	Doc         string           `json:"doc,omitempty"`
	ParsedDoc   *ParsedDocstring `json:"parsed_doc,omitempty"`
	Bases       []string         `json:"bases,omitempty"`
	Methods     []PyFunction     `json:"methods,omitempty"`
	Attributes  []PyVariable     `json:"attributes,omitempty"`
	Decorators  []string         `json:"decorators,omitempty"`
	RustImpl    *ItemRef         `json:"rust_impl,omitempty"`
	Synthesized bool             `json:"synthesized,omitempty"`
	Src         SourceSpan       `json:"source"`
}

func (c *PyClass) Kind() PyItemKind { return KindPyClass }
func (c *PyClass) Span() SourceSpan { return c.Src }

// PyFunction is a function or method declaration.
type PyFunction struct {
	Name          string           `json:"name"`
	Doc           string           `json:"doc,omitempty"`
	ParsedDoc     *ParsedDocstring `json:"parsed_doc,omitempty"`
	Signature     string           `json:"signature"`
	Params        []Param          `json:"params,omitempty"`
	ReturnType    string           `json:"return_type,omitempty"`
	Decorators    []string         `json:"decorators,omitempty"`
	IsAsync       bool             `json:"is_async,omitempty"`
	IsStaticM     bool             `json:"is_staticmethod,omitempty"`
	IsClassMethod bool             `json:"is_classmethod,omitempty"`
	IsProperty    bool             `json:"is_property,omitempty"`
	RustImpl      *ItemRef         `json:"rust_impl,omitempty"`
	Synthesized   bool             `json:"synthesized,omitempty"`
	Src           SourceSpan       `json:"source"`
}

func (f *PyFunction) Kind() PyItemKind { return KindPyFunction }
func (f *PyFunction) Span() SourceSpan { return f.Src }

// PyVariable is a module-level variable or class attribute.
type PyVariable struct {
	Name  string     `json:"name"`
	Type  string     `json:"type,omitempty"`
	Value string     `json:"value,omitempty"`
	Doc   string     `json:"doc,omitempty"`
	Src   SourceSpan `json:"source"`
}

func (v *PyVariable) Kind() PyItemKind { return KindPyVariable }
func (v *PyVariable) Span() SourceSpan { return v.Src }

// ============================================================================
// Cross-references
// ============================================================================

// CrossRefKind classifies the relationship carried by a CrossRef.
type CrossRefKind string

const (
	// RefBinding is a direct native binding exposure.
	RefBinding CrossRefKind = "binding"
	// RefWraps is a Python item wrapping a native implementation.
	RefWraps CrossRefKind = "wraps"
	// RefDelegates is a Python item delegating to a native implementation.
	RefDelegates CrossRefKind = "delegates"
)

// CrossRef links one Python item path to one Rust item path. Paths are
// display paths; both endpoints are guaranteed to resolve to items that
// exist in the model.
type CrossRef struct {
	PythonPath string       `json:"python_path"`
	RustPath   string       `json:"rust_path"`
	Relation   CrossRefKind `json:"relationship"`
}

// ============================================================================
// Warnings
// ============================================================================

// WarningKind classifies non-fatal conditions surfaced by a run.
type WarningKind string

const (
	WarnUnresolvedMethod WarningKind = "unresolved_method"
	WarnDanglingCrossRef WarningKind = "dangling_crossref"
	WarnSynthesized      WarningKind = "synthesized_placeholder"
	WarnQuality          WarningKind = "quality"
)

// Warning is a single non-fatal condition. Rendering and CI surface
// warnings but never halt on them.
type Warning struct {
	Kind    WarningKind     `json:"kind"`
	Message string          `json:"message"`
	Where   *SourceLocation `json:"where,omitempty"`
}

func (w Warning) String() string {
	if w.Where != nil {
		return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Message, w.Where)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// ============================================================================
// Top-level model
// ============================================================================

// ProjectMetadata identifies the project a model was built from.
type ProjectMetadata struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	GitRef      string `json:"git_ref,omitempty"`
	GitCommit   string `json:"git_commit,omitempty"`
	GeneratedAt string `json:"generated_at"`
}

// DocModel is the complete documentation model for one run. It is
// mutated only during construction and by the resolver phase; after
// that it is treated as frozen.
type DocModel struct {
	Metadata      ProjectMetadata `json:"metadata"`
	RustModules   []RustModule    `json:"rust_modules"`
	PythonModules []PythonModule  `json:"python_modules"`
	CrossRefs     []CrossRef      `json:"cross_refs"`
}

// ============================================================================
// JSON envelopes for the item unions
// ============================================================================

type rustItemEnvelope struct {
	Kind      RustItemKind   `json:"kind"`
	Struct    *RustStruct    `json:"struct,omitempty"`
	Enum      *RustEnum      `json:"enum,omitempty"`
	Function  *RustFunction  `json:"function,omitempty"`
	Trait     *RustTrait     `json:"trait,omitempty"`
	Impl      *RustImpl      `json:"impl,omitempty"`
	Const     *RustConst     `json:"const,omitempty"`
	TypeAlias *RustTypeAlias `json:"type_alias,omitempty"`
}

func wrapRustItem(item RustItem) rustItemEnvelope {
	env := rustItemEnvelope{Kind: item.Kind()}
	switch it := item.(type) {
	case *RustStruct:
		env.Struct = it
	case *RustEnum:
		env.Enum = it
	case *RustFunction:
		env.Function = it
	case *RustTrait:
		env.Trait = it
	case *RustImpl:
		env.Impl = it
	case *RustConst:
		env.Const = it
	case *RustTypeAlias:
		env.TypeAlias = it
	}
	return env
}

func (e rustItemEnvelope) unwrap() (RustItem, error) {
	switch e.Kind {
	case KindRustStruct:
		return e.Struct, nil
	case KindRustEnum:
		return e.Enum, nil
	case KindRustFunction:
		return e.Function, nil
	case KindRustTrait:
		return e.Trait, nil
	case KindRustImpl:
		return e.Impl, nil
	case KindRustConst:
		return e.Const, nil
	case KindRustTypeAlias:
		return e.TypeAlias, nil
	}
	return nil, fmt.Errorf("unknown rust item kind %q", e.Kind)
}

// MarshalJSON serializes the module with its item union expanded into
// kind-tagged envelopes, preserving every field losslessly.
func (m RustModule) MarshalJSON() ([]byte, error) {
	type alias RustModule
	envs := make([]rustItemEnvelope, 0, len(m.Items))
	for _, item := range m.Items {
		envs = append(envs, wrapRustItem(item))
	}
	return json.Marshal(struct {
		alias
		Items []rustItemEnvelope `json:"items"`
	}{alias(m), envs})
}

// UnmarshalJSON restores the item union from kind-tagged envelopes.
func (m *RustModule) UnmarshalJSON(data []byte) error {
	type alias RustModule
	aux := struct {
		*alias
		Items []rustItemEnvelope `json:"items"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Items = make([]RustItem, 0, len(aux.Items))
	for _, env := range aux.Items {
		item, err := env.unwrap()
		if err != nil {
			return err
		}
		m.Items = append(m.Items, item)
	}
	return nil
}

type pyItemEnvelope struct {
	Kind     PyItemKind  `json:"kind"`
	Class    *PyClass    `json:"class,omitempty"`
	Function *PyFunction `json:"function,omitempty"`
	Variable *PyVariable `json:"variable,omitempty"`
}

func wrapPyItem(item PyItem) pyItemEnvelope {
	env := pyItemEnvelope{Kind: item.Kind()}
	switch it := item.(type) {
	case *PyClass:
		env.Class = it
	case *PyFunction:
		env.Function = it
	case *PyVariable:
		env.Variable = it
	}
	return env
}

func (e pyItemEnvelope) unwrap() (PyItem, error) {
	switch e.Kind {
	case KindPyClass:
		return e.Class, nil
	case KindPyFunction:
		return e.Function, nil
	case KindPyVariable:
		return e.Variable, nil
	}
	return nil, fmt.Errorf("unknown python item kind %q", e.Kind)
}

// MarshalJSON serializes the module with its item union expanded into
// kind-tagged envelopes.
func (m PythonModule) MarshalJSON() ([]byte, error) {
	type alias PythonModule
	envs := make([]pyItemEnvelope, 0, len(m.Items))
	for _, item := range m.Items {
		envs = append(envs, wrapPyItem(item))
	}
	return json.Marshal(struct {
		alias
		Items []pyItemEnvelope `json:"items"`
	}{alias(m), envs})
}

// UnmarshalJSON restores the item union from kind-tagged envelopes.
func (m *PythonModule) UnmarshalJSON(data []byte) error {
	type alias PythonModule
	aux := struct {
		*alias
		Items []pyItemEnvelope `json:"items"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Items = make([]PyItem, 0, len(aux.Items))
	for _, env := range aux.Items {
		item, err := env.unwrap()
		if err != nil {
			return err
		}
		m.Items = append(m.Items, item)
	}
	return nil
}
