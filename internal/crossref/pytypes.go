package crossref

import "strings"

// RustTypeToPython converts a Rust type string to a best-effort Python
// type hint. Wrapper types from the binding layer are unwrapped, common
// containers map to typing generics, and anything unrecognized passes
// through unchanged.
func RustTypeToPython(rustType string) string {
	var b strings.Builder
	for _, c := range rustType {
		if c != ' ' && c != '\t' && c != '\n' {
			b.WriteRune(c)
		}
	}
	return convertType(b.String())
}

var pyNativeTypes = map[string]string{
	"PyString":    "str",
	"PyList":      "list",
	"PyDict":      "dict",
	"PyTuple":     "tuple",
	"PySet":       "set",
	"PyFrozenSet": "frozenset",
	"PyBytes":     "bytes",
	"PyByteArray": "bytearray",
	"PyInt":       "int",
	"PyLong":      "int",
	"PyFloat":     "float",
	"PyBool":      "bool",
	"PyNone":      "None",
	"PyModule":    "ModuleType",
	"PyType":      "type",
	"PyObject":    "Any",
	"PyAny":       "Any",
}

var rustPrimitives = map[string]string{
	"i8": "int", "i16": "int", "i32": "int", "i64": "int", "i128": "int", "isize": "int",
	"u8": "int", "u16": "int", "u32": "int", "u64": "int", "u128": "int", "usize": "int",
	"f32": "float", "f64": "float",
	"bool":   "bool",
	"String": "str", "str": "str", "&str": "str", "&String": "str", "char": "str",
	"()":   "None",
	"Self": "Self",
}

func convertType(s string) string {
	if s == "" {
		return ""
	}

	// Tuples: (A, B) becomes Tuple[A, B]; the unit type is None.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		inner := s[1 : len(s)-1]
		if inner == "" {
			return "None"
		}
		elems := splitTopLevel(inner)
		for i, e := range elems {
			elems[i] = convertType(e)
		}
		return "Tuple[" + strings.Join(elems, ", ") + "]"
	}

	// Slices: [u8] is bytes, any other [T] is List[T].
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := s[1 : len(s)-1]
		if inner == "u8" {
			return "bytes"
		}
		return "List[" + convertType(inner) + "]"
	}

	base := s
	if idx := strings.LastIndex(s, "::"); idx >= 0 && !strings.Contains(s, "<") {
		base = s[idx+2:]
	}
	if mapped, ok := pyNativeTypes[base]; ok {
		return mapped
	}
	if mapped, ok := rustPrimitives[s]; ok {
		return mapped
	}

	switch {
	case generic(s, "Vec"):
		return "List[" + convertType(genericInner(s, "Vec")) + "]"
	case generic(s, "Option"):
		return "Optional[" + convertType(genericInner(s, "Option")) + "]"
	case generic(s, "HashMap"), generic(s, "BTreeMap"):
		inner := s[strings.Index(s, "<")+1 : len(s)-1]
		if key, val, ok := splitPair(inner); ok {
			return "Dict[" + convertType(key) + ", " + convertType(val) + "]"
		}
		return "Dict[str, Any]"
	case generic(s, "HashSet"), generic(s, "BTreeSet"):
		inner := s[strings.Index(s, "<")+1 : len(s)-1]
		return "Set[" + convertType(inner) + "]"
	// Binding-layer wrappers disappear in the Python view.
	case generic(s, "PyResult"):
		return convertType(genericInner(s, "PyResult"))
	case generic(s, "Py"):
		return convertType(genericInner(s, "Py"))
	case generic(s, "Bound"):
		inner := genericInner(s, "Bound")
		if comma := strings.Index(inner, ","); comma >= 0 {
			return convertType(strings.TrimLeft(inner[comma+1:], " "))
		}
		return convertType(inner)
	case generic(s, "Result"):
		inner := genericInner(s, "Result")
		if ok, _, found := splitPair(inner); found {
			return convertType(ok)
		}
		return convertType(inner)
	case strings.HasPrefix(s, "&mut"):
		return convertType(strings.TrimLeft(s[4:], " "))
	case strings.HasPrefix(s, "&"):
		return convertType(s[1:])
	// The GIL token is not a real parameter type.
	case strings.HasPrefix(s, "Python<"):
		return ""
	case strings.Contains(s, "::"):
		last := s[strings.LastIndex(s, "::")+2:]
		if converted := convertType(last); converted != last {
			return converted
		}
		return last
	}
	return s
}

func generic(s, name string) bool {
	return strings.HasPrefix(s, name+"<") && strings.HasSuffix(s, ">")
}

func genericInner(s, name string) string {
	return s[len(name)+1 : len(s)-1]
}

// splitPair splits "K,V" at the first top-level comma, respecting
// nested angle brackets and parentheses.
func splitPair(s string) (string, string, bool) {
	depth := 0
	for i, c := range s {
		switch c {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				return s[:i], strings.TrimLeft(s[i+1:], " "), true
			}
		}
	}
	return "", "", false
}

// splitTopLevel splits comma-separated elements, respecting nesting.
func splitTopLevel(s string) []string {
	var elems []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				elems = append(elems, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		elems = append(elems, last)
	}
	return elems
}
