package remote

import (
	"fmt"
	"strings"
)

// registrationMarker prefixes the decorator-style lines stripped from
// registered source text.
const registrationMarker = "@remote"

// Param describes one declared parameter of a remote function.
type Param struct {
	// Name is the parameter name, required.
	Name string `json:"name"`

	// Type is the optional declared type annotation.
	Type string `json:"type,omitempty"`

	// Default is the value bound when the parameter is omitted at call
	// time. Only meaningful when HasDefault is set; kept separate so an
	// explicit nil default stays representable.
	Default any `json:"default,omitempty"`

	// HasDefault marks parameters that may be omitted at call time.
	HasDefault bool `json:"-"`
}

// Signature describes the declared call shape of a remote function. Its
// JSON form is the signature_json text sent to the install primitive.
type Signature struct {
	Params  []Param `json:"args"`
	Returns string  `json:"returns,omitempty"`
}

// Arg declares a required parameter.
func Arg(name string) Param { return Param{Name: name} }

// OptionalArg declares a parameter with a default value.
func OptionalArg(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// bind resolves positional and named call arguments against the signature,
// applying defaults for omitted parameters.
func (s Signature) bind(pos []any, named map[string]any) (map[string]any, error) {
	if len(pos) > len(s.Params) {
		return nil, fmt.Errorf("%w: %d positional arguments for %d parameters",
			ErrSignatureMismatch, len(pos), len(s.Params))
	}

	bound := make(map[string]any, len(s.Params))
	for i, v := range pos {
		bound[s.Params[i].Name] = v
	}
	for name, v := range named {
		if !s.declares(name) {
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrSignatureMismatch, name)
		}
		if _, dup := bound[name]; dup {
			return nil, fmt.Errorf("%w: parameter %q given twice", ErrSignatureMismatch, name)
		}
		bound[name] = v
	}
	for _, p := range s.Params {
		if _, ok := bound[p.Name]; ok {
			continue
		}
		if p.HasDefault {
			bound[p.Name] = p.Default
			continue
		}
		return nil, fmt.Errorf("%w: missing argument %q", ErrSignatureMismatch, p.Name)
	}
	return bound, nil
}

func (s Signature) declares(name string) bool {
	for _, p := range s.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// normalizeSource strips registration marker lines and removes the uniform
// indentation so the stored text parses on its own. Returns the empty
// string when nothing remains.
func normalizeSource(source string) string {
	lines := strings.Split(source, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), registrationMarker) {
			continue
		}
		kept = append(kept, line)
	}
	out := dedent(strings.Join(kept, "\n"))
	if strings.TrimSpace(out) == "" {
		return ""
	}
	return strings.Trim(out, "\n")
}

// dedent removes the longest common leading whitespace of all non-blank
// lines.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	indent := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		n := len(line) - len(trimmed)
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return s
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
