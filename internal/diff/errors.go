package diff

import "fmt"

// UnsupportedChangeError reports an attempted change to a non-alterable
// attribute. The change requires manually recreating the object.
type UnsupportedChangeError struct {
	Kind      Kind
	Schema    string
	Name      string
	Attribute string
	From      string
	To        string
}

func (e *UnsupportedChangeError) Error() string {
	return fmt.Sprintf("unsupported change: %s %s attribute %q cannot be altered from %q to %q",
		e.Kind, qualifiedName(e.Schema, e.Name), e.Attribute, e.From, e.To)
}

// ValidationError reports a structurally invalid descriptor or descriptor
// pair
type ValidationError struct {
	Kind   Kind
	Schema string
	Name   string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("invalid %s %s: %s", e.Kind, qualifiedName(e.Schema, e.Name), e.Detail)
}

// Warning is a non-fatal finding attached to a diff result
type Warning struct {
	Kind      Kind
	Schema    string
	Name      string
	Attribute string
	Detail    string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %s: %s", w.Kind, qualifiedName(w.Schema, w.Name), w.Attribute, w.Detail)
}

func qualifiedName(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
