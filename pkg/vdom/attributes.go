package vdom

import (
	"sort"
	"strconv"
	"strings"
)

// Attr represents a single attribute.
type Attr struct {
	Name  string
	Value string
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Name == ""
}

// Attrs is an ordered attribute mapping. Names are unique; setting an
// existing name keeps its position and replaces the value.
type Attrs []Attr

// Get returns the value for name.
func (a Attrs) Get(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Set returns a with name set to value.
func (a Attrs) Set(name, value string) Attrs {
	for i := range a {
		if a[i].Name == name {
			a[i].Value = value
			return a
		}
	}
	return append(a, Attr{Name: name, Value: value})
}

// Equal compares two mappings key-by-key, ignoring declaration order.
func (a Attrs) Equal(b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for _, attr := range a {
		v, ok := b.Get(attr.Name)
		if !ok || v != attr.Value {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	copy(out, a)
	return out
}

// Map returns the attributes as a plain map.
func (a Attrs) Map() map[string]string {
	m := make(map[string]string, len(a))
	for _, attr := range a {
		m[attr.Name] = attr.Value
	}
	return m
}

// AttrsFromMap builds Attrs from a map, sorted by name.
func AttrsFromMap(m map[string]string) Attrs {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(Attrs, 0, len(m))
	for _, name := range names {
		out = append(out, Attr{Name: name, Value: m[name]})
	}
	return out
}

// attr creates an Attr with the given name and value.
func attr(name, value string) Attr {
	return Attr{Name: name, Value: value}
}

// boolAttr creates a boolean attribute. Present attributes have an empty value.
func boolAttr(name string) Attr {
	return attr(name, "")
}

// Identity attributes

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// StyleAttr sets the style attribute.
func StyleAttr(style string) Attr { return attr("style", style) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// CustomAttr sets an arbitrary attribute.
func CustomAttr(name, value string) Attr { return attr(name, value) }

// Accessibility attributes

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// AriaHidden sets the aria-hidden attribute.
func AriaHidden(hidden bool) Attr { return attr("aria-hidden", strconv.FormatBool(hidden)) }

// AriaExpanded sets the aria-expanded attribute.
func AriaExpanded(expanded bool) Attr { return attr("aria-expanded", strconv.FormatBool(expanded)) }

// AriaPressed sets the aria-pressed attribute.
func AriaPressed(pressed bool) Attr { return attr("aria-pressed", strconv.FormatBool(pressed)) }

// AriaLive sets the aria-live attribute.
func AriaLive(mode string) Attr { return attr("aria-live", mode) }

// TabIndex sets the tabindex attribute.
func TabIndex(index int) Attr { return attr("tabindex", strconv.Itoa(index)) }

// TitleAttr sets the title attribute (named to avoid conflict with Title element).
func TitleAttr(title string) Attr { return attr("title", title) }

// Hidden sets the hidden attribute.
func Hidden() Attr { return boolAttr("hidden") }

// Link attributes

// Href sets the href attribute.
func Href(url string) Attr { return attr("href", url) }

// Target sets the target attribute.
func Target(target string) Attr { return attr("target", target) }

// Rel sets the rel attribute.
func Rel(rel string) Attr { return attr("rel", rel) }

// Form attributes

// Name sets the name attribute.
func Name(name string) Attr { return attr("name", name) }

// Value sets the value attribute.
func Value(value string) Attr { return attr("value", value) }

// Type sets the type attribute.
func Type(t string) Attr { return attr("type", t) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Attr { return attr("placeholder", text) }

// For sets the for attribute of a label.
func For(id string) Attr { return attr("for", id) }

// Disabled sets the disabled attribute.
func Disabled() Attr { return boolAttr("disabled") }

// Checked sets the checked attribute.
func Checked() Attr { return boolAttr("checked") }

// Selected sets the selected attribute.
func Selected() Attr { return boolAttr("selected") }

// Required sets the required attribute.
func Required() Attr { return boolAttr("required") }

// Readonly sets the readonly attribute.
func Readonly() Attr { return boolAttr("readonly") }

// Autofocus sets the autofocus attribute.
func Autofocus() Attr { return boolAttr("autofocus") }

// MaxLength sets the maxlength attribute.
func MaxLength(n int) Attr { return attr("maxlength", strconv.Itoa(n)) }

// Media attributes

// Src sets the src attribute.
func Src(url string) Attr { return attr("src", url) }

// Alt sets the alt attribute.
func Alt(text string) Attr { return attr("alt", text) }

// Width sets the width attribute.
func Width(w int) Attr { return attr("width", strconv.Itoa(w)) }

// Height sets the height attribute.
func Height(h int) Attr { return attr("height", strconv.Itoa(h)) }

// Conditional attributes

// AttrIf returns the attribute if condition is true, otherwise an empty Attr
// that element constructors ignore.
func AttrIf(condition bool, a Attr) Attr {
	if condition {
		return a
	}
	return Attr{}
}

// ClassIf returns a class attribute built from the class names whose
// condition is true, in sorted order.
func ClassIf(classes map[string]bool) Attr {
	names := make([]string, 0, len(classes))
	for name, on := range classes {
		if on {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return Attr{}
	}
	sort.Strings(names)
	return Class(names...)
}
