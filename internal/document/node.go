// Package document models the catalog feed as a read-only tree of labeled
// nodes and provides an XML-backed implementation of that tree.
//
// Consumers (the catalog flattener in particular) depend only on the Node
// interface, never on encoding/xml types.
package document

// Attr is a single name/value attribute pair. Attribute order is the order in
// which the attributes appeared in the source document.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the document tree.
type Node interface {
	// Name is the element's local name (namespace prefix dropped).
	Name() string
	// Attributes returns the element's attributes in document order.
	Attributes() []Attr
	// Children returns the element's child elements in document order.
	Children() []Node
	// Text returns the element's direct character data. Text belonging to
	// descendants is not included.
	Text() string
}

// AttributeNode is implemented by children that represent an attribute rather
// than an element. Tree implementations that surface attributes through
// child iteration expose them this way; the XML Element never does.
type AttributeNode interface {
	Node
	AttributeValue() string
}

// Element is the concrete Node produced by Parse.
type Element struct {
	Local    string
	Attrs    []Attr
	Kids     []*Element
	CharData string
}

var _ Node = (*Element)(nil)

func (e *Element) Name() string       { return e.Local }
func (e *Element) Attributes() []Attr { return e.Attrs }
func (e *Element) Text() string       { return e.CharData }

func (e *Element) Children() []Node {
	if len(e.Kids) == 0 {
		return nil
	}
	out := make([]Node, len(e.Kids))
	for i, k := range e.Kids {
		out[i] = k
	}
	return out
}

// Attribute returns the value of the named attribute.
func (e *Element) Attribute(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attribute looks up an attribute by name on any Node.
func Attribute(n Node, name string) (string, bool) {
	if e, ok := n.(*Element); ok {
		return e.Attribute(name)
	}
	for _, a := range n.Attributes() {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
