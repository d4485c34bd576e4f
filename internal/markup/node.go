package markup

import "strings"

// Node is an element of the HTML output tree. The set of implementations is
// closed: *Leaf and *Container.
type Node interface {
	// HTML serialises the node and, for containers, all of its descendants.
	HTML() string

	writeHTML(b *strings.Builder)
}

var (
	_ Node = (*Leaf)(nil)
	_ Node = (*Container)(nil)
)

// voidTags render without content or a closing tag.
var voidTags = map[string]struct{}{
	"img": {},
	"br":  {},
	"hr":  {},
}

// IsVoidTag reports whether tag is rendered as a void element.
func IsVoidTag(tag string) bool {
	_, ok := voidTags[tag]
	return ok
}

// Attribute is a single key/value pair on an element.
type Attribute struct {
	Key   string
	Value string
}

// Attributes keeps element attributes in insertion order.
type Attributes []Attribute

// Attrs builds Attributes from alternating key/value arguments. A trailing
// key without a value is ignored.
func Attrs(pairs ...string) Attributes {
	out := make(Attributes, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = out.Set(pairs[i], pairs[i+1])
	}
	return out
}

// Set returns attributes with key assigned to value. Existing keys keep
// their position.
func (a Attributes) Set(key, value string) Attributes {
	for i := range a {
		if a[i].Key == key {
			a[i].Value = value
			return a
		}
	}
	return append(a, Attribute{Key: key, Value: value})
}

// Get returns the value stored for key.
func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// HTML renders the attributes as ` key="value"` pairs, in order.
func (a Attributes) HTML() string {
	var b strings.Builder
	a.writeHTML(&b)
	return b.String()
}

func (a Attributes) writeHTML(b *strings.Builder) {
	for _, attr := range a {
		b.WriteByte(' ')
		b.WriteString(attr.Key)
		b.WriteString(`="`)
		b.WriteString(attr.Value)
		b.WriteByte('"')
	}
}

func (a Attributes) clone() Attributes {
	if len(a) == 0 {
		return nil
	}
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// Leaf is a node without children: either a raw text run (empty Tag) or a
// single element wrapping Value.
type Leaf struct {
	Tag   string
	Value string
	Attrs Attributes
}

// NewLeaf constructs a leaf node. Void tags drop the value.
func NewLeaf(tag, value string, attrs Attributes) *Leaf {
	if IsVoidTag(tag) {
		value = ""
	}
	return &Leaf{
		Tag:   tag,
		Value: value,
		Attrs: attrs.clone(),
	}
}

// HTML implements Node.
func (l *Leaf) HTML() string {
	var b strings.Builder
	l.writeHTML(&b)
	return b.String()
}

func (l *Leaf) writeHTML(b *strings.Builder) {
	if l.Tag == "" {
		b.WriteString(l.Value)
		return
	}
	openTag(b, l.Tag, l.Attrs)
	if IsVoidTag(l.Tag) {
		return
	}
	b.WriteString(l.Value)
	closeTag(b, l.Tag)
}

// Container is an element whose content is an ordered list of child nodes.
type Container struct {
	Tag      string
	Children []Node
	Attrs    Attributes
}

// NewContainer constructs a container. A nil children slice is stored as an
// empty one.
func NewContainer(tag string, children []Node, attrs Attributes) *Container {
	if children == nil {
		children = []Node{}
	}
	return &Container{
		Tag:      tag,
		Children: children,
		Attrs:    attrs.clone(),
	}
}

// HTML implements Node.
func (c *Container) HTML() string {
	var b strings.Builder
	c.writeHTML(&b)
	return b.String()
}

func (c *Container) writeHTML(b *strings.Builder) {
	openTag(b, c.Tag, c.Attrs)
	for _, child := range c.Children {
		if child == nil {
			continue
		}
		child.writeHTML(b)
	}
	closeTag(b, c.Tag)
}

func openTag(b *strings.Builder, tag string, attrs Attributes) {
	b.WriteByte('<')
	b.WriteString(tag)
	attrs.writeHTML(b)
	b.WriteByte('>')
}

func closeTag(b *strings.Builder, tag string) {
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}
