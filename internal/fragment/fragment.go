package fragment

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node represents an HTML node in the fragment tree
type Node struct {
	Type        html.NodeType
	Data        string
	Attr        []html.Attribute
	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node
}

// Fragment is a parsed sequence of sibling nodes, as found inside <body>.
type Fragment struct {
	Nodes []*Node
}

// Parse parses an HTML fragment in body context.
func Parse(markup string) (*Fragment, error) {
	return ParseReader(strings.NewReader(markup))
}

// ParseReader parses an HTML fragment from an io.Reader
func ParseReader(r io.Reader) (*Fragment, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}

	f := &Fragment{Nodes: make([]*Node, 0, len(nodes))}
	for _, n := range nodes {
		f.Nodes = append(f.Nodes, convertNode(n, nil))
	}
	return f, nil
}

// convertNode converts an html.Node to our Node structure
func convertNode(n *html.Node, parent *Node) *Node {
	if n == nil {
		return nil
	}

	node := &Node{
		Type:   n.Type,
		Data:   n.Data,
		Attr:   append([]html.Attribute(nil), n.Attr...),
		Parent: parent,
	}

	var lastChild *Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child := convertNode(c, node)
		if node.FirstChild == nil {
			node.FirstChild = child
		}
		if lastChild != nil {
			lastChild.NextSibling = child
			child.PrevSibling = lastChild
		}
		lastChild = child
	}
	node.LastChild = lastChild

	return node
}

// Clone returns a deep copy which shares nothing with f.
func (f *Fragment) Clone() *Fragment {
	out := &Fragment{Nodes: make([]*Node, 0, len(f.Nodes))}
	for _, n := range f.Nodes {
		out.Nodes = append(out.Nodes, n.clone(nil))
	}
	return out
}

func (n *Node) clone(parent *Node) *Node {
	c := &Node{
		Type:   n.Type,
		Data:   n.Data,
		Attr:   append([]html.Attribute(nil), n.Attr...),
		Parent: parent,
	}
	var last *Node
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		cc := ch.clone(c)
		if c.FirstChild == nil {
			c.FirstChild = cc
		}
		if last != nil {
			last.NextSibling = cc
			cc.PrevSibling = last
		}
		last = cc
	}
	c.LastChild = last
	return c
}

// Attribute returns the value of the named attribute.
func (n *Node) Attribute(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether an element node carries the class name.
func (n *Node) HasClass(name string) bool {
	if n.Type != html.ElementNode || name == "" {
		return false
	}
	classes, ok := n.Attribute("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(classes) {
		if c == name {
			return true
		}
	}
	return false
}

// SetText replaces all children of n with a single text node.
func (n *Node) SetText(s string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		c.Parent = nil
	}
	t := &Node{Type: html.TextNode, Data: s, Parent: n}
	n.FirstChild = t
	n.LastChild = t
}

// Text returns the concatenated text content of n.
func (n *Node) Text() string {
	var sb strings.Builder
	n.walk(func(x *Node) {
		if x.Type == html.TextNode {
			sb.WriteString(x.Data)
		}
	})
	return sb.String()
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		c.walk(fn)
	}
}

// FindByClass returns element nodes carrying the class, in document order.
func (f *Fragment) FindByClass(name string) []*Node {
	var found []*Node
	for _, root := range f.Nodes {
		root.walk(func(n *Node) {
			if n.HasClass(name) {
				found = append(found, n)
			}
		})
	}
	return found
}

// Text returns the concatenated text content of the fragment.
func (f *Fragment) Text() string {
	var sb strings.Builder
	for _, n := range f.Nodes {
		sb.WriteString(n.Text())
	}
	return sb.String()
}

// Render renders the fragment back to HTML
func (f *Fragment) Render() (string, error) {
	var buf bytes.Buffer
	for _, n := range f.Nodes {
		if err := html.Render(&buf, toHTML(n)); err != nil {
			return "", fmt.Errorf("failed to render fragment: %w", err)
		}
	}
	return buf.String(), nil
}

// toHTML converts a node and its descendants back into an html.Node tree
func toHTML(n *Node) *html.Node {
	node := &html.Node{
		Type: n.Type,
		Data: n.Data,
		Attr: n.Attr,
	}
	if n.Type == html.ElementNode {
		node.DataAtom = atom.Lookup([]byte(n.Data))
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		node.AppendChild(toHTML(c))
	}
	return node
}
