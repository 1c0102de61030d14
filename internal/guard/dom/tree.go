// Package dom is a mutation-observable HTML resource tree. Mutations made
// through the Tree queue Records; Flush hands queued records to observers in
// batches, outside the tree lock, so callbacks may mutate the tree again.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxFlushRounds bounds how many times Flush re-delivers records queued by
// observer callbacks.
const maxFlushRounds = 64

const emptyDocument = "<!DOCTYPE html><html><head></head><body></body></html>"

// RecordType says what kind of mutation a Record describes.
type RecordType int

const (
	ChildList RecordType = iota
	Attributes
)

func (t RecordType) String() string {
	switch t {
	case ChildList:
		return "childList"
	case Attributes:
		return "attributes"
	default:
		return fmt.Sprintf("RecordType(%d)", int(t))
	}
}

// Record describes one mutation.
type Record struct {
	Type          RecordType
	Target        *html.Node
	AddedNodes    []*html.Node
	RemovedNodes  []*html.Node
	AttributeName string
}

// Tree is an HTML document whose mutations can be observed.
type Tree struct {
	mu        sync.Mutex
	doc       *html.Node
	pending   []Record
	observers []*Observer
}

// NewTree returns an empty document.
func NewTree() *Tree {
	t, err := Parse(strings.NewReader(emptyDocument))
	if err != nil {
		panic(err)
	}
	return t
}

// Parse reads an HTML document. Parsing itself queues no records.
func Parse(r io.Reader) (*Tree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Tree{doc: doc}, nil
}

// Root returns the document node.
func (t *Tree) Root() *html.Node { return t.doc }

// Body returns the body element, or nil.
func (t *Tree) Body() *html.Node { return findAtom(t.doc, atom.Body) }

// Head returns the head element, or nil.
func (t *Tree) Head() *html.Node { return findAtom(t.doc, atom.Head) }

// AppendChild moves child to the end of parent's children.
func (t *Tree) AppendChild(parent, child *html.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detachLocked(child)
	parent.AppendChild(child)
	t.pending = append(t.pending, Record{Type: ChildList, Target: parent, AddedNodes: []*html.Node{child}})
}

// InsertBefore inserts child into parent before ref. A nil ref appends.
func (t *Tree) InsertBefore(parent, child, ref *html.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detachLocked(child)
	parent.InsertBefore(child, ref)
	t.pending = append(t.pending, Record{Type: ChildList, Target: parent, AddedNodes: []*html.Node{child}})
}

// SetAttr sets or replaces attribute key on n.
func (t *Tree) SetAttr(n *html.Node, key, val string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key = strings.ToLower(key)
	replaced := false
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			replaced = true
			break
		}
	}
	if !replaced {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	}
	t.pending = append(t.pending, Record{Type: Attributes, Target: n, AttributeName: key})
}

// Remove detaches n from its parent. Removing a detached node does nothing.
func (t *Tree) Remove(n *html.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detachLocked(n)
}

func (t *Tree) detachLocked(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(n)
	t.pending = append(t.pending, Record{Type: ChildList, Target: parent, RemovedNodes: []*html.Node{n}})
}

// Pending returns how many records are waiting for Flush.
func (t *Tree) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Flush delivers queued records to every connected observer whose options
// select them, one batch per observer per round. Records queued by callbacks
// are delivered in further rounds until the queue is empty.
func (t *Tree) Flush() {
	for round := 0; round < maxFlushRounds; round++ {
		t.mu.Lock()
		batch := t.pending
		t.pending = nil
		observers := append([]*Observer(nil), t.observers...)
		t.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, o := range observers {
			if recs := o.selectRecords(batch); len(recs) > 0 {
				o.deliver(recs)
			}
		}
	}
}

// Render serializes the document.
func (t *Tree) Render(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return html.Render(w, t.doc)
}

// String renders the document, for tests and logs.
func (t *Tree) String() string {
	var buf bytes.Buffer
	_ = t.Render(&buf)
	return buf.String()
}

// Document wraps the tree for goquery selection. Mutations made through the
// returned document bypass observation.
func (t *Tree) Document() *goquery.Document {
	return goquery.NewDocumentFromNode(t.doc)
}

// ShadowRoot returns the declarative shadow root attached to n, that is the
// first child <template> carrying a shadowrootmode attribute, or nil.
func ShadowRoot(n *html.Node) *html.Node {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Template && HasAttr(c, "shadowrootmode") {
			return c
		}
	}
	return nil
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// Element creates a detached element with the given attributes.
func Element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Fragment parses markup in the context of a <body> and returns the detached
// top-level nodes.
func Fragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func findAtom(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findAtom(c, a); f != nil {
			return f
		}
	}
	return nil
}
