// Package watcher removes injected monitoring elements from a dom.Tree. It
// inspects every element added to the tree, and every change to the class,
// id or marker attribute, against the policy's DOM indicators.
package watcher

import (
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/dom"
	"github.com/haukened/rr-guard/internal/guard/domain"
)

// DefaultMarkerAttribute is the attribute extensions tag their elements with.
const DefaultMarkerAttribute = "data-extension"

// Indicators matches element markers against dom-indicator rules.
// *matcher.Matcher satisfies it.
type Indicators interface {
	MatchIndicator(value string) (string, bool)
	Indicators() []string
}

// RemovalCounter counts removed elements. *metrics.Metrics satisfies it.
type RemovalCounter interface {
	IncRemoved(indicator string)
}

type nopCounter struct{}

func (nopCounter) IncRemoved(string) {}

// Option configures a Watcher.
type Option func(*Watcher)

// WithMarkerAttribute replaces the default marker attribute.
func WithMarkerAttribute(name string) Option {
	return func(w *Watcher) {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			w.marker = name
		}
	}
}

func WithLogger(l log.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithCounter(c RemovalCounter) Option {
	return func(w *Watcher) {
		if c != nil {
			w.counter = c
		}
	}
}

// Watcher observes one tree.
type Watcher struct {
	tree    *dom.Tree
	ind     Indicators
	marker  string
	logger  log.Logger
	counter RemovalCounter

	mu       sync.Mutex
	observer *dom.Observer
}

func New(tree *dom.Tree, ind Indicators, opts ...Option) *Watcher {
	w := &Watcher{
		tree:    tree,
		ind:     ind,
		marker:  DefaultMarkerAttribute,
		logger:  log.GetLogger(),
		counter: nopCounter{},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// MarkerAttribute returns the attribute name the watcher treats as a marker.
func (w *Watcher) MarkerAttribute() string { return w.marker }

// Start begins observing. Calling Start on a running watcher does nothing.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.observer != nil {
		return
	}
	w.observer = w.tree.Observe(dom.ObserveOptions{
		ChildList:       true,
		Attributes:      true,
		AttributeFilter: []string{"class", "id", w.marker},
	}, w.handle)
	w.logger.Debug(map[string]any{"marker": w.marker}, "watcher_started")
}

// Stop disconnects the observer. Calling Stop on a stopped watcher does nothing.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.observer == nil {
		return
	}
	w.observer.Disconnect()
	w.observer = nil
	w.logger.Debug(nil, "watcher_stopped")
}

// Running reports whether the watcher is observing.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.observer != nil
}

// Sweep inspects every element already in the tree and removes matches.
// Document structure (html, head, body) is never removed. It returns the
// number of elements removed.
func (w *Watcher) Sweep() int {
	var hits []*html.Node
	var inside *html.Node
	w.tree.Document().Find("*").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if inside != nil && isDescendant(n, inside) {
			return
		}
		if structural(n) {
			return
		}
		if obs, ok := w.inspect(n); ok {
			hits = append(hits, n)
			inside = n
			w.reportRemoval(obs, "sweep")
		}
	})
	for _, n := range hits {
		w.tree.Remove(n)
	}
	return len(hits)
}

func (w *Watcher) handle(records []dom.Record) {
	for _, r := range records {
		switch r.Type {
		case dom.ChildList:
			for _, added := range r.AddedNodes {
				w.scanSubtree(added)
			}
		case dom.Attributes:
			w.check(r.Target, "attribute")
		}
	}
}

// scanSubtree checks root and its descendants, stopping at the first match
// on each branch since removing it removes the branch.
func (w *Watcher) scanSubtree(root *html.Node) {
	if root.Type != html.ElementNode {
		return
	}
	if w.check(root, "added") {
		return
	}
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		w.scanSubtree(c)
		c = next
	}
}

func (w *Watcher) check(n *html.Node, trigger string) bool {
	if n == nil || n.Type != html.ElementNode || n.Parent == nil || structural(n) {
		return false
	}
	obs, ok := w.inspect(n)
	if !ok {
		return false
	}
	w.reportRemoval(obs, trigger)
	w.tree.Remove(n)
	return true
}

func (w *Watcher) reportRemoval(obs domain.MutationObservation, trigger string) {
	w.logger.Warn(map[string]any{
		"indicator": obs.Indicator,
		"element":   obs.Node.Data,
		"via":       obs.Via,
		"trigger":   trigger,
	}, "removed injected element")
	w.counter.IncRemoved(obs.Indicator)
}

// inspect runs the indicator tests on a single element.
func (w *Watcher) inspect(n *html.Node) (domain.MutationObservation, bool) {
	hit := func(ind, via string) (domain.MutationObservation, bool) {
		return domain.MutationObservation{Node: n, Indicator: ind, Via: via}, true
	}
	if v, ok := dom.Attr(n, "class"); ok {
		if ind, ok := w.ind.MatchIndicator(v); ok {
			return hit(ind, "class")
		}
	}
	if v, ok := dom.Attr(n, "id"); ok {
		if ind, ok := w.ind.MatchIndicator(v); ok {
			return hit(ind, "id")
		}
	}
	for _, ind := range w.ind.Indicators() {
		if dom.HasAttr(n, ind) {
			return hit(ind, "attribute")
		}
	}
	if v, ok := dom.Attr(n, w.marker); ok {
		if ind, ok := w.ind.MatchIndicator(v); ok {
			return hit(ind, "marker")
		}
	}
	if sr := dom.ShadowRoot(n); sr != nil {
		if inner, err := goquery.NewDocumentFromNode(sr).Html(); err == nil {
			if ind, ok := w.ind.MatchIndicator(inner); ok {
				return hit(ind, "shadow-root")
			}
		}
	}
	return domain.MutationObservation{}, false
}

// SanitizeHTML parses a document, sweeps it and renders the result to out.
// It returns the number of elements removed.
func SanitizeHTML(in io.Reader, out io.Writer, ind Indicators, opts ...Option) (int, error) {
	tree, err := dom.Parse(in)
	if err != nil {
		return 0, err
	}
	removed := New(tree, ind, opts...).Sweep()
	return removed, tree.Render(out)
}

func structural(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Html, atom.Head, atom.Body:
		return true
	}
	return false
}

func isDescendant(n, ancestor *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
