package domain

import "golang.org/x/net/html"

// MutationObservation pairs an element with the indicator it matched.
// It is produced by the tree watcher and consumed immediately by removing
// the element; it is never stored.
type MutationObservation struct {
	Node      *html.Node
	Indicator string
	Via       string // "class", "id", "attribute", "marker" or "shadow-root"
}
