package watcher

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/dom"
	"github.com/haukened/rr-guard/internal/guard/repos/matcher"
	"github.com/haukened/rr-guard/internal/guard/repos/policy"
)

type countingRemovals map[string]int

func (c countingRemovals) IncRemoved(ind string) { c[ind]++ }

func defaultIndicators(t *testing.T) *matcher.Matcher {
	t.Helper()
	set, err := policy.LoadDefault()
	require.NoError(t, err)
	return matcher.New(set, nil, nil, 0)
}

func startWatcher(t *testing.T, opts ...Option) (*dom.Tree, *Watcher, *log.Recorder, countingRemovals) {
	t.Helper()
	tree := dom.NewTree()
	rec := log.NewRecorder()
	cnt := countingRemovals{}
	opts = append([]Option{WithLogger(rec), WithCounter(cnt)}, opts...)
	w := New(tree, defaultIndicators(t), opts...)
	w.Start()
	t.Cleanup(w.Stop)
	return tree, w, rec, cnt
}

func appendMarkup(t *testing.T, tree *dom.Tree, markup string) []*html.Node {
	t.Helper()
	nodes, err := dom.Fragment(markup)
	require.NoError(t, err)
	for _, n := range nodes {
		tree.AppendChild(tree.Body(), n)
	}
	return nodes
}

func bodyHTML(t *testing.T, tree *dom.Tree) string {
	t.Helper()
	s, err := tree.Document().Find("body").Html()
	require.NoError(t, err)
	return s
}

func TestWatcher_RemovesAddedElementByClass(t *testing.T) {
	tree, _, rec, cnt := startWatcher(t)
	appendMarkup(t, tree, `<div class="toolbar Classwize-Overlay">x</div>`)
	tree.Flush()

	assert.Equal(t, "", bodyHTML(t, tree))
	warns := rec.Level("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "removed injected element", warns[0].Msg)
	assert.Equal(t, "classwize", warns[0].Fields["indicator"])
	assert.Equal(t, "class", warns[0].Fields["via"])
	assert.Equal(t, "added", warns[0].Fields["trigger"])
	assert.Equal(t, 1, cnt["classwize"])
}

func TestWatcher_ClassValueWithNewlines(t *testing.T) {
	tree, _, rec, _ := startWatcher(t)
	appendMarkup(t, tree, "<div class=\"toolbar\n  classwize-overlay\">x</div>")
	tree.Flush()

	assert.Equal(t, "", bodyHTML(t, tree))
	warns := rec.Level("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "class", warns[0].Fields["via"])
}

func TestWatcher_NestedMatchKeepsSiblings(t *testing.T) {
	tree, _, _, _ := startWatcher(t)
	appendMarkup(t, tree, `<section><div id="linewize-panel"></div><p>keep</p></section>`)
	tree.Flush()
	assert.Equal(t, "<section><p>keep</p></section>", bodyHTML(t, tree))
}

func TestWatcher_AttributeChange(t *testing.T) {
	tree, _, rec, _ := startWatcher(t)
	nodes := appendMarkup(t, tree, `<div class="card"></div>`)
	tree.Flush()
	require.NotNil(t, nodes[0].Parent)

	tree.SetAttr(nodes[0], "class", "card qoria-toolbar")
	tree.Flush()
	assert.Nil(t, nodes[0].Parent)
	warns := rec.Level("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "attribute", warns[0].Fields["trigger"])
}

func TestWatcher_UnfilteredAttributeIgnored(t *testing.T) {
	tree, _, _, _ := startWatcher(t)
	nodes := appendMarkup(t, tree, `<div></div>`)
	tree.Flush()
	tree.SetAttr(nodes[0], "title", "classwize")
	tree.Flush()
	assert.NotNil(t, nodes[0].Parent)
}

func TestWatcher_AttributeNamedAfterIndicator(t *testing.T) {
	tree, _, rec, _ := startWatcher(t)
	appendMarkup(t, tree, `<span extension-injected></span>`)
	tree.Flush()
	assert.Equal(t, "", bodyHTML(t, tree))
	assert.Equal(t, "attribute", rec.Level("warn")[0].Fields["via"])
}

func TestWatcher_DefaultMarkerPresence(t *testing.T) {
	tree, w, _, _ := startWatcher(t)
	assert.Equal(t, DefaultMarkerAttribute, w.MarkerAttribute())
	appendMarkup(t, tree, `<iframe data-extension="abc"></iframe>`)
	tree.Flush()
	assert.Equal(t, "", bodyHTML(t, tree))
}

func TestWatcher_CustomMarkerValue(t *testing.T) {
	tree, w, rec, _ := startWatcher(t, WithMarkerAttribute(" Data-Helper "))
	assert.Equal(t, "data-helper", w.MarkerAttribute())
	nodes := appendMarkup(t, tree, `<div data-helper="plain"></div>`)
	tree.Flush()
	require.NotNil(t, nodes[0].Parent)

	tree.SetAttr(nodes[0], "data-helper", "screencast-v2")
	tree.Flush()
	assert.Nil(t, nodes[0].Parent)
	assert.Equal(t, "marker", rec.Level("warn")[0].Fields["via"])
}

func TestWatcher_ShadowRootContent(t *testing.T) {
	tree, _, rec, _ := startWatcher(t)
	appendMarkup(t, tree, `<div id="host"><template shadowrootmode="open"><span class="smoothwall-badge"></span></template></div>`)
	tree.Flush()
	assert.Equal(t, "", bodyHTML(t, tree))
	assert.Equal(t, "shadow-root", rec.Level("warn")[0].Fields["via"])
}

func TestWatcher_MultiLineShadowRoot(t *testing.T) {
	tree, _, rec, _ := startWatcher(t)
	appendMarkup(t, tree, "<div id=\"host\">\n  <template shadowrootmode=\"open\">\n    <span>classwize live view</span>\n  </template>\n</div>")
	tree.Flush()
	assert.Equal(t, "", bodyHTML(t, tree))
	require.Len(t, rec.Level("warn"), 1)
	assert.Equal(t, "shadow-root", rec.Level("warn")[0].Fields["via"])
}

func TestWatcher_CleanElementsStay(t *testing.T) {
	tree, _, rec, _ := startWatcher(t)
	appendMarkup(t, tree, `<main id="main"><div class="card">hello</div></main>`)
	tree.Flush()
	assert.Equal(t, `<main id="main"><div class="card">hello</div></main>`, bodyHTML(t, tree))
	assert.Empty(t, rec.Entries()[1:])
}

func TestWatcher_StartStopIdempotent(t *testing.T) {
	tree, w, rec, _ := startWatcher(t)
	w.Start()
	assert.True(t, w.Running())

	appendMarkup(t, tree, `<div class="familyzone"></div>`)
	tree.Flush()
	assert.Len(t, rec.Level("warn"), 1, "a second Start must not add a second observer")

	w.Stop()
	w.Stop()
	assert.False(t, w.Running())
	appendMarkup(t, tree, `<div class="familyzone"></div>`)
	tree.Flush()
	assert.Equal(t, `<div class="familyzone"></div>`, bodyHTML(t, tree))
}

func TestWatcher_Sweep(t *testing.T) {
	doc := `<html><head><style id="familyzone-style"></style><title>t</title></head>
<body class="classwize-theme"><div class="card"><span class="linewize"><b class="qoria"></b></span></div><p id="ok">ok</p></body></html>`
	tree, err := dom.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	cnt := countingRemovals{}
	w := New(tree, defaultIndicators(t), WithLogger(log.NewNoopLogger()), WithCounter(cnt))

	assert.Equal(t, 2, w.Sweep())
	out := tree.String()
	assert.NotContains(t, out, "familyzone-style")
	assert.NotContains(t, out, "linewize")
	assert.NotContains(t, out, "qoria")
	assert.Contains(t, out, `<body class="classwize-theme">`)
	assert.Contains(t, out, `<p id="ok">ok</p>`)
	assert.Equal(t, 1, cnt["familyzone"])
	assert.Equal(t, 1, cnt["linewize"])
}

func TestSanitizeHTML(t *testing.T) {
	in := `<!DOCTYPE html><html><head></head><body><div class="extension-injected">x</div><h1>Welcome</h1></body></html>`
	var out bytes.Buffer
	n, err := SanitizeHTML(strings.NewReader(in), &out, defaultIndicators(t), WithLogger(log.NewNoopLogger()))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, `<!DOCTYPE html><html><head></head><body><h1>Welcome</h1></body></html>`, out.String())
}

func TestSanitizeHTML_MultiLineMarkup(t *testing.T) {
	in := "<!DOCTYPE html><html><head></head><body>\n" +
		"<div class=\"card\n  extension-injected\">x</div>\n" +
		"<div id=\"host\">\n  <template shadowrootmode=\"open\">\n    <span>classwize live view</span>\n  </template>\n</div>\n" +
		"<h1>Welcome</h1></body></html>"
	var out bytes.Buffer
	n, err := SanitizeHTML(strings.NewReader(in), &out, defaultIndicators(t), WithLogger(log.NewNoopLogger()))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotContains(t, out.String(), "extension-injected")
	assert.NotContains(t, out.String(), "classwize")
	assert.Contains(t, out.String(), "<h1>Welcome</h1>")
}
