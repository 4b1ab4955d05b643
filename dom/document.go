// Package dom wraps parsed HTML documents: traversal, selector matching and
// serialization.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// Document is a parsed HTML tree. It is not safe for concurrent use.
type Document struct {
	doc     *goquery.Document
	log     *zap.Logger
	matches map[string]MatchResult
}

// Parse reads HTML from r. Content type (may be empty) is used to detect
// the character set, input is converted to UTF-8.
func Parse(r io.Reader, contentType string, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cr, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("unable to detect document encoding: %w", err)
	}
	root, err := html.Parse(cr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse html: %w", err)
	}
	return &Document{
		doc:     goquery.NewDocumentFromNode(root),
		log:     log.Named("dom"),
		matches: make(map[string]MatchResult),
	}, nil
}

// ParseString parses UTF-8 HTML text.
func ParseString(text string, log *zap.Logger) (*Document, error) {
	return Parse(strings.NewReader(text), "text/html; charset=utf-8", log)
}

// Root returns document node of the tree.
func (d *Document) Root() *html.Node {
	return d.doc.Nodes[0]
}

// Body returns body element or nil.
func (d *Document) Body() *html.Node {
	body := d.doc.Find("body")
	if body.Length() == 0 {
		return nil
	}
	return body.Nodes[0]
}

// SourceKind tells where CSS of a Source comes from.
type SourceKind int

const (
	SourceStyle SourceKind = iota // embedded <style> element
	SourceLink                    // <link rel="stylesheet"> element
)

// Source is a single CSS origin found in the document.
type Source struct {
	Kind SourceKind
	Node *html.Node
	Text string // style element content
	Href string // link target as written
}

// StyleSources returns style and stylesheet link elements in document order.
func (d *Document) StyleSources() []Source {
	var sources []Source
	d.doc.Find("style, link").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		switch n.DataAtom {
		case atom.Style:
			sources = append(sources, Source{Kind: SourceStyle, Node: n, Text: s.Text()})
		case atom.Link:
			if !isStylesheet(s.AttrOr("rel", "")) {
				return
			}
			href, ok := s.Attr("href")
			if !ok {
				d.log.Debug("Stylesheet link without href ignored")
				return
			}
			sources = append(sources, Source{Kind: SourceLink, Node: n, Href: href})
		}
	})
	return sources
}

func isStylesheet(rel string) bool {
	for _, r := range strings.Fields(rel) {
		if strings.EqualFold(r, "stylesheet") {
			return true
		}
	}
	return false
}

// Remove detaches nodes from the tree.
func (d *Document) Remove(nodes ...*html.Node) {
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	d.Invalidate()
}

// PrependToBody inserts n as the first child of body. Returns false when
// document has no body.
func (d *Document) PrependToBody(n *html.Node) bool {
	body := d.Body()
	if body == nil {
		return false
	}
	body.InsertBefore(n, body.FirstChild)
	d.Invalidate()
	return true
}

// RewriteAttrURLs calls fn for every href and src attribute in the
// document, replacing value when fn returns true.
func (d *Document) RewriteAttrURLs(fn func(attr, val string) (string, bool)) {
	changed := false
	d.doc.Find("[href], [src]").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		for i, a := range n.Attr {
			if a.Namespace != "" || (a.Key != "href" && a.Key != "src") {
				continue
			}
			if v, ok := fn(a.Key, a.Val); ok && v != a.Val {
				n.Attr[i].Val = v
				changed = true
			}
		}
	})
	if changed {
		d.Invalidate()
	}
}

// Render serializes document to HTML text.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.Root()); err != nil {
		return "", fmt.Errorf("unable to render html: %w", err)
	}
	return buf.String(), nil
}

// NewStyleElement creates <style type="text/css"> element holding text.
func NewStyleElement(text string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Style,
		Data:     "style",
		Attr:     []html.Attribute{{Key: "type", Val: "text/css"}},
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

// Tag returns lower case element name.
func Tag(n *html.Node) string {
	return strings.ToLower(n.Data)
}

// Attr returns attribute value.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces attribute value of element n.
func (d *Document) SetAttr(n *html.Node, key, val string) {
	defer d.Invalidate()
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
