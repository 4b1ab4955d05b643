package cascade

import (
	"strings"

	"golang.org/x/net/html"

	"inliner/css"
)

// InlineOrigin marks entries coming from element style attribute.
const InlineOrigin = -1

// Entry is the currently winning declaration of a property.
type Entry struct {
	Value       string
	Important   bool
	Specificity Specificity
	Origin      int // position index of the rule or InlineOrigin
}

// Style is an ordered property map of a single element. Overwritten
// properties keep their original position.
type Style struct {
	order   []string
	entries map[string]*Entry
}

func newStyle() *Style {
	return &Style{entries: make(map[string]*Entry)}
}

// Len returns number of properties.
func (s *Style) Len() int {
	return len(s.order)
}

// Properties returns property names in insertion order.
func (s *Style) Properties() []string {
	return s.order
}

// Get returns entry for property.
func (s *Style) Get(property string) (Entry, bool) {
	e, ok := s.entries[property]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// apply merges declaration d with specificity sp coming from origin into
// the style. New declaration wins when it is important and stored one is
// not, or when importance is equal and it is at least as specific.
func (s *Style) apply(d css.Declaration, sp Specificity, origin int) bool {
	e := Entry{Value: d.Value, Important: d.Important, Specificity: sp, Origin: origin}
	cur, ok := s.entries[d.Property]
	if !ok {
		s.order = append(s.order, d.Property)
		s.entries[d.Property] = &e
		return true
	}
	if (d.Important && !cur.Important) || (d.Important == cur.Important && !sp.Less(cur.Specificity)) {
		*cur = e
		return true
	}
	return false
}

// Declarations returns the winning declarations in insertion order.
func (s *Style) Declarations() []css.Declaration {
	decls := make([]css.Declaration, 0, len(s.order))
	for _, p := range s.order {
		e := s.entries[p]
		decls = append(decls, css.Declaration{Property: p, Value: e.Value, Important: e.Important})
	}
	return decls
}

// String renders style as value of a style attribute.
func (s *Style) String() string {
	parts := make([]string, 0, len(s.order))
	for _, d := range s.Declarations() {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "; ")
}

// View maps matched elements to their resolved styles. Elements are kept
// in order of first visit.
type View struct {
	nodes  []*html.Node
	styles map[*html.Node]*Style
}

func newView() *View {
	return &View{styles: make(map[*html.Node]*Style)}
}

// Len returns number of styled elements.
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.nodes)
}

// Nodes returns styled elements in order of first visit.
func (v *View) Nodes() []*html.Node {
	if v == nil {
		return nil
	}
	return v.nodes
}

// Style returns resolved style of element.
func (v *View) Style(n *html.Node) (*Style, bool) {
	if v == nil {
		return nil, false
	}
	s, ok := v.styles[n]
	return s, ok
}

// visit returns element style creating it on first visit. Created reports
// whether this is the first visit.
func (v *View) visit(n *html.Node) (s *Style, created bool) {
	if s, ok := v.styles[n]; ok {
		return s, false
	}
	s = newStyle()
	v.styles[n] = s
	v.nodes = append(v.nodes, n)
	return s, true
}
