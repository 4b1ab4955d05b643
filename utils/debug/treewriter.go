// Package debug renders human readable dumps for debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// TreeWriter accumulates indented text lines.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

// Line writes formatted line at depth.
func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes "label: value" quoting non empty value.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Element writes element identification: path from the root with id and
// class attributes of the element itself.
func (tw TreeWriter) Element(depth int, n *html.Node) {
	tw.indent(depth)
	tw.w.WriteString(ElementPath(n))
	tw.w.WriteByte('\n')
}

// ElementPath returns "html > body > p#id.class" for element.
func ElementPath(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		parts = append(parts, cur.Data)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	if len(parts) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(parts[len(parts)-1])
	for _, a := range n.Attr {
		switch a.Key {
		case "id":
			sb.WriteString("#" + a.Val)
		case "class":
			for c := range strings.FieldsSeq(a.Val) {
				sb.WriteString("." + c)
			}
		}
	}
	parts[len(parts)-1] = sb.String()
	return strings.Join(parts, " > ")
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
