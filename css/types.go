package css

import (
	"fmt"
	"io"
	"strings"
)

// Declaration is a single "property: value" pair from a rule block or a
// style attribute. Property is always lower case.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// String returns declaration in the form used for inline style attributes.
func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important"
	}
	return d.Property + ": " + d.Value
}

// Position identifies rule location in the aggregated stylesheet.
type Position struct {
	Index int // ordinal of the rule in source order, starting with 0
}

// Rule is a plain style rule: selector list and declaration block.
type Rule struct {
	Selectors    []string      // selector list in source order
	Declarations []Declaration // declarations in source order
	Pos          Position
}

// SelectorText returns selector list as it should appear in CSS text.
func (r Rule) SelectorText() string {
	return strings.Join(r.Selectors, ", ")
}

// HasPseudoClass reports whether any of the selectors mentions one of the
// given pseudo-classes.
func (r Rule) HasPseudoClass(pseudo ...string) bool {
	text := strings.ToLower(r.SelectorText())
	for _, p := range pseudo {
		if strings.Contains(text, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// String returns rule as CSS text on a single line.
func (r Rule) String() string {
	var sb strings.Builder
	writeRule(&sb, &r, "") //nolint:errcheck
	return strings.TrimSpace(sb.String())
}

// MediaBlock represents a @media block with its query and nested rules.
type MediaBlock struct {
	Query string
	Rules []Rule
}

// String returns media block as CSS text.
func (mb MediaBlock) String() string {
	var sb strings.Builder
	writeMediaBlock(&sb, &mb) //nolint:errcheck
	return strings.TrimSpace(sb.String())
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one of Rule or MediaBlock is non-nil.
type StylesheetItem struct {
	Rule       *Rule
	MediaBlock *MediaBlock
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Warnings for skipped constructs
}

// Rules returns all top-level style rules in source order.
func (s *Stylesheet) Rules() []Rule {
	if s == nil {
		return nil
	}
	rules := make([]Rule, 0, len(s.Items))
	for _, item := range s.Items {
		if item.Rule != nil {
			rules = append(rules, *item.Rule)
		}
	}
	return rules
}

// MediaBlocks returns all @media blocks in source order.
func (s *Stylesheet) MediaBlocks() []MediaBlock {
	if s == nil {
		return nil
	}
	var blocks []MediaBlock
	for _, item := range s.Items {
		if item.MediaBlock != nil {
			blocks = append(blocks, *item.MediaBlock)
		}
	}
	return blocks
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Declaration order within a rule is preserved.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, item := range s.Items {
		var (
			n   int
			err error
		)
		switch {
		case item.MediaBlock != nil:
			n, err = writeMediaBlock(w, item.MediaBlock)
		case item.Rule != nil:
			n, err = writeRule(w, item.Rule, "")
		}
		total += int64(n)
		if err != nil {
			return total, err
		}
		if i < len(s.Items)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeRule(w io.Writer, rule *Rule, indent string) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s%s {", indent, rule.SelectorText())
	total += n
	if err != nil {
		return total, err
	}
	for i, d := range rule.Declarations {
		sep := ";"
		if i == len(rule.Declarations)-1 {
			sep = ""
		}
		n, err = fmt.Fprintf(w, " %s%s", d.String(), sep)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprint(w, " }\n")
	total += n
	return total, err
}

func writeMediaBlock(w io.Writer, mb *MediaBlock) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "@media %s {\n", mb.Query)
	total += n
	if err != nil {
		return total, err
	}
	for i := range mb.Rules {
		n, err = writeRule(w, &mb.Rules[i], "  ")
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}
