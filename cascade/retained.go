package cascade

import (
	"strings"

	"inliner/css"
)

// DefaultRetainedPseudoClasses lists state dependent pseudo-classes which
// cannot be expressed by an inline style.
var DefaultRetainedPseudoClasses = []string{":hover", ":active", ":visited"}

// partition splits rules into the ones to be inlined and the ones to be
// kept in a style block. Order is preserved in both.
func partition(rules []css.Rule, pseudo []string) (resolvable, retained []css.Rule) {
	for _, r := range rules {
		if r.HasPseudoClass(pseudo...) {
			retained = append(retained, r)
			continue
		}
		resolvable = append(resolvable, r)
	}
	return resolvable, retained
}

// RetainedText renders rules as CSS text, one rule per line.
func RetainedText(rules []css.Rule) string {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}
