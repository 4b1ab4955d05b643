package dom

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// SelectorError reports a selector which could not be evaluated.
type SelectorError struct {
	Selector string
	Reason   string
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("unable to evaluate selector %q: %s", e.Selector, e.Reason)
}

// MatchResult is the outcome of evaluating a single selector: either
// matched elements in document order with selector specificity, or an
// error.
type MatchResult struct {
	Nodes       []*html.Node
	Specificity [3]int // ids, classes/attributes/pseudo-classes, types
	Err         *SelectorError
}

// OK reports whether selector was evaluated.
func (m MatchResult) OK() bool {
	return m.Err == nil
}

// Evaluate matches selector against the document. Results are memoized
// until the tree is changed through Document methods or Invalidate is
// called.
func (d *Document) Evaluate(selector string) MatchResult {
	if res, ok := d.matches[selector]; ok {
		return res
	}
	res := d.evaluate(selector)
	d.matches[selector] = res
	return res
}

func (d *Document) evaluate(selector string) MatchResult {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		d.log.Debug("Selector rejected", zap.String("selector", selector), zap.Error(err))
		return MatchResult{Err: &SelectorError{Selector: selector, Reason: err.Error()}}
	}
	if pe := sel.PseudoElement(); pe != "" {
		return MatchResult{Err: &SelectorError{Selector: selector, Reason: "pseudo-element ::" + pe + " cannot be applied to element"}}
	}

	sp := sel.Specificity()
	return MatchResult{
		Nodes:       cascadia.QueryAll(d.Root(), sel),
		Specificity: [3]int{int(sp[0]), int(sp[1]), int(sp[2])},
	}
}

// Invalidate drops memoized selector results. Needed after nodes returned
// by Evaluate were changed directly.
func (d *Document) Invalidate() {
	clear(d.matches)
}
