// Package cascade resolves which CSS declarations end up on which element.
package cascade

import (
	"slices"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"inliner/compliance"
	"inliner/css"
	"inliner/dom"
)

// Result of a resolution pass. It is owned by the caller and not changed
// afterwards.
type Result struct {
	View     *View
	Retained []css.Rule // state dependent rules in source order
	Errors   []string   // unique selector errors in order of appearance
	Stats    *compliance.Stats
}

type options struct {
	scorer *compliance.Scorer
	pseudo []string
	log    *zap.Logger
}

// Option configures Resolve.
type Option func(*options)

// WithScorer sets compliance scorer observing every applied declaration.
func WithScorer(s *compliance.Scorer) Option {
	return func(o *options) { o.scorer = s }
}

// WithRetainedPseudoClasses replaces list of pseudo-classes which make a
// rule retained instead of inlined.
func WithRetainedPseudoClasses(pseudo []string) Option {
	return func(o *options) { o.pseudo = pseudo }
}

// WithLogger sets logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// Resolve computes styles of every element matched by sheet rules.
//
// Rules are processed in stylesheet order, selectors in list order and
// matched elements in document order, later declaration wins ties. An
// element visited for the first time is seeded with its style attribute
// using Inline specificity. Selectors which cannot be evaluated are
// recorded in Result.Errors and skipped.
func Resolve(doc *dom.Document, sheet *css.Stylesheet, opts ...Option) *Result {
	o := options{
		pseudo: DefaultRetainedPseudoClasses,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.Named("cascade")

	// tree could have been changed since previous pass
	doc.Invalidate()

	resolvable, retained := partition(sheet.Rules(), o.pseudo)
	res := &Result{
		View:     newView(),
		Retained: retained,
	}

	for _, rule := range resolvable {
		for _, selector := range rule.Selectors {
			m := doc.Evaluate(selector)
			if !m.OK() {
				msg := m.Err.Error()
				if !slices.Contains(res.Errors, msg) {
					res.Errors = append(res.Errors, msg)
					log.Warn("Selector skipped", zap.String("selector", selector), zap.String("reason", m.Err.Reason))
				}
				continue
			}

			sp := FromSelector(m.Specificity)
			for _, n := range m.Nodes {
				style, created := res.View.visit(n)
				if created {
					seedInline(style, n)
				}
				for _, d := range rule.Declarations {
					o.scorer.Observe(d.Property)
					style.apply(d, sp, rule.Pos.Index)
				}
			}
		}
	}

	res.Stats = o.scorer.Stats()
	log.Debug("Cascade resolved",
		zap.Int("rules", len(resolvable)),
		zap.Int("retained", len(retained)),
		zap.Int("elements", res.View.Len()),
		zap.Int("errors", len(res.Errors)))
	return res
}

func seedInline(style *Style, n *html.Node) {
	text, ok := dom.Attr(n, "style")
	if !ok {
		return
	}
	for _, d := range css.ParseDeclarations(text) {
		style.apply(d, Inline, InlineOrigin)
	}
}
