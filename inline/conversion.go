// Package inline turns HTML document with style sheets into the document
// where every styled element carries its resolved style attribute.
package inline

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inliner/cascade"
	"inliner/compliance"
	"inliner/css"
	"inliner/dom"
	"inliner/fetch"
)

// Conversion holds state and outcome of a single document conversion.
// It should not be reused.
type Conversion struct {
	opts options
	id   uuid.UUID
	log  *zap.Logger

	errors   []string
	stats    *compliance.Stats
	view     *cascade.View
	retained string
	html     string
}

// New creates conversion.
func New(opts ...Option) *Conversion {
	o := buildOptions(opts)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Conversion{
		opts:  o,
		id:    id,
		log:   o.log.Named("inline").With(zap.Stringer("conversion", id)),
		stats: compliance.NewScorer(nil).Stats(),
	}
}

// ID identifies conversion in logs and reports.
func (c *Conversion) ID() uuid.UUID {
	return c.id
}

// Errors returns unique selector errors collected during resolution.
func (c *Conversion) Errors() []string {
	return c.errors
}

// Unsupported returns properties which are not fully supported by some
// clients together with those clients.
func (c *Conversion) Unsupported() compliance.Report {
	return c.stats.Report
}

// Stats returns compliance statistics.
func (c *Conversion) Stats() *compliance.Stats {
	return c.stats
}

// SupportPercentage returns usage weighted share of clients supporting
// used properties.
func (c *Conversion) SupportPercentage() float64 {
	return c.stats.SupportPercentage
}

// HTML returns converted document text.
func (c *Conversion) HTML() string {
	return c.html
}

// Retained returns CSS text kept in style block.
func (c *Conversion) Retained() string {
	return c.retained
}

// View returns resolved styles.
func (c *Conversion) View() *cascade.View {
	return c.view
}

func (c *Conversion) table() (*compliance.Table, error) {
	if c.opts.table != nil {
		return c.opts.table, nil
	}
	return compliance.Default()
}

// Resolve computes styles of document elements for CSS text without
// changing the document.
func (c *Conversion) Resolve(doc *dom.Document, cssText string) (*cascade.View, error) {
	table, err := c.table()
	if err != nil {
		return nil, err
	}
	sheet := css.NewParser(c.log).Parse([]byte(cssText), 0)
	c.resolve(doc, sheet, table)
	return c.view, nil
}

func (c *Conversion) resolve(doc *dom.Document, sheet *css.Stylesheet, table *compliance.Table) {
	for _, w := range sheet.Warnings {
		c.log.Debug("CSS warning", zap.String("warning", w))
	}
	res := cascade.Resolve(doc, sheet,
		cascade.WithScorer(compliance.NewScorer(table)),
		cascade.WithRetainedPseudoClasses(c.opts.pseudo),
		cascade.WithLogger(c.log))

	c.view = res.View
	c.errors = res.Errors
	c.stats = res.Stats
	c.retained = cascade.RetainedText(res.Retained)
	if c.opts.keepMedia {
		var blocks []string
		if c.retained != "" {
			blocks = append(blocks, c.retained)
		}
		for _, mb := range sheet.MediaBlocks() {
			blocks = append(blocks, mb.String())
		}
		c.retained = strings.Join(blocks, "\n")
	}
}

// Perform converts document in place and renders result. Linked
// stylesheets are fetched before the tree is changed, so on error document
// stays intact and no result is produced.
func (c *Conversion) Perform(ctx context.Context, doc *dom.Document, baseURL string) error {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("bad base url %q: %w", baseURL, err)
		}
		base = u
	}

	table, err := c.table()
	if err != nil {
		return err
	}

	sources := doc.StyleSources()
	texts := make([]string, 0, len(sources))
	for _, src := range sources {
		text, err := c.sourceText(ctx, src, base)
		if err != nil {
			return err
		}
		texts = append(texts, text)
	}

	parser := css.NewParser(c.log)
	sheet := &css.Stylesheet{}
	next := 0
	for i, text := range texts {
		part := parser.Parse([]byte(text), next, fmt.Sprintf("source %d", i))
		next += countRules(part)
		sheet.Items = append(sheet.Items, part.Items...)
		sheet.Warnings = append(sheet.Warnings, part.Warnings...)
	}
	for _, src := range sources {
		doc.Remove(src.Node)
	}

	c.resolve(doc, sheet, table)

	styled := 0
	for _, n := range c.view.Nodes() {
		if slices.Contains(c.opts.ignoreTags, dom.Tag(n)) {
			continue
		}
		style, _ := c.view.Style(n)
		doc.SetAttr(n, "style", style.String())
		styled++
	}

	if c.retained != "" {
		if !doc.PrependToBody(dom.NewStyleElement(c.retained)) {
			c.log.Warn("Document has no body, retained rules dropped")
		}
	}

	if base != nil {
		doc.RewriteAttrURLs(func(attr, val string) (string, bool) {
			if attr == "href" && strings.HasPrefix(val, "#") {
				return "", false
			}
			return css.Resolve(base, val)
		})
	}

	out, err := doc.Render()
	if err != nil {
		return err
	}
	c.html = strings.ReplaceAll(out, "&#13;", "")

	c.log.Debug("Conversion complete",
		zap.Int("sources", len(sources)),
		zap.Int("styled", styled),
		zap.Int("selector_errors", len(c.errors)),
		zap.Float64("support", c.stats.SupportPercentage))
	return nil
}

func countRules(sheet *css.Stylesheet) int {
	n := len(sheet.Rules())
	for _, mb := range sheet.MediaBlocks() {
		n += len(mb.Rules)
	}
	return n
}

func (c *Conversion) sourceText(ctx context.Context, src dom.Source, base *url.URL) (string, error) {
	if src.Kind == dom.SourceStyle {
		if base == nil {
			return src.Text, nil
		}
		return css.RewriteURLs(src.Text, base.String()), nil
	}

	href := src.Href
	if base != nil {
		if resolved, ok := css.Resolve(base, href); ok {
			href = resolved
		}
	}
	body, err := fetch.Stylesheet(ctx, c.opts.fetcher, href)
	if err != nil {
		c.log.Error("Unable to fetch stylesheet", zap.String("href", href), zap.Error(err))
		return "", err
	}
	return css.RewriteURLs(string(body), href), nil
}

// Convert parses HTML text and performs conversion.
func Convert(ctx context.Context, htmlText, baseURL string, opts ...Option) (*Conversion, error) {
	c := New(opts...)
	doc, err := dom.ParseString(htmlText, c.opts.log)
	if err != nil {
		return nil, err
	}
	if err := c.Perform(ctx, doc, baseURL); err != nil {
		return nil, err
	}
	return c, nil
}

// InlineCSS converts HTML text without base URL and returns resulting HTML.
func InlineCSS(ctx context.Context, htmlText string, opts ...Option) (string, error) {
	c, err := Convert(ctx, htmlText, "", opts...)
	if err != nil {
		return "", err
	}
	return c.HTML(), nil
}
