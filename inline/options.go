package inline

import (
	"go.uber.org/zap"

	"inliner/cascade"
	"inliner/compliance"
	"inliner/fetch"
)

// DefaultIgnoreTags lists elements which never receive style attribute.
var DefaultIgnoreTags = []string{"html", "head", "title", "meta", "link", "script"}

type options struct {
	fetcher    fetch.Fetcher
	table      *compliance.Table
	ignoreTags []string
	pseudo     []string
	keepMedia  bool
	log        *zap.Logger
}

// Option configures Conversion.
type Option func(*options)

// WithFetcher sets fetcher for linked stylesheets.
func WithFetcher(f fetch.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithTable sets compliance table, built-in one is used otherwise.
func WithTable(t *compliance.Table) Option {
	return func(o *options) { o.table = t }
}

// WithIgnoreTags replaces list of elements left without style attribute.
func WithIgnoreTags(tags []string) Option {
	return func(o *options) { o.ignoreTags = tags }
}

// WithRetainedPseudoClasses replaces list of pseudo-classes which are kept
// in style block instead of being inlined.
func WithRetainedPseudoClasses(pseudo []string) Option {
	return func(o *options) { o.pseudo = pseudo }
}

// WithKeepMediaQueries keeps @media blocks in retained style block.
func WithKeepMediaQueries(keep bool) Option {
	return func(o *options) { o.keepMedia = keep }
}

// WithLogger sets logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		ignoreTags: DefaultIgnoreTags,
		pseudo:     cascade.DefaultRetainedPseudoClasses,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fetcher == nil {
		o.fetcher = fetch.NewHTTP(fetch.HTTPOptions{}, o.log)
	}
	return o
}
