package inline

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"inliner/cascade"
	"inliner/utils/debug"
)

// String returns a readable tree of conversion outcome: resolved styles,
// selector errors and compliance report.
// It exists solely for manual inspection during debugging.
func (c *Conversion) String() string {
	if c == nil {
		return "<nil Conversion>"
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "Conversion %s", c.id)
	tw.Line(1, "Support percentage: %.2f", c.stats.SupportPercentage)

	if c.view.Len() > 0 {
		tw.Line(0, "View (%d elements)", c.view.Len())
		for _, n := range c.view.Nodes() {
			style, _ := c.view.Style(n)
			tw.Element(1, n)
			for _, p := range style.Properties() {
				e, _ := style.Get(p)
				from := "style attribute"
				if e.Origin != cascade.InlineOrigin {
					from = fmt.Sprintf("rule #%d", e.Origin)
				}
				tw.Line(2, "%s = %q important=%t specificity=%s from %s", p, e.Value, e.Important, e.Specificity, from)
			}
		}
	}

	if c.retained != "" {
		tw.TextBlock(0, "Retained", c.retained)
	}

	if len(c.errors) > 0 {
		tw.Line(0, "Selector errors: %d", len(c.errors))
		for _, e := range c.errors {
			tw.Line(1, "%s", e)
		}
	}

	if len(c.stats.Ratios) > 0 {
		tw.Line(0, "Usage (%d properties)", len(c.stats.Ratios))
		keys := slices.Collect(maps.Keys(c.stats.Ratios))
		sort.Sort(natural.StringSlice(keys))
		for _, k := range keys {
			r := c.stats.Ratios[k]
			tw.Line(1, "%s usage=%d failed=%d", k, r.Usage, r.FailedClients)
		}
	}

	if len(c.stats.Report) > 0 {
		tw.Line(0, "Unsupported (%d properties)", len(c.stats.Report))
		keys := slices.Collect(maps.Keys(c.stats.Report))
		sort.Sort(natural.StringSlice(keys))
		for _, k := range keys {
			tw.Line(1, "%s", k)
			for _, client := range c.stats.Report[k] {
				tw.Line(2, "%s", client)
			}
		}
	}
	return tw.String()
}
