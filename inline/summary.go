package inline

import "maps"

// Summary is machine readable outcome of a conversion.
type Summary struct {
	ID                string              `yaml:"id"`
	Source            string              `yaml:"source"`
	Destination       string              `yaml:"destination,omitempty"`
	SupportPercentage float64             `yaml:"support_percentage"`
	StyledElements    int                 `yaml:"styled_elements"`
	SelectorErrors    []string            `yaml:"selector_errors,omitempty"`
	Unsupported       map[string][]string `yaml:"unsupported,omitempty"`
	Retained          string              `yaml:"retained,omitempty"`
}

// Summary returns conversion outcome for reporting.
func (c *Conversion) Summary(source, destination string) Summary {
	s := Summary{
		ID:                c.id.String(),
		Source:            source,
		Destination:       destination,
		SupportPercentage: c.stats.SupportPercentage,
		StyledElements:    c.view.Len(),
		SelectorErrors:    c.errors,
		Retained:          c.retained,
	}
	if len(c.stats.Report) > 0 {
		s.Unsupported = maps.Clone(map[string][]string(c.stats.Report))
	}
	return s
}
