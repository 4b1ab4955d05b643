package compliance

import "slices"

const partialSuffix = " (partial support)"

// Ratio accumulates usage of a single property.
type Ratio struct {
	Usage         int // declarations seen
	FailedClients int // clients with partial or no support
}

// Report maps property name to the clients failing it. Partially
// supporting clients carry " (partial support)" suffix.
type Report map[string][]string

// Properties returns report keys in sorted order.
func (r Report) Properties() []string {
	props := make([]string, 0, len(r))
	for p := range r {
		props = append(props, p)
	}
	slices.Sort(props)
	return props
}

// Stats is the outcome of scoring.
type Stats struct {
	Ratios            map[string]Ratio
	Report            Report
	SupportPercentage float64
	ClientCount       int
}

// Scorer collects compliance statistics while declarations are applied.
// It is owned by a single resolution pass.
type Scorer struct {
	table  *Table
	ratios map[string]*Ratio
	order  []string
	report Report
}

// NewScorer creates scorer for table. Nil table turns scoring off,
// Observe only counts usage then.
func NewScorer(table *Table) *Scorer {
	return &Scorer{
		table:  table,
		ratios: make(map[string]*Ratio),
		report: make(Report),
	}
}

// Observe records single declaration of property applied to an element.
// Client failures are captured on the first failing encounter only.
func (s *Scorer) Observe(property string) {
	if s == nil {
		return
	}
	ratio, ok := s.ratios[property]
	if !ok {
		ratio = &Ratio{}
		s.ratios[property] = ratio
		s.order = append(s.order, property)
	}
	ratio.Usage++

	if _, failed := s.report[property]; failed || s.table == nil {
		return
	}
	cells, ok := s.table.Lookup(property)
	if !ok {
		return
	}
	for _, cell := range cells {
		if !cell.Level.Fails() {
			continue
		}
		ratio.FailedClients++
		client := cell.Client
		if cell.Level == SupportLevelPartial {
			client += partialSuffix
		}
		s.report[property] = append(s.report[property], client)
	}
}

// Stats computes usage weighted support percentage:
// 100 - 100 * sum(usage*failed) / sum(usage*clients).
func (s *Scorer) Stats() *Stats {
	st := &Stats{
		Ratios:            make(map[string]Ratio),
		Report:            make(Report),
		SupportPercentage: 100,
	}
	if s == nil {
		return st
	}
	if s.table != nil {
		st.ClientCount = s.table.ClientCount()
	}

	var failRate, totalRate int
	for _, p := range s.order {
		r := *s.ratios[p]
		st.Ratios[p] = r
		failRate += r.Usage * r.FailedClients
		totalRate += r.Usage * st.ClientCount
	}
	for p, clients := range s.report {
		st.Report[p] = slices.Clone(clients)
	}
	if failRate > 0 && totalRate > 0 {
		st.SupportPercentage = 100 - 100*float64(failRate)/float64(totalRate)
	}
	return st
}
