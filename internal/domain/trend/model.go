// internal/domain/trend/model.go

package trend

import (
	"sort"

	"github.com/goccy/go-json"

	"tagpulse/internal/domain/ident"
)

// Item is a content unit carrying zero or more labels. Repeated labels are
// counted once per occurrence.
type Item struct {
	ID     string   `json:"id"`
	Labels []string `json:"hashtags"`
}

// UnmarshalJSON accepts numeric or string IDs and reads labels from either
// "hashtags" or "labels". A label list of the wrong shape decodes as empty.
func (it *Item) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID       ident.ID        `json:"id"`
		Hashtags json.RawMessage `json:"hashtags"`
		Labels   json.RawMessage `json:"labels"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	it.ID = string(aux.ID)
	it.Labels = decodeLabels(aux.Hashtags)
	if it.Labels == nil {
		it.Labels = decodeLabels(aux.Labels)
	}
	return nil
}

func decodeLabels(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil
	}
	return labels
}

// LabelStats maps a label to its total number of occurrences.
type LabelStats map[string]int

// Count returns the occurrence count for a label, zero if unknown.
func (s LabelStats) Count(label string) int {
	return s[label]
}

// Total returns the sum of all label counts.
func (s LabelStats) Total() int {
	total := 0
	for _, c := range s {
		total += c
	}
	return total
}

// CooccurrenceMatrix is a symmetric label -> label -> count table. Each row
// remembers the order in which its partner labels were first counted.
// The zero value is an empty matrix.
type CooccurrenceMatrix struct {
	counts map[string]map[string]int
	rows   []string
	order  map[string][]string
}

// Pair returns how often a and b appeared together.
func (m CooccurrenceMatrix) Pair(a, b string) int {
	return m.counts[a][b]
}

// Row returns every label observed with the given label. The returned map
// must not be modified.
func (m CooccurrenceMatrix) Row(label string) map[string]int {
	return m.counts[label]
}

// Partners returns the labels observed with label in first-encounter order.
// The returned slice must not be modified.
func (m CooccurrenceMatrix) Partners(label string) []string {
	return m.order[label]
}

// Labels returns every label that has a row, in first-encounter order.
func (m CooccurrenceMatrix) Labels() []string {
	return m.rows
}

// Len returns the number of rows.
func (m CooccurrenceMatrix) Len() int {
	return len(m.rows)
}

func (m *CooccurrenceMatrix) add(a, b string) {
	if m.counts == nil {
		m.counts = make(map[string]map[string]int)
		m.order = make(map[string][]string)
	}

	row, ok := m.counts[a]
	if !ok {
		row = make(map[string]int)
		m.counts[a] = row
		m.rows = append(m.rows, a)
	}
	if _, ok := row[b]; !ok {
		m.order[a] = append(m.order[a], b)
	}
	row[b]++
}

// MarshalJSON encodes the matrix as a nested object of counts.
func (m CooccurrenceMatrix) MarshalJSON() ([]byte, error) {
	if m.counts == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.counts)
}

// UnmarshalJSON decodes a nested object of counts. JSON objects carry no
// order, so decoded rows list their partners by label.
func (m *CooccurrenceMatrix) UnmarshalJSON(data []byte) error {
	var counts map[string]map[string]int
	if err := json.Unmarshal(data, &counts); err != nil {
		return err
	}

	*m = CooccurrenceMatrix{}
	labels := make([]string, 0, len(counts))
	for a := range counts {
		labels = append(labels, a)
	}
	sort.Strings(labels)

	for _, a := range labels {
		partners := make([]string, 0, len(counts[a]))
		for b := range counts[a] {
			partners = append(partners, b)
		}
		sort.Strings(partners)
		for _, b := range partners {
			for i := 0; i < counts[a][b]; i++ {
				m.add(a, b)
			}
		}
	}
	return nil
}

// LabelCount is one entry of a trend ranking.
type LabelCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TrendResult holds the ranking plus the full tables it was computed from,
// so further recommendation queries need no recount.
type TrendResult struct {
	Top          []LabelCount       `json:"top"`
	Stats        LabelStats         `json:"counts"`
	Cooccurrence CooccurrenceMatrix `json:"cooccurrence"`
}

// Recommendation is a label associated with a target label.
type Recommendation struct {
	Tag          string  `json:"tag"`
	Cooccurrence int     `json:"cooccurrence"`
	Rate         float64 `json:"rate"`
}
