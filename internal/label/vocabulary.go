// Package label maps label-set annotations to binary indicator matrices.
package label

import (
	"sort"
)

// Vocabulary is the fixed set of known labels, sorted lexicographically.
// It is built once from the full corpus and never grows afterwards.
type Vocabulary struct {
	labels []string
	index  map[string]int
}

// NewVocabulary collects the distinct labels across the given label sets.
func NewVocabulary(labelSets [][]string) *Vocabulary {
	seen := make(map[string]struct{})
	for _, set := range labelSets {
		for _, l := range set {
			seen[l] = struct{}{}
		}
	}

	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	return fromSorted(labels)
}

// FromLabels builds a vocabulary from an explicit label list. Duplicates
// are dropped and the order is normalized to lexicographic.
func FromLabels(labels []string) *Vocabulary {
	seen := make(map[string]struct{}, len(labels))
	distinct := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		distinct = append(distinct, l)
	}
	sort.Strings(distinct)

	return fromSorted(distinct)
}

func fromSorted(labels []string) *Vocabulary {
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	return &Vocabulary{labels: labels, index: index}
}

// Len returns the number of labels.
func (v *Vocabulary) Len() int {
	return len(v.labels)
}

// Labels returns the labels in vocabulary order.
func (v *Vocabulary) Labels() []string {
	out := make([]string, len(v.labels))
	copy(out, v.labels)
	return out
}

// Label returns the label at column i.
func (v *Vocabulary) Label(i int) string {
	return v.labels[i]
}

// Index returns the column of the given label.
func (v *Vocabulary) Index(label string) (int, bool) {
	i, ok := v.index[label]
	return i, ok
}

// Contains reports whether the label is in the vocabulary.
func (v *Vocabulary) Contains(label string) bool {
	_, ok := v.index[label]
	return ok
}
