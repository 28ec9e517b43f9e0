// Package descriptor builds semantic descriptors: for every word in a
// corpus, a sparse count of the words it shares sentences with.
package descriptor

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/tokenizer"
)

// Descriptor maps a co-occurring word to how often it shared a sentence
// with the described word. A word is never a key of its own descriptor.
type Descriptor map[string]int

// Table maps every word seen in a corpus to its descriptor.
type Table map[string]Descriptor

// Stats summarises a Table.
type Stats struct {
	Words            int   `json:"words"`
	EmptyDescriptors int   `json:"empty_descriptors"`
	Pairs            int64 `json:"pairs"`
	TotalCount       int64 `json:"total_count"`
}

// Builder accumulates co-occurrence counts sentence by sentence.
type Builder struct {
	table     Table
	sentences int
}

func NewBuilder() *Builder {
	return &Builder{table: make(Table)}
}

// Add counts one sentence. Every occurrence of a word is a centre in its
// own right, so a word repeated k times in a sentence contributes k times
// to each of its partners.
func (b *Builder) Add(sentence tokenizer.Sentence) {
	for _, word := range sentence {
		d, exists := b.table[word]
		if !exists {
			d = make(Descriptor)
			b.table[word] = d
		}
		for _, other := range sentence {
			if other != word {
				d[other]++
			}
		}
	}
	b.sentences++
}

// Sentences returns how many sentences have been added.
func (b *Builder) Sentences() int {
	return b.sentences
}

// Table returns the accumulated table. The builder must not be used
// afterwards.
func (b *Builder) Table() Table {
	t := b.table
	b.table = nil
	return t
}

// Build flattens the per-source sentence lists and returns the descriptor
// table of the whole corpus.
func Build(sources [][]tokenizer.Sentence) Table {
	b := NewBuilder()
	for _, source := range sources {
		for _, sentence := range source {
			b.Add(sentence)
		}
	}
	return b.Table()
}

// Lookup returns the descriptor for word.
func (t Table) Lookup(word string) (Descriptor, bool) {
	d, ok := t[word]
	return d, ok
}

// Merge adds every count of other into t. Summation is associative and
// commutative, so tables built from disjoint corpus chunks merge into the
// table of the whole corpus.
func (t Table) Merge(other Table) {
	for word, od := range other {
		d, exists := t[word]
		if !exists {
			d = make(Descriptor, len(od))
			t[word] = d
		}
		for w, c := range od {
			d[w] += c
		}
	}
}

// Vocabulary returns all words of the table in sorted order.
func (t Table) Vocabulary() []string {
	words := make([]string, 0, len(t))
	for w := range t {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

func (t Table) Stats() Stats {
	s := Stats{Words: len(t)}
	for _, d := range t {
		if len(d) == 0 {
			s.EmptyDescriptors++
		}
		s.Pairs += int64(len(d))
		for _, c := range d {
			s.TotalCount += int64(c)
		}
	}
	return s
}
