// Package scorer computes norms and cosine similarity of sparse
// descriptors.
package scorer

import (
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/descriptor"
	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
)

// Norm returns the Euclidean length of v, summed in float64 so large
// counts cannot overflow.
func Norm(v descriptor.Descriptor) float64 {
	var sum float64
	for _, c := range v {
		f := float64(c)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Dot sums a[k]*b[k] over keys present in both, iterating the smaller map.
func Dot(a, b descriptor.Descriptor) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for k, ca := range a {
		if cb, ok := b[k]; ok {
			dot += float64(ca) * float64(cb)
		}
	}
	return dot
}

// CosineSimilarity returns dot(a,b) / (|a| |b|). A zero-norm operand yields
// an error wrapping ErrUndefinedSimilarity instead of a division by zero.
func CosineSimilarity(a, b descriptor.Descriptor) (float64, error) {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, fmt.Errorf("cosine similarity: %w", apperrors.ErrUndefinedSimilarity)
	}
	return Dot(a, b) / (na * nb), nil
}

// Score is a similarity that may be undefined. An undefined score loses
// every comparison, including against another undefined score.
type Score struct {
	Value float64 `json:"value"`
	Valid bool    `json:"defined"`
}

func Undefined() Score {
	return Score{}
}

func Defined(v float64) Score {
	return Score{Value: v, Valid: true}
}

// Greater reports whether s ranks strictly above other.
func (s Score) Greater(other Score) bool {
	if !s.Valid {
		return false
	}
	if !other.Valid {
		return true
	}
	return s.Value > other.Value
}

// Equal reports whether both scores are defined and exactly equal.
func (s Score) Equal(other Score) bool {
	return s.Valid && other.Valid && s.Value == other.Value
}

// Similarity looks up both words in table and scores them. Unknown words
// and zero-norm descriptors produce an undefined score.
func Similarity(table descriptor.Table, a, b string) Score {
	da, ok := table.Lookup(a)
	if !ok {
		return Undefined()
	}
	db, ok := table.Lookup(b)
	if !ok {
		return Undefined()
	}
	v, err := CosineSimilarity(da, db)
	if err != nil {
		return Undefined()
	}
	return Defined(v)
}
