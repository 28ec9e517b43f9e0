// Package corpus reads corpus texts and test sets from disk for the
// similarity engine. Text is read in full and handed over as UTF-8
// strings; decoding problems surface here, not in the engine.
package corpus

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/evaluator"
	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
)

// Source is one corpus document.
type Source struct {
	Path string
	Text string
}

// ReadSources reads every path in order.
func ReadSources(paths []string) ([]Source, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no corpus files configured", apperrors.ErrInvalidInput)
	}
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading corpus file %s: %w", path, err)
		}
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: corpus file %s is not valid UTF-8", apperrors.ErrInvalidInput, path)
		}
		sources = append(sources, Source{Path: path, Text: string(data)})
	}
	return sources, nil
}

// Texts returns the text of each source in order.
func Texts(sources []Source) []string {
	texts := make([]string, len(sources))
	for i, s := range sources {
		texts[i] = s.Text
	}
	return texts
}

// Paths returns the path of each source in order.
func Paths(sources []Source) []string {
	paths := make([]string, len(sources))
	for i, s := range sources {
		paths[i] = s.Path
	}
	return paths
}

// ReadTestSet parses the test file at path.
func ReadTestSet(path string) ([]evaluator.TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening test file %s: %w", path, err)
	}
	defer f.Close()
	cases, err := evaluator.ParseTestSet(f)
	if err != nil {
		return nil, fmt.Errorf("parsing test file %s: %w", path, err)
	}
	return cases, nil
}
