// Package tokenizer splits raw text into sentences of lowercase word tokens.
// Sentence boundaries are purely lexical: any '.', '!' or '?' ends a
// sentence. Words are separated by whitespace and the punctuation set
// ' , . : ; ! ? -, so contractions and hyphenated compounds split apart.
package tokenizer

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Sentence is an ordered sequence of lowercase word tokens.
type Sentence []string

func isSentenceDelimiter(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isWordDelimiter(r rune) bool {
	switch r {
	case '\'', ',', '.', ':', ';', '!', '?', '-':
		return true
	}
	return unicode.IsSpace(r)
}

// Tokenize lowercases text and returns its sentences in source order.
// Sentences with no words are dropped. Text after the last delimiter is
// kept as a sentence when it contains words.
func Tokenize(text string) []Sentence {
	text = strings.ToLower(text)
	parts := strings.FieldsFunc(text, isSentenceDelimiter)
	sentences := make([]Sentence, 0, len(parts))
	for _, part := range parts {
		words := strings.FieldsFunc(part, isWordDelimiter)
		if len(words) == 0 {
			continue
		}
		sentences = append(sentences, Sentence(words))
	}
	return sentences
}

// TokenizeAll tokenizes each source separately and returns one sentence
// list per source, in input order.
func TokenizeAll(texts []string) [][]Sentence {
	out := make([][]Sentence, 0, len(texts))
	for _, text := range texts {
		out = append(out, Tokenize(text))
	}
	return out
}

// TokenizeReaders reads each reader to completion before tokenizing it.
func TokenizeReaders(readers []io.Reader) ([][]Sentence, error) {
	out := make([][]Sentence, 0, len(readers))
	for i, r := range readers {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading source %d: %w", i, err)
		}
		out = append(out, Tokenize(string(data)))
	}
	return out, nil
}

// CountSentences returns the total number of sentences across sources.
func CountSentences(sources [][]Sentence) int {
	n := 0
	for _, s := range sources {
		n += len(s)
	}
	return n
}
