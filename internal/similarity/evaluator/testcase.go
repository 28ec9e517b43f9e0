package evaluator

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
)

// minFields is target, answer and at least one choice.
const minFields = 3

// TestCase is one multiple-choice question: which of Choices is most
// similar to Target. Answer is the labelled correct choice.
type TestCase struct {
	Target  string   `json:"target"`
	Answer  string   `json:"answer"`
	Choices []string `json:"choices"`
}

// ParseTestCase parses a line of the form
// "TARGET ANSWER CHOICE1 CHOICE2 ...".
func ParseTestCase(line string) (TestCase, error) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return TestCase{}, fmt.Errorf("%w: want at least %d fields, got %d in %q",
			apperrors.ErrMalformedTestCase, minFields, len(fields), line)
	}
	return TestCase{
		Target:  fields[0],
		Answer:  fields[1],
		Choices: fields[2:],
	}, nil
}

// ParseTestSet reads one test case per line. The first malformed line
// aborts parsing and is reported by line number.
func ParseTestSet(r io.Reader) ([]TestCase, error) {
	var cases []TestCase
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		tc, err := ParseTestCase(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		cases = append(cases, tc)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading test set: %w", err)
	}
	return cases, nil
}
