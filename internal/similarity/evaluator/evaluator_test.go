package evaluator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/descriptor"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
)

const testSet = `good nice bad nice great
good great bad great nice
good bad missing bad
zzznotaword bad bad nice
`

func tieTable() descriptor.Table {
	return descriptor.Build(tokenizer.TokenizeAll([]string{"good is nice. good is great. bad x."}))
}

func TestEvaluateAccuracy(t *testing.T) {
	cases, err := ParseTestSet(strings.NewReader(testSet))
	if err != nil {
		t.Fatalf("ParseTestSet: %v", err)
	}

	var outcomes []Outcome
	res, err := EvaluateFunc(cases, tieTable(), func(o Outcome) {
		outcomes = append(outcomes, o)
	})
	if err != nil {
		t.Fatalf("EvaluateFunc: %v", err)
	}
	if res.Total != 4 || res.Correct != 3 || res.Accuracy != 75.0 {
		t.Errorf("got %+v, want {4 3 75}", res)
	}
	if len(outcomes) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(outcomes))
	}
	last := outcomes[3]
	if last.Guess != "" || last.Correct {
		t.Errorf("unknown target must be answered with no guess, got %+v", last)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	_, err := Evaluate(nil, tieTable())
	if !errors.Is(err, apperrors.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestParseTestCase(t *testing.T) {
	tc, err := ParseTestCase("  good great  bad nice great\t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tc.Target != "good" || tc.Answer != "great" || len(tc.Choices) != 3 || tc.Choices[2] != "great" {
		t.Errorf("unexpected test case %+v", tc)
	}

	for _, line := range []string{"", "good", "good great"} {
		if _, err := ParseTestCase(line); !errors.Is(err, apperrors.ErrMalformedTestCase) {
			t.Errorf("ParseTestCase(%q) error = %v, want ErrMalformedTestCase", line, err)
		}
	}
}

func TestParseTestSetReportsLine(t *testing.T) {
	_, err := ParseTestSet(strings.NewReader("good great bad great\nbroken\n"))
	if !errors.Is(err, apperrors.ErrMalformedTestCase) {
		t.Fatalf("expected ErrMalformedTestCase, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line: %v", err)
	}
}
