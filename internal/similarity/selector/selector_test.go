package selector

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/descriptor"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/scorer"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/tokenizer"
)

func tableFrom(text string) descriptor.Table {
	return descriptor.Build(tokenizer.TokenizeAll([]string{text}))
}

func TestMostSimilarGoodIsGreat(t *testing.T) {
	table := tableFrom("good is for bad. good is great. good is definitely great.")
	if got := MostSimilar("good", []string{"bad", "nice", "great"}, table); got != "great" {
		t.Errorf("MostSimilar = %q, want great", got)
	}
}

func TestMostSimilarTieBreakEarlierIndex(t *testing.T) {
	// nice and great get identical descriptors; bad shares nothing with good.
	table := tableFrom("good is nice. good is great. bad x.")

	if got := MostSimilar("good", []string{"bad", "nice", "great"}, table); got != "nice" {
		t.Errorf("MostSimilar = %q, want nice", got)
	}
	if got := MostSimilar("good", []string{"bad", "great", "nice"}, table); got != "great" {
		t.Errorf("MostSimilar = %q, want great", got)
	}
}

func TestMostSimilarUnknownWord(t *testing.T) {
	table := tableFrom("good is nice. bad is bad.")
	if got := MostSimilar("zzznotaword", []string{"bad", "nice"}, table); got != "" {
		t.Errorf("MostSimilar = %q, want empty", got)
	}
}

func TestMostSimilarUnknownChoicesNeverWin(t *testing.T) {
	table := tableFrom("good is nice. good is fine.")
	if got := MostSimilar("good", []string{"missing", "nice"}, table); got != "nice" {
		t.Errorf("MostSimilar = %q, want nice", got)
	}
	if got := MostSimilar("good", []string{"missing", "absent"}, table); got != "" {
		t.Errorf("MostSimilar = %q, want empty", got)
	}
	if got := MostSimilar("good", nil, table); got != "" {
		t.Errorf("MostSimilar with no choices = %q, want empty", got)
	}
}

func TestMostSimilarZeroNorm(t *testing.T) {
	table := tableFrom("alone. lonely. good is nice.")
	if got := MostSimilar("alone", []string{"lonely", "good"}, table); got != "" {
		t.Errorf("zero-norm target must yield no match, got %q", got)
	}
	if got := MostSimilar("good", []string{"lonely", "nice"}, table); got != "nice" {
		t.Errorf("zero-norm choice must lose, got %q", got)
	}
}

func TestMostSimilarDefinedZeroBeatsUndefined(t *testing.T) {
	table := tableFrom("good is nice. bad x.")
	if got := MostSimilar("good", []string{"missing", "bad"}, table); got != "bad" {
		t.Errorf("MostSimilar = %q, want bad", got)
	}
}

func TestRankKeepsOrder(t *testing.T) {
	table := tableFrom("good is for bad. good is great. good is definitely great.")
	ranked := Rank("good", []string{"bad", "nice", "great"}, table)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ranked))
	}
	for i, c := range ranked {
		if c.Index != i {
			t.Errorf("candidate %d has index %d", i, c.Index)
		}
	}
	if !ranked[0].Score.Valid || ranked[1].Score.Valid || !ranked[2].Score.Valid {
		t.Errorf("unexpected validity: %+v", ranked)
	}
}

func TestBestEmpty(t *testing.T) {
	if _, ok := Best(nil); ok {
		t.Error("Best(nil) must report no winner")
	}
	best, ok := Best([]Candidate{
		{Word: "b", Index: 1, Score: scorer.Defined(0.5)},
		{Word: "a", Index: 0, Score: scorer.Defined(0.5)},
	})
	if !ok || best.Word != "a" {
		t.Errorf("equal scores must resolve to the lower index, got %+v", best)
	}
}
