package ranking

import (
	"testing"

	"github.com/cognicore/ftscore/pkg/ftscore/docindex"
	"github.com/cognicore/ftscore/pkg/ftscore/rawdoc"
)

func doc(id int, qi []uint32, dist []uint8, attr []uint16, pos []uint16, exact []bool) *rawdoc.RawDocument {
	return &rawdoc.RawDocument{
		ID:         docindex.DocumentId(id),
		QueryIndex: qi,
		Distance:   dist,
		Attribute:  attr,
		WordIndex:  pos,
		IsExact:    exact,
	}
}

func TestSumOfTyposLowerWins(t *testing.T) {
	a := doc(1, []uint32{0, 1}, []uint8{0, 0}, []uint16{0, 0}, []uint16{0, 1}, []bool{true, true})
	b := doc(2, []uint32{0, 1}, []uint8{1, 1}, []uint16{0, 0}, []uint16{0, 1}, []bool{false, false})

	if SumOfTypos(a, b) >= 0 {
		t.Error("document with lower total typos should rank ahead")
	}
}

func TestSumOfTyposTakesMinPerQueryIndex(t *testing.T) {
	// Same query_index 0 appears twice: distances 3 and 0. Minimum (0)
	// should be the contribution, not a sum of both.
	a := doc(1, []uint32{0, 0}, []uint8{3, 0}, []uint16{0, 0}, []uint16{0, 0}, []bool{false, true})
	b := doc(2, []uint32{0}, []uint8{1}, []uint16{0}, []uint16{0}, []bool{false})

	if SumOfTypos(a, b) >= 0 {
		t.Error("min-per-query-index of 0 should beat a single typo of 1")
	}
}

func TestNumberOfWordsHigherWins(t *testing.T) {
	a := doc(1, []uint32{0, 1, 2}, []uint8{0, 0, 0}, []uint16{0, 0, 0}, []uint16{0, 1, 2}, []bool{true, true, true})
	b := doc(2, []uint32{0, 1}, []uint8{0, 0}, []uint16{0, 0}, []uint16{0, 1}, []bool{true, true})

	if NumberOfWords(a, b) >= 0 {
		t.Error("document matching more distinct query positions should rank ahead")
	}
}

func TestExactHigherWins(t *testing.T) {
	a := doc(1, []uint32{0, 1}, []uint8{0, 0}, []uint16{0, 0}, []uint16{0, 1}, []bool{true, true})
	b := doc(2, []uint32{0, 1}, []uint8{1, 1}, []uint16{0, 0}, []uint16{0, 1}, []bool{false, false})

	if Exact(a, b) >= 0 {
		t.Error("document with more exact matches should rank ahead")
	}
}

func TestWordsProximityPrefersAdjacentSameAttribute(t *testing.T) {
	// a: tokens at word_index 0 and 1, same attribute -> penalty 1.
	a := doc(1, []uint32{0, 1}, []uint8{0, 0}, []uint16{0, 0}, []uint16{0, 1}, []bool{true, true})
	// b: tokens at word_index 0 and 50, same attribute -> penalty capped at 8.
	b := doc(2, []uint32{0, 1}, []uint8{0, 0}, []uint16{0, 0}, []uint16{0, 50}, []bool{true, true})

	crit := WordsProximity(nil, 8)
	if crit(a, b) >= 0 {
		t.Error("closer token pair should yield a lower proximity penalty")
	}
}

func TestWordsProximityCrossAttributeFlatPenalty(t *testing.T) {
	a := doc(1, []uint32{0, 1}, []uint8{0, 0}, []uint16{0, 0}, []uint16{0, 1}, []bool{true, true})
	// b: same query positions but in different attributes -> flat penalty 8,
	// worse than a's penalty of 1.
	b := doc(2, []uint32{0, 1}, []uint8{0, 0}, []uint16{0, 1}, []uint16{0, 1}, []bool{true, true})

	crit := WordsProximity(nil, 8)
	if crit(a, b) >= 0 {
		t.Error("same-attribute adjacent match should beat a cross-attribute match")
	}
}

func TestCascadeFallsThroughOnTies(t *testing.T) {
	a := doc(1, []uint32{0}, []uint8{0}, []uint16{0}, []uint16{0}, []bool{true})
	b := doc(2, []uint32{0}, []uint8{0}, []uint16{0}, []uint16{0}, []bool{true})

	cascade := Cascade(SumOfTypos, NumberOfWords, Exact)
	if cascade(a, b) != 0 {
		t.Error("identical documents should tie across the whole cascade")
	}
}
