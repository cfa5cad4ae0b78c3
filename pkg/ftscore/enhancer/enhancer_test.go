package enhancer

import "testing"

func assertRange(t *testing.T, got Range, wantStart, wantEnd int) {
	t.Helper()
	if got.Start != wantStart || got.End != wantEnd {
		t.Errorf("got %v, want [%d,%d)", got, wantStart, wantEnd)
	}
}

func TestOriginalUnmodified(t *testing.T) {
	query := []string{"new", "york", "city", "subway"}
	b := NewBuilder(query)
	b.Declare(Range{0, 2}, 4, []string{"new", "york", "city"})
	e := b.Build()

	assertRange(t, e.Replacement(0), 0, 1)
	assertRange(t, e.Replacement(1), 1, 2)
	assertRange(t, e.Replacement(2), 2, 3)
	assertRange(t, e.Replacement(3), 3, 4)
	assertRange(t, e.Replacement(4), 0, 1)
	assertRange(t, e.Replacement(5), 1, 2)
	assertRange(t, e.Replacement(6), 2, 3)
}

func TestSimpleGrowing(t *testing.T) {
	query := []string{"new", "york", "subway"}
	b := NewBuilder(query)
	b.Declare(Range{0, 2}, 3, []string{"new", "york", "city"})
	e := b.Build()

	assertRange(t, e.Replacement(0), 0, 1)
	assertRange(t, e.Replacement(1), 1, 2)
	assertRange(t, e.Replacement(2), 3, 4)
	assertRange(t, e.Replacement(3), 0, 1)
	assertRange(t, e.Replacement(4), 1, 2)
	assertRange(t, e.Replacement(5), 2, 3)
}

func TestBiggerGrowing(t *testing.T) {
	query := []string{"NYC", "subway"}
	b := NewBuilder(query)
	b.Declare(Range{0, 1}, 2, []string{"new", "york", "city"})
	e := b.Build()

	assertRange(t, e.Replacement(0), 0, 1)
	assertRange(t, e.Replacement(1), 3, 4)
	assertRange(t, e.Replacement(2), 0, 1)
	assertRange(t, e.Replacement(3), 1, 2)
	assertRange(t, e.Replacement(4), 2, 3)
}

func TestMiddleQueryGrowing(t *testing.T) {
	query := []string{"great", "awesome", "NYC", "subway"}
	b := NewBuilder(query)
	b.Declare(Range{2, 3}, 4, []string{"new", "york", "city"})
	e := b.Build()

	assertRange(t, e.Replacement(0), 0, 1)
	assertRange(t, e.Replacement(1), 1, 2)
	assertRange(t, e.Replacement(2), 2, 3)
	assertRange(t, e.Replacement(3), 5, 6)
	assertRange(t, e.Replacement(4), 2, 3)
	assertRange(t, e.Replacement(5), 3, 4)
	assertRange(t, e.Replacement(6), 4, 5)
}

func TestMultipleGrowings(t *testing.T) {
	query := []string{"great", "awesome", "NYC", "subway"}
	b := NewBuilder(query)
	b.Declare(Range{2, 3}, 4, []string{"new", "york", "city"})
	b.Declare(Range{3, 4}, 7, []string{"underground", "train"})
	e := b.Build()

	assertRange(t, e.Replacement(0), 0, 1)
	assertRange(t, e.Replacement(1), 1, 2)
	assertRange(t, e.Replacement(2), 2, 3)
	assertRange(t, e.Replacement(3), 5, 6)
	assertRange(t, e.Replacement(4), 2, 3)
	assertRange(t, e.Replacement(5), 3, 4)
	assertRange(t, e.Replacement(6), 4, 5)
	assertRange(t, e.Replacement(7), 5, 6)
	assertRange(t, e.Replacement(8), 6, 7)
}

func TestMultipleProbableGrowings(t *testing.T) {
	query := []string{"great", "awesome", "NYC", "subway"}
	b := NewBuilder(query)
	b.Declare(Range{2, 3}, 4, []string{"new", "york", "city"})
	b.Declare(Range{3, 4}, 7, []string{"underground", "train"})
	b.Declare(Range{0, 2}, 9, []string{"good"})
	b.Declare(Range{1, 3}, 10, []string{"NY"})
	e := b.Build()

	assertRange(t, e.Replacement(9), 0, 1)
	assertRange(t, e.Replacement(10), 1, 2)
}

func TestRewriteRangeWithRejectsShrink(t *testing.T) {
	if rewriteRangeWith([]string{"a", "b", "c"}, Range{0, 2}, []string{"a"}) {
		t.Error("shrinking replacement must be rejected")
	}
}

func TestRewriteRangeWithRejectsIdenticalText(t *testing.T) {
	if rewriteRangeWith([]string{"new", "york", "city", "subway"}, Range{0, 2}, []string{"new", "york", "city"}) {
		t.Error("replacement identical to existing text must be rejected")
	}
}

func TestRewriteRangeWithAcceptsGrowth(t *testing.T) {
	if !rewriteRangeWith([]string{"NYC", "subway"}, Range{0, 1}, []string{"new", "york", "city"}) {
		t.Error("strictly longer, distinct replacement must be accepted")
	}
}

// TestRoundTripLaw checks the round-trip law for an accepted declaration
// (o..o+k, real, replacement[0..m]): each replacement token walks forward
// one origin slot at a time from wherever the declared range's own
// origin currently resolves to. A growing expansion legitimately walks
// past o+k into origin slots that used to belong to later original
// tokens — that's exactly why origins gets shifted for those tokens —
// so the law is expressed relative to Replacement(o), not as a bound of
// [o, o+k).
func TestRoundTripLaw(t *testing.T) {
	query := []string{"NYC", "subway"}
	b := NewBuilder(query)
	o, real := 0, 2
	replacement := []string{"new", "york", "city"}
	b.Declare(Range{o, o + 1}, real, replacement)
	e := b.Build()

	base := e.Replacement(o).Start
	for i := 0; i < len(replacement); i++ {
		got := e.Replacement(real + i)
		want := base + i
		if got.Start != want || got.End != want+1 {
			t.Errorf("Replacement(%d) = %v, want [%d,%d)", real+i, got, want, want+1)
		}
	}
}

// TestPartialOverlapRejectedAtBuildTime checks that a declaration whose
// origin range partially (not nested, not disjoint) overlaps a previous
// origin-shifting declaration is recorded but does not perturb origins.
func TestPartialOverlapRejectedAtBuildTime(t *testing.T) {
	query := []string{"a", "b", "c", "d"}
	b := NewBuilder(query)
	// First declaration shifts origins for indices >= 2.
	b.Declare(Range{0, 2}, 4, []string{"w", "x", "y"})
	// Second declaration's origin range [1,3) partially overlaps [0,2):
	// neither nested nor disjoint, so it must not perturb origins further.
	b.Declare(Range{1, 3}, 7, []string{"p", "q", "r"})
	e := b.Build()

	// The first declaration's shift is still visible: "d" (origin index 3)
	// now resolves through real index 3.
	assertRange(t, e.Replacement(3), 4, 5)

	// The second declaration still resolves to a range (it was recorded),
	// but it reads through origins[1], which the first declaration never
	// touched: it is "declared but inert".
	assertRange(t, e.Replacement(7), 1, 2)
}
