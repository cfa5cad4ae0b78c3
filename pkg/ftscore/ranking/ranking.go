// Package ranking implements the six fixed ranking criteria applied, in
// cascade, to decide the relative order of two matched documents.
package ranking

import (
	"sort"

	"github.com/cognicore/ftscore/pkg/ftscore/enhancer"
	"github.com/cognicore/ftscore/pkg/ftscore/rawdoc"
)

// Criterion compares two documents. It returns a negative number if a
// ranks ahead of b, a positive number if b ranks ahead of a, and zero if
// the two are tied on this criterion, in which case the cascade falls
// through to the next one.
type Criterion func(a, b *rawdoc.RawDocument) int

// Cascade applies criteria in order, returning the result of the first
// one that does not tie. Two documents tied on every criterion compare
// equal, and their relative order is whatever the caller's sort leaves
// it as (stable with respect to RawDocument Builder's output order).
func Cascade(criteria ...Criterion) func(a, b *rawdoc.RawDocument) int {
	return func(a, b *rawdoc.RawDocument) int {
		for _, c := range criteria {
			if v := c(a, b); v != 0 {
				return v
			}
		}
		return 0
	}
}

// DefaultCascade is the fixed six-criterion order the query pipeline
// uses: SumOfTypos, NumberOfWords, WordsProximity, SumOfWordsAttribute,
// SumOfWordsPosition, Exact.
func DefaultCascade(enh *enhancer.Enhancer, maxProximityPairDistance int) func(a, b *rawdoc.RawDocument) int {
	return Cascade(
		SumOfTypos,
		NumberOfWords,
		WordsProximity(enh, maxProximityPairDistance),
		SumOfWordsAttribute,
		SumOfWordsPosition,
		Exact,
	)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// bestByQueryIndex groups a document's matches by query_index and keeps,
// for each group, the single match least in better(candidate, current):
// true means candidate should replace current as the representative.
func bestByQueryIndex(d *rawdoc.RawDocument, better func(candidateIdx, currentIdx int) bool) map[uint32]int {
	best := make(map[uint32]int)
	for i, qi := range d.QueryIndex {
		if cur, ok := best[qi]; !ok || better(i, cur) {
			best[qi] = i
		}
	}
	return best
}

// SumOfTypos sums, over every distinct query_index in a document, the
// minimum distance recorded for that index. Lower wins.
func SumOfTypos(a, b *rawdoc.RawDocument) int {
	return cmpInt(sumOfTypos(a), sumOfTypos(b))
}

func sumOfTypos(d *rawdoc.RawDocument) int {
	mins := make(map[uint32]uint8)
	for i, qi := range d.QueryIndex {
		dist := d.Distance[i]
		if cur, ok := mins[qi]; !ok || dist < cur {
			mins[qi] = dist
		}
	}
	total := 0
	for _, dist := range mins {
		total += int(dist)
	}
	return total
}

// NumberOfWords counts distinct query_index values present. Higher wins,
// so the comparator is flipped relative to the raw counts.
func NumberOfWords(a, b *rawdoc.RawDocument) int {
	return cmpInt(numberOfWords(b), numberOfWords(a))
}

func numberOfWords(d *rawdoc.RawDocument) int {
	seen := make(map[uint32]struct{})
	for _, qi := range d.QueryIndex {
		seen[qi] = struct{}{}
	}
	return len(seen)
}

// WordsProximity returns a Criterion summing token-pair proximity
// penalties between adjacent distinct origin positions: the word_index
// distance (capped at maxPairDistance) within the same attribute, and a
// flat maxPairDistance across attributes. Query indices are first mapped
// through enh.Replacement to collapse synonym expansions onto the origin
// they replace. Lower wins.
func WordsProximity(enh *enhancer.Enhancer, maxPairDistance int) Criterion {
	if maxPairDistance <= 0 {
		maxPairDistance = 8
	}
	return func(a, b *rawdoc.RawDocument) int {
		return cmpInt(proximity(a, enh, maxPairDistance), proximity(b, enh, maxPairDistance))
	}
}

type originOccurrence struct {
	origin    int
	attribute uint16
	wordIndex uint16
}

func proximity(d *rawdoc.RawDocument, enh *enhancer.Enhancer, maxPairDistance int) int {
	if d.Len() == 0 {
		return 0
	}

	occurrences := make([]originOccurrence, d.Len())
	for i, qi := range d.QueryIndex {
		origin := qi
		var o int
		if enh != nil {
			o = enh.Replacement(int(qi)).Start
		} else {
			o = int(origin)
		}
		occurrences[i] = originOccurrence{origin: o, attribute: d.Attribute[i], wordIndex: d.WordIndex[i]}
	}

	sort.Slice(occurrences, func(i, j int) bool { return occurrences[i].origin < occurrences[j].origin })

	total := 0
	i := 0
	for i < len(occurrences) {
		j := i
		for j < len(occurrences) && occurrences[j].origin == occurrences[i].origin {
			j++
		}
		if j < len(occurrences) {
			total += minPairDistance(occurrences[i:j], occurrences[j:nextGroupEnd(occurrences, j)], maxPairDistance)
		}
		i = j
	}
	return total
}

func nextGroupEnd(occurrences []originOccurrence, start int) int {
	end := start
	for end < len(occurrences) && occurrences[end].origin == occurrences[start].origin {
		end++
	}
	return end
}

func minPairDistance(left, right []originOccurrence, maxPairDistance int) int {
	best := -1
	for _, l := range left {
		for _, r := range right {
			penalty := pairPenalty(l, r, maxPairDistance)
			if best == -1 || penalty < best {
				best = penalty
			}
		}
	}
	if best == -1 {
		return 0
	}
	return best
}

func pairPenalty(l, r originOccurrence, maxPairDistance int) int {
	if l.attribute != r.attribute {
		return maxPairDistance
	}
	a, b := int(l.wordIndex), int(r.wordIndex)
	diff := b - a
	if diff < 0 {
		diff = -diff
	}
	if diff <= maxPairDistance {
		return diff
	}
	return maxPairDistance
}

// SumOfWordsAttribute sums the attribute of the lowest-attribute match
// chosen one per query_index. Lower wins.
func SumOfWordsAttribute(a, b *rawdoc.RawDocument) int {
	return cmpInt(sumBySelection(a, selectLowestAttribute, func(d *rawdoc.RawDocument, i int) int { return int(d.Attribute[i]) }),
		sumBySelection(b, selectLowestAttribute, func(d *rawdoc.RawDocument, i int) int { return int(d.Attribute[i]) }))
}

// SumOfWordsPosition sums the word_index of the same one-per-query_index
// selection, lowest attribute first. Lower wins.
func SumOfWordsPosition(a, b *rawdoc.RawDocument) int {
	return cmpInt(sumBySelection(a, selectLowestAttribute, func(d *rawdoc.RawDocument, i int) int { return int(d.WordIndex[i]) }),
		sumBySelection(b, selectLowestAttribute, func(d *rawdoc.RawDocument, i int) int { return int(d.WordIndex[i]) }))
}

func selectLowestAttribute(d *rawdoc.RawDocument, candidateIdx, currentIdx int) bool {
	if d.Attribute[candidateIdx] != d.Attribute[currentIdx] {
		return d.Attribute[candidateIdx] < d.Attribute[currentIdx]
	}
	return d.WordIndex[candidateIdx] < d.WordIndex[currentIdx]
}

func sumBySelection(d *rawdoc.RawDocument, better func(d *rawdoc.RawDocument, candidateIdx, currentIdx int) bool, value func(d *rawdoc.RawDocument, i int) int) int {
	best := bestByQueryIndex(d, func(candidateIdx, currentIdx int) bool { return better(d, candidateIdx, currentIdx) })
	total := 0
	for _, i := range best {
		total += value(d, i)
	}
	return total
}

// Exact counts distinct query_index values that have at least one
// is_exact match. Higher wins.
func Exact(a, b *rawdoc.RawDocument) int {
	return cmpInt(exactCount(b), exactCount(a))
}

func exactCount(d *rawdoc.RawDocument) int {
	exact := make(map[uint32]bool)
	for i, qi := range d.QueryIndex {
		if d.IsExact[i] {
			exact[qi] = true
		}
	}
	return len(exact)
}
