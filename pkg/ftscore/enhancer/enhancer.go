// Package enhancer builds the mapping between the "real" expanded query
// token positions the Postings Collector works with and the "origin"
// positions in the user's original query, so ranking criteria can
// collapse synonym expansions back onto the word they replace.
//
// Ranges in real_to_origin never overlap by construction, so a sorted
// slice searched by binary search is enough; no interval-tree data
// structure is required.
package enhancer

import "sort"

// Range is a half-open range [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

type mapping struct {
	real   Range
	origin int
}

// Builder accumulates synonym-expansion declarations for a single query
// and produces an immutable Enhancer.
type Builder struct {
	query  []string
	origins []int
	mappings []mapping

	// shifted records the origin-space ranges that have actually
	// perturbed origins, so later declarations can be checked for
	// partial overlap against them.
	shifted []Range
}

// NewBuilder creates a builder for the given original (tokenized) query.
// origins[i] starts as the identity mapping, and real_to_origin starts
// with one identity range per original token.
func NewBuilder(query []string) *Builder {
	n := len(query)
	origins := make([]int, n)
	mappings := make([]mapping, n)
	for i := range origins {
		origins[i] = i
		mappings[i] = mapping{real: Range{Start: i, End: i + 1}, origin: i}
	}
	return &Builder{query: query, origins: origins, mappings: mappings}
}

// rewriteRangeWith evaluates the synonym rewrite predicate: the
// replacement is accepted iff it is strictly longer than the range it
// replaces and not already identical to the original text of that length
// starting at the range's start.
func rewriteRangeWith(query []string, r Range, words []string) bool {
	if len(words) <= r.Len() {
		return false
	}
	end := r.Start + len(words)
	if end > len(query) {
		end = len(query)
	}
	original := query[r.Start:end]
	if len(original) != len(words) {
		return true
	}
	for i := range original {
		if original[i] != words[i] {
			return true
		}
	}
	return false
}

// relation classifies how two origin-space ranges relate: disjoint,
// nested (one fully contains the other), or partial (they intersect but
// neither contains the other).
type relationKind int

const (
	relDisjoint relationKind = iota
	relNested
	relPartial
)

func relation(a, b Range) relationKind {
	if a.End <= b.Start || b.End <= a.Start {
		return relDisjoint
	}
	if a.Start <= b.Start && b.End <= a.End {
		return relNested
	}
	if b.Start <= a.Start && a.End <= b.End {
		return relNested
	}
	return relPartial
}

// overlapsPartially reports whether r partially (not nested, not
// disjoint) overlaps any previously origin-shifting declaration.
func (b *Builder) overlapsPartially(r Range) bool {
	for _, s := range b.shifted {
		if relation(r, s) == relPartial {
			return true
		}
	}
	return false
}

// Declare records that the original words in range [o, o+k) are
// replaced, starting at real query index `real`, by `replacement`.
//
// The mapping from the real range [real, real+len(replacement)) back to
// the origin o is always recorded. Origins are only shifted when the
// rewrite predicate accepts the replacement AND the declared range does
// not partially overlap a previous origin-shifting declaration; a
// partial overlap is rejected at build time (it is recorded as a
// "declared but inert" mapping: Replacement still resolves for it, but
// it does not perturb other origins' shift accounting).
func (b *Builder) Declare(origRange Range, real int, replacement []string) {
	accepted := rewriteRangeWith(b.query, origRange, replacement)
	if accepted && !b.overlapsPartially(origRange) {
		offset := len(replacement) - origRange.Len()
		for o := origRange.End; o < len(b.origins); o++ {
			already := b.origins[o] - o
			add := offset - already
			if add < 0 {
				add = 0
			}
			b.origins[o] += add
		}
		b.shifted = append(b.shifted, origRange)
	}

	realRange := Range{Start: real, End: real + len(replacement)}
	b.mappings = append(b.mappings, mapping{real: realRange, origin: origRange.Start})
}

// Build finalizes the builder into an immutable Enhancer.
func (b *Builder) Build() *Enhancer {
	mappings := make([]mapping, len(b.mappings))
	copy(mappings, b.mappings)
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].real.Start < mappings[j].real.Start })

	origins := make([]int, len(b.origins))
	copy(origins, b.origins)

	return &Enhancer{origins: origins, mappings: mappings}
}

// Enhancer is the immutable, per-query mapping from real indices back to
// origin ranges. It is built once per query and discarded after result
// assembly.
type Enhancer struct {
	origins  []int
	mappings []mapping
}

// NOriginal returns the number of original query tokens.
func (e *Enhancer) NOriginal() int { return len(e.origins) }

// Replacement returns the origin range that real index `real` maps back
// to. It panics if `real` was never declared — a programmer error (the
// collector must only ever emit query indices it itself allocated).
//
// A tempting special case here is to let the last real slot of an
// expansion absorb extra padding, returning [origin+n, origin+padding+1)
// when real is the final slot of its declared range. That range equals
// the one the general rule below gives only when padding and n are both
// 0; in the other cases the growth tests in enhancer_test.go exercise,
// it is empty, inverted or wider than one slot instead of the expected
// slot. The single general rule, origin' = origins[origin] + n,
// reproduces every growth scenario correctly on its own, so it is used
// universally.
func (e *Enhancer) Replacement(real int) Range {
	i := sort.Search(len(e.mappings), func(i int) bool { return e.mappings[i].real.Start > real }) - 1
	if i < 0 || real >= e.mappings[i].real.End {
		panic("enhancer: real index was never declared")
	}
	m := e.mappings[i]
	n := real - m.real.Start

	o2 := e.origins[m.origin] + n
	return Range{Start: o2, End: o2 + 1}
}
