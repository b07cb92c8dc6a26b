// Package suffixarray provides the pluggable suffix-sort step
// fmi.Build needs (spec.md §4.5 construction step 1: "Compute suffix
// array SA[0..size] using an external suffix sort routine").
//
// No library in the reference corpus provides a divsufsort-equivalent
// linear-time suffix sort, so this package implements Build with the
// classic O(n log^2 n) prefix-doubling algorithm over stdlib sort,
// grounded on the general description of rank-doubling suffix
// construction; see DESIGN.md for why no third-party dependency could
// serve this concern.
package suffixarray

import "sort"

// Build returns the suffix array of s: SA[i] is the starting index of
// the i-th lexicographically smallest suffix, where the implicit
// smallest suffix is the empty suffix at position len(s) (the sentinel
// row spec.md's construction expects at SA[0]).
func Build(s []byte) []int {
	n := len(s) + 1 // +1 for the implicit empty-suffix sentinel

	sa := make([]int, n)
	rank := make([]int, n)
	tmp := make([]int, n)

	for i := 0; i < n; i++ {
		sa[i] = i
		if i < len(s) {
			rank[i] = int(s[i]) + 1 // +1 keeps 0 reserved for the sentinel
		} else {
			rank[i] = 0
		}
	}

	for k := 1; k < n; k *= 2 {
		key := func(i int) (int, int) {
			r1 := rank[i]
			r2 := -1
			if i+k < n {
				r2 = rank[i+k]
			}

			return r1, r2
		}

		sort.Slice(sa, func(i, j int) bool {
			a1, a2 := key(sa[i])
			b1, b2 := key(sa[j])
			if a1 != b1 {
				return a1 < b1
			}

			return a2 < b2
		})

		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			tmp[sa[i]] = tmp[sa[i-1]]
			a1, a2 := key(sa[i-1])
			b1, b2 := key(sa[i])
			if a1 != b1 || a2 != b2 {
				tmp[sa[i]]++
			}
		}
		copy(rank, tmp)

		if rank[sa[n-1]] == n-1 {
			break
		}
	}

	return sa
}
