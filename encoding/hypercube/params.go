package hypercube

import (
	hc "github.com/adust09/hypercube/hypercube"
)

// candidateAlphabets lists (W, V) pairs tried in ascending preference
// order when searching for parameters at a target security level: small
// W keeps chains short (cheap signing/verification), large V keeps the
// union of layers big enough to reach the required size without climbing
// too many layers deep.
var candidateAlphabets = []struct{ w, v int }{
	{16, 16},
	{32, 12},
	{64, 8},
	{16, 32},
	{256, 8},
}

func bitLenAtLeast(n interface{ BitLen() int }, lambda int) bool {
	return n.BitLen() > lambda
}

// TSLParams searches for (W, V, D) such that layer D alone contains at
// least 2^lambda vertices, so that Psi's image is large enough to resist
// a lambda-bit guessing attack. It scans D outward from the middle of the
// range, where layers are largest, returning the first candidate
// alphabet and layer meeting the bound.
func TSLParams(lambda int) (w, v, d int, ok bool) {
	for _, c := range candidateAlphabets {
		maxD := c.v * (c.w - 1)
		mid := maxD / 2
		for offset := 0; offset <= maxD; offset++ {
			for _, cand := range []int{mid - offset, mid + offset} {
				if cand < 0 || cand > maxD {
					continue
				}
				if bitLenAtLeast(hc.LayerSize(cand, c.v, c.w), lambda) {
					return c.w, c.v, cand, true
				}
			}
		}
	}
	return 0, 0, 0, false
}

// TL1CParams searches for (W, V, D0) such that the union of layers
// [0, D0] contains at least 2^lambda vertices, scanning D0 upward from 0
// so the returned union is as shallow, and thus cheap to verify, as
// possible.
func TL1CParams(lambda int) (w, v, d0 int, ok bool) {
	for _, c := range candidateAlphabets {
		maxD := c.v * (c.w - 1)
		for d := 0; d <= maxD; d++ {
			if bitLenAtLeast(hc.UnionSize(d, c.v, c.w), lambda) {
				return c.w, c.v, d, true
			}
		}
	}
	return 0, 0, 0, false
}

// TLFCParams searches for (W, V, D0, C) the same way as TL1CParams, with
// C chosen from a small set of candidate checksum widths per the teacher
// configuration search, returning the first combination whose union of
// layers clears the 2^lambda bound.
func TLFCParams(lambda int) (w, v, d0, c int, ok bool) {
	for _, cand := range candidateAlphabets {
		for _, cc := range []int{2, 3, 4} {
			maxD := cand.v * (cand.w - 1)
			for d := 0; d <= maxD; d++ {
				if bitLenAtLeast(hc.UnionSize(d, cand.v, cand.w), lambda) {
					return cand.w, cand.v, d, cc, true
				}
			}
		}
	}
	return 0, 0, 0, 0, false
}
