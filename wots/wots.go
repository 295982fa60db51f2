// Package wots implements the one-time hash-chain signature engine shared
// by every leaf of a generalized XMSS tree (Construction 4/5/6 family):
// given a committed codeword, it walks a PRF-seeded hash chain per
// codeword position by exactly as many steps as the corresponding digit,
// and lets a verifier complete the remaining steps up to the chain's
// fixed public end.
//
// The chain mechanics are modeled on the WOTS+ routines of an RFC8391
// implementation (wotsGenChain / wotsPkGen / wotsSign / wotsPkFromSig),
// rewired onto this module's th.TweakableHash/th.Chain abstraction in
// place of that implementation's address-struct domain separation, since
// tweaks already carry that role here.
package wots

import (
	"sync"

	"github.com/adust09/hypercube/internal/prf"
	"github.com/adust09/hypercube/th"
)

// Digit convention: signing walks UP from the secret seed by exactly the
// codeword digit's value; verification completes the remaining steps up
// to base-1. Pinned here so the two sides can never disagree about which
// end of the chain the secret key seed sits at.
const (
	chainStartPos = 0
)

// ChunkBases is implemented by encodings whose codeword positions do not
// all share the same alphabet size (e.g. encoding/hypercube's TL1C, whose
// trailing checksum chunk has base D0+1 instead of the vertex alphabet
// W). Encodings that don't implement it are assumed homogeneous, with
// every position's base equal to Base().
type ChunkBases interface {
	ChunkBases() []int
}

// Bases returns the per-position chain base for an encoding: the result
// of ChunkBases() if it implements that interface, or Dimension() copies
// of Base() otherwise.
func Bases(dimension, base int, enc interface{}) []int {
	if cb, ok := enc.(ChunkBases); ok {
		return cb.ChunkBases()
	}
	bases := make([]int, dimension)
	for i := range bases {
		bases[i] = base
	}
	return bases
}

// chainStart derives the secret seed for chain i at the given epoch.
func chainStart(prfImpl prf.PRF, prfKey []byte, epoch uint32, chainIndex int) th.Domain {
	return prfImpl.Apply(prfKey, epoch, uint64(chainIndex))
}

// parallelThreshold mirrors the teacher's own fan-out cutoff: below this
// many independent chains, goroutine overhead outweighs the benefit.
const parallelThreshold = 20

// forEachChain runs f(chainIndex) for every chain, in parallel once the
// chain count clears parallelThreshold.
func forEachChain(numChains int, f func(i int)) {
	if numChains <= parallelThreshold {
		for i := 0; i < numChains; i++ {
			f(i)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(numChains)
	for i := 0; i < numChains; i++ {
		go func(i int) {
			defer wg.Done()
			f(i)
		}(i)
	}
	wg.Wait()
}

// PublicChainEnds computes the fully-walked chain ends (base[i]-1 steps)
// for every chain at the given epoch: this is the WOTS public key before
// tree-leaf compression.
func PublicChainEnds(
	thash th.TweakableHash,
	prfImpl prf.PRF,
	prfKey []byte,
	parameter th.Params,
	epoch uint32,
	bases []int,
) []th.Domain {
	numChains := len(bases)
	ends := make([]th.Domain, numChains)
	forEachChain(numChains, func(i int) {
		start := chainStart(prfImpl, prfKey, epoch, i)
		ends[i] = th.Chain(thash, parameter, epoch, uint8(i), chainStartPos, bases[i]-1, start)
	})
	return ends
}

// Sign walks each chain up from its secret seed by exactly the codeword
// digit at that position, returning one intermediate chain value per
// chain. digits[i] must lie in [0, bases[i]-1]; callers are expected to
// have validated the codeword against the encoding that produced it.
func Sign(
	thash th.TweakableHash,
	prfImpl prf.PRF,
	prfKey []byte,
	parameter th.Params,
	epoch uint32,
	digits []uint8,
	bases []int,
) []th.Domain {
	numChains := len(digits)
	hashes := make([]th.Domain, numChains)
	forEachChain(numChains, func(i int) {
		start := chainStart(prfImpl, prfKey, epoch, i)
		steps := int(digits[i])
		hashes[i] = th.Chain(thash, parameter, epoch, uint8(i), chainStartPos, steps, start)
	})
	return hashes
}

// Verify completes each signature chain value up to its public end
// (base[i]-1 steps total), returning the recomputed public chain ends.
// The caller compares these against the epoch's stored/recomputed public
// key (directly, or after Merkle-leaf compression).
func Verify(
	thash th.TweakableHash,
	parameter th.Params,
	epoch uint32,
	digits []uint8,
	bases []int,
	sigHashes []th.Domain,
) ([]th.Domain, bool) {
	numChains := len(digits)
	if len(bases) != numChains || len(sigHashes) != numChains {
		return nil, false
	}
	for i, d := range digits {
		if int(d) >= bases[i] {
			return nil, false
		}
	}

	ends := make([]th.Domain, numChains)
	forEachChain(numChains, func(i int) {
		xi := int(digits[i])
		steps := bases[i] - 1 - xi
		ends[i] = th.Chain(thash, parameter, epoch, uint8(i), uint8(xi), steps, sigHashes[i])
	})
	return ends, true
}
