package hypercube

import (
	"crypto/rand"
	"io"

	"github.com/adust09/hypercube/encoding"
	"github.com/adust09/hypercube/th"
	"github.com/adust09/hypercube/th/message_hash"
)

// PoseidonTL1CEncoding is the Poseidon2 field-arithmetic counterpart of
// TL1CEncoding: the digest path runs entirely over BabyBear field
// elements (compression, not SHAKE256), but the construction is the same
// as Construction 8 — PsiUnion reduces onto the union of layers
// [0, finalLayer] and the landed layer index is appended as a single
// checksum chunk of base finalLayer+1. This gives the hypercube encoders
// a field-native digest path alongside the SHAKE256 one in digest.go,
// exercising the teacher's Poseidon2 permutation and BabyBear field
// arithmetic (`poseidon`, `field` packages) the same way TL1C exercises
// SHAKE256.
type PoseidonTL1CEncoding struct {
	mh *message_hash.TopLevelPoseidonMessageHash
}

// NewPoseidonTL1CEncoding wraps mh, a Poseidon top-level message hash, as
// a TL1C-style incomparable encoding.
func NewPoseidonTL1CEncoding(mh *message_hash.TopLevelPoseidonMessageHash) *PoseidonTL1CEncoding {
	return &PoseidonTL1CEncoding{mh: mh}
}

// Encode computes (vertex, layer) = PsiUnion(PoseidonCompress(...)) via
// the wrapped message hash and appends the layer index as the checksum
// chunk, exactly mirroring TL1CEncoding.Encode.
func (e *PoseidonTL1CEncoding) Encode(P th.Params, msg []byte, rho []byte, epoch uint32) (encoding.Codeword, error) {
	digits, layer := e.mh.HashWithLayer(P, msg, rho, epoch)
	codeword := make(encoding.Codeword, 0, e.Dimension())
	codeword = append(codeword, digits...)
	codeword = append(codeword, uint8(layer))
	return codeword, nil
}

// RandRandomness samples ρ uniformly at random.
func (e *PoseidonTL1CEncoding) RandRandomness(rng io.Reader) []byte {
	if rng == nil {
		rng = rand.Reader
	}
	r := make([]byte, e.mh.RandLen())
	if _, err := io.ReadFull(rng, r); err != nil {
		panic("hypercube encoding: failed to sample randomness: " + err.Error())
	}
	return r
}

// Dimension returns the message hash's vertex dimension plus 1 for the
// checksum chunk.
func (e *PoseidonTL1CEncoding) Dimension() int { return e.mh.Dimension() + 1 }

// Base returns the message hash's vertex alphabet size. The checksum
// chunk's own base is finalLayer+1; see ChunkBases.
func (e *PoseidonTL1CEncoding) Base() int { return e.mh.Base() }

// ChunkSize returns the message hash's chunk size in bits.
func (e *PoseidonTL1CEncoding) ChunkSize() int { return e.mh.ChunkSize() }

// MaxTries is 1: PsiUnion never fails for a correctly configured
// (base, dimension, finalLayer) triple.
func (e *PoseidonTL1CEncoding) MaxTries() int { return 1 }

// NeedsRetry is false, matching TL1CEncoding.
func (e *PoseidonTL1CEncoding) NeedsRetry() bool { return false }

// ChunkBases returns the exclusive upper bound on each codeword position,
// mirroring TL1CEncoding.ChunkBases: the vertex alphabet for every
// position but the trailing checksum chunk.
func (e *PoseidonTL1CEncoding) ChunkBases() []int {
	bases := make([]int, e.Dimension())
	w := e.mh.Base()
	for i := 0; i < e.mh.Dimension(); i++ {
		bases[i] = w
	}
	bases[e.mh.Dimension()] = e.mh.FinalLayer() + 1
	return bases
}
