package hypercube

import (
	"crypto/rand"
	"io"

	"github.com/adust09/hypercube/encoding"
	hc "github.com/adust09/hypercube/hypercube"
	"github.com/adust09/hypercube/th"
)

// TL1CEncoding implements the Top Layer with 1 Checksum chunk encoding
// (Construction 8): the digest is mapped via hypercube.PsiUnion onto the
// union of layers [0, D0], and the landed layer index is appended as a
// single extra checksum chunk of base D0+1. Like TSL, PsiUnion is total
// so encoding never fails.
type TL1CEncoding struct {
	W, V, D0 int
	randLen  int
}

// NewTL1CEncoding constructs a TL1C encoding over alphabet size W,
// dimension V, spanning layers [0, D0].
func NewTL1CEncoding(w, v, d0, randLen int) *TL1CEncoding {
	if d0 < 0 || d0 > v*(w-1) {
		panic("hypercube: D0 out of range [0, V*(W-1)]")
	}
	return &TL1CEncoding{W: w, V: v, D0: d0, randLen: randLen}
}

// Encode computes (vertex, layer) = PsiUnion(Thmsg(...)) and appends the
// layer index as the checksum chunk.
func (e *TL1CEncoding) Encode(P th.Params, msg []byte, rho []byte, epoch uint32) (encoding.Codeword, error) {
	domainBits := hc.UnionSize(e.D0, e.V, e.W).BitLen()
	z := digestToBigInt(P, rho, epoch, msg, digestBytes(domainBits))
	vertex, layer, err := hc.PsiUnion(z, e.D0, e.V, e.W)
	if err != nil {
		return nil, err
	}
	codeword := make(encoding.Codeword, 0, e.Dimension())
	codeword = append(codeword, vertexToDigits(vertex)...)
	codeword = append(codeword, uint8(layer))
	return codeword, nil
}

// RandRandomness samples ρ uniformly at random.
func (e *TL1CEncoding) RandRandomness(rng io.Reader) []byte {
	if rng == nil {
		rng = rand.Reader
	}
	r := make([]byte, e.randLen)
	if _, err := io.ReadFull(rng, r); err != nil {
		panic("hypercube encoding: failed to sample randomness: " + err.Error())
	}
	return r
}

// Dimension returns V + 1, the vertex components plus the checksum chunk.
func (e *TL1CEncoding) Dimension() int { return e.V + 1 }

// Base returns W, the alphabet size of the vertex components. The
// checksum chunk's own base is D0+1; see ChunkBases.
func (e *TL1CEncoding) Base() int { return e.W }

// ChunkSize returns the number of bits needed to represent W-1.
func (e *TL1CEncoding) ChunkSize() int {
	bits := 0
	for n := e.W - 1; n > 0; n >>= 1 {
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}

// MaxTries is 1: PsiUnion never fails.
func (e *TL1CEncoding) MaxTries() int { return 1 }

// NeedsRetry is false: PsiUnion never fails.
func (e *TL1CEncoding) NeedsRetry() bool { return false }

// ChunkBases returns the exclusive upper bound on each codeword position:
// W for the V vertex components, D0+1 for the trailing checksum chunk.
// The WOTS chain engine consults this to size each chain independently,
// since the checksum chunk's alphabet differs from the vertex alphabet.
func (e *TL1CEncoding) ChunkBases() []int {
	bases := make([]int, e.Dimension())
	for i := 0; i < e.V; i++ {
		bases[i] = e.W
	}
	bases[e.V] = e.D0 + 1
	return bases
}
