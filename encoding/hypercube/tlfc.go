package hypercube

import (
	"crypto/rand"
	"io"

	"github.com/adust09/hypercube/encoding"
	hc "github.com/adust09/hypercube/hypercube"
	"github.com/adust09/hypercube/th"
)

// TLFCEncoding implements the Top Layer with Full Checksum encoding
// (Construction 9): the digest is mapped via hypercube.PsiUnion onto the
// union of layers [0, D0], exactly as TL1C, but the single checksum chunk
// is replaced by C checksum chunks computed from every vertex component,
// following the weighted-fold construction below.
//
// For j = 0, ..., V-1, let a_j be the j'th vertex component (alphabet
// {1,...,W}) and k = j mod C. The k'th accumulator is:
//
//	acc[k] += 2^k * (W - a_j)
//
// and the final checksum digits are checksum[k] = acc[k] mod W, a codeword
// digit in {0,...,W-1} (that is, (acc[k] mod W) + 1 in the vertex alphabet).
// This reduction is provisional: it folds C independent weighted sums
// down to a single residue mod W rather than carrying the full
// unreduced magnitude, so two distinct vertices can in principle collide
// on their checksum chunks. Strict mode disables the final mod-W
// reduction and instead rejects (forcing a resample of ρ) whenever an
// accumulator does not already fit in [0, W-1], trading a small
// resampling cost for an exact, collision-free checksum.
type TLFCEncoding struct {
	W, V, D0, C int
	randLen     int
	// Strict selects the non-reducing checksum variant over the
	// provisional mod-W fold.
	Strict bool
}

// NewTLFCEncoding constructs a TLFC encoding over alphabet size W,
// dimension V, spanning layers [0, D0], with C checksum chunks.
func NewTLFCEncoding(w, v, d0, c, randLen int) *TLFCEncoding {
	if d0 < 0 || d0 > v*(w-1) {
		panic("hypercube: D0 out of range [0, V*(W-1)]")
	}
	if c < 1 {
		panic("hypercube: C must be at least 1")
	}
	return &TLFCEncoding{W: w, V: v, D0: d0, C: c, randLen: randLen}
}

// Encode computes (vertex, layer) = PsiUnion(Thmsg(...)) and appends C
// checksum chunks folded over the vertex components.
func (e *TLFCEncoding) Encode(P th.Params, msg []byte, rho []byte, epoch uint32) (encoding.Codeword, error) {
	domainBits := hc.UnionSize(e.D0, e.V, e.W).BitLen()
	z := digestToBigInt(P, rho, epoch, msg, digestBytes(domainBits))
	vertex, _, err := hc.PsiUnion(z, e.D0, e.V, e.W)
	if err != nil {
		return nil, err
	}

	checksum, err := e.checksum(vertex)
	if err != nil {
		return nil, err
	}

	codeword := make(encoding.Codeword, 0, e.Dimension())
	codeword = append(codeword, vertexToDigits(vertex)...)
	codeword = append(codeword, checksum...)
	return codeword, nil
}

func (e *TLFCEncoding) checksum(vertex hc.Vertex) ([]uint8, error) {
	acc := make([]int64, e.C)
	for j, aj := range vertex {
		k := j % e.C
		acc[k] += int64(1<<uint(k)) * int64(e.W-aj)
	}

	digits := make([]uint8, e.C)
	for k, a := range acc {
		if e.Strict {
			if a < 0 || a >= int64(e.W) {
				return nil, encoding.ErrEncodingFailed
			}
			digits[k] = uint8(a)
			continue
		}
		digits[k] = uint8(((a % int64(e.W)) + int64(e.W)) % int64(e.W))
	}
	return digits, nil
}

// RandRandomness samples ρ uniformly at random.
func (e *TLFCEncoding) RandRandomness(rng io.Reader) []byte {
	if rng == nil {
		rng = rand.Reader
	}
	r := make([]byte, e.randLen)
	if _, err := io.ReadFull(rng, r); err != nil {
		panic("hypercube encoding: failed to sample randomness: " + err.Error())
	}
	return r
}

// Dimension returns V + C.
func (e *TLFCEncoding) Dimension() int { return e.V + e.C }

// Base returns W.
func (e *TLFCEncoding) Base() int { return e.W }

// ChunkSize returns the number of bits needed to represent W-1.
func (e *TLFCEncoding) ChunkSize() int {
	bits := 0
	for n := e.W - 1; n > 0; n >>= 1 {
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}

// MaxTries returns 1 for the provisional (always-succeeds) variant, and a
// generous retry budget for Strict mode where an accumulator overflow
// forces a resample.
func (e *TLFCEncoding) MaxTries() int {
	if e.Strict {
		return 10000
	}
	return 1
}

// NeedsRetry mirrors MaxTries: only Strict mode can fail.
func (e *TLFCEncoding) NeedsRetry() bool { return e.Strict }

// ChunkBases returns W for every position: unlike TL1C, TLFC's checksum
// chunks share the vertex alphabet.
func (e *TLFCEncoding) ChunkBases() []int {
	bases := make([]int, e.Dimension())
	for i := range bases {
		bases[i] = e.W
	}
	return bases
}
