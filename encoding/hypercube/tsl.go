package hypercube

import (
	"crypto/rand"
	"io"

	hc "github.com/adust09/hypercube/hypercube"
	"github.com/adust09/hypercube/encoding"
	"github.com/adust09/hypercube/th"
)

// TSLEncoding implements the Top Single Layer encoding (Construction 7):
// the message digest is reduced uniformly onto the single layer D of
// [W]^V via hypercube.Psi, with no checksum chunk. Because Psi is total,
// encoding never fails.
type TSLEncoding struct {
	W, V, D int
	randLen int
}

// NewTSLEncoding constructs a TSL encoding over alphabet size W, dimension
// V, targeting layer D. randLen is the number of random bytes ρ sampled
// per signing attempt.
func NewTSLEncoding(w, v, d, randLen int) *TSLEncoding {
	if d < 0 || d > v*(w-1) {
		panic("hypercube: layer D out of range [0, V*(W-1)]")
	}
	return &TSLEncoding{W: w, V: v, D: d, randLen: randLen}
}

// Encode computes Ψ_D(Thmsg(P, ρ, T, M)) and returns its digits.
func (e *TSLEncoding) Encode(P th.Params, msg []byte, rho []byte, epoch uint32) (encoding.Codeword, error) {
	domainBits := hc.LayerSize(e.D, e.V, e.W).BitLen()
	z := digestToBigInt(P, rho, epoch, msg, digestBytes(domainBits))
	vertex, err := hc.Psi(z, e.D, e.V, e.W)
	if err != nil {
		return nil, err
	}
	return encoding.Codeword(vertexToDigits(vertex)), nil
}

// RandRandomness samples ρ uniformly at random.
func (e *TSLEncoding) RandRandomness(rng io.Reader) []byte {
	if rng == nil {
		rng = rand.Reader
	}
	r := make([]byte, e.randLen)
	if _, err := io.ReadFull(rng, r); err != nil {
		panic("hypercube encoding: failed to sample randomness: " + err.Error())
	}
	return r
}

// Dimension returns V.
func (e *TSLEncoding) Dimension() int { return e.V }

// Base returns W.
func (e *TSLEncoding) Base() int { return e.W }

// ChunkSize is undefined for an alphabet that need not be a power of two;
// it returns the number of bits needed to represent W-1.
func (e *TSLEncoding) ChunkSize() int {
	bits := 0
	for n := e.W - 1; n > 0; n >>= 1 {
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}

// MaxTries is 1: Psi never fails.
func (e *TSLEncoding) MaxTries() int { return 1 }

// NeedsRetry is false: Psi never fails.
func (e *TSLEncoding) NeedsRetry() bool { return false }
