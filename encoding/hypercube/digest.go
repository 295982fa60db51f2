// Package hypercube provides incomparable encodings that map a message
// digest directly onto the top layers of the hypercube [w]^v, following
// Construction 7 (TSL), 8 (TL1C) and 9 (TLFC) of the paper. The digest is
// never split into per-chunk digits: it is reduced straight into a vertex
// via hypercube.Psi / hypercube.PsiUnion.
package hypercube

import (
	"math/big"

	"golang.org/x/crypto/sha3"

	hc "github.com/adust09/hypercube/hypercube"
	"github.com/adust09/hypercube/th"
	"github.com/adust09/hypercube/tweak"
)

// digestToBigInt computes Thmsg = SHAKE256(R || P || T || M), reading
// outBytes bytes of output, and returns them as a nonnegative big-endian
// big.Int. It follows the
// R||P||T||M framing of SHA3MessageHash, but reads a variable-length
// output from SHAKE256 instead of truncating a fixed SHA3-256 digest,
// since the hypercube domain size can exceed 256 bits at large parameters.
func digestToBigInt(parameter th.Params, rho []byte, epoch uint32, msg []byte, outBytes int) *big.Int {
	msgTweak := tweak.MessageTweak(epoch)

	shake := sha3.NewShake256()
	shake.Write(rho)
	shake.Write(parameter)
	shake.Write(msgTweak)
	shake.Write(msg)

	out := make([]byte, outBytes)
	if _, err := shake.Read(out); err != nil {
		panic("hypercube encoding: SHAKE256 read failed: " + err.Error())
	}
	return new(big.Int).SetBytes(out)
}

// digestBytes returns enough output bytes from digestToBigInt to safely
// reduce modulo a domain of the given bit length: double the bit length
// plus 64 extra bits, rounded up to a byte, bounds the statistical
// distance from uniform
// introduced by the final modular reduction.
func digestBytes(domainBits int) int {
	bits := 2*domainBits + 64
	return (bits + 7) / 8
}

// vertexToDigits converts a hypercube vertex (alphabet {1,...,w}) into
// codeword digits (alphabet {0,...,w-1}) for consumption by the WOTS
// chain engine, which always walks digit 0 zero steps and digit w-1 all
// the way to the chain's far end.
func vertexToDigits(x hc.Vertex) []uint8 {
	digits := make([]uint8, len(x))
	for i, xi := range x {
		digits[i] = uint8(xi - 1)
	}
	return digits
}
