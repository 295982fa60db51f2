package xmss

import (
	"github.com/adust09/hypercube/encoding"
	hcenc "github.com/adust09/hypercube/encoding/hypercube"
	"github.com/adust09/hypercube/internal/prf"
	"github.com/adust09/hypercube/th/message_hash"
	"github.com/adust09/hypercube/th/tweak_hash"
)

// SHA3-based instantiations of the hypercube top-layer encodings. These
// target a 128-bit security parameter and a lifetime of 2^18 epochs, the
// same lifetime the Poseidon instantiation below uses, so a caller can
// swap encodings without also having to repick a tree depth.
const (
	HypercubeLogLifetime18 = 18
	hypercubeLambda        = 128
	hypercubeParameterLen  = 24
	hypercubeHashLen       = 24
	hypercubeRandLen       = 32
)

// NewSHA3TSL builds a SHA3-based XMSS instance using the Top Single Layer
// encoding, with (W, V, D) chosen by TSLParams for a 128-bit security
// level.
func NewSHA3TSL() *GeneralizedXMSS {
	w, v, d, ok := hcenc.TSLParams(hypercubeLambda)
	if !ok {
		panic("xmss: no TSL parameters found for the requested security level")
	}
	enc := hcenc.NewTSLEncoding(w, v, d, hypercubeRandLen)
	return newHypercubeScheme(enc)
}

// NewSHA3TL1C builds a SHA3-based XMSS instance using the Top Layer with
// 1 Checksum chunk encoding, with (W, V, D0) chosen by TL1CParams for a
// 128-bit security level.
func NewSHA3TL1C() *GeneralizedXMSS {
	w, v, d0, ok := hcenc.TL1CParams(hypercubeLambda)
	if !ok {
		panic("xmss: no TL1C parameters found for the requested security level")
	}
	enc := hcenc.NewTL1CEncoding(w, v, d0, hypercubeRandLen)
	return newHypercubeScheme(enc)
}

// NewSHA3TLFC builds a SHA3-based XMSS instance using the Top Layer with
// Full Checksum encoding, with (W, V, D0, C) chosen by TLFCParams for a
// 128-bit security level. strict selects the collision-free checksum
// variant (with its accompanying retry cost) over the provisional mod-W
// fold.
func NewSHA3TLFC(strict bool) *GeneralizedXMSS {
	w, v, d0, c, ok := hcenc.TLFCParams(hypercubeLambda)
	if !ok {
		panic("xmss: no TLFC parameters found for the requested security level")
	}
	enc := hcenc.NewTLFCEncoding(w, v, d0, c, hypercubeRandLen)
	enc.Strict = strict
	return newHypercubeScheme(enc)
}

func newHypercubeScheme(enc encoding.IncomparableEncoding) *GeneralizedXMSS {
	thash := tweak_hash.NewSHA3TweakableHash(hypercubeParameterLen, hypercubeHashLen)
	prfFunc := prf.NewSHA3PRF(32, hypercubeHashLen)
	return NewGeneralizedXMSS(prfFunc, enc, thash, HypercubeLogLifetime18)
}

// Poseidon2-based instantiation of the hypercube top-layer encoding. The
// (posOutputLenPerInvFE, posInvocations, posOutputLenFE, dimension, base,
// finalLayer, tweakLenFE, msgLenFE, parameterLen, randLenFE) tuple matches
// the reference configuration exercised by the Poseidon message hash's
// own tests, which in turn mirrors the original Rust implementation's
// parameter choice for a 128-bit security target.
const (
	PoseidonHCLogLifetime18     = 18
	poseidonHCPosOutputPerInvFE = 8
	poseidonHCPosInvocations    = 6
	poseidonHCPosOutputFE       = 48
	poseidonHCDimension         = 40
	poseidonHCBase              = 12
	poseidonHCFinalLayer        = 175
	poseidonHCTweakLenFE        = 3
	poseidonHCMsgLenFE          = 9
	poseidonHCParameterLen      = 4
	poseidonHCRandLenFE         = 4
	poseidonHCHashLenFE         = 7
	poseidonHCCapacity          = 9
)

// NewPoseidonTL1C builds a Poseidon2/BabyBear-based XMSS instance using
// the field-native TL1C encoding (PoseidonTL1CEncoding): digests are
// folded through Poseidon2 compression instead of SHAKE256, giving the
// hypercube encoders a field-arithmetic digest path alongside the SHA3
// ones above.
func NewPoseidonTL1C() *GeneralizedXMSS {
	mh := message_hash.NewTopLevelPoseidonMessageHash(
		poseidonHCPosOutputPerInvFE,
		poseidonHCPosInvocations,
		poseidonHCPosOutputFE,
		poseidonHCDimension,
		poseidonHCBase,
		poseidonHCFinalLayer,
		poseidonHCTweakLenFE,
		poseidonHCMsgLenFE,
		poseidonHCParameterLen,
		poseidonHCRandLenFE,
	)
	enc := hcenc.NewPoseidonTL1CEncoding(mh)
	thash := tweak_hash.NewPoseidonTweakHash(
		poseidonHCParameterLen,
		poseidonHCHashLenFE,
		poseidonHCTweakLenFE,
		poseidonHCCapacity,
		enc.Dimension(),
	)
	prfFunc := prf.NewShakePRFtoField(32, poseidonHCHashLenFE)
	return NewGeneralizedXMSS(prfFunc, enc, thash, PoseidonHCLogLifetime18)
}
