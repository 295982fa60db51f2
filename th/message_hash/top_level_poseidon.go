package message_hash

import (
	"math/big"
	
	"github.com/consensys/gnark-crypto/field/babybear"
	"github.com/adust09/hypercube/hypercube"
	"github.com/adust09/hypercube/poseidon"
	"github.com/adust09/hypercube/th"
)

// TopLevelPoseidonMessageHash maps messages into top layers of a hypercube
type TopLevelPoseidonMessageHash struct {
	posOutputLenPerInvFE int
	posInvocations       int
	posOutputLenFE       int
	dimension            int
	base                 int
	finalLayer           int
	tweakLenFE           int
	msgLenFE             int
	parameterLen         int
	randLen              int
}

// NewTopLevelPoseidonMessageHash creates a new top-level Poseidon message hash
func NewTopLevelPoseidonMessageHash(
	posOutputLenPerInvFE, posInvocations, posOutputLenFE,
	dimension, base, finalLayer,
	tweakLenFE, msgLenFE, parameterLen, randLen int,
) *TopLevelPoseidonMessageHash {
	// Validate constraints
	if posOutputLenFE != posInvocations*posOutputLenPerInvFE {
		panic("POS_OUTPUT_LEN_FE must equal POS_INVOCATIONS * POS_OUTPUT_LEN_PER_INV_FE")
	}
	if posOutputLenPerInvFE > 15 {
		panic("POS_OUTPUT_LEN_PER_INV_FE must be at most 15")
	}
	if posInvocations > 256 {
		panic("POS_INVOCATIONS must be at most 256")
	}
	if base > 256 {
		panic("BASE must be at most 256")
	}
	
	return &TopLevelPoseidonMessageHash{
		posOutputLenPerInvFE: posOutputLenPerInvFE,
		posInvocations:       posInvocations,
		posOutputLenFE:       posOutputLenFE,
		dimension:            dimension,
		base:                 base,
		finalLayer:           finalLayer,
		tweakLenFE:           tweakLenFE,
		msgLenFE:             msgLenFE,
		parameterLen:         parameterLen,
		randLen:              randLen,
	}
}

// Hash hashes a message and maps it into hypercube layers, returning the
// landed vertex as digits in {0, ..., base-1}. It discards the landed
// layer index; callers that need it for a checksum chunk (mirroring
// TL1C) should call HashWithLayer instead.
func (h *TopLevelPoseidonMessageHash) Hash(params th.Params, msg []byte, rand []byte, epoch uint32) []byte {
	digits, _ := h.HashWithLayer(params, msg, rand, epoch)
	return digits
}

// HashWithLayer is Hash plus the index of the layer the vertex landed on,
// the Poseidon-native equivalent of encoding/hypercube's PsiUnion return
// value.
func (h *TopLevelPoseidonMessageHash) HashWithLayer(params th.Params, msg []byte, rand []byte, epoch uint32) ([]byte, int) {
	// Convert inputs to field elements
	paramFields := bytesToFieldElements(params, h.parameterLen)
	msgFields := bytesToFieldElements(msg, h.msgLenFE)
	randFields := bytesToFieldElements(rand, h.randLen)
	
	// Encode epoch
	epochFields := h.encodeEpoch(epoch)
	
	// Collect all field elements from Poseidon invocations
	allOutputs := make([]babybear.Element, 0, h.posOutputLenFE)
	
	for inv := 0; inv < h.posInvocations; inv++ {
		// Build input for this invocation
		input := make([]babybear.Element, 0)
		
		// Add invocation counter
		var invElem babybear.Element
		invElem.SetUint64(uint64(inv))
		input = append(input, invElem)
		
		// Add parameters
		input = append(input, paramFields...)
		
		// Add epoch encoding
		input = append(input, epochFields...)
		
		// Add randomness
		input = append(input, randFields...)
		
		// Add message
		input = append(input, msgFields...)
		
		// Apply Poseidon compression
		perm := poseidon.NewPoseidon2_24()
		output := h.poseidonCompress(perm, input, h.posOutputLenPerInvFE)
		
		allOutputs = append(allOutputs, output...)
	}
	
	// Map field elements into hypercube
	return h.mapIntoHypercubePart(allOutputs)
}

// OutputLen returns the output length (dimension of hypercube vertex)
func (h *TopLevelPoseidonMessageHash) OutputLen() int {
	return h.dimension
}

// RandLen returns the randomness length in bytes
func (h *TopLevelPoseidonMessageHash) RandLen() int {
	return h.randLen * 4
}

// Dimension returns the number of chunks
func (h *TopLevelPoseidonMessageHash) Dimension() int {
	return h.dimension
}

// Base returns the base value
func (h *TopLevelPoseidonMessageHash) Base() int {
	return h.base
}

// FinalLayer returns the top layer index of the union [0, finalLayer]
// that messages are reduced onto.
func (h *TopLevelPoseidonMessageHash) FinalLayer() int {
	return h.finalLayer
}

// ChunkSize returns the chunk size in bits
func (h *TopLevelPoseidonMessageHash) ChunkSize() int {
	// For top-level Poseidon, chunk size is log2(base)
	chunkSize := 0
	base := h.base
	for base > 1 {
		base >>= 1
		chunkSize++
	}
	return chunkSize
}

// encodeEpoch encodes the epoch as field elements
func (h *TopLevelPoseidonMessageHash) encodeEpoch(epoch uint32) []babybear.Element {
	// Pack as: (epoch << 8) | separator
	val := uint64(epoch)<<8 | 0x02 // MESSAGE_HASH separator
	
	// Decompose in base p
	result := make([]babybear.Element, h.tweakLenFE)
	for i := 0; i < h.tweakLenFE; i++ {
		var e babybear.Element
		e.SetUint64(val % 2013265921)
		result[i] = e
		val /= 2013265921
	}
	
	return result
}

// poseidonCompress applies Poseidon compression
func (h *TopLevelPoseidonMessageHash) poseidonCompress(perm *poseidon.Poseidon2, input []babybear.Element, outputLen int) []babybear.Element {
	width := 24
	
	// Pad input to width
	padded := make([]babybear.Element, width)
	copy(padded, input)
	
	// Start with input as initial state
	state := make([]babybear.Element, width)
	copy(state, padded)
	
	// Apply permutation
	perm.Permute(state)
	
	// Feed-forward: add input back
	for i := 0; i < width; i++ {
		var sum babybear.Element
		sum.Add(&state[i], &padded[i])
		state[i] = sum
	}
	
	// Return first outputLen elements
	return state[:outputLen]
}

// mapIntoHypercubePart maps field elements into a hypercube vertex,
// reduced onto the union of layers [0, finalLayer], and returns it as a
// digit array in {0, ..., base-1} (shifted down from the hypercube
// package's {1, ..., base} vertex alphabet), alongside the layer the
// vertex landed on.
func (h *TopLevelPoseidonMessageHash) mapIntoHypercubePart(fieldElements []babybear.Element) ([]byte, int) {
	// Combine field elements into one big integer
	acc := new(big.Int)
	orderU64 := new(big.Int).SetUint64(2013265921) // BabyBear field order

	for _, fe := range fieldElements {
		acc.Mul(acc, orderU64)
		feBig := fe.BigInt(new(big.Int))
		acc.Add(acc, feBig)
	}

	vertex, layer, err := hypercube.PsiUnion(acc, h.finalLayer, h.dimension, h.base)
	if err != nil {
		panic("top-level poseidon message hash: " + err.Error())
	}

	digits := make([]byte, len(vertex))
	for i, x := range vertex {
		digits[i] = byte(x - 1)
	}
	return digits, layer
}

// bytesToFieldElements reads numElements field elements from data, four
// bytes each; bytes missing at the end are taken as zero.
func bytesToFieldElements(data []byte, numElements int) []babybear.Element {
	result := make([]babybear.Element, numElements)
	for i := range result {
		chunk := make([]byte, 4)
		if off := i * 4; off < len(data) {
			copy(chunk, data[off:])
		}
		result[i].SetBytes(chunk)
	}
	return result
}

