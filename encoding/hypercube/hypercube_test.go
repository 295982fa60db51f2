package hypercube

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/adust09/hypercube/encoding"
)

func TestTSLEncodeDeterministicAndInLayer(t *testing.T) {
	e := NewTSLEncoding(4, 5, 6, 16)
	P := []byte("parameter-bytes-0123456789abcd!")
	rho := e.RandRandomness(rand.Reader)
	msg := []byte("a test message")

	cw1, err := e.Encode(P, msg, rho, 7)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	cw2, err := e.Encode(P, msg, rho, 7)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(cw1, cw2) {
		t.Fatalf("Encode not deterministic: %v vs %v", cw1, cw2)
	}
	if len(cw1) != e.Dimension() {
		t.Fatalf("codeword length = %d, want %d", len(cw1), e.Dimension())
	}

	sum := 0
	for _, digit := range cw1 {
		if int(digit) >= e.W {
			t.Fatalf("digit %d exceeds base %d", digit, e.W)
		}
		sum += int(digit)
	}
	layer := e.V*(e.W-1) - sum
	if layer != e.D {
		t.Fatalf("codeword lands in layer %d, want %d", layer, e.D)
	}

	// Different epochs should (almost always) produce different codewords.
	cw3, err := e.Encode(P, msg, rho, 8)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if bytes.Equal(cw1, cw3) {
		t.Fatalf("codewords for distinct epochs unexpectedly equal")
	}
	if err := encoding.ErrEncodingFailed; err == nil {
		t.Fatal("sentinel must be non-nil")
	}
}

func TestTL1CEncodeLandsInUnion(t *testing.T) {
	e := NewTL1CEncoding(4, 6, 5, 16)
	P := make([]byte, 16)
	rho := e.RandRandomness(rand.Reader)

	for i := 0; i < 20; i++ {
		msg := []byte{byte(i)}
		cw, err := e.Encode(P, msg, rho, uint32(i))
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if len(cw) != e.Dimension() {
			t.Fatalf("codeword length = %d, want %d", len(cw), e.Dimension())
		}
		sum := 0
		for _, digit := range cw[:e.V] {
			sum += int(digit)
		}
		layer := e.V*(e.W-1) - sum
		if layer < 0 || layer > e.D0 {
			t.Fatalf("codeword landed in layer %d outside [0,%d]", layer, e.D0)
		}
		checksumDigit := int(cw[e.V])
		if checksumDigit != layer {
			t.Fatalf("checksum chunk = %d, want landed layer %d", checksumDigit, layer)
		}
		if checksumDigit > e.D0 {
			t.Fatalf("checksum chunk %d exceeds D0 %d", checksumDigit, e.D0)
		}
	}

	bases := e.ChunkBases()
	if len(bases) != e.Dimension() {
		t.Fatalf("ChunkBases length = %d, want %d", len(bases), e.Dimension())
	}
	if bases[e.V] != e.D0+1 {
		t.Fatalf("checksum chunk base = %d, want %d", bases[e.V], e.D0+1)
	}
}

func TestTLFCChecksumFormula(t *testing.T) {
	// Worked example: w=8, c=2, vertex (1,1,1,1) in the 1..w alphabet.
	// acc[0] = (8-1) + (8-1) = 14  -> 14 mod 8 = 6
	// acc[1] = 2*(8-1) + 2*(8-1) = 28 -> 28 mod 8 = 4
	e := &TLFCEncoding{W: 8, V: 4, D0: 3, C: 2}
	vertex := []int{1, 1, 1, 1}
	digits, err := e.checksum(vertex)
	if err != nil {
		t.Fatalf("checksum failed: %v", err)
	}
	want := []byte{6, 4}
	if !bytes.Equal(digits, want) {
		t.Fatalf("checksum = %v, want %v", digits, want)
	}
}

func TestTLFCEncodeRoundtripShape(t *testing.T) {
	e := NewTLFCEncoding(6, 8, 10, 3, 16)
	P := make([]byte, 16)
	rho := e.RandRandomness(rand.Reader)

	cw, err := e.Encode(P, []byte("msg"), rho, 1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(cw) != e.Dimension() {
		t.Fatalf("codeword length = %d, want %d", len(cw), e.Dimension())
	}
	for _, digit := range cw {
		if int(digit) >= e.W {
			t.Fatalf("digit %d exceeds base %d", digit, e.W)
		}
	}
}

func TestTLFCStrictRejectsOutOfRangeAccumulator(t *testing.T) {
	e := &TLFCEncoding{W: 2, V: 3, D0: 2, C: 1, Strict: true}
	// acc[0] = (2-1)+(2-1)+(2-1) = 3, which does not fit in [0,2).
	_, err := e.checksum([]int{1, 1, 1})
	if err == nil {
		t.Fatal("expected strict checksum to reject an overflowing accumulator")
	}
}

func TestParamSearchesReturnValidConfigs(t *testing.T) {
	if w, v, d, ok := TSLParams(8); !ok || w == 0 || v == 0 {
		t.Fatalf("TSLParams(8) = (%d,%d,%d,%v), want a valid small config", w, v, d, ok)
	}
	if w, v, d0, ok := TL1CParams(8); !ok || w == 0 || v == 0 {
		t.Fatalf("TL1CParams(8) = (%d,%d,%d,%v), want a valid small config", w, v, d0, ok)
	}
	if w, v, d0, c, ok := TLFCParams(8); !ok || w == 0 || v == 0 || c == 0 {
		t.Fatalf("TLFCParams(8) = (%d,%d,%d,%d,%v), want a valid small config", w, v, d0, c, ok)
	}
}
