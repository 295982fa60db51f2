package wots

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"golang.org/x/crypto/sha3"

	"github.com/adust09/hypercube/internal/prf"
	"github.com/adust09/hypercube/th"
)

type mockHash struct{ hashLen, paramLen int }

func (m *mockHash) RandParameter(rng io.Reader) th.Params {
	p := make([]byte, m.paramLen)
	io.ReadFull(rng, p)
	return p
}
func (m *mockHash) RandDomain(rng io.Reader) th.Domain {
	d := make([]byte, m.hashLen)
	io.ReadFull(rng, d)
	return d
}
func (m *mockHash) TreeTweak(level uint8, posInLevel uint32) th.Tweak {
	return []byte{th.TweakSeparatorTreeHash, level, byte(posInLevel)}
}
func (m *mockHash) ChainTweak(epoch uint32, chainIndex uint8, posInChain uint8) th.Tweak {
	return []byte{th.TweakSeparatorChainHash, byte(epoch >> 24), byte(epoch >> 16), byte(epoch >> 8), byte(epoch), chainIndex, posInChain}
}
func (m *mockHash) Apply(parameter th.Params, tweak th.Tweak, message []th.Domain) th.Domain {
	h := sha3.New256()
	h.Write(parameter)
	h.Write(tweak)
	for _, msg := range message {
		h.Write(msg)
	}
	out := h.Sum(nil)
	return out[:m.hashLen]
}
func (m *mockHash) OutputLen() int    { return m.hashLen }
func (m *mockHash) ParameterLen() int { return m.paramLen }

func TestSignThenVerifyMatchesPublicChainEnds(t *testing.T) {
	thash := &mockHash{hashLen: 24, paramLen: 16}
	prfImpl := prf.NewSHA3PRF(32, 24)
	prfKey := prfImpl.KeyGen(rand.Reader)
	parameter := thash.RandParameter(rand.Reader)
	epoch := uint32(42)
	bases := []int{4, 4, 4, 16, 16}

	want := PublicChainEnds(thash, prfImpl, prfKey, parameter, epoch, bases)

	digits := []uint8{1, 3, 0, 10, 15}
	sigHashes := Sign(thash, prfImpl, prfKey, parameter, epoch, digits, bases)

	got, ok := Verify(thash, parameter, epoch, digits, bases, sigHashes)
	if !ok {
		t.Fatal("Verify reported malformed input for a well-formed signature")
	}
	for i := range want {
		if !bytes.Equal(want[i], got[i]) {
			t.Fatalf("chain %d: recomputed end %x != public end %x", i, got[i], want[i])
		}
	}
}

func TestVerifyRejectsDigitOutOfRange(t *testing.T) {
	thash := &mockHash{hashLen: 24, paramLen: 16}
	bases := []int{4, 4}
	digits := []uint8{0, 9}
	sigHashes := []th.Domain{make(th.Domain, 24), make(th.Domain, 24)}

	_, ok := Verify(thash, []byte("param"), 0, digits, bases, sigHashes)
	if ok {
		t.Fatal("Verify accepted a digit outside its chain's base")
	}
}

func TestVerifyRejectsLengthMismatch(t *testing.T) {
	thash := &mockHash{hashLen: 24, paramLen: 16}
	_, ok := Verify(thash, []byte("param"), 0, []uint8{0, 1}, []int{4}, []th.Domain{make(th.Domain, 24)})
	if ok {
		t.Fatal("Verify accepted mismatched digits/bases/sigHashes lengths")
	}
}

func TestWrongDigitProducesDifferentPublicKey(t *testing.T) {
	thash := &mockHash{hashLen: 24, paramLen: 16}
	prfImpl := prf.NewSHA3PRF(32, 24)
	prfKey := prfImpl.KeyGen(rand.Reader)
	parameter := thash.RandParameter(rand.Reader)
	epoch := uint32(7)
	bases := []int{16}

	digits := []uint8{5}
	sigHashes := Sign(thash, prfImpl, prfKey, parameter, epoch, digits, bases)

	// Verifying against a different claimed digit must not reproduce the
	// real public chain end.
	forged := []uint8{6}
	got, ok := Verify(thash, parameter, epoch, forged, bases, sigHashes)
	if !ok {
		t.Fatal("Verify should still run to completion on a wrong-but-valid digit")
	}
	want := PublicChainEnds(thash, prfImpl, prfKey, parameter, epoch, bases)
	if bytes.Equal(want[0], got[0]) {
		t.Fatal("forged digit unexpectedly reproduced the real public chain end")
	}
}
