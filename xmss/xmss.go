package xmss

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/adust09/hypercube/encoding"
	"github.com/adust09/hypercube/internal/prf"
	"github.com/adust09/hypercube/internal/xlog"
	"github.com/adust09/hypercube/merkle"
	"github.com/adust09/hypercube/th"
	"github.com/adust09/hypercube/wots"
)

// keygenParallelThreshold mirrors the teacher's own fan-out cutoff for
// per-epoch keygen work: below this many active epochs, goroutine
// overhead outweighs the benefit.
const keygenParallelThreshold = 10

// SigningError represents errors during signing
type SigningError struct {
	Message  string
	Attempts int
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("%s after %d attempts", e.Message, e.Attempts)
}

// ErrKeyExhausted is returned when a stateful key has already signed at
// every epoch in its activation window and SignNext is called again.
var ErrKeyExhausted = errors.New("xmss: key exhausted, no epochs remain in activation window")

// ErrStateRegression is returned when a sign operation would reuse or
// rewind an epoch already consumed by this secret key, which would break
// the one-time-per-epoch security guarantee of the underlying WOTS
// chains.
var ErrStateRegression = errors.New("xmss: epoch already consumed by this key")

// ErrEpochNotActive is returned when the requested epoch falls outside
// the key's activation window.
var ErrEpochNotActive = errors.New("xmss: key not active during this epoch")

// PublicKey represents a generalized XMSS public key
type PublicKey struct {
	Root      th.Domain
	Parameter th.Params
}

// SecretKey represents a generalized XMSS secret key. NextIndex tracks
// the lowest epoch this key has not yet signed at, making the
// Fresh -> InUse -> Exhausted lifecycle an explicit field instead of
// something a caller has to track out of band: a freshly generated key
// has NextIndex == ActivationEpoch, and the key is Exhausted once
// NextIndex == ActivationEpoch+NumActiveEpochs.
type SecretKey struct {
	PRFKey          []byte
	Tree            *merkle.HashTree
	Parameter       th.Params
	ActivationEpoch int
	NumActiveEpochs int
	NextIndex       int
}

// Exhausted reports whether every epoch in the key's activation window
// has already been consumed.
func (sk *SecretKey) Exhausted() bool {
	return sk.NextIndex >= sk.ActivationEpoch+sk.NumActiveEpochs
}

// Signature represents a generalized XMSS signature
type Signature struct {
	Path   merkle.HashTreeOpening
	Rho    []byte
	Hashes []th.Domain
}

// GeneralizedXMSS implements the generalized XMSS signature scheme (Construction 3)
type GeneralizedXMSS struct {
	prf         prf.PRF
	encoding    encoding.IncomparableEncoding
	th          th.TweakableHash
	logLifetime int
}

// NewGeneralizedXMSS creates a new generalized XMSS instance
func NewGeneralizedXMSS(
	prf prf.PRF,
	encoding encoding.IncomparableEncoding,
	th th.TweakableHash,
	logLifetime int,
) *GeneralizedXMSS {
	if logLifetime > 32 {
		panic("lifetime beyond 2^32 not supported")
	}

	if encoding.Base() > 256 {
		panic("encoding base too large, must be at most 256")
	}
	if encoding.Dimension() > 256 {
		panic("encoding dimension too large, must be at most 256")
	}

	return &GeneralizedXMSS{
		prf:         prf,
		encoding:    encoding,
		th:          th,
		logLifetime: logLifetime,
	}
}

// Lifetime returns the maximum number of epochs (L)
func (g *GeneralizedXMSS) Lifetime() uint64 {
	return 1 << g.logLifetime
}

// chunkBases returns the per-chain base for each codeword position,
// respecting encodings (like TL1C) whose chunks don't all share the same
// alphabet size.
func (g *GeneralizedXMSS) chunkBases() []int {
	return wots.Bases(g.encoding.Dimension(), g.encoding.Base(), g.encoding)
}

// KeyGen generates a new key pair
func (g *GeneralizedXMSS) KeyGen(rng io.Reader, activationEpoch, numActiveEpochs int) (*PublicKey, *SecretKey) {
	if activationEpoch+numActiveEpochs > int(g.Lifetime()) {
		panic("activation epoch and num active epochs invalid for this lifetime")
	}

	parameter := g.th.RandParameter(rng)
	prfKey := g.prf.KeyGen(rng)
	bases := g.chunkBases()

	chainEndsHashes := make([]th.Domain, numActiveEpochs)
	computeEpoch := func(epochOffset int) {
		epoch := uint32(activationEpoch + epochOffset)
		chainEnds := wots.PublicChainEnds(g.th, g.prf, prfKey, parameter, epoch, bases)
		leafTweak := g.th.TreeTweak(0, epoch)
		chainEndsHashes[epochOffset] = g.th.Apply(parameter, leafTweak, chainEnds)
	}
	if numActiveEpochs > keygenParallelThreshold {
		var wg sync.WaitGroup
		wg.Add(numActiveEpochs)
		for epochOffset := 0; epochOffset < numActiveEpochs; epochOffset++ {
			go func(offset int) {
				defer wg.Done()
				computeEpoch(offset)
			}(epochOffset)
		}
		wg.Wait()
	} else {
		for epochOffset := 0; epochOffset < numActiveEpochs; epochOffset++ {
			computeEpoch(epochOffset)
		}
	}

	tree := merkle.NewHashTree(
		rng,
		g.th,
		g.logLifetime,
		activationEpoch,
		parameter,
		chainEndsHashes,
	)

	pk := &PublicKey{
		Root:      tree.Root(),
		Parameter: parameter,
	}

	sk := &SecretKey{
		PRFKey:          prfKey,
		Tree:            tree,
		Parameter:       parameter,
		ActivationEpoch: activationEpoch,
		NumActiveEpochs: numActiveEpochs,
		NextIndex:       activationEpoch,
	}

	xlog.KeyGenerated(activationEpoch, numActiveEpochs, g.Lifetime())

	return pk, sk
}

// Sign creates a signature for a message at a specific epoch, without
// touching sk.NextIndex. It returns ErrStateRegression for an epoch below
// sk.NextIndex; repeated calls at the same epoch at or above NextIndex are
// the caller's responsibility to avoid; use SignNext for the common
// monotonically-advancing case, which enforces that guarantee.
func (g *GeneralizedXMSS) Sign(rng io.Reader, sk *SecretKey, epoch uint32, message []byte) (*Signature, error) {
	if int(epoch) < sk.ActivationEpoch || int(epoch) >= sk.ActivationEpoch+sk.NumActiveEpochs {
		return nil, ErrEpochNotActive
	}
	if int(epoch) < sk.NextIndex {
		return nil, ErrStateRegression
	}
	return g.signAt(rng, sk, epoch, message)
}

// SignNext signs at sk.NextIndex and advances it by one on success,
// returning ErrKeyExhausted once every epoch in the activation window has
// been consumed and ErrStateRegression if NextIndex has somehow fallen
// outside the activation window.
func (g *GeneralizedXMSS) SignNext(rng io.Reader, sk *SecretKey, message []byte) (*Signature, error) {
	if sk.Exhausted() {
		xlog.KeyExhausted(sk.ActivationEpoch, sk.NumActiveEpochs)
		return nil, ErrKeyExhausted
	}
	if sk.NextIndex < sk.ActivationEpoch {
		return nil, ErrStateRegression
	}
	epoch := uint32(sk.NextIndex)
	sig, err := g.signAt(rng, sk, epoch, message)
	if err != nil {
		return nil, err
	}
	sk.NextIndex++
	return sig, nil
}

func (g *GeneralizedXMSS) signAt(rng io.Reader, sk *SecretKey, epoch uint32, message []byte) (*Signature, error) {
	path := sk.Tree.Path(epoch)

	maxTries := g.encoding.MaxTries()
	var codeword encoding.Codeword
	var rho []byte
	usedAttempts := maxTries

	for attempts := 0; attempts < maxTries; attempts++ {
		rho = g.encoding.RandRandomness(rng)

		var err error
		codeword, err = g.encoding.Encode(sk.Parameter, message, rho, epoch)
		if err == nil {
			usedAttempts = attempts + 1
			break
		}

		if attempts == maxTries-1 {
			err := &SigningError{
				Message:  "failed to encode message",
				Attempts: maxTries,
			}
			xlog.SignFailed(epoch, err)
			return nil, err
		}
	}

	bases := g.chunkBases()
	hashes := wots.Sign(g.th, g.prf, sk.PRFKey, sk.Parameter, epoch, []uint8(codeword), bases)

	xlog.Signed(epoch, usedAttempts)

	return &Signature{
		Path:   path,
		Rho:    rho,
		Hashes: hashes,
	}, nil
}

// Verify verifies a signature
func (g *GeneralizedXMSS) Verify(pk *PublicKey, epoch uint32, message []byte, sig *Signature) bool {
	if uint64(epoch) >= g.Lifetime() {
		return false
	}

	codeword, err := g.encoding.Encode(pk.Parameter, message, sig.Rho, epoch)
	if err != nil {
		return false
	}
	if len(codeword) != g.encoding.Dimension() {
		return false
	}

	bases := g.chunkBases()
	chainEnds, ok := wots.Verify(g.th, pk.Parameter, epoch, []uint8(codeword), bases, sig.Hashes)
	if !ok {
		xlog.Verified(epoch, false)
		return false
	}

	valid := merkle.VerifyPath(
		g.th,
		pk.Parameter,
		pk.Root,
		epoch,
		chainEnds,
		sig.Path,
	)
	xlog.Verified(epoch, valid)
	return valid
}
