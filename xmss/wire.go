package xmss

import (
	"encoding/binary"
	"fmt"

	"github.com/adust09/hypercube/merkle"
	"github.com/adust09/hypercube/th"
)

// EncodeSignatureWire serializes a signature to the fixed-width wire
// format: 4-byte big-endian epoch, n-byte randomness, L*n-byte WOTS chain
// outputs (index order), h*n-byte authentication path (leaf to root),
// where n is the hash output length shared by every Domain value in the
// signature. L and h are taken from the slice lengths here; the format
// carries no lengths, so DecodeSignatureWire takes them as parameters.
func EncodeSignatureWire(epoch uint32, sig *Signature) []byte {
	n := 0
	if len(sig.Hashes) > 0 {
		n = len(sig.Hashes[0])
	} else if len(sig.Path.CoPath) > 0 {
		n = len(sig.Path.CoPath[0])
	}

	buf := make([]byte, 0, 4+len(sig.Rho)+len(sig.Hashes)*n+len(sig.Path.CoPath)*n)
	var epochBytes [4]byte
	binary.BigEndian.PutUint32(epochBytes[:], epoch)
	buf = append(buf, epochBytes[:]...)
	buf = append(buf, sig.Rho...)
	for _, h := range sig.Hashes {
		buf = append(buf, h...)
	}
	for _, node := range sig.Path.CoPath {
		buf = append(buf, node...)
	}
	return buf
}

// DecodeSignatureWire parses the fixed-width wire format produced by
// EncodeSignatureWire. randLen, hashLen, numChains and authPathLen must
// match the scheme the signature was produced under, since the wire
// format carries no self-describing lengths beyond the leading epoch.
func DecodeSignatureWire(data []byte, randLen, hashLen, numChains, authPathLen int) (uint32, *Signature, error) {
	want := 4 + randLen + numChains*hashLen + authPathLen*hashLen
	if len(data) != want {
		return 0, nil, fmt.Errorf("xmss: signature wire length %d, want %d", len(data), want)
	}

	epoch := binary.BigEndian.Uint32(data[:4])
	offset := 4

	rho := append([]byte(nil), data[offset:offset+randLen]...)
	offset += randLen

	hashes := make([]th.Domain, numChains)
	for i := range hashes {
		hashes[i] = th.Domain(append([]byte(nil), data[offset:offset+hashLen]...))
		offset += hashLen
	}

	coPath := make([]th.Domain, authPathLen)
	for i := range coPath {
		coPath[i] = th.Domain(append([]byte(nil), data[offset:offset+hashLen]...))
		offset += hashLen
	}

	return epoch, &Signature{
		Path:   merkle.HashTreeOpening{CoPath: coPath},
		Rho:    rho,
		Hashes: hashes,
	}, nil
}
