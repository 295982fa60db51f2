package statefile

import (
	"fmt"
	"io"

	"github.com/adust09/hypercube/xmss"
)

// SignNext borrows the next epoch index from the store, signs message at
// that epoch, and confirms the borrow on success. On failure the borrowed
// index is left unconfirmed and permanently skipped, which is safe: the
// alternative of retrying the same index risks signing two different
// messages at one epoch if the first attempt's signature escaped to disk
// or network before the failure.
func SignNext(scheme *xmss.GeneralizedXMSS, store *Store, sk *xmss.SecretKey, rng io.Reader, message []byte) (*xmss.Signature, error) {
	epoch, err := store.BorrowIndices(1)
	if err != nil {
		return nil, fmt.Errorf("statefile: borrow epoch: %w", err)
	}

	sig, err := scheme.Sign(rng, sk, epoch, message)
	if err != nil {
		return nil, fmt.Errorf("statefile: sign at epoch %d: %w", epoch, err)
	}

	if err := store.Confirm(epoch); err != nil {
		return nil, fmt.Errorf("statefile: confirm epoch %d: %w", epoch, err)
	}
	sk.NextIndex = int(epoch) + 1

	return sig, nil
}
