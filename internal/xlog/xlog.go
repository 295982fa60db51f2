// Package xlog provides the structured logging used for scheme lifecycle
// events (key generation, signing, verification, key exhaustion). It is a
// thin wrapper over log/slog rather than a logging framework: call sites
// want named fields and levels, not a bespoke abstraction.
package xlog

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))

// SetOutput replaces the package logger (by default a JSON handler on
// stderr), for example with a text handler.
func SetOutput(l *slog.Logger) {
	logger = l
}

// KeyGenerated logs a successful key generation.
func KeyGenerated(activationEpoch, numActiveEpochs int, lifetime uint64) {
	logger.Info("xmss keygen",
		slog.Int("activation_epoch", activationEpoch),
		slog.Int("num_active_epochs", numActiveEpochs),
		slog.Uint64("lifetime", lifetime),
	)
}

// Signed logs a successful signature at the given epoch.
func Signed(epoch uint32, attempts int) {
	logger.Info("xmss sign",
		slog.Uint64("epoch", uint64(epoch)),
		slog.Int("encode_attempts", attempts),
	)
}

// SignFailed logs a signing failure.
func SignFailed(epoch uint32, err error) {
	logger.Warn("xmss sign failed",
		slog.Uint64("epoch", uint64(epoch)),
		slog.String("error", err.Error()),
	)
}

// Verified logs the outcome of a verification attempt.
func Verified(epoch uint32, ok bool) {
	logger.Info("xmss verify",
		slog.Uint64("epoch", uint64(epoch)),
		slog.Bool("ok", ok),
	)
}

// KeyExhausted logs that a stateful key has run out of usable epochs.
func KeyExhausted(activationEpoch, numActiveEpochs int) {
	logger.Warn("xmss key exhausted",
		slog.Int("activation_epoch", activationEpoch),
		slog.Int("num_active_epochs", numActiveEpochs),
	)
}
