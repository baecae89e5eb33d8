// Package dice is the deterministic pseudo-random index source for oracle
// assignment and status requests. Draws hash a fixed seed, a monotonic
// nonce, and the caller address, so a run with a configured seed is
// reproducible while still spreading indexes across callers.
//
// The source is statistically uniform but NOT adversarially secure: a
// participant who learns the seed can predict future draws. The protocol
// accepts this; it mirrors the original scheme's block-entropy source.
package dice

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"aircover/pkg/domain"
)

// IndexSpace is the exclusive upper bound of drawn indexes.
const IndexSpace = 10

// Roller draws indexes in [0, IndexSpace).
type Roller struct {
	seed  []byte
	nonce atomic.Uint64
}

// New creates a Roller from the configured seed. An empty seed draws a
// random one, which makes indexes unpredictable across restarts.
func New(seed string) (*Roller, error) {
	if seed != "" {
		return &Roller{seed: []byte(seed)}, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("could not generate dice seed: %w", err)
	}
	return &Roller{seed: buf}, nil
}

// Roll draws one index for the caller. Every draw consumes a nonce, so
// consecutive rolls differ even for the same caller.
func (r *Roller) Roll(caller domain.Address) uint8 {
	n := r.nonce.Add(1)

	h := sha256.New()
	h.Write(r.seed)

	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], n)
	h.Write(nonce[:])
	h.Write([]byte(caller))

	sum := h.Sum(nil)
	return uint8(binary.BigEndian.Uint64(sum[:8]) % IndexSpace)
}

// RollTriple draws three pairwise-distinct indexes for the caller,
// redrawing any duplicate until the triple is distinct.
func (r *Roller) RollTriple(caller domain.Address) [3]uint8 {
	var triple [3]uint8

	triple[0] = r.Roll(caller)

	triple[1] = r.Roll(caller)
	for triple[1] == triple[0] {
		triple[1] = r.Roll(caller)
	}

	triple[2] = r.Roll(caller)
	for triple[2] == triple[0] || triple[2] == triple[1] {
		triple[2] = r.Roll(caller)
	}

	return triple
}
