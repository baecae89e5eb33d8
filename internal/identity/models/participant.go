// Package models defines the identity edge's participant record. Participants
// are not ledger state: the ledger consumes only the caller address the token
// middleware injects, and knows nothing about secrets or tokens.
package models

import (
	"time"

	"aircover/pkg/domain"
)

// Participant is a provisioned caller: an address bound to a bcrypt-hashed
// secret. The plaintext secret is returned exactly once at provisioning and
// never stored.
type Participant struct {
	Address    domain.Address `json:"address"`
	SecretHash string         `json:"-"`
	CreatedAt  time.Time      `json:"created_at"`

	// Device binding from the last token issuance, kept for drift logging.
	LastTokenAt     *time.Time `json:"last_token_at,omitempty"`
	LastDevice      string     `json:"-"`
	LastFingerprint string     `json:"-"`
}

// NewParticipant creates a participant with the given secret hash.
func NewParticipant(address domain.Address, secretHash string, now time.Time) *Participant {
	return &Participant{
		Address:    address,
		SecretHash: secretHash,
		CreatedAt:  now,
	}
}

// ApplyTokenIssuance records the device binding of a successful issuance.
func (p *Participant) ApplyTokenIssuance(device, fingerprint string, now time.Time) {
	p.LastTokenAt = &now
	p.LastDevice = device
	p.LastFingerprint = fingerprint
}
