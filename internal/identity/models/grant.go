package models

import "time"

// TokenGrant is a signed access token handed to a participant, with the
// device label the issuance was observed from.
type TokenGrant struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Device    string    `json:"device,omitempty"`
}
