package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredential = errors.New("invalid_credential")
	ErrExpiredCredential = errors.New("expired_credential")
	ErrUnavailable       = errors.New("identity_unavailable")
)

// Identity is a verified participant as issued by the identity service.
type Identity struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

// Verifier exchanges an opaque credential for a verified identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, credential string) (Identity, error)

func (f VerifierFunc) Verify(ctx context.Context, credential string) (Identity, error) {
	return f(ctx, credential)
}
