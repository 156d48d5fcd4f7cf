package ports

import (
	"context"

	"github.com/openvending/vending/internal/domain"
)

// AuthProvider hands out credential material for an account. Failures use
// the domain sentinels ErrNoAccount, ErrTokenUnavailable and
// ErrConsentRequired.
type AuthProvider interface {
	Obtain(ctx context.Context, accountID string) (domain.AuthContext, error)
}
