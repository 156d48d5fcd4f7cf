package application

import (
	"context"
	"fmt"

	"github.com/openvending/vending/internal/cache"
	"github.com/openvending/vending/internal/ports"
	"github.com/openvending/vending/internal/protocol"
)

// SessionSource resolves (package, account) to a live protocol client via
// the session cache, rebuilding expired entries from the auth and device
// providers.
type SessionSource struct {
	sessions  *cache.SessionCache
	skuCache  *cache.ResponseCache
	auth      ports.AuthProvider
	device    ports.DeviceProvider
	transport ports.Transport
	endpoints protocol.Endpoints
	clock     ports.Clock
}

func NewSessionSource(
	sessions *cache.SessionCache,
	skuCache *cache.ResponseCache,
	auth ports.AuthProvider,
	device ports.DeviceProvider,
	transport ports.Transport,
	endpoints protocol.Endpoints,
	clock ports.Clock,
) *SessionSource {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &SessionSource{
		sessions:  sessions,
		skuCache:  skuCache,
		auth:      auth,
		device:    device,
		transport: transport,
		endpoints: endpoints,
		clock:     clock,
	}
}

func (s *SessionSource) Client(ctx context.Context, pkgName, account string) (*protocol.Client, error) {
	return s.sessions.GetOrCreate(ctx, pkgName, account, func(ctx context.Context) (*protocol.Client, error) {
		auth, err := s.auth.Obtain(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("obtain auth context: %w", err)
		}
		profile, err := s.device.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("snapshot device profile: %w", err)
		}
		identity, err := s.device.Resolve(ctx, pkgName)
		if err != nil {
			return nil, fmt.Errorf("resolve client identity: %w", err)
		}

		session := protocol.Session{Auth: auth, Device: profile, Client: identity}
		return protocol.NewClient(session, s.transport, s.skuCache, s.endpoints, s.clock), nil
	})
}
