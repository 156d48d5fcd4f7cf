package ports

import (
	"context"

	"github.com/openvending/vending/internal/domain"
)

type DeviceProvider interface {
	Snapshot(ctx context.Context) (domain.DeviceProfile, error)
	Resolve(ctx context.Context, packageName string) (domain.ClientIdentity, error)
}
