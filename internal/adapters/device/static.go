// Package device resolves device profiles and client identities from
// configuration. A real deployment would snapshot the host platform; this
// adapter keeps the engine runnable anywhere.
package device

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/openvending/vending/internal/domain"
	"github.com/openvending/vending/internal/ports"
)

type Provider struct {
	cfg *viper.Viper
}

var _ ports.DeviceProvider = (*Provider)(nil)

func NewProvider(cfg *viper.Viper) *Provider {
	if cfg == nil {
		cfg = viper.New()
	}
	cfg.SetDefault("device.build", "generic")
	cfg.SetDefault("device.product", "generic")
	cfg.SetDefault("device.model", "Pixel 7")
	cfg.SetDefault("device.manufacturer", "Google")
	cfg.SetDefault("device.sdk_version", 33)
	cfg.SetDefault("device.client_version", 84122130)
	cfg.SetDefault("device.locale", "en_US")
	cfg.SetDefault("device.time_zone", "UTC")

	return &Provider{cfg: cfg}
}

func (p *Provider) Snapshot(ctx context.Context) (domain.DeviceProfile, error) {
	if err := ctx.Err(); err != nil {
		return domain.DeviceProfile{}, err
	}

	return domain.DeviceProfile{
		Build:          p.cfg.GetString("device.build"),
		Product:        p.cfg.GetString("device.product"),
		Model:          p.cfg.GetString("device.model"),
		Manufacturer:   p.cfg.GetString("device.manufacturer"),
		Fingerprint:    p.cfg.GetString("device.fingerprint"),
		SDKVersion:     p.cfg.GetInt("device.sdk_version"),
		ClientVersion:  p.cfg.GetInt("device.client_version"),
		Locale:         p.cfg.GetString("device.locale"),
		TimeZone:       p.cfg.GetString("device.time_zone"),
		GSFVersionCode: p.cfg.GetInt("device.client_version"),
	}, nil
}

func (p *Provider) Resolve(ctx context.Context, packageName string) (domain.ClientIdentity, error) {
	if err := ctx.Err(); err != nil {
		return domain.ClientIdentity{}, err
	}
	if packageName == "" {
		return domain.ClientIdentity{}, fmt.Errorf("resolve client identity: %w", domain.ErrMissingPackageName)
	}

	key := "clients." + packageName
	identity := domain.ClientIdentity{
		PackageName: packageName,
		CertHashSHA: p.cfg.GetString(key + ".cert_hash"),
		VersionCode: p.cfg.GetInt(key + ".version_code"),
	}
	if identity.VersionCode == 0 {
		identity.VersionCode = 1
	}
	return identity, nil
}
