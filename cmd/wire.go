package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/openvending/vending/internal/adapters/auth/file"
	"github.com/openvending/vending/internal/adapters/challenge"
	"github.com/openvending/vending/internal/adapters/device"
	"github.com/openvending/vending/internal/adapters/render/sheet"
	tomlsettings "github.com/openvending/vending/internal/adapters/settings/toml"
	"github.com/openvending/vending/internal/adapters/transport"
	"github.com/openvending/vending/internal/api"
	"github.com/openvending/vending/internal/application"
	"github.com/openvending/vending/internal/cache"
	"github.com/openvending/vending/internal/config"
	"github.com/openvending/vending/internal/ledger"
	"github.com/openvending/vending/internal/logging"
	"github.com/openvending/vending/internal/ports"
)

type app struct {
	cfg        *viper.Viper
	billing    *application.BillingService
	flows      *application.BuyFlowService
	server     *api.Server
	serverAddr string
	renderFlow func(*application.FlowView) string
}

func wireApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logging.Setup(cfg.GetString("log.level"))
	if dir := cfg.GetString("log.dir"); dir != "" {
		if err := logging.ConfigureFileOutput(dir); err != nil {
			return nil, err
		}
	}

	credentialsPath, err := config.CredentialsPath(cfg)
	if err != nil {
		return nil, err
	}

	settings, err := tomlsettings.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire settings store: %w", err)
	}

	clock := ports.SystemClock{}
	skuCache := cache.NewResponseCache(
		cfg.GetInt("cache.sku_details.capacity"),
		cfg.GetDuration("cache.sku_details.ttl"),
		clock,
	)
	sessions := cache.NewSessionCache(cfg.GetDuration("cache.sessions.ttl"), clock)

	source := application.NewSessionSource(
		sessions,
		skuCache,
		file.NewProvider(credentialsPath),
		device.NewProvider(cfg),
		transport.NewClient(cfg.GetDuration("transport.request_timeout")),
		config.Endpoints(cfg),
		clock,
	)

	purchases := ledger.New()
	billing := application.NewBillingService(source, purchases)
	flows := application.NewBuyFlowService(
		source,
		purchases,
		challenge.NewUnsupported(),
		settings,
		clock,
		cfg.GetInt("flows.max_active"),
		cfg.GetDuration("flows.idle_ttl"),
	)

	return &app{
		cfg:        cfg,
		billing:    billing,
		flows:      flows,
		server:     api.NewServer(billing, flows),
		serverAddr: cfg.GetString("server.addr"),
		renderFlow: sheet.Render,
	}, nil
}
