package common

import (
	"fmt"

	"github.com/chainlaunch/asset-gateway/pkg/assets"
	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/broker"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/networkconfig"
	"github.com/chainlaunch/asset-gateway/pkg/identity"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/chainlaunch/asset-gateway/pkg/metrics"
)

// App wires the gateway components for one process.
type App struct {
	Config    *config.Config
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Resolver  *networkconfig.Resolver
	Store     identity.Store
	Authority *identity.Authority
	Broker    *broker.Broker
	Assets    *assets.Service

	closeStore func() error
}

// NewApp loads the configuration at configPath (defaults when empty) and
// builds every component. The caller must Close the returned App.
func NewApp(configPath string, opts ...config.Option) (*App, error) {
	cfg, err := config.Load(configPath, opts...)
	if err != nil {
		return nil, err
	}
	return NewAppFromConfig(cfg)
}

func NewAppFromConfig(cfg *config.Config) (*App, error) {
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	encryptionKey := cfg.IdentityStore.EncryptionKey
	if cfg.IdentityStore.Type == config.IdentityStoreSQLite && encryptionKey == "" {
		encryptionKey, err = EnsureKeyExists(identityKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize identity encryption key: %w", err)
		}
	}
	store, closeStore, err := identity.NewStore(cfg, encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity store: %w", err)
	}

	m := metrics.New()
	resolver := networkconfig.NewResolver(cfg)
	authority := identity.NewAuthority(cfg, resolver, store, identity.NewCAClientFactory(log.Named("ca")), log.Named("identity"), m)
	b := broker.New(cfg, resolver, store, broker.NewGatewayConnector(log.Named("gateway")), log.Named("broker"), m)
	service := assets.NewService(b, assets.NewDispatcher(log.Named("dispatcher"), m))

	return &App{
		Config:     cfg,
		Logger:     log,
		Metrics:    m,
		Resolver:   resolver,
		Store:      store,
		Authority:  authority,
		Broker:     b,
		Assets:     service,
		closeStore: closeStore,
	}, nil
}

func (a *App) Close() error {
	_ = a.Logger.Sync()
	return a.closeStore()
}
