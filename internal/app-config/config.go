package appconfig

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/lagoon/internal/config"
	"github.com/vulpemventures/lagoon/internal/core/application"
	"github.com/vulpemventures/lagoon/internal/core/domain"
	"github.com/vulpemventures/lagoon/internal/core/ports"
	dbbadger "github.com/vulpemventures/lagoon/internal/infrastructure/storage/db/badger"
	"github.com/vulpemventures/lagoon/internal/infrastructure/storage/db/inmemory"
)

// AppConfig is the struct holding all configuration options for
// every application service (keyring and transaction).
// This data structure acts also as a factory of the mentioned application
// services and the portable services used by them.
// Public config args:
//   - Network - (required) The Bitcoin network (mainnet, testnet, regtest).
//   - RepoManagerType - (required) One of the supported repository manager types.
//   - RepoManagerConfig - (optional) Custom config args for the repository manager based on its type.
type AppConfig struct {
	Version string
	Commit  string
	Date    string

	Network           string
	RepoManagerType   string
	RepoManagerConfig interface{}

	rm         ports.RepoManager
	keyringSvc *application.KeyringService
	txSvc      *application.TransactionService
}

func (c *AppConfig) Validate() error {
	if len(c.Network) == 0 {
		return fmt.Errorf("missing network")
	}
	if _, err := domain.NetworkFromName(c.Network); err != nil {
		return err
	}
	if len(c.RepoManagerType) == 0 {
		return fmt.Errorf("missing repo manager type")
	}
	if _, ok := config.SupportedDbs[c.RepoManagerType]; !ok {
		return fmt.Errorf(
			"repo manager type not supported, must be one of: %s",
			config.SupportedDbs,
		)
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}

	return nil
}

func (c *AppConfig) RepoManager() ports.RepoManager {
	return c.rm
}

func (c *AppConfig) KeyringService() *application.KeyringService {
	return c.keyringService()
}

func (c *AppConfig) TransactionService() *application.TransactionService {
	return c.transactionService()
}

func (c *AppConfig) repoManager() (ports.RepoManager, error) {
	if c.rm != nil {
		return c.rm, nil
	}

	switch c.RepoManagerType {
	case "inmemory":
		c.rm = inmemory.NewRepoManager()
		return c.rm, nil
	case "badger":
		if c.RepoManagerConfig == nil {
			return nil, fmt.Errorf("missing repo manager config args")
		}
		datadir, ok := c.RepoManagerConfig.(string)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be string")
		}
		rm, err := dbbadger.NewRepoManager(datadir, log.New())
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	default:
		return nil, fmt.Errorf("unknown repo manager type")
	}
}

func (c *AppConfig) keyringService() *application.KeyringService {
	if c.keyringSvc != nil {
		return c.keyringSvc
	}

	rm, _ := c.repoManager()
	c.keyringSvc = application.NewKeyringService(rm, c.Network, c.buildInfo())
	return c.keyringSvc
}

func (c *AppConfig) transactionService() *application.TransactionService {
	if c.txSvc != nil {
		return c.txSvc
	}

	rm, _ := c.repoManager()
	c.txSvc = application.NewTransactionService(rm, c.Network)
	return c.txSvc
}

func (c *AppConfig) buildInfo() application.BuildInfo {
	version := "dev"
	if c.Version != "" {
		version = c.Version
	}
	commit := "none"
	if c.Commit != "" {
		commit = c.Commit
	}
	date := "unknown"
	if c.Date != "" {
		date = c.Date
	}
	return application.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}
