package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vulpemventures/lagoon/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	keyringDatadir = btcutil.AppDataDir("lagoon", false)
	initialState   = map[string]string{
		"datadir": keyringDatadir,
		"network": "mainnet",
		"db_type": "badger",
	}

	rootCmd = &cobra.Command{
		Use:   "lagoon",
		Short: "CLI for lagoon keyring",
		Long: "This CLI lets you manage an encrypted keyring of signing keys " +
			"and use it to sign partially signed bitcoin transactions",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

			if _, err := os.Stat(datadir); os.IsNotExist(err) {
				os.Mkdir(datadir, os.ModeDir|0755)
			}
		},
		Version: formatVersion(),
	}
)

func init() {
	rootCmd.AddCommand(configCmd, keyringCmd, txCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
