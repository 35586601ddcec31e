package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vulpemventures/lagoon/internal/config"
	"github.com/vulpemventures/lagoon/internal/core/domain"
)

var (
	stateDatadir string
	stateNetwork string
	stateDbType  string

	configSetCmd = &cobra.Command{
		Use:   "set",
		Short: "edit single CLI config entry",
		Long: "this command lets you customize a single configuration entry of " +
			"the lagoon CLI",
		Args: cobra.ExactArgs(2),
		RunE: configSet,
	}
	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "edit multiple CLI config entry",
		Long: "this command lets you customize multiple configuration entres of " +
			"the lagoon CLI",
		RunE: configInit,
	}
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "print or edit CLI configuration",
		Long: "this command lets you show or customize the configuration of " +
			"the lagoon CLI",
		RunE: configPrint,
	}
)

func init() {
	configInitCmd.Flags().StringVar(
		&stateDatadir, "datadir", initialState["datadir"],
		"directory where the keyring database is stored",
	)
	configInitCmd.Flags().StringVar(
		&stateNetwork, "network", initialState["network"],
		"the bitcoin network of the keyring (mainnet, testnet, regtest)",
	)
	configInitCmd.Flags().StringVar(
		&stateDbType, "db-type", initialState["db_type"],
		"type of the keyring database, must be one of the supported ones",
	)
	configCmd.AddCommand(configSetCmd, configInitCmd)
}

func configSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Prevent setting anything that is not part of the state.
	if _, ok := initialState[key]; !ok {
		return nil
	}

	if key == "datadir" {
		value = cleanAndExpandPath(value)
	}
	if key == "network" {
		if _, err := domain.NetworkFromName(value); err != nil {
			printErr(err)
			return nil
		}
	}
	if key == "db_type" {
		if _, ok := config.SupportedDbs[value]; !ok {
			printErr(fmt.Errorf(
				"db type not supported, must be one of: %s", config.SupportedDbs,
			))
			return nil
		}
	}

	if err := setState(map[string]string{key: value}); err != nil {
		return err
	}

	fmt.Printf("%s %s has been set\n", key, value)

	return nil
}

func configInit(cmd *cobra.Command, args []string) error {
	if _, err := getState(); err != nil {
		return err
	}

	if err := setState(map[string]string{
		"datadir": cleanAndExpandPath(stateDatadir),
		"network": stateNetwork,
		"db_type": stateDbType,
	}); err != nil {
		return err
	}

	fmt.Println("CLI has been configured")

	return nil
}

func configPrint(_ *cobra.Command, _ []string) error {
	state, err := getState()
	if err != nil {
		return err
	}

	buf, _ := json.MarshalIndent(state, "", "   ")
	fmt.Println(string(buf))

	return nil
}
