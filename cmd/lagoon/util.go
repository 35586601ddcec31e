package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	appconfig "github.com/vulpemventures/lagoon/internal/app-config"
	"github.com/vulpemventures/lagoon/internal/config"
	"github.com/vulpemventures/lagoon/internal/core/application"
	"github.com/vulpemventures/lagoon/internal/core/domain"
	cypher "github.com/vulpemventures/lagoon/internal/infrastructure/key-cypher/aes128"
	keystore "github.com/vulpemventures/lagoon/internal/infrastructure/key-store/in-memory"
)

var (
	colorRed = string("\033[31m")

	appCfg *appconfig.AppConfig
)

func getKeyringService() (*application.KeyringService, error) {
	cfg, err := getAppConfig()
	if err != nil {
		return nil, err
	}
	return cfg.KeyringService(), nil
}

func getTransactionService() (*application.TransactionService, error) {
	cfg, err := getAppConfig()
	if err != nil {
		return nil, err
	}
	return cfg.TransactionService(), nil
}

// getAppConfig builds the service factory out of the CLI state. The keyring
// lives encrypted in the repository, while its unlocked keys are held by the
// in-memory store and gone once the command returns.
func getAppConfig() (*appconfig.AppConfig, error) {
	if appCfg != nil {
		return appCfg, nil
	}

	state, err := getState()
	if err != nil {
		return nil, err
	}

	if v := state["datadir"]; len(v) > 0 {
		config.Set(config.DatadirKey, cleanAndExpandPath(v))
	}
	if v := state["network"]; len(v) > 0 {
		config.Set(config.NetworkKey, v)
	}
	if v := state["db_type"]; len(v) > 0 {
		config.Set(config.DatabaseTypeKey, v)
	}

	domain.KeyCypher = cypher.NewAES128Cypher()
	domain.KeyStore = keystore.NewInMemoryKeyStore()

	cfg := &appconfig.AppConfig{
		Version:           version,
		Commit:            commit,
		Date:              date,
		Network:           config.GetString(config.NetworkKey),
		RepoManagerType:   config.GetString(config.DatabaseTypeKey),
		RepoManagerConfig: filepath.Join(config.GetDatadir(), config.DbLocation),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appCfg = cfg
	return appCfg, nil
}

func getState() (map[string]string, error) {
	file, err := os.ReadFile(statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := writeState(initialState); err != nil {
			return nil, err
		}
		return initialState, nil
	}

	data := map[string]string{}
	json.Unmarshal(file, &data)
	return data, nil
}

func setState(partialState map[string]string) error {
	state, err := getState()
	if err != nil {
		return err
	}

	for key, value := range partialState {
		state[key] = value
	}
	return writeState(state)
}

func writeState(state map[string]string) error {
	dir := filepath.Dir(statePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return fmt.Errorf("failed to create directory: %v", err)
		}
	}

	buf, _ := json.MarshalIndent(state, "", "  ")
	if err := os.WriteFile(statePath, buf, 0755); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func jsonResponse(v interface{}) (string, error) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize response: %s", err)
	}
	return string(buf), nil
}

func printErr(err error) {
	msg := fmt.Sprintf("%s%s", colorRed, capitalize(err.Error()))
	fmt.Fprintln(os.Stderr, msg)
}

func capitalize(s string) string {
	ss := strings.ToUpper(s[0:1])
	ss += s[1:]
	return ss
}

func formatVersion() string {
	return fmt.Sprintf(
		"\nVersion: %s\nCommit: %s\nDate: %s", version, commit, date,
	)
}
