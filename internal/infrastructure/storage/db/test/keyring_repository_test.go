package db_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/lagoon/internal/core/domain"
	"github.com/vulpemventures/lagoon/internal/core/ports"
	dbbadger "github.com/vulpemventures/lagoon/internal/infrastructure/storage/db/badger"
	"github.com/vulpemventures/lagoon/internal/infrastructure/storage/db/inmemory"
	"github.com/vulpemventures/lagoon/pkg/signer"
	path "github.com/vulpemventures/lagoon/pkg/wallet/derivation-path"
)

var (
	ctx                   = context.Background()
	password              = "password"
	newPassword           = "newPassword"
	wrongPassword         = "wrongPassword"
	network               = "regtest"
	errSomethingWentWrong = fmt.Errorf("something went wrong")
	testSeed              = h2b(
		"5555555555555555555555555555555555555555555555555555555555555555",
	)
	testPrvkeyBytes = h2b(
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	)
	testNewPrvkeyBytes = h2b(
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	)
)

func TestMain(m *testing.M) {
	domain.KeyCypher = fakeKeyCypher{}

	os.Exit(m.Run())
}

func TestKeyringRepository(t *testing.T) {
	repositories, err := newKeyringRepositories(
		func(repoType string) ports.KeyringEventHandler {
			return func(event domain.KeyringEvent) {
				t.Logf(
					"received event from %s repo: {EventType: %s, PublicKeys: %v}\n",
					repoType, event.EventType, event.PublicKeys,
				)
			}
		},
	)
	require.NoError(t, err)

	for name, repo := range repositories {
		t.Run(name, func(t *testing.T) {
			domain.KeyStore = newInMemoryKeyStore()
			testKeyringRepository(t, repo)
		})
	}
}

func testKeyringRepository(t *testing.T, repo domain.KeyringRepository) {
	testManageKeyring(t, repo)

	testImportKeys(t, repo)
}

func testManageKeyring(t *testing.T, repo domain.KeyringRepository) {
	t.Run("create_keyring", func(t *testing.T) {
		keyring, err := repo.GetKeyring(ctx)
		require.Error(t, err)
		require.Nil(t, keyring)

		newKeyring, err := domain.NewKeyring(newTestKeyMap(t), password, network)
		require.NoError(t, err)
		require.NotNil(t, newKeyring)

		err = repo.CreateKeyring(ctx, newKeyring)
		require.NoError(t, err)

		err = repo.CreateKeyring(ctx, newKeyring)
		require.Error(t, err)

		keyring, err = repo.GetKeyring(ctx)
		require.NoError(t, err)
		require.NotNil(t, keyring)
		require.Exactly(t, *newKeyring, *keyring)
		require.True(t, keyring.IsInitialized())
		require.True(t, keyring.IsLocked())
	})

	t.Run("update_unlock_keyring", func(t *testing.T) {
		err := repo.UpdateKeyring(
			ctx, func(k *domain.Keyring) (*domain.Keyring, error) {
				return nil, errSomethingWentWrong
			},
		)
		require.EqualError(t, err, errSomethingWentWrong.Error())

		err = repo.ChangePassword(ctx, wrongPassword, newPassword)
		require.Error(t, err)

		err = repo.ChangePassword(ctx, password, newPassword)
		require.NoError(t, err)

		keyring, err := repo.GetKeyring(ctx)
		require.NoError(t, err)
		require.True(t, keyring.IsLocked())

		err = repo.UnlockKeyring(ctx, password)
		require.Error(t, err)

		err = repo.UnlockKeyring(ctx, newPassword)
		require.NoError(t, err)

		keyring, err = repo.GetKeyring(ctx)
		require.NoError(t, err)
		require.False(t, keyring.IsLocked())

		err = repo.LockKeyring(ctx, newPassword)
		require.NoError(t, err)

		keyring, err = repo.GetKeyring(ctx)
		require.NoError(t, err)
		require.True(t, keyring.IsLocked())
	})
}

func testImportKeys(t *testing.T, repo domain.KeyringRepository) {
	t.Run("import_keys", func(t *testing.T) {
		newKeys := newTestImportedKeyMap(t)

		err := repo.ImportKeys(ctx, newPassword, newKeys)
		require.Error(t, err)

		err = repo.UnlockKeyring(ctx, newPassword)
		require.NoError(t, err)

		keyring, err := repo.GetKeyring(ctx)
		require.NoError(t, err)
		keys, err := keyring.Keys()
		require.NoError(t, err)
		require.Len(t, keys, 2)

		err = repo.ImportKeys(ctx, newPassword, newKeys)
		require.NoError(t, err)

		keyring, err = repo.GetKeyring(ctx)
		require.NoError(t, err)
		keys, err = keyring.Keys()
		require.NoError(t, err)
		require.Len(t, keys, 3)

		err = repo.ImportKeys(ctx, newPassword, newKeys)
		require.Error(t, err)
	})
}

func newKeyringRepositories(
	handlerFactory func(repoType string) ports.KeyringEventHandler,
) (map[string]domain.KeyringRepository, error) {
	inmemoryRepoManager := inmemory.NewRepoManager()
	badgerRepoManager, err := dbbadger.NewRepoManager("", nil)
	if err != nil {
		return nil, err
	}

	handlers := []ports.KeyringEventHandler{
		handlerFactory("badger"), handlerFactory("inmemory"),
	}

	repoManagers := []ports.RepoManager{badgerRepoManager, inmemoryRepoManager}

	for i, repoManager := range repoManagers {
		handler := handlers[i]

		repoManager.RegisterHandlerForKeyringEvent(
			domain.KeyringCreated, handler,
		)
		repoManager.RegisterHandlerForKeyringEvent(
			domain.KeyringUnlocked, handler,
		)
		repoManager.RegisterHandlerForKeyringEvent(
			domain.KeyringLocked, handler,
		)
		repoManager.RegisterHandlerForKeyringEvent(
			domain.KeyringPasswordChanged, handler,
		)
		repoManager.RegisterHandlerForKeyringEvent(
			domain.KeyringKeysImported, handler,
		)
	}

	return map[string]domain.KeyringRepository{
		"badger":   badgerRepoManager.KeyringRepository(),
		"inmemory": inmemoryRepoManager.KeyringRepository(),
	}, nil
}

func newTestKeyMap(t *testing.T) signer.KeyMap {
	prvkey, _ := btcec.PrivKeyFromBytes(testPrvkeyBytes)
	master, err := hdkeychain.NewMaster(testSeed, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	scope, err := path.ParseDerivationPath("m/84'/1'")
	require.NoError(t, err)

	return newKeyMap(t, &signer.SecretKey{Key: prvkey}, &signer.SecretKey{
		XPrv: master, Path: scope,
	})
}

func newTestImportedKeyMap(t *testing.T) signer.KeyMap {
	prvkey, _ := btcec.PrivKeyFromBytes(testNewPrvkeyBytes)
	return newKeyMap(t, &signer.SecretKey{Key: prvkey})
}

func newKeyMap(t *testing.T, secrets ...*signer.SecretKey) signer.KeyMap {
	keymap := make(signer.KeyMap)
	for _, secret := range secrets {
		pubkey, err := secret.PublicKey()
		require.NoError(t, err)
		keymap[pubkey] = secret
	}
	return keymap
}
