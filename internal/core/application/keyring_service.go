package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/vulpemventures/lagoon/internal/core/domain"
	"github.com/vulpemventures/lagoon/internal/core/ports"
	"github.com/vulpemventures/lagoon/pkg/signer"
	"github.com/vulpemventures/lagoon/pkg/wallet/mnemonic"
)

// KeyringService is responsible for operations related to the managment of the
// keyring:
// 	* Generate a new random 24-words mnemonic.
// 	* Create a new keyring from scratch, either with a given set of keys or with the master key derived from a given mnemonic, locked with the given password.
// 	* Unlock or lock the keyring with a password.
// 	* Change the keyring password. It requires the keyring to be locked.
// 	* Get the status of the keyring (initialized, unlocked).
// 	* Get non-sensitive (network, build info) and possibly sensitive info (registered signers) about the keyring. Sensitive info are returned only if the keyring is unlocked.
// 	* Import a single key into the keyring, export the whole set at rest.
//
// This service doesn't register any handler for keyring events, rather it
// allows its users to register their handler to manage situations like the
// unlocking of the keyring (for example, check how the transaction service
// uses this feature).
type KeyringService struct {
	repoManager ports.RepoManager
	network     string
	buildInfo   BuildInfo

	initialized bool
	unlocked    bool
	lock        *sync.RWMutex
}

func NewKeyringService(
	repoManager ports.RepoManager, network string, buildInfo BuildInfo,
) *KeyringService {
	ks := &KeyringService{
		repoManager: repoManager,
		network:     network,
		buildInfo:   buildInfo,
		lock:        &sync.RWMutex{},
	}
	k, _ := ks.repoManager.KeyringRepository().GetKeyring(context.Background())
	if k != nil {
		ks.setInitialized()
	}
	return ks
}

func (ks *KeyringService) GenSeed(ctx context.Context) ([]string, error) {
	return mnemonic.NewMnemonic(mnemonic.NewMnemonicArgs{})
}

// CreateKeyring initializes the keyring with the BIP32 master key derived
// from the given mnemonic for the service's network.
func (ks *KeyringService) CreateKeyring(
	ctx context.Context, words []string, password string,
) (err error) {
	net, err := domain.NetworkFromName(ks.network)
	if err != nil {
		return err
	}
	masterKey, err := mnemonic.ToMasterKey(words, net)
	if err != nil {
		return err
	}

	secret := &signer.SecretKey{XPrv: masterKey}
	pubkey, err := secret.PublicKey()
	if err != nil {
		return err
	}

	return ks.CreateKeyringWithKeys(
		ctx, signer.KeyMap{pubkey: secret}, password,
	)
}

// CreateKeyringWithKeys initializes the keyring with the given set of keys,
// locked with the given password.
func (ks *KeyringService) CreateKeyringWithKeys(
	ctx context.Context, keys signer.KeyMap, password string,
) (err error) {
	defer func() {
		if err == nil {
			ks.setInitialized()
		}
	}()

	if ks.isInitialized() {
		return fmt.Errorf("keyring is already initialized")
	}

	newKeyring, err := domain.NewKeyring(keys, password, ks.network)
	if err != nil {
		return
	}

	return ks.repoManager.KeyringRepository().CreateKeyring(ctx, newKeyring)
}

func (ks *KeyringService) Unlock(
	ctx context.Context, password string,
) (err error) {
	defer func() {
		if err == nil {
			ks.setUnlocked()
		}
	}()

	return ks.repoManager.KeyringRepository().UnlockKeyring(ctx, password)
}

func (ks *KeyringService) Lock(
	ctx context.Context, password string,
) (err error) {
	defer func() {
		if err == nil {
			ks.setLocked()
		}
	}()

	return ks.repoManager.KeyringRepository().LockKeyring(ctx, password)
}

func (ks *KeyringService) ChangePassword(
	ctx context.Context, currentPassword, newPassword string,
) error {
	return ks.repoManager.KeyringRepository().ChangePassword(
		ctx, currentPassword, newPassword,
	)
}

func (ks *KeyringService) GetStatus(_ context.Context) KeyringStatus {
	return KeyringStatus{
		IsInitialized: ks.isInitialized(),
		IsUnlocked:    ks.isUnlocked(),
	}
}

func (ks *KeyringService) GetInfo(ctx context.Context) (*KeyringInfo, error) {
	k, err := ks.repoManager.KeyringRepository().GetKeyring(ctx)
	if err != nil {
		return nil, err
	}
	if k.IsLocked() {
		return &KeyringInfo{
			Network:   k.NetworkName,
			BuildInfo: ks.buildInfo,
		}, nil
	}

	signers, err := ks.ListSigners(ctx)
	if err != nil {
		return nil, err
	}
	return &KeyringInfo{
		Network:   k.NetworkName,
		Signers:   signers,
		BuildInfo: ks.buildInfo,
	}, nil
}

// ImportKey adds the key serialized by the given record, either a WIF private
// key or a base58 extended private key, to the unlocked keyring.
func (ks *KeyringService) ImportKey(
	ctx context.Context, password string, key domain.KeyRecord,
) error {
	net, err := domain.NetworkFromName(ks.network)
	if err != nil {
		return err
	}
	secret, err := key.Parse(net)
	if err != nil {
		return err
	}
	pubkey, err := secret.PublicKey()
	if err != nil {
		return err
	}

	return ks.repoManager.KeyringRepository().ImportKeys(
		ctx, password, signer.KeyMap{pubkey: secret},
	)
}

func (ks *KeyringService) ListSigners(
	ctx context.Context,
) (SignersInfo, error) {
	k, err := ks.repoManager.KeyringRepository().GetKeyring(ctx)
	if err != nil {
		return nil, err
	}
	signersInfo, err := k.ListSigners()
	if err != nil {
		return nil, err
	}

	signers := make(SignersInfo, 0, len(signersInfo))
	for _, info := range signersInfo {
		signers = append(signers, SignerInfo(info))
	}
	return signers, nil
}

// ExportKeys returns the keys of the unlocked keyring in their at-rest form,
// mapped by public identifier. The password is verified upfront since the
// returned records embed secret key material.
func (ks *KeyringService) ExportKeys(
	ctx context.Context, password string,
) (map[string]domain.KeyRecord, error) {
	k, err := ks.repoManager.KeyringRepository().GetKeyring(ctx)
	if err != nil {
		return nil, err
	}
	if !k.IsValidPassword(password) {
		return nil, domain.ErrKeyringInvalidPassword
	}

	return k.ExportKeys()
}

func (ks *KeyringService) RegisterHandlerForKeyringEvent(
	eventType domain.KeyringEventType, handler ports.KeyringEventHandler,
) {
	ks.repoManager.RegisterHandlerForKeyringEvent(eventType, handler)
}

func (ks *KeyringService) setInitialized() {
	ks.lock.Lock()
	defer ks.lock.Unlock()

	ks.initialized = true
}

func (ks *KeyringService) isInitialized() bool {
	ks.lock.RLock()
	defer ks.lock.RUnlock()

	return ks.initialized
}

func (ks *KeyringService) setUnlocked() {
	ks.lock.Lock()
	defer ks.lock.Unlock()

	ks.unlocked = true
}

func (ks *KeyringService) setLocked() {
	ks.lock.Lock()
	defer ks.lock.Unlock()

	ks.unlocked = false
}

func (ks *KeyringService) isUnlocked() bool {
	ks.lock.RLock()
	defer ks.lock.RUnlock()

	return ks.unlocked
}
