package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vulpemventures/lagoon/internal/core/domain"
	"github.com/vulpemventures/lagoon/pkg/signer"
)

var (
	ErrKeyringAlreadyExisting = fmt.Errorf("keyring already existing")
)

type keyringInmemoryStore struct {
	keyring *domain.Keyring
	lock    *sync.RWMutex
}

type keyringRepository struct {
	store            *keyringInmemoryStore
	chEvents         chan domain.KeyringEvent
	externalChEvents chan domain.KeyringEvent
	chLock           *sync.Mutex
}

func NewKeyringRepository() domain.KeyringRepository {
	return newKeyringRepository()
}

func newKeyringRepository() *keyringRepository {
	return &keyringRepository{
		store: &keyringInmemoryStore{
			lock: &sync.RWMutex{},
		},
		chEvents:         make(chan domain.KeyringEvent),
		externalChEvents: make(chan domain.KeyringEvent),
		chLock:           &sync.Mutex{},
	}
}

func (r *keyringRepository) CreateKeyring(
	ctx context.Context, keyring *domain.Keyring,
) error {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	if r.store.keyring != nil {
		return ErrKeyringAlreadyExisting
	}

	r.store.keyring = keyring

	go r.publishEvent(domain.KeyringEvent{
		EventType: domain.KeyringCreated,
	})

	return nil
}

func (r *keyringRepository) GetKeyring(
	ctx context.Context,
) (*domain.Keyring, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	if r.store.keyring == nil {
		return nil, fmt.Errorf("keyring is not initialized")
	}
	return r.store.keyring, nil
}

func (r *keyringRepository) UnlockKeyring(
	ctx context.Context, password string,
) error {
	if err := r.UpdateKeyring(
		ctx, func(k *domain.Keyring) (*domain.Keyring, error) {
			if err := k.Unlock(password); err != nil {
				return nil, err
			}
			return k, nil
		},
	); err != nil {
		return err
	}

	go r.publishEvent(domain.KeyringEvent{
		EventType: domain.KeyringUnlocked,
	})

	return nil
}

func (r *keyringRepository) LockKeyring(
	ctx context.Context, password string,
) error {
	if err := r.UpdateKeyring(
		ctx, func(k *domain.Keyring) (*domain.Keyring, error) {
			if err := k.Lock(password); err != nil {
				return nil, err
			}
			return k, nil
		},
	); err != nil {
		return err
	}

	go r.publishEvent(domain.KeyringEvent{
		EventType: domain.KeyringLocked,
	})

	return nil
}

func (r *keyringRepository) ChangePassword(
	ctx context.Context, currentPassword, newPassword string,
) error {
	if err := r.UpdateKeyring(
		ctx, func(k *domain.Keyring) (*domain.Keyring, error) {
			if err := k.ChangePassword(currentPassword, newPassword); err != nil {
				return nil, err
			}
			return k, nil
		},
	); err != nil {
		return err
	}

	go r.publishEvent(domain.KeyringEvent{
		EventType: domain.KeyringPasswordChanged,
	})

	return nil
}

func (r *keyringRepository) UpdateKeyring(
	ctx context.Context, updateFn func(*domain.Keyring) (*domain.Keyring, error),
) error {
	keyring, err := r.GetKeyring(ctx)
	if err != nil {
		return err
	}

	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	updatedKeyring, err := updateFn(keyring)
	if err != nil {
		return err
	}

	r.store.keyring = updatedKeyring
	return nil
}

func (r *keyringRepository) ImportKeys(
	ctx context.Context, password string, keys signer.KeyMap,
) error {
	if err := r.UpdateKeyring(
		ctx, func(k *domain.Keyring) (*domain.Keyring, error) {
			if err := k.ImportKeys(password, keys); err != nil {
				return nil, err
			}
			return k, nil
		},
	); err != nil {
		return err
	}

	pubkeys := make([]string, 0, len(keys))
	for _, secret := range keys {
		pubkey, err := secret.PublicKey()
		if err != nil {
			return err
		}
		pubkeys = append(pubkeys, pubkey)
	}
	go r.publishEvent(domain.KeyringEvent{
		EventType:  domain.KeyringKeysImported,
		PublicKeys: pubkeys,
	})

	return nil
}

func (r *keyringRepository) GetEventChannel() chan domain.KeyringEvent {
	return r.externalChEvents
}

func (r *keyringRepository) publishEvent(event domain.KeyringEvent) {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	r.chEvents <- event
	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *keyringRepository) reset() {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	r.store.keyring = nil
}

func (r *keyringRepository) close() {
	close(r.chEvents)
	close(r.externalChEvents)
}
