package dbbadger

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vulpemventures/lagoon/internal/core/domain"
	"github.com/vulpemventures/lagoon/pkg/signer"
)

const (
	//since there can be only 1 keyring in database,
	//key is hardcoded for easier retrival
	keyringKey = "keyring"
)

type keyringRepository struct {
	store            *badgerhold.Store
	chEvents         chan domain.KeyringEvent
	externalChEvents chan domain.KeyringEvent
	lock             *sync.Mutex

	log func(format string, a ...interface{})
}

func NewKeyringRepository(store *badgerhold.Store) domain.KeyringRepository {
	return newKeyringRepository(store)
}

func newKeyringRepository(store *badgerhold.Store) *keyringRepository {
	chEvents := make(chan domain.KeyringEvent, 10)
	externalChEvents := make(chan domain.KeyringEvent, 10)
	lock := &sync.Mutex{}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("keyring repository: %s", format)
		log.Debugf(format, a...)
	}
	return &keyringRepository{store, chEvents, externalChEvents, lock, logFn}
}

func (r *keyringRepository) CreateKeyring(
	ctx context.Context, keyring *domain.Keyring,
) error {
	if err := r.insertKeyring(ctx, keyring); err != nil {
		return err
	}

	go r.publishEvent(domain.KeyringEvent{
		EventType: domain.KeyringCreated,
	})

	return nil
}

func (r *keyringRepository) GetKeyring(
	ctx context.Context,
) (*domain.Keyring, error) {
	return r.getKeyring(ctx)
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
	ctx context.Context, updateFn func(k *domain.Keyring) (*domain.Keyring, error),
) error {
	keyring, err := r.getKeyring(ctx)
	if err != nil {
		return err
	}

	updatedKeyring, err := updateFn(keyring)
	if err != nil {
		return err
	}

	return r.updateKeyring(ctx, updatedKeyring)
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

	pubkeys, err := publicKeysOf(keys)
	if err != nil {
		return err
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

func (r *keyringRepository) insertKeyring(
	ctx context.Context, keyring *domain.Keyring,
) error {
	var err error

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxInsert(tx, keyringKey, *keyring)
	} else {
		err = r.store.Insert(keyringKey, *keyring)
	}
	if err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("keyring is already initialized")
		}
		return err
	}

	return nil
}

func (r *keyringRepository) getKeyring(
	ctx context.Context,
) (*domain.Keyring, error) {
	var err error
	var keyring domain.Keyring

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxGet(tx, keyringKey, &keyring)
	} else {
		err = r.store.Get(keyringKey, &keyring)
	}

	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("keyring is not initialized")
		}
		return nil, err
	}

	return &keyring, nil
}

func (r *keyringRepository) updateKeyring(
	ctx context.Context, keyring *domain.Keyring,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.store.TxUpdate(tx, keyringKey, *keyring)
	}
	return r.store.Update(keyringKey, *keyring)
}

func (r *keyringRepository) publishEvent(event domain.KeyringEvent) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.log("publish event %s", event.EventType)
	r.chEvents <- event

	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *keyringRepository) reset() {
	r.store.Badger().DropAll()
}

func (r *keyringRepository) close() {
	r.store.Close()
	close(r.chEvents)
	close(r.externalChEvents)
}

func publicKeysOf(keys signer.KeyMap) ([]string, error) {
	pubkeys := make([]string, 0, len(keys))
	for _, secret := range keys {
		pubkey, err := secret.PublicKey()
		if err != nil {
			return nil, err
		}
		pubkeys = append(pubkeys, pubkey)
	}
	return pubkeys, nil
}
