package domain

import (
	"context"

	"github.com/vulpemventures/lagoon/pkg/signer"
)

const (
	KeyringCreated KeyringEventType = iota
	KeyringUnlocked
	KeyringLocked
	KeyringPasswordChanged
	KeyringKeysImported
)

var (
	keyringTypeString = map[KeyringEventType]string{
		KeyringCreated:         "KeyringCreated",
		KeyringUnlocked:        "KeyringUnlocked",
		KeyringLocked:          "KeyringLocked",
		KeyringPasswordChanged: "KeyringPasswordChanged",
		KeyringKeysImported:    "KeyringKeysImported",
	}
)

type KeyringEventType int

func (t KeyringEventType) String() string {
	return keyringTypeString[t]
}

// KeyringEvent holds info about an event occured within the repository.
type KeyringEvent struct {
	EventType  KeyringEventType
	PublicKeys []string
}

// KeyringRepository is the abstraction for any kind of database intended to
// persist a Keyring.
type KeyringRepository interface {
	// CreateKeyring stores a new Keyring if not yet existing.
	// Generates a KeyringCreated event if successfull.
	CreateKeyring(ctx context.Context, keyring *Keyring) error
	// GetKeyring returns the stored keyring, if existing.
	GetKeyring(ctx context.Context) (*Keyring, error)
	// UnlockKeyring attempts to update the status of the Keyring to "unlocked".
	// Generates a KeyringUnlocked event if successfull.
	UnlockKeyring(ctx context.Context, password string) error
	// LockKeyring attempts to update the status of the Keyring to "locked".
	// Generates a KeyringLocked event if successfull.
	LockKeyring(ctx context.Context, password string) error
	// ChangePassword attempts to change the password encrypting the keys of
	// the stored keyring.
	// Generates a KeyringPasswordChanged event if successfull.
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	// UpdateKeyring allows to make multiple changes to the Keyring in a
	// transactional way.
	UpdateKeyring(
		ctx context.Context, updateFn func(k *Keyring) (*Keyring, error),
	) error
	// ImportKeys adds the given keys to the stored keyring.
	// Generates a KeyringKeysImported event if successfull.
	ImportKeys(ctx context.Context, password string, keys signer.KeyMap) error
	// GetEventChannel returns the channel of KeyringEvents.
	GetEventChannel() chan KeyringEvent
}
