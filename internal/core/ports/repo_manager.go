package ports

import (
	"github.com/vulpemventures/lagoon/internal/core/domain"
)

type KeyringEventHandler func(event domain.KeyringEvent)

// RepoManager is the abstraction for any kind of service intended to manage
// domain repositories implementations of the same concrete type.
type RepoManager interface {
	// KeyringRepository returns the keyring repository.
	KeyringRepository() domain.KeyringRepository

	// RegisterHandlerForKeyringEvent registers an handler function, executed
	// whenever the given event type occurs.
	RegisterHandlerForKeyringEvent(
		eventType domain.KeyringEventType, handler KeyringEventHandler,
	)

	// Reset brings all the repos to their initial state by deleting any persisted data.
	Reset()

	// Close closes the connection with all concrete repositories
	// implementations.
	Close()
}
