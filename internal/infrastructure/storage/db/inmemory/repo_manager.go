package inmemory

import (
	"sync"
	"time"

	"github.com/vulpemventures/lagoon/internal/core/domain"
	"github.com/vulpemventures/lagoon/internal/core/ports"
)

type repoManager struct {
	keyringRepository *keyringRepository

	keyringEventHandlers *handlerMap
}

func NewRepoManager() ports.RepoManager {
	rm := &repoManager{
		keyringRepository:    newKeyringRepository(),
		keyringEventHandlers: newHandlerMap(),
	}

	go rm.listenToKeyringEvents()

	return rm
}

func (rm *repoManager) KeyringRepository() domain.KeyringRepository {
	return rm.keyringRepository
}

func (rm *repoManager) RegisterHandlerForKeyringEvent(
	eventType domain.KeyringEventType, handler ports.KeyringEventHandler,
) {
	rm.keyringEventHandlers.set(int(eventType), handler)
}

func (rm *repoManager) listenToKeyringEvents() {
	for event := range rm.keyringRepository.chEvents {
		time.Sleep(time.Millisecond)

		if handlers, ok := rm.keyringEventHandlers.get(int(event.EventType)); ok {
			for i := range handlers {
				handler := handlers[i]
				go handler.(ports.KeyringEventHandler)(event)
			}
		}
	}
}

func (rm *repoManager) Reset() {
	rm.keyringRepository.reset()
}

func (rm *repoManager) Close() {
	rm.keyringRepository.close()
}

// handlerMap is a util type to prevent race conditions when registering
// or retrieving handlers for events.
type handlerMap struct {
	handlersByEventType map[int][]interface{}
	lock                *sync.RWMutex
}

func newHandlerMap() *handlerMap {
	return &handlerMap{
		handlersByEventType: make(map[int][]interface{}),
		lock:                &sync.RWMutex{},
	}
}

func (m *handlerMap) set(key int, val interface{}) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.handlersByEventType[key] = append(m.handlersByEventType[key], val)
}

func (m *handlerMap) get(key int) ([]interface{}, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	val, ok := m.handlersByEventType[key]
	return val, ok
}
