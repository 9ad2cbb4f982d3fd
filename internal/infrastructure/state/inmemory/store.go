// Package inmemory holds the wallet state in memory.
package inmemory

import (
	"sync"

	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type store struct {
	mutex       *sync.RWMutex
	state       domain.WalletState
	subscribers map[int]chan struct{}
	nextID      int
}

// NewStateStore returns an empty wallet state store.
func NewStateStore() ports.StateStore {
	return &store{
		mutex:       &sync.RWMutex{},
		subscribers: make(map[int]chan struct{}),
	}
}

func (s *store) Dispatch(action domain.Action) {
	s.DispatchBatch([]domain.Action{action})
}

// DispatchBatch applies the actions in order to the current snapshot and
// publishes the result as a single new version.
func (s *store) DispatchBatch(actions []domain.Action) {
	if len(actions) <= 0 {
		return
	}

	s.mutex.Lock()
	next := s.state
	for _, action := range actions {
		log.Tracef("state: applying %s", action.Type())
		next = action.Apply(next)
	}
	next.Version = s.state.Version + 1
	s.state = next
	subscribers := make([]chan struct{}, 0, len(s.subscribers))
	for _, ch := range s.subscribers {
		subscribers = append(subscribers, ch)
	}
	s.mutex.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *store) GetState() domain.WalletState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

// Subscribe returns a channel signaled after every transition, and the
// function to release it.
func (s *store) Subscribe() (<-chan struct{}, func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subscribers[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mutex.Lock()
			delete(s.subscribers, id)
			s.mutex.Unlock()
		})
	}
	return ch, unsubscribe
}
