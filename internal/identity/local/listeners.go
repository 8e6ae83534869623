package local

import (
	"sort"

	"ashram/internal/identity"
)

type subscription struct {
	provider *Provider
	subID    int
}

func (s *subscription) Unsubscribe() {
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	delete(s.provider.listeners, s.subID)
}

// OnAuthStateChange registers a listener for session lifecycle events.
// Listeners are invoked on a separate goroutine, in registration order, one
// notification at a time.
func (p *Provider) OnAuthStateChange(listener identity.ChangeListener) identity.Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSubID++
	subID := p.nextSubID
	p.listeners[subID] = listener
	return &subscription{provider: p, subID: subID}
}

// notifyListeners fans the event out asynchronously. The session has already
// been persisted (or destroyed) by the time this is called, so listeners
// observe durable state.
func (p *Provider) notifyListeners(event identity.AuthEvent, session *identity.Session) {
	p.mu.RLock()
	ids := make([]int, 0, len(p.listeners))
	for subID := range p.listeners {
		ids = append(ids, subID)
	}
	p.mu.RUnlock()
	sort.Ints(ids)

	go func() {
		for _, subID := range ids {
			p.mu.RLock()
			listener, ok := p.listeners[subID]
			p.mu.RUnlock()
			if !ok {
				continue
			}
			listener(event, session)
		}
	}()
}
