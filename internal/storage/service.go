package storage

import (
	"sync"

	"github.com/gosub-io/gosub-engine/internal/shared/id"
)

// subscriptionBuffer bounds each subscriber's pending change events. A
// subscriber that stops draining loses the oldest events rather than
// blocking producers.
const subscriptionBuffer = 256

// Subscription receives storage change notifications.
type Subscription <-chan ChangeEvent

// changeBus fans out ChangeEvents to subscribers without blocking writers.
type changeBus struct {
	mu   sync.Mutex
	subs []chan ChangeEvent
}

func (b *changeBus) subscribe() Subscription {
	ch := make(chan ChangeEvent, subscriptionBuffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

func (b *changeBus) unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if Subscription(ch) == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *changeBus) publish(ev ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event to make room for the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Service is the storage access point handed to zones. It decorates the
// underlying areas so every mutation publishes a ChangeEvent the zone can
// dispatch to its other tabs.
type Service struct {
	local   LocalStore
	session SessionStore
	bus     *changeBus
}

// NewService creates a storage service over the given stores.
func NewService(local LocalStore, session SessionStore) *Service {
	return &Service{local: local, session: session, bus: &changeBus{}}
}

// NewMemoryService creates a storage service over in-memory stores.
func NewMemoryService() *Service {
	return NewService(NewMemoryLocalStore(), NewMemorySessionStore())
}

// Subscribe registers for change notifications.
func (s *Service) Subscribe() Subscription {
	return s.bus.subscribe()
}

// Unsubscribe removes a subscription. Events still pending on its channel
// are discarded; the channel itself stays open.
func (s *Service) Unsubscribe(sub Subscription) {
	s.bus.unsubscribe(sub)
}

// LocalFor returns a notifying local area for (zone, partition, origin).
// sourceTab attributes mutations made through this handle.
func (s *Service) LocalFor(zone id.ZoneID, tab id.TabID, part PartitionKey, origin Origin) (Area, error) {
	inner, err := s.local.Area(zone, part, origin)
	if err != nil {
		return nil, err
	}
	return s.wrap(inner, zone, &tab, part, origin, ScopeLocal), nil
}

// SessionFor returns a notifying session area for (zone, tab, partition, origin).
func (s *Service) SessionFor(zone id.ZoneID, tab id.TabID, part PartitionKey, origin Origin) Area {
	inner := s.session.Area(zone, tab, part, origin)
	return s.wrap(inner, zone, &tab, part, origin, ScopeSession)
}

// DropTab releases the session areas of a closed tab.
func (s *Service) DropTab(zone id.ZoneID, tab id.TabID) {
	s.session.DropTab(zone, tab)
}

func (s *Service) wrap(inner Area, zone id.ZoneID, sourceTab *id.TabID, part PartitionKey, origin Origin, scope Scope) Area {
	return &notifyingArea{
		inner:     inner,
		zone:      zone,
		sourceTab: sourceTab,
		partition: part,
		origin:    origin,
		scope:     scope,
		bus:       s.bus,
	}
}

// notifyingArea publishes a ChangeEvent on every mutation.
type notifyingArea struct {
	inner     Area
	zone      id.ZoneID
	sourceTab *id.TabID
	partition PartitionKey
	origin    Origin
	scope     Scope
	bus       *changeBus
}

func (a *notifyingArea) Get(key string) (string, bool) { return a.inner.Get(key) }
func (a *notifyingArea) Len() int                      { return a.inner.Len() }
func (a *notifyingArea) Keys() []string                { return a.inner.Keys() }

func (a *notifyingArea) Set(key, value string) error {
	old := a.lookup(key)
	if err := a.inner.Set(key, value); err != nil {
		return err
	}
	a.publish(key, old, &value)
	return nil
}

func (a *notifyingArea) Remove(key string) error {
	old := a.lookup(key)
	if err := a.inner.Remove(key); err != nil {
		return err
	}
	a.publish(key, old, nil)
	return nil
}

func (a *notifyingArea) Clear() error {
	if err := a.inner.Clear(); err != nil {
		return err
	}
	a.publish("", nil, nil)
	return nil
}

func (a *notifyingArea) lookup(key string) *string {
	if v, ok := a.inner.Get(key); ok {
		return &v
	}
	return nil
}

func (a *notifyingArea) publish(key string, oldValue, newValue *string) {
	a.bus.publish(ChangeEvent{
		Zone:      a.zone,
		Partition: a.partition,
		Origin:    a.origin,
		Key:       key,
		OldValue:  oldValue,
		NewValue:  newValue,
		SourceTab: a.sourceTab,
		Scope:     a.scope,
	})
}
