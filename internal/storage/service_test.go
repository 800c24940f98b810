package storage

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosub-io/gosub-engine/internal/shared/id"
)

func mustOrigin(t *testing.T, raw string) Origin {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return OriginOf(u)
}

func recvChange(t *testing.T, sub Subscription) ChangeEvent {
	t.Helper()
	select {
	case ev := <-sub:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for storage change event")
		return ChangeEvent{}
	}
}

func TestAreaBasicContract(t *testing.T) {
	store := NewMemorySessionStore()
	area := store.Area(id.NewZoneID(), id.NewTabID(), PartitionNone, "https://example.com")

	assert.Equal(t, 0, area.Len())
	_, ok := area.Get("missing")
	assert.False(t, ok)

	require.NoError(t, area.Set("a", "1"))
	require.NoError(t, area.Set("b", "2"))
	assert.Equal(t, 2, area.Len())

	v, ok := area.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	// overwrite keeps Len
	require.NoError(t, area.Set("a", "ONE"))
	assert.Equal(t, 2, area.Len())

	require.NoError(t, area.Remove("b"))
	assert.Equal(t, 1, area.Len())

	require.NoError(t, area.Clear())
	assert.Equal(t, 0, area.Len())
}

func TestLocalAreasSharedWithinZone(t *testing.T) {
	store := NewMemoryLocalStore()
	zone := id.NewZoneID()
	origin := Origin("https://example.com")

	a1, err := store.Area(zone, PartitionNone, origin)
	require.NoError(t, err)
	a2, err := store.Area(zone, PartitionNone, origin)
	require.NoError(t, err)

	require.NoError(t, a1.Set("k", "v"))
	v, ok := a2.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestLocalAreasIsolatedAcrossZones(t *testing.T) {
	store := NewMemoryLocalStore()
	origin := Origin("https://example.com")

	a1, err := store.Area(id.NewZoneID(), PartitionNone, origin)
	require.NoError(t, err)
	a2, err := store.Area(id.NewZoneID(), PartitionNone, origin)
	require.NoError(t, err)

	require.NoError(t, a1.Set("k", "v"))
	_, ok := a2.Get("k")
	assert.False(t, ok, "zones must not share local storage")
}

func TestSessionStoreDropTab(t *testing.T) {
	store := NewMemorySessionStore()
	zone := id.NewZoneID()
	tab := id.NewTabID()
	origin := Origin("https://example.com")

	area := store.Area(zone, tab, PartitionNone, origin)
	require.NoError(t, area.Set("k", "v"))

	store.DropTab(zone, tab)

	fresh := store.Area(zone, tab, PartitionNone, origin)
	_, ok := fresh.Get("k")
	assert.False(t, ok, "session storage must be released with the tab")
}

func TestServicePublishesChangeEvents(t *testing.T) {
	svc := NewMemoryService()
	zone := id.NewZoneID()
	tab := id.NewTabID()
	origin := mustOrigin(t, "https://example.com/page")

	sub := svc.Subscribe()

	area, err := svc.LocalFor(zone, tab, PartitionNone, origin)
	require.NoError(t, err)
	require.NoError(t, area.Set("greeting", "hello"))

	ev := recvChange(t, sub)
	assert.Equal(t, zone, ev.Zone)
	assert.Equal(t, ScopeLocal, ev.Scope)
	assert.Equal(t, "greeting", ev.Key)
	assert.Nil(t, ev.OldValue)
	require.NotNil(t, ev.NewValue)
	assert.Equal(t, "hello", *ev.NewValue)
	require.NotNil(t, ev.SourceTab)
	assert.Equal(t, tab, *ev.SourceTab)

	require.NoError(t, area.Remove("greeting"))
	ev = recvChange(t, sub)
	require.NotNil(t, ev.OldValue)
	assert.Equal(t, "hello", *ev.OldValue)
	assert.Nil(t, ev.NewValue)
}

func TestServiceSlowSubscriberNeverBlocksWriters(t *testing.T) {
	svc := NewMemoryService()
	zone := id.NewZoneID()
	tab := id.NewTabID()

	_ = svc.Subscribe() // never drained

	area := svc.SessionFor(zone, tab, PartitionNone, "https://example.com")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriptionBuffer*4; i++ {
			_ = area.Set("k", "v")
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("storage writer blocked on a slow subscriber")
	}
}

func TestComputePartitionKey(t *testing.T) {
	u, err := url.Parse("https://sub.example.com:8443/path?q=1#f")
	require.NoError(t, err)

	assert.Equal(t, PartitionNone, ComputePartitionKey(u, PolicyNone))
	assert.Equal(t, PartitionKey("https://sub.example.com:8443"), ComputePartitionKey(u, PolicyTopLevelOrigin))
}

func TestOriginOfStripsPathAndQuery(t *testing.T) {
	u, err := url.Parse("https://example.com/some/path?x=1")
	require.NoError(t, err)
	assert.Equal(t, Origin("https://example.com"), OriginOf(u))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	svc := NewMemoryService()
	zone := id.NewZoneID()
	tab := id.NewTabID()

	kept := svc.Subscribe()
	dropped := svc.Subscribe()
	svc.Unsubscribe(dropped)

	area := svc.SessionFor(zone, tab, PartitionNone, "https://example.com")
	require.NoError(t, area.Set("k", "v"))

	ev := recvChange(t, kept)
	assert.Equal(t, "k", ev.Key)
	assert.Empty(t, dropped, "removed subscriber still received an event")
}
