// Package storage provides the zone-scoped key/value storage collaborators:
// local areas shared per (zone, partition, origin), session areas isolated
// per (zone, tab, partition, origin), and a change-notification service the
// zone uses to dispatch storage events between its tabs.
//
// Areas are owned by the Zone actor. Tabs reach them only through the
// Service, never by holding store internals, so isolation between zones
// holds by construction.
package storage

import (
	"net/url"

	"github.com/gosub-io/gosub-engine/internal/shared/id"
)

// Area is an object-safe key/value storage area (the DOM's Storage).
type Area interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
	Len() int
	Keys() []string
}

// LocalStore provides local areas, shared per (zone, partition, origin).
type LocalStore interface {
	Area(zone id.ZoneID, part PartitionKey, origin Origin) (Area, error)
}

// SessionStore provides session areas, isolated per (zone, tab, partition,
// origin). DropTab releases everything a closed tab accumulated.
type SessionStore interface {
	Area(zone id.ZoneID, tab id.TabID, part PartitionKey, origin Origin) Area
	DropTab(zone id.ZoneID, tab id.TabID)
}

// Origin is (scheme, host, port) as a normalized string.
type Origin string

// OriginOf computes the origin of a URL.
func OriginOf(u *url.URL) Origin {
	o := url.URL{Scheme: u.Scheme, Host: u.Host}
	return Origin(o.String())
}

// PartitionKey partitions storage by top-level browsing context.
type PartitionKey string

// PartitionNone is the key used when partitioning is disabled.
const PartitionNone PartitionKey = ""

// PartitionPolicy selects how partition keys are derived.
type PartitionPolicy int

const (
	// PolicyNone disables state partitioning.
	PolicyNone PartitionPolicy = iota
	// PolicyTopLevelOrigin partitions state by the top-level origin.
	PolicyTopLevelOrigin
)

// ComputePartitionKey derives the partition key for a URL under a policy.
func ComputePartitionKey(u *url.URL, policy PartitionPolicy) PartitionKey {
	switch policy {
	case PolicyTopLevelOrigin:
		return PartitionKey(OriginOf(u))
	default:
		return PartitionNone
	}
}

// Scope distinguishes local from session storage in change events.
type Scope string

const (
	ScopeLocal   Scope = "local"
	ScopeSession Scope = "session"
)

// ChangeEvent describes a single storage mutation.
type ChangeEvent struct {
	Zone      id.ZoneID
	Partition PartitionKey
	Origin    Origin
	Key       string
	OldValue  *string
	NewValue  *string
	// SourceTab is the tab whose document performed the mutation, when known.
	// Dispatch excludes it so a document never observes its own change.
	SourceTab *id.TabID
	Scope     Scope
}
