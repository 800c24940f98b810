// Package cookies provides the zone-owned cookie collaborators. The engine
// core treats them as opaque: cookies are captured when a load commits and
// attached when a load starts, everything else is the jar's business.
package cookies

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Jar stores and retrieves cookies for requests inside one zone.
type Jar interface {
	SetCookies(u *url.URL, cookies []*http.Cookie)
	Cookies(u *url.URL) []*http.Cookie
	Clear()
}

// Store persists jars across sessions. The in-memory engine default does not
// persist; embedders supply their own.
type Store interface {
	Load(zone string) (Jar, error)
	Flush(zone string, jar Jar) error
}

// MemoryJar is a host-keyed in-memory Jar.
type MemoryJar struct {
	mu      sync.RWMutex
	entries map[string][]*http.Cookie // keyed by host
}

// NewMemoryJar creates an empty jar.
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{entries: make(map[string][]*http.Cookie)}
}

func (j *MemoryJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if u == nil || len(cookies) == 0 {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	existing := j.entries[u.Host]
	for _, c := range cookies {
		existing = upsert(existing, c)
	}
	j.entries[u.Host] = existing
}

func (j *MemoryJar) Cookies(u *url.URL) []*http.Cookie {
	if u == nil {
		return nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	now := time.Now()
	var out []*http.Cookie
	for _, c := range j.entries[u.Host] {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (j *MemoryJar) Clear() {
	j.mu.Lock()
	j.entries = make(map[string][]*http.Cookie)
	j.mu.Unlock()
}

func upsert(cookies []*http.Cookie, c *http.Cookie) []*http.Cookie {
	for i, existing := range cookies {
		if existing.Name == c.Name && existing.Path == c.Path {
			cookies[i] = c
			return cookies
		}
	}
	return append(cookies, c)
}

// NullStore is a Store that never persists anything.
type NullStore struct{}

func (NullStore) Load(string) (Jar, error)  { return NewMemoryJar(), nil }
func (NullStore) Flush(string, Jar) error   { return nil }
