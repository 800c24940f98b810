// Package id provides centralized ID generation for the engine.
//
// Zone and tab identifiers are prefixed ULIDs:
//   - Globally unique for the engine's lifetime, across all zones
//   - Lexicographically sortable by creation time
//   - Prefixed (zone_*, tab_*) so logs stay readable
//
// A TabID is engine-global, not zone-scoped, so a tab can be addressed
// without first resolving its owning zone.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ZoneID identifies a zone (isolation boundary owning tabs and storage).
type ZoneID string

// TabID identifies a tab. Unique across the whole engine, never reused.
type TabID string

const (
	ZonePrefix = "zone"
	TabPrefix  = "tab"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with cryptographic entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewZoneID generates a new zone ID.
func NewZoneID() ZoneID {
	return ZoneID(Default().GenerateWithPrefix(ZonePrefix))
}

// NewTabID generates a new tab ID.
func NewTabID() TabID {
	return TabID(Default().GenerateWithPrefix(TabPrefix))
}

func (id ZoneID) String() string { return string(id) }
func (id TabID) String() string  { return string(id) }

// IsZoneID reports whether s carries the zone prefix and a valid ULID.
func IsZoneID(s string) bool { return isPrefixed(s, ZonePrefix) }

// IsTabID reports whether s carries the tab prefix and a valid ULID.
func IsTabID(s string) bool { return isPrefixed(s, TabPrefix) }

func isPrefixed(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.Parse(rest)
	return err == nil
}

// Timestamp extracts the creation time embedded in a prefixed id.
func Timestamp(s string) (time.Time, error) {
	_, rest, ok := strings.Cut(s, "_")
	if !ok {
		return time.Time{}, fmt.Errorf("id %q has no prefix", s)
	}
	parsed, err := ulid.Parse(rest)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
