package engine

import (
	"hash/fnv"

	"github.com/gosub-io/gosub-engine/internal/content"
	"github.com/gosub-io/gosub-engine/internal/cookies"
	"github.com/gosub-io/gosub-engine/internal/render"
	"github.com/gosub-io/gosub-engine/internal/shared/id"
	"github.com/gosub-io/gosub-engine/internal/storage"
)

// ZoneConfig describes a zone at creation. All fields are optional; the
// zero value yields an untitled zone with a color derived from its id and
// no tab limit.
type ZoneConfig struct {
	Title       string
	Icon        string
	Description string

	// Color is a CSS hex color shown by hosts in zone switchers. When
	// empty it is derived deterministically from the zone id.
	Color string

	// MaxTabs caps the number of tabs; zero means unlimited.
	MaxTabs int

	PartitionPolicy storage.PartitionPolicy
}

// ZoneServices bundles the zone-scoped collaborators. Zero-value fields
// are filled with in-memory defaults at zone creation.
type ZoneServices struct {
	Storage *storage.Service
	Jar     cookies.Jar
	Store   cookies.Store
	Loader  content.Loader
}

func (s ZoneServices) withDefaults(zone id.ZoneID) ZoneServices {
	if s.Storage == nil {
		s.Storage = storage.NewMemoryService()
	}
	if s.Store == nil {
		s.Store = cookies.NullStore{}
	}
	if s.Jar == nil {
		// The store owns persistence; the null store hands back a fresh
		// in-memory jar.
		jar, err := s.Store.Load(string(zone))
		if err != nil || jar == nil {
			jar = cookies.NewMemoryJar()
		}
		s.Jar = jar
	}
	if s.Loader == nil {
		s.Loader = content.NewLoader(s.Jar)
	}
	return s
}

// ZoneInfo is the host-visible snapshot of a zone's presentation state.
type ZoneInfo struct {
	ID          id.ZoneID `json:"id"`
	Title       string    `json:"title"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	TabCount    int       `json:"tab_count"`
}

// TabConfig describes a tab at creation.
type TabConfig struct {
	// InitialURL, when set, starts a navigation as soon as the tab
	// actor is running.
	InitialURL string

	Viewport render.Viewport

	// FPS overrides the engine's default repaint cadence for this tab.
	FPS uint32
}

// zonePalette are the colors assigned to zones that do not pick their own.
var zonePalette = []string{
	"#4f46e5", "#0891b2", "#16a34a", "#ca8a04",
	"#dc2626", "#9333ea", "#c2410c", "#0d9488",
}

// colorForZone derives a stable palette color from the zone id.
func colorForZone(zoneID id.ZoneID) string {
	h := fnv.New32a()
	h.Write([]byte(zoneID))
	return zonePalette[h.Sum32()%uint32(len(zonePalette))]
}
