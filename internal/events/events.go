// Package events defines the notifications the engine emits to the host and
// the stream that carries them.
//
// Event Types (Engine → Host):
//   - navigation_started / navigation_completed / navigation_failed
//   - frame_ready: a composited frame is available for presentation
//   - zone_created / zone_closed, tab_created / tab_closed
//   - storage_changed: a zone-scoped storage area was mutated
//   - backend_changed, warning
//
// Lifecycle and navigation events are never dropped. Frame events are
// coalesced under backpressure: only the most recent undelivered frame per
// tab is retained, and the epochs a consumer observes for a tab are strictly
// increasing with no duplicates.
package events

import (
	"github.com/gosub-io/gosub-engine/internal/shared/id"
)

// Kind discriminates event variants for hosts that switch on a tag.
type Kind string

const (
	KindNavigationStarted   Kind = "navigation_started"
	KindNavigationCompleted Kind = "navigation_completed"
	KindNavigationFailed    Kind = "navigation_failed"
	KindFrameReady          Kind = "frame_ready"
	KindZoneCreated         Kind = "zone_created"
	KindZoneClosed          Kind = "zone_closed"
	KindTabCreated          Kind = "tab_created"
	KindTabClosed           Kind = "tab_closed"
	KindTabTitleChanged     Kind = "tab_title_changed"
	KindStorageChanged      Kind = "storage_changed"
	KindBackendChanged      Kind = "backend_changed"
	KindWarning             Kind = "warning"
)

// Event is implemented by every engine notification.
type Event interface {
	Kind() Kind
}

// NavigationStarted is emitted synchronously with acceptance of a navigate
// call; the load itself proceeds asynchronously.
type NavigationStarted struct {
	TabID id.TabID `json:"tab_id"`
	URL   string   `json:"url"`
}

// NavigationCompleted is emitted when an asynchronous load finishes.
type NavigationCompleted struct {
	TabID id.TabID `json:"tab_id"`
	URL   string   `json:"url"`
}

// NavigationFailed is emitted when an asynchronous load fails. The failure
// is reported only here, never as a delayed call error.
type NavigationFailed struct {
	TabID  id.TabID `json:"tab_id"`
	URL    string   `json:"url"`
	Reason string   `json:"reason"`
}

// FrameReady announces a composited frame. BufferHandle is an opaque
// reference into the render backend; Epoch identifies the frame and is
// monotonically increasing per tab.
type FrameReady struct {
	TabID        id.TabID `json:"tab_id"`
	BufferHandle string   `json:"buffer_handle"`
	Epoch        uint64   `json:"epoch"`
}

// ZoneCreated is emitted when a zone is registered with the engine.
type ZoneCreated struct {
	ZoneID id.ZoneID `json:"zone_id"`
}

// ZoneClosed is emitted after every tab the zone owned has been closed and
// the zone removed from the registry.
type ZoneClosed struct {
	ZoneID id.ZoneID `json:"zone_id"`
}

// TabCreated is emitted when a zone spawns a tab actor.
type TabCreated struct {
	TabID  id.TabID  `json:"tab_id"`
	ZoneID id.ZoneID `json:"zone_id"`
}

// TabClosed is emitted when a tab actor has shut down (or was force-dropped).
type TabClosed struct {
	TabID  id.TabID  `json:"tab_id"`
	ZoneID id.ZoneID `json:"zone_id"`
}

// TabTitleChanged is emitted when a loaded document changes the tab title.
type TabTitleChanged struct {
	TabID id.TabID `json:"tab_id"`
	Title string   `json:"title"`
}

// StorageChanged is emitted when a zone-scoped storage area is mutated.
// Area is "local" or "session".
type StorageChanged struct {
	ZoneID id.ZoneID `json:"zone_id"`
	Area   string    `json:"area"`
	Key    string    `json:"key"`
}

// BackendChanged is emitted when the active render backend is swapped.
type BackendChanged struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Warning carries non-fatal diagnostics, such as a tab that had to be
// force-dropped during close.
type Warning struct {
	Message string `json:"message"`
}

func (NavigationStarted) Kind() Kind   { return KindNavigationStarted }
func (NavigationCompleted) Kind() Kind { return KindNavigationCompleted }
func (NavigationFailed) Kind() Kind    { return KindNavigationFailed }
func (FrameReady) Kind() Kind          { return KindFrameReady }
func (ZoneCreated) Kind() Kind         { return KindZoneCreated }
func (ZoneClosed) Kind() Kind          { return KindZoneClosed }
func (TabCreated) Kind() Kind          { return KindTabCreated }
func (TabClosed) Kind() Kind           { return KindTabClosed }
func (TabTitleChanged) Kind() Kind     { return KindTabTitleChanged }
func (StorageChanged) Kind() Kind      { return KindStorageChanged }
func (BackendChanged) Kind() Kind      { return KindBackendChanged }
func (Warning) Kind() Kind             { return KindWarning }
