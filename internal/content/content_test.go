package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosub-io/gosub-engine/internal/cookies"
	"github.com/gosub-io/gosub-engine/internal/shared/errs"
	"github.com/gosub-io/gosub-engine/internal/shared/id"
	"github.com/gosub-io/gosub-engine/internal/storage"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"https", "https://example.com/page", false},
		{"http", "http://example.com", false},
		{"about blank", "about:blank", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"file scheme", "file:///etc/passwd", true},
		{"javascript scheme", "javascript:alert(1)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errs.ErrInvalidArgument)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, u)
			}
		})
	}
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Hello", ExtractTitle("<html><head><title>Hello</title></head></html>", "fb"))
	assert.Equal(t, "fb", ExtractTitle("<html><head></head><body></body></html>", "fb"))
	assert.Equal(t, "trimmed", ExtractTitle("<title>\n  trimmed \t</title>", "fb"))
}

func TestBlankPage(t *testing.T) {
	p := Blank()
	assert.Equal(t, "about:blank", p.URL())
	assert.Equal(t, "about:blank", p.Title())
	assert.Empty(t, p.HTML())
}

func TestAboutLoader(t *testing.T) {
	u, err := url.Parse("about:blank")
	require.NoError(t, err)

	p, err := AboutLoader{}.Load(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "about:blank", p.URL())

	u, err = url.Parse("about:nonsense")
	require.NoError(t, err)
	_, err = AboutLoader{}.Load(context.Background(), u)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestHTTPLoaderFetchesAndTitles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><head><title>Test Page</title></head><body>hi</body></html>"))
	}))
	defer srv.Close()

	loader := NewHTTPLoader(cookies.NewMemoryJar())
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	p, err := loader.Load(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "Test Page", p.Title())
	assert.Equal(t, http.StatusOK, p.Status())
	assert.Contains(t, p.ContentType(), "text/html")
	assert.Contains(t, p.HTML(), "hi")
}

func TestHTTPLoaderCapturesCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("sid"); err != nil {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
		}
		w.Write([]byte("<title>ok</title>"))
	}))
	defer srv.Close()

	jar := cookies.NewMemoryJar()
	loader := NewHTTPLoader(jar)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), u)
	require.NoError(t, err)

	got := jar.Cookies(u)
	require.Len(t, got, 1)
	assert.Equal(t, "sid", got[0].Name)
	assert.Equal(t, "abc", got[0].Value)
}

func TestHTTPLoaderRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	loader := NewHTTPLoader(nil)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), u)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrBackend)
}

func TestSchemeLoaderDispatch(t *testing.T) {
	loader := NewLoader(cookies.NewMemoryJar())

	u, err := url.Parse("about:blank")
	require.NoError(t, err)
	p, err := loader.Load(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "about:blank", p.URL())

	u, err = url.Parse("ftp://example.com")
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), u)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestBrowsingContextCommit(t *testing.T) {
	bc := NewBrowsingContext(NewLoader(nil), nil, nil)
	assert.Equal(t, "about:blank", bc.Page().URL())

	u, err := url.Parse("https://example.com")
	require.NoError(t, err)
	page := NewPage(u, "<title>Example</title>", 200, "text/html")
	bc.Commit(page)
	assert.Equal(t, "Example", bc.Page().Title())

	bc.Commit(nil)
	assert.Equal(t, "Example", bc.Page().Title())
}

type testInput string

func (i testInput) Kind() string { return string(i) }

func TestBrowsingContextStagesInput(t *testing.T) {
	bc := NewBrowsingContext(NewLoader(nil), nil, nil)
	assert.Equal(t, 0, bc.PendingInputs())

	bc.AcceptInput(testInput("pointer_move"))
	bc.AcceptInput(testInput("key"))
	assert.Equal(t, 2, bc.PendingInputs())

	staged := bc.DrainInputs()
	require.Len(t, staged, 2)
	assert.Equal(t, "pointer_move", staged[0].Kind())
	assert.Equal(t, "key", staged[1].Kind())
	assert.Equal(t, 0, bc.PendingInputs())
}

func TestBrowsingContextInputQueueBounded(t *testing.T) {
	bc := NewBrowsingContext(NewLoader(nil), nil, nil)

	bc.AcceptInput(testInput("first"))
	for i := 0; i < maxStagedInputs; i++ {
		bc.AcceptInput(testInput("later"))
	}

	staged := bc.DrainInputs()
	require.Len(t, staged, maxStagedInputs)
	assert.Equal(t, "later", staged[0].Kind(), "oldest input should have been dropped")
}

func TestBrowsingContextBindStorage(t *testing.T) {
	bc := NewBrowsingContext(NewLoader(nil), nil, nil)
	assert.Nil(t, bc.Local())

	svc := storage.NewMemoryService()
	zone, tab := id.NewZoneID(), id.NewTabID()
	local, err := svc.LocalFor(zone, tab, storage.PartitionNone, "https://example.com")
	require.NoError(t, err)
	session := svc.SessionFor(zone, tab, storage.PartitionNone, "https://example.com")

	bc.BindStorage(local, session)
	require.NoError(t, bc.Local().Set("k", "v"))
	v, ok := bc.Local().Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
