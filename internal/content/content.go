// Package content loads and stages web documents for tabs.
//
// A BrowsingContext is owned by exactly one tab goroutine: it holds the
// committed page, the staged input queue, and the storage areas the zone
// bound to the tab. Loads run off-goroutine; the result is committed back
// on the owning goroutine. Only the input queue is locked, because hosts
// may drain it from outside the owning goroutine.
package content

import (
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/gosub-io/gosub-engine/internal/render"
	"github.com/gosub-io/gosub-engine/internal/shared/errs"
	"github.com/gosub-io/gosub-engine/internal/storage"
)

// Page is a loaded document ready for rendering.
type Page struct {
	url         *url.URL
	html        string
	title       string
	status      int
	contentType string
}

// URL implements render.Document.
func (p *Page) URL() string { return p.url.String() }

// Location returns the parsed document URL.
func (p *Page) Location() *url.URL { return p.url }

// HTML implements render.Document.
func (p *Page) HTML() string { return p.html }

func (p *Page) Title() string       { return p.title }
func (p *Page) Status() int         { return p.status }
func (p *Page) ContentType() string { return p.contentType }

var _ render.Document = (*Page)(nil)

// Blank returns the about:blank page.
func Blank() *Page {
	u, _ := url.Parse("about:blank")
	return &Page{url: u, title: "about:blank", contentType: "text/html"}
}

// NewPage builds a page from raw HTML, extracting the title from the
// document. The host is used as the title fallback.
func NewPage(u *url.URL, html string, status int, contentType string) *Page {
	return &Page{
		url:         u,
		html:        html,
		title:       ExtractTitle(html, u.Host),
		status:      status,
		contentType: contentType,
	}
}

// ExtractTitle pulls the first <title> text out of an HTML document.
func ExtractTitle(html, fallback string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fallback
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return fallback
	}
	return title
}

// Input is one user interaction staged for the committed document.
type Input interface {
	Kind() string
}

// maxStagedInputs bounds the interaction queue; the oldest entries fall
// off first when a document stops draining.
const maxStagedInputs = 64

// BrowsingContext is the per-tab view of the content layer.
type BrowsingContext struct {
	loader  Loader
	page    *Page
	local   storage.Area
	session storage.Area

	inputMu sync.Mutex
	inputs  []Input
}

// NewBrowsingContext starts a context on about:blank.
func NewBrowsingContext(loader Loader, local, session storage.Area) *BrowsingContext {
	return &BrowsingContext{
		loader:  loader,
		page:    Blank(),
		local:   local,
		session: session,
	}
}

// Loader returns the loader used for navigations.
func (c *BrowsingContext) Loader() Loader { return c.loader }

// Page returns the committed page.
func (c *BrowsingContext) Page() *Page { return c.page }

// Commit swaps the committed page. The previous document is gone; there
// is no history stack at this layer.
func (c *BrowsingContext) Commit(p *Page) {
	if p != nil {
		c.page = p
	}
}

// Local returns the localStorage area bound to this context.
func (c *BrowsingContext) Local() storage.Area { return c.local }

// Session returns the sessionStorage area bound to this context.
func (c *BrowsingContext) Session() storage.Area { return c.session }

// BindStorage rebinds the storage areas, typically after a commit moved
// the document to a different origin or partition.
func (c *BrowsingContext) BindStorage(local, session storage.Area) {
	c.local = local
	c.session = session
}

// AcceptInput stages an interaction for the committed document.
func (c *BrowsingContext) AcceptInput(in Input) {
	c.inputMu.Lock()
	c.inputs = append(c.inputs, in)
	if len(c.inputs) > maxStagedInputs {
		c.inputs = c.inputs[len(c.inputs)-maxStagedInputs:]
	}
	c.inputMu.Unlock()
}

// DrainInputs returns and clears the staged interactions, oldest first.
func (c *BrowsingContext) DrainInputs() []Input {
	c.inputMu.Lock()
	staged := c.inputs
	c.inputs = nil
	c.inputMu.Unlock()
	return staged
}

// PendingInputs reports the number of staged interactions.
func (c *BrowsingContext) PendingInputs() int {
	c.inputMu.Lock()
	defer c.inputMu.Unlock()
	return len(c.inputs)
}

// ParseURL validates a navigation target. Only http, https and about
// schemes are accepted.
func ParseURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errs.InvalidArgument("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.InvalidArgument("malformed url: " + err.Error())
	}
	switch u.Scheme {
	case "http", "https", "about":
		return u, nil
	default:
		return nil, errs.InvalidArgument("unsupported scheme: " + u.Scheme)
	}
}
