package content

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gosub-io/gosub-engine/internal/cookies"
	"github.com/gosub-io/gosub-engine/internal/shared/errs"
)

// Loader fetches a document for a navigation.
type Loader interface {
	Load(ctx context.Context, u *url.URL) (*Page, error)
}

const defaultTimeout = 30 * time.Second

// HTTPLoader fetches pages over http/https, reading and writing the
// zone's cookie jar.
type HTTPLoader struct {
	client *resty.Client
	jar    cookies.Jar
}

// NewHTTPLoader creates a loader backed by the given cookie jar.
func NewHTTPLoader(jar cookies.Jar) *HTTPLoader {
	client := resty.New()
	client.
		SetTimeout(defaultTimeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("User-Agent", "gosub/0.1").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return &HTTPLoader{client: client, jar: jar}
}

// Load implements Loader.
func (l *HTTPLoader) Load(ctx context.Context, u *url.URL) (*Page, error) {
	req := l.client.R().SetContext(ctx)

	if l.jar != nil {
		for _, c := range l.jar.Cookies(u) {
			req.SetCookie(c)
		}
	}

	resp, err := req.Get(u.String())
	if err != nil {
		return nil, errs.Backend(fmt.Errorf("fetch %s: %w", u, err))
	}

	status := resp.StatusCode()
	if status < 200 || status >= 400 {
		return nil, errs.Backend(fmt.Errorf("fetch %s: HTTP %d %s", u, status, resp.Status()))
	}

	if l.jar != nil {
		if set := resp.Cookies(); len(set) > 0 {
			l.jar.SetCookies(u, set)
		}
	}

	final := u
	if loc := resp.RawResponse; loc != nil && loc.Request != nil && loc.Request.URL != nil {
		final = loc.Request.URL
	}

	return NewPage(final, resp.String(), status, resp.Header().Get("Content-Type")), nil
}

// AboutLoader serves the built-in about: pages.
type AboutLoader struct{}

// Load implements Loader.
func (AboutLoader) Load(_ context.Context, u *url.URL) (*Page, error) {
	switch u.Opaque {
	case "", "blank":
		return Blank(), nil
	default:
		return nil, errs.NotFound("about page", u.Opaque)
	}
}

// SchemeLoader dispatches loads by URL scheme.
type SchemeLoader struct {
	http  Loader
	about Loader
}

// NewLoader wires the standard scheme dispatch: http/https through an
// HTTPLoader bound to jar, about: through the built-in pages.
func NewLoader(jar cookies.Jar) *SchemeLoader {
	return &SchemeLoader{http: NewHTTPLoader(jar), about: AboutLoader{}}
}

// Load implements Loader.
func (l *SchemeLoader) Load(ctx context.Context, u *url.URL) (*Page, error) {
	switch u.Scheme {
	case "http", "https":
		return l.http.Load(ctx, u)
	case "about":
		return l.about.Load(ctx, u)
	default:
		return nil, errs.InvalidArgument("unsupported scheme: " + u.Scheme)
	}
}
