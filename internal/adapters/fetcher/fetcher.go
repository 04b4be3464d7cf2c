// Package fetcher downloads map pages and pulls out the embedded state JSON.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/net/html"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/logging"
)

const (
	stateScriptType  = "application/json"
	stateScriptClass = "state-view"

	defaultUserAgent = "Mozilla/5.0 (compatible; ymaps2gpx/1.0)"
)

// Config tunes the HTTP client.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
	MaxRedirects int
}

// Fetcher implements ports.PageFetcher over fasthttp.
type Fetcher struct {
	client       *fasthttp.Client
	timeout      time.Duration
	maxRedirects int
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}
	return &Fetcher{
		client: &fasthttp.Client{
			Name:                cfg.UserAgent,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxResponseBodySize: cfg.MaxBodyBytes,
		},
		timeout:      cfg.Timeout,
		maxRedirects: cfg.MaxRedirects,
	}
}

// FetchState downloads url and returns the raw state JSON found in it.
func (f *Fetcher) FetchState(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, domain.NewUserError(domain.ErrFetchFailed, "The link must start with http:// or https://.")
	}

	logger := logging.FromContext(ctx)
	logger.Debug("fetching map page", "url", url)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	if err := f.do(ctx, req, resp); err != nil {
		return nil, &domain.UserError{
			Kind:    domain.ErrFetchFailed,
			Message: "Could not download the map page.",
			Err:     err,
		}
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return nil, domain.NewUserError(domain.ErrFetchFailed,
			fmt.Sprintf("Could not download the map page (HTTP %d).", code))
	}

	body := resp.Body()
	state, err := ExtractState(body)
	if err != nil {
		return nil, err
	}
	logger.Debug("map page fetched", "url", url, "bytes", len(body), "state_bytes", len(state))
	return state, nil
}

// do follows redirects, honouring the earlier of ctx's deadline and the
// client timeout.
func (f *Fetcher) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	deadline := time.Now().Add(f.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	for i := 0; ; i++ {
		if err := f.client.DoDeadline(req, resp, deadline); err != nil {
			return err
		}
		if !fasthttp.StatusCodeIsRedirect(resp.StatusCode()) {
			return nil
		}
		if i >= f.maxRedirects {
			return fmt.Errorf("too many redirects")
		}
		location := resp.Header.Peek(fasthttp.HeaderLocation)
		if len(location) == 0 {
			return fmt.Errorf("redirect without location")
		}
		u := req.URI()
		u.UpdateBytes(location)
		req.SetRequestURIBytes(u.FullURI())
		resp.Reset()
	}
}

// ExtractState finds the state-view script in an HTML page and returns its
// contents.
func ExtractState(page []byte) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, &domain.UserError{Kind: domain.ErrNoStateView, Message: "The page is not valid HTML.", Err: err}
	}

	script := findStateScript(root)
	if script == nil {
		return nil, domain.NewUserError(domain.ErrNoStateView,
			"The page does not contain map data. Make sure the link opens a map.")
	}

	var b strings.Builder
	for c := script.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	state := strings.TrimSpace(b.String())
	if state == "" {
		return nil, domain.NewUserError(domain.ErrNoStateView, "The page's map data is empty.")
	}
	return []byte(state), nil
}

func findStateScript(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "script" && isStateScript(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findStateScript(c); found != nil {
			return found
		}
	}
	return nil
}

func isStateScript(n *html.Node) bool {
	var typeOK, classOK bool
	for _, a := range n.Attr {
		switch a.Key {
		case "type":
			typeOK = strings.EqualFold(strings.TrimSpace(a.Val), stateScriptType)
		case "class":
			for _, cls := range strings.Fields(a.Val) {
				if cls == stateScriptClass {
					classOK = true
				}
			}
		}
	}
	return typeOK && classOK
}
