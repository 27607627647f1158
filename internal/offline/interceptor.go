package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// State tracks the interceptor lifecycle: Install moves it from uninstalled to
// installed, Activate makes it take over traffic.
type State int

const (
	StateUninstalled State = iota
	StateInstalled
	StateActive
)

const offlineNotice = `<!DOCTYPE html>
<html lang="it">
<head><meta charset="utf-8"><title>Offline</title></head>
<body>
<h1>Sei offline</h1>
<p>Nessuna connessione disponibile. I dati meteo torneranno non appena la rete sar&agrave; raggiungibile.</p>
</body>
</html>
`

// Config describes one interceptor: which origin it guards, the cache version
// tag, and the shell assets installed before any live traffic.
type Config struct {
	// Origin is the only origin the interceptor acts on. Requests to any
	// other origin pass through the base transport untouched.
	Origin *url.URL

	// Prefix and Version compose the active cache store name as
	// "<prefix>-<version>". Bumping Version on deploy is the only way to
	// invalidate previously cached entries.
	Prefix  string
	Version string

	// Shell lists the asset paths (resolved against Origin) that must be
	// cached during Install, all-or-nothing.
	Shell []string
}

// Interceptor applies a network-first-with-cache-fallback policy to GET
// requests against a single origin. It implements http.RoundTripper so it can
// sit directly in an http.Client's transport chain.
type Interceptor struct {
	base     http.RoundTripper
	registry Registry
	cfg      Config

	mu    sync.RWMutex
	state State
	store Store
}

// New creates an Interceptor over the given base transport. A nil base falls
// back to http.DefaultTransport.
func New(base http.RoundTripper, registry Registry, cfg Config) (*Interceptor, error) {
	if cfg.Origin == nil {
		return nil, fmt.Errorf("offline: origin is required")
	}
	if cfg.Prefix == "" || cfg.Version == "" {
		return nil, fmt.Errorf("offline: cache prefix and version are required")
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &Interceptor{
		base:     base,
		registry: registry,
		cfg:      cfg,
	}, nil
}

// CacheName returns the versioned store name this interceptor reads and writes.
func (i *Interceptor) CacheName() string {
	return i.cfg.Prefix + "-" + i.cfg.Version
}

// State reports the current lifecycle state.
func (i *Interceptor) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// Install opens the versioned store and fetches every shell asset through the
// base transport, writing them as a single batch. If any asset fails to fetch
// (or answers outside 2xx) nothing is written and the interceptor stays out of
// the request path. Installing the same version twice is idempotent.
func (i *Interceptor) Install(ctx context.Context) error {
	store, err := i.registry.Open(i.CacheName())
	if err != nil {
		return fmt.Errorf("offline: open store %s: %w", i.CacheName(), err)
	}

	// Fetch everything first so a partial failure leaves no entries behind.
	type fetched struct {
		key  string
		snap Snapshot
	}
	batch := make([]fetched, 0, len(i.cfg.Shell))
	for _, asset := range i.cfg.Shell {
		req, err := i.shellRequest(ctx, asset)
		if err != nil {
			return fmt.Errorf("offline: install %s: %w", asset, err)
		}
		resp, err := i.base.RoundTrip(req)
		if err != nil {
			return fmt.Errorf("offline: install %s: %w", asset, err)
		}
		snap, err := snapshotResponse(resp)
		if err != nil {
			return fmt.Errorf("offline: install %s: %w", asset, err)
		}
		if snap.StatusCode < 200 || snap.StatusCode >= 300 {
			return fmt.Errorf("offline: install %s: unexpected status %d", asset, snap.StatusCode)
		}
		batch = append(batch, fetched{key: requestKey(req), snap: snap})
	}

	for _, f := range batch {
		if err := store.Put(f.key, f.snap); err != nil {
			return fmt.Errorf("offline: install write %s: %w", f.key, err)
		}
	}

	i.mu.Lock()
	i.store = store
	if i.state == StateUninstalled {
		i.state = StateInstalled
	}
	i.mu.Unlock()
	return nil
}

// Activate deletes every store whose name does not match the current versioned
// name and starts serving traffic. This is the sole garbage collection for old
// caches; there is no per-entry eviction.
func (i *Interceptor) Activate(ctx context.Context) error {
	i.mu.RLock()
	installed := i.state != StateUninstalled
	i.mu.RUnlock()
	if !installed {
		return fmt.Errorf("offline: activate before install")
	}

	names, err := i.registry.Names()
	if err != nil {
		return fmt.Errorf("offline: list stores: %w", err)
	}
	for _, name := range names {
		if name == i.CacheName() {
			continue
		}
		if err := i.registry.Delete(name); err != nil {
			log.Printf("offline: delete stale store %s: %v", name, err)
		}
	}

	i.mu.Lock()
	i.state = StateActive
	i.mu.Unlock()
	return nil
}

// RoundTrip implements http.RoundTripper. While inactive it is a transparent
// pass-through, so a failed install leaves callers talking to the network
// exactly as before.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	i.mu.RLock()
	active := i.state == StateActive
	store := i.store
	i.mu.RUnlock()

	if !active || req.Method != http.MethodGet || !i.sameOrigin(req.URL) {
		return i.base.RoundTrip(req)
	}

	key := requestKey(req)

	resp, err := i.base.RoundTrip(req)
	if err == nil {
		// Buffer the body so the caller gets a replayable response now and
		// the store gets its own copy. The write is best-effort and must
		// never delay the response.
		snap, snapErr := snapshotResponse(resp)
		if snapErr != nil {
			return nil, snapErr
		}
		resp.Body = io.NopCloser(bytes.NewReader(snap.Body))
		go func() {
			if putErr := store.Put(key, snap); putErr != nil {
				log.Printf("offline: cache write for %s failed: %v", key, putErr)
			}
		}()
		return resp, nil
	}

	if snap, ok := store.Get(key); ok {
		return snap.Response(req), nil
	}
	return noticeResponse(req), nil
}

// shellRequest builds the install-time GET for a shell asset path, which may
// carry its own query string.
func (i *Interceptor) shellRequest(ctx context.Context, asset string) (*http.Request, error) {
	ref, err := url.Parse(asset)
	if err != nil {
		return nil, err
	}
	u := i.cfg.Origin.ResolveReference(ref)
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

// sameOrigin compares scheme, host and port exactly, with default ports
// normalized so "https://example.com" and "https://example.com:443" agree.
func (i *Interceptor) sameOrigin(u *url.URL) bool {
	if u.Scheme != i.cfg.Origin.Scheme {
		return false
	}
	return originHost(u) == originHost(i.cfg.Origin)
}

func originHost(u *url.URL) string {
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	return host + ":" + port
}

// requestKey normalizes a request identity to method + URL, fragment dropped.
func requestKey(req *http.Request) string {
	u := *req.URL
	u.Fragment = ""
	return req.Method + " " + u.String()
}

// snapshotResponse drains and closes the response body, returning a
// whole-entry copy of the response.
func snapshotResponse(resp *http.Response) (Snapshot, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("offline: read response body: %w", err)
	}
	return Snapshot{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// Response rebuilds an *http.Response from the snapshot, exactly as stored.
func (s Snapshot) Response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", s.StatusCode, http.StatusText(s.StatusCode)),
		StatusCode:    s.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        s.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(s.Body)),
		ContentLength: int64(len(s.Body)),
		Request:       req,
	}
}

// noticeResponse synthesizes the generic offline page returned when neither
// the network nor the cache can satisfy a request.
func noticeResponse(req *http.Request) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "text/html; charset=utf-8")
	body := strings.NewReader(offlineNotice)
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(body),
		ContentLength: int64(len(offlineNotice)),
		Request:       req,
	}
}
