package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"sync/atomic"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.0.0 Safari/537.36"

// Cookie is applied to the automation context before a request is issued.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// RequestOptions describes one outbound marketplace call.
type RequestOptions struct {
	Method   string
	Headers  map[string]string
	Body     []byte
	UseProxy bool
	Cookies  []Cookie
}

// Response is the raw transport result handed back for classification.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// SessionContext is one disposable browsing context. A fresh one is
// acquired per task so the transport identity never spans requests.
type SessionContext interface {
	Do(ctx context.Context, rawURL string, opts RequestOptions) (*Response, error)
	Close() error
}

// Engine hands out automation contexts. Closing the engine invalidates
// every context it produced; acquiring from a closed engine is the fatal
// condition that forces the top-level restart.
type Engine interface {
	NewContext(useProxy bool) (SessionContext, error)
	Restart() error
	Close() error
}

// ProxyConfig is the optional residential proxy in front of the
// marketplace.
type ProxyConfig struct {
	Enable   bool   `toml:"enable" mapstructure:"enable" json:"enable"`
	Host     string `toml:"host" mapstructure:"host" json:"host"`
	Port     int    `toml:"port" mapstructure:"port" json:"port"`
	User     string `toml:"user" mapstructure:"user" json:"user"`
	Password string `toml:"password" mapstructure:"password" json:"password"`
}

// HTTPEngine implements Engine over net/http. Each context carries a
// fresh cookie jar and transport, mirroring a new headless browser
// session per task.
type HTTPEngine struct {
	proxy  ProxyConfig
	closed atomic.Bool

	mu         sync.Mutex
	generation int64
}

func NewHTTPEngine(proxy ProxyConfig) (*HTTPEngine, error) {
	if proxy.Enable && (proxy.Host == "" || proxy.Port == 0 || proxy.User == "" || proxy.Password == "") {
		return nil, NewValidation("proxy settings are incomplete")
	}
	return &HTTPEngine{proxy: proxy}, nil
}

func (e *HTTPEngine) NewContext(useProxy bool) (SessionContext, error) {
	if e.closed.Load() {
		return nil, NewFatal("automation engine is closed")
	}
	if useProxy && !e.proxy.Enable {
		return nil, NewValidation("proxy requested but not configured")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, NewTransient("failed on create cookie jar: %v", err)
	}

	transport := &http.Transport{
		MaxIdleConns:      1,
		DisableKeepAlives: true,
	}
	if useProxy {
		proxyURL := &url.URL{
			Scheme: "http",
			User:   url.UserPassword(e.proxy.User, e.proxy.Password),
			Host:   fmt.Sprintf("%s:%d", e.proxy.Host, e.proxy.Port),
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &httpContext{
		engine: e,
		client: &http.Client{Jar: jar, Transport: transport},
	}, nil
}

// Restart replaces the engine's browsing state wholesale. Contexts
// handed out before the restart keep working only until closed; the
// generation bump exists so a future engine can tie context validity to
// it.
func (e *HTTPEngine) Restart() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.closed.Store(false)
	return nil
}

func (e *HTTPEngine) Close() error {
	e.closed.Store(true)
	return nil
}

type httpContext struct {
	engine *HTTPEngine
	client *http.Client
}

func (c *httpContext) Do(ctx context.Context, rawURL string, opts RequestOptions) (*Response, error) {
	if c.engine.closed.Load() {
		return nil, NewFatal("automation engine closed mid-flight")
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, NewValidation("failed on build request: %v", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")
	req.Header.Set("Content-Type", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	if len(opts.Cookies) > 0 {
		cookies := make([]*http.Cookie, 0, len(opts.Cookies))
		for _, ck := range opts.Cookies {
			cookies = append(cookies, &http.Cookie{
				Name:   ck.Name,
				Value:  ck.Value,
				Domain: ck.Domain,
			})
		}
		c.client.Jar.SetCookies(req.URL, cookies)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTransient("request timed out: %v", err)
		}
		return nil, NewTransient("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransient("failed on read response body: %v", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        raw,
	}, nil
}

func (c *httpContext) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
