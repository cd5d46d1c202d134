// Package relay is the CORS relay used when the WebDAV client runs with
// useProxy: each request names its real target as a percent-encoded path
// suffix (or a "url" query parameter) and the response is returned as-is.
package relay

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/logger"
)

// Methods are the request methods forwarded upstream.
var Methods = []string{
	http.MethodGet,
	http.MethodPut,
	http.MethodDelete,
	http.MethodHead,
	http.MethodPost,
	"MKCOL",
	"PROPFIND",
}

var (
	errNoTarget      = errors.New("missing target url")
	errBadScheme     = errors.New("target must be an http or https url")
	errHostForbidden = errors.New("target host is not allowed")
)

// hop-by-hop headers are never forwarded
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

type Relay struct {
	client  *http.Client
	prefix  string
	allowed map[string]struct{}
}

type Option func(*Relay)

// WithPrefix mounts the relay below a path prefix such as "/proxy".
func WithPrefix(prefix string) Option {
	return func(r *Relay) { r.prefix = strings.TrimRight(prefix, "/") }
}

// WithAllowedHosts restricts forwarding to the given hosts. An empty list
// allows every host.
func WithAllowedHosts(hosts ...string) Option {
	return func(r *Relay) {
		for _, h := range hosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				r.allowed[h] = struct{}{}
			}
		}
	}
}

// WithTimeout bounds each upstream request.
func WithTimeout(d time.Duration) Option {
	return func(r *Relay) { r.client.Timeout = d }
}

func New(opts ...Option) *Relay {
	r := &Relay{
		client: &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
			// Redirects go back to the caller untouched
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		allowed: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handler builds the gin engine serving the relay.
func (r *Relay) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLog())

	route := r.prefix + "/*target"
	for _, m := range Methods {
		engine.Handle(m, route, r.forward)
	}
	engine.OPTIONS(route, r.preflight)
	return engine
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Relay request",
			"method", c.Request.Method,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (r *Relay) preflight(c *gin.Context) {
	allowCORS(c)
	c.AbortWithStatus(http.StatusNoContent)
}

func (r *Relay) forward(c *gin.Context) {
	allowCORS(c)

	target, err := r.target(c.Request)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errHostForbidden) {
			status = http.StatusForbidden
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
		return
	}

	out, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target.String(), c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out.ContentLength = c.Request.ContentLength
	copyHeaders(out.Header, c.Request.Header)
	out.Header.Del(constants.RelayHeader)
	out.Header.Del("Origin")

	resp, err := r.client.Do(out)
	if err != nil {
		logger.Warn("Relay upstream request failed", "host", target.Host, "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	defer resp.Body.Close()

	copyHeaders(c.Writer.Header(), resp.Header)
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		logger.Warn("Relay response copy failed", "host", target.Host, "error", err)
	}
}

// target extracts the upstream URL from the escaped path suffix, or from the
// "url" query parameter when the suffix is empty.
func (r *Relay) target(req *http.Request) (*url.URL, error) {
	raw := strings.TrimPrefix(req.URL.EscapedPath(), r.prefix)
	raw = strings.TrimPrefix(raw, "/")

	var decoded string
	if raw == "" {
		decoded = req.URL.Query().Get("url")
	} else {
		var err error
		if decoded, err = url.PathUnescape(raw); err != nil {
			return nil, fmt.Errorf("invalid target: %w", err)
		}
	}
	if decoded == "" {
		return nil, errNoTarget
	}

	u, err := url.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("invalid target: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errBadScheme
	}
	if len(r.allowed) > 0 {
		if _, ok := r.allowed[strings.ToLower(u.Hostname())]; !ok {
			return nil, errHostForbidden
		}
	}
	return u, nil
}

func allowCORS(c *gin.Context) {
	h := c.Writer.Header()
	origin := c.GetHeader("Origin")
	if origin == "" {
		origin = "*"
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", strings.Join(append(append([]string{}, Methods...), http.MethodOptions), ", "))
	h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Depth, "+constants.RelayHeader)
	h.Set("Access-Control-Max-Age", "600")
	h.Add("Vary", "Origin")
}

func copyHeaders(dst, src http.Header) {
	for k, vs := range src {
		if isHopHeader(k) || strings.HasPrefix(k, "Access-Control-") {
			continue
		}
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func isHopHeader(name string) bool {
	for _, h := range hopHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}
