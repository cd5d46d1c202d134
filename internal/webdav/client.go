// Package webdav implements the remote snapshot operations: directory
// creation, upload, listing, download and delete under one fixed directory.
package webdav

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/logger"
	"github.com/julianstephens/afterglow/internal/models"
)

const (
	opEnsureDir = "create directory"
	opUpload    = "backup"
	opList      = "list backups"
	opDownload  = "restore"
	opDelete    = "delete"
)

// ConfigSource supplies the endpoint settings at request time, so changes
// made in the settings screen apply to the next request.
type ConfigSource interface {
	Current() models.WebDAVConfig
}

// Client is stateless apart from its HTTP transport.
type Client struct {
	config ConfigSource
	http   *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the transport. The client is copied; a copy
// without a timeout is given the default one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func NewClient(config ConfigSource, opts ...Option) *Client {
	c := &Client{
		config: config,
		http:   &http.Client{Timeout: constants.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Timeout <= 0 {
		c.http.Timeout = constants.DefaultHTTPTimeout
	}
	return c
}

// EnsureDirectory creates the snapshot directory. An existing directory
// (405) counts as success.
func (c *Client) EnsureDirectory(ctx context.Context) error {
	cfg := c.config.Current()
	resp, err := c.do(ctx, cfg, opEnsureDir, "MKCOL", dirURL(cfg), nil, nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusMethodNotAllowed {
		return nil
	}
	return checkStatus(opEnsureDir, resp)
}

// Upload creates or overwrites filename with content.
func (c *Client) Upload(ctx context.Context, filename string, content []byte) error {
	cfg := c.config.Current()
	headers := http.Header{"Content-Type": {"application/json"}}
	resp, err := c.do(ctx, cfg, opUpload, http.MethodPut, fileURL(cfg, filename), headers, content)
	if err != nil {
		return err
	}
	defer drain(resp)
	return checkStatus(opUpload, resp)
}

// List returns the snapshot filenames, newest first.
func (c *Client) List(ctx context.Context) ([]string, error) {
	cfg := c.config.Current()
	headers := http.Header{
		"Depth":        {"1"},
		"Content-Type": {"application/xml"},
	}
	resp, err := c.do(ctx, cfg, opList, "PROPFIND", dirURL(cfg), headers, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if err := checkStatus(opList, resp); err != nil {
		return nil, err
	}

	hrefs, err := parseHrefs(resp.Body)
	if err != nil {
		return nil, &ParseError{Op: opList, Err: err}
	}
	return snapshotNames(hrefs)
}

// Download fetches filename and decodes it as a Collection. The payload must
// satisfy every collection invariant before it is returned.
func (c *Client) Download(ctx context.Context, filename string) (models.Collection, error) {
	cfg := c.config.Current()
	resp, err := c.do(ctx, cfg, opDownload, http.MethodGet, fileURL(cfg, filename), nil, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s %s: %w", opDownload, filename, ErrNotFound)
	}
	if err := checkStatus(opDownload, resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: opDownload, Err: err}
	}
	collection, err := models.ParseCollection(data)
	if err == nil {
		err = collection.Validate()
	}
	if err != nil {
		return nil, &ParseError{Op: opDownload, Err: err}
	}
	return collection, nil
}

// Delete removes filename from the snapshot directory.
func (c *Client) Delete(ctx context.Context, filename string) error {
	cfg := c.config.Current()
	resp, err := c.do(ctx, cfg, opDelete, http.MethodDelete, fileURL(cfg, filename), nil, nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", opDelete, filename, ErrNotFound)
	}
	return checkStatus(opDelete, resp)
}

func (c *Client) do(ctx context.Context, cfg models.WebDAVConfig, op, method, target string, headers http.Header, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, RequestURL(cfg, target), reader)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.SetBasicAuth(cfg.Username, cfg.Password)
	if cfg.RelayEnabled() {
		req.Header.Set(constants.RelayHeader, constants.RelayHeaderValue)
	}

	logger.Debug("WebDAV request", "op", op, "method", method, "target", target, "relay", cfg.RelayEnabled())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	return resp, nil
}

// RequestURL returns the URL a request for target is sent to: target itself,
// or the relay prefix followed by the percent-encoded target.
func RequestURL(cfg models.WebDAVConfig, target string) string {
	if !cfg.RelayEnabled() {
		return target
	}
	return cfg.ProxyURL + encodeComponent(target)
}

func dirURL(cfg models.WebDAVConfig) string {
	return cfg.BaseURL() + "/" + constants.RemoteDirName + "/"
}

func fileURL(cfg models.WebDAVConfig, filename string) string {
	return dirURL(cfg) + url.PathEscape(filename)
}

// encodeComponent escapes everything but unreserved characters; spaces
// become %20 rather than "+".
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &ProtocolError{Op: op, StatusCode: resp.StatusCode, StatusText: statusText(resp)}
}

// statusText strips the numeric code from the status line.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	if text == "" {
		text = strconv.Itoa(resp.StatusCode)
	}
	return text
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// parseHrefs collects the text of every element whose local name is "href",
// whatever namespace prefix the server uses.
func parseHrefs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var hrefs []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return hrefs, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "href" {
			continue
		}
		var href string
		if err := dec.DecodeElement(&href, &start); err != nil {
			return nil, err
		}
		hrefs = append(hrefs, strings.TrimSpace(href))
	}
}

// snapshotNames keeps .json references, reduces them to decoded bare
// filenames and sorts them newest first.
func snapshotNames(hrefs []string) ([]string, error) {
	names := []string{}
	for _, href := range hrefs {
		if !strings.HasSuffix(href, constants.SnapshotFileSuffix) {
			continue
		}
		segment := href[strings.LastIndex(href, "/")+1:]
		name, err := url.PathUnescape(segment)
		if err != nil {
			return nil, &ParseError{Op: opList, Err: err}
		}
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
