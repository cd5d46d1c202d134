// Package davtest runs an in-memory WebDAV server for tests.
package davtest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"sort"
	"sync"
	"testing"

	"golang.org/x/net/webdav"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/models"
)

const (
	Username = "alice"
	Password = "s3cret"
	prefix   = "/dav"
)

// Server is a WebDAV endpoint behind Basic auth, mounted at /dav.
type Server struct {
	*httptest.Server
	fs webdav.FileSystem

	mu       sync.Mutex
	requests []string
	failures map[string]int
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		fs:       webdav.NewMemFS(),
		failures: make(map[string]int),
	}
	dav := &webdav.Handler{
		Prefix:     prefix,
		FileSystem: s.fs,
		LockSystem: webdav.NewMemLS(),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		status, forced := s.failures[r.Method+" "+path.Base(r.URL.Path)]
		s.mu.Unlock()

		user, pass, ok := r.BasicAuth()
		if !ok || user != Username || pass != Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="dav"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if forced {
			http.Error(w, http.StatusText(status), status)
			return
		}
		dav.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the endpoint to configure, with a trailing slash.
func (s *Server) BaseURL() string {
	return s.URL + prefix + "/"
}

// Config returns a complete configuration for this server.
func (s *Server) Config() models.WebDAVConfig {
	return models.WebDAVConfig{
		URL:        s.BaseURL(),
		Username:   Username,
		Password:   Password,
		MaxBackups: constants.DefaultMaxBackups,
	}
}

// Requests returns "METHOD /path" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Fail makes every request with method on a resource named name answer status.
func (s *Server) Fail(method, name string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+name] = status
}

// Seed writes a file into the snapshot directory, creating it if needed.
func (s *Server) Seed(t testing.TB, name string, data []byte) {
	t.Helper()
	ctx := context.Background()
	dir := "/" + constants.RemoteDirName
	if err := s.fs.Mkdir(ctx, dir, 0755); err != nil && !os.IsExist(err) {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := s.fs.OpenFile(ctx, dir+"/"+name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// Files lists the snapshot directory, sorted ascending. A missing
// directory yields nil.
func (s *Server) Files(t testing.TB) []string {
	t.Helper()
	f, err := s.fs.OpenFile(context.Background(), "/"+constants.RemoteDirName, os.O_RDONLY, 0)
	if err != nil {
		return nil
	}
	defer f.Close()
	infos, err := f.Readdir(-1)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	var names []string
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	sort.Strings(names)
	return names
}

// Read returns the content of a snapshot file.
func (s *Server) Read(t testing.TB, name string) []byte {
	t.Helper()
	f, err := s.fs.OpenFile(context.Background(), "/"+constants.RemoteDirName+"/"+name, os.O_RDONLY, 0)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return data
}

// Static is a fixed configuration source.
type Static models.WebDAVConfig

func (c Static) Current() models.WebDAVConfig { return models.WebDAVConfig(c) }
