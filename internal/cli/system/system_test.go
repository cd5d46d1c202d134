package system

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/afterglow/internal/cli/clitest"
	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestInitCmdSeeds(t *testing.T) {
	env := clitest.New(t)

	if err := (&InitCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(env.Out.String(), "2 record(s) ready") {
		t.Errorf("unexpected output:\n%s", env.Out.String())
	}

	// a second init keeps the records
	if err := (&InitCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	c, err := env.Store.GetAll()
	if err != nil || len(c) != 2 {
		t.Errorf("records after re-init = %d, err %v", len(c), err)
	}
}

func TestInitCmdForce(t *testing.T) {
	env := clitest.New(t)
	if err := env.Store.PutAll(models.Collection{{ID: "x", Title: "Old", Logs: []models.LogEntry{}}}); err != nil {
		t.Fatal(err)
	}

	if err := (&InitCmd{Force: true}).Run(env.Ctx); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	if !strings.Contains(env.Out.String(), "Deleted existing database") {
		t.Errorf("unexpected output:\n%s", env.Out.String())
	}
	if _, err := os.Stat(env.Store.GetConfigPath()); err != nil {
		t.Errorf("database was not recreated: %v", err)
	}
}

func TestInitCmdForceRejectsPostgres(t *testing.T) {
	env := clitest.New(t)
	env.Ctx.App.Storage.DSN = "postgres://localhost/afterglow"
	if err := (&InitCmd{Force: true}).Run(env.Ctx); err == nil {
		t.Error("expected error for --force with postgres")
	}
}

func TestDebugDBPathCmd(t *testing.T) {
	env := clitest.New(t)

	if err := (&DebugDBPathCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("debug db-path failed: %v", err)
	}
	var out map[string]string
	if err := json.Unmarshal(env.Out.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out["path"] != env.Store.GetConfigPath() {
		t.Errorf("path = %q", out["path"])
	}
	if !strings.HasSuffix(out["log"], "afterglow.log") {
		t.Errorf("log = %q", out["log"])
	}
}

func TestDebugDumpRecordsCmd(t *testing.T) {
	env := clitest.New(t)
	if _, err := env.Ctx.Records(); err != nil {
		t.Fatal(err)
	}

	if err := (&DebugDumpRecordsCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	c, err := models.ParseCollection(env.Out.Bytes())
	if err != nil {
		t.Fatalf("dump is not a snapshot: %v", err)
	}
	if len(c) != 2 {
		t.Errorf("dumped %d records", len(c))
	}
}

func TestDebugDumpWebDAVMasksPassword(t *testing.T) {
	env := clitest.New(t)
	env.Configure(t)

	if err := (&DebugDumpWebDAVCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	out := env.Out.String()
	if strings.Contains(out, "s3cret") || !strings.Contains(out, "****") {
		t.Errorf("password not masked:\n%s", out)
	}
}

func TestKeyringCommands(t *testing.T) {
	env := clitest.New(t)

	if err := (&KeyringStatusCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(env.Out.String(), "No WebDAV password") {
		t.Errorf("unexpected output:\n%s", env.Out.String())
	}

	env.Configure(t)
	env.Out.Reset()
	if err := (&KeyringStatusCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.Out.String(), "stored in keyring") {
		t.Errorf("unexpected output:\n%s", env.Out.String())
	}

	if err := (&KeyringDeleteCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := (&KeyringDeleteCmd{}).Run(env.Ctx); err == nil {
		t.Error("deleting twice should fail")
	}
}

func TestKeyringStatusUnavailable(t *testing.T) {
	env := clitest.New(t)
	gokeyring.MockInitWithError(os.ErrPermission)

	if err := (&KeyringStatusCmd{}).Run(env.Ctx); err == nil {
		t.Error("expected error when the keyring is unavailable")
	}
}

func TestRelayServerUsesConfig(t *testing.T) {
	env := clitest.New(t)
	env.Ctx.App.Relay.Listen = "127.0.0.1:0"
	env.Ctx.App.Relay.AllowedHosts = []string{"dav.example.com"}

	srv := (&RelayCmd{Prefix: "/proxy"}).server(env.Ctx)
	if srv.Addr != "127.0.0.1:0" {
		t.Errorf("Addr = %q", srv.Addr)
	}

	target := "/proxy/" + url.PathEscape("http://other.example.com/"+constants.RemoteDirName+"/")
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for a host outside the allowlist", rec.Code)
	}

	srv = (&RelayCmd{Listen: ":9999"}).server(env.Ctx)
	if srv.Addr != ":9999" {
		t.Errorf("flag should override config, Addr = %q", srv.Addr)
	}
}
