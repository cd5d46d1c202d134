package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGet(t *testing.T) {
	gokeyring.MockInit()
	p := WebDAVPassword()

	if err := p.Set("s3cret"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, err := p.Get()
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("Get() = %q, want %q", got, "s3cret")
	}
}

func TestSetEmpty(t *testing.T) {
	gokeyring.MockInit()
	if err := WebDAVPassword().Set(""); err == nil {
		t.Error("Set(\"\") should return an error")
	}
}

func TestGetNotFound(t *testing.T) {
	gokeyring.MockInit()
	p := WebDAVPassword()
	_ = p.Delete()

	if _, err := p.Get(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want %v", err, ErrNotFound)
	}
}

func TestDelete(t *testing.T) {
	gokeyring.MockInit()
	p := WebDAVPassword()

	if err := p.Set("s3cret"); err != nil {
		t.Fatal(err)
	}
	if err := p.Delete(); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := p.Get(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want %v", err, ErrNotFound)
	}
	if err := p.Delete(); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want %v", err, ErrNotFound)
	}
}

func TestUnavailable(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("dbus not running"))
	t.Cleanup(gokeyring.MockInit)

	p := WebDAVPassword()
	if _, err := p.Get(); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("Get() error = %v, want %v", err, ErrKeyringUnavailable)
	}
	if err := p.Set("x"); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("Set() error = %v, want %v", err, ErrKeyringUnavailable)
	}
	if IsAvailable() {
		t.Error("IsAvailable() = true with a failing keyring")
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()
	if !IsAvailable() {
		t.Error("IsAvailable() = false, want true in mock mode")
	}
}
