package tracker

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/julianstephens/afterglow/internal/backup"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/webdav"
)

// Status is what a view needs to render an operation's outcome.
type Status struct {
	State   backup.State
	Message string
}

func (s Status) Failed() bool { return s.State == backup.StateFailed }

// Describe maps an operation error to a user-facing status. A nil error is
// success.
func Describe(err error) Status {
	if err == nil {
		return Status{State: backup.StateSuccess}
	}

	var (
		netErr   *webdav.NetworkError
		protoErr *webdav.ProtocolError
		parseErr *webdav.ParseError
	)
	msg := err.Error()
	switch {
	case errors.Is(err, backup.ErrConfigIncomplete):
		msg = "Please configure WebDAV settings first (" + strings.TrimPrefix(msg, backup.ErrConfigIncomplete.Error()+": ") + ")"
	case errors.Is(err, backup.ErrBusy):
		msg = "Another backup operation is still running"
	case errors.Is(err, webdav.ErrNotFound):
		msg = "Backup file not found on server."
	case errors.As(err, &parseErr):
		msg = "Backup file is not a valid record collection"
	case errors.As(err, &protoErr):
		msg = capitalize(protoErr.Error())
	case errors.As(err, &netErr):
		msg = capitalize(netErr.Error())
	case errors.Is(err, models.ErrRecordNotFound), errors.Is(err, models.ErrEntryNotFound), errors.Is(err, models.ErrInvalidDate):
		msg = capitalize(msg)
	}
	return Status{State: backup.StateFailed, Message: msg}
}

// DescribeList is Describe for a listing; no snapshots is its own state.
func DescribeList(names []string, err error) Status {
	if err == nil && len(names) == 0 {
		return Status{State: backup.StateEmpty, Message: "No backups found"}
	}
	return Describe(err)
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
