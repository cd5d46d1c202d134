package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/afterglow/internal/config"
	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/storage"
	"github.com/julianstephens/afterglow/internal/tracker"
)

type Context struct {
	Store     storage.Provider
	App       config.Config
	ConfigDir string
	Holder    *config.Holder
	Service   *tracker.Service
	Debug     bool

	// Out receives command output; nil means stdout.
	Out io.Writer
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.writer(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.writer(), args...)
}

func (c *Context) writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Records runs the startup import if needed and returns the collection.
func (c *Context) Records() (models.Collection, error) {
	return c.Service.LoadRecords()
}

// FindRecord resolves ref as a record id, or as a case-insensitive title
// when exactly one record has it.
func FindRecord(records models.Collection, ref string) (models.Record, error) {
	if r, ok := records.Find(ref); ok {
		return r, nil
	}

	var matches []models.Record
	for _, r := range records {
		if strings.EqualFold(r.Title, ref) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return models.Record{}, fmt.Errorf("%w: %s", models.ErrRecordNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Record{}, fmt.Errorf("%d records are titled %q, use the id instead", len(matches), ref)
	}
}

// ResolveDate turns "today", "yesterday" or a YYYY-MM-DD string into a date.
func (c *Context) ResolveDate(s string) (string, error) {
	today := c.Service.Now().UTC()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today.Format(constants.DateFormat), nil
	case "yesterday":
		return today.AddDate(0, 0, -1).Format(constants.DateFormat), nil
	}
	if err := models.ValidateDate(s); err != nil {
		return "", err
	}
	return s, nil
}
