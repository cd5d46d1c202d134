package backups

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/tracker"
)

var (
	processesFunc = ps.Processes
	confirmFunc   = confirm
)

type NowCmd struct{}

func (c *NowCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.Records(); err != nil {
		return err
	}
	name, err := ctx.Service.BackupNow(context.Background())
	if err != nil {
		return errors.New(tracker.Describe(err).Message)
	}
	ctx.Printf("%s Backup uploaded: %s\n", cli.SuccessStyle.Render("✓"), name)
	return nil
}

type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	names, err := ctx.Service.ListRemoteBackups(context.Background())
	st := tracker.DescribeList(names, err)
	if st.Failed() {
		return errors.New(st.Message)
	}
	if len(names) == 0 {
		ctx.Println("No backups found.")
		return nil
	}

	cfg := ctx.Holder.Current()
	ctx.Printf("Remote backups (%d total, keeping most recent %d):\n\n", len(names), cfg.Retention())
	for _, n := range names {
		ctx.Printf("  %s\n", n)
	}
	return nil
}

type RestoreCmd struct {
	Filename string `arg:"" help:"Remote backup filename, as shown by 'backup list'."`
	Yes      bool   `help:"Do not ask for confirmation." short:"y"`
	Force    bool   `help:"Restore even if another afterglow process is running."`
}

func (c *RestoreCmd) Run(ctx *cli.Context) error {
	if err := guard(c.Force); err != nil {
		return err
	}
	if !c.Yes {
		ok, err := confirmFunc(fmt.Sprintf("Replace all local records with %s?", c.Filename))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	restored, err := ctx.Service.RestoreFrom(context.Background(), c.Filename)
	if err != nil {
		return errors.New(tracker.Describe(err).Message)
	}
	ctx.Printf("%s Restored %d record(s) from %s\n", cli.SuccessStyle.Render("✓"), len(restored), c.Filename)
	ctx.Println(cli.MutedStyle.Render("The previous records were saved locally, see 'afterglow backup local'."))
	return nil
}

type DeleteCmd struct {
	Filename string `arg:"" help:"Remote backup filename."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Service.DeleteRemoteBackup(context.Background(), c.Filename); err != nil {
		return errors.New(tracker.Describe(err).Message)
	}
	ctx.Printf("Deleted %s\n", c.Filename)
	return nil
}

type LocalCmd struct {
	Restore string `help:"Restore the named local copy instead of listing."`
	Yes     bool   `help:"Do not ask for confirmation." short:"y"`
	Force   bool   `help:"Restore even if another afterglow process is running."`
}

func (c *LocalCmd) Run(ctx *cli.Context) error {
	if c.Restore != "" {
		return c.restore(ctx)
	}

	backups, err := ctx.Service.LocalBackups()
	if err != nil {
		return fmt.Errorf("failed to list local backups: %w", err)
	}
	if len(backups) == 0 {
		ctx.Println("No local backups found.")
		ctx.Printf("A copy is saved in %s before every restore.\n", filepath.Join(ctx.ConfigDir, constants.BackupDirName))
		return nil
	}

	ctx.Printf("Local backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxLocalBackups)
	for _, b := range backups {
		records := fmt.Sprintf("%d records", b.Records)
		if b.Records < 0 {
			records = cli.WarnStyle.Render("unreadable")
		}
		ctx.Printf("  %s  %s  (%.1f KB, %s)\n",
			b.Timestamp.Local().Format("2006-01-02 15:04:05"), b.Name, float64(b.Size)/1024.0, records)
	}
	return nil
}

func (c *LocalCmd) restore(ctx *cli.Context) error {
	if err := guard(c.Force); err != nil {
		return err
	}
	if !c.Yes {
		ok, err := confirmFunc(fmt.Sprintf("Replace all local records with %s?", c.Restore))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	restored, err := ctx.Service.RestoreLocal(c.Restore)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.Printf("%s Restored %d record(s) from %s\n", cli.SuccessStyle.Render("✓"), len(restored), c.Restore)
	return nil
}

func confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description("A copy of the current records is kept locally.").
		Affirmative("Restore").
		Negative("Cancel").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// guard refuses to restore while another afterglow process, such as an open
// TUI, could write over the restored records.
func guard(force bool) error {
	if force {
		return nil
	}
	procs, err := processesFunc()
	if err != nil {
		return fmt.Errorf("failed to check running processes (use --force to skip): %w", err)
	}
	self := os.Getpid()
	var others []string
	for _, p := range procs {
		if p.Pid() == self || p.Pid() == os.Getppid() {
			continue
		}
		if strings.TrimSuffix(p.Executable(), ".exe") == constants.AppName {
			others = append(others, fmt.Sprint(p.Pid()))
		}
	}
	if len(others) > 0 {
		return fmt.Errorf("another afterglow process is running (pid %s); close it first or use --force", strings.Join(others, ", "))
	}
	return nil
}
