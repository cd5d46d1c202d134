package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/afterglow/internal/backup"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/tracker"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		m.records.SetSize(msg.Width-h, msg.Height-v-4)
		m.backups.SetSize(msg.Width-h, msg.Height-v-4)
		return m, nil

	case recordsMsg:
		if msg.err != nil {
			m.status = tracker.Describe(msg.err)
			return m, nil
		}
		return m, m.setRecords(msg.records)

	case backupsMsg:
		m.listedOnce = true
		m.finishRemote(tracker.DescribeList(msg.names, msg.err))
		if msg.err != nil {
			return m, nil
		}
		if len(msg.names) > 0 {
			m.status.Message = fmt.Sprintf("%d backup(s) on server", len(msg.names))
		}
		return m, m.setBackups(msg.names)

	case backupDoneMsg:
		st := tracker.Describe(msg.err)
		if msg.err == nil {
			st.Message = "Backup saved as " + msg.filename
		}
		m.finishRemote(st)
		if msg.err != nil || !m.listedOnce {
			return m, nil
		}
		m.startRemote("Refreshing backups…")
		return m, m.listBackups

	case restoreDoneMsg:
		st := tracker.Describe(msg.err)
		if msg.err == nil {
			st.Message = fmt.Sprintf("Restored %d record(s) from %s", len(msg.records), msg.filename)
		}
		m.finishRemote(st)
		if msg.err != nil {
			return m, nil
		}
		return m, m.setRecords(msg.records)

	case deleteBackupDoneMsg:
		st := tracker.Describe(msg.err)
		if msg.err == nil {
			st.Message = "Deleted " + msg.filename
		}
		m.finishRemote(st)
		if msg.err != nil {
			return m, nil
		}
		return m, m.setBackups(m.svc.RemoteBackups())
	}

	switch m.state {
	case StateAddRecord, StateNote:
		return m.updateForm(msg)
	case StateConfirmDelete, StateConfirmRestore, StateConfirmDeleteBackup:
		return m.updateConfirm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateList(msg)
	}

	// Let the list own the keyboard while the user types a filter.
	if m.state == StateToday && m.records.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(keyMsg, m.keys.Tab):
		return m.switchTab((m.tab + 1) % tabCount)
	case key.Matches(keyMsg, m.keys.ShiftTab):
		return m.switchTab((m.tab - 1 + tabCount) % tabCount)
	case key.Matches(keyMsg, m.keys.Backup):
		if m.busy {
			return m, nil
		}
		m.startRemote("Backing up…")
		return m, m.backupNow
	}

	switch m.state {
	case StateToday:
		return m.updateToday(keyMsg)
	case StateBackups:
		return m.updateBackups(keyMsg)
	}
	return m, nil
}

func (m Model) switchTab(tab SessionState) (tea.Model, tea.Cmd) {
	m.tab = tab
	m.state = tab
	if tab == StateBackups && !m.listedOnce && !m.busy {
		m.startRemote("Loading backups…")
		return m, m.listBackups
	}
	return m, nil
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case StateToday:
		m.records, cmd = m.records.Update(msg)
	case StateBackups:
		m.backups, cmd = m.backups.Update(msg)
	}
	return m, cmd
}

func (m Model) updateToday(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Add) {
		cmd := m.openRecordForm()
		return m, cmd
	}

	r, ok := m.selectedRecord()
	if !ok {
		return m.updateList(msg)
	}

	today := m.svc.Today()
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m.mutate(m.svc.CheckIn(r.ID, today, nil))
	case key.Matches(msg, m.keys.Note):
		e, _ := r.Entry(today)
		cmd := m.openNoteForm(r.ID, e.Note)
		return m, cmd
	case key.Matches(msg, m.keys.Primary):
		return m.mutate(m.svc.SetPrimary(r.ID))
	case key.Matches(msg, m.keys.Delete):
		m.pending = r.ID
		m.state = StateConfirmDelete
		return m, nil
	}
	return m.updateList(msg)
}

func (m Model) updateBackups(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Refresh) {
		if m.busy {
			return m, nil
		}
		m.startRemote("Loading backups…")
		return m, m.listBackups
	}

	name, ok := m.selectedBackup()
	if !ok {
		return m.updateList(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Restore):
		if m.busy {
			return m, nil
		}
		m.pending = name
		m.state = StateConfirmRestore
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if m.busy {
			return m, nil
		}
		m.pending = name
		m.state = StateConfirmDeleteBackup
		return m, nil
	}
	return m.updateList(msg)
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Cancel):
		m.pending = ""
		m.state = m.tab
		return m, nil
	case !key.Matches(keyMsg, m.keys.Confirm):
		return m, nil
	}

	target := m.pending
	state := m.state
	m.pending = ""
	m.state = m.tab

	switch state {
	case StateConfirmDelete:
		return m.mutate(m.svc.DeleteRecord(target))
	case StateConfirmRestore:
		m.startRemote("Restoring " + target + "…")
		return m, m.restore(target)
	case StateConfirmDeleteBackup:
		m.startRemote("Deleting " + target + "…")
		return m, m.deleteBackup(target)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.closeForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	case huh.StateCompleted:
		return m.submitForm()
	}
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	var err error
	switch m.state {
	case StateAddRecord:
		f := m.recordForm
		_, err = m.svc.AddRecord(models.RecordInput{
			Title:       strings.TrimSpace(f.Title),
			Description: strings.TrimSpace(f.Description),
			Icon:        f.Icon,
			Color:       f.Color,
			Primary:     f.Primary,
		})
	case StateNote:
		note := strings.TrimSpace(m.noteForm.Note)
		err = m.svc.CheckIn(m.noteTarget, m.svc.Today(), &note)
	}
	m.closeForm()
	return m.mutate(err)
}

// mutate refreshes the record list after a local change or reports its error.
func (m Model) mutate(err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.status = tracker.Describe(err)
		return m, nil
	}
	if m.status.State == backup.StateFailed {
		m.status = tracker.Status{}
	}
	return m, m.setRecords(m.svc.Records())
}
