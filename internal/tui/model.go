package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/afterglow/internal/backup"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/stats"
	"github.com/julianstephens/afterglow/internal/tracker"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateBackups
	StateStats
	StateAddRecord
	StateNote
	StateConfirmDelete
	StateConfirmRestore
	StateConfirmDeleteBackup
)

// tabCount is the number of states reachable with tab.
const tabCount = 3

// remoteTimeout bounds a single remote operation started from the UI.
const remoteTimeout = 30 * time.Second

type RecordFormModel struct {
	Title       string
	Description string
	Icon        string
	Color       string
	Primary     bool
}

type NoteFormModel struct {
	Note string
}

type (
	recordsMsg struct {
		records models.Collection
		err     error
	}
	backupsMsg struct {
		names []string
		err   error
	}
	backupDoneMsg struct {
		filename string
		err      error
	}
	restoreDoneMsg struct {
		filename string
		records  models.Collection
		err      error
	}
	deleteBackupDoneMsg struct {
		filename string
		err      error
	}
)

// recordItem is a list row for one record.
type recordItem struct {
	record models.Record
	logged bool
	streak int
}

func (i recordItem) Title() string {
	mark := "○"
	if i.logged {
		mark = "●"
	}
	title := fmt.Sprintf("%s %s %s", mark, i.record.Icon, i.record.Title)
	if i.record.IsPrimary {
		title += " ★"
	}
	return title
}

func (i recordItem) Description() string {
	desc := fmt.Sprintf("%d day streak", i.streak)
	if i.record.Description != "" {
		desc = i.record.Description + " · " + desc
	}
	return desc
}

func (i recordItem) FilterValue() string { return i.record.Title }

type backupItem string

func (i backupItem) Title() string       { return string(i) }
func (i backupItem) Description() string { return "remote snapshot" }
func (i backupItem) FilterValue() string { return string(i) }

type Model struct {
	svc        *tracker.Service
	state      SessionState
	tab        SessionState
	keys       KeyMap
	help       help.Model
	records    list.Model
	backups    list.Model
	form       *huh.Form
	recordForm *RecordFormModel
	noteForm   *NoteFormModel
	noteTarget string
	pending    string // record id or snapshot name awaiting confirmation
	status     tracker.Status
	busy       bool
	listedOnce bool
	collection models.Collection
	quitting   bool
	width      int
	height     int
}

func NewModel(svc *tracker.Service) Model {
	records := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	records.Title = "Today"
	records.SetShowHelp(false)

	backups := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	backups.Title = "Remote backups"
	backups.SetShowHelp(false)
	backups.SetFilteringEnabled(false)

	m := Model{
		svc:     svc,
		state:   StateToday,
		tab:     StateToday,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		records: records,
		backups: backups,
	}
	m.setRecords(svc.Records())
	return m
}

func (m Model) Init() tea.Cmd {
	return m.loadRecords
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateToday:
		keys = append(keys, m.keys.Toggle, m.keys.Add, m.keys.Backup)
	case StateBackups:
		keys = append(keys, m.keys.Refresh, m.keys.Restore, m.keys.Backup)
	case StateConfirmDelete, StateConfirmRestore, StateConfirmDeleteBackup:
		keys = []key.Binding{m.keys.Confirm, m.keys.Cancel}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case StateToday:
		actions = []key.Binding{m.keys.Toggle, m.keys.Note, m.keys.Add, m.keys.Primary, m.keys.Delete, m.keys.Backup}
	case StateBackups:
		actions = []key.Binding{m.keys.Refresh, m.keys.Restore, m.keys.Delete, m.keys.Backup}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m *Model) setRecords(c models.Collection) tea.Cmd {
	m.collection = c
	now := m.svc.Now()
	items := make([]list.Item, len(c))
	for i, r := range c {
		items[i] = recordItem{
			record: r,
			logged: stats.LoggedToday(r, now),
			streak: stats.Streak(r, now),
		}
	}
	return m.records.SetItems(items)
}

func (m *Model) setBackups(names []string) tea.Cmd {
	items := make([]list.Item, len(names))
	for i, n := range names {
		items[i] = backupItem(n)
	}
	return m.backups.SetItems(items)
}

func (m Model) selectedRecord() (models.Record, bool) {
	item, ok := m.records.SelectedItem().(recordItem)
	if !ok {
		return models.Record{}, false
	}
	return item.record, true
}

func (m Model) selectedBackup() (string, bool) {
	item, ok := m.backups.SelectedItem().(backupItem)
	return string(item), ok
}

func (m Model) loadRecords() tea.Msg {
	c, err := m.svc.LoadRecords()
	return recordsMsg{records: c, err: err}
}

func (m Model) listBackups() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()
	names, err := m.svc.ListRemoteBackups(ctx)
	return backupsMsg{names: names, err: err}
}

func (m Model) backupNow() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()
	name, err := m.svc.BackupNow(ctx)
	return backupDoneMsg{filename: name, err: err}
}

func (m Model) restore(filename string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		c, err := m.svc.RestoreFrom(ctx, filename)
		return restoreDoneMsg{filename: filename, records: c, err: err}
	}
}

func (m Model) deleteBackup(filename string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		return deleteBackupDoneMsg{filename: filename, err: m.svc.DeleteRemoteBackup(ctx, filename)}
	}
}

func (m *Model) startRemote(msg string) {
	m.busy = true
	m.status = tracker.Status{State: backup.StateRunning, Message: msg}
}

func (m *Model) finishRemote(st tracker.Status) {
	m.busy = false
	m.status = st
}
