package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

var colorOptions = []huh.Option[string]{
	huh.NewOption("Sage", "#66AB71"),
	huh.NewOption("Moss", "#A3BB96"),
	huh.NewOption("Amber", "#D9A441"),
	huh.NewOption("Clay", "#C8553D"),
	huh.NewOption("Slate", "#726C62"),
}

func (m *Model) openRecordForm() tea.Cmd {
	m.recordForm = &RecordFormModel{Icon: "✨", Color: colorOptions[0].Value}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&m.recordForm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Value(&m.recordForm.Description),
			huh.NewInput().
				Title("Icon").
				Value(&m.recordForm.Icon),
			huh.NewSelect[string]().
				Title("Color").
				Options(colorOptions...).
				Value(&m.recordForm.Color),
			huh.NewConfirm().
				Title("Make primary?").
				Value(&m.recordForm.Primary),
		),
	)
	m.state = StateAddRecord
	return m.form.Init()
}

func (m *Model) openNoteForm(id, current string) tea.Cmd {
	m.noteTarget = id
	m.noteForm = &NoteFormModel{Note: current}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("How did it go today?").
				Value(&m.noteForm.Note),
		),
	)
	m.state = StateNote
	return m.form.Init()
}

func (m *Model) closeForm() {
	m.form = nil
	m.recordForm = nil
	m.noteForm = nil
	m.noteTarget = ""
	m.state = m.tab
}
