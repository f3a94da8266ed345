// Package tui is the interactive review screen: it lists the decisions of a
// planned sort pass and applies the included ones on confirmation.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"filesorter/internal/organize"
	"filesorter/pkg/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

type state int

const (
	reviewing state = iota
	applying
	done
)

// appliedMsg carries the outcomes of an apply run
type appliedMsg struct {
	outcomes []types.Outcome
}

// Model is the bubbletea model of the review screen.
type Model struct {
	title     string
	decisions []types.Decision
	included  []bool
	cursor    int
	state     state
	outcomes  []types.Outcome
	quitting  bool

	placer  organize.Placer
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	height  int
}

// New creates a review model over a planned pass.
func New(title string, decisions []types.Decision, placer organize.Placer) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StatusStyle

	included := make([]bool, len(decisions))
	for i, d := range decisions {
		included[i] = d.Action != types.ActionSkip
	}

	return &Model{
		title:     title,
		decisions: decisions,
		included:  included,
		placer:    placer,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   s,
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.height = msg.Height
		return m, nil

	case appliedMsg:
		m.outcomes = msg.outcomes
		m.state = done
		return m, nil

	case spinner.TickMsg:
		if m.state != applying {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.state == applying {
			// a running apply is never interrupted
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case applying:
		return m, nil
	case done:
		m.quitting = true
		return m, tea.Quit
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.decisions)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if len(m.decisions) > 0 && m.decisions[m.cursor].Action != types.ActionSkip {
			m.included[m.cursor] = !m.included[m.cursor]
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Apply):
		m.state = applying
		return m, tea.Batch(m.spinner.Tick, m.applyCmd())
	}
	return m, nil
}

// applyCmd applies the included decisions in order.
func (m *Model) applyCmd() tea.Cmd {
	var selected []types.Decision
	for i, d := range m.decisions {
		if m.included[i] {
			selected = append(selected, d)
		}
	}
	placer := m.placer
	return func() tea.Msg {
		outcomes := make([]types.Outcome, 0, len(selected))
		for _, d := range selected {
			outcomes = append(outcomes, placer.Apply(d))
		}
		return appliedMsg{outcomes: outcomes}
	}
}

// Outcomes returns the results of the apply run, if any
func (m *Model) Outcomes() []types.Outcome {
	return m.outcomes
}

// Applied reports whether the reviewed plan was applied
func (m *Model) Applied() bool {
	return m.state == done
}

// Cursor returns the highlighted row
func (m *Model) Cursor() int {
	return m.cursor
}

// Included reports whether row i will be applied
func (m *Model) Included(i int) bool {
	return i >= 0 && i < len(m.included) && m.included[i]
}

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting && m.state != done {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n\n")

	switch m.state {
	case applying:
		b.WriteString(m.spinner.View() + " Applying...\n")
		return b.String()
	case done:
		b.WriteString(m.summaryView())
		b.WriteString("\n" + StatusStyle.Render("Press any key to exit") + "\n")
		return b.String()
	}

	if len(m.decisions) == 0 {
		b.WriteString(StatusStyle.Render("Nothing to sort.") + "\n\n")
	}
	for i, d := range m.decisions {
		b.WriteString(m.rowView(i, d))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) rowView(i int, d types.Decision) string {
	mark := "[x]"
	if !m.included[i] {
		mark = "[ ]"
	}
	name := filepath.Base(d.Source)
	dest := filepath.Base(d.DestinationFolder) + "/"
	if d.DestinationPath != "" && filepath.Base(d.DestinationPath) != name {
		dest += filepath.Base(d.DestinationPath)
	}

	line := fmt.Sprintf("%s %s -> %s", mark, name, FolderStyle.Render(dest))
	switch {
	case d.Action == types.ActionSkip && d.Collision:
		line += " " + WarningStyle.Render("(exists, skipped)")
	case d.Action == types.ActionSkip:
		line += " " + StatusStyle.Render("(in place)")
	case d.Collision:
		line += " " + WarningStyle.Render("(exists)")
	}
	if d.Backs() {
		line += " " + StatusStyle.Render("+backup")
	}
	if d.Action == types.ActionSimulate || d.Action == types.ActionBackupSimulate {
		line += " " + WarningStyle.Render("[dry run]")
	}

	prefix := "  "
	if i == m.cursor {
		prefix = SelectedStyle.Render(">") + " "
	}
	if !m.included[i] {
		return prefix + ExcludedStyle.Render(fmt.Sprintf("%s %s -> %s", mark, name, dest))
	}
	return prefix + line
}

func (m *Model) summaryView() string {
	var moved, failed int
	var bytes int64
	for _, o := range m.outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		if o.Moved {
			moved++
			bytes += o.Size
		}
	}

	var b strings.Builder
	b.WriteString(SuccessStyle.Render(fmt.Sprintf("Moved %d file(s), %s", moved, humanize.Bytes(uint64(bytes)))))
	b.WriteString("\n")
	if failed > 0 {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("%d file(s) failed:", failed)))
		b.WriteString("\n")
		for _, o := range m.outcomes {
			if o.Err != nil {
				b.WriteString(ErrorStyle.Render("  " + o.Err.Error()))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// Run shows the review screen until the user applies or quits.
func Run(m *Model, opts ...tea.ProgramOption) (*Model, error) {
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return nil, err
	}
	return final.(*Model), nil
}
