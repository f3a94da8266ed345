package tui

import (
	"path/filepath"
	"testing"

	"filesorter/internal/organize"
	"filesorter/pkg/testutils"
	"filesorter/pkg/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPlacer remembers what it was asked to apply.
type recordingPlacer struct {
	applied []types.Decision
}

func (p *recordingPlacer) Plan(cand types.Candidate, target string) types.Decision {
	return types.Decision{Source: cand.Path, DestinationFolder: target}
}

func (p *recordingPlacer) Apply(d types.Decision) types.Outcome {
	p.applied = append(p.applied, d)
	return types.Outcome{Decision: d, Moved: true, Size: 10}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd, expanding batches, and returns the produced messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func sampleDecisions() []types.Decision {
	return []types.Decision{
		{Source: "/t/a.jpg", DestinationFolder: "/t/Pictures", DestinationPath: "/t/Pictures/a.jpg", Action: types.ActionMove},
		{Source: "/t/b.pdf", DestinationFolder: "/t/Documents", DestinationPath: "/t/Documents/b.pdf", Action: types.ActionMove},
		{Source: "/t/c.txt", DestinationFolder: "/t/Documents", DestinationPath: "/t/Documents/c.txt", Action: types.ActionSkip, Collision: true},
	}
}

func TestNavigation(t *testing.T) {
	m := New("Review", sampleDecisions(), &recordingPlacer{})

	m.Update(runes("j"))
	assert.Equal(t, 1, m.Cursor())
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.Cursor())
	m.Update(runes("j"))
	assert.Equal(t, 2, m.Cursor(), "cursor stops at the last row")
	m.Update(runes("k"))
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(runes("k"))
	assert.Equal(t, 0, m.Cursor())
}

func TestEmptyPlan(t *testing.T) {
	m := New("Review", nil, &recordingPlacer{})
	m.Update(runes("j"))
	m.Update(runes("x"))
	assert.Equal(t, 0, m.Cursor())
	assert.Contains(t, m.View(), "Nothing to sort.")
}

func TestToggle(t *testing.T) {
	m := New("Review", sampleDecisions(), &recordingPlacer{})
	assert.True(t, m.Included(0))
	assert.False(t, m.Included(2), "skipped decisions start excluded")

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, m.Included(0))

	m.Update(runes("j"))
	m.Update(runes("j"))
	m.Update(runes("x"))
	assert.False(t, m.Included(2), "skip decisions cannot be included")
}

func TestApplyOnConfirm(t *testing.T) {
	placer := &recordingPlacer{}
	m := New("Review", sampleDecisions(), placer)

	m.Update(runes("j"))
	m.Update(runes("x")) // exclude b.pdf

	_, cmd := m.Update(runes("y"))
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Applying")

	// keys are ignored while applying
	_, quit := m.Update(runes("q"))
	assert.Nil(t, quit)

	for _, msg := range drain(cmd) {
		m.Update(msg)
	}

	require.True(t, m.Applied())
	require.Len(t, placer.applied, 1)
	assert.Equal(t, "/t/a.jpg", placer.applied[0].Source)
	assert.Len(t, m.Outcomes(), 1)
	assert.Contains(t, testutils.StripANSI(m.View()), "Moved 1 file(s), 10 B")

	_, cmd = m.Update(runes("z"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestEnterApplies(t *testing.T) {
	placer := &recordingPlacer{}
	m := New("Review", sampleDecisions()[:1], placer)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range drain(cmd) {
		m.Update(msg)
	}
	assert.Len(t, placer.applied, 1)
}

func TestQuitWithoutApplying(t *testing.T) {
	placer := &recordingPlacer{}
	m := New("Review", sampleDecisions(), placer)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, placer.applied)
	assert.False(t, m.Applied())
	assert.Empty(t, m.View())
}

func TestViewMarksRows(t *testing.T) {
	decisions := sampleDecisions()
	decisions[0].Action = types.ActionBackupSimulate
	decisions[0].BackupPath = decisions[0].DestinationPath + ".backup"
	m := New("Review /t", decisions, &recordingPlacer{})

	view := testutils.StripANSI(m.View())
	assert.Contains(t, view, "Review /t")
	assert.Contains(t, view, "a.jpg -> Pictures/")
	assert.Contains(t, view, "+backup")
	assert.Contains(t, view, "[dry run]")
	assert.Contains(t, view, "(exists, skipped)")
}

func TestHelpToggle(t *testing.T) {
	m := New("Review", sampleDecisions(), &recordingPlacer{})
	short := testutils.StripANSI(m.View())
	m.Update(runes("?"))
	full := testutils.StripANSI(m.View())
	assert.NotContains(t, short, "down")
	assert.Contains(t, full, "down")
}

func TestApplyWithEngine(t *testing.T) {
	target := t.TempDir()
	testutils.CreateTestFilesWithContent(t, target, map[string]string{"a.jpg": "image"})
	settings := testutils.NewSettings(t, target)

	engine := organize.NewEngine(settings, nil)
	d := engine.Plan(types.NewCandidate(filepath.Join(target, "a.jpg")), "Pictures")

	m := New("Review", []types.Decision{d}, engine)
	_, cmd := m.Update(runes("y"))
	for _, msg := range drain(cmd) {
		m.Update(msg)
	}

	require.Len(t, m.Outcomes(), 1)
	require.NoError(t, m.Outcomes()[0].Err)
	assert.FileExists(t, filepath.Join(target, "Pictures", "a.jpg"))
}
