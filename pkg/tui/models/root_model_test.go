package models

import (
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/subwatch/pkg/fragment"
	"github.com/go-go-golems/subwatch/pkg/submit"
	"github.com/go-go-golems/subwatch/pkg/tui"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const superRows = `<table>
<tr><th>#</th><th>Team</th><th>Status</th><th></th></tr>
<tr><td>2</td><td>Rocket</td><td>new</td><td><a class="ajax" href="/super/set/2/printing">print</a> <a href="/super/see/2">see</a></td></tr>
<tr><td>1</td><td>Nulls</td><td>printing</td><td><a class="ajax" href="/super/set/1/delivered">deliver</a></td></tr>
</table>`

func press(t *testing.T, m tea.Model, keys ...tea.KeyMsg) (tea.Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(k)
	}
	return m, cmd
}

func typeText(t *testing.T, m tea.Model, s string) tea.Model {
	t.Helper()
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyQ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
)

func TestRoot_FragmentReplacesHistory(t *testing.T) {
	var m tea.Model = NewRootModel(Options{Title: "Subs"})

	m, _ = m.Update(tui.FragmentMsg{Content: superRows, At: time.Now()})
	require.Len(t, m.(RootModel).history.Document().Rows, 2)

	m, _ = m.Update(tui.FragmentMsg{Content: `<table><tr><td>9</td><td>delivered</td></tr></table>`, At: time.Now()})
	rows := m.(RootModel).history.Document().Rows
	require.Len(t, rows, 1)
	require.Equal(t, fragment.StatusDelivered, rows[0].Status)
	require.Contains(t, m.View(), "9")
}

func TestRoot_TitleMsgSetsWindowTitle(t *testing.T) {
	var m tea.Model = NewRootModel(Options{Title: "Subs"})
	require.NotNil(t, m.Init())

	m, cmd := m.Update(tui.TitleMsg{Title: "||||| Subs |||||"})
	require.NotNil(t, cmd)
	require.Equal(t, "||||| Subs |||||", m.(RootModel).Title())
}

func TestRoot_PollStatusInHeader(t *testing.T) {
	var m tea.Model = NewRootModel(Options{Title: "Subs"})
	require.Contains(t, m.View(), "connecting")

	m, _ = m.Update(tui.PollStatusMsg{Ok: true, Cursor: 12})
	require.Contains(t, m.View(), "cursor 12")

	m, _ = m.Update(tui.PollStatusMsg{Cursor: -1, Error: "connection refused", RetryIn: 10 * time.Second})
	view := m.View()
	require.Contains(t, view, "poll failed, retry in 10s")
	require.Contains(t, view, "connection refused")
}

func TestRoot_SupervisorRelaysSelectedLink(t *testing.T) {
	var mu sync.Mutex
	var relayed []fragment.Link
	var m tea.Model = NewRootModel(Options{
		Title:      "Super",
		Supervisor: true,
		Relay: func(l fragment.Link) bool {
			mu.Lock()
			defer mu.Unlock()
			relayed = append(relayed, l)
			return true
		},
	})

	m, _ = m.Update(tui.FragmentMsg{Content: superRows, Blink: true})
	require.Len(t, m.(RootModel).actions.links, 2)
	require.Contains(t, m.View(), "new submissions")

	m, _ = press(t, m, keyTab, keyDown, keyEnter)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, relayed, 1)
	require.Equal(t, "/super/set/1/delivered", relayed[0].Href)
}

func TestRoot_RelayResultShown(t *testing.T) {
	var m tea.Model = NewRootModel(Options{Supervisor: true})
	m, _ = m.Update(tui.RelaySentMsg{Href: "/super/set/2/printing"})
	require.Contains(t, m.View(), "sent /super/set/2/printing")
}

func TestRoot_SubmitDisablesThenClears(t *testing.T) {
	var got []submit.Form
	var m tea.Model = NewRootModel(Options{
		Title: "Subs",
		Submit: func(f submit.Form) error {
			got = append(got, f)
			return errors.New("server said no")
		},
	})

	m, _ = press(t, m, keyTab)
	m = typeText(t, m, "rocket")
	m, _ = press(t, m, keyEnter)
	m = typeText(t, m, "main.c")
	m, cmd := press(t, m, keyEnter)
	require.NotNil(t, cmd)
	require.True(t, m.(RootModel).form.Busy())
	require.Contains(t, m.View(), "Sending")

	_, again := press(t, m, keyEnter)
	require.Nil(t, again)

	done := cmd()
	require.IsType(t, tui.SubmitFinishedMsg{}, done)
	require.Equal(t, []submit.Form{{TeamName: "rocket", CodeFile: "main.c"}}, got)

	m, _ = m.Update(done)
	form := m.(RootModel).form
	require.False(t, form.Busy())
	require.Equal(t, submit.Form{}, form.Form())
}

func TestRoot_SubmitRequiresBothFields(t *testing.T) {
	calls := 0
	var m tea.Model = NewRootModel(Options{
		Submit: func(submit.Form) error {
			calls++
			return nil
		},
	})

	m, _ = press(t, m, keyTab, keyEnter)
	m, cmd := press(t, m, keyEnter)
	require.Nil(t, cmd)
	errs := m.(RootModel).form.Errors()
	require.True(t, errs.Has(submit.FieldTeamName))
	require.True(t, errs.Has(submit.FieldCodeFile))
	require.Zero(t, calls)
}

func TestRoot_QuitKeys(t *testing.T) {
	var m tea.Model = NewRootModel(Options{})

	_, cmd := m.Update(keyQ)
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())

	// In the form, q is just a letter.
	m, _ = press(t, m, keyTab)
	m, _ = press(t, m, keyQ)
	require.Equal(t, "q", m.(RootModel).form.Form().TeamName)
}

func TestHistory_Filter(t *testing.T) {
	m := NewHistoryModel().WithSize(80, 20)
	doc, err := fragment.ParseString(superRows)
	require.NoError(t, err)
	m = m.WithDocument(doc, time.Now())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	require.True(t, m.Searching())
	for _, r := range "nulls" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, _ = m.Update(keyEnter)
	require.False(t, m.Searching())

	rows := m.VisibleRows()
	require.Len(t, rows, 1)
	require.Equal(t, "Nulls", rows[0].Cells[1])

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.Len(t, m.VisibleRows(), 2)
}

func TestRoot_LateFragmentDoesNotOverwriteNewer(t *testing.T) {
	var m tea.Model = NewRootModel(Options{Supervisor: true})
	now := time.Now()

	m, _ = m.Update(tui.FragmentMsg{Content: `<table><tr><td>2</td><td>printing</td></tr></table>`, At: now})
	m, _ = m.Update(tui.FragmentMsg{Content: superRows, Blink: true, At: now.Add(-time.Second)})

	root := m.(RootModel)
	rows := root.history.Document().Rows
	require.Len(t, rows, 1)
	require.Equal(t, fragment.StatusPrinting, rows[0].Status)
	require.False(t, root.unread)
	require.Empty(t, root.actions.links)
	require.NotContains(t, m.View(), "new submissions")
}

func TestRoot_LatePollStatusDoesNotOverwriteNewer(t *testing.T) {
	var m tea.Model = NewRootModel(Options{})
	now := time.Now()

	m, _ = m.Update(tui.PollStatusMsg{Cursor: -1, Error: "connection refused", RetryIn: 10 * time.Second, At: now})
	m, _ = m.Update(tui.PollStatusMsg{Ok: true, Cursor: 12, At: now.Add(-time.Millisecond)})
	require.Contains(t, m.View(), "poll failed")
	require.NotContains(t, m.View(), "cursor 12")

	m, _ = m.Update(tui.PollStatusMsg{Ok: true, Cursor: 13, At: now.Add(time.Millisecond)})
	require.Contains(t, m.View(), "cursor 13")
}
