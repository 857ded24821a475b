// Package viewer is an interactive pager over annotated console output.
package viewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/buildchain/pkg/annotate"
	"github.com/dkoosis/buildchain/pkg/markup"
	"github.com/dkoosis/buildchain/pkg/render"
)

// Line is one console line as shown in the viewer.
type Line struct {
	N    int
	Text string
	Ref  *annotate.Reference
	URL  string
}

// Builder collects annotated lines. Add matches annotate.LineCallback.
type Builder struct {
	lines []Line
}

// Add records line n. It never fails.
func (b *Builder) Add(n int, t *markup.Text, ref *annotate.Reference) error {
	line := Line{N: n, Text: strings.TrimRight(t.Text(), "\r\n")}
	if ref != nil {
		r := *ref
		line.Ref = &r
		if links := markup.Links(t.Render()); len(links) > 0 {
			line.URL = links[0].Href
		}
	}
	b.lines = append(b.lines, line)
	return nil
}

// Lines returns the collected lines.
func (b *Builder) Lines() []Line {
	return b.lines
}

// Run shows lines until the user quits or ctx is done.
func Run(ctx context.Context, title string, lines []Line, theme render.Theme) error {
	program := tea.NewProgram(newModel(title, lines, theme), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

type model struct {
	title    string
	lines    []Line
	links    []int // indexes into lines of linked lines
	selected int   // index into links, -1 when none selected
	theme    render.Theme
	viewport viewport.Model
	ready    bool
	width    int
}

func newModel(title string, lines []Line, theme render.Theme) model {
	m := model{
		title:    title,
		lines:    lines,
		selected: -1,
		theme:    theme,
		viewport: viewport.New(0, 0),
	}
	for i, l := range lines {
		if l.Ref != nil {
			m.links = append(m.links, i)
		}
	}
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "n":
			if m.selected < len(m.links)-1 {
				m.selected++
				m.refresh()
			}
			return m, nil
		case "p":
			if m.selected > 0 {
				m.selected--
				m.refresh()
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1) // title + status bar
		m.ready = true
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refresh re-renders the content and scrolls the selected link into view.
func (m *model) refresh() {
	m.viewport.SetContent(m.content())
	if m.selected < 0 {
		return
	}
	row := m.links[m.selected]
	if row < m.viewport.YOffset || row >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(row)
	}
}

func (m model) content() string {
	current := -1
	if m.selected >= 0 {
		current = m.links[m.selected]
	}
	rows := make([]string, len(m.lines))
	for i, l := range m.lines {
		switch {
		case i == current:
			rows[i] = m.theme.Bold.Render("▸ ") + m.theme.Link.Render(l.Text)
		case l.Ref != nil:
			rows[i] = "  " + m.theme.Link.Render(l.Text)
		default:
			rows[i] = "  " + l.Text
		}
	}
	return strings.Join(rows, "\n")
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := m.theme.Bold.Render(runewidth.Truncate(m.title, m.width, "…"))
	return header + "\n" + m.viewport.View() + "\n" + m.theme.Muted.Render(m.status())
}

// status describes the selected link, truncated to the window width.
func (m model) status() string {
	var s string
	switch {
	case len(m.links) == 0:
		s = "no links · q quit"
	case m.selected < 0:
		s = fmt.Sprintf("%d links · n next · p previous · q quit", len(m.links))
	default:
		l := m.lines[m.links[m.selected]]
		s = fmt.Sprintf("link %d/%d · line %d · %s #%d · %s",
			m.selected+1, len(m.links), l.N, l.Ref.Job, l.Ref.Build, l.URL)
	}
	return runewidth.Truncate(s, m.width, "…")
}
