// Package library lists the papers imported into the local database.
package library

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/paperz/internal/router"
	"github.com/abhisek/paperz/internal/screen"
	"github.com/abhisek/paperz/internal/store"
	"github.com/abhisek/paperz/internal/ui/components"
	"github.com/abhisek/paperz/internal/ui/layout"
	"github.com/abhisek/paperz/internal/ui/theme"
)

// Lister lists imported papers. store.PaperRepo satisfies it.
type Lister interface {
	ListPapers(ctx context.Context) ([]store.PaperSummary, error)
}

// OpenFunc builds the screen for taking a paper.
type OpenFunc func(paperID string) screen.Screen

type papersLoadedMsg struct {
	papers []store.PaperSummary
	err    error
}

// Screen is a menu of local papers.
type Screen struct {
	ctx    context.Context
	lister Lister
	open   OpenFunc

	menu   components.Menu
	papers []store.PaperSummary
	loaded bool
	errMsg string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the library screen.
func New(ctx context.Context, lister Lister, open OpenFunc) *Screen {
	return &Screen{ctx: ctx, lister: lister, open: open}
}

func (s *Screen) Init() tea.Cmd {
	return s.load()
}

func (s *Screen) Title() string {
	return "Library"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "r", Description: "Refresh"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case papersLoadedMsg:
		s.loaded = true
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.papers = msg.papers
		s.menu = components.NewMenu(s.menuItems())
		return s, nil

	case tea.KeyPressMsg:
		if msg.String() == "r" {
			return s, s.load()
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, height int) string {
	var body string
	switch {
	case s.errMsg != "":
		body = lipgloss.NewStyle().Foreground(theme.Error).Render("Error: " + s.errMsg)
	case !s.loaded:
		body = theme.Hint.Render("Loading papers...")
	case len(s.papers) == 0:
		body = theme.Hint.Render("No papers yet. Import one with: paperz seed <file.json>")
	default:
		body = s.menu.View()
	}

	heading := theme.Title.Render("Papers") + "\n" +
		theme.Subtitle.Render(fmt.Sprintf("%d available", len(s.papers)))
	return "\n" + layout.Center(width, lipgloss.JoinVertical(lipgloss.Left, heading, "", body))
}

func (s *Screen) menuItems() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(s.papers))
	for _, p := range s.papers {
		id := p.ID
		label := p.Title
		if label == "" {
			label = id
		}
		items = append(items, components.MenuItem{
			Label:  label,
			Detail: p.ImportedAt.Format("2006-01-02"),
			Action: func() tea.Cmd {
				next := s.open(id)
				return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
			},
		})
	}
	return items
}

func (s *Screen) load() tea.Cmd {
	ctx, lister := s.ctx, s.lister
	return func() tea.Msg {
		papers, err := lister.ListPapers(ctx)
		return papersLoadedMsg{papers: papers, err: err}
	}
}
