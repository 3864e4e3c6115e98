// Package results shows the score of a finished attempt.
package results

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/paperz/internal/facade"
	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/router"
	"github.com/abhisek/paperz/internal/screen"
	"github.com/abhisek/paperz/internal/ui/components"
	"github.com/abhisek/paperz/internal/ui/layout"
	"github.com/abhisek/paperz/internal/ui/theme"
)

// Screen displays the stats and per-exercise outcome of the loaded attempt.
type Screen struct {
	view     *facade.Facade
	selected int
	expanded bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a results screen reading from f.
func New(f *facade.Facade) *Screen {
	return &Screen{view: f}
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

func (s *Screen) Title() string {
	return "Results"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Exercise"},
		{Key: "Space", Description: "Details"},
		{Key: "Enter", Description: "Review"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}

	n := 0
	if p := s.view.GetState().Paper; p != nil {
		n = len(p.Exercises)
	}
	switch kmsg.String() {
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < n-1 {
			s.selected++
		}
	case "space", " ":
		s.expanded = !s.expanded
	case "enter", "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	v := s.view.Get()
	if v.Paper == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(layout.Center(width, theme.Title.Render(headline(v.Mode))))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Score: %d%%      Correct: %d of %d", v.Stats.Score, v.Stats.CorrectCount, v.Stats.TotalCount)
	b.WriteString(layout.Center(width, theme.Body.Bold(true).Render(stats)))
	b.WriteString("\n")
	bar := components.NewProgressBar("", v.Stats.CorrectCount, v.Stats.TotalCount, min(width-8, 60))
	b.WriteString(layout.Center(width, bar.View()))
	b.WriteString("\n\n")

	divider := theme.Dimmed.Render(strings.Repeat("─", min(width-8, 60)))
	b.WriteString(layout.Center(width, theme.Subtitle.Render("Exercises")))
	b.WriteString("\n")
	b.WriteString(layout.Center(width, divider))
	b.WriteString("\n")

	rowWidth := min(width-8, 60)
	for i, ex := range v.Paper.Exercises {
		correct, total := exerciseScore(ex, v.Answers)
		label := ex.Title
		if label == "" {
			label = string(ex.Type)
		}
		line := fmt.Sprintf("%2d. %-30s %d/%d", i+1, truncate(label, 30), correct, total)

		style := theme.Incorrect
		if correct == total {
			style = theme.Correct
		}
		if i == s.selected {
			line = "▸ " + line
			style = style.Underline(true)
		} else {
			line = "  " + line
		}
		b.WriteString(layout.Center(width, style.Width(rowWidth).Render(line)))
		b.WriteString("\n")

		if i == s.selected && s.expanded {
			b.WriteString(layout.Center(width, renderDetails(ex, v.Answers, rowWidth)))
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().MaxHeight(height).Render(b.String())
}

func renderDetails(ex paper.Exercise, answers paper.AnswerMap, width int) string {
	var b strings.Builder
	for _, it := range ex.Items {
		chosen := -1
		if a, ok := answers[it.ID]; ok {
			chosen = a
		}
		if it.Prompt != "" {
			b.WriteString(theme.Body.Render(it.Prompt) + "\n")
		}
		b.WriteString(components.OptionList{Item: it, Chosen: chosen, Cursor: -1, Reveal: true}.View(width - 4))
	}
	return lipgloss.NewStyle().Width(width).PaddingLeft(4).Render(strings.TrimRight(b.String(), "\n"))
}

func exerciseScore(ex paper.Exercise, answers paper.AnswerMap) (correct, total int) {
	for _, it := range ex.Items {
		total++
		if a, ok := answers[it.ID]; ok && a == it.CorrectIndex() {
			correct++
		}
	}
	return correct, total
}

func headline(m paper.Status) string {
	if m == paper.StatusAbandoned {
		return "Paper abandoned"
	}
	return "Paper complete!"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
