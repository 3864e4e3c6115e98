package paper

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/paperz/internal/facade"
	pp "github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/state"
	"github.com/abhisek/paperz/internal/ui/components"
	"github.com/abhisek/paperz/internal/ui/layout"
	"github.com/abhisek/paperz/internal/ui/theme"
)

// panelWidth is the width of the navigation panel beside the card.
const panelWidth = 24

func (s *Screen) View(width, height int) string {
	v := s.view.Get()

	if v.Paper == nil {
		if v.Error != "" {
			return renderError(width, v.Error)
		}
		return renderLoading(width)
	}
	if s.confirm != "" {
		return renderConfirm(width, s.confirm)
	}

	top := components.NewProgressBar("Answered", s.orch.Stores().Data.AnsweredCount(), v.Paper.ItemCount(), width-4).View()
	bottom := s.renderBottom(v, width)

	bodyHeight := max(height-lipgloss.Height(top)-lipgloss.Height(bottom)-1, 1)
	var body string
	if v.ViewMode == state.ViewCard {
		body = s.renderCardView(v, width, bodyHeight)
	} else {
		body = s.renderScrollView(v, width, bodyHeight)
	}

	return " " + top + "\n" + body + "\n" + bottom
}

// renderBottom shows the jump prompt, a pending toast or a stored error.
func (s *Screen) renderBottom(v facade.View, width int) string {
	switch {
	case s.jump.Focused():
		return " " + s.jump.View()
	case s.toast != "":
		return " " + theme.Toast.Render(s.toast)
	case v.Error != "":
		return " " + theme.Toast.Render(v.Error)
	case v.IsSubmitting:
		return " " + theme.Hint.Render("Saving...")
	}
	return ""
}

func (s *Screen) renderScrollView(v facade.View, width, height int) string {
	refs := itemRefs(v.Paper)
	focusEx := 0
	if s.focus < len(refs) {
		focusEx = refs[s.focus].ex
	}

	var lines []string
	top := 0
	for i := range v.Paper.Exercises {
		if i == focusEx {
			top = len(lines)
		}
		block := s.renderExercise(v, i, width-2, i == focusEx)
		lines = append(lines, strings.Split(block, "\n")...)
	}

	top = min(top, max(len(lines)-height, 0))
	end := min(top+height, len(lines))
	return strings.Join(lines[top:end], "\n")
}

func (s *Screen) renderCardView(v facade.View, width, height int) string {
	cur := v.CurrentExerciseIndex
	if cur >= len(v.Paper.Exercises) {
		return ""
	}

	arrow := "→"
	if v.Direction == state.DirectionLeft {
		arrow = "←"
	}
	heading := theme.Subtitle.Render(fmt.Sprintf(" %s Exercise %d of %d", arrow, cur+1, len(v.Paper.Exercises)))

	cardWidth := width - 2
	if v.NavigationPanelOpen {
		cardWidth -= panelWidth + 1
	}
	card := s.renderExercise(v, cur, cardWidth, true)

	body := card
	if v.NavigationPanelOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, card, " ", renderPanel(v, panelWidth))
	}
	if layout.IsCompactHeight(height) {
		return lipgloss.NewStyle().MaxHeight(height).Render(body)
	}
	return lipgloss.NewStyle().MaxHeight(height).Render(heading + "\n" + body)
}

// renderExercise renders one exercise as a card.
func (s *Screen) renderExercise(v facade.View, exIdx, width int, current bool) string {
	ex := v.Paper.Exercises[exIdx]
	inner := max(width-6, 10)
	interactive := v.Mode.AcceptsAnswers()
	refs := itemRefs(v.Paper)

	var b strings.Builder
	title := fmt.Sprintf("%d. %s", exIdx+1, exerciseTitle(ex))
	b.WriteString(theme.Title.Render(title))
	if v.Marked[ex.ID] {
		b.WriteString(" " + theme.MarkBadge.Render("marked"))
	}
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(typeLabel(ex.Type)))
	b.WriteString("\n")

	if a := ex.Asset; a != nil {
		if a.Passage != "" {
			b.WriteString("\n" + theme.Passage.Width(inner).Render(a.Passage) + "\n")
		}
		if a.AudioURL != "" {
			b.WriteString("\n" + theme.Body.Render("♪ "+a.AudioURL) + "\n")
		}
		switch {
		case ex.RevealTranscript(v.Mode):
			if a.Transcript != "" {
				b.WriteString("\n" + theme.Passage.Width(inner).Render(a.Transcript) + "\n")
			}
			if a.Translation != "" {
				b.WriteString("\n" + theme.Hint.Width(inner).Render(a.Translation) + "\n")
			}
		case ex.Type.DefersTranscript() && (a.Transcript != "" || a.Translation != ""):
			b.WriteString("\n" + theme.Hint.Render("Transcript is shown once the paper is finished.") + "\n")
		}
	}

	for j, it := range ex.Items {
		focused := current && s.focus < len(refs) && refs[s.focus] == itemRef{ex: exIdx, item: j}

		prompt := it.Prompt
		if prompt == "" {
			prompt = fmt.Sprintf("Item %d", j+1)
		}
		if focused {
			b.WriteString("\n" + theme.Selected.Render("▸ "+prompt) + "\n")
		} else {
			b.WriteString("\n" + theme.Body.Render("  "+prompt) + "\n")
		}

		chosen := -1
		if a, ok := v.Answers[it.ID]; ok {
			chosen = a
		}
		cursor := -1
		if focused && interactive {
			cursor = s.cursor
		}
		b.WriteString(components.OptionList{
			Item:   it,
			Chosen: chosen,
			Cursor: cursor,
			Reveal: v.Mode.Finished(),
		}.View(inner))
	}

	style := theme.Card
	if current {
		style = theme.CurrentCard
	}
	return style.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// renderPanel lists the exercises passing the current filter.
func renderPanel(v facade.View, width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Exercises"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render("filter: " + string(v.Filter) + " (F)"))
	b.WriteString("\n")

	indices := state.FilterExercises(v.Paper, v.Answers, v.Marked, v.Filter)
	if len(indices) == 0 {
		b.WriteString(theme.Hint.Render("none"))
	}
	for _, i := range indices {
		ex := v.Paper.Exercises[i]
		line := fmt.Sprintf("%2d %s", i+1, exerciseBadge(v, ex))
		if v.Marked[ex.ID] {
			line += " ★"
		}
		if i == v.CurrentExerciseIndex {
			b.WriteString(theme.Selected.Render("▸" + line))
		} else {
			b.WriteString(theme.Unselected.Render(" " + line))
		}
		b.WriteString("\n")
	}
	return theme.Panel.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// exerciseBadge summarizes an exercise: answered state while taking the
// paper, correctness once it is finished.
func exerciseBadge(v facade.View, ex pp.Exercise) string {
	answered := 0
	correct := 0
	for _, it := range ex.Items {
		if a, ok := v.Answers[it.ID]; ok {
			answered++
			if a == it.CorrectIndex() {
				correct++
			}
		}
	}
	if v.Mode.Finished() {
		if answered > 0 && correct == len(ex.Items) {
			return theme.Correct.Render("✓")
		}
		if answered > 0 {
			return theme.Incorrect.Render("✗")
		}
		return theme.Dimmed.Render("·")
	}
	if answered == len(ex.Items) && answered > 0 {
		return theme.Correct.Render("●")
	}
	if answered > 0 {
		return theme.Body.Render("◐")
	}
	return theme.Dimmed.Render("○")
}

func exerciseTitle(ex pp.Exercise) string {
	if ex.Title != "" {
		return ex.Title
	}
	return typeLabel(ex.Type)
}

func typeLabel(t pp.ExerciseType) string {
	switch t {
	case pp.TypeSingleChoice:
		return "Single choice"
	case pp.TypeCloze:
		return "Fill in the blank"
	case pp.TypeReading:
		return "Reading"
	case pp.TypeListening:
		return "Listening"
	case pp.TypeTranslation:
		return "Translation"
	}
	return string(t)
}

func renderConfirm(width int, op string) string {
	title := "Complete this paper?"
	detail := "Your answers will be graded and locked."
	if op == opAbandon {
		title = "Abandon this paper?"
		detail = "The attempt ends without a score. You can retry later."
	}
	dialog := theme.Dialog.Render(
		theme.Title.Render(title) + "\n" +
			theme.Subtitle.Render(detail) + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.Success).Render("[Y] Yes") + "   " +
			lipgloss.NewStyle().Foreground(theme.Primary).Render("[N] No"))
	return "\n\n" + layout.Center(width, dialog)
}

func renderLoading(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n  Loading paper...")
}

func renderError(width int, msg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  %s\n\n  Press r to try again.", msg))
}
