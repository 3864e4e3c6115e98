package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/ui/theme"
)

// OptionLetters label options in display order. Items with more options
// than letters cannot be answered from the keyboard past the last letter.
const OptionLetters = "abcdef"

// OptionList renders the options of one exercise item.
type OptionList struct {
	Item paper.ExerciseItem
	// Chosen is the recorded answer index, or -1.
	Chosen int
	// Cursor is the highlighted option while answering, or -1.
	Cursor int
	// Reveal shows correctness and rationales instead of the cursor.
	Reveal bool
}

// LetterIndex maps "a".."f" to an option index.
func LetterIndex(key string) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	i := strings.IndexByte(OptionLetters, key[0])
	return i, i >= 0
}

// View renders the options, one per line.
func (o OptionList) View(width int) string {
	var b strings.Builder
	for i, opt := range o.Item.Options {
		letter := "?"
		if i < len(OptionLetters) {
			letter = string(OptionLetters[i])
		}

		marker := "  "
		switch {
		case i == o.Chosen:
			marker = "● "
		case !o.Reveal && i == o.Cursor:
			marker = "> "
		}

		line := fmt.Sprintf("%s%s) %s", marker, letter, opt.Text)
		b.WriteString(o.style(i, opt).Width(width).Render(line))
		b.WriteString("\n")

		if o.Reveal && opt.Rationale != "" && (opt.IsCorrect || i == o.Chosen) {
			b.WriteString(theme.Hint.Width(width).PaddingLeft(5).Render(opt.Rationale))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (o OptionList) style(i int, opt paper.Option) lipgloss.Style {
	if o.Reveal {
		switch {
		case opt.IsCorrect:
			return theme.Correct
		case i == o.Chosen:
			return theme.Incorrect
		default:
			return theme.Dimmed
		}
	}
	if i == o.Chosen || i == o.Cursor {
		return theme.Selected
	}
	return theme.Unselected
}
