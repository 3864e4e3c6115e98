package components

import (
	"strconv"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/paperz/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with paperz styling. It starts blurred;
// while focused it owns the keyboard.
type TextInput struct {
	Model       textinput.Model
	Label       string
	NumericOnly bool
}

// NewTextInput creates a blurred input with a prompt label.
func NewTextInput(label, placeholder string, numericOnly bool, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	return TextInput{
		Model:       ti,
		Label:       label,
		NumericOnly: numericOnly,
	}
}

// Focus gives the input the keyboard.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur releases the keyboard and clears the value.
func (t *TextInput) Blur() {
	t.Model.Blur()
	t.Model.Reset()
}

// Focused reports whether the input owns the keyboard.
func (t *TextInput) Focused() bool {
	return t.Model.Focused()
}

// Update handles messages. Non-digit characters are dropped in numeric mode.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.NumericOnly {
		if kmsg, ok := msg.(tea.KeyPressMsg); ok {
			key := kmsg.String()
			if len(key) == 1 && (key[0] < '0' || key[0] > '9') {
				return t, nil
			}
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the label and the input.
func (t TextInput) View() string {
	return lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(t.Label) +
		" " + t.Model.View()
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// NumericValue returns the input value as an integer.
func (t TextInput) NumericValue() (int, error) {
	return strconv.Atoi(t.Model.Value())
}
