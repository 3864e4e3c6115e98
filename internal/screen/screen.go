package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/paperz/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first shown.
	Init() tea.Cmd

	// Update handles messages and returns the updated screen and command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is implemented by screens that show a status badge in the
// header.
type StatusProvider interface {
	Status() string
}

// Closer is implemented by screens holding subscriptions or adapters that
// must be released when the screen leaves the stack.
type Closer interface {
	Close()
}
