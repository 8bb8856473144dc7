// Package pinentry implements the GnuPG pinentry command surface as an
// assuan.Server service: it accumulates per-interaction configuration via
// SET* commands and, on GETPIN/CONFIRM/MESSAGE, drives a pluggable
// PromptBackend (spec.md §4.7/§4.8).
package pinentry

import "github.com/go-assuan/pinentry/assuan"

// Choice is the user's response to a CONFIRM/MESSAGE prompt.
type Choice int

const (
	// ChoiceOK means the user pressed the affirmative button.
	ChoiceOK Choice = iota
	// ChoiceNotOK means the user pressed the explicit "not ok" button.
	ChoiceNotOK
	// ChoiceCanceled means the user aborted (pressed cancel, closed the
	// prompt, or no button was selectable).
	ChoiceCanceled
)

// Buttons describes the labels available on a CONFIRM prompt. NotOK and
// Cancel are nil when the corresponding button wasn't configured (or was
// suppressed by --one-button), except that Cancel carries the default
// label "Cancel" when neither NotOK nor Cancel was configured.
type Buttons struct {
	OK     string
	NotOK  *string
	Cancel *string
}

// Backend is the contract pinentry needs from a user prompter (spec.md
// §4.8, component C8). A terminal-based implementation lives in the
// pinentrytty package; it is an external collaborator from the engine's
// point of view.
type Backend interface {
	// SetTTY remembers the TTY device subsequent prompts should use.
	SetTTY(path string) error

	// GetPin asks the user for a PIN. A nil result (with a nil error)
	// means the user aborted. errText, title, and desc may be empty.
	GetPin(errText, title, desc, prompt string) (*string, error)

	// Confirm asks the user to choose among buttons.
	Confirm(errText, title, desc string, buttons Buttons) (Choice, error)
}

// BackendError is the error contract backends use to report failures with
// an assuan.ErrorCode, mirroring spec.md §4.8's "BackendErr must expose an
// ErrorCode and a display form."
type BackendError interface {
	error
	assuan.HasErrorCode
}
