// Package pinentrytty implements pinentry.Backend by prompting on a
// terminal: no-echo reads for PINs via golang.org/x/term, and a simple
// y/n/cancel scan for confirmations. It is an external collaborator from
// the assuan/pinentry engine's point of view, not a command handler.
package pinentrytty

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/go-assuan/pinentry/pinentry"
)

// Terminal is a pinentry.Backend that reads from and writes to a TTY. It
// opens the device lazily on first use: the path given to SetTTY, or
// /dev/tty when none was set. Construct one with NewTerminal.
type Terminal struct {
	logger *slog.Logger

	ttyPath string
	tty     *os.File
	reader  *bufio.Reader
}

// NewTerminal returns a Terminal. If logger is nil, slog.Default() is used.
func NewTerminal(logger *slog.Logger) *Terminal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Terminal{logger: logger}
}

// SetTTY implements pinentry.Backend. It records the device path; the file
// is opened lazily so that SetTTY itself can never fail on a path that is
// never subsequently used.
func (t *Terminal) SetTTY(path string) error {
	if t.tty != nil {
		_ = t.tty.Close()
		t.tty = nil
		t.reader = nil
	}
	t.ttyPath = path
	return nil
}

func (t *Terminal) open() (*os.File, *bufio.Reader, error) {
	if t.tty != nil {
		return t.tty, t.reader, nil
	}
	path := t.ttyPath
	if path == "" {
		path = "/dev/tty"
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("pinentrytty: open %s: %w", path, err)
	}
	t.tty = f
	t.reader = bufio.NewReader(f)
	return t.tty, t.reader, nil
}

func printPrompt(w io.Writer, errText, title, desc string) {
	if title != "" {
		fmt.Fprintf(w, "[%s]\r\n", title)
	}
	if desc != "" {
		fmt.Fprintf(w, "%s\r\n", desc)
	}
	if errText != "" {
		fmt.Fprintf(w, "ERROR: %s\r\n", errText)
	}
}

// GetPin implements pinentry.Backend. It disables terminal echo for the
// duration of the read, the same guarantee spec.md §4.4 asks of the
// SecretData path on the wire.
func (t *Terminal) GetPin(errText, title, desc, prompt string) (*string, error) {
	f, _, err := t.open()
	if err != nil {
		return nil, err
	}
	printPrompt(f, errText, title, desc)
	fmt.Fprint(f, prompt)

	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("pinentrytty: %s is not a terminal", t.ttyPath)
	}
	raw, err := term.ReadPassword(fd)
	fmt.Fprint(f, "\r\n")
	if err != nil {
		t.logger.Error("pinentrytty: read pin failed", slog.Any("err", err))
		return nil, nil
	}
	pin := string(raw)
	return &pin, nil
}

// Confirm implements pinentry.Backend with a plain line-oriented prompt; it
// deliberately does not decode raw terminal keys (spec.md's TTY-internals
// Non-goal), unlike original_source's pinentry-tty which uses the termion
// crate for single-keypress input.
func (t *Terminal) Confirm(errText, title, desc string, buttons pinentry.Buttons) (pinentry.Choice, error) {
	f, reader, err := t.open()
	if err != nil {
		return pinentry.ChoiceCanceled, err
	}
	printPrompt(f, errText, title, desc)

	okLabel := buttons.OK
	var notOKLabel, cancelLabel string
	if buttons.NotOK != nil {
		notOKLabel = *buttons.NotOK
	}
	if buttons.Cancel != nil {
		cancelLabel = *buttons.Cancel
	}

	fmt.Fprintf(f, "%s", promptLine(okLabel, notOKLabel, cancelLabel))

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return pinentry.ChoiceCanceled, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	switch {
	case answer == "" || answer == "y" || answer == "yes":
		return pinentry.ChoiceOK, nil
	case notOKLabel != "" && (answer == "n" || answer == "no"):
		return pinentry.ChoiceNotOK, nil
	default:
		return pinentry.ChoiceCanceled, nil
	}
}

func promptLine(ok, notOK, cancel string) string {
	var b strings.Builder
	b.WriteString(ok)
	b.WriteString(" [Y")
	if notOK != "" {
		b.WriteString("/n")
	}
	if cancel != "" {
		b.WriteString("/c")
	}
	b.WriteString("]? ")
	return b.String()
}

// Close releases the underlying TTY file descriptor, if one was opened.
func (t *Terminal) Close() error {
	if t.tty == nil {
		return nil
	}
	err := t.tty.Close()
	t.tty = nil
	t.reader = nil
	return err
}
