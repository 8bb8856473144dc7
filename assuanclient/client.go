// Package assuanclient is a minimal Assuan client, adapted from the
// pinentry client this repository's server side was built next to: it
// drives any assuan.Server-compatible peer over an io.ReadWriter, which
// makes it the natural harness for exercising this repository's own
// server end to end (see assuanclient's tests) as well as for talking to
// a spawned pinentry-assuan process.
package assuanclient

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/go-assuan/pinentry/assuan"
)

// AssuanError is returned when the peer sends an ERR line.
type AssuanError struct {
	Code        assuan.ErrorCode
	Description string
}

func (e *AssuanError) Error() string {
	return e.Description
}

var errorRx = regexp.MustCompile(`\AERR (\d+) (.*)\z`)

// UnexpectedResponseError is returned when a response doesn't match any
// form the client understands for the command it just sent.
type UnexpectedResponseError struct {
	Line string
}

func (e UnexpectedResponseError) Error() string {
	return fmt.Sprintf("assuanclient: unexpected response: %q", e.Line)
}

func newUnexpectedResponseError(line []byte) error {
	return UnexpectedResponseError{Line: string(line)}
}

// Client is an Assuan client connected to a single peer over conn.
type Client struct {
	conn     io.ReadWriter
	reader   *bufio.Reader
	logger   *slog.Logger
	commands []string
}

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithLogger sets the logger used for wire-level tracing.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithCommand appends an Assuan command sent immediately after the
// greeting, before NewClient returns.
func WithCommand(command string) ClientOption {
	return func(c *Client) { c.commands = append(c.commands, command) }
}

// WithDesc sets the description text via SETDESC.
func WithDesc(desc string) ClientOption { return WithCommand("SETDESC " + Escape(desc)) }

// WithPrompt sets the prompt via SETPROMPT.
func WithPrompt(prompt string) ClientOption { return WithCommand("SETPROMPT " + Escape(prompt)) }

// WithTitle sets the window title via SETTITLE.
func WithTitle(title string) ClientOption { return WithCommand("SETTITLE " + Escape(title)) }

// WithOK sets the OK button label via SETOK.
func WithOK(label string) ClientOption { return WithCommand("SETOK " + Escape(label)) }

// WithNotOK sets the not-OK button label via SETNOTOK.
func WithNotOK(label string) ClientOption { return WithCommand("SETNOTOK " + Escape(label)) }

// WithCancel sets the cancel button label via SETCANCEL.
func WithCancel(label string) ClientOption { return WithCommand("SETCANCEL " + Escape(label)) }

// WithErrorText sets the error text via SETERROR.
func WithErrorText(text string) ClientOption { return WithCommand("SETERROR " + Escape(text)) }

// WithOption sends an arbitrary OPTION command, e.g. "ttyname=/dev/pts/4".
func WithOption(option string) ClientOption { return WithCommand("OPTION " + option) }

// NewClient reads the greeting off conn, sends any queued commands, and
// returns a ready Client.
func NewClient(conn io.ReadWriter, opts ...ClientOption) (*Client, error) {
	c := &Client{conn: conn, reader: bufio.NewReader(conn), logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	if !isOK(line) {
		return nil, newUnexpectedResponseError(line)
	}

	for _, command := range c.commands {
		if err := c.runCommand(command); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Close sends BYE and waits for the OK that closes the session.
func (c *Client) Close() error {
	if err := c.writeLine("BYE"); err != nil {
		return err
	}
	return c.readOK()
}

// Confirm asks the peer to confirm, optionally in one-button mode. It
// returns true for an affirmative response, false for an explicit "not
// ok", and an *AssuanError wrapping assuan.ErrCanceled for a cancellation.
func (c *Client) Confirm(oneButton bool) (bool, error) {
	command := "CONFIRM"
	if oneButton {
		command += " --one-button"
	}
	if err := c.writeLine(command); err != nil {
		return false, err
	}
	line, err := c.readLine()
	if err != nil {
		var assuanErr *AssuanError
		if errors.As(err, &assuanErr) && assuanErr.Code == assuan.ErrNotConfirmed {
			return false, nil
		}
		return false, err
	}
	if isOK(line) {
		return true, nil
	}
	return false, newUnexpectedResponseError(line)
}

// Message shows the peer a one-button message.
func (c *Client) Message() error {
	if err := c.writeLine("MESSAGE"); err != nil {
		return err
	}
	return c.readOK()
}

// GetPIN asks the peer for a PIN.
func (c *Client) GetPIN() (string, error) {
	if err := c.writeLine("GETPIN"); err != nil {
		return "", err
	}
	var pin string
	for {
		line, err := c.readLine()
		if err != nil {
			return "", err
		}
		switch {
		case isOK(line):
			return pin, nil
		case isData(line):
			pin = string(Unescape(line[2:]))
		default:
			return "", newUnexpectedResponseError(line)
		}
	}
}

func (c *Client) runCommand(command string) error {
	if err := c.writeLine(command); err != nil {
		return err
	}
	return c.readOK()
}

func (c *Client) readOK() error {
	line, err := c.readLine()
	if err != nil {
		return err
	}
	if isOK(line) {
		return nil
	}
	return newUnexpectedResponseError(line)
}

// readLine reads a single logical line, transparently skipping blank lines
// and comments, and turning an ERR line into an *AssuanError.
func (c *Client) readLine() ([]byte, error) {
	for {
		raw, err := c.reader.ReadBytes('\n')
		if err != nil && len(raw) == 0 {
			return nil, err
		}
		line := bytes.TrimRight(raw, "\n")
		c.logger.Debug("assuanclient: read", slog.String("line", string(line)))
		switch {
		case isBlank(line):
		case isComment(line):
		case isError(line):
			return nil, newAssuanError(line)
		default:
			return line, nil
		}
	}
}

func (c *Client) writeLine(line string) error {
	c.logger.Debug("assuanclient: write", slog.String("line", line))
	_, err := io.WriteString(c.conn, line+"\n")
	return err
}

// IsCanceled reports whether err is an *AssuanError carrying
// assuan.ErrCanceled.
func IsCanceled(err error) bool {
	var assuanErr *AssuanError
	return errors.As(err, &assuanErr) && assuanErr.Code == assuan.ErrCanceled
}

func newAssuanError(line []byte) error {
	match := errorRx.FindSubmatch(line)
	if match == nil {
		return newUnexpectedResponseError(line)
	}
	code, _ := strconv.Atoi(string(match[1]))
	return &AssuanError{Code: assuan.ErrorCode(code), Description: string(match[2])}
}

func isBlank(line []byte) bool   { return len(bytes.TrimSpace(line)) == 0 }
func isComment(line []byte) bool { return bytes.HasPrefix(line, []byte("#")) }
func isData(line []byte) bool    { return bytes.HasPrefix(line, []byte("D ")) }
func isError(line []byte) bool   { return bytes.HasPrefix(line, []byte("ERR ")) }
func isOK(line []byte) bool      { return bytes.HasPrefix(line, []byte("OK")) }

// Escape percent-encodes s the way this repository's wire format requires
// on outgoing lines: '%', '\r', '\n', and '\' become %25/%0D/%0A/%5C.
func Escape(s string) string {
	var out bytes.Buffer
	for i := 0; i < len(s); i++ {
		switch b := s[i]; b {
		case '%':
			out.WriteString("%25")
		case '\r':
			out.WriteString("%0D")
		case '\n':
			out.WriteString("%0A")
		case '\\':
			out.WriteString("%5C")
		default:
			out.WriteByte(b)
		}
	}
	return out.String()
}

// Unescape decodes a percent-escaped payload, interpreting malformed escape
// sequences literally instead of failing, matching the leniency the
// teacher's client used for misbehaving peers.
func Unescape(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if i < len(data)-2 && data[i] == '%' && isHexDigit(data[i+1]) && isHexDigit(data[i+2]) {
			out = append(out, hexDigitValue(data[i+1])<<4|hexDigitValue(data[i+2]))
			i += 3
		} else {
			out = append(out, data[i])
			i++
		}
	}
	return out
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('A' <= c && c <= 'F') || ('a' <= c && c <= 'f')
}

func hexDigitValue(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'A' <= c && c <= 'F':
		return c - 'A' + 0xA
	default:
		return c - 'a' + 0xA
	}
}
