package assuan

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Server owns a CommandRegistry and drives the Assuan protocol state
// machine described in spec.md §4.6: greet, then read-dispatch-write in a
// loop until BYE, clean EOF, a protocol fault, or a write error.
type Server[S any] struct {
	registry *CommandRegistry[S]
	logger   *slog.Logger
}

// NewServer returns a Server dispatching through registry.
func NewServer[S any](registry *CommandRegistry[S]) *Server[S] {
	return &Server[S]{registry: registry, logger: slog.Default()}
}

// WithLogger sets the logger used for per-connection diagnostics.
func (s *Server[S]) WithLogger(logger *slog.Logger) *Server[S] {
	s.logger = logger
	return s
}

// Serve greets the client over conn, then serves requests against state
// until the connection closes. Protocol-level faults (malformed UTF-8, a
// line that's too long, malformed percent-encoding, a read failure) are
// fatal: Serve reports them with a single ERR line and returns nil (the
// connection ended cleanly from the transport's point of view). A write
// failure is propagated to the caller, since nothing more can be safely
// sent over the connection. Handler errors are reported with ERR and never
// terminate the connection.
func (s *Server[S]) Serve(conn io.ReadWriter, state *S) error {
	if err := writeLine(conn, "OK how can I serve you?"); err != nil {
		return err
	}

	lr := NewLineReader()
	for {
		cont, err := s.serveOne(conn, lr, state)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

// serveOne reads and serves a single request. The returned bool reports
// whether the loop should continue; a non-nil error is always a write
// failure that must be propagated (every other fault is reported to the
// client inline and then terminates the loop via a false return).
func (s *Server[S]) serveOne(conn io.ReadWriter, lr *LineReader, state *S) (bool, error) {
	line, err := lr.ReadLine(conn)
	if err != nil {
		return s.reportReadFault(conn, err)
	}
	if line == nil {
		return false, nil // clean EOF at a line boundary
	}

	text := string(line)
	if !utf8.ValidString(text) {
		return false, s.writeErr(conn, ErrAssInvValue, "invalid utf-8 in request line")
	}

	if text == "" || strings.HasPrefix(text, "#") {
		return true, nil
	}

	cmd, rawArgs, hasArgs := strings.Cut(text, " ")

	var args *string
	if hasArgs {
		decoded, err := PercentDecode(rawArgs)
		if err != nil {
			return false, s.writeErr(conn, ErrAssParameter, "malformed percent encoding")
		}
		args = &decoded
	}

	resp, handlerErr, found := s.registry.dispatch(cmd, state, args)
	if !found {
		s.logger.Debug("unknown command", "cmd", cmd)
		return true, s.writeErr(conn, ErrAssUnknownCmd, "Unknown command")
	}
	if handlerErr != nil {
		s.logger.Info("handler error", "cmd", cmd, "err", handlerErr)
		return true, s.writeErr(conn, codeOf(handlerErr), handlerErr.Error())
	}

	if secret, ok := resp.(*SecretData); ok {
		defer secret.Destroy()
	}
	if err := resp.writeTo(conn); err != nil {
		return false, err
	}
	return !resp.closeConn(), nil
}

// reportReadFault maps a LineReader error to the matching ERR reply and
// always terminates the connection (spec.md §4.6's termination policy).
func (s *Server[S]) reportReadFault(conn io.ReadWriter, err error) (bool, error) {
	switch {
	case errors.Is(err, ErrLineTooLong):
		return false, s.writeErr(conn, ErrAssLineTooLong, "line is too long")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return false, s.writeErr(conn, ErrAssReadError, io.ErrUnexpectedEOF.Error())
	default:
		return false, s.writeErr(conn, ErrAssReadError, err.Error())
	}
}

// writeErr builds and writes "ERR <code> <desc>\n", falling back to
// "ERR <INTERNAL> error is too long" if desc itself doesn't fit
// (spec.md §4.4). The returned error is only non-nil on a transport write
// failure, never on the too-long fallback path.
func (s *Server[S]) writeErr(conn io.Writer, code ErrorCode, desc string) error {
	line, err := buildErrLine(code, desc)
	if err != nil {
		line, err = buildErrLine(ErrInternal, "error is too long")
		if err != nil {
			// "error is too long" always fits; unreachable.
			panic(err)
		}
	}
	return line.Write(conn)
}

func buildErrLine(code ErrorCode, desc string) (*ResponseLine, error) {
	line := NewResponseLine()
	if err := line.Append("ERR "); err != nil {
		return nil, err
	}
	if err := line.Append(strconv.Itoa(int(code))); err != nil {
		return nil, err
	}
	if err := line.Append(" "); err != nil {
		return nil, err
	}
	if err := line.Append(desc); err != nil {
		return nil, err
	}
	return line, nil
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintf(w, "%s\n", s)
	return err
}
